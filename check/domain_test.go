package check_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/optimode/mxprobe/check"
)

func TestDomainChecker_Hints(t *testing.T) {
	c := check.NewDomainChecker(check.DomainConfig{CheckDisposable: true, SuggestTypos: true})

	tests := []struct {
		input      string
		disposable bool
		suggestion string
	}{
		{"user@gmail.com", false, ""},
		{"user@gmial.com", false, "user@gmail.com"},
		{"John@hotmial.com", false, "John@hotmail.com"},
		{"user@mailinator.com", true, ""},
		{"user@corp.example.org", false, ""},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			addr, err := check.Parse(tt.input)
			require.NoError(t, err)
			h := c.Hints(addr)
			assert.Equal(t, tt.disposable, h.Disposable)
			assert.Equal(t, tt.suggestion, h.Suggestion)
		})
	}
}

func TestDomainChecker_Disabled(t *testing.T) {
	c := check.NewDomainChecker(check.DomainConfig{})
	addr, err := check.Parse("user@mailinator.com")
	require.NoError(t, err)
	assert.Equal(t, check.DomainHints{}, c.Hints(addr))
}
