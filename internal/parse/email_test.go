package parse_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/optimode/mxprobe/internal/parse"
)

func TestNewEmail_ASCII(t *testing.T) {
	e := parse.NewEmail("user@example.com")
	assert.True(t, e.Valid)
	assert.Equal(t, "user", e.Local)
	assert.Equal(t, "example.com", e.Domain)
	assert.Equal(t, "example.com", e.DomainUnicode)
	assert.False(t, e.Quoted)
}

func TestNewEmail_Whitespace(t *testing.T) {
	e := parse.NewEmail("  user@example.com  ")
	assert.True(t, e.Valid)
	assert.Equal(t, "user@example.com", e.Raw)
	assert.Equal(t, "user", e.Local)
}

func TestNewEmail_Invalid(t *testing.T) {
	tests := map[string]string{
		"":                   "empty address",
		"noatsign":           "missing @",
		"@nodomain":          "local part is empty",
		"nolocal@":           "domain is empty",
		"a@b@example.com":    "address contains more than one @",
		"us\x00er@ex.com":    "address contains control character",
		"user\t@example.com": "address contains control character",
		"us\xffer@ex.com":    "address is not valid UTF-8",
	}
	for raw, problem := range tests {
		e := parse.NewEmail(raw)
		assert.False(t, e.Valid, "expected invalid for %q", raw)
		assert.Equal(t, problem, e.Problem, "problem for %q", raw)
	}
}

func TestNewEmail_QuotedLocal(t *testing.T) {
	e := parse.NewEmail(`"john@home"@example.com`)
	assert.True(t, e.Valid)
	assert.True(t, e.Quoted)
	assert.Equal(t, `"john@home"`, e.Local)

	e = parse.NewEmail(`"unbalanced\"@example.com`)
	assert.False(t, e.Valid)
}

func TestNewEmail_LocalCasePreserved(t *testing.T) {
	e := parse.NewEmail("John.Doe@EXAMPLE.COM")
	assert.True(t, e.Valid)
	assert.Equal(t, "John.Doe", e.Local)
	assert.Equal(t, "example.com", e.Domain)
}

func TestNewEmail_IDN_UnicodeDomain(t *testing.T) {
	e := parse.NewEmail("user@münchen.de")
	assert.True(t, e.Valid)
	assert.Equal(t, "xn--mnchen-3ya.de", e.Domain)
	assert.Equal(t, "münchen.de", e.DomainUnicode)
}

func TestNewEmail_IDN_PunycodeDomain(t *testing.T) {
	e := parse.NewEmail("user@xn--mnchen-3ya.de")
	assert.True(t, e.Valid)
	assert.Equal(t, "xn--mnchen-3ya.de", e.Domain)
	assert.Equal(t, "münchen.de", e.DomainUnicode)
}

func TestNewEmail_EAI_UnicodeLocal(t *testing.T) {
	e := parse.NewEmail("用户@example.com")
	assert.True(t, e.Valid)
	assert.Equal(t, "用户", e.Local)
	assert.Equal(t, "example.com", e.Domain)
}

func TestNewEmail_Deterministic(t *testing.T) {
	for _, raw := range []string{"user@example.com", "broken@", "用户@münchen.de"} {
		assert.Equal(t, parse.NewEmail(raw), parse.NewEmail(raw))
	}
}
