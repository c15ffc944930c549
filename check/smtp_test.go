package check_test

import (
	"context"
	"fmt"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/optimode/mxprobe/check"
	"github.com/optimode/mxprobe/types"
)

func pipeSMTP(rcptReply string, gotRcpt *string) func(context.Context, string, string) (net.Conn, error) {
	return func(_ context.Context, _, _ string) (net.Conn, error) {
		client, server := net.Pipe()
		go func() {
			defer func() { _ = server.Close() }()
			_, _ = fmt.Fprintf(server, "220 mock ESMTP\r\n")
			buf := make([]byte, 1024)
			for {
				n, err := server.Read(buf)
				if err != nil {
					return
				}
				cmd := string(buf[:n])
				switch {
				case strings.HasPrefix(cmd, "RCPT TO"):
					*gotRcpt = strings.TrimSpace(cmd)
					_, _ = fmt.Fprintf(server, "%s\r\n", rcptReply)
				case strings.HasPrefix(cmd, "QUIT"):
					return
				default:
					_, _ = fmt.Fprintf(server, "250 OK\r\n")
				}
			}
		}()
		return client, nil
	}
}

func TestSMTPStrategy_Probe(t *testing.T) {
	var rcpt string
	s, err := check.NewSMTPStrategy(check.SMTPConfig{
		HeloDomain:     "probe.test",
		MailFrom:       "verify@probe.test",
		ConnectTimeout: time.Second,
		CommandTimeout: time.Second,
		Dial:           pipeSMTP("250 OK", &rcpt),
	})
	require.NoError(t, err)

	addr, err := check.Parse("User@BÜCHER.example")
	require.NoError(t, err)

	out := s.Probe(context.Background(), types.MXHost{Host: "mx.example.com", Priority: 10}, addr)
	assert.Equal(t, types.OutcomeAccepted, out.Kind)
	assert.Equal(t, "RCPT TO:<User@xn--bcher-kva.example>", rcpt)
}

func TestSMTPStrategy_ProxyURL(t *testing.T) {
	_, err := check.NewSMTPStrategy(check.SMTPConfig{ProxyURL: "socks5://127.0.0.1:1080"})
	assert.NoError(t, err)

	_, err = check.NewSMTPStrategy(check.SMTPConfig{ProxyURL: "ftp://127.0.0.1:21"})
	assert.Error(t, err)
}

func TestSMTPStrategy_NeedsMX(t *testing.T) {
	s, err := check.NewSMTPStrategy(check.SMTPConfig{})
	require.NoError(t, err)
	assert.False(t, check.SkipsMX(s))
}
