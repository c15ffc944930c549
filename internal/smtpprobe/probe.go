// Package smtpprobe runs a bounded SMTP dialogue against one mail exchanger
// to learn whether it accepts a recipient. Every probe uses a fresh
// connection; DATA is never sent.
package smtpprobe

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/optimode/mxprobe/types"
)

// DialFunc opens a transport connection.
type DialFunc func(ctx context.Context, network, address string) (net.Conn, error)

// Config configures a Prober.
type Config struct {
	HeloDomain     string
	MailFrom       string
	ConnectTimeout time.Duration
	CommandTimeout time.Duration
	Port           string
	// Dial is injectable for testing. Defaults to a net.Dialer.
	Dial DialFunc
}

// Prober executes probes. It holds no per-connection state and is safe
// for concurrent use.
type Prober struct {
	cfg Config
}

type conn struct {
	ctx     context.Context
	netConn net.Conn
	reader  *bufio.Reader
	writer  *bufio.Writer
	timeout time.Duration
}

// New creates a Prober.
func New(cfg Config) *Prober {
	if cfg.Dial == nil {
		d := &net.Dialer{}
		cfg.Dial = d.DialContext
	}
	if cfg.Port == "" {
		cfg.Port = "25"
	}
	return &Prober{cfg: cfg}
}

// Probe connects to mxHost and runs banner, EHLO (falling back to HELO),
// MAIL FROM and RCPT TO for rcpt, then quits.
func (p *Prober) Probe(ctx context.Context, mxHost, rcpt string) types.Outcome {
	if err := ctx.Err(); err != nil {
		return types.Transient("cancelled")
	}

	address := net.JoinHostPort(mxHost, p.cfg.Port)
	dialCtx, cancel := context.WithTimeout(ctx, p.cfg.ConnectTimeout)
	netConn, err := p.cfg.Dial(dialCtx, "tcp", address)
	cancel()
	if err != nil {
		if ctx.Err() != nil {
			return types.Transient("cancelled")
		}
		return types.Transient(fmt.Sprintf("connect to %s: %v", address, err))
	}
	defer func() { _ = netConn.Close() }()

	// Cancellation interrupts any blocked read or write.
	stop := context.AfterFunc(ctx, func() { _ = netConn.SetDeadline(time.Now()) })
	defer stop()

	c := &conn{
		ctx:     ctx,
		netConn: netConn,
		reader:  bufio.NewReader(netConn),
		writer:  bufio.NewWriter(netConn),
		timeout: p.cfg.CommandTimeout,
	}

	out := p.dialogue(c, rcpt)
	if ctx.Err() != nil && !out.Definitive() {
		return types.Transient("cancelled")
	}
	return out
}

func (p *Prober) dialogue(c *conn, rcpt string) types.Outcome {
	code, msg, err := c.read()
	if err != nil {
		return transportFailure("read banner", err)
	}
	if out, ok := gate("banner", code, msg); !ok {
		return out
	}

	code, msg, err = c.command("EHLO "+p.cfg.HeloDomain)
	if err != nil {
		return transportFailure("EHLO", err)
	}
	if code >= 500 {
		// Servers predating ESMTP answer EHLO with 500/502
		code, msg, err = c.command("HELO "+p.cfg.HeloDomain)
		if err != nil {
			return transportFailure("HELO", err)
		}
	}
	if out, ok := gate("HELO", code, msg); !ok {
		return out
	}

	code, msg, err = c.command(fmt.Sprintf("MAIL FROM:<%s>", p.cfg.MailFrom))
	if err != nil {
		return transportFailure("MAIL FROM", err)
	}
	if out, ok := gate("MAIL FROM", code, msg); !ok {
		return out
	}

	code, msg, err = c.command(fmt.Sprintf("RCPT TO:<%s>", rcpt))
	if err != nil {
		return transportFailure("RCPT TO", err)
	}
	c.quit()

	return ClassifyRCPT(code, msg)
}

// ClassifyRCPT maps the RCPT TO reply to an Outcome.
// Only explicitly enumerated codes produce Accepted or Rejected; anything
// else is a permanent, non-definitive failure.
func ClassifyRCPT(code int, msg string) types.Outcome {
	switch code {
	case 250, 251:
		return types.Accepted(code, msg)
	case 550, 551, 553:
		return types.Rejected(code, msg)
	case 421, 450, 451, 452:
		out := types.Transient(fmt.Sprintf("RCPT TO deferred: %d %s", code, msg))
		out.Code, out.Message = code, msg
		return out
	default:
		out := types.Permanent(fmt.Sprintf("%s: %d %s", types.ReasonUnrecognized, code, msg))
		out.Code, out.Message = code, msg
		return out
	}
}

// gate checks a pre-RCPT reply: 2xx continues, 4xx is transient, 5xx is
// permanent. 3xx is never valid before DATA and counts as permanent.
func gate(stage string, code int, msg string) (types.Outcome, bool) {
	switch {
	case code >= 200 && code < 300:
		return types.Outcome{}, true
	case code >= 400 && code < 500:
		out := types.Transient(fmt.Sprintf("%s deferred: %d %s", stage, code, msg))
		out.Code, out.Message = code, msg
		return out, false
	default:
		out := types.Permanent(fmt.Sprintf("%s refused: %d %s", stage, code, msg))
		out.Code, out.Message = code, msg
		return out, false
	}
}

func transportFailure(stage string, err error) types.Outcome {
	var netErr net.Error
	switch {
	case errors.As(err, &netErr) && netErr.Timeout():
		return types.Transient(stage + ": timeout")
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF), errors.Is(err, net.ErrClosed):
		return types.Transient(stage + ": connection closed by server")
	default:
		return types.Transient(fmt.Sprintf("%s: %v", stage, err))
	}
}

// arm sets the deadline for the next exchange. Cancellation may land while
// the deadline is being pushed forward, so it is checked again afterwards
// and the deadline forced back to now.
func (c *conn) arm() error {
	if err := c.ctx.Err(); err != nil {
		return err
	}
	if err := c.netConn.SetDeadline(time.Now().Add(c.timeout)); err != nil {
		return fmt.Errorf("set deadline: %w", err)
	}
	if err := c.ctx.Err(); err != nil {
		_ = c.netConn.SetDeadline(time.Now())
		return err
	}
	return nil
}

// command sends an SMTP command and reads the reply, each bounded by the
// command timeout.
func (c *conn) command(cmd string) (int, string, error) {
	if err := c.arm(); err != nil {
		return 0, "", err
	}
	if _, err := c.writer.WriteString(cmd + "\r\n"); err != nil {
		return 0, "", err
	}
	if err := c.writer.Flush(); err != nil {
		return 0, "", err
	}
	return readResponse(c.reader)
}

func (c *conn) read() (int, string, error) {
	if err := c.arm(); err != nil {
		return 0, "", err
	}
	return readResponse(c.reader)
}

// quit sends QUIT (best-effort, ignores errors and the reply).
func (c *conn) quit() {
	if c.ctx.Err() != nil {
		return
	}
	_ = c.netConn.SetDeadline(time.Now().Add(2 * time.Second))
	_, _ = c.writer.WriteString("QUIT\r\n")
	_ = c.writer.Flush()
}

// readResponse reads a (possibly multi-line) SMTP reply.
func readResponse(r *bufio.Reader) (code int, full string, err error) {
	var lines []string
	for {
		line, readErr := r.ReadString('\n')
		if readErr != nil {
			return 0, "", fmt.Errorf("read SMTP response: %w", readErr)
		}
		line = strings.TrimRight(line, "\r\n")
		if len(line) < 3 {
			return 0, "", errors.New("SMTP response line too short")
		}
		lines = append(lines, line)
		// A '-' after the code marks a continuation line
		if len(line) < 4 || line[3] != '-' {
			break
		}
	}

	last := lines[len(lines)-1]
	code, err = strconv.Atoi(last[:3])
	if err != nil || code < 100 || code > 599 {
		return 0, "", fmt.Errorf("invalid SMTP response code %q", last[:3])
	}
	msgs := make([]string, len(lines))
	for i, l := range lines {
		if len(l) > 4 {
			msgs[i] = l[4:]
		}
	}
	return code, strings.TrimSpace(strings.Join(msgs, " ")), nil
}
