package mail

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"mime"
	"net"
	"net/smtp"
	"slices"
	"strconv"
	"strings"
	"time"
)

var ErrSMTPHostPortRequired = errors.New("smtp host and port are required")

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	// From is used when Message.From is empty.
	From string
}

// SMTP sends through net/smtp. It is meant for local relays such as
// Mailpit; production uses an API provider.
type SMTP struct {
	addr string
	host string
	from string
	auth smtp.Auth
}

func NewSMTP(cfg SMTPConfig) (*SMTP, error) {
	if cfg.Host == "" || cfg.Port == 0 {
		return nil, ErrSMTPHostPortRequired
	}

	s := &SMTP{
		addr: net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		host: cfg.Host,
		from: cfg.From,
	}
	if cfg.Username != "" && cfg.Password != "" {
		s.auth = smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
	}
	return s, nil
}

// Send checks ctx only before dialing; net/smtp has no context support.
func (s *SMTP) Send(ctx context.Context, msg Message) error {
	from, err := sender(msg, s.from)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	rcpt := slices.Concat(msg.To, msg.Cc, msg.Bcc)
	return smtp.SendMail(s.addr, s.auth, from, rcpt, buildMIME(from, msg, time.Now()))
}

func (*SMTP) Close() error { return nil }

func buildMIME(from string, msg Message, now time.Time) []byte {
	var b strings.Builder
	header := func(k, v string) { fmt.Fprintf(&b, "%s: %s\r\n", k, v) }

	header("From", from)
	header("To", strings.Join(msg.To, ", "))
	if len(msg.Cc) > 0 {
		header("Cc", strings.Join(msg.Cc, ", "))
	}
	header("Subject", mime.QEncoding.Encode("utf-8", msg.Subject))
	header("Date", now.Format(time.RFC1123Z))
	header("MIME-Version", "1.0")

	keys := make([]string, 0, len(msg.Headers))
	for k := range msg.Headers {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		header(k, msg.Headers[k])
	}

	switch {
	case msg.HTMLBody != "" && msg.TextBody != "":
		boundary := newBoundary()
		header("Content-Type", "multipart/alternative; boundary="+boundary)
		b.WriteString("\r\n")
		for _, part := range []struct{ ct, body string }{
			{"text/plain", msg.TextBody},
			{"text/html", msg.HTMLBody},
		} {
			fmt.Fprintf(&b, "--%s\r\nContent-Type: %s; charset=UTF-8\r\n\r\n%s\r\n", boundary, part.ct, part.body)
		}
		fmt.Fprintf(&b, "--%s--\r\n", boundary)
	case msg.HTMLBody != "":
		header("Content-Type", "text/html; charset=UTF-8")
		b.WriteString("\r\n" + msg.HTMLBody)
	default:
		header("Content-Type", "text/plain; charset=UTF-8")
		b.WriteString("\r\n" + msg.TextBody)
	}

	return []byte(b.String())
}

func newBoundary() string {
	var buf [12]byte
	_, _ = rand.Read(buf[:])
	return "emunotify-" + hex.EncodeToString(buf[:])
}
