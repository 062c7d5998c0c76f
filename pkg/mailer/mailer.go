package mailer

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"github.com/angelmondragon/farmstore-backend/pkg/config"
	"github.com/angelmondragon/farmstore-backend/pkg/logger"
)

// Message is a plain-text email.
type Message struct {
	To      string
	Subject string
	Body    string
}

// Mailer delivers messages.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

type sendFunc func(ctx context.Context, addr string, a smtp.Auth, from string, to []string, msg []byte) error

// SMTPMailer sends through an SMTP relay.
type SMTPMailer struct {
	addr     string
	host     string
	from     string
	username string
	password string
	timeout  time.Duration
	send     sendFunc
}

// New returns an SMTP mailer when a host is configured and a logging no-op otherwise.
func New(cfg config.MailConfig, logg *logger.Logger) Mailer {
	if !cfg.Enabled() {
		return &NoopMailer{logg: logg}
	}
	m := &SMTPMailer{
		addr:     cfg.SMTPHost + ":" + strconv.Itoa(cfg.SMTPPort),
		host:     cfg.SMTPHost,
		from:     cfg.From,
		username: cfg.SMTPUsername,
		password: cfg.SMTPPassword,
		timeout:  cfg.Timeout,
	}
	m.send = m.dialAndSend
	return m
}

func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	to := strings.TrimSpace(msg.To)
	if to == "" {
		return fmt.Errorf("recipient is required")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	var auth smtp.Auth
	if m.username != "" {
		auth = smtp.PlainAuth("", m.username, m.password, m.host)
	}
	if err := m.send(ctx, m.addr, auth, m.from, []string{to}, m.build(to, msg)); err != nil {
		return fmt.Errorf("smtp send to %s: %w", to, err)
	}
	return nil
}

// dialAndSend is smtp.SendMail with a bounded dial and a connection deadline.
// Cancelling ctx closes the connection mid-conversation.
func (m *SMTPMailer) dialAndSend(ctx context.Context, addr string, a smtp.Auth, from string, to []string, msg []byte) error {
	if m.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.timeout)
		defer cancel()
	}

	dialer := net.Dialer{Timeout: m.timeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return err
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	c, err := smtp.NewClient(conn, m.host)
	if err != nil {
		_ = conn.Close()
		return err
	}
	defer c.Close()

	if ok, _ := c.Extension("STARTTLS"); ok {
		if err := c.StartTLS(&tls.Config{ServerName: m.host}); err != nil {
			return err
		}
	}
	if a != nil {
		if ok, _ := c.Extension("AUTH"); ok {
			if err := c.Auth(a); err != nil {
				return err
			}
		}
	}
	if err := c.Mail(from); err != nil {
		return err
	}
	for _, rcpt := range to {
		if err := c.Rcpt(rcpt); err != nil {
			return err
		}
	}
	w, err := c.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(msg); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	return c.Quit()
}

func (m *SMTPMailer) build(to string, msg Message) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", m.from)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", sanitizeHeader(msg.Subject))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n\r\n")
	b.WriteString(msg.Body)
	return []byte(b.String())
}

func sanitizeHeader(v string) string {
	return strings.NewReplacer("\r", " ", "\n", " ").Replace(v)
}

// NoopMailer logs and drops messages. Used when SMTP is not configured.
type NoopMailer struct {
	logg *logger.Logger
}

func (n *NoopMailer) Send(ctx context.Context, msg Message) error {
	if n.logg != nil {
		ctx = n.logg.WithFields(ctx, map[string]any{"to": msg.To, "subject": msg.Subject})
		n.logg.Info(ctx, "mail disabled, message dropped")
	}
	return nil
}
