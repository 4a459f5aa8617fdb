package channel

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/smtp"
	"strconv"
	"time"

	"github.com/emersion/go-message/mail"
	"github.com/jmhodges/clock"

	"github.com/hray3182/catcare/internal/notify"
)

// SMTPConfig holds the outgoing mail server settings.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

type sendMailFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// Email delivers notifications as plain-text mail over SMTP.
type Email struct {
	addr     string
	auth     smtp.Auth
	from     *mail.Address
	loc      *time.Location
	clk      clock.Clock
	sendMail sendMailFunc
}

func NewEmail(cfg SMTPConfig, loc *time.Location, clk clock.Clock) (*Email, error) {
	if cfg.Host == "" {
		return nil, errors.New("smtp host is required")
	}
	from, err := mail.ParseAddress(cfg.From)
	if err != nil {
		return nil, fmt.Errorf("invalid sender address %q: %w", cfg.From, err)
	}
	var auth smtp.Auth
	if cfg.Username != "" {
		auth = smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
	}
	return &Email{
		addr:     net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		auth:     auth,
		from:     from,
		loc:      loc,
		clk:      clk,
		sendMail: smtp.SendMail,
	}, nil
}

func (e *Email) Name() string { return "smtp" }

func (e *Email) Send(ctx context.Context, to string, p notify.Payload) error {
	if !notify.ValidEmail(to) {
		return fmt.Errorf("%w: %q", notify.ErrInvalidAddress, to)
	}
	rcpt := &mail.Address{Address: to}

	msg, err := e.compose(rcpt, p)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := e.sendMail(e.addr, e.auth, e.from.Address, []string{rcpt.Address}, msg); err != nil {
		return fmt.Errorf("failed to send mail via %s: %w", e.addr, err)
	}
	return nil
}

func (e *Email) compose(to *mail.Address, p notify.Payload) ([]byte, error) {
	var h mail.Header
	h.SetDate(e.clk.Now())
	h.SetAddressList("From", []*mail.Address{e.from})
	h.SetAddressList("To", []*mail.Address{to})
	h.SetSubject(Subject(p))
	h.SetContentType("text/plain", map[string]string{"charset": "utf-8"})

	var buf bytes.Buffer
	w, err := mail.CreateSingleInlineWriter(&buf, h)
	if err != nil {
		return nil, fmt.Errorf("failed to create mail writer: %w", err)
	}
	if _, err := io.WriteString(w, PlainText(p, e.loc)); err != nil {
		return nil, fmt.Errorf("failed to write mail body: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("failed to finish mail: %w", err)
	}
	return buf.Bytes(), nil
}
