package notification

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"time"

	"github.com/wneessen/go-mail/smtp"

	"github.com/Hawaii-Smart-Energy-Project/Smart-Energy-Kit/internal/config"
)

// Encryption modes accepted in NotifierConfig.Encryption.
const (
	EncryptionNone     = "none"
	EncryptionSTARTTLS = "starttls"
	EncryptionSSLTLS   = "ssl_tls"
)

// ErrSTARTTLSUnsupported is returned when STARTTLS is required but the
// server does not advertise it.
var ErrSTARTTLSUnsupported = errors.New("server does not support STARTTLS")

// SMTPDialer dials the server described by a NotifierConfig.
type SMTPDialer struct {
	host       string
	port       int
	encryption string
	timeout    time.Duration
	tlsConfig  *tls.Config
}

// NewSMTPDialer returns a Dialer for cfg. tlsConfig may be nil, in which
// case the server certificate is verified against cfg.Host.
func NewSMTPDialer(cfg config.NotifierConfig, tlsConfig *tls.Config) *SMTPDialer {
	cfg.ApplyDefaults()
	if tlsConfig == nil {
		tlsConfig = &tls.Config{ServerName: cfg.Host, MinVersion: tls.VersionTLS12}
	}
	return &SMTPDialer{
		host:       cfg.Host,
		port:       cfg.Port,
		encryption: cfg.Encryption,
		timeout:    cfg.Timeout,
		tlsConfig:  tlsConfig,
	}
}

// Dial opens a TCP connection (TLS for ssl_tls) and reads the greeting.
// The whole session is bounded by the configured timeout.
func (d *SMTPDialer) Dial(ctx context.Context) (Session, error) {
	addr := net.JoinHostPort(d.host, strconv.Itoa(d.port))
	nd := &net.Dialer{Timeout: d.timeout}

	var (
		conn net.Conn
		err  error
	)
	if d.encryption == EncryptionSSLTLS {
		td := &tls.Dialer{NetDialer: nd, Config: d.tlsConfig}
		conn, err = td.DialContext(ctx, "tcp", addr)
	} else {
		conn, err = nd.DialContext(ctx, "tcp", addr)
	}
	if err != nil {
		return nil, fmt.Errorf("dialing %s: %w", addr, err)
	}
	if d.timeout > 0 {
		_ = conn.SetDeadline(time.Now().Add(d.timeout))
	}

	c, err := smtp.NewClient(conn, d.host)
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("reading greeting from %s: %w", addr, err)
	}
	return &smtpSession{
		client:     c,
		host:       d.host,
		tlsConfig:  d.tlsConfig,
		allowUnenc: d.encryption == EncryptionNone,
	}, nil
}

type smtpSession struct {
	client    *smtp.Client
	host      string
	tlsConfig *tls.Config
	// allowUnenc permits PLAIN auth without TLS, which encryption none
	// opts into explicitly.
	allowUnenc bool
}

func (s *smtpSession) StartTLS() error {
	if ok, _ := s.client.Extension("STARTTLS"); !ok {
		return ErrSTARTTLSUnsupported
	}
	return s.client.StartTLS(s.tlsConfig)
}

func (s *smtpSession) Auth(username, password string) error {
	return s.client.Auth(smtp.PlainAuth("", username, password, s.host, s.allowUnenc))
}

func (s *smtpSession) Send(from string, to []string, msg io.WriterTo) error {
	if err := s.client.Mail(from); err != nil {
		return fmt.Errorf("MAIL FROM: %w", err)
	}
	for _, rcpt := range to {
		if err := s.client.Rcpt(rcpt); err != nil {
			return fmt.Errorf("RCPT TO %s: %w", rcpt, err)
		}
	}
	w, err := s.client.Data()
	if err != nil {
		return fmt.Errorf("DATA: %w", err)
	}
	if _, err := msg.WriteTo(w); err != nil {
		_ = w.Close()
		return fmt.Errorf("writing message: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("ending DATA: %w", err)
	}
	return nil
}

// Close sends QUIT, falling back to dropping the connection when the
// server does not answer.
func (s *smtpSession) Close() error {
	if err := s.client.Quit(); err != nil {
		_ = s.client.Close()
		return err
	}
	return nil
}
