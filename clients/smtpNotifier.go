package clients

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net"
	"net/http"
	"net/smtp"
	"net/textproto"
	"strconv"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/pkg/errors"
)

// SMTPNotifier opens one session to the configured relay per message: dial, optional
// STARTTLS, auth, send, quit. Port 465 uses implicit TLS.

const (
	SMTPFrom        = "noreply@kindo.app"
	SMTPPort        = 587
	SMTPImplicitTLS = 465
)

type SMTPNotifierConfig struct {
	Hostname    string        `envconfig:"SMTP_HOSTNAME"`
	Port        int           `envconfig:"SMTP_PORT" default:"587"`
	Username    string        `envconfig:"SMTP_USERNAME"`
	Password    string        `envconfig:"SMTP_PASSWORD"`
	From        string        `envconfig:"SMTP_FROM" default:"noreply@kindo.app"`
	DialTimeout time.Duration `envconfig:"SMTP_DIAL_TIMEOUT" default:"10s"`
}

func (s SMTPNotifierConfig) IsValid() bool {
	return s.Hostname != "" && s.Username != "" && s.Password != ""
}

func (s SMTPNotifierConfig) Address() string {
	port := s.Port
	if port == 0 {
		port = SMTPPort
	}
	return net.JoinHostPort(s.Hostname, strconv.Itoa(port))
}

func (s SMTPNotifierConfig) Auth() smtp.Auth {
	return smtp.PlainAuth("", s.Username, s.Password, s.Hostname)
}

func (s SMTPNotifierConfig) from() string {
	if s.From == "" {
		return SMTPFrom
	}
	return s.From
}

func SMTPNotifierConfigProvider() (SMTPNotifierConfig, error) {
	var config SMTPNotifierConfig
	if err := envconfig.Process("", &config); err != nil {
		return SMTPNotifierConfig{}, err
	}
	return config, nil
}

type SMTPNotifier struct {
	config SMTPNotifierConfig
}

func NewSMTPNotifier(config SMTPNotifierConfig) *SMTPNotifier {
	return &SMTPNotifier{
		config: config,
	}
}

func (s *SMTPNotifier) Send(ctx context.Context, to []string, subject string, message string) (int, string) {
	if len(to) < 1 {
		return http.StatusBadRequest, "to is missing"
	} else if subject == "" {
		return http.StatusBadRequest, "subject is missing"
	} else if message == "" {
		return http.StatusBadRequest, "message is missing"
	}

	if !s.config.IsValid() {
		return http.StatusNotImplemented, "config is invalid"
	}

	encodedMessage, err := s.encodeMessage(to, subject, message)
	if err != nil {
		return http.StatusInternalServerError, err.Error()
	}

	if err := s.sendMail(ctx, to, encodedMessage); err != nil {
		return http.StatusInternalServerError, err.Error()
	}

	return http.StatusOK, ""
}

func (s *SMTPNotifier) sendMail(ctx context.Context, to []string, message []byte) error {
	dialer := &net.Dialer{Timeout: s.config.DialTimeout}
	tlsConfig := &tls.Config{ServerName: s.config.Hostname}

	var conn net.Conn
	var err error
	if s.config.Port == SMTPImplicitTLS {
		conn, err = (&tls.Dialer{NetDialer: dialer, Config: tlsConfig}).DialContext(ctx, "tcp", s.config.Address())
	} else {
		conn, err = dialer.DialContext(ctx, "tcp", s.config.Address())
	}
	if err != nil {
		return errors.Wrap(err, "dialing smtp relay")
	}
	if deadline, ok := ctx.Deadline(); ok {
		conn.SetDeadline(deadline)
	}

	client, err := smtp.NewClient(conn, s.config.Hostname)
	if err != nil {
		conn.Close()
		return errors.Wrap(err, "opening smtp session")
	}
	defer client.Close()

	if ok, _ := client.Extension("STARTTLS"); ok {
		if err := client.StartTLS(tlsConfig); err != nil {
			return errors.Wrap(err, "starting tls")
		}
	}
	if ok, _ := client.Extension("AUTH"); ok {
		if err := client.Auth(s.config.Auth()); err != nil {
			return errors.Wrap(err, "authenticating")
		}
	}
	if err := client.Mail(s.config.from()); err != nil {
		return errors.Wrap(err, "setting sender")
	}
	for _, addr := range to {
		if err := client.Rcpt(addr); err != nil {
			return errors.Wrapf(err, "adding recipient %s", addr)
		}
	}
	writer, err := client.Data()
	if err != nil {
		return errors.Wrap(err, "opening message body")
	}
	if _, err := writer.Write(message); err != nil {
		writer.Close()
		return errors.Wrap(err, "writing message body")
	}
	if err := writer.Close(); err != nil {
		return errors.Wrap(err, "closing message body")
	}
	return client.Quit()
}

func (s *SMTPNotifier) encodeMessage(to []string, subject string, message string) ([]byte, error) {
	messageBuffer := &bytes.Buffer{}
	messageWriter := multipart.NewWriter(messageBuffer)

	fmt.Fprintf(messageBuffer, "From: %s\r\n", s.config.from())
	fmt.Fprintf(messageBuffer, "To: %s\r\n", strings.Join(to, ", "))
	fmt.Fprintf(messageBuffer, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", subject))
	fmt.Fprintf(messageBuffer, "MIME-Version: 1.0\r\n")
	fmt.Fprintf(messageBuffer, "Content-Type: multipart/alternative; boundary=\"%s\"\r\n", messageWriter.Boundary())
	fmt.Fprintf(messageBuffer, "\r\n")

	textHeaders := textproto.MIMEHeader{}
	textHeaders.Add("Content-Type", "text/plain; charset=UTF-8")
	textHeaders.Add("Content-Transfer-Encoding", "7bit")
	textPart, err := messageWriter.CreatePart(textHeaders)
	if err != nil {
		return nil, err
	}
	if _, err := textPart.Write([]byte(DefaultTextMessage)); err != nil {
		return nil, err
	}

	htmlHeaders := textproto.MIMEHeader{}
	htmlHeaders.Add("Content-Type", "text/html; charset=UTF-8")
	htmlHeaders.Add("Content-Transfer-Encoding", "quoted-printable")
	htmlPart, err := messageWriter.CreatePart(htmlHeaders)
	if err != nil {
		return nil, err
	}

	htmlBuffer := &bytes.Buffer{}
	htmlWriter := quotedprintable.NewWriter(htmlBuffer)
	if _, err := htmlWriter.Write([]byte(message)); err != nil {
		return nil, err
	}
	if err := htmlWriter.Close(); err != nil {
		return nil, err
	}
	if _, err := htmlPart.Write(htmlBuffer.Bytes()); err != nil {
		return nil, err
	}

	if err := messageWriter.Close(); err != nil {
		return nil, err
	}

	return messageBuffer.Bytes(), nil
}
