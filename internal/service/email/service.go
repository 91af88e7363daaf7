// internal/service/email/service.go
package email

import (
	"bytes"
	"crypto/tls"
	"fmt"
	"html/template"
	"mime"
	"net"
	"net/smtp"

	"go.uber.org/zap"
)

// EmailSender delivers transactional mail over SMTP. With secure set it dials
// implicit TLS (465); otherwise it upgrades with STARTTLS when offered (587).
type EmailSender struct {
	host     string
	port     string
	username string
	password string
	fromName string
	secure   bool
}

func NewEmailSender(host, port, user, pass, fromName string, secure bool) *EmailSender {
	return &EmailSender{
		host:     host,
		port:     port,
		username: user,
		password: pass,
		fromName: fromName,
		secure:   secure,
	}
}

// Send delivers one HTML message wrapped in the Invoicely layout.
func (e *EmailSender) Send(to, subject, bodyHTML string) error {
	from := (&mailAddress{name: e.fromName, addr: e.username}).String()
	msg, err := buildMessage(from, to, subject, bodyHTML)
	if err != nil {
		return err
	}

	client, err := e.dial()
	if err != nil {
		return err
	}
	defer client.Close()

	if e.username != "" {
		if err := client.Auth(smtp.PlainAuth("", e.username, e.password, e.host)); err != nil {
			return fmt.Errorf("smtp auth: %w", err)
		}
	}

	steps := []struct {
		name string
		run  func() error
	}{
		{"MAIL FROM", func() error { return client.Mail(e.username) }},
		{"RCPT TO", func() error { return client.Rcpt(to) }},
		{"DATA", func() error {
			w, err := client.Data()
			if err != nil {
				return err
			}
			if _, err := w.Write(msg); err != nil {
				return err
			}
			return w.Close()
		}},
	}
	for _, step := range steps {
		if err := step.run(); err != nil {
			return fmt.Errorf("smtp %s: %w", step.name, err)
		}
	}
	return client.Quit()
}

func (e *EmailSender) dial() (*smtp.Client, error) {
	addr := net.JoinHostPort(e.host, e.port)
	tlsConfig := &tls.Config{ServerName: e.host, MinVersion: tls.VersionTLS12}

	if e.secure {
		conn, err := tls.Dial("tcp", addr, tlsConfig)
		if err != nil {
			return nil, fmt.Errorf("smtp tls dial %s: %w", addr, err)
		}
		client, err := smtp.NewClient(conn, e.host)
		if err != nil {
			conn.Close()
			return nil, fmt.Errorf("smtp handshake: %w", err)
		}
		return client, nil
	}

	client, err := smtp.Dial(addr)
	if err != nil {
		return nil, fmt.Errorf("smtp dial %s: %w", addr, err)
	}
	if ok, _ := client.Extension("STARTTLS"); ok {
		if err := client.StartTLS(tlsConfig); err != nil {
			client.Close()
			return nil, fmt.Errorf("smtp starttls: %w", err)
		}
	}
	return client, nil
}

type mailAddress struct {
	name string
	addr string
}

func (a *mailAddress) String() string {
	if a.name == "" {
		return a.addr
	}
	return fmt.Sprintf("%s <%s>", mime.QEncoding.Encode("utf-8", a.name), a.addr)
}

var layout = template.Must(template.New("layout").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8" />
<title>Invoicely</title>
<style>
body { font-family: Arial, sans-serif; background-color: #f6f8fa; padding: 30px; }
.container { max-width: 600px; margin: auto; background: #fff; border-radius: 10px; overflow: hidden; }
.header { background: #0f766e; color: white; text-align: center; padding: 20px; font-size: 22px; font-weight: bold; }
.body { padding: 25px; color: #333; line-height: 1.6; }
.footer { background: #f1f1f1; color: #555; text-align: center; padding: 15px; font-size: 13px; }
a.button { display: inline-block; background: #0f766e; color: white; padding: 10px 20px; border-radius: 5px; text-decoration: none; }
</style>
</head>
<body>
<div class="container">
<div class="header">Invoicely</div>
<div class="body">{{.}}</div>
<div class="footer"><p>Invoicely · invoices and payments for freelancers</p></div>
</div>
</body>
</html>
`))

// buildMessage assembles the RFC 5322 message for one recipient. bodyHTML is
// trusted markup produced by this service; callers escape user input.
func buildMessage(from, to, subject, bodyHTML string) ([]byte, error) {
	var b bytes.Buffer
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", subject))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=\"utf-8\"\r\n\r\n")

	if err := layout.Execute(&b, template.HTML(bodyHTML)); err != nil {
		return nil, fmt.Errorf("render email: %w", err)
	}
	return b.Bytes(), nil
}

// LogSender stands in for SMTP when no host is configured; it only logs the send.
type LogSender struct {
	logger *zap.Logger
}

func NewLogSender(logger *zap.Logger) *LogSender {
	return &LogSender{logger: logger}
}

func (s *LogSender) Send(to, subject, _ string) error {
	s.logger.Info("email not delivered: smtp disabled",
		zap.String("to", to),
		zap.String("subject", subject),
	)
	return nil
}
