package mail

import (
	"crypto/tls"
	"fmt"
	"log/slog"
	"net/smtp"
)

// Mailer sends transactional mail over implicit-TLS SMTP (port 465).
type Mailer struct {
	host     string
	port     string
	username string
	password string
	fromName string
}

func NewMailer(host, port, username, password, fromName string) *Mailer {
	return &Mailer{
		host:     host,
		port:     port,
		username: username,
		password: password,
		fromName: fromName,
	}
}

func (m *Mailer) Enabled() bool {
	return m.host != "" && m.username != ""
}

// Send delivers one HTML mail synchronously. Callers that treat mail as
// fire-and-forget should use SendAsync.
func (m *Mailer) Send(to, subject, body string) error {
	msg := []byte(
		fmt.Sprintf("From: %s <%s>\r\n", m.fromName, m.username) +
			fmt.Sprintf("To: %s\r\n", to) +
			fmt.Sprintf("Subject: %s\r\n", subject) +
			"MIME-Version: 1.0\r\n" +
			"Content-Type: text/html; charset=\"utf-8\"\r\n" +
			"\r\n" +
			body,
	)

	conn, err := tls.Dial("tcp", m.host+":"+m.port, &tls.Config{ServerName: m.host})
	if err != nil {
		return err
	}
	defer conn.Close()

	client, err := smtp.NewClient(conn, m.host)
	if err != nil {
		return err
	}
	defer client.Quit()

	auth := smtp.PlainAuth("", m.username, m.password, m.host)
	if err := client.Auth(auth); err != nil {
		return err
	}

	if err := client.Mail(m.username); err != nil {
		return err
	}
	if err := client.Rcpt(to); err != nil {
		return err
	}

	w, err := client.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(msg); err != nil {
		return err
	}
	return w.Close()
}

// SendAsync delivers in a goroutine; failures are logged, never propagated.
func (m *Mailer) SendAsync(to, subject, body string) {
	if !m.Enabled() {
		slog.Warn("mailer disabled, skipping mail", "to", to, "subject", subject)
		return
	}
	go func() {
		if err := m.Send(to, subject, body); err != nil {
			slog.Error("failed to send mail", "to", to, "subject", subject, "error", err)
		}
	}()
}
