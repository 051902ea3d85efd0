// services/mail_service.go
package services

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"html/template"
	"mime"
	"net"
	"net/smtp"
	"strings"
	texttemplate "text/template"
	"time"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.uber.org/zap"

	"trip/internal/config"
)

type IMailService interface {
	SendWelcome(ctx context.Context, to Recipient, url string) error
	SendPasswordReset(ctx context.Context, to Recipient, url string) error
}

type Recipient struct {
	Name  string
	Email string
}

func (r Recipient) FirstName() string {
	if fields := strings.Fields(r.Name); len(fields) > 0 {
		return fields[0]
	}
	return r.Name
}

type Message struct {
	To      Recipient
	Subject string
	HTML    string
	Text    string
}

// MailTransport delivers a rendered message.
type MailTransport interface {
	Send(ctx context.Context, msg Message) error
}

type mailService struct {
	transport MailTransport
	appName   string
	htmlTpl   *template.Template
	textTpl   *texttemplate.Template
}

// NewMailService sends through SendGrid in production, SMTP when a host is
// configured and otherwise only logs the message.
func NewMailService(cfg *config.Config, logger *zap.Logger) IMailService {
	var transport MailTransport
	switch {
	case cfg.IsProduction() && cfg.Email.SendGridAPIKey != "":
		transport = NewSendGridTransport(cfg.Email)
	case cfg.Email.Host != "":
		transport = NewSMTPTransport(cfg.Email)
	default:
		transport = &logTransport{logger: logger}
	}
	return NewMailServiceWithTransport(transport, cfg.Email.FromName)
}

func NewMailServiceWithTransport(transport MailTransport, appName string) IMailService {
	return &mailService{
		transport: transport,
		appName:   appName,
		htmlTpl:   template.Must(template.New("html").Parse(baseHTMLTemplate)),
		textTpl:   texttemplate.Must(texttemplate.New("text").Parse(plainTextTemplate)),
	}
}

func (s *mailService) SendWelcome(ctx context.Context, to Recipient, url string) error {
	return s.send(ctx, to, EmailData{
		Title:     fmt.Sprintf("Welcome to the %s family!", s.appName),
		Greeting:  to.FirstName(),
		Intro:     "We're glad to have you on board. Your account is ready: upload a photo and start planning your next adventure.",
		ButtonURL: url,
		ButtonTxt: "Go to my account",
	})
}

func (s *mailService) SendPasswordReset(ctx context.Context, to Recipient, url string) error {
	return s.send(ctx, to, EmailData{
		Title:     "Your password reset token (valid for only 10 minutes)",
		Greeting:  to.FirstName(),
		Intro:     "Forgot your password? Submit a PATCH request with your new password and passwordConfirm to the link below. If you didn't forget your password, please ignore this email.",
		ButtonURL: url,
		ButtonTxt: "Reset your password",
	})
}

type EmailData struct {
	Title     string
	Greeting  string
	Intro     string
	ButtonURL string
	ButtonTxt string
	AppName   string
	Year      int
}

func (s *mailService) send(ctx context.Context, to Recipient, data EmailData) error {
	data.AppName = s.appName
	data.Year = time.Now().Year()

	var hb, tb bytes.Buffer
	if err := s.htmlTpl.Execute(&hb, data); err != nil {
		return err
	}
	if err := s.textTpl.Execute(&tb, data); err != nil {
		return err
	}

	return s.transport.Send(ctx, Message{To: to, Subject: data.Title, HTML: hb.String(), Text: tb.String()})
}

const baseHTMLTemplate = `<!doctype html>
<html>
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width,initial-scale=1">
  <title>{{.Title}}</title>
  <style>
    body { margin: 0; padding: 0; background: #f7f7f7; color: #555; font-family: "Helvetica Neue", Helvetica, Arial, sans-serif; }
    .container { max-width: 580px; margin: 0 auto; padding: 24px; background: #fff; border-radius: 6px; }
    .brand { font-weight: 700; color: #55c57a; text-transform: uppercase; letter-spacing: 1px; }
    .btn { display: inline-block; padding: 12px 24px; background: #55c57a; color: #fff !important; text-decoration: none; border-radius: 50px; }
    .footer { margin-top: 24px; color: #999; font-size: 12px; text-align: center; }
  </style>
</head>
<body>
  <div class="container">
    <div class="brand">{{.AppName}}</div>
    <p>Hi {{.Greeting}},</p>
    <p>{{.Intro}}</p>
    {{if .ButtonURL}}<p><a class="btn" href="{{.ButtonURL}}">{{.ButtonTxt}}</a></p>
    <p>{{.ButtonURL}}</p>{{end}}
    <div class="footer">&copy; {{.Year}} {{.AppName}}</div>
  </div>
</body>
</html>`

const plainTextTemplate = `Hi {{.Greeting}},

{{.Intro}}

{{if .ButtonURL}}{{.ButtonTxt}}:
{{.ButtonURL}}
{{end}}
{{.AppName}} (c) {{.Year}}
`

// ------------------- SMTP -------------------

type smtpTransport struct {
	cfg config.EmailConfig
}

func NewSMTPTransport(cfg config.EmailConfig) MailTransport {
	return &smtpTransport{cfg: cfg}
}

func (t *smtpTransport) Send(ctx context.Context, msg Message) error {
	body := buildMIME(formatAddress(t.cfg.FromName, t.cfg.From), msg)
	addr := fmt.Sprintf("%s:%d", t.cfg.Host, t.cfg.Port)
	tlsCfg := &tls.Config{ServerName: t.cfg.Host, MinVersion: tls.VersionTLS12}

	dialer := &net.Dialer{Timeout: 10 * time.Second}
	var conn net.Conn
	var err error
	if t.cfg.Port == 465 {
		// SMTPS: implicit TLS
		conn, err = (&tls.Dialer{NetDialer: dialer, Config: tlsCfg}).DialContext(ctx, "tcp", addr)
	} else {
		conn, err = dialer.DialContext(ctx, "tcp", addr)
	}
	if err != nil {
		return err
	}
	defer conn.Close()
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	c, err := smtp.NewClient(conn, t.cfg.Host)
	if err != nil {
		return err
	}
	defer c.Quit()

	if ok, _ := c.Extension("STARTTLS"); ok && t.cfg.Port != 465 {
		if err = c.StartTLS(tlsCfg); err != nil {
			return err
		}
	}
	if t.cfg.Username != "" {
		if err = c.Auth(smtp.PlainAuth("", t.cfg.Username, t.cfg.Password, t.cfg.Host)); err != nil {
			return err
		}
	}
	if err = c.Mail(t.cfg.From); err != nil {
		return err
	}
	if err = c.Rcpt(msg.To.Email); err != nil {
		return err
	}
	w, err := c.Data()
	if err != nil {
		return err
	}
	if _, err = w.Write(body); err != nil {
		return err
	}
	return w.Close()
}

func buildMIME(from string, msg Message) []byte {
	boundary := fmt.Sprintf("alt_%d", time.Now().UnixNano())

	var b bytes.Buffer
	write := func(format string, a ...any) { _, _ = fmt.Fprintf(&b, format, a...) }

	write("From: %s\r\n", from)
	write("To: %s\r\n", formatAddress(msg.To.Name, msg.To.Email))
	write("Subject: %s\r\n", mime.QEncoding.Encode("utf-8", msg.Subject))
	write("Date: %s\r\n", time.Now().Format(time.RFC1123Z))
	write("MIME-Version: 1.0\r\n")
	write("Content-Type: multipart/alternative; boundary=%q\r\n\r\n", boundary)

	write("--%s\r\n", boundary)
	write("Content-Type: text/plain; charset=UTF-8\r\n\r\n")
	write("%s\r\n\r\n", msg.Text)

	write("--%s\r\n", boundary)
	write("Content-Type: text/html; charset=UTF-8\r\n\r\n")
	write("%s\r\n\r\n", msg.HTML)

	write("--%s--\r\n", boundary)
	return b.Bytes()
}

func formatAddress(name, email string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return email
	}
	return fmt.Sprintf("%s <%s>", mime.QEncoding.Encode("utf-8", name), email)
}

// ------------------- SendGrid -------------------

type sendGridTransport struct {
	client   *sendgrid.Client
	from     string
	fromName string
}

func NewSendGridTransport(cfg config.EmailConfig) MailTransport {
	return &sendGridTransport{
		client:   sendgrid.NewSendClient(cfg.SendGridAPIKey),
		from:     cfg.From,
		fromName: cfg.FromName,
	}
}

func (t *sendGridTransport) Send(ctx context.Context, msg Message) error {
	m := mail.NewSingleEmail(
		mail.NewEmail(t.fromName, t.from),
		msg.Subject,
		mail.NewEmail(msg.To.Name, msg.To.Email),
		msg.Text,
		msg.HTML,
	)
	resp, err := t.client.SendWithContext(ctx, m)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("sendgrid: status %d: %s", resp.StatusCode, resp.Body)
	}
	return nil
}

// ------------------- Log only -------------------

type logTransport struct {
	logger *zap.Logger
}

func (t *logTransport) Send(_ context.Context, msg Message) error {
	t.logger.Info("mail transport not configured, message logged only",
		zap.String("to", msg.To.Email),
		zap.String("subject", msg.Subject),
		zap.String("text", msg.Text))
	return nil
}
