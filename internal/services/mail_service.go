package services

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"html/template"
	"mime"
	"net"
	"net/mail"
	"net/smtp"
	"strings"
	texttemplate "text/template"
	"time"

	"go.uber.org/zap"
)

type IMailService interface {
	SendMailToNotifyUser(ctx context.Context, to, subject, body, ctaText, ctaURL string) error
	SendTrialReminder(ctx context.Context, to string, reminder TrialReminder) error
}

type TrialReminder struct {
	TenantName    string
	PlanName      string
	DaysRemaining int
	Expired       bool
}

type SMTPConfig struct {
	Host       string
	Port       int // 587 STARTTLS, 465 implicit TLS
	Username   string
	Password   string
	From       string
	FromName   string
	RequireTLS bool

	AppName    string
	AppBaseURL string
}

type smtpMailService struct {
	cfg     SMTPConfig
	htmlTpl *template.Template
	textTpl *texttemplate.Template
	logger  *zap.Logger
}

func NewSMTPMailService(cfg SMTPConfig, logger *zap.Logger) (IMailService, error) {
	if cfg.Host == "" || cfg.From == "" {
		return nil, fmt.Errorf("smtp host and from address are required")
	}
	htmlTpl, err := template.New("html").Parse(reminderHTMLTemplate)
	if err != nil {
		return nil, err
	}
	textTpl, err := texttemplate.New("text").Parse(reminderTextTemplate)
	if err != nil {
		return nil, err
	}

	return &smtpMailService{
		cfg:     cfg,
		htmlTpl: htmlTpl,
		textTpl: textTpl,
		logger:  logger,
	}, nil
}

func (s *smtpMailService) SendMailToNotifyUser(ctx context.Context, to, subject, body, ctaText, ctaURL string) error {
	to, err := recipientAddress(to)
	if err != nil {
		return err
	}
	html, text, err := s.renderEmail(EmailData{
		Title:     subject,
		Intro:     body,
		ButtonURL: ctaURL,
		ButtonTxt: ctaText,
		AppName:   s.cfg.AppName,
		Year:      time.Now().Year(),
	})
	if err != nil {
		return err
	}
	return s.send(ctx, to, subject, html, text)
}

func (s *smtpMailService) SendTrialReminder(ctx context.Context, to string, r TrialReminder) error {
	subject, body := trialReminderCopy(s.cfg.AppName, r)
	link := strings.TrimRight(s.cfg.AppBaseURL, "/") + "/settings/subscription"
	return s.SendMailToNotifyUser(ctx, to, subject, body, "Choose a plan", link)
}

func trialReminderCopy(appName string, r TrialReminder) (subject, body string) {
	greeting := "Hi"
	if r.TenantName != "" {
		greeting = "Hi " + r.TenantName
	}
	if r.Expired {
		return fmt.Sprintf("Your %s trial has ended", appName),
			fmt.Sprintf("%s, your %s trial has ended and your account is now on the Free plan. Upgrade any time to restore your limits.", greeting, r.PlanName)
	}
	unit := "days"
	if r.DaysRemaining == 1 {
		unit = "day"
	}
	return fmt.Sprintf("%d %s left in your %s trial", r.DaysRemaining, unit, appName),
		fmt.Sprintf("%s, your %s trial ends in %d %s. Add a payment method to keep your current limits.", greeting, r.PlanName, r.DaysRemaining, unit)
}

type EmailData struct {
	Title     string
	Intro     string
	ButtonURL string
	ButtonTxt string
	AppName   string
	Year      int
}

const reminderHTMLTemplate = `<!doctype html>
<html>
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width,initial-scale=1">
  <title>{{.Title}}</title>
  <style>
    body { margin: 0; padding: 0; background: #f1f5f9; color: #0f172a; font-family: -apple-system, "Segoe UI", Roboto, Arial, sans-serif; }
    .container { max-width: 560px; margin: 32px auto; background: #ffffff; border-radius: 12px; overflow: hidden; }
    .header { padding: 24px 28px; border-bottom: 1px solid #e2e8f0; font-weight: 700; color: #0d9488; letter-spacing: 0.5px; }
    .hero { padding: 28px; }
    h1 { margin: 0 0 12px; font-size: 22px; }
    p { margin: 0 0 16px; line-height: 1.6; color: #475569; }
    .btn { display: inline-block; padding: 12px 24px; background: #0d9488; color: #ffffff !important; text-decoration: none; border-radius: 8px; font-weight: 600; }
    .footer { padding: 16px 28px; color: #94a3b8; font-size: 12px; text-align: center; border-top: 1px solid #e2e8f0; }
  </style>
</head>
<body>
  <div class="container">
    <div class="header">{{.AppName}}</div>
    <div class="hero">
      <h1>{{.Title}}</h1>
      <p>{{.Intro}}</p>
      {{if .ButtonURL}}<a class="btn" href="{{.ButtonURL}}">{{.ButtonTxt}}</a>{{end}}
    </div>
    <div class="footer">&copy; {{.Year}} {{.AppName}}</div>
  </div>
</body>
</html>`

const reminderTextTemplate = `{{.Title}}

{{.Intro}}
{{if .ButtonURL}}
{{.ButtonTxt}}: {{.ButtonURL}}
{{end}}
{{.AppName}} (c) {{.Year}}
`

func (s *smtpMailService) renderEmail(data EmailData) (html string, text string, err error) {
	var hb, tb bytes.Buffer
	if err = s.htmlTpl.Execute(&hb, data); err != nil {
		return "", "", err
	}
	if err = s.textTpl.Execute(&tb, data); err != nil {
		return "", "", err
	}
	return hb.String(), tb.String(), nil
}

// recipientAddress returns the bare RFC 5322 address in to. Values carrying line breaks
// never reach the To header.
func recipientAddress(to string) (string, error) {
	if strings.ContainsAny(to, "\r\n") {
		return "", fmt.Errorf("recipient address contains a line break")
	}
	addr, err := mail.ParseAddress(to)
	if err != nil {
		return "", fmt.Errorf("invalid recipient address %q: %w", to, err)
	}
	return addr.Address, nil
}

func (s *smtpMailService) buildMessage(to, subject, htmlBody, textBody string, now time.Time) []byte {
	boundary := fmt.Sprintf("alt_%d", now.UnixNano())

	var msg bytes.Buffer
	write := func(format string, a ...any) { _, _ = fmt.Fprintf(&msg, format, a...) }

	write("From: %s\r\n", s.formatFromHeader())
	write("To: %s\r\n", to)
	write("Subject: %s\r\n", mime.QEncoding.Encode("UTF-8", subject))
	write("Date: %s\r\n", now.Format(time.RFC1123Z))
	write("MIME-Version: 1.0\r\n")
	write("Content-Type: multipart/alternative; boundary=%q\r\n\r\n", boundary)

	write("--%s\r\n", boundary)
	write("Content-Type: text/plain; charset=UTF-8\r\n\r\n")
	write("%s\r\n\r\n", textBody)

	write("--%s\r\n", boundary)
	write("Content-Type: text/html; charset=UTF-8\r\n\r\n")
	write("%s\r\n\r\n", htmlBody)

	write("--%s--\r\n", boundary)
	return msg.Bytes()
}

func (s *smtpMailService) formatFromHeader() string {
	name := strings.TrimSpace(s.cfg.FromName)
	if name == "" {
		return s.cfg.From
	}
	return fmt.Sprintf("%s <%s>", mime.QEncoding.Encode("UTF-8", name), s.cfg.From)
}

func (s *smtpMailService) send(ctx context.Context, to, subject, htmlBody, textBody string) error {
	msg := s.buildMessage(to, subject, htmlBody, textBody, time.Now())
	addr := net.JoinHostPort(s.cfg.Host, fmt.Sprint(s.cfg.Port))
	tlsCfg := &tls.Config{ServerName: s.cfg.Host, MinVersion: tls.VersionTLS12}

	dialer := &net.Dialer{Timeout: 10 * time.Second}
	var (
		conn net.Conn
		err  error
	)
	if s.cfg.Port == 465 {
		conn, err = (&tls.Dialer{NetDialer: dialer, Config: tlsCfg}).DialContext(ctx, "tcp", addr)
	} else {
		conn, err = dialer.DialContext(ctx, "tcp", addr)
	}
	if err != nil {
		return fmt.Errorf("dial smtp: %w", err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}
	defer conn.Close()

	c, err := smtp.NewClient(conn, s.cfg.Host)
	if err != nil {
		return err
	}
	defer c.Quit()

	if s.cfg.Port != 465 {
		if ok, _ := c.Extension("STARTTLS"); ok {
			if err = c.StartTLS(tlsCfg); err != nil {
				return err
			}
		} else if s.cfg.RequireTLS {
			return fmt.Errorf("server does not support STARTTLS")
		}
	}

	if s.cfg.Username != "" {
		if err = c.Auth(smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)); err != nil {
			return err
		}
	}
	if err = c.Mail(s.cfg.From); err != nil {
		return err
	}
	if err = c.Rcpt(to); err != nil {
		return err
	}
	w, err := c.Data()
	if err != nil {
		return err
	}
	if _, err = w.Write(msg); err != nil {
		return err
	}
	return w.Close()
}

type noopMailService struct {
	logger *zap.Logger
}

// NewNoopMailService is used when SMTP is not configured. It only logs.
func NewNoopMailService(logger *zap.Logger) IMailService {
	return &noopMailService{logger: logger}
}

func (n *noopMailService) SendMailToNotifyUser(_ context.Context, to, subject, _, _, _ string) error {
	n.logger.Debug("mail disabled; dropping message", zap.String("to", to), zap.String("subject", subject))
	return nil
}

func (n *noopMailService) SendTrialReminder(ctx context.Context, to string, r TrialReminder) error {
	subject, body := trialReminderCopy("", r)
	return n.SendMailToNotifyUser(ctx, to, subject, body, "", "")
}
