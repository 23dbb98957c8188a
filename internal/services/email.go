package services

import (
	"fmt"
	"html"
	"net/smtp"
	"strings"

	"go.uber.org/zap"

	"quizzer-backend/internal/models"
)

type EmailConfig struct {
	Host          string
	Port          string
	User          string
	Pass          string
	From          string
	ResultSubject string
}

type EmailService struct {
	cfg      EmailConfig
	devMode  bool
	sendMail func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
	log      *zap.Logger
}

// NewEmailService logs messages instead of sending them when no SMTP host or
// user is configured.
func NewEmailService(cfg EmailConfig, log *zap.Logger) *EmailService {
	log = log.Named("email")
	devMode := cfg.Host == "" || cfg.User == ""
	if devMode {
		log.Warn("email service running in dev mode, messages are logged only")
	}
	if cfg.ResultSubject == "" {
		cfg.ResultSubject = "Your AI Quizzer Results Are Ready!"
	}
	return &EmailService{cfg: cfg, devMode: devMode, sendMail: smtp.SendMail, log: log}
}

func suggestionItems(text string) string {
	var b strings.Builder
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		fmt.Fprintf(&b, `<li style="margin: 0 0 8px;">%s</li>`, html.EscapeString(line))
	}
	return b.String()
}

func (s *EmailService) SendResultEmail(job *models.NotificationJob) error {
	body := fmt.Sprintf(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"></head>
<body style="font-family: 'Segoe UI', Arial, sans-serif; margin: 0; padding: 0; background-color: #f8fafc;">
  <div style="max-width: 480px; margin: 40px auto; background: white; border-radius: 12px; box-shadow: 0 4px 24px rgba(0,0,0,0.08); overflow: hidden;">
    <div style="background: linear-gradient(135deg, #0ea5e9 0%%, #6366f1 100%%); padding: 32px; text-align: center;">
      <h1 style="color: white; margin: 0; font-size: 24px; font-weight: 700;">AI Quizzer</h1>
      <p style="color: rgba(255,255,255,0.85); margin: 8px 0 0; font-size: 14px;">%s %s</p>
    </div>
    <div style="padding: 32px;">
      <h2 style="margin: 0 0 16px; font-size: 20px; color: #1e293b;">Hi %s, you scored %.2f%%</h2>
      <p style="color: #64748b; font-size: 14px; line-height: 1.6; margin: 0 0 24px;">
        You answered %d of %d questions correctly.
      </p>
      <h3 style="margin: 0 0 12px; font-size: 16px; color: #1e293b;">Suggestions</h3>
      <ul style="color: #475569; font-size: 14px; line-height: 1.6; padding-left: 20px; margin: 0;">%s</ul>
    </div>
  </div>
</body>
</html>`,
		html.EscapeString(job.GradeLevel), html.EscapeString(job.Subject),
		html.EscapeString(job.Username), job.Score,
		job.CorrectCount, job.TotalQuestions,
		suggestionItems(job.Suggestions),
	)

	return s.sendHTML(job.Email, s.cfg.ResultSubject, body)
}

func (s *EmailService) sendHTML(to, subject, htmlBody string) error {
	if s.devMode {
		s.log.Info("dev email", zap.String("to", to), zap.String("subject", subject), zap.Int("body_bytes", len(htmlBody)))
		s.log.Debug("dev email body", zap.String("body", htmlBody))
		return nil
	}

	headers := []string{
		fmt.Sprintf("From: %s", s.cfg.From),
		fmt.Sprintf("To: %s", to),
		fmt.Sprintf("Subject: %s", subject),
		"MIME-Version: 1.0",
		"Content-Type: text/html; charset=UTF-8",
	}

	message := strings.Join(headers, "\r\n") + "\r\n\r\n" + htmlBody

	auth := smtp.PlainAuth("", s.cfg.User, s.cfg.Pass, s.cfg.Host)
	addr := fmt.Sprintf("%s:%s", s.cfg.Host, s.cfg.Port)

	if err := s.sendMail(addr, auth, s.cfg.From, []string{to}, []byte(message)); err != nil {
		return fmt.Errorf("failed to send email to %s: %w", to, err)
	}

	s.log.Info("email sent", zap.String("to", to), zap.String("subject", subject))
	return nil
}
