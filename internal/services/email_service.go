package services

import (
	"fmt"
	"html"
	"time"

	"gopkg.in/gomail.v2"
)

// MailSender delivers one HTML message.
type MailSender interface {
	Send(to, subject, htmlBody string) error
}

type smtpMailer struct {
	dialer *gomail.Dialer
	from   string
	name   string
}

func NewSMTPMailer(smtpHost string, smtpPort int, smtpUser, smtpPassword, fromEmail, fromName string) MailSender {
	return &smtpMailer{
		dialer: gomail.NewDialer(smtpHost, smtpPort, smtpUser, smtpPassword),
		from:   fromEmail,
		name:   fromName,
	}
}

func (s *smtpMailer) Send(to, subject, htmlBody string) error {
	m := gomail.NewMessage()
	if s.name != "" {
		m.SetAddressHeader("From", s.from, s.name)
	} else {
		m.SetHeader("From", s.from)
	}
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", htmlBody)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("smtp send to %s: %w", to, err)
	}
	return nil
}

type EmailService interface {
	SendVerificationEmail(email, username, code string) error
	SendWelcomeEmail(email, username string) error
	SendPasswordResetOTP(email, username, otp string) error
	SendPasswordChangedEmail(email, username string) error
}

type emailService struct {
	sender          MailSender
	appName         string
	verificationTTL time.Duration
	resetOTPTTL     time.Duration
}

// NewEmailService takes the same AuthSettings as the auth services so the
// validity stated in a message matches the one enforced.
func NewEmailService(sender MailSender, appName string, settings AuthSettings) EmailService {
	if appName == "" {
		appName = "EstateHub"
	}
	if settings.VerificationTTL <= 0 {
		settings.VerificationTTL = DefaultVerificationTTL
	}
	if settings.ResetOTPTTL <= 0 {
		settings.ResetOTPTTL = DefaultResetOTPTTL
	}
	return &emailService{
		sender:          sender,
		appName:         appName,
		verificationTTL: settings.VerificationTTL,
		resetOTPTTL:     settings.ResetOTPTTL,
	}
}

// humanDuration renders whole hours or minutes: "24 hours", "1 minute".
func humanDuration(d time.Duration) string {
	unit, n := "minute", int64(d/time.Minute)
	if d >= time.Hour && d%time.Hour == 0 {
		unit, n = "hour", int64(d/time.Hour)
	}
	if n < 1 {
		n = 1
	}
	if n != 1 {
		unit += "s"
	}
	return fmt.Sprintf("%d %s", n, unit)
}

func (s *emailService) send(to, subject, body string) error {
	if err := s.sender.Send(to, subject, body); err != nil {
		return fmt.Errorf("failed to send %q email: %w", subject, err)
	}
	return nil
}

func (s *emailService) SendVerificationEmail(email, username, code string) error {
	body := fmt.Sprintf(`
		<h2>Verify your email</h2>
		<p>Hi %s,</p>
		<p>Your verification code is: <strong>%s</strong></p>
		<p>The code is valid for %s.</p>
		<p>Best regards,<br>The %s Team</p>
	`, html.EscapeString(username), code, humanDuration(s.verificationTTL), html.EscapeString(s.appName))
	return s.send(email, "Verify your email", body)
}

func (s *emailService) SendWelcomeEmail(email, username string) error {
	body := fmt.Sprintf(`
		<h2>Welcome to %s, %s!</h2>
		<p>Your email has been verified and your account is ready.</p>
		<p>Best regards,<br>The %s Team</p>
	`, html.EscapeString(s.appName), html.EscapeString(username), html.EscapeString(s.appName))
	return s.send(email, "Welcome to "+s.appName+"!", body)
}

func (s *emailService) SendPasswordResetOTP(email, username, otp string) error {
	body := fmt.Sprintf(`
		<h3>Password reset requested</h3>
		<p>Hi %s,</p>
		<p>Use the following code to reset your password: <strong>%s</strong></p>
		<p>The code expires in %s. If you did not request this change, you can ignore this email.</p>
	`, html.EscapeString(username), otp, humanDuration(s.resetOTPTTL))
	return s.send(email, "Password reset code", body)
}

func (s *emailService) SendPasswordChangedEmail(email, username string) error {
	body := fmt.Sprintf(`
		<h3>Your password was changed</h3>
		<p>Hi %s,</p>
		<p>The password for your %s account has just been changed.</p>
		<p>If this was not you, reset your password immediately.</p>
	`, html.EscapeString(username), html.EscapeString(s.appName))
	return s.send(email, "Your password has been changed", body)
}
