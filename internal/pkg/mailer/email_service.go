package mailer

import (
	"fmt"
	"html"

	"akasha-chat-be/internal/pkg/logger"

	"gopkg.in/gomail.v2"
)

type IEmailService interface {
	SendWelcome(toEmail, displayName string) error
}

// Sender is the part of gomail.Dialer the service needs.
type Sender interface {
	DialAndSend(m ...*gomail.Message) error
}

type emailService struct {
	sender      Sender
	senderEmail string
	appURL      string
	logger      logger.ILogger
}

func NewEmailService(host string, port int, username, password, senderEmail, appURL string, log logger.ILogger) IEmailService {
	d := gomail.NewDialer(host, port, username, password)
	return NewEmailServiceWithSender(d, senderEmail, appURL, log)
}

func NewEmailServiceWithSender(sender Sender, senderEmail, appURL string, log logger.ILogger) IEmailService {
	return &emailService{
		sender:      sender,
		senderEmail: senderEmail,
		appURL:      appURL,
		logger:      log,
	}
}

func (s *emailService) SendWelcome(toEmail, displayName string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.senderEmail)
	m.SetHeader("To", toEmail)
	m.SetHeader("Subject", "Welcome to Akasha")
	m.SetBody("text/html", welcomeBody(displayName, s.appURL))

	if err := s.sender.DialAndSend(m); err != nil {
		s.logger.Error("MAILER", "Failed to send welcome mail", map[string]interface{}{
			"to":    toEmail,
			"error": err,
		})
		return err
	}

	s.logger.Info("MAILER", "Welcome mail sent", map[string]interface{}{"to": toEmail})
	return nil
}

func welcomeBody(name, appURL string) string {
	link := ""
	if appURL != "" {
		link = fmt.Sprintf(`<p><a href="%s" style="color: #4CAF50;">Open Akasha</a></p>`, html.EscapeString(appURL))
	}
	return fmt.Sprintf(`
		<div style="font-family: Arial, sans-serif; padding: 20px; color: #333;">
			<h2>Welcome, %s!</h2>
			<p>Your account is ready. Start a conversation and the assistant will pick it up from there.</p>
			%s
		</div>
	`, html.EscapeString(name), link)
}
