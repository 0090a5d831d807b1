package services

import (
	"fmt"
	"log"
	"os"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// CampMailer sends the camp welcome email. Like the notifier, it is a
// best-effort collaborator: the enrollment succeeds whether or not the mail
// goes out.
type CampMailer interface {
	SendCampWelcomeEmail(email, username, campName, campID string) error
}

// SendgridMailer sends camp mail through SendGrid. When SENDGRID_API_KEY is
// unset it degrades to logging, which keeps local development quiet.
type SendgridMailer struct {
	apiKey    string
	fromName  string
	fromEmail string
	baseURL   string
}

func NewSendgridMailer() *SendgridMailer {
	return &SendgridMailer{
		apiKey:    os.Getenv("SENDGRID_API_KEY"),
		fromName:  "Camp Study",
		fromEmail: "no-reply@campstudy.app",
		baseURL:   os.Getenv("APP_BASE_URL"),
	}
}

func (m *SendgridMailer) SendCampWelcomeEmail(email, username, campName, campID string) error {
	if email == "" {
		return fmt.Errorf("no email address for welcome mail")
	}
	if m.apiKey == "" {
		log.Printf("SENDGRID_API_KEY not set, skipping welcome email to %s", email)
		return nil
	}

	from := mail.NewEmail(m.fromName, m.fromEmail)
	subject := fmt.Sprintf("Welcome to %s", campName)
	to := mail.NewEmail(username, email)
	plainText := fmt.Sprintf(
		"Assalamu alaikum %s,\n\nYou are enrolled in %s. Your daily tasks are waiting at %s/camps/%s.\n",
		username, campName, m.baseURL, campID,
	)
	htmlContent := fmt.Sprintf(
		"<p>Assalamu alaikum %s,</p><p>You are enrolled in <strong>%s</strong>. Your daily tasks are waiting <a href=\"%s/camps/%s\">here</a>.</p>",
		username, campName, m.baseURL, campID,
	)
	message := mail.NewSingleEmail(from, subject, to, plainText, htmlContent)

	client := sendgrid.NewSendClient(m.apiKey)
	response, err := client.Send(message)
	if err != nil {
		return err
	}
	if response.StatusCode < 200 || response.StatusCode >= 300 {
		return fmt.Errorf("sendgrid returned %d: %s", response.StatusCode, response.Body)
	}
	return nil
}
