package notify

import (
	"context"
	"fmt"
	"net/http"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.uber.org/zap"
)

const (
	sendGridHost     = "https://api.sendgrid.com"
	sendGridEndpoint = "/v3/mail/send"
)

// SendGridMailer sends dynamic-template e-mails through the SendGrid v3 API.
type SendGridMailer struct {
	apiKey string
	host   string
}

// NewSendGridMailer returns a mailer for the public SendGrid API.
func NewSendGridMailer(apiKey string) *SendGridMailer {
	return &SendGridMailer{apiKey: apiKey, host: sendGridHost}
}

func (m *SendGridMailer) Send(ctx context.Context, e Email) error {
	templateID := e.Template.TemplateID()
	if templateID == "" {
		return fmt.Errorf("sendgrid: unknown template %q", e.Template)
	}

	message := mail.NewV3Mail()
	message.SetFrom(mail.NewEmail(e.FromName, e.From))
	message.SetTemplateID(templateID)

	p := mail.NewPersonalization()
	p.AddTos(mail.NewEmail("", e.To))
	p.SetDynamicTemplateData("title", e.Data.Title)
	p.SetDynamicTemplateData("link", e.Data.Link)
	p.SetDynamicTemplateData("hapTypeLiteral", e.Data.HapTypeLiteral)
	if e.Data.WaitListSpot != nil {
		p.SetDynamicTemplateData("waitListSpot", *e.Data.WaitListSpot)
	}
	if e.Data.Registration != nil {
		p.SetDynamicTemplateData("registration", e.Data.Registration)
	}
	message.AddPersonalizations(p)

	request := sendgrid.GetRequest(m.apiKey, sendGridEndpoint, m.host)
	request.Method = http.MethodPost
	request.Body = mail.GetRequestBody(message)

	response, err := sendgrid.MakeRequestWithContext(ctx, request)
	if err != nil {
		return fmt.Errorf("sendgrid: %w", err)
	}
	if response.StatusCode != http.StatusAccepted {
		return fmt.Errorf("sendgrid: status %d: %s", response.StatusCode, response.Body)
	}
	return nil
}

// LogMailer logs messages instead of sending them. It is used when no
// provider key is configured.
type LogMailer struct {
	log *zap.Logger
}

func NewLogMailer(log *zap.Logger) *LogMailer {
	return &LogMailer{log: log}
}

func (m *LogMailer) Send(_ context.Context, e Email) error {
	m.log.Info("e-mail not sent, no provider configured",
		zap.String("id", e.ID),
		zap.String("to", e.To),
		zap.String("from", e.From),
		zap.String("template", string(e.Template)),
		zap.String("link", e.Data.Link),
	)
	return nil
}
