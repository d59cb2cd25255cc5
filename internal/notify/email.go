package notify

import (
	"context"
	"fmt"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

type mailSender interface {
	Send(email *mail.SGMailV3) (*rest.Response, error)
}

// EmailNotifier alerts the operations inbox about disputes through SendGrid.
// Other events are ignored.
type EmailNotifier struct {
	client    mailSender
	fromEmail string
	fromName  string
	adminTo   string
}

func NewEmailNotifier(apiKey, fromEmail, fromName, adminEmail string) *EmailNotifier {
	return &EmailNotifier{
		client:    sendgrid.NewSendClient(apiKey),
		fromEmail: fromEmail,
		fromName:  fromName,
		adminTo:   adminEmail,
	}
}

func (n *EmailNotifier) Notify(ctx context.Context, ev Event) error {
	var subject, plain string
	switch ev.Kind {
	case EventDisputeRaised:
		subject = fmt.Sprintf("Dispute raised on rental %s", ev.RentalID)
		plain = fmt.Sprintf("Rental %s (outfit %s) moved from %s to disputed.\n\n%s\n\nRenter: %s\nCurator: %s",
			ev.RentalID, ev.OutfitID, ev.From, ev.Note, ev.RenterUserID, ev.CuratorID)
	case EventDisputeResolved:
		subject = fmt.Sprintf("Dispute resolved on rental %s", ev.RentalID)
		plain = fmt.Sprintf("Rental %s was resolved to %s.\n\nResolution: %s", ev.RentalID, ev.To, ev.Note)
	default:
		return nil
	}

	from := mail.NewEmail(n.fromName, n.fromEmail)
	to := mail.NewEmail("Operations", n.adminTo)
	html := fmt.Sprintf("<p>%s</p>", plain)
	message := mail.NewSingleEmail(from, subject, to, plain, html)

	response, err := n.client.Send(message)
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	if response.StatusCode >= 400 {
		return fmt.Errorf("sendgrid error: status %d, body: %s", response.StatusCode, response.Body)
	}
	return nil
}
