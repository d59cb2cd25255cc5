package notify

import (
	"context"
	"fmt"
	"time"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"

	"closet-rental-backend/internal/domain"
)

type messageSender interface {
	Send(ctx context.Context, message *messaging.Message) (string, error)
}

// PushNotifier publishes events to per-user FCM topics.
type PushNotifier struct {
	client messageSender
}

// NewPushNotifier builds an FCM client from a service-account file.
func NewPushNotifier(ctx context.Context, credentialsFile string) (*PushNotifier, error) {
	app, err := firebase.NewApp(ctx, nil, option.WithCredentialsFile(credentialsFile))
	if err != nil {
		return nil, fmt.Errorf("init firebase app: %w", err)
	}
	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("init firebase messaging: %w", err)
	}
	return &PushNotifier{client: client}, nil
}

// UserTopic is the topic a user's devices subscribe to.
func UserTopic(userID string) string {
	return "user_" + userID
}

func (n *PushNotifier) Notify(ctx context.Context, ev Event) error {
	title, body := pushText(ev)
	for _, userID := range recipients(ev) {
		msg := &messaging.Message{
			Topic: UserTopic(userID),
			Notification: &messaging.Notification{
				Title: title,
				Body:  body,
			},
			Data: map[string]string{
				"event":     string(ev.Kind),
				"rental_id": ev.RentalID,
				"status":    string(ev.To),
			},
		}
		if _, err := n.client.Send(ctx, msg); err != nil {
			return fmt.Errorf("push %s to %s: %w", ev.Kind, userID, err)
		}
	}
	return nil
}

// recipients: QC prompts go to the inspecting party, everything else to both.
func recipients(ev Event) []string {
	if ev.Kind == EventQCOpened {
		if ev.To == domain.RentalStatusReturnDelivered {
			return []string{ev.CuratorID}
		}
		return []string{ev.RenterUserID}
	}
	return []string{ev.RenterUserID, ev.CuratorID}
}

func pushText(ev Event) (string, string) {
	label := string(ev.To)
	if info, ok := domain.StatusInfoFor(ev.To); ok {
		label = info.Label
	}
	switch ev.Kind {
	case EventQCOpened:
		return "Please inspect your outfit",
			fmt.Sprintf("Confirm its condition before %s.", ev.QCDeadline.UTC().Format(time.Kitchen+" MST"))
	case EventDisputeRaised:
		return "Issue reported", "Our team is reviewing the rental."
	case EventDisputeResolved:
		return "Issue resolved", fmt.Sprintf("The rental is now %s.", label)
	default:
		return "Rental update", fmt.Sprintf("Your rental is now %s.", label)
	}
}
