package notify

import (
	"context"
	"errors"
	"testing"
	"time"

	"firebase.google.com/go/v4/messaging"
	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"closet-rental-backend/internal/domain"
)

type mockMailSender struct {
	mock.Mock
}

func (m *mockMailSender) Send(email *mail.SGMailV3) (*rest.Response, error) {
	args := m.Called(email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*rest.Response), args.Error(1)
}

type mockMessageSender struct {
	mock.Mock
}

func (m *mockMessageSender) Send(ctx context.Context, message *messaging.Message) (string, error) {
	args := m.Called(ctx, message)
	return args.String(0), args.Error(1)
}

type recordingNotifier struct {
	events []Event
	err    error
}

func (r *recordingNotifier) Notify(_ context.Context, ev Event) error {
	r.events = append(r.events, ev)
	return r.err
}

func rentalIn(status domain.RentalStatus) *domain.Rental {
	return &domain.Rental{
		ID:           "rental-1",
		OutfitID:     "outfit-1",
		CuratorID:    "curator-1",
		RenterUserID: "renter-1",
		Status:       status,
		Timeline:     []domain.TimelineEntry{{Status: status, Note: "moved"}},
	}
}

func TestEventsFor(t *testing.T) {
	deadline := time.Date(2026, 5, 10, 12, 30, 0, 0, time.UTC)

	t.Run("Plain Status Change", func(t *testing.T) {
		events := EventsFor(domain.RentalStatusPaid, rentalIn(domain.RentalStatusAccepted))
		require.Len(t, events, 1)
		assert.Equal(t, EventStatusChanged, events[0].Kind)
		assert.Equal(t, domain.RentalStatusPaid, events[0].From)
		assert.Equal(t, "moved", events[0].Note)
	})

	t.Run("Delivery Opens QC", func(t *testing.T) {
		r := rentalIn(domain.RentalStatusDelivered)
		r.DeliveryQC = &domain.DeliveryQC{Status: domain.QCStatusPending, Deadline: deadline}
		events := EventsFor(domain.RentalStatusShipped, r)
		require.Len(t, events, 2)
		assert.Equal(t, EventQCOpened, events[1].Kind)
		assert.Equal(t, deadline, events[1].QCDeadline)
	})

	t.Run("Dispute Raised", func(t *testing.T) {
		r := rentalIn(domain.RentalStatusDisputed)
		r.IssueReport = &domain.IssueReport{Category: "damaged", Description: "torn"}
		events := EventsFor(domain.RentalStatusInUse, r)
		require.Len(t, events, 1)
		assert.Equal(t, EventDisputeRaised, events[0].Kind)
		assert.Equal(t, "damaged: torn", events[0].Note)
	})

	t.Run("Dispute Resolved", func(t *testing.T) {
		events := EventsFor(domain.RentalStatusDisputed, rentalIn(domain.RentalStatusCompleted))
		require.Len(t, events, 1)
		assert.Equal(t, EventDisputeResolved, events[0].Kind)
	})
}

func TestEmailNotifier(t *testing.T) {
	sender := new(mockMailSender)
	n := &EmailNotifier{client: sender, fromEmail: "noreply@closet.test", fromName: "Closet", adminTo: "ops@closet.test"}
	ctx := context.Background()

	t.Run("Ignores Non Dispute Events", func(t *testing.T) {
		assert.NoError(t, n.Notify(ctx, Event{Kind: EventStatusChanged}))
		sender.AssertNotCalled(t, "Send", mock.Anything)
	})

	t.Run("Sends Dispute Alert", func(t *testing.T) {
		sender.On("Send", mock.MatchedBy(func(m *mail.SGMailV3) bool {
			return m.Subject == "Dispute raised on rental rental-1"
		})).Return(&rest.Response{StatusCode: 202}, nil).Once()

		err := n.Notify(ctx, Event{Kind: EventDisputeRaised, RentalID: "rental-1"})
		assert.NoError(t, err)
	})

	t.Run("Provider Error Status", func(t *testing.T) {
		sender.On("Send", mock.Anything).Return(&rest.Response{StatusCode: 401, Body: "unauthorized"}, nil).Once()

		err := n.Notify(ctx, Event{Kind: EventDisputeResolved, RentalID: "rental-1"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "status 401")
	})

	sender.AssertExpectations(t)
}

func TestPushNotifier(t *testing.T) {
	ctx := context.Background()

	t.Run("Status Change Goes To Both Parties", func(t *testing.T) {
		sender := new(mockMessageSender)
		n := &PushNotifier{client: sender}
		sender.On("Send", ctx, mock.MatchedBy(func(m *messaging.Message) bool {
			return m.Topic == "user_renter-1" && m.Data["status"] == "shipped"
		})).Return("msg-1", nil).Once()
		sender.On("Send", ctx, mock.MatchedBy(func(m *messaging.Message) bool {
			return m.Topic == "user_curator-1"
		})).Return("msg-2", nil).Once()

		err := n.Notify(ctx, Event{Kind: EventStatusChanged, RentalID: "rental-1", RenterUserID: "renter-1", CuratorID: "curator-1", To: domain.RentalStatusShipped})
		assert.NoError(t, err)
		sender.AssertExpectations(t)
	})

	t.Run("Return QC Goes To Curator", func(t *testing.T) {
		sender := new(mockMessageSender)
		n := &PushNotifier{client: sender}
		sender.On("Send", ctx, mock.MatchedBy(func(m *messaging.Message) bool {
			return m.Topic == "user_curator-1" && m.Data["event"] == "qc_opened"
		})).Return("msg-3", nil).Once()

		err := n.Notify(ctx, Event{Kind: EventQCOpened, RenterUserID: "renter-1", CuratorID: "curator-1", To: domain.RentalStatusReturnDelivered})
		assert.NoError(t, err)
		sender.AssertExpectations(t)
	})

	t.Run("Send Failure", func(t *testing.T) {
		sender := new(mockMessageSender)
		n := &PushNotifier{client: sender}
		sender.On("Send", ctx, mock.Anything).Return("", errors.New("quota exceeded"))

		err := n.Notify(ctx, Event{Kind: EventQCOpened, RenterUserID: "renter-1", To: domain.RentalStatusDelivered})
		assert.ErrorContains(t, err, "quota exceeded")
	})
}

func TestMultiNotifier(t *testing.T) {
	ok := &recordingNotifier{}
	failing := &recordingNotifier{err: errors.New("down")}
	n := NewMulti(failing, ok, NewNoop())

	err := n.Notify(context.Background(), Event{Kind: EventStatusChanged})
	assert.ErrorContains(t, err, "down")
	assert.Len(t, ok.events, 1)
	assert.Len(t, failing.events, 1)
}
