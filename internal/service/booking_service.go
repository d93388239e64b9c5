package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/wildtrails/tours-api/internal/config"
	"github.com/wildtrails/tours-api/internal/domain"
	"github.com/wildtrails/tours-api/internal/payment"
	"github.com/wildtrails/tours-api/internal/repository"
	"gorm.io/datatypes"
)

// BookingService starts checkouts and ingests the provider's webhook
// events. The webhook path is just another caller of the booking store.
type BookingService struct {
	bookings repository.Store[domain.Booking]
	tours    repository.TourRepository
	users    repository.UserRepository
	provider payment.Provider
	cfg      *config.Config
}

func NewBookingService(bookings repository.Store[domain.Booking], tours repository.TourRepository, users repository.UserRepository, provider payment.Provider, cfg *config.Config) *BookingService {
	return &BookingService{bookings: bookings, tours: tours, users: users, provider: provider, cfg: cfg}
}

func (s *BookingService) CreateCheckoutSession(ctx context.Context, tourID uuid.UUID, user *domain.User) (*payment.CheckoutSession, error) {
	tour, err := s.tours.GetByID(ctx, tourID)
	if err != nil {
		return nil, err
	}
	successURL := s.cfg.BaseURL + "/my-tours?alert=booking"
	cancelURL := fmt.Sprintf("%s/tours/%s", s.cfg.BaseURL, tour.Slug)
	return s.provider.CreateSession(ctx, tour, user, successURL, cancelURL)
}

// HandleWebhookEvent verifies the payload and, on a completed checkout,
// records the booking. Unknown event types are acknowledged and ignored.
func (s *BookingService) HandleWebhookEvent(ctx context.Context, payload []byte, signature string) error {
	event, err := s.provider.VerifyEvent(payload, signature)
	if err != nil {
		if errors.Is(err, payment.ErrBadSignature) {
			return domain.BadRequest("webhook signature verification failed")
		}
		return domain.BadRequest("malformed webhook payload")
	}
	if event.Type != payment.EventCheckoutCompleted {
		return nil
	}

	user, err := s.users.GetByEmail(ctx, event.Session.CustomerEmail)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.BadRequest("unknown checkout customer %q", event.Session.CustomerEmail)
		}
		return err
	}

	booking := &domain.Booking{
		TourID:     event.Session.TourID,
		UserID:     user.ID,
		Price:      float64(event.Session.AmountCents) / 100,
		Paid:       true,
		CheckoutID: event.Session.ID,
		Event:      datatypes.JSON(payload),
	}
	if err := booking.Validate(); err != nil {
		return err
	}
	return s.bookings.Insert(ctx, booking)
}
