// Package payment is the checkout collaborator. Sessions are created when
// a user starts a booking; completed checkouts come back out-of-band as
// HMAC-signed webhook events.
package payment

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/wildtrails/tours-api/internal/domain"
)

// EventCheckoutCompleted is the only event type that creates a booking;
// everything else is acknowledged and ignored.
const EventCheckoutCompleted = "checkout.session.completed"

var ErrBadSignature = errors.New("webhook signature mismatch")

type CheckoutSession struct {
	ID            string    `json:"id"`
	URL           string    `json:"url"`
	TourID        uuid.UUID `json:"clientReferenceId"`
	CustomerEmail string    `json:"customerEmail"`
	// AmountCents is the charged amount in the smallest currency unit.
	AmountCents int64  `json:"amountCents"`
	Currency    string `json:"currency"`
}

type Event struct {
	Type    string          `json:"type"`
	Session CheckoutSession `json:"session"`
}

type Provider interface {
	CreateSession(ctx context.Context, tour *domain.Tour, user *domain.User, successURL, cancelURL string) (*CheckoutSession, error)
	// VerifyEvent checks the payload signature before decoding; a mismatch
	// is ErrBadSignature.
	VerifyEvent(payload []byte, signature string) (*Event, error)
}

// HMACProvider signs and verifies webhook payloads with a shared secret.
// It stands in for a hosted gateway: CreateSession returns a session whose
// checkout URL points at the gateway's (stubbed) payment page.
type HMACProvider struct {
	secret      []byte
	checkoutURL string
}

func NewHMACProvider(secret, checkoutURL string) *HMACProvider {
	return &HMACProvider{secret: []byte(secret), checkoutURL: checkoutURL}
}

func (p *HMACProvider) CreateSession(_ context.Context, tour *domain.Tour, user *domain.User, successURL, cancelURL string) (*CheckoutSession, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return nil, err
	}
	id := "cs_" + hex.EncodeToString(buf)
	return &CheckoutSession{
		ID:            id,
		URL:           fmt.Sprintf("%s/%s?success_url=%s&cancel_url=%s", p.checkoutURL, id, successURL, cancelURL),
		TourID:        tour.ID,
		CustomerEmail: user.Email,
		AmountCents:   int64(tour.Price * 100),
		Currency:      "usd",
	}, nil
}

func (p *HMACProvider) VerifyEvent(payload []byte, signature string) (*Event, error) {
	want, err := hex.DecodeString(signature)
	if err != nil {
		return nil, ErrBadSignature
	}
	mac := hmac.New(sha256.New, p.secret)
	mac.Write(payload)
	if !hmac.Equal(mac.Sum(nil), want) {
		return nil, ErrBadSignature
	}
	var event Event
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, fmt.Errorf("decode webhook event: %w", err)
	}
	return &event, nil
}

// Sign computes the hex signature for a payload; the test suite and the
// gateway stub share it.
func (p *HMACProvider) Sign(payload []byte) string {
	mac := hmac.New(sha256.New, p.secret)
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}
