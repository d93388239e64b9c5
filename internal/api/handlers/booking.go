package handlers

import (
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/wildtrails/tours-api/internal/api/middleware"
	"github.com/wildtrails/tours-api/internal/domain"
	"github.com/wildtrails/tours-api/internal/service"
)

type BookingHandler struct {
	bookings *service.BookingService
}

func NewBookingHandler(bookings *service.BookingService) *BookingHandler {
	return &BookingHandler{bookings: bookings}
}

func (h *BookingHandler) CheckoutSession(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.CurrentUser(r.Context())
	if !ok {
		respondError(w, r, service.ErrInvalidSession)
		return
	}
	tourID, err := uuid.Parse(chi.URLParam(r, "tourID"))
	if err != nil {
		respondError(w, r, domain.BadRequest("invalid tour id"))
		return
	}
	session, err := h.bookings.CreateCheckoutSession(r.Context(), tourID, user)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{Status: "success", Data: map[string]any{"session": session}})
}

// Webhook ingests provider callbacks. It is unauthenticated; trust
// comes from the signature header alone.
func (h *BookingHandler) Webhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(r.Body)
	if err != nil {
		respondError(w, r, domain.BadRequest("unable to read webhook payload"))
		return
	}
	signature := r.Header.Get("Checkout-Signature")
	if err := h.bookings.HandleWebhookEvent(r.Context(), payload, signature); err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{Status: "success", Data: map[string]any{"received": true}})
}
