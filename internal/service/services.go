package service

import (
	"github.com/wildtrails/tours-api/internal/config"
	"github.com/wildtrails/tours-api/internal/mail"
	"github.com/wildtrails/tours-api/internal/payment"
	"github.com/wildtrails/tours-api/internal/repository"
)

type Services struct {
	Auth    *AuthService
	Tour    *TourService
	Review  *ReviewService
	Booking *BookingService
}

func NewServices(repos *repository.Repositories, mailer mail.Mailer, provider payment.Provider, cfg *config.Config) *Services {
	return &Services{
		Auth:    NewAuthService(repos.Users, mailer, cfg),
		Tour:    NewTourService(repos.Tours),
		Review:  NewReviewService(repos.Reviews, repos.Tours),
		Booking: NewBookingService(repos.BookingStore, repos.Tours, repos.Users, provider, cfg),
	}
}
