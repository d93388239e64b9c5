package api

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/wildtrails/tours-api/internal/api/handlers"
	"github.com/wildtrails/tours-api/internal/api/middleware"
	"github.com/wildtrails/tours-api/internal/config"
	"github.com/wildtrails/tours-api/internal/domain"
	"github.com/wildtrails/tours-api/internal/repository"
	"github.com/wildtrails/tours-api/internal/service"
)

func NewRouter(services *service.Services, repos *repository.Repositories, cfg *config.Config) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.CORS(cfg.AllowedOrigin))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(services.Auth, repos.Users, cfg)
	tourHandler := handlers.NewTourHandler(services.Tour)
	bookingHandler := handlers.NewBookingHandler(services.Booking)

	tours := handlers.NewResource(repos.TourStore, handlers.ResourceOptions[domain.Tour]{
		Scope: func(r *http.Request) (map[string]any, error) {
			return map[string]any{"secret": false}, nil
		},
		BeforeCreate: func(r *http.Request, tour *domain.Tour) error {
			tour.Slug = domain.Slugify(tour.Name)
			return nil
		},
		BeforeUpdate: func(r *http.Request, tour *domain.Tour) error {
			tour.Slug = domain.Slugify(tour.Name)
			return nil
		},
		GetExpand: []string{"Guides"},
	})

	reviews := handlers.NewResource(repos.ReviewStore, handlers.ResourceOptions[domain.Review]{
		Scope: func(r *http.Request) (map[string]any, error) {
			scope := map[string]any{}
			if raw := chi.URLParam(r, "id"); raw != "" {
				tourID, err := uuid.Parse(raw)
				if err != nil {
					return nil, domain.BadRequest("invalid tour id")
				}
				scope["tour_id"] = tourID
			}
			return scope, nil
		},
		BeforeCreate: func(r *http.Request, review *domain.Review) error {
			// Nested creates take the tour from the path and the author
			// from the session, overriding anything in the body.
			if raw := chi.URLParam(r, "id"); raw != "" {
				tourID, err := uuid.Parse(raw)
				if err != nil {
					return domain.BadRequest("invalid tour id")
				}
				review.TourID = tourID
			}
			if user, ok := middleware.CurrentUser(r.Context()); ok {
				review.UserID = user.ID
			}
			return nil
		},
		AfterChange: func(review *domain.Review) {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := services.Review.RecomputeTourRatings(ctx, review.TourID); err != nil {
				log.Printf("ERROR [api] recompute ratings for tour %s: %v", review.TourID, err)
			}
		},
		GetExpand:  []string{"User"},
		ListExpand: []string{"User"},
	})

	users := handlers.NewResource(repos.UserStore, handlers.ResourceOptions[domain.User]{
		Scope: func(r *http.Request) (map[string]any, error) {
			return map[string]any{"active": true}, nil
		},
	})

	bookings := handlers.NewResource(repos.BookingStore, handlers.ResourceOptions[domain.Booking]{})

	// Provider callbacks stay outside the versioned, rate-limited API.
	r.Post("/webhook/checkout", bookingHandler.Webhook)

	limiter := middleware.NewRateLimiter(cfg.RateLimitPerMinute)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(limiter.Middleware)

		r.Route("/tours", func(r chi.Router) {
			r.Get("/", tours.GetAll)
			r.Get("/top-5-cheap", handlers.AliasTopTours(tours.GetAll))
			r.Get("/stats", tourHandler.Stats)
			r.Get("/tours-within/{distance}/center/{latlng}/unit/{unit}", tourHandler.Within)
			r.Get("/{id}", tours.GetOne)

			r.Group(func(r chi.Router) {
				r.Use(middleware.Auth(services.Auth))
				r.With(middleware.RequireRole(domain.RoleAdmin, domain.RoleLeadGuide, domain.RoleGuide)).
					Get("/monthly-plan/{year}", tourHandler.MonthlyPlan)

				r.Group(func(r chi.Router) {
					r.Use(middleware.RequireRole(domain.RoleAdmin, domain.RoleLeadGuide))
					r.Post("/", tours.CreateOne)
					r.Patch("/{id}", tours.UpdateOne)
					r.Delete("/{id}", tours.DeleteOne)
				})
			})

			// Nested reviews of one tour
			r.Route("/{id}/reviews", func(r chi.Router) {
				r.Get("/", reviews.GetAll)
				r.With(middleware.Auth(services.Auth), middleware.RequireRole(domain.RoleUser)).
					Post("/", reviews.CreateOne)
			})
		})

		r.Route("/reviews", func(r chi.Router) {
			r.Use(middleware.Auth(services.Auth))
			r.Get("/", reviews.GetAll)
			r.Get("/{id}", reviews.GetOne)
			r.With(middleware.RequireRole(domain.RoleUser)).Post("/", reviews.CreateOne)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(domain.RoleUser, domain.RoleAdmin))
				r.Patch("/{id}", reviews.UpdateOne)
				r.Delete("/{id}", reviews.DeleteOne)
			})
		})

		r.Route("/users", func(r chi.Router) {
			r.Post("/signup", authHandler.Signup)
			r.Post("/login", authHandler.Login)
			r.Post("/logout", authHandler.Logout)
			r.Post("/forgot-password", authHandler.ForgotPassword)
			r.Patch("/reset-password/{token}", authHandler.ResetPassword)

			r.Group(func(r chi.Router) {
				r.Use(middleware.Auth(services.Auth))
				r.Get("/me", authHandler.Me)
				r.Patch("/update-me", authHandler.UpdateMe)
				r.Delete("/delete-me", authHandler.DeleteMe)
				r.Patch("/update-password", authHandler.UpdatePassword)

				r.Group(func(r chi.Router) {
					r.Use(middleware.RequireRole(domain.RoleAdmin))
					r.Get("/", users.GetAll)
					r.Get("/{id}", users.GetOne)
					r.Patch("/{id}", users.UpdateOne)
					r.Delete("/{id}", users.DeleteOne)
				})
			})
		})

		r.Route("/bookings", func(r chi.Router) {
			r.Use(middleware.Auth(services.Auth))
			r.Get("/checkout-session/{tourID}", bookingHandler.CheckoutSession)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(domain.RoleAdmin, domain.RoleLeadGuide))
				r.Get("/", bookings.GetAll)
				r.Post("/", bookings.CreateOne)
				r.Get("/{id}", bookings.GetOne)
				r.Patch("/{id}", bookings.UpdateOne)
				r.Delete("/{id}", bookings.DeleteOne)
			})
		})
	})

	return r
}
