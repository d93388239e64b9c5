package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/wildtrails/tours-api/internal/domain"
	"github.com/wildtrails/tours-api/internal/query"
)

// Store is the uniform data-store accessor every resource type shares. It
// reports not-found and duplicate-key failures as domain sentinel errors so
// callers can map them to client errors without inspecting message text;
// anything else is a store-level failure.
type Store[T any] interface {
	Insert(ctx context.Context, doc *T) error
	FindByID(ctx context.Context, id uuid.UUID, expand ...string) (*T, error)
	FindAll(ctx context.Context, spec *query.Spec, scope map[string]any, expand ...string) ([]T, error)
	Save(ctx context.Context, doc *T) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	// GetByResetToken matches the stored reset-token hash and requires the
	// expiry to still be in the future.
	GetByResetToken(ctx context.Context, tokenHash string, now time.Time) (*domain.User, error)
	Update(ctx context.Context, user *domain.User) error
	// SetColumns writes the given columns directly, including NULLs; used
	// to roll back reset-token fields without touching anything else.
	SetColumns(ctx context.Context, id uuid.UUID, columns map[string]any) error
}

// TourStats is one per-difficulty aggregate row.
type TourStats struct {
	Difficulty string  `json:"difficulty"`
	NumTours   int     `json:"numTours"`
	NumRatings int     `json:"numRatings"`
	AvgRating  float64 `json:"avgRating"`
	AvgPrice   float64 `json:"avgPrice"`
	MinPrice   float64 `json:"minPrice"`
	MaxPrice   float64 `json:"maxPrice"`
}

// MonthlyPlan is the number of tour starts in one month of a year.
type MonthlyPlan struct {
	Month         int      `json:"month"`
	NumTourStarts int      `json:"numTourStarts"`
	Tours         []string `json:"tours"`
}

type TourRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Tour, error)
	// SetRatings writes the rating aggregate onto a tour.
	SetRatings(ctx context.Context, id uuid.UUID, quantity int, average float64) error
	Stats(ctx context.Context) ([]TourStats, error)
	MonthlyPlan(ctx context.Context, year int) ([]MonthlyPlan, error)
	// Within returns non-secret tours whose start point lies inside the
	// given radius (in the same unit as earthRadius) around lat/lng.
	Within(ctx context.Context, lat, lng, distance, earthRadius float64) ([]domain.Tour, error)
}

type ReviewRepository interface {
	// RatingSummary aggregates count and mean rating over the current set
	// of reviews for a tour.
	RatingSummary(ctx context.Context, tourID uuid.UUID) (count int, mean float64, err error)
}

// Repositories bundles every accessor the services and handlers need.
type Repositories struct {
	Users   UserRepository
	Tours   TourRepository
	Reviews ReviewRepository

	UserStore    Store[domain.User]
	TourStore    Store[domain.Tour]
	ReviewStore  Store[domain.Review]
	BookingStore Store[domain.Booking]
}
