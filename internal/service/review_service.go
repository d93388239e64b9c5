package service

import (
	"context"
	"math"

	"github.com/google/uuid"
	"github.com/wildtrails/tours-api/internal/domain"
	"github.com/wildtrails/tours-api/internal/repository"
)

// ReviewService maintains the rating aggregate on tours. Recomputation is
// triggered after every committed review create, update or delete; it is
// not transactional with the triggering mutation, so an interruption
// between the two writes leaves the aggregate stale until the next
// mutation on that tour.
type ReviewService struct {
	reviews repository.ReviewRepository
	tours   repository.TourRepository
}

func NewReviewService(reviews repository.ReviewRepository, tours repository.TourRepository) *ReviewService {
	return &ReviewService{reviews: reviews, tours: tours}
}

// RecomputeTourRatings groups the tour's current reviews into count and
// mean rating and writes the pair onto the tour. With no reviews left the
// aggregate resets to {0, DefaultRatingsAverage}.
func (s *ReviewService) RecomputeTourRatings(ctx context.Context, tourID uuid.UUID) error {
	count, mean, err := s.reviews.RatingSummary(ctx, tourID)
	if err != nil {
		return err
	}
	if count == 0 {
		return s.tours.SetRatings(ctx, tourID, 0, domain.DefaultRatingsAverage)
	}
	return s.tours.SetRatings(ctx, tourID, count, math.Round(mean*10)/10)
}
