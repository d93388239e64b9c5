package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wildtrails/tours-api/internal/domain"
	"github.com/wildtrails/tours-api/internal/repository/postgres"
	"github.com/wildtrails/tours-api/internal/service"
	"github.com/wildtrails/tours-api/internal/testutil"
)

func TestReviewService_RecomputeTourRatings(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	repos := postgres.NewRepositories(testDB.DB)
	reviewService := service.NewReviewService(repos.Reviews, repos.Tours)
	ctx := context.Background()

	tour := testutil.NewTourBuilder().Build(t, testDB.DB)

	currentRatings := func() (int, float64) {
		stored, err := repos.Tours.GetByID(ctx, tour.ID)
		require.NoError(t, err)
		return stored.RatingsQuantity, stored.RatingsAverage
	}

	// Two reviews: ratings 4 and 5.
	first := testutil.NewReviewBuilder().ForTour(tour).WithRating(4).Build(t, testDB.DB)
	second := testutil.NewReviewBuilder().ForTour(tour).WithRating(5).Build(t, testDB.DB)

	require.NoError(t, reviewService.RecomputeTourRatings(ctx, tour.ID))
	quantity, average := currentRatings()
	assert.Equal(t, 2, quantity)
	assert.Equal(t, 4.5, average)

	// Deleting one review shrinks the aggregate to the remaining rating.
	require.NoError(t, testDB.DB.Delete(&domain.Review{}, "id = ?", first.ID).Error)
	require.NoError(t, reviewService.RecomputeTourRatings(ctx, tour.ID))
	quantity, average = currentRatings()
	assert.Equal(t, 1, quantity)
	assert.Equal(t, 5.0, average)

	// With no reviews left the aggregate resets to the default baseline.
	require.NoError(t, testDB.DB.Delete(&domain.Review{}, "id = ?", second.ID).Error)
	require.NoError(t, reviewService.RecomputeTourRatings(ctx, tour.ID))
	quantity, average = currentRatings()
	assert.Equal(t, 0, quantity)
	assert.Equal(t, domain.DefaultRatingsAverage, average)
}

func TestReviewService_RecomputeRoundsMean(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	repos := postgres.NewRepositories(testDB.DB)
	reviewService := service.NewReviewService(repos.Reviews, repos.Tours)
	ctx := context.Background()

	tour := testutil.NewTourBuilder().Build(t, testDB.DB)

	// 5, 4, 4 -> 4.333... stored as 4.3
	for _, rating := range []int{5, 4, 4} {
		testutil.NewReviewBuilder().ForTour(tour).WithRating(rating).Build(t, testDB.DB)
	}

	require.NoError(t, reviewService.RecomputeTourRatings(ctx, tour.ID))
	stored, err := repos.Tours.GetByID(ctx, tour.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, stored.RatingsQuantity)
	assert.Equal(t, 4.3, stored.RatingsAverage)
}
