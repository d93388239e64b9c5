package service

import (
	"context"

	"github.com/wildtrails/tours-api/internal/domain"
	"github.com/wildtrails/tours-api/internal/repository"
)

// Equatorial radius used for the radius search, per unit.
const (
	earthRadiusKm = 6378.1
	earthRadiusMi = 3963.2
)

type TourService struct {
	tours repository.TourRepository
}

func NewTourService(tours repository.TourRepository) *TourService {
	return &TourService{tours: tours}
}

func (s *TourService) Stats(ctx context.Context) ([]repository.TourStats, error) {
	return s.tours.Stats(ctx)
}

func (s *TourService) MonthlyPlan(ctx context.Context, year int) ([]repository.MonthlyPlan, error) {
	if year < 1900 || year > 3000 {
		return nil, domain.BadRequest("invalid year %d", year)
	}
	return s.tours.MonthlyPlan(ctx, year)
}

// Within returns tours starting inside the given radius around a point.
func (s *TourService) Within(ctx context.Context, distance, lat, lng float64, unit string) ([]domain.Tour, error) {
	if distance <= 0 {
		return nil, domain.BadRequest("distance must be positive")
	}
	if lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return nil, domain.BadRequest("please provide latitude and longitude in the format lat,lng")
	}
	var earthRadius float64
	switch unit {
	case "km":
		earthRadius = earthRadiusKm
	case "mi":
		earthRadius = earthRadiusMi
	default:
		return nil, domain.BadRequest("unit must be either mi or km")
	}
	return s.tours.Within(ctx, lat, lng, distance, earthRadius)
}
