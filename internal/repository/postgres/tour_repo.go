package postgres

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/wildtrails/tours-api/internal/domain"
	"github.com/wildtrails/tours-api/internal/repository"
	"gorm.io/gorm"
)

type tourRepository struct {
	db *gorm.DB
}

func NewTourRepository(db *gorm.DB) *tourRepository {
	return &tourRepository{db: db}
}

func (r *tourRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Tour, error) {
	var tour domain.Tour
	err := r.db.WithContext(ctx).First(&tour, "id = ?", id).Error
	if err != nil {
		return nil, translate(err)
	}
	return &tour, nil
}

func (r *tourRepository) SetRatings(ctx context.Context, id uuid.UUID, quantity int, average float64) error {
	return translate(r.db.WithContext(ctx).
		Model(&domain.Tour{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"ratings_quantity": quantity,
			"ratings_average":  average,
		}).Error)
}

func (r *tourRepository) Stats(ctx context.Context) ([]repository.TourStats, error) {
	var stats []repository.TourStats
	err := r.db.WithContext(ctx).
		Model(&domain.Tour{}).
		Select("UPPER(difficulty) AS difficulty",
			"COUNT(*) AS num_tours",
			"COALESCE(SUM(ratings_quantity), 0) AS num_ratings",
			"AVG(ratings_average) AS avg_rating",
			"AVG(price) AS avg_price",
			"MIN(price) AS min_price",
			"MAX(price) AS max_price").
		Where("ratings_average >= ?", domain.DefaultRatingsAverage).
		Group("difficulty").
		Order("avg_price").
		Scan(&stats).Error
	if err != nil {
		return nil, translate(err)
	}
	return stats, nil
}

// monthlyPlanRow is the raw scan target; tour names arrive comma-joined.
type monthlyPlanRow struct {
	Month         int
	NumTourStarts int
	TourNames     string
}

func (r *tourRepository) MonthlyPlan(ctx context.Context, year int) ([]repository.MonthlyPlan, error) {
	var rows []monthlyPlanRow
	err := r.db.WithContext(ctx).Raw(`
		SELECT EXTRACT(MONTH FROM (sd.value)::timestamptz)::int AS month,
		       COUNT(*) AS num_tour_starts,
		       STRING_AGG(tours.name, ',' ORDER BY tours.name) AS tour_names
		FROM tours, jsonb_array_elements_text(start_dates) AS sd(value)
		WHERE EXTRACT(YEAR FROM (sd.value)::timestamptz)::int = ?
		GROUP BY month
		ORDER BY num_tour_starts DESC, month ASC
		LIMIT 12`, year).
		Scan(&rows).Error
	if err != nil {
		return nil, translate(err)
	}
	plan := make([]repository.MonthlyPlan, 0, len(rows))
	for _, row := range rows {
		plan = append(plan, repository.MonthlyPlan{
			Month:         row.Month,
			NumTourStarts: row.NumTourStarts,
			Tours:         strings.Split(row.TourNames, ","),
		})
	}
	return plan, nil
}

func (r *tourRepository) Within(ctx context.Context, lat, lng, distance, earthRadius float64) ([]domain.Tour, error) {
	var tours []domain.Tour
	// Great-circle distance on the start point; LEAST guards acos against
	// rounding just above 1.0.
	err := r.db.WithContext(ctx).
		Where("secret = ?", false).
		Where(`acos(LEAST(1.0,
			sin(radians(?)) * sin(radians(start_lat)) +
			cos(radians(?)) * cos(radians(start_lat)) * cos(radians(start_lng - ?))
		)) * ? <= ?`, lat, lat, lng, earthRadius, distance).
		Find(&tours).Error
	if err != nil {
		return nil, translate(err)
	}
	return tours, nil
}
