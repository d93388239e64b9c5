package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/wildtrails/tours-api/internal/domain"
	"gorm.io/gorm"
)

type reviewRepository struct {
	db *gorm.DB
}

func NewReviewRepository(db *gorm.DB) *reviewRepository {
	return &reviewRepository{db: db}
}

type ratingSummaryRow struct {
	Count int
	Mean  float64
}

func (r *reviewRepository) RatingSummary(ctx context.Context, tourID uuid.UUID) (int, float64, error) {
	var row ratingSummaryRow
	err := r.db.WithContext(ctx).
		Model(&domain.Review{}).
		Select("COUNT(*) AS count", "COALESCE(AVG(rating), 0) AS mean").
		Where("tour_id = ?", tourID).
		Scan(&row).Error
	if err != nil {
		return 0, 0, translate(err)
	}
	return row.Count, row.Mean, nil
}
