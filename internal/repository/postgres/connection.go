package postgres

import (
	"github.com/wildtrails/tours-api/internal/domain"
	"github.com/wildtrails/tours-api/internal/repository"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func NewConnection(databaseURL string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(databaseURL), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
		// Duplicate-key and not-found conditions arrive as typed gorm
		// errors instead of driver-specific ones.
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}

	// Auto-migrate tables
	err = db.AutoMigrate(
		&domain.User{},
		&domain.Tour{},
		&domain.Review{},
		&domain.Booking{},
	)
	if err != nil {
		return nil, err
	}

	return db, nil
}

func NewRepositories(db *gorm.DB) *repository.Repositories {
	return &repository.Repositories{
		Users:   NewUserRepository(db),
		Tours:   NewTourRepository(db),
		Reviews: NewReviewRepository(db),

		UserStore:    NewStore[domain.User](db),
		TourStore:    NewStore[domain.Tour](db),
		ReviewStore:  NewStore[domain.Review](db),
		BookingStore: NewStore[domain.Booking](db),
	}
}
