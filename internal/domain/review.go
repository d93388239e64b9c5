package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Review belongs to exactly one tour and one user; a user may rate a given
// tour at most once, enforced by the composite unique index.
type Review struct {
	ID     uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	Review string    `json:"review" gorm:"not null"`
	Rating int       `json:"rating" gorm:"not null"`
	TourID uuid.UUID `json:"tourId" gorm:"type:uuid;not null;uniqueIndex:idx_reviews_tour_user"`
	UserID uuid.UUID `json:"userId" gorm:"type:uuid;not null;uniqueIndex:idx_reviews_tour_user"`

	User *User `json:"user,omitempty" gorm:"foreignKey:UserID"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (r *Review) Validate() error {
	if strings.TrimSpace(r.Review) == "" {
		return BadRequest("review can not be empty")
	}
	if r.Rating < 1 || r.Rating > 5 {
		return BadRequest("rating must be between 1 and 5")
	}
	if r.TourID == uuid.Nil {
		return BadRequest("review must belong to a tour")
	}
	if r.UserID == uuid.Nil {
		return BadRequest("review must belong to a user")
	}
	return nil
}
