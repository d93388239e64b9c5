package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type Booking struct {
	ID     uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	TourID uuid.UUID `json:"tourId" gorm:"type:uuid;not null"`
	UserID uuid.UUID `json:"userId" gorm:"type:uuid;not null"`
	Price  float64   `json:"price" gorm:"not null"`
	Paid   bool      `json:"paid" gorm:"default:true;not null"`

	Tour *Tour `json:"tour,omitempty" gorm:"foreignKey:TourID"`
	User *User `json:"user,omitempty" gorm:"foreignKey:UserID"`

	// Checkout session id and raw provider event, kept for reconciliation.
	CheckoutID string         `json:"checkoutId,omitempty"`
	Event      datatypes.JSON `json:"-"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (b *Booking) Validate() error {
	if b.TourID == uuid.Nil {
		return BadRequest("booking must belong to a tour")
	}
	if b.UserID == uuid.Nil {
		return BadRequest("booking must belong to a user")
	}
	if b.Price <= 0 {
		return BadRequest("booking must have a price")
	}
	return nil
}
