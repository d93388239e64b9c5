package domain

import (
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// DefaultRatingsAverage is the rating a tour reports before it has any
// reviews, and the value the aggregate resets to when the last review for
// a tour is deleted.
const DefaultRatingsAverage = 4.5

type Difficulty string

const (
	DifficultyEasy      Difficulty = "easy"
	DifficultyMedium    Difficulty = "medium"
	DifficultyDifficult Difficulty = "difficult"
)

func (d Difficulty) IsValid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyDifficult:
		return true
	}
	return false
}

// Location is one stop of a tour itinerary, serialized into the locations
// JSONB column.
type Location struct {
	Coordinates []float64 `json:"coordinates"`
	Address     string    `json:"address,omitempty"`
	Description string    `json:"description,omitempty"`
	Day         int       `json:"day,omitempty"`
}

type Tour struct {
	ID              uuid.UUID  `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	Name            string     `json:"name" gorm:"uniqueIndex;not null"`
	Slug            string     `json:"slug" gorm:"index"`
	Duration        int        `json:"duration" gorm:"not null"`
	MaxGroupSize    int        `json:"maxGroupSize" gorm:"not null"`
	Difficulty      Difficulty `json:"difficulty" gorm:"type:varchar(16);not null"`
	RatingsAverage  float64    `json:"ratingsAverage" gorm:"default:4.5;not null"`
	RatingsQuantity int        `json:"ratingsQuantity" gorm:"default:0;not null"`
	Price           float64    `json:"price" gorm:"not null"`
	PriceDiscount   float64    `json:"priceDiscount,omitempty"`
	Summary         string     `json:"summary" gorm:"not null"`
	Description     string     `json:"description,omitempty"`
	ImageCover      string     `json:"imageCover,omitempty"`

	Images     datatypes.JSON `json:"images,omitempty"`
	StartDates datatypes.JSON `json:"startDates,omitempty"`
	Locations  datatypes.JSON `json:"locations,omitempty"`

	// Start point, kept as plain columns so radius searches stay in SQL.
	StartLat         float64 `json:"startLat,omitempty"`
	StartLng         float64 `json:"startLng,omitempty"`
	StartAddress     string  `json:"startAddress,omitempty"`
	StartDescription string  `json:"startDescription,omitempty"`

	// Secret tours are excluded from public listings.
	Secret bool `json:"-" gorm:"default:false;not null"`

	Guides []User `json:"guides,omitempty" gorm:"many2many:tour_guides"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (t *Tour) Validate() error {
	name := strings.TrimSpace(t.Name)
	if len(name) < 10 || len(name) > 40 {
		return BadRequest("a tour name must have between 10 and 40 characters")
	}
	if t.Duration <= 0 {
		return BadRequest("a tour must have a duration")
	}
	if t.MaxGroupSize <= 0 {
		return BadRequest("a tour must have a max group size")
	}
	if !t.Difficulty.IsValid() {
		return BadRequest("difficulty is either: easy, medium, difficult")
	}
	if t.Price <= 0 {
		return BadRequest("a tour must have a price")
	}
	if t.PriceDiscount != 0 && t.PriceDiscount >= t.Price {
		return BadRequest("discount price (%v) cannot be more than the actual price", t.PriceDiscount)
	}
	if strings.TrimSpace(t.Summary) == "" {
		return BadRequest("a tour must have a summary")
	}
	if t.RatingsAverage < 1 || t.RatingsAverage > 5 {
		return BadRequest("rating must be between 1.0 and 5.0")
	}
	return nil
}

// Slugify lowercases a tour name into a URL-safe slug.
func Slugify(name string) string {
	var b strings.Builder
	prevDash := true
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			prevDash = false
		default:
			if !prevDash {
				b.WriteByte('-')
				prevDash = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
