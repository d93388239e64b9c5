package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/wildtrails/tours-api/internal/domain"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// UserBuilder creates test users with a builder pattern
type UserBuilder struct {
	name     string
	email    string
	password string
	role     domain.Role
	active   bool
}

// NewUserBuilder creates a new UserBuilder with default values
func NewUserBuilder() *UserBuilder {
	suffix := uuid.New().String()[:8]
	return &UserBuilder{
		name:     fmt.Sprintf("Test User %s", suffix),
		email:    fmt.Sprintf("testuser_%s@example.com", suffix),
		password: "testpassword123",
		role:     domain.RoleUser,
		active:   true,
	}
}

// WithName sets the display name
func (b *UserBuilder) WithName(name string) *UserBuilder {
	b.name = name
	return b
}

// WithEmail sets the email
func (b *UserBuilder) WithEmail(email string) *UserBuilder {
	b.email = email
	return b
}

// WithPassword sets the password
func (b *UserBuilder) WithPassword(password string) *UserBuilder {
	b.password = password
	return b
}

// WithRole sets the role
func (b *UserBuilder) WithRole(role domain.Role) *UserBuilder {
	b.role = role
	return b
}

// Inactive marks the account deactivated
func (b *UserBuilder) Inactive() *UserBuilder {
	b.active = false
	return b
}

// Build creates the user in the database and returns the user with the raw password
func (b *UserBuilder) Build(t *testing.T, db *gorm.DB) (*domain.User, string) {
	t.Helper()

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(b.password), bcrypt.DefaultCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	user := &domain.User{
		Name:         b.name,
		Email:        b.email,
		Role:         b.role,
		PasswordHash: string(hashedPassword),
		Active:       b.active,
	}

	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create user: %v", err)
	}

	return user, b.password
}

// BuildAndLogin creates the user in the database, logs in through the API
// and returns the user together with a valid session token.
func (b *UserBuilder) BuildAndLogin(t *testing.T, ts *TestServer) (*domain.User, string) {
	t.Helper()

	user, password := b.Build(t, ts.DB.DB)

	reqBody, _ := json.Marshal(map[string]string{
		"email":    b.email,
		"password": password,
	})
	resp, err := http.Post(ts.APIURL("/users/login"), "application/json", bytes.NewBuffer(reqBody))
	if err != nil {
		t.Fatalf("failed to log in: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected login status code: %d", resp.StatusCode)
	}

	var authResp struct {
		Data struct {
			Token string `json:"token"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&authResp); err != nil {
		t.Fatalf("failed to decode login response: %v", err)
	}

	return user, authResp.Data.Token
}

// TourBuilder creates test tours with a builder pattern
type TourBuilder struct {
	name       string
	difficulty domain.Difficulty
	price      float64
	secret     bool
	startLat   float64
	startLng   float64
}

// NewTourBuilder creates a new TourBuilder with default values
func NewTourBuilder() *TourBuilder {
	return &TourBuilder{
		name:       fmt.Sprintf("The Test Hiker %s", uuid.New().String()[:8]),
		difficulty: domain.DifficultyMedium,
		price:      497,
	}
}

// WithName sets the tour name
func (b *TourBuilder) WithName(name string) *TourBuilder {
	b.name = name
	return b
}

// WithDifficulty sets the difficulty
func (b *TourBuilder) WithDifficulty(d domain.Difficulty) *TourBuilder {
	b.difficulty = d
	return b
}

// WithPrice sets the price
func (b *TourBuilder) WithPrice(price float64) *TourBuilder {
	b.price = price
	return b
}

// Secret marks the tour as hidden from public listings
func (b *TourBuilder) Secret() *TourBuilder {
	b.secret = true
	return b
}

// WithStart sets the start point coordinates
func (b *TourBuilder) WithStart(lat, lng float64) *TourBuilder {
	b.startLat = lat
	b.startLng = lng
	return b
}

// Build creates the tour in the database
func (b *TourBuilder) Build(t *testing.T, db *gorm.DB) *domain.Tour {
	t.Helper()

	tour := &domain.Tour{
		Name:           b.name,
		Slug:           domain.Slugify(b.name),
		Duration:       5,
		MaxGroupSize:   25,
		Difficulty:     b.difficulty,
		RatingsAverage: domain.DefaultRatingsAverage,
		Price:          b.price,
		Summary:        "A test tour through scenic test country",
		Secret:         b.secret,
		StartLat:       b.startLat,
		StartLng:       b.startLng,
	}

	if err := db.Create(tour).Error; err != nil {
		t.Fatalf("failed to create tour: %v", err)
	}

	return tour
}

// ReviewBuilder creates test reviews
type ReviewBuilder struct {
	tour   *domain.Tour
	user   *domain.User
	rating int
	text   string
}

// NewReviewBuilder creates a new ReviewBuilder with default values
func NewReviewBuilder() *ReviewBuilder {
	return &ReviewBuilder{
		rating: 4,
		text:   "Great tour, would book again",
	}
}

// ForTour sets the reviewed tour
func (b *ReviewBuilder) ForTour(tour *domain.Tour) *ReviewBuilder {
	b.tour = tour
	return b
}

// ByUser sets the review author
func (b *ReviewBuilder) ByUser(user *domain.User) *ReviewBuilder {
	b.user = user
	return b
}

// WithRating sets the rating
func (b *ReviewBuilder) WithRating(rating int) *ReviewBuilder {
	b.rating = rating
	return b
}

// Build creates the review in the database
func (b *ReviewBuilder) Build(t *testing.T, db *gorm.DB) *domain.Review {
	t.Helper()

	if b.tour == nil {
		b.tour = NewTourBuilder().Build(t, db)
	}
	if b.user == nil {
		user, _ := NewUserBuilder().Build(t, db)
		b.user = user
	}

	review := &domain.Review{
		Review: b.text,
		Rating: b.rating,
		TourID: b.tour.ID,
		UserID: b.user.ID,
	}

	if err := db.Create(review).Error; err != nil {
		t.Fatalf("failed to create review: %v", err)
	}

	return review
}

// CreateAuthenticatedRequest creates an HTTP request with auth token
func CreateAuthenticatedRequest(t *testing.T, method, url string, body interface{}, token string) *http.Request {
	t.Helper()

	var bodyReader *bytes.Buffer
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal body: %v", err)
		}
		bodyReader = bytes.NewBuffer(jsonBody)
	} else {
		bodyReader = bytes.NewBuffer(nil)
	}

	req, err := http.NewRequestWithContext(context.Background(), method, url, bodyReader)
	if err != nil {
		t.Fatalf("failed to create request: %v", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	return req
}
