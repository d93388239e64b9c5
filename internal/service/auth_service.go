package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/wildtrails/tours-api/internal/config"
	"github.com/wildtrails/tours-api/internal/domain"
	"github.com/wildtrails/tours-api/internal/mail"
	"github.com/wildtrails/tours-api/internal/repository"
	"golang.org/x/crypto/bcrypt"
)

var (
	// One message for unknown email and wrong password: the two causes
	// must not be distinguishable to the caller.
	ErrInvalidCredentials = errors.New("incorrect email or password")
	// One message for bad signature, expiry, deleted user and stale
	// credential, for the same reason.
	ErrInvalidSession = errors.New("invalid or expired session, please log in again")

	ErrEmailExists       = errors.New("email address already in use")
	ErrUserNotFound      = errors.New("user not found")
	ErrResetTokenInvalid = errors.New("reset token is invalid or has expired")
	ErrWrongPassword     = errors.New("your current password is wrong")
)

// dummyHash is compared against when the email is unknown so that both
// login failure causes cost one bcrypt verification.
var dummyHash = []byte("$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy")

type AuthService struct {
	users  repository.UserRepository
	mailer mail.Mailer
	cfg    *config.Config
}

func NewAuthService(users repository.UserRepository, mailer mail.Mailer, cfg *config.Config) *AuthService {
	return &AuthService{users: users, mailer: mailer, cfg: cfg}
}

type SignupInput struct {
	Name     string
	Email    string
	Password string
}

type AuthResult struct {
	User      *domain.User
	Token     string
	ExpiresAt time.Time
}

func (s *AuthService) Signup(ctx context.Context, input SignupInput) (*AuthResult, error) {
	if err := validPassword(input.Password); err != nil {
		return nil, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		Name:         strings.TrimSpace(input.Name),
		Email:        normalizeEmail(input.Email),
		Role:         domain.RoleUser, // roles are never accepted from signup payloads
		PasswordHash: string(hashed),
		Active:       true,
	}
	if err := user.Validate(); err != nil {
		return nil, err
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, domain.ErrDuplicate) {
			return nil, ErrEmailExists
		}
		return nil, err
	}

	// Welcome mail is best-effort: there is nothing to roll back and a
	// failed greeting should not fail the signup.
	welcome := *user
	go func() {
		data := map[string]string{"url": s.cfg.BaseURL + "/me"}
		if err := s.mailer.Send(context.Background(), &welcome, mail.KindWelcome, data); err != nil {
			log.Printf("ERROR [service.Auth] welcome mail to %s failed: %v", welcome.Email, err)
		}
	}()

	return s.issueToken(user)
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	user, err := s.users.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !user.Active {
		_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return s.issueToken(user)
}

// VerifySession checks the token's signature and expiry, re-fetches the
// user, and rejects tokens issued before the last credential change.
func (s *AuthService) VerifySession(ctx context.Context, tokenString string) (*domain.User, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(s.cfg.JWTSecret), nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidSession
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidSession
	}
	sub, _ := claims["sub"].(string)
	userID, err := uuid.Parse(sub)
	if err != nil {
		return nil, ErrInvalidSession
	}
	issuedAt, err := claims.GetIssuedAt()
	if err != nil || issuedAt == nil {
		return nil, ErrInvalidSession
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, ErrInvalidSession
		}
		return nil, err
	}
	if !user.Active || user.CredentialChangedAfter(issuedAt.Time) {
		return nil, ErrInvalidSession
	}
	return user, nil
}

// ForgotPassword stores a hashed single-use reset token and mails the
// plaintext secret. If delivery fails the stored fields are cleared so a
// dangling usable token never survives a failed send.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	user, err := s.users.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return ErrUserNotFound
		}
		return err
	}

	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return err
	}
	token := hex.EncodeToString(buf)
	expires := time.Now().Add(s.cfg.ResetTokenTTL)

	if err := s.users.SetColumns(ctx, user.ID, map[string]any{
		"password_reset_token":   hashResetToken(token),
		"password_reset_expires": expires,
	}); err != nil {
		return err
	}

	data := map[string]string{"url": s.cfg.BaseURL + "/api/v1/users/reset-password/" + token}
	if err := s.mailer.Send(ctx, user, mail.KindPasswordReset, data); err != nil {
		log.Printf("ERROR [service.Auth] reset mail to %s failed: %v", user.Email, err)
		rollbackErr := s.users.SetColumns(ctx, user.ID, map[string]any{
			"password_reset_token":   nil,
			"password_reset_expires": nil,
		})
		if rollbackErr != nil {
			log.Printf("ERROR [service.Auth] reset token rollback for %s failed: %v", user.Email, rollbackErr)
		}
		return domain.NewError(http.StatusInternalServerError, "there was an error sending the email, try again later")
	}
	return nil
}

// ResetPassword consumes a reset token: it succeeds at most once per token.
func (s *AuthService) ResetPassword(ctx context.Context, token, newPassword string) (*AuthResult, error) {
	if err := validPassword(newPassword); err != nil {
		return nil, err
	}

	user, err := s.users.GetByResetToken(ctx, hashResetToken(token), time.Now())
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, ErrResetTokenInvalid
		}
		return nil, err
	}

	if err := s.setPassword(ctx, user, newPassword); err != nil {
		return nil, err
	}
	return s.issueToken(user)
}

// ChangePassword requires re-verification of the current secret.
func (s *AuthService) ChangePassword(ctx context.Context, userID uuid.UUID, current, newPassword string) (*AuthResult, error) {
	if err := validPassword(newPassword); err != nil {
		return nil, err
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(current)); err != nil {
		return nil, ErrWrongPassword
	}

	if err := s.setPassword(ctx, user, newPassword); err != nil {
		return nil, err
	}
	return s.issueToken(user)
}

func (s *AuthService) GetUserByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return s.users.GetByID(ctx, id)
}

// setPassword replaces the hash, clears any reset-token fields and bumps
// the credential-change timestamp. The one-second skew keeps a token
// issued in the same second as the change from being rejected.
func (s *AuthService) setPassword(ctx context.Context, user *domain.User, newPassword string) error {
	hashed, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	changedAt := time.Now().Add(-time.Second)
	user.PasswordHash = string(hashed)
	user.PasswordChangedAt = &changedAt
	user.PasswordResetToken = ""
	user.PasswordResetExpires = nil
	return s.users.SetColumns(ctx, user.ID, map[string]any{
		"password_hash":          user.PasswordHash,
		"password_changed_at":    changedAt,
		"password_reset_token":   nil,
		"password_reset_expires": nil,
	})
}

func (s *AuthService) issueToken(user *domain.User) (*AuthResult, error) {
	now := time.Now()
	expiresAt := now.Add(time.Duration(s.cfg.JWTExpirationHours) * time.Hour)
	claims := jwt.MapClaims{
		"sub": user.ID.String(),
		"iat": now.Unix(),
		"exp": expiresAt.Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		return nil, err
	}
	return &AuthResult{User: user, Token: signed, ExpiresAt: expiresAt}, nil
}

func hashResetToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validPassword(password string) error {
	if len(password) < 8 {
		return domain.BadRequest("password must be at least 8 characters")
	}
	return nil
}
