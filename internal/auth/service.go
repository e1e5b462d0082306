package auth

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"

	"github.com/mrlokans/bookstore/internal/config"
	"github.com/mrlokans/bookstore/internal/database"
	"github.com/mrlokans/bookstore/internal/entities"
)

const (
	maxUsernameLength = 50
	maxEmailLength    = 120
)

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// ErrInvalidCredentials is returned for an unknown email and for a wrong
// password alike.
var ErrInvalidCredentials = errors.New("invalid login details")

// UserStore is the user persistence the service needs.
type UserStore interface {
	CreateUser(ctx context.Context, user *entities.User) error
	EmailExists(ctx context.Context, email string) (bool, error)
	GetUserByEmail(ctx context.Context, email string) (*entities.User, error)
	GetUserByID(ctx context.Context, id uint) (*entities.User, error)
}

// Service registers and authenticates users.
type Service struct {
	users  UserStore
	config config.Auth

	dummyOnce sync.Once
	dummyHash []byte
}

// NewService creates a new authentication service.
func NewService(users UserStore, cfg config.Auth) *Service {
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = bcrypt.DefaultCost
	}
	if cfg.MinPasswordLength == 0 {
		cfg.MinPasswordLength = DefaultMinPasswordLength
	}
	return &Service{users: users, config: cfg}
}

// Register validates the input and creates a user with a hashed password.
func (s *Service) Register(ctx context.Context, username, email, password string) (*entities.User, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)

	if err := s.validateRegistration(username, email, password); err != nil {
		return nil, err
	}

	exists, err := s.users.EmailExists(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}
	if exists {
		return nil, database.ErrDuplicateEmail
	}

	passwordHash, err := HashPassword(password, s.config.MinPasswordLength, s.config.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &entities.User{
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

func (s *Service) validateRegistration(username, email, password string) error {
	switch {
	case username == "":
		return database.NewValidationError("username", "is required")
	case utf8.RuneCountInString(username) > maxUsernameLength:
		return database.NewValidationError("username", fmt.Sprintf("must be at most %d characters", maxUsernameLength))
	case email == "":
		return database.NewValidationError("email", "is required")
	case len(email) > maxEmailLength || !emailPattern.MatchString(email):
		return database.NewValidationError("email", "is not a valid address")
	}

	switch err := checkPasswordLength(password, s.config.MinPasswordLength); {
	case errors.Is(err, ErrPasswordTooShort):
		return database.NewValidationError("password", fmt.Sprintf("must be at least %d characters", s.config.MinPasswordLength))
	case errors.Is(err, ErrPasswordTooLong):
		return database.NewValidationError("password", "must be at most 72 bytes")
	}
	return nil
}

// Authenticate returns the user owning email when password matches.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*entities.User, error) {
	email = strings.TrimSpace(email)

	user, err := s.users.GetUserByEmail(ctx, email)
	if errors.Is(err, database.ErrNotFound) {
		// Same bcrypt work as a real comparison.
		_ = bcrypt.CompareHashAndPassword(s.dummy(), []byte(password))
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if err := CheckPassword(password, user.PasswordHash); err != nil {
		if errors.Is(err, ErrInvalidPassword) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	return user, nil
}

func (s *Service) dummy() []byte {
	s.dummyOnce.Do(func() {
		hash, err := bcrypt.GenerateFromPassword([]byte("not-a-real-password"), s.config.BcryptCost)
		if err != nil {
			hash = []byte("$2a$10$invalidinvalidinvalidinvalidinvalidinvalidinvalidinva")
		}
		s.dummyHash = hash
	})
	return s.dummyHash
}

// GetUserByID resolves a session identity to its user.
func (s *Service) GetUserByID(ctx context.Context, id uint) (*entities.User, error) {
	return s.users.GetUserByID(ctx, id)
}
