package auth

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/barsea/schedpoint/internal/models"
	"github.com/barsea/schedpoint/internal/storage"
)

const (
	MinPasswordLength = 6
	MaxPasswordLength = 128

	// bcrypt only reads the first 72 bytes of a password.
	bcryptMaxBytes = 72
)

var ErrInvalidCredentials = errors.New("invalid email or password")

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+$`)

// ValidationErrors lists every problem found with a signup, in field order.
type ValidationErrors []string

func (v ValidationErrors) Error() string {
	return v.Sentence()
}

// Sentence joins the messages the way a person would: "a", "a and b", "a, b, and c".
func (v ValidationErrors) Sentence() string {
	switch len(v) {
	case 0:
		return ""
	case 1:
		return v[0]
	case 2:
		return v[0] + " and " + v[1]
	}
	return strings.Join(v[:len(v)-1], ", ") + ", and " + v[len(v)-1]
}

// UserStorage defines the interface for user persistence operations.
// This allows the authenticator to be independent of the storage implementation.
type UserStorage interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
}

var _ Authenticator = (*PasswordAuthenticator)(nil)

// PasswordAuthenticator implements password-based authentication using bcrypt.
type PasswordAuthenticator struct {
	storage UserStorage
	cost    int
}

// Option configures a PasswordAuthenticator.
type Option func(*PasswordAuthenticator)

// WithBcryptCost overrides bcrypt.DefaultCost.
func WithBcryptCost(cost int) Option {
	return func(a *PasswordAuthenticator) {
		a.cost = cost
	}
}

// NewPasswordAuthenticator creates a new password-based authenticator.
func NewPasswordAuthenticator(storage UserStorage, opts ...Option) *PasswordAuthenticator {
	a := &PasswordAuthenticator{
		storage: storage,
		cost:    bcrypt.DefaultCost,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// NormalizeEmail trims and lower-cases an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// NewJTI returns a fresh revocation marker.
func NewJTI() string {
	return uuid.NewString()
}

// ValidateCredential checks the password length rules.
func (a *PasswordAuthenticator) ValidateCredential(credential string) ValidationErrors {
	var errs ValidationErrors
	n := utf8.RuneCountInString(credential)
	switch {
	case n == 0:
		errs = append(errs, "Password can't be blank")
	case n < MinPasswordLength:
		errs = append(errs, fmt.Sprintf("Password is too short (minimum is %d characters)", MinPasswordLength))
	case n > MaxPasswordLength:
		errs = append(errs, fmt.Sprintf("Password is too long (maximum is %d characters)", MaxPasswordLength))
	}
	return errs
}

// Register creates a new user account with a hashed password and a fresh jti.
func (a *PasswordAuthenticator) Register(ctx context.Context, name, email, credential string) (*models.User, error) {
	name = strings.TrimSpace(name)
	email = NormalizeEmail(email)

	var errs ValidationErrors
	if name == "" {
		errs = append(errs, "Name can't be blank")
	}

	switch {
	case email == "":
		errs = append(errs, "Email can't be blank")
	case !emailPattern.MatchString(email):
		errs = append(errs, "Email is invalid")
	default:
		_, err := a.storage.GetUserByEmail(ctx, email)
		switch {
		case err == nil:
			errs = append(errs, "Email has already been taken")
		case !errors.Is(err, storage.ErrNotFound):
			return nil, fmt.Errorf("failed to check email: %w", err)
		}
	}

	errs = append(errs, a.ValidateCredential(credential)...)
	if len(errs) > 0 {
		return nil, errs
	}

	hashedPassword, err := bcrypt.GenerateFromPassword(truncate(credential), a.cost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Name:         name,
		Email:        email,
		PasswordHash: string(hashedPassword),
		JTI:          NewJTI(),
	}

	if err := a.storage.CreateUser(ctx, user); err != nil {
		if errors.Is(err, storage.ErrEmailTaken) {
			return nil, ValidationErrors{"Email has already been taken"}
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return user, nil
}

// Authenticate verifies the email and password, returning the user if valid.
func (a *PasswordAuthenticator) Authenticate(ctx context.Context, email, credential string) (*models.User, error) {
	user, err := a.storage.GetUserByEmail(ctx, NormalizeEmail(email))
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), truncate(credential)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return user, nil
}

func truncate(credential string) []byte {
	b := []byte(credential)
	if len(b) > bcryptMaxBytes {
		b = b[:bcryptMaxBytes]
	}
	return b
}
