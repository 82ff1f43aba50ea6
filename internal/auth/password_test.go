package auth

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/barsea/schedpoint/internal/models"
	"github.com/barsea/schedpoint/internal/storage"
)

type memoryUsers struct {
	byEmail map[string]*models.User
	nextID  int64
	failed  error
}

func newMemoryUsers() *memoryUsers {
	return &memoryUsers{byEmail: map[string]*models.User{}}
}

func (m *memoryUsers) CreateUser(_ context.Context, user *models.User) error {
	if m.failed != nil {
		return m.failed
	}
	if _, ok := m.byEmail[user.Email]; ok {
		return storage.ErrEmailTaken
	}
	m.nextID++
	user.ID = m.nextID
	m.byEmail[user.Email] = user
	return nil
}

func (m *memoryUsers) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	if u, ok := m.byEmail[email]; ok {
		return u, nil
	}
	return nil, storage.ErrNotFound
}

func (m *memoryUsers) GetUserByID(_ context.Context, id int64) (*models.User, error) {
	for _, u := range m.byEmail {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, storage.ErrNotFound
}

func newTestAuthenticator() (*PasswordAuthenticator, *memoryUsers) {
	users := newMemoryUsers()
	return NewPasswordAuthenticator(users, WithBcryptCost(bcrypt.MinCost)), users
}

func TestRegister(t *testing.T) {
	a, users := newTestAuthenticator()
	ctx := context.Background()

	user, err := a.Register(ctx, " Hanako ", "  Hanako@Example.COM ", "secret1")
	require.NoError(t, err)

	assert.NotZero(t, user.ID)
	assert.Equal(t, "Hanako", user.Name)
	assert.Equal(t, "hanako@example.com", user.Email)
	assert.NotEqual(t, "secret1", user.PasswordHash)
	assert.Len(t, user.JTI, 36)
	assert.Same(t, user, users.byEmail["hanako@example.com"])
}

func TestRegisterValidation(t *testing.T) {
	a, _ := newTestAuthenticator()
	ctx := context.Background()
	_, err := a.Register(ctx, "Taken", "taken@example.com", "secret1")
	require.NoError(t, err)

	tests := []struct {
		name                  string
		userName, email, pass string
		want                  ValidationErrors
	}{
		{
			name: "everything blank",
			want: ValidationErrors{"Name can't be blank", "Email can't be blank", "Password can't be blank"},
		},
		{
			name:     "invalid email and short password",
			userName: "Bob", email: "bob-at-example", pass: "12345",
			want: ValidationErrors{"Email is invalid", "Password is too short (minimum is 6 characters)"},
		},
		{
			name:     "taken email regardless of case",
			userName: "Bob", email: "TAKEN@example.com", pass: "secret1",
			want: ValidationErrors{"Email has already been taken"},
		},
		{
			name:     "password too long",
			userName: "Bob", email: "bob@example.com", pass: strings.Repeat("p", 129),
			want: ValidationErrors{"Password is too long (maximum is 128 characters)"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := a.Register(ctx, tt.userName, tt.email, tt.pass)
			var verrs ValidationErrors
			require.True(t, errors.As(err, &verrs), "got %v", err)
			assert.Equal(t, tt.want, verrs)
		})
	}
}

func TestRegisterStorageFailure(t *testing.T) {
	a, users := newTestAuthenticator()
	users.failed = errors.New("disk full")

	_, err := a.Register(context.Background(), "Bob", "bob@example.com", "secret1")
	require.Error(t, err)
	var verrs ValidationErrors
	assert.False(t, errors.As(err, &verrs))
}

func TestAuthenticate(t *testing.T) {
	a, _ := newTestAuthenticator()
	ctx := context.Background()
	registered, err := a.Register(ctx, "Bob", "bob@example.com", "secret1")
	require.NoError(t, err)

	user, err := a.Authenticate(ctx, " BOB@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, registered.ID, user.ID)

	_, err = a.Authenticate(ctx, "bob@example.com", "wrong-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = a.Authenticate(ctx, "nobody@example.com", "secret1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthenticateLongPassword(t *testing.T) {
	a, _ := newTestAuthenticator()
	ctx := context.Background()
	long := strings.Repeat("長", 100)

	_, err := a.Register(ctx, "Bob", "bob@example.com", long)
	require.NoError(t, err)

	_, err = a.Authenticate(ctx, "bob@example.com", long)
	assert.NoError(t, err)
}

func TestValidationErrorsSentence(t *testing.T) {
	assert.Equal(t, "", ValidationErrors{}.Sentence())
	assert.Equal(t, "a", ValidationErrors{"a"}.Sentence())
	assert.Equal(t, "a and b", ValidationErrors{"a", "b"}.Sentence())
	assert.Equal(t, "a, b, and c", ValidationErrors{"a", "b", "c"}.Sentence())
}
