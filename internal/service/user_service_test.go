package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/Mile24/social-media-backend/internal/domain"
)

func newTestUserService(users *fakeUserRepo, mail *fakeMailer) UserService {
	logger := logrus.New()
	logger.SetOutput(testWriter{})
	return NewUserService(users, mail, UserServiceConfig{
		JWTSecret:     "test-secret",
		TokenTTL:      time.Hour,
		ResetTokenTTL: time.Hour,
		ResetBaseURL:  "http://localhost:3000/reset-password",
	}, logger)
}

func TestRegister(t *testing.T) {
	tests := []struct {
		name    string
		in      RegisterInput
		wantErr string
	}{
		{
			name: "success",
			in:   RegisterInput{Name: "Alice", Email: "alice@example.com", Password: "hunter2hunter2"},
		},
		{
			name:    "missing name",
			in:      RegisterInput{Email: "alice@example.com", Password: "hunter2hunter2"},
			wantErr: "name is required",
		},
		{
			name:    "missing email",
			in:      RegisterInput{Name: "Alice", Password: "hunter2hunter2"},
			wantErr: "email is required",
		},
		{
			name:    "short password",
			in:      RegisterInput{Name: "Alice", Email: "alice@example.com", Password: "short"},
			wantErr: "at least 8 characters",
		},
		{
			name:    "bad visibility",
			in:      RegisterInput{Name: "Alice", Email: "alice@example.com", Password: "hunter2hunter2", Visibility: "friends"},
			wantErr: "visibility",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newFakeUserRepo()
			svc := newTestUserService(repo, &fakeMailer{})

			user, token, err := svc.Register(context.Background(), tt.in)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.True(t, domain.IsValidation(err))
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}

			require.NoError(t, err)
			assert.False(t, user.ID.IsZero())
			assert.Equal(t, domain.VisibilityPublic, user.Visibility)
			// The returned user never carries the hash; the stored one holds
			// only a hash, never the cleartext.
			assert.Empty(t, user.Password)
			stored, err := repo.GetByID(context.Background(), user.ID)
			require.NoError(t, err)
			assert.NotEqual(t, tt.in.Password, stored.Password)
			assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.Password), []byte(tt.in.Password)))

			claims := parseToken(t, token)
			assert.Equal(t, user.ID.Hex(), claims["sub"])
		})
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc := newTestUserService(newFakeUserRepo(), &fakeMailer{})

	in := RegisterInput{Name: "Alice", Email: "alice@example.com", Password: "hunter2hunter2"}
	_, _, err := svc.Register(context.Background(), in)
	require.NoError(t, err)

	in.Name = "Other Alice"
	_, _, err = svc.Register(context.Background(), in)
	assert.ErrorIs(t, err, domain.ErrEmailTaken)
}

func TestLogin(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestUserService(repo, &fakeMailer{})

	_, _, err := svc.Register(context.Background(), RegisterInput{
		Name: "Alice", Email: "alice@example.com", Password: "hunter2hunter2",
	})
	require.NoError(t, err)

	t.Run("success", func(t *testing.T) {
		user, token, err := svc.Login(context.Background(), "Alice@Example.com", "hunter2hunter2")
		require.NoError(t, err)
		assert.Equal(t, "alice@example.com", user.Email)
		assert.Empty(t, user.Password)
		assert.NotEmpty(t, token)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, _, err := svc.Login(context.Background(), "alice@example.com", "wrong-password")
		assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
	})

	t.Run("unknown email has the same error", func(t *testing.T) {
		_, _, err := svc.Login(context.Background(), "bob@example.com", "hunter2hunter2")
		assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
	})
}

func TestForgotPassword(t *testing.T) {
	repo := newFakeUserRepo()
	mail := &fakeMailer{}
	svc := newTestUserService(repo, mail)

	registered, _, err := svc.Register(context.Background(), RegisterInput{
		Name: "Alice", Email: "alice@example.com", Password: "hunter2hunter2",
	})
	require.NoError(t, err)

	require.NoError(t, svc.ForgotPassword(context.Background(), "alice@example.com"))

	stored, err := repo.GetByID(context.Background(), registered.ID)
	require.NoError(t, err)
	assert.Len(t, stored.ResetToken, resetTokenBytes*2) // hex encoded
	require.NotNil(t, stored.ResetTokenExpiry)
	assert.True(t, stored.ResetTokenExpiry.After(time.Now()))

	require.Len(t, mail.sent, 1)
	assert.Equal(t, "alice@example.com", mail.sent[0].to)
	assert.Equal(t, "http://localhost:3000/reset-password/"+stored.ResetToken, mail.sent[0].link)
}

func TestForgotPasswordUnknownEmail(t *testing.T) {
	svc := newTestUserService(newFakeUserRepo(), &fakeMailer{})

	err := svc.ForgotPassword(context.Background(), "ghost@example.com")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestResetPassword(t *testing.T) {
	repo := newFakeUserRepo()
	mail := &fakeMailer{}
	svc := newTestUserService(repo, mail)

	registered, _, err := svc.Register(context.Background(), RegisterInput{
		Name: "Alice", Email: "alice@example.com", Password: "old-password",
	})
	require.NoError(t, err)
	require.NoError(t, svc.ForgotPassword(context.Background(), "alice@example.com"))

	stored, err := repo.GetByID(context.Background(), registered.ID)
	require.NoError(t, err)
	token := stored.ResetToken

	require.NoError(t, svc.ResetPassword(context.Background(), token, "new-password"))

	// Password changed, token consumed, both in the same update.
	stored, err = repo.GetByID(context.Background(), registered.ID)
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.Password), []byte("new-password")))
	assert.Empty(t, stored.ResetToken)
	assert.Nil(t, stored.ResetTokenExpiry)

	// Single-use: the same token cannot authorize a second change.
	err = svc.ResetPassword(context.Background(), token, "another-password")
	assert.ErrorIs(t, err, domain.ErrInvalidResetToken)

	_, _, err = svc.Login(context.Background(), "alice@example.com", "new-password")
	assert.NoError(t, err)
}

func TestResetPasswordExpiredToken(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestUserService(repo, &fakeMailer{})

	registered, _, err := svc.Register(context.Background(), RegisterInput{
		Name: "Alice", Email: "alice@example.com", Password: "old-password",
	})
	require.NoError(t, err)

	expired := time.Now().UTC().Add(-time.Minute)
	require.NoError(t, repo.SetResetToken(context.Background(), registered.ID, "stale-token", expired))

	err = svc.ResetPassword(context.Background(), "stale-token", "new-password")
	assert.ErrorIs(t, err, domain.ErrInvalidResetToken)

	// Old password still works.
	_, _, err = svc.Login(context.Background(), "alice@example.com", "old-password")
	assert.NoError(t, err)
}

func TestResetPasswordValidation(t *testing.T) {
	svc := newTestUserService(newFakeUserRepo(), &fakeMailer{})

	assert.ErrorIs(t, svc.ResetPassword(context.Background(), "", "new-password"), domain.ErrInvalidResetToken)
	assert.True(t, domain.IsValidation(svc.ResetPassword(context.Background(), "some-token", "")))
	assert.True(t, domain.IsValidation(svc.ResetPassword(context.Background(), "some-token", "short")))
}

func parseToken(t *testing.T, tokenStr string) jwt.MapClaims {
	t.Helper()

	token, err := jwt.Parse(tokenStr, func(token *jwt.Token) (interface{}, error) {
		return []byte("test-secret"), nil
	})
	require.NoError(t, err)
	require.True(t, token.Valid)

	claims, ok := token.Claims.(jwt.MapClaims)
	require.True(t, ok)
	return claims
}

func TestGetByID(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestUserService(repo, &fakeMailer{})

	registered, _, err := svc.Register(context.Background(), RegisterInput{
		Name: "Alice", Email: "alice@example.com", Password: "hunter2hunter2",
	})
	require.NoError(t, err)

	user, err := svc.GetByID(context.Background(), registered.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, "Alice", user.Name)
	assert.Empty(t, user.Password)

	_, err = svc.GetByID(context.Background(), strings.Repeat("f", 24))
	assert.ErrorIs(t, err, domain.ErrUserNotFound)

	_, err = svc.GetByID(context.Background(), "garbage")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}
