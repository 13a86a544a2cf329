package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"

	"github.com/Mile24/social-media-backend/internal/domain"
	"github.com/Mile24/social-media-backend/internal/mailer"
	"github.com/Mile24/social-media-backend/internal/repository"
)

const resetTokenBytes = 32

// RegisterInput is the full input of account registration.
type RegisterInput struct {
	Name           string
	Email          string
	Password       string
	ProfilePicture string
	Visibility     string
}

// UserService describes account lifecycle operations.
type UserService interface {
	Register(ctx context.Context, in RegisterInput) (*domain.User, string, error)
	Login(ctx context.Context, email, password string) (*domain.User, string, error)
	GetByID(ctx context.Context, id string) (*domain.User, error)
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, newPassword string) error
}

// UserServiceConfig carries the knobs Register/ForgotPassword need beyond
// their repositories.
type UserServiceConfig struct {
	JWTSecret     string
	TokenTTL      time.Duration
	ResetTokenTTL time.Duration
	ResetBaseURL  string
}

type userService struct {
	users  repository.UserRepository
	mail   mailer.Sender
	cfg    UserServiceConfig
	logger logrus.FieldLogger
}

func NewUserService(users repository.UserRepository, mail mailer.Sender, cfg UserServiceConfig, logger logrus.FieldLogger) UserService {
	return &userService{
		users:  users,
		mail:   mail,
		cfg:    cfg,
		logger: logger,
	}
}

func (s *userService) Register(ctx context.Context, in RegisterInput) (*domain.User, string, error) {
	name := strings.TrimSpace(in.Name)
	email := strings.ToLower(strings.TrimSpace(in.Email))
	password := in.Password

	if name == "" {
		return nil, "", domain.NewValidationError("name is required")
	}
	if email == "" {
		return nil, "", domain.NewValidationError("email is required")
	}
	if password == "" {
		return nil, "", domain.NewValidationError("password is required")
	}
	if len(password) < 8 {
		return nil, "", domain.NewValidationError("password must be at least 8 characters")
	}

	visibility := domain.Visibility(in.Visibility)
	if visibility == "" {
		visibility = domain.VisibilityPublic
	}
	if visibility != domain.VisibilityPublic && visibility != domain.VisibilityPrivate {
		return nil, "", domain.NewValidationError("visibility must be public or private")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", fmt.Errorf("hash password: %w", err)
	}

	user := &domain.User{
		Name:           name,
		Email:          email,
		Password:       string(hash),
		ProfilePicture: in.ProfilePicture,
		Visibility:     visibility,
		CreatedAt:      time.Now().UTC(),
	}

	if err := s.users.Create(ctx, user); err != nil {
		return nil, "", err
	}

	token, err := s.mintToken(user.ID)
	if err != nil {
		return nil, "", err
	}
	return sanitizeUser(user), token, nil
}

func (s *userService) Login(ctx context.Context, email, password string) (*domain.User, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, "", domain.ErrInvalidCredentials
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		// Unknown email and wrong password are indistinguishable.
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, "", domain.ErrInvalidCredentials
		}
		return nil, "", err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, "", domain.ErrInvalidCredentials
	}

	token, err := s.mintToken(user.ID)
	if err != nil {
		return nil, "", err
	}
	return sanitizeUser(user), token, nil
}

func (s *userService) GetByID(ctx context.Context, id string) (*domain.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrUserNotFound
	}
	user, err := s.users.GetByID(ctx, oid)
	if err != nil {
		return nil, err
	}
	return sanitizeUser(user), nil
}

func (s *userService) ForgotPassword(ctx context.Context, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return domain.NewValidationError("email is required")
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return err
	}

	buf := make([]byte, resetTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return fmt.Errorf("generate reset token: %w", err)
	}
	token := hex.EncodeToString(buf)
	expiry := time.Now().UTC().Add(s.cfg.ResetTokenTTL)

	if err := s.users.SetResetToken(ctx, user.ID, token, expiry); err != nil {
		return err
	}

	link := strings.TrimSuffix(s.cfg.ResetBaseURL, "/") + "/" + token
	if err := s.mail.SendPasswordReset(user.Email, link); err != nil {
		return fmt.Errorf("send reset mail: %w", err)
	}

	s.logger.WithField("user_id", user.ID.Hex()).Info("password reset mail sent")
	return nil
}

func (s *userService) ResetPassword(ctx context.Context, token, newPassword string) error {
	if token == "" {
		return domain.ErrInvalidResetToken
	}
	if newPassword == "" {
		return domain.NewValidationError("new password is required")
	}
	if len(newPassword) < 8 {
		return domain.NewValidationError("password must be at least 8 characters")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	// One conditional update: password change and token clear commit
	// together, and the token never authorizes a second change.
	return s.users.ConsumeResetToken(ctx, token, string(hash), time.Now().UTC())
}

func (s *userService) mintToken(userID primitive.ObjectID) (string, error) {
	now := time.Now().UTC()
	claims := jwt.RegisteredClaims{
		Subject:   userID.Hex(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.TokenTTL)),
		ID:        uuid.NewString(),
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return token, nil
}

func sanitizeUser(user *domain.User) *domain.User {
	if user == nil {
		return nil
	}
	return &domain.User{
		ID:             user.ID,
		Name:           user.Name,
		Email:          user.Email,
		ProfilePicture: user.ProfilePicture,
		Visibility:     user.Visibility,
		CreatedAt:      user.CreatedAt,
	}
}
