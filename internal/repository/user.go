package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/Mile24/social-media-backend/internal/domain"
)

// UserRepository defines persistence operations for User documents.
type UserRepository interface {
	Init(ctx context.Context) error
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	// GetByIDs fetches the given users in one round trip; missing ids are
	// simply absent from the result.
	GetByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]domain.User, error)
	// SetResetToken stores a pending reset token and its expiry on the user.
	SetResetToken(ctx context.Context, id primitive.ObjectID, token string, expiry time.Time) error
	// ConsumeResetToken sets the new password hash and clears the reset
	// token in one conditional update, succeeding only while the token is
	// present and unexpired. This makes the token single-use.
	ConsumeResetToken(ctx context.Context, token string, passwordHash string, now time.Time) error
}
