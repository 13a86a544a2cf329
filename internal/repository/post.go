package repository

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/Mile24/social-media-backend/internal/domain"
)

// PostRepository exposes persistence operations for Post documents.
//
// ToggleLike and AppendComment are single atomic document updates: the
// likes set and the like count always change in the same storage operation,
// so concurrent callers can never observe or produce a half-applied state.
type PostRepository interface {
	Init(ctx context.Context) error
	Create(ctx context.Context, post *domain.Post) error
	Get(ctx context.Context, id primitive.ObjectID) (*domain.Post, error)
	// List returns all posts ordered by creation time descending.
	List(ctx context.Context) ([]domain.Post, error)
	// ToggleLike flips userID's membership in the post's likes set and
	// adjusts likeCount in the same operation, returning the updated post.
	ToggleLike(ctx context.Context, id, userID primitive.ObjectID) (*domain.Post, error)
	// AppendComment pushes a comment onto the post's comment sequence,
	// preserving arrival order, and returns the updated post.
	AppendComment(ctx context.Context, id primitive.ObjectID, comment domain.Comment) (*domain.Post, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
}
