package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Mile24/social-media-backend/internal/domain"
	"github.com/Mile24/social-media-backend/internal/repository"
)

// Both guarded like-toggle updates can miss when a concurrent toggle flips
// membership between them; a bounded retry resolves the interleaving.
const maxToggleAttempts = 3

type PostRepository struct {
	coll *mongo.Collection
}

func NewPostRepository(db *mongo.Database) repository.PostRepository {
	return &PostRepository{coll: db.Collection("posts")}
}

func (r *PostRepository) Init(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "createdAt", Value: -1}},
	})
	if err != nil {
		return fmt.Errorf("create posts index: %w", err)
	}
	return nil
}

func (r *PostRepository) Create(ctx context.Context, post *domain.Post) error {
	if post.ID.IsZero() {
		post.ID = primitive.NewObjectID()
	}
	if post.CreatedAt.IsZero() {
		post.CreatedAt = time.Now().UTC()
	}
	if post.Likes == nil {
		post.Likes = []primitive.ObjectID{}
	}
	if post.Comments == nil {
		post.Comments = []domain.Comment{}
	}

	if _, err := r.coll.InsertOne(ctx, post); err != nil {
		return fmt.Errorf("insert post: %w", err)
	}
	return nil
}

func (r *PostRepository) Get(ctx context.Context, id primitive.ObjectID) (*domain.Post, error) {
	var post domain.Post
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&post); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrPostNotFound
		}
		return nil, fmt.Errorf("find post: %w", err)
	}
	return &post, nil
}

func (r *PostRepository) List(ctx context.Context) ([]domain.Post, error) {
	cursor, err := r.coll.Find(ctx, bson.M{},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	defer cursor.Close(ctx)

	var posts []domain.Post
	if err := cursor.All(ctx, &posts); err != nil {
		return nil, fmt.Errorf("decode posts: %w", err)
	}
	return posts, nil
}

// ToggleLike flips membership with two mutually exclusive conditional
// updates. Each one mutates the likes set and likeCount in the same
// document operation, so the count can never drift from the set and the
// count can never go negative (the decrement only fires when membership
// is present in the filter).
func (r *PostRepository) ToggleLike(ctx context.Context, id, userID primitive.ObjectID) (*domain.Post, error) {
	after := options.FindOneAndUpdate().SetReturnDocument(options.After)

	for attempt := 0; attempt < maxToggleAttempts; attempt++ {
		// Like: only when the user is not yet in the set.
		var post domain.Post
		err := r.coll.FindOneAndUpdate(ctx,
			bson.M{"_id": id, "likes": bson.M{"$ne": userID}},
			bson.M{
				"$addToSet": bson.M{"likes": userID},
				"$inc":      bson.M{"likeCount": 1},
			},
			after,
		).Decode(&post)
		if err == nil {
			return &post, nil
		}
		if !errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("like post: %w", err)
		}

		// Unlike: only when the user is currently in the set.
		err = r.coll.FindOneAndUpdate(ctx,
			bson.M{"_id": id, "likes": userID},
			bson.M{
				"$pull": bson.M{"likes": userID},
				"$inc":  bson.M{"likeCount": -1},
			},
			after,
		).Decode(&post)
		if err == nil {
			return &post, nil
		}
		if !errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("unlike post: %w", err)
		}

		// Neither guard matched: the post is gone, or a concurrent toggle
		// flipped membership between the two updates.
		if _, err := r.Get(ctx, id); err != nil {
			return nil, err
		}
	}

	return nil, fmt.Errorf("toggle like on post %s: retries exhausted", id.Hex())
}

func (r *PostRepository) AppendComment(ctx context.Context, id primitive.ObjectID, comment domain.Comment) (*domain.Post, error) {
	var post domain.Post
	err := r.coll.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$push": bson.M{"comments": comment}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&post)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrPostNotFound
		}
		return nil, fmt.Errorf("append comment: %w", err)
	}
	return &post, nil
}

func (r *PostRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete post: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrPostNotFound
	}
	return nil
}

var _ repository.PostRepository = (*PostRepository)(nil)
