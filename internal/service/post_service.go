package service

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/Mile24/social-media-backend/internal/domain"
	"github.com/Mile24/social-media-backend/internal/repository"
	"github.com/Mile24/social-media-backend/internal/storage"
)

// MediaUpload carries an uploaded binary into post creation. The content
// type has already been vetted at the boundary; the service only stores it.
type MediaUpload struct {
	Filename    string
	ContentType string
	Body        io.Reader
}

// CreatePostInput is the full input of post creation. At most one of
// Upload and ImageURL is honored; Upload wins when both are present.
type CreatePostInput struct {
	UserID   string
	Caption  string
	ImageURL string
	Upload   *MediaUpload
}

// PostService coordinates post level operations backed by repositories.
type PostService interface {
	CreatePost(ctx context.Context, in CreatePostInput) (*domain.Post, error)
	ListPosts(ctx context.Context) ([]domain.Post, error)
	ToggleLike(ctx context.Context, postID, userID string) (*domain.Post, error)
	AddComment(ctx context.Context, postID, userID, text string) (*domain.Post, error)
	DeletePost(ctx context.Context, postID string) error
}

type postService struct {
	posts  repository.PostRepository
	users  repository.UserRepository
	media  storage.MediaStore
	logger logrus.FieldLogger
}

func NewPostService(posts repository.PostRepository, users repository.UserRepository, media storage.MediaStore, logger logrus.FieldLogger) PostService {
	return &postService{
		posts:  posts,
		users:  users,
		media:  media,
		logger: logger,
	}
}

func (s *postService) CreatePost(ctx context.Context, in CreatePostInput) (*domain.Post, error) {
	if in.UserID == "" {
		return nil, domain.NewValidationError("user id is required")
	}
	if in.Caption == "" {
		return nil, domain.NewValidationError("caption is required")
	}

	authorID, err := primitive.ObjectIDFromHex(in.UserID)
	if err != nil {
		return nil, domain.NewValidationError("invalid user id")
	}

	// The media write happens before the post is committed so the document
	// never references bytes that were not durably stored. A crash between
	// the two leaves an orphaned file, not a dangling reference.
	image := in.ImageURL
	if in.Upload != nil {
		ref, err := s.media.Save(ctx, uploadName(in.Upload.Filename), in.Upload.ContentType, in.Upload.Body)
		if err != nil {
			return nil, fmt.Errorf("store media: %w", err)
		}
		image = ref
	}

	post := &domain.Post{
		UserID:    authorID,
		Caption:   in.Caption,
		Image:     image,
		Likes:     []primitive.ObjectID{},
		LikeCount: 0,
		Comments:  []domain.Comment{},
	}

	if err := s.posts.Create(ctx, post); err != nil {
		if in.Upload != nil && image != "" {
			if rmErr := s.media.Remove(ctx, image); rmErr != nil {
				s.logger.WithError(rmErr).WithField("image", image).Warn("cleanup media after failed create")
			}
		}
		return nil, err
	}
	return post, nil
}

func (s *postService) ListPosts(ctx context.Context) ([]domain.Post, error) {
	posts, err := s.posts.List(ctx)
	if err != nil {
		return nil, err
	}

	ids := make([]primitive.ObjectID, 0, len(posts))
	seen := make(map[primitive.ObjectID]struct{}, len(posts))
	for i := range posts {
		if _, ok := seen[posts[i].UserID]; ok {
			continue
		}
		seen[posts[i].UserID] = struct{}{}
		ids = append(ids, posts[i].UserID)
	}

	authors, err := s.users.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	for i := range posts {
		if author, ok := authors[posts[i].UserID]; ok {
			profile := author.Profile()
			posts[i].Author = &profile
		}
	}
	return posts, nil
}

func (s *postService) ToggleLike(ctx context.Context, postID, userID string) (*domain.Post, error) {
	id, err := primitive.ObjectIDFromHex(postID)
	if err != nil {
		return nil, domain.ErrPostNotFound
	}
	if userID == "" {
		return nil, domain.NewValidationError("user id is required")
	}
	uid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, domain.NewValidationError("invalid user id")
	}

	return s.posts.ToggleLike(ctx, id, uid)
}

func (s *postService) AddComment(ctx context.Context, postID, userID, text string) (*domain.Post, error) {
	id, err := primitive.ObjectIDFromHex(postID)
	if err != nil {
		return nil, domain.ErrPostNotFound
	}
	if userID == "" {
		return nil, domain.NewValidationError("user id is required")
	}
	if text == "" {
		return nil, domain.NewValidationError("text is required")
	}
	uid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, domain.NewValidationError("invalid user id")
	}

	comment := domain.Comment{
		UserID:    uid,
		Text:      text,
		CreatedAt: time.Now().UTC(),
	}
	return s.posts.AppendComment(ctx, id, comment)
}

func (s *postService) DeletePost(ctx context.Context, postID string) error {
	id, err := primitive.ObjectIDFromHex(postID)
	if err != nil {
		return domain.ErrPostNotFound
	}

	post, err := s.posts.Get(ctx, id)
	if err != nil {
		return err
	}

	if err := s.posts.Delete(ctx, id); err != nil {
		return err
	}

	// Best-effort media cleanup; the post is already gone, so a failure
	// here only leaves an orphaned file.
	if post.Image != "" {
		if err := s.media.Remove(ctx, post.Image); err != nil {
			s.logger.WithError(err).WithFields(logrus.Fields{
				"post_id": postID,
				"image":   post.Image,
			}).Warn("remove post media")
		}
	}
	return nil
}

// uploadName derives a collision-resistant stored name: millisecond prefix
// plus the original base name, with a generated name when none was sent.
func uploadName(original string) string {
	base := filepath.Base(original)
	if base == "" || base == "." || base == "/" {
		base = uuid.NewString()
	}
	return fmt.Sprintf("%d-%s", time.Now().UnixMilli(), base)
}
