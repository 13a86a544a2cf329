package service

import (
	"context"
	"io"
	"sort"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/Mile24/social-media-backend/internal/domain"
)

// fakePostRepo is an in-memory PostRepository with the same atomicity
// semantics as the mongodb implementation: toggle and append mutate the
// document under one lock, so set and count always move together.
type fakePostRepo struct {
	mu        sync.Mutex
	posts     map[primitive.ObjectID]*domain.Post
	createErr error
}

func newFakePostRepo() *fakePostRepo {
	return &fakePostRepo{posts: make(map[primitive.ObjectID]*domain.Post)}
}

func (r *fakePostRepo) Init(ctx context.Context) error { return nil }

func (r *fakePostRepo) Create(ctx context.Context, post *domain.Post) error {
	if r.createErr != nil {
		return r.createErr
	}

	r.mu.Lock()
	defer r.mu.Unlock()

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

	stored := clonePost(post)
	r.posts[post.ID] = &stored
	return nil
}

func (r *fakePostRepo) Get(ctx context.Context, id primitive.ObjectID) (*domain.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	post, ok := r.posts[id]
	if !ok {
		return nil, domain.ErrPostNotFound
	}
	out := clonePost(post)
	return &out, nil
}

func (r *fakePostRepo) List(ctx context.Context) ([]domain.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]domain.Post, 0, len(r.posts))
	for _, post := range r.posts {
		out = append(out, clonePost(post))
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (r *fakePostRepo) ToggleLike(ctx context.Context, id, userID primitive.ObjectID) (*domain.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	post, ok := r.posts[id]
	if !ok {
		return nil, domain.ErrPostNotFound
	}

	if post.LikedBy(userID) {
		likes := post.Likes[:0]
		for _, uid := range post.Likes {
			if uid != userID {
				likes = append(likes, uid)
			}
		}
		post.Likes = likes
		if post.LikeCount > 0 {
			post.LikeCount--
		}
	} else {
		post.Likes = append(post.Likes, userID)
		post.LikeCount++
	}

	out := clonePost(post)
	return &out, nil
}

func (r *fakePostRepo) AppendComment(ctx context.Context, id primitive.ObjectID, comment domain.Comment) (*domain.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	post, ok := r.posts[id]
	if !ok {
		return nil, domain.ErrPostNotFound
	}
	post.Comments = append(post.Comments, comment)

	out := clonePost(post)
	return &out, nil
}

func (r *fakePostRepo) Delete(ctx context.Context, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.posts[id]; !ok {
		return domain.ErrPostNotFound
	}
	delete(r.posts, id)
	return nil
}

func clonePost(post *domain.Post) domain.Post {
	out := *post
	out.Likes = append([]primitive.ObjectID{}, post.Likes...)
	out.Comments = append([]domain.Comment{}, post.Comments...)
	return out
}

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[primitive.ObjectID]*domain.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[primitive.ObjectID]*domain.User)}
}

func (r *fakeUserRepo) Init(ctx context.Context) error { return nil }

func (r *fakeUserRepo) Create(ctx context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.users {
		if existing.Email == user.Email {
			return domain.ErrEmailTaken
		}
	}
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}

	stored := *user
	r.users[user.ID] = &stored
	return nil
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	out := *user
	return &out, nil
}

func (r *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, user := range r.users {
		if user.Email == email {
			out := *user
			return &out, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *fakeUserRepo) GetByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make(map[primitive.ObjectID]domain.User, len(ids))
	for _, id := range ids {
		if user, ok := r.users[id]; ok {
			out[id] = *user
		}
	}
	return out, nil
}

func (r *fakeUserRepo) SetResetToken(ctx context.Context, id primitive.ObjectID, token string, expiry time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	user.ResetToken = token
	user.ResetTokenExpiry = &expiry
	return nil
}

func (r *fakeUserRepo) ConsumeResetToken(ctx context.Context, token string, passwordHash string, now time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, user := range r.users {
		if user.ResetToken != token || user.ResetToken == "" {
			continue
		}
		if user.ResetTokenExpiry == nil || !user.ResetTokenExpiry.After(now) {
			continue
		}
		user.Password = passwordHash
		user.ResetToken = ""
		user.ResetTokenExpiry = nil
		return nil
	}
	return domain.ErrInvalidResetToken
}

type fakeMediaStore struct {
	mu      sync.Mutex
	saved   map[string]string
	removed []string
	saveErr error
}

func newFakeMediaStore() *fakeMediaStore {
	return &fakeMediaStore{saved: make(map[string]string)}
}

func (s *fakeMediaStore) Save(ctx context.Context, name, contentType string, r io.Reader) (string, error) {
	if s.saveErr != nil {
		return "", s.saveErr
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	ref := "/uploads/" + name
	s.saved[ref] = string(data)
	return ref, nil
}

func (s *fakeMediaStore) Remove(ctx context.Context, ref string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.saved, ref)
	s.removed = append(s.removed, ref)
	return nil
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []sentMail
	err  error
}

type sentMail struct {
	to   string
	link string
}

func (m *fakeMailer) SendPasswordReset(to, resetLink string) error {
	if m.err != nil {
		return m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, sentMail{to: to, link: resetLink})
	return nil
}
