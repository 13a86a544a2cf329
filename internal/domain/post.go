package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Post represents a feed entry stored in the posts collection. Likes holds
// one entry per user with no duplicates; LikeCount caches its cardinality
// and is only ever mutated in the same storage operation as Likes.
type Post struct {
	ID        primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	UserID    primitive.ObjectID   `bson:"userId" json:"userId"`
	Caption   string               `bson:"caption" json:"caption"`
	Image     string               `bson:"image,omitempty" json:"image,omitempty"`
	Likes     []primitive.ObjectID `bson:"likes" json:"likes"`
	LikeCount int                  `bson:"likeCount" json:"likeCount"`
	Comments  []Comment            `bson:"comments" json:"comments"`
	CreatedAt time.Time            `bson:"createdAt" json:"createdAt"`

	// Author is resolved at read time from UserID, never persisted.
	Author *Profile `bson:"-" json:"author,omitempty"`
}

// Comment is an embedded, append-only entry on a post. Order within
// Post.Comments is arrival order.
type Comment struct {
	UserID    primitive.ObjectID `bson:"userId" json:"userId"`
	Text      string             `bson:"text" json:"text"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
}

// LikedBy reports whether the given user is present in the likes set.
func (p *Post) LikedBy(userID primitive.ObjectID) bool {
	for _, id := range p.Likes {
		if id == userID {
			return true
		}
	}
	return false
}
