package models

import "time"

// Reaction polarities. A like and an unlike are rows in the same table so
// a user can hold at most one of them per target.
const (
	ReactionLike   = 1
	ReactionUnlike = -1
)

// Reaction model - tracks individual like/unlike reactions on posts and comments.
// Exactly one of PostID/CommentID is non-zero. Exclusivity per (user, target)
// is enforced by the toggle logic, which looks up the existing row before
// deciding to delete, switch, or insert.
type Reaction struct {
	ID        int       `gorm:"primaryKey" json:"id"`
	UserID    int       `json:"user_id"`
	PostID    int       `json:"post_id"`    // non-zero for post reactions
	CommentID int       `json:"comment_id"` // non-zero for comment reactions
	Polarity  int       `json:"polarity"`
	CreatedAt time.Time `json:"created_at"`
}
