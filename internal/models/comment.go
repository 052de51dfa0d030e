package models

import "time"

type Comment struct {
	ID        int       `gorm:"primaryKey" json:"id"`
	Content   string    `gorm:"not null" json:"content"`
	AuthorID  int       `json:"author_id"`
	Author    User      `gorm:"foreignKey:AuthorID" json:"author"`
	PostID    int       `json:"post_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type CreateCommentRequest struct {
	Content string `json:"content" binding:"required"`
}
