package models

import "time"

type Post struct {
	ID       int      `gorm:"primaryKey" json:"id"`
	Title    string   `gorm:"not null" json:"title"`
	Content  string   `gorm:"not null" json:"content"`
	ImageURL *string  `json:"image_url"`
	Source   *string  `json:"source"`
	Hashtags []string `gorm:"serializer:json" json:"hashtags"`

	// FakeDetection is set once by the moderation gate at creation and
	// never re-evaluated afterwards.
	FakeDetection bool `gorm:"not null;default:false" json:"fake_detection"`

	AuthorID  int       `json:"author_id"`
	Author    User      `gorm:"foreignKey:AuthorID" json:"author"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type CreatePostRequest struct {
	Title    string `json:"title" binding:"required,max=50"`
	Content  string `json:"content" binding:"required"`
	ImageURL string `json:"image_url"`
	Source   string `json:"source"`
	Hashtags string `json:"hashtags"` // comma-separated
	BadgeIDs []int  `json:"badge_ids" binding:"required,min=1,max=3"`
}
