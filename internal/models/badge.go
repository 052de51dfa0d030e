package models

// Badge is a named, colored topical tag attachable to posts. Badges are
// admin-managed; the API only reads them.
type Badge struct {
	ID    int    `gorm:"primaryKey" json:"id"`
	Name  string `gorm:"unique;not null" json:"name"`
	Color string `json:"color"`
}

// PostBadge associates a post with a badge, many-to-many, capped at three
// badges per post at composition time.
type PostBadge struct {
	ID      int `gorm:"primaryKey" json:"id"`
	PostID  int `json:"post_id"`
	BadgeID int `json:"badge_id"`
}
