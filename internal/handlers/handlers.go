package handlers

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/infohero-app/backend/internal/feed"
	"github.com/infohero-app/backend/internal/moderation"
	"github.com/infohero-app/backend/internal/ranking"
)

// Handler combines all handler types
type Handler struct {
	Auth    *AuthHandler
	Post    *PostHandler
	Comment *CommentHandler
	User    *UserHandler
	Badge   *BadgeHandler
	Ranking *RankingHandler
}

// NewHandler creates a unified handler with all sub-handlers
func NewHandler(db *gorm.DB, feedSvc *feed.Service, mod *moderation.Client, rank *ranking.Service, jwtSecret string) *Handler {
	return &Handler{
		Auth:    NewAuthHandler(db, jwtSecret),
		Post:    NewPostHandler(db, feedSvc, mod),
		Comment: NewCommentHandler(db, feedSvc),
		User:    NewUserHandler(db, feedSvc),
		Badge:   NewBadgeHandler(db),
		Ranking: NewRankingHandler(rank),
	}
}

func extractUserID(c *gin.Context) (int, bool) {
	raw, exists := c.Get("user_id")
	if !exists {
		return 0, false
	}
	switch v := raw.(type) {
	case int:
		return v, true
	case uint:
		return int(v), true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}
