package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/infohero-app/backend/internal/ranking"
)

type RankingHandler struct {
	rank *ranking.Service
}

func NewRankingHandler(rank *ranking.Service) *RankingHandler {
	return &RankingHandler{rank: rank}
}

// TopPosts returns the top posts by net score (likes minus unlikes).
func (h *RankingHandler) TopPosts(c *gin.Context) {
	posts, err := h.rank.TopPosts(c.Request.Context(), viewerID(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch ranking"})
		return
	}
	c.JSON(http.StatusOK, posts)
}

// TopHeroes returns the top users by likes received.
func (h *RankingHandler) TopHeroes(c *gin.Context) {
	heroes, err := h.rank.TopHeroes(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch ranking"})
		return
	}
	c.JSON(http.StatusOK, heroes)
}
