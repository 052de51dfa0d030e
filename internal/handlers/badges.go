package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/infohero-app/backend/internal/models"
)

type BadgeHandler struct {
	db *gorm.DB
}

func NewBadgeHandler(db *gorm.DB) *BadgeHandler {
	return &BadgeHandler{db: db}
}

// ListBadges returns all badges. Badges are admin-managed; there is no
// write surface here.
func (h *BadgeHandler) ListBadges(c *gin.Context) {
	var badges []models.Badge
	if err := h.db.Order("name").Find(&badges).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch badges"})
		return
	}
	if badges == nil {
		badges = []models.Badge{}
	}
	c.JSON(http.StatusOK, badges)
}
