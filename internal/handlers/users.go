package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/infohero-app/backend/internal/feed"
	"github.com/infohero-app/backend/internal/models"
)

type UserHandler struct {
	db   *gorm.DB
	feed *feed.Service
}

func NewUserHandler(db *gorm.DB, feedSvc *feed.Service) *UserHandler {
	return &UserHandler{db: db, feed: feedSvc}
}

// GetUserProfile returns a user's profile with their posts. A missing
// profile renders as a 404 body rather than a redirect.
func (h *UserHandler) GetUserProfile(c *gin.Context) {
	userID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user id"})
		return
	}

	var user models.User
	if err := h.db.First(&user, userID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	posts, err := h.feed.ByAuthor(userID, viewerID(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch user posts"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user": gin.H{
			"id":         user.ID,
			"username":   user.Username,
			"avatar":     user.Avatar,
			"created_at": user.CreatedAt,
		},
		"posts": posts,
	})
}

// UpdateUserProfile updates the caller's own profile
func (h *UserHandler) UpdateUserProfile(c *gin.Context) {
	userID := c.Param("id")

	authUserID, ok := extractUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	if fmt.Sprintf("%d", authUserID) != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "You can only update your own profile"})
		return
	}

	var input struct {
		Avatar string `json:"avatar"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var user models.User
	if err := h.db.First(&user, userID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	if input.Avatar != "" {
		user.Avatar = input.Avatar
	}

	if err := h.db.Save(&user).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update profile"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":       user.ID,
		"username": user.Username,
		"email":    user.Email,
		"avatar":   user.Avatar,
	})
}
