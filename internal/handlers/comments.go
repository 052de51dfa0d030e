package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/infohero-app/backend/internal/feed"
	"github.com/infohero-app/backend/internal/models"
)

type CommentHandler struct {
	db   *gorm.DB
	feed *feed.Service
}

func NewCommentHandler(db *gorm.DB, feedSvc *feed.Service) *CommentHandler {
	return &CommentHandler{db: db, feed: feedSvc}
}

// GetComments returns all comments for a post with derived reaction counts
func (h *CommentHandler) GetComments(c *gin.Context) {
	postID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid post id"})
		return
	}

	var post models.Post
	if err := h.db.First(&post, postID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Post not found"})
		return
	}

	views, err := h.feed.CommentsForPost(postID, viewerID(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch comments"})
		return
	}
	c.JSON(http.StatusOK, views)
}

// CreateComment creates a new comment on a post
func (h *CommentHandler) CreateComment(c *gin.Context) {
	userID, ok := extractUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var input models.CreateCommentRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// Verify post exists
	var post models.Post
	if err := h.db.First(&post, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Post not found"})
		return
	}

	comment := models.Comment{
		Content:  input.Content,
		PostID:   post.ID,
		AuthorID: userID,
	}

	if err := h.db.Create(&comment).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create comment"})
		return
	}

	h.db.Preload("Author").First(&comment, comment.ID)
	c.JSON(http.StatusCreated, comment)
}

// DeleteComment deletes a comment and its reactions (owner only)
func (h *CommentHandler) DeleteComment(c *gin.Context) {
	userID, ok := extractUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var comment models.Comment
	if err := h.db.First(&comment, c.Param("commentId")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Comment not found"})
		return
	}

	if comment.AuthorID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "You can only delete your own comments"})
		return
	}

	// Clean up reactions on this comment too
	h.db.Where("comment_id = ?", comment.ID).Delete(&models.Reaction{})

	if err := h.db.Delete(&comment).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete comment"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Comment deleted successfully"})
}

func (h *CommentHandler) countReactions(commentID int) (int, int) {
	var likes, unlikes int64
	h.db.Model(&models.Reaction{}).Where("comment_id = ? AND polarity = ?", commentID, models.ReactionLike).Count(&likes)
	h.db.Model(&models.Reaction{}).Where("comment_id = ? AND polarity = ?", commentID, models.ReactionUnlike).Count(&unlikes)
	return int(likes), int(unlikes)
}

// LikeComment toggles a like on a comment (PROTECTED - requires authentication)
func (h *CommentHandler) LikeComment(c *gin.Context) {
	h.react(c, models.ReactionLike)
}

// UnlikeComment toggles an unlike on a comment (PROTECTED - requires authentication)
func (h *CommentHandler) UnlikeComment(c *gin.Context) {
	h.react(c, models.ReactionUnlike)
}

// react — one reaction per user, toggles off if same, switches if opposite.
func (h *CommentHandler) react(c *gin.Context, polarity int) {
	userID, ok := extractUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var comment models.Comment
	if err := h.db.First(&comment, c.Param("commentId")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Comment not found"})
		return
	}

	var existing models.Reaction
	err := h.db.Where("user_id = ? AND comment_id = ?", userID, comment.ID).First(&existing).Error
	switch {
	case err == nil && existing.Polarity == polarity:
		// Same reaction — toggle off
		if err := h.db.Delete(&existing).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update reaction"})
			return
		}
	case err == nil:
		// Opposite reaction — switch
		existing.Polarity = polarity
		if err := h.db.Save(&existing).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update reaction"})
			return
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		reaction := models.Reaction{UserID: userID, CommentID: comment.ID, Polarity: polarity}
		if err := h.db.Create(&reaction).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update reaction"})
			return
		}
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update reaction"})
		return
	}

	likes, unlikes := h.countReactions(comment.ID)
	c.JSON(http.StatusOK, gin.H{
		"comment_id": comment.ID,
		"likes":      likes,
		"unlikes":    unlikes,
	})
}
