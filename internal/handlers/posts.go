package handlers

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/infohero-app/backend/internal/feed"
	"github.com/infohero-app/backend/internal/models"
	"github.com/infohero-app/backend/internal/moderation"
)

type PostHandler struct {
	db   *gorm.DB
	feed *feed.Service
	mod  *moderation.Client
}

func NewPostHandler(db *gorm.DB, feedSvc *feed.Service, mod *moderation.Client) *PostHandler {
	return &PostHandler{db: db, feed: feedSvc, mod: mod}
}

func viewerID(c *gin.Context) int {
	id, _ := extractUserID(c)
	return id
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func splitHashtags(raw string) []string {
	parts := strings.Split(raw, ",")
	tags := make([]string, 0, len(parts))
	for _, part := range parts {
		if tag := strings.TrimSpace(part); tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}

// GetPosts returns the main feed, newest first.
func (h *PostHandler) GetPosts(c *gin.Context) {
	views, err := h.feed.Feed(viewerID(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch posts"})
		return
	}
	c.JSON(http.StatusOK, views)
}

// GetPost returns a single post by ID
func (h *PostHandler) GetPost(c *gin.Context) {
	postID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid post id"})
		return
	}

	view, err := h.feed.PostByID(postID, viewerID(c))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Post not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch post"})
		return
	}

	c.JSON(http.StatusOK, view)
}

// GetTagPosts returns all posts carrying the named badge.
func (h *PostHandler) GetTagPosts(c *gin.Context) {
	views, err := h.feed.ByBadge(c.Param("name"), viewerID(c))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Tag not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch posts"})
		return
	}
	c.JSON(http.StatusOK, views)
}

// GetUserPosts returns all posts by a specific user
func (h *PostHandler) GetUserPosts(c *gin.Context) {
	authorID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user id"})
		return
	}

	views, err := h.feed.ByAuthor(authorID, viewerID(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch user posts"})
		return
	}
	c.JSON(http.StatusOK, views)
}

// CreatePost validates a draft, runs it through the moderation gate and,
// only when the gate passes, persists the post and its badge associations
// (PROTECTED - requires authentication).
func (h *PostHandler) CreatePost(c *gin.Context) {
	userID, ok := extractUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var input models.CreatePostRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Title, content and 1-3 badges are required"})
		return
	}

	// All selected badges must exist
	var badgeCount int64
	if err := h.db.Model(&models.Badge{}).Where("id IN ?", input.BadgeIDs).Count(&badgeCount).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to validate badges"})
		return
	}
	if int(badgeCount) != len(input.BadgeIDs) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown badge selected"})
		return
	}

	// The hate-speech gate blocks on a positive classification and on
	// transport failure alike; only an explicit negative lets the draft
	// through. The fake-news annotation never blocks.
	result, err := h.mod.VerifyDraft(c.Request.Context(), input.Title, input.Content)
	if err != nil {
		log.Printf("moderation gate unavailable: %v", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Moderation service unavailable, post not published"})
		return
	}
	if !result.Verified {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "This post contains hate speech"})
		return
	}

	post := models.Post{
		Title:         input.Title,
		Content:       input.Content,
		ImageURL:      nullable(input.ImageURL),
		Source:        nullable(input.Source),
		Hashtags:      splitHashtags(input.Hashtags),
		FakeDetection: result.Fake,
		AuthorID:      userID,
	}

	if err := h.db.Create(&post).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create post"})
		return
	}

	assocs := make([]models.PostBadge, 0, len(input.BadgeIDs))
	for _, badgeID := range input.BadgeIDs {
		assocs = append(assocs, models.PostBadge{PostID: post.ID, BadgeID: badgeID})
	}

	if err := h.db.Create(&assocs).Error; err != nil {
		// Compensating delete so the store never holds a badge-less post
		// from a half-finished composition.
		h.db.Delete(&models.Post{}, post.ID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create post"})
		return
	}

	view, err := h.feed.PostByID(post.ID, userID)
	if err != nil {
		c.JSON(http.StatusCreated, post)
		return
	}
	c.JSON(http.StatusCreated, view)
}

// DeletePost deletes a post with its comments, reactions and badge
// associations (PROTECTED - requires ownership)
func (h *PostHandler) DeletePost(c *gin.Context) {
	userID, ok := extractUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	postID := c.Param("id")
	var post models.Post
	if err := h.db.First(&post, postID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Post not found"})
		return
	}

	if post.AuthorID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "You can only delete your own posts"})
		return
	}

	err := h.db.Transaction(func(tx *gorm.DB) error {
		var commentIDs []int
		if err := tx.Model(&models.Comment{}).Where("post_id = ?", post.ID).Pluck("id", &commentIDs).Error; err != nil {
			return err
		}
		if len(commentIDs) > 0 {
			if err := tx.Where("comment_id IN ?", commentIDs).Delete(&models.Reaction{}).Error; err != nil {
				return err
			}
		}
		if err := tx.Where("post_id = ?", post.ID).Delete(&models.Reaction{}).Error; err != nil {
			return err
		}
		if err := tx.Where("post_id = ?", post.ID).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("post_id = ?", post.ID).Delete(&models.PostBadge{}).Error; err != nil {
			return err
		}
		return tx.Delete(&post).Error
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete post"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Post deleted successfully"})
}

func (h *PostHandler) countReactions(postID int) (int, int) {
	var likes, unlikes int64
	h.db.Model(&models.Reaction{}).Where("post_id = ? AND polarity = ?", postID, models.ReactionLike).Count(&likes)
	h.db.Model(&models.Reaction{}).Where("post_id = ? AND polarity = ?", postID, models.ReactionUnlike).Count(&unlikes)
	return int(likes), int(unlikes)
}

// LikePost toggles a like on a post (PROTECTED - requires authentication)
func (h *PostHandler) LikePost(c *gin.Context) {
	h.react(c, models.ReactionLike)
}

// UnlikePost toggles an unlike on a post (PROTECTED - requires authentication)
func (h *PostHandler) UnlikePost(c *gin.Context) {
	h.react(c, models.ReactionUnlike)
}

// react — one reaction per user, toggles off if same, switches if opposite.
// The response carries fresh derived counts.
func (h *PostHandler) react(c *gin.Context, polarity int) {
	userID, ok := extractUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	postID := c.Param("id")
	var post models.Post
	if err := h.db.First(&post, postID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Post not found"})
		return
	}

	var existing models.Reaction
	err := h.db.Where("user_id = ? AND post_id = ?", userID, post.ID).First(&existing).Error
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
		reaction := models.Reaction{UserID: userID, PostID: post.ID, Polarity: polarity}
		if err := h.db.Create(&reaction).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update reaction"})
			return
		}
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update reaction"})
		return
	}

	likes, unlikes := h.countReactions(post.ID)
	c.JSON(http.StatusOK, gin.H{
		"post_id": post.ID,
		"likes":   likes,
		"unlikes": unlikes,
	})
}
