package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/infohero-app/backend/internal/cache"
	"github.com/infohero-app/backend/internal/database"
	"github.com/infohero-app/backend/internal/feed"
	"github.com/infohero-app/backend/internal/middleware"
	"github.com/infohero-app/backend/internal/models"
	"github.com/infohero-app/backend/internal/moderation"
	"github.com/infohero-app/backend/internal/ranking"
)

const testSecret = "test-secret"

func init() {
	gin.SetMode(gin.TestMode)
}

// moderationStub fakes the classification service. Status and result are
// configurable per model type so tests can trip either gate.
type moderationStub struct {
	hateStatus int
	hateResult bool
	fakeStatus int
	fakeResult bool
}

func (s *moderationStub) serve(t *testing.T) string {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Text string `json:"text"`
			Type string `json:"type"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		status := s.hateStatus
		result := s.hateResult
		if req.Type == "fake_news" {
			status = s.fakeStatus
			result = s.fakeResult
		}

		w.Header().Set("Content-Type", "application/json")
		if status != http.StatusOK {
			w.WriteHeader(status)
			json.NewEncoder(w).Encode(map[string]string{"error": "model unavailable"})
			return
		}
		json.NewEncoder(w).Encode(map[string]bool{"predicted_class": result})
	}))
	t.Cleanup(srv.Close)
	return srv.URL
}

type env struct {
	db     *gorm.DB
	router *gin.Engine
	mod    *moderationStub
	badges []models.Badge
}

func newEnv(t *testing.T) *env {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, database.Migrate(db))

	e := &env{
		db: db,
		// A clean gate by default; individual tests flip the knobs.
		mod: &moderationStub{hateStatus: http.StatusOK, fakeStatus: http.StatusOK},
	}

	for _, name := range []string{"politics", "sport", "tech"} {
		badge := models.Badge{Name: name}
		require.NoError(t, db.Create(&badge).Error)
		e.badges = append(e.badges, badge)
	}

	feedSvc := feed.NewService(db)
	rank := ranking.NewService(db, feedSvc, cache.NewWithClient(nil))
	mod := moderation.NewClient(e.mod.serve(t))
	h := NewHandler(db, feedSvc, mod, rank, testSecret)

	r := gin.New()
	api := r.Group("/api")

	api.POST("/register", h.Auth.Register)
	api.POST("/login", h.Auth.Login)

	public := api.Group("")
	public.Use(middleware.AuthOptional(testSecret))
	{
		public.GET("/posts", h.Post.GetPosts)
		public.GET("/posts/:id", h.Post.GetPost)
		public.GET("/posts/:id/comments", h.Comment.GetComments)
		public.GET("/tags/:name/posts", h.Post.GetTagPosts)
		public.GET("/badges", h.Badge.ListBadges)
		public.GET("/users/:id", h.User.GetUserProfile)
		public.GET("/users/:id/posts", h.Post.GetUserPosts)
		public.GET("/ranking/posts", h.Ranking.TopPosts)
		public.GET("/ranking/heroes", h.Ranking.TopHeroes)
	}

	protected := api.Group("")
	protected.Use(middleware.AuthRequired(testSecret))
	{
		protected.GET("/me", h.Auth.GetMe)
		protected.POST("/posts", h.Post.CreatePost)
		protected.DELETE("/posts/:id", h.Post.DeletePost)
		protected.POST("/posts/:id/like", h.Post.LikePost)
		protected.POST("/posts/:id/unlike", h.Post.UnlikePost)
		protected.POST("/posts/:id/comments", h.Comment.CreateComment)
		protected.DELETE("/comments/:commentId", h.Comment.DeleteComment)
		protected.POST("/comments/:commentId/like", h.Comment.LikeComment)
		protected.POST("/comments/:commentId/unlike", h.Comment.UnlikeComment)
		protected.PUT("/users/:id", h.User.UpdateUserProfile)
	}

	e.router = r
	return e
}

func (e *env) user(t *testing.T, username string) models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	require.NoError(t, err)

	user := models.User{Username: username, Email: username + "@example.com", Password: string(hash)}
	require.NoError(t, e.db.Create(&user).Error)
	return user
}

func (e *env) token(t *testing.T, user models.User) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id":  user.ID,
		"username": user.Username,
		"email":    user.Email,
		"exp":      time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

func (e *env) do(t *testing.T, method, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, dest any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), dest))
}

func (e *env) post(t *testing.T, author models.User, title string) models.Post {
	t.Helper()
	post := models.Post{Title: title, Content: "content", AuthorID: author.ID}
	require.NoError(t, e.db.Create(&post).Error)
	require.NoError(t, e.db.Create(&models.PostBadge{PostID: post.ID, BadgeID: e.badges[0].ID}).Error)
	return post
}

func (e *env) comment(t *testing.T, author models.User, post models.Post, content string) models.Comment {
	t.Helper()
	comment := models.Comment{Content: content, AuthorID: author.ID, PostID: post.ID}
	require.NoError(t, e.db.Create(&comment).Error)
	return comment
}
