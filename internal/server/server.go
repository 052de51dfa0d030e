package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/infohero-app/backend/internal/cache"
	"github.com/infohero-app/backend/internal/config"
	"github.com/infohero-app/backend/internal/database"
	"github.com/infohero-app/backend/internal/feed"
	"github.com/infohero-app/backend/internal/handlers"
	"github.com/infohero-app/backend/internal/middleware"
	"github.com/infohero-app/backend/internal/moderation"
	"github.com/infohero-app/backend/internal/ranking"
)

type Server struct {
	cfg     *config.Config
	db      database.Service
	handler *handlers.Handler
}

// NewServer creates and configures a new server
func NewServer(cfg *config.Config) (*http.Server, error) {
	db, err := database.New(cfg)
	if err != nil {
		return nil, err
	}

	gormDB := db.GetDB()
	feedSvc := feed.NewService(gormDB)
	rank := ranking.NewService(gormDB, feedSvc, cache.New(cfg.RedisURL))
	mod := moderation.NewClient(cfg.ModerationURL)

	newServer := &Server{
		cfg:     cfg,
		db:      db,
		handler: handlers.NewHandler(gormDB, feedSvc, mod, rank, cfg.JWTSecret),
	}

	router := newServer.RegisterRoutes()

	server := &http.Server{
		Addr:         "0.0.0.0:" + cfg.Port,
		Handler:      router,
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	return server, nil
}

// RegisterRoutes sets up all application routes
func (s *Server) RegisterRoutes() *gin.Engine {
	r := gin.Default()

	// CORS configuration
	r.Use(cors.New(cors.Config{
		AllowOrigins:     strings.Split(s.cfg.AllowedOrigins, ","),
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Accept", "Authorization", "Content-Type", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * 3600,
	}))

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, s.db.Health())
	})

	// API routes
	api := r.Group("/api")
	{
		// Auth routes (public)
		api.POST("/register", s.handler.Auth.Register)
		api.POST("/login", s.handler.Auth.Login)

		// Public reads; the viewer's identity is picked up when a token
		// is present so responses can carry has-reacted flags.
		public := api.Group("")
		public.Use(middleware.AuthOptional(s.cfg.JWTSecret))
		{
			public.GET("/posts", s.handler.Post.GetPosts)
			public.GET("/posts/:id", s.handler.Post.GetPost)
			public.GET("/posts/:id/comments", s.handler.Comment.GetComments)
			public.GET("/tags/:name/posts", s.handler.Post.GetTagPosts)
			public.GET("/badges", s.handler.Badge.ListBadges)
			public.GET("/users/:id", s.handler.User.GetUserProfile)
			public.GET("/users/:id/posts", s.handler.Post.GetUserPosts)
			public.GET("/ranking/posts", s.handler.Ranking.TopPosts)
			public.GET("/ranking/heroes", s.handler.Ranking.TopHeroes)
		}

		// Protected routes (authentication required)
		protected := api.Group("")
		protected.Use(middleware.AuthRequired(s.cfg.JWTSecret))
		{
			protected.GET("/me", s.handler.Auth.GetMe)

			protected.POST("/posts", s.handler.Post.CreatePost)
			protected.DELETE("/posts/:id", s.handler.Post.DeletePost)
			protected.POST("/posts/:id/like", s.handler.Post.LikePost)
			protected.POST("/posts/:id/unlike", s.handler.Post.UnlikePost)

			protected.POST("/posts/:id/comments", s.handler.Comment.CreateComment)
			protected.DELETE("/comments/:commentId", s.handler.Comment.DeleteComment)
			protected.POST("/comments/:commentId/like", s.handler.Comment.LikeComment)
			protected.POST("/comments/:commentId/unlike", s.handler.Comment.UnlikeComment)

			protected.PUT("/users/:id", s.handler.User.UpdateUserProfile)
		}
	}

	return r
}
