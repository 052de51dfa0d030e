// Package seed fills a development database with fake users, posts,
// comments and reactions.
package seed

import (
	"fmt"
	"log"
	"math/rand"
	"strings"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/infohero-app/backend/internal/models"
)

// Built-in badges. Badges are admin-managed, so the seeder is the only
// place that creates them.
var builtinBadges = []models.Badge{
	{Name: "politics", Color: "#ef4444"},
	{Name: "sport", Color: "#22c55e"},
	{Name: "tech", Color: "#3b82f6"},
	{Name: "science", Color: "#a855f7"},
	{Name: "health", Color: "#f97316"},
	{Name: "culture", Color: "#eab308"},
}

type Seeder struct {
	db *gorm.DB
}

func NewSeeder(db *gorm.DB) *Seeder {
	return &Seeder{db: db}
}

// ClearAll removes all rows in dependency order.
func (s *Seeder) ClearAll() error {
	for _, model := range []any{
		&models.Reaction{},
		&models.Comment{},
		&models.PostBadge{},
		&models.Post{},
		&models.Badge{},
		&models.User{},
	} {
		if err := s.db.Where("1 = 1").Delete(model).Error; err != nil {
			return err
		}
	}
	return nil
}

// Badges inserts the built-in badge set, skipping ones that already exist.
func (s *Seeder) Badges() error {
	for _, badge := range builtinBadges {
		var existing models.Badge
		if err := s.db.Where("name = ?", badge.Name).First(&existing).Error; err == nil {
			continue
		}
		if err := s.db.Create(&badge).Error; err != nil {
			return err
		}
	}
	return nil
}

// Run seeds numUsers users and numPosts posts with comments and reactions.
func (s *Seeder) Run(numUsers, numPosts int) error {
	if err := s.Badges(); err != nil {
		return fmt.Errorf("seeding badges: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	users := make([]models.User, 0, numUsers)
	for i := 0; i < numUsers; i++ {
		user := models.User{
			Username: fmt.Sprintf("%s%d", strings.ToLower(gofakeit.Username()), i),
			Email:    fmt.Sprintf("user%d_%s", i, gofakeit.Email()),
			Password: string(hash),
			Avatar:   gofakeit.ImageURL(128, 128),
		}
		if err := s.db.Create(&user).Error; err != nil {
			return fmt.Errorf("seeding users: %w", err)
		}
		users = append(users, user)
	}
	log.Printf("Seeded %d users", len(users))

	var badges []models.Badge
	if err := s.db.Find(&badges).Error; err != nil {
		return err
	}

	posts := make([]models.Post, 0, numPosts)
	for i := 0; i < numPosts; i++ {
		author := users[rand.Intn(len(users))]

		title := gofakeit.Sentence(4)
		if len(title) > 50 {
			title = title[:50]
		}

		post := models.Post{
			Title:         title,
			Content:       gofakeit.Paragraph(1, 3, 12, " "),
			AuthorID:      author.ID,
			Hashtags:      []string{gofakeit.BuzzWord(), gofakeit.BuzzWord()},
			FakeDetection: rand.Intn(10) == 0,
		}
		if rand.Intn(2) == 0 {
			url := gofakeit.URL()
			post.Source = &url
		}
		if rand.Intn(3) == 0 {
			img := gofakeit.ImageURL(640, 480)
			post.ImageURL = &img
		}

		if err := s.db.Create(&post).Error; err != nil {
			return fmt.Errorf("seeding posts: %w", err)
		}

		for _, idx := range rand.Perm(len(badges))[:1+rand.Intn(3)] {
			assoc := models.PostBadge{PostID: post.ID, BadgeID: badges[idx].ID}
			if err := s.db.Create(&assoc).Error; err != nil {
				return fmt.Errorf("seeding post badges: %w", err)
			}
		}

		posts = append(posts, post)
	}
	log.Printf("Seeded %d posts", len(posts))

	comments := 0
	reactions := 0
	for _, post := range posts {
		for _, user := range users {
			if rand.Intn(4) == 0 {
				polarity := models.ReactionLike
				if rand.Intn(4) == 0 {
					polarity = models.ReactionUnlike
				}
				reaction := models.Reaction{UserID: user.ID, PostID: post.ID, Polarity: polarity}
				if err := s.db.Create(&reaction).Error; err != nil {
					return fmt.Errorf("seeding reactions: %w", err)
				}
				reactions++
			}
			if rand.Intn(8) == 0 {
				comment := models.Comment{
					Content:  gofakeit.Sentence(10),
					AuthorID: user.ID,
					PostID:   post.ID,
				}
				if err := s.db.Create(&comment).Error; err != nil {
					return fmt.Errorf("seeding comments: %w", err)
				}
				comments++
			}
		}
	}
	log.Printf("Seeded %d reactions, %d comments", reactions, comments)

	return nil
}
