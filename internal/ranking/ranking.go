// Package ranking produces the two leaderboards: top posts by net score and
// top users ("heroes") by total likes received.
package ranking

import (
	"context"
	"sort"
	"time"

	"gorm.io/gorm"

	"github.com/infohero-app/backend/internal/cache"
	"github.com/infohero-app/backend/internal/feed"
)

const (
	topPostsLimit  = 10
	topHeroesLimit = 10
	cacheTTL       = 30 * time.Second

	postScoresKey = "ranking:post_scores"
	heroesKey     = "ranking:heroes"
)

type Service struct {
	db    *gorm.DB
	feed  *feed.Service
	cache *cache.Cache
}

func NewService(db *gorm.DB, feedSvc *feed.Service, c *cache.Cache) *Service {
	return &Service{db: db, feed: feedSvc, cache: c}
}

// RankedPost is a post view with its net score attached.
type RankedPost struct {
	feed.PostView
	NetScore int `json:"net_score"`
}

// Hero is a leaderboard row for a user, ranked by likes received on their
// posts.
type Hero struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
	Avatar   string `json:"avatar"`
	Likes    int    `json:"likes"`
}

type postScore struct {
	PostID  int `json:"post_id"`
	Likes   int `json:"likes"`
	Unlikes int `json:"unlikes"`
}

// postScores is the server-side aggregate for the top-posts leaderboard.
// Scores are viewer-independent, so only this part is cached.
func (s *Service) postScores(ctx context.Context) ([]postScore, error) {
	var scores []postScore
	if s.cache.GetJSON(ctx, postScoresKey, &scores) {
		return scores, nil
	}

	err := s.db.WithContext(ctx).Raw(`
		SELECT p.id AS post_id,
		       COALESCE(SUM(CASE WHEN r.polarity = 1 THEN 1 ELSE 0 END), 0) AS likes,
		       COALESCE(SUM(CASE WHEN r.polarity = -1 THEN 1 ELSE 0 END), 0) AS unlikes
		FROM posts p
		LEFT JOIN reactions r ON r.post_id = p.id
		GROUP BY p.id
		ORDER BY COALESCE(SUM(CASE WHEN r.polarity = 1 THEN 1 ELSE 0 END), 0)
		       - COALESCE(SUM(CASE WHEN r.polarity = -1 THEN 1 ELSE 0 END), 0) DESC
		LIMIT ?`, topPostsLimit).Scan(&scores).Error
	if err != nil {
		return nil, err
	}

	s.cache.SetJSON(ctx, postScoresKey, scores, cacheTTL)
	return scores, nil
}

// TopPosts returns the top posts ordered by net score (likes minus
// unlikes). The aggregate query is authoritative for membership; the final
// order is re-derived from the assembled counts as a redundant guarantee in
// case the aggregate's ordering criterion ever drifts.
func (s *Service) TopPosts(ctx context.Context, viewerID int) ([]RankedPost, error) {
	scores, err := s.postScores(ctx)
	if err != nil {
		return nil, err
	}

	ids := make([]int, 0, len(scores))
	for _, score := range scores {
		ids = append(ids, score.PostID)
	}

	views, err := s.feed.ByIDs(ids, viewerID)
	if err != nil {
		return nil, err
	}

	viewByID := map[int]feed.PostView{}
	for _, view := range views {
		viewByID[view.ID] = view
	}

	ranked := make([]RankedPost, 0, len(scores))
	for _, score := range scores {
		view, ok := viewByID[score.PostID]
		if !ok {
			continue
		}
		ranked = append(ranked, RankedPost{
			PostView: view,
			NetScore: view.Likes - view.Unlikes,
		})
	}

	// Defensive re-sort by the same net-score formula.
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].NetScore > ranked[j].NetScore
	})

	return ranked, nil
}

// TopHeroes returns the top users by likes received across their posts.
// The aggregate's order is trusted as-is.
func (s *Service) TopHeroes(ctx context.Context) ([]Hero, error) {
	var heroes []Hero
	if s.cache.GetJSON(ctx, heroesKey, &heroes) {
		return heroes, nil
	}

	err := s.db.WithContext(ctx).Raw(`
		SELECT u.id, u.username, u.avatar, COUNT(r.id) AS likes
		FROM users u
		JOIN posts p ON p.author_id = u.id
		JOIN reactions r ON r.post_id = p.id AND r.polarity = 1
		GROUP BY u.id, u.username, u.avatar
		ORDER BY COUNT(r.id) DESC
		LIMIT ?`, topHeroesLimit).Scan(&heroes).Error
	if err != nil {
		return nil, err
	}

	if heroes == nil {
		heroes = []Hero{}
	}

	s.cache.SetJSON(ctx, heroesKey, heroes, cacheTTL)
	return heroes, nil
}
