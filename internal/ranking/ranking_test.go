package ranking

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/infohero-app/backend/internal/cache"
	"github.com/infohero-app/backend/internal/database"
	"github.com/infohero-app/backend/internal/feed"
	"github.com/infohero-app/backend/internal/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, database.Migrate(db))
	return db
}

func newTestCache(t *testing.T) (*cache.Cache, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return cache.NewWithClient(client), mr
}

func seedUser(t *testing.T, db *gorm.DB, username string) models.User {
	t.Helper()
	user := models.User{Username: username, Email: username + "@example.com", Password: "x"}
	require.NoError(t, db.Create(&user).Error)
	return user
}

func seedPost(t *testing.T, db *gorm.DB, author models.User, title string) models.Post {
	t.Helper()
	post := models.Post{Title: title, Content: "c", AuthorID: author.ID}
	require.NoError(t, db.Create(&post).Error)
	return post
}

// addReactions creates likes and unlikes on a post from freshly minted users.
func addReactions(t *testing.T, db *gorm.DB, post models.Post, likes, unlikes int) {
	t.Helper()
	for i := 0; i < likes; i++ {
		voter := seedUser(t, db, post.Title+"-liker-"+string(rune('a'+i)))
		reaction := models.Reaction{UserID: voter.ID, PostID: post.ID, Polarity: models.ReactionLike}
		require.NoError(t, db.Create(&reaction).Error)
	}
	for i := 0; i < unlikes; i++ {
		voter := seedUser(t, db, post.Title+"-unliker-"+string(rune('a'+i)))
		reaction := models.Reaction{UserID: voter.ID, PostID: post.ID, Polarity: models.ReactionUnlike}
		require.NoError(t, db.Create(&reaction).Error)
	}
}

func TestTopPostsOrdersByNetScore(t *testing.T) {
	db := newTestDB(t)
	author := seedUser(t, db, "author")

	low := seedPost(t, db, author, "low")
	mid := seedPost(t, db, author, "mid")
	high := seedPost(t, db, author, "high")

	addReactions(t, db, low, 1, 3)  // net -2
	addReactions(t, db, mid, 2, 1)  // net 1
	addReactions(t, db, high, 4, 0) // net 4

	svc := NewService(db, feed.NewService(db), cache.NewWithClient(nil))
	ranked, err := svc.TopPosts(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, ranked, 3)

	assert.Equal(t, high.ID, ranked[0].ID)
	assert.Equal(t, 4, ranked[0].NetScore)
	assert.Equal(t, mid.ID, ranked[1].ID)
	assert.Equal(t, 1, ranked[1].NetScore)
	assert.Equal(t, low.ID, ranked[2].ID)
	assert.Equal(t, -2, ranked[2].NetScore)
}

func TestTopPostsViewerFlags(t *testing.T) {
	db := newTestDB(t)
	author := seedUser(t, db, "author")
	viewer := seedUser(t, db, "viewer")

	post := seedPost(t, db, author, "liked by viewer")
	reaction := models.Reaction{UserID: viewer.ID, PostID: post.ID, Polarity: models.ReactionLike}
	require.NoError(t, db.Create(&reaction).Error)

	svc := NewService(db, feed.NewService(db), cache.NewWithClient(nil))

	ranked, err := svc.TopPosts(context.Background(), viewer.ID)
	require.NoError(t, err)
	require.Len(t, ranked, 1)
	assert.True(t, ranked[0].UserHasLiked)

	ranked, err = svc.TopPosts(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, ranked, 1)
	assert.False(t, ranked[0].UserHasLiked)
}

func TestTopPostsLimit(t *testing.T) {
	db := newTestDB(t)
	author := seedUser(t, db, "author")
	for i := 0; i < topPostsLimit+3; i++ {
		seedPost(t, db, author, "post-"+string(rune('a'+i)))
	}

	svc := NewService(db, feed.NewService(db), cache.NewWithClient(nil))
	ranked, err := svc.TopPosts(context.Background(), 0)
	require.NoError(t, err)
	assert.Len(t, ranked, topPostsLimit)
}

func TestTopHeroesOrdersByLikesReceived(t *testing.T) {
	db := newTestDB(t)
	prolific := seedUser(t, db, "prolific")
	modest := seedUser(t, db, "modest")
	silent := seedUser(t, db, "silent")

	first := seedPost(t, db, prolific, "first")
	second := seedPost(t, db, prolific, "second")
	only := seedPost(t, db, modest, "only")
	seedPost(t, db, silent, "ignored")

	addReactions(t, db, first, 2, 5) // unlikes don't count for heroes
	addReactions(t, db, second, 1, 0)
	addReactions(t, db, only, 2, 0)

	svc := NewService(db, feed.NewService(db), cache.NewWithClient(nil))
	heroes, err := svc.TopHeroes(context.Background())
	require.NoError(t, err)
	require.Len(t, heroes, 2)

	assert.Equal(t, "prolific", heroes[0].Username)
	assert.Equal(t, 3, heroes[0].Likes)
	assert.Equal(t, "modest", heroes[1].Username)
	assert.Equal(t, 2, heroes[1].Likes)
}

func TestTopHeroesEmpty(t *testing.T) {
	db := newTestDB(t)

	svc := NewService(db, feed.NewService(db), cache.NewWithClient(nil))
	heroes, err := svc.TopHeroes(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, heroes)
	assert.Empty(t, heroes)
}

func TestPostScoresCached(t *testing.T) {
	db := newTestDB(t)
	c, mr := newTestCache(t)

	author := seedUser(t, db, "author")
	post := seedPost(t, db, author, "cached")
	addReactions(t, db, post, 2, 0)

	svc := NewService(db, feed.NewService(db), c)
	ctx := context.Background()

	ranked, err := svc.TopPosts(ctx, 0)
	require.NoError(t, err)
	require.Len(t, ranked, 1)
	assert.True(t, mr.Exists(postScoresKey))

	// The second call serves membership from the cached aggregate.
	addReactions(t, db, post, 3, 0)

	ranked, err = svc.TopPosts(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, post.ID, ranked[0].ID)
	assert.True(t, mr.Exists(postScoresKey))

	mr.FastForward(cacheTTL + time.Second)
	assert.False(t, mr.Exists(postScoresKey))

	ranked, err = svc.TopPosts(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, 5, ranked[0].NetScore)
	assert.True(t, mr.Exists(postScoresKey))
}

func TestTopHeroesCached(t *testing.T) {
	db := newTestDB(t)
	c, mr := newTestCache(t)

	author := seedUser(t, db, "author")
	post := seedPost(t, db, author, "popular")
	addReactions(t, db, post, 1, 0)

	svc := NewService(db, feed.NewService(db), c)
	ctx := context.Background()

	heroes, err := svc.TopHeroes(ctx)
	require.NoError(t, err)
	require.Len(t, heroes, 1)
	assert.Equal(t, 1, heroes[0].Likes)
	assert.True(t, mr.Exists(heroesKey))

	addReactions(t, db, post, 2, 0)

	heroes, err = svc.TopHeroes(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, heroes[0].Likes)

	mr.FastForward(cacheTTL + time.Second)

	heroes, err = svc.TopHeroes(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, heroes[0].Likes)
}
