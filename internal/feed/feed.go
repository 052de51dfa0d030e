// Package feed assembles post view models. Posts, reactions, comments and
// badge associations are fetched in independent queries for the whole scope
// and joined in memory, so every page shares one aggregation path.
package feed

import (
	"gorm.io/gorm"

	"github.com/infohero-app/backend/internal/models"
)

type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// CommentView is a comment enriched with derived reaction counts and the
// viewer's own reaction flags.
type CommentView struct {
	models.Comment
	Likes          int  `json:"likes"`
	Unlikes        int  `json:"unlikes"`
	UserHasLiked   bool `json:"user_has_liked"`
	UserHasUnliked bool `json:"user_has_unliked"`
}

// PostView is a post enriched with derived counts, resolved badges and the
// enriched comment list. Counts are always computed from reaction rows,
// never read from the post row.
type PostView struct {
	models.Post
	Likes          int            `json:"likes"`
	Unlikes        int            `json:"unlikes"`
	UserHasLiked   bool           `json:"user_has_liked"`
	UserHasUnliked bool           `json:"user_has_unliked"`
	Comments       []CommentView  `json:"comments"`
	Badges         []models.Badge `json:"badges"`
}

// Feed returns all posts, newest first. viewerID may be zero for
// anonymous readers.
func (s *Service) Feed(viewerID int) ([]PostView, error) {
	var posts []models.Post
	if err := s.db.Preload("Author").Order("created_at desc").Find(&posts).Error; err != nil {
		return nil, err
	}
	return s.assemble(posts, viewerID)
}

// PostByID returns a single post view. Returns gorm.ErrRecordNotFound when
// the post does not exist.
func (s *Service) PostByID(id, viewerID int) (*PostView, error) {
	var post models.Post
	if err := s.db.Preload("Author").First(&post, id).Error; err != nil {
		return nil, err
	}

	views, err := s.assemble([]models.Post{post}, viewerID)
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

// ByBadge returns the posts carrying the named badge, newest first.
// Returns gorm.ErrRecordNotFound when no badge has that name.
func (s *Service) ByBadge(name string, viewerID int) ([]PostView, error) {
	var badge models.Badge
	if err := s.db.Where("name = ?", name).First(&badge).Error; err != nil {
		return nil, err
	}

	var assocs []models.PostBadge
	if err := s.db.Where("badge_id = ?", badge.ID).Find(&assocs).Error; err != nil {
		return nil, err
	}
	if len(assocs) == 0 {
		return []PostView{}, nil
	}

	postIDs := make([]int, 0, len(assocs))
	for _, assoc := range assocs {
		postIDs = append(postIDs, assoc.PostID)
	}

	var posts []models.Post
	if err := s.db.Preload("Author").Where("id IN ?", postIDs).Order("created_at desc").Find(&posts).Error; err != nil {
		return nil, err
	}
	return s.assemble(posts, viewerID)
}

// ByAuthor returns one user's posts, newest first.
func (s *Service) ByAuthor(authorID, viewerID int) ([]PostView, error) {
	var posts []models.Post
	if err := s.db.Preload("Author").Where("author_id = ?", authorID).Order("created_at desc").Find(&posts).Error; err != nil {
		return nil, err
	}
	return s.assemble(posts, viewerID)
}

// ByIDs returns post views for an explicit id set, in no particular order.
// Used by the ranking aggregation, which orders by score itself.
func (s *Service) ByIDs(ids []int, viewerID int) ([]PostView, error) {
	if len(ids) == 0 {
		return []PostView{}, nil
	}
	var posts []models.Post
	if err := s.db.Preload("Author").Where("id IN ?", ids).Find(&posts).Error; err != nil {
		return nil, err
	}
	return s.assemble(posts, viewerID)
}

// CommentsForPost returns the enriched comment list for one post.
func (s *Service) CommentsForPost(postID, viewerID int) ([]CommentView, error) {
	var comments []models.Comment
	if err := s.db.Preload("Author").Where("post_id = ?", postID).Find(&comments).Error; err != nil {
		return nil, err
	}
	return s.enrichComments(comments, viewerID)
}

// assemble performs the in-memory join. Any failed fetch aborts the chain;
// partial aggregates are never produced.
func (s *Service) assemble(posts []models.Post, viewerID int) ([]PostView, error) {
	if len(posts) == 0 {
		return []PostView{}, nil
	}

	postIDs := make([]int, 0, len(posts))
	for _, post := range posts {
		postIDs = append(postIDs, post.ID)
	}

	var reactions []models.Reaction
	if err := s.db.Where("post_id IN ?", postIDs).Find(&reactions).Error; err != nil {
		return nil, err
	}

	var comments []models.Comment
	if err := s.db.Preload("Author").Where("post_id IN ?", postIDs).Find(&comments).Error; err != nil {
		return nil, err
	}

	var assocs []models.PostBadge
	if err := s.db.Where("post_id IN ?", postIDs).Find(&assocs).Error; err != nil {
		return nil, err
	}

	badgeByID := map[int]models.Badge{}
	if len(assocs) > 0 {
		badgeIDs := make([]int, 0, len(assocs))
		for _, assoc := range assocs {
			badgeIDs = append(badgeIDs, assoc.BadgeID)
		}

		var badges []models.Badge
		if err := s.db.Where("id IN ?", badgeIDs).Find(&badges).Error; err != nil {
			return nil, err
		}
		for _, badge := range badges {
			badgeByID[badge.ID] = badge
		}
	}

	commentViews, err := s.enrichComments(comments, viewerID)
	if err != nil {
		return nil, err
	}

	commentsByPost := map[int][]CommentView{}
	for _, view := range commentViews {
		commentsByPost[view.PostID] = append(commentsByPost[view.PostID], view)
	}

	likes := map[int]int{}
	unlikes := map[int]int{}
	viewerLiked := map[int]bool{}
	viewerUnliked := map[int]bool{}
	for _, reaction := range reactions {
		switch reaction.Polarity {
		case models.ReactionLike:
			likes[reaction.PostID]++
			if reaction.UserID == viewerID {
				viewerLiked[reaction.PostID] = true
			}
		case models.ReactionUnlike:
			unlikes[reaction.PostID]++
			if reaction.UserID == viewerID {
				viewerUnliked[reaction.PostID] = true
			}
		}
	}

	badgesByPost := map[int][]models.Badge{}
	for _, assoc := range assocs {
		if badge, ok := badgeByID[assoc.BadgeID]; ok {
			badgesByPost[assoc.PostID] = append(badgesByPost[assoc.PostID], badge)
		}
	}

	views := make([]PostView, 0, len(posts))
	for _, post := range posts {
		view := PostView{
			Post:           post,
			Likes:          likes[post.ID],
			Unlikes:        unlikes[post.ID],
			UserHasLiked:   viewerID != 0 && viewerLiked[post.ID],
			UserHasUnliked: viewerID != 0 && viewerUnliked[post.ID],
			Comments:       commentsByPost[post.ID],
			Badges:         badgesByPost[post.ID],
		}
		if view.Comments == nil {
			view.Comments = []CommentView{}
		}
		if view.Badges == nil {
			view.Badges = []models.Badge{}
		}
		views = append(views, view)
	}

	return views, nil
}

func (s *Service) enrichComments(comments []models.Comment, viewerID int) ([]CommentView, error) {
	if len(comments) == 0 {
		return []CommentView{}, nil
	}

	commentIDs := make([]int, 0, len(comments))
	for _, comment := range comments {
		commentIDs = append(commentIDs, comment.ID)
	}

	var reactions []models.Reaction
	if err := s.db.Where("comment_id IN ?", commentIDs).Find(&reactions).Error; err != nil {
		return nil, err
	}

	likes := map[int]int{}
	unlikes := map[int]int{}
	viewerLiked := map[int]bool{}
	viewerUnliked := map[int]bool{}
	for _, reaction := range reactions {
		switch reaction.Polarity {
		case models.ReactionLike:
			likes[reaction.CommentID]++
			if reaction.UserID == viewerID {
				viewerLiked[reaction.CommentID] = true
			}
		case models.ReactionUnlike:
			unlikes[reaction.CommentID]++
			if reaction.UserID == viewerID {
				viewerUnliked[reaction.CommentID] = true
			}
		}
	}

	views := make([]CommentView, 0, len(comments))
	for _, comment := range comments {
		views = append(views, CommentView{
			Comment:        comment,
			Likes:          likes[comment.ID],
			Unlikes:        unlikes[comment.ID],
			UserHasLiked:   viewerID != 0 && viewerLiked[comment.ID],
			UserHasUnliked: viewerID != 0 && viewerUnliked[comment.ID],
		})
	}

	return views, nil
}
