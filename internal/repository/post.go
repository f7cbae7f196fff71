package repository

import (
	"context"
	"errors"

	"guildboard/internal/models"
	"guildboard/internal/observability"

	"gorm.io/gorm"
)

// PostRepository defines persistence operations for community posts,
// likes, and comments.
type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	GetByID(ctx context.Context, id uint) (*models.Post, error)
	ListByCommunity(ctx context.Context, communityID uint, limit, offset int) ([]*models.Post, error)
	Delete(ctx context.Context, id uint) error
	Like(ctx context.Context, userID, postID uint) (int64, error)
	Unlike(ctx context.Context, userID, postID uint) (int64, error)
	LikeCount(ctx context.Context, postID uint) (int64, error)
	CreateComment(ctx context.Context, comment *models.Comment) error
	ListComments(ctx context.Context, postID uint, limit, offset int) ([]models.Comment, error)
}

type postRepository struct {
	db *gorm.DB
}

// NewPostRepository returns a new PostRepository implementation.
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db}
}

func (r *postRepository) Create(ctx context.Context, post *models.Post) error {
	if err := r.db.WithContext(ctx).Create(post).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *postRepository) GetByID(ctx context.Context, id uint) (*models.Post, error) {
	var post models.Post
	if err := r.withCounts(r.db.WithContext(ctx)).
		Preload("User").
		First(&post, "posts.id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Post", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &post, nil
}

func (r *postRepository) ListByCommunity(ctx context.Context, communityID uint, limit, offset int) ([]*models.Post, error) {
	var posts []*models.Post
	if err := r.withCounts(r.db.WithContext(ctx)).
		Preload("User").
		Where("posts.community_id = ?", communityID).
		Order("posts.created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&posts).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return posts, nil
}

// Delete soft-deletes the post and removes its likes and comments, so the
// community's post listing and the like/comment counts stay consistent.
func (r *postRepository) Delete(ctx context.Context, id uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("post_id = ?", id).Delete(&models.Like{}).Error; err != nil {
			return err
		}
		if err := tx.Where("post_id = ?", id).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Post{}, id).Error
	})
	if err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

// Like records a like and returns the updated like count. A duplicate like is
// a conflict.
func (r *postRepository) Like(ctx context.Context, userID, postID uint) (int64, error) {
	defer observability.TrackQuery("like", "likes")()

	like := models.Like{UserID: userID, PostID: postID}
	if err := r.db.WithContext(ctx).Create(&like).Error; err != nil {
		if isUniqueConstraintError(err) {
			observability.ToggleOperations.WithLabelValues("like", "rejected").Inc()
			return 0, models.NewConflictError("Already liked this post")
		}
		observability.ToggleOperations.WithLabelValues("like", "error").Inc()
		return 0, models.NewInternalError(err)
	}
	observability.ToggleOperations.WithLabelValues("like", "ok").Inc()
	return r.LikeCount(ctx, postID)
}

// Unlike removes a like and returns the updated like count. Unliking a post
// that was never liked is a conflict.
func (r *postRepository) Unlike(ctx context.Context, userID, postID uint) (int64, error) {
	defer observability.TrackQuery("unlike", "likes")()

	res := r.db.WithContext(ctx).
		Where("user_id = ? AND post_id = ?", userID, postID).
		Delete(&models.Like{})
	if res.Error != nil {
		observability.ToggleOperations.WithLabelValues("unlike", "error").Inc()
		return 0, models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		observability.ToggleOperations.WithLabelValues("unlike", "rejected").Inc()
		return 0, models.NewConflictError("Post not liked")
	}
	observability.ToggleOperations.WithLabelValues("unlike", "ok").Inc()
	return r.LikeCount(ctx, postID)
}

func (r *postRepository) LikeCount(ctx context.Context, postID uint) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.Like{}).
		Where("post_id = ?", postID).
		Count(&count).Error; err != nil {
		return 0, models.NewInternalError(err)
	}
	return count, nil
}

func (r *postRepository) CreateComment(ctx context.Context, comment *models.Comment) error {
	if err := r.db.WithContext(ctx).Create(comment).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *postRepository) ListComments(ctx context.Context, postID uint, limit, offset int) ([]models.Comment, error) {
	var comments []models.Comment
	if err := r.db.WithContext(ctx).
		Preload("User").
		Where("post_id = ?", postID).
		Order("created_at ASC").
		Limit(limit).
		Offset(offset).
		Find(&comments).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return comments, nil
}

// withCounts annotates post rows with like and comment counts.
func (r *postRepository) withCounts(db *gorm.DB) *gorm.DB {
	return db.Model(&models.Post{}).
		Select("posts.*, " +
			"(SELECT COUNT(*) FROM likes l WHERE l.post_id = posts.id) AS likes_count, " +
			"(SELECT COUNT(*) FROM comments c WHERE c.post_id = posts.id) AS comments_count")
}
