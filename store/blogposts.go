// Package store holds owner-scoped persistence for blog posts. Every query
// filters by user id; soft delete is an explicit deleted_at scope, never an
// implicit default filter.
package store

import (
	"context"
	"time"

	"github.com/blogforge/blogforge-api/models"
	"gorm.io/gorm"
)

type BlogPosts struct {
	DB *gorm.DB
}

func NewBlogPosts(db *gorm.DB) *BlogPosts {
	return &BlogPosts{DB: db}
}

// Save inserts a fully built post.
func (s *BlogPosts) Save(ctx context.Context, post *models.BlogPost) error {
	return s.DB.WithContext(ctx).Create(post).Error
}

// Update persists changes to an existing post.
func (s *BlogPosts) Update(ctx context.Context, post *models.BlogPost) error {
	return s.DB.WithContext(ctx).Save(post).Error
}

// Get loads a post by id regardless of owner or delete state. Used by the
// async worker, which resolves ownership from the task payload.
func (s *BlogPosts) Get(ctx context.Context, id uint) (*models.BlogPost, error) {
	var post models.BlogPost
	if err := s.DB.WithContext(ctx).First(&post, id).Error; err != nil {
		return nil, err
	}
	return &post, nil
}

// GetActiveOwned loads an active (not soft-deleted) post owned by the user.
func (s *BlogPosts) GetActiveOwned(ctx context.Context, id, userID uint) (*models.BlogPost, error) {
	var post models.BlogPost
	err := s.DB.WithContext(ctx).
		Where("id = ? AND user_id = ? AND deleted_at IS NULL", id, userID).
		First(&post).Error
	if err != nil {
		return nil, err
	}
	return &post, nil
}

// GetDeletedOwned loads a soft-deleted post owned by the user.
func (s *BlogPosts) GetDeletedOwned(ctx context.Context, id, userID uint) (*models.BlogPost, error) {
	var post models.BlogPost
	err := s.DB.WithContext(ctx).
		Where("id = ? AND user_id = ? AND deleted_at IS NOT NULL", id, userID).
		First(&post).Error
	if err != nil {
		return nil, err
	}
	return &post, nil
}

// ListActive returns the user's active posts, newest first.
func (s *BlogPosts) ListActive(ctx context.Context, userID uint) ([]models.BlogPost, error) {
	var posts []models.BlogPost
	err := s.DB.WithContext(ctx).
		Where("user_id = ? AND deleted_at IS NULL", userID).
		Order("created_at DESC").
		Find(&posts).Error
	return posts, err
}

// ListDeleted returns the user's recently deleted posts, most recently
// deleted first.
func (s *BlogPosts) ListDeleted(ctx context.Context, userID uint) ([]models.BlogPost, error) {
	var posts []models.BlogPost
	err := s.DB.WithContext(ctx).
		Where("user_id = ? AND deleted_at IS NOT NULL", userID).
		Order("deleted_at DESC").
		Find(&posts).Error
	return posts, err
}

// SoftDelete stamps deleted_at on an active owned post. Returns
// gorm.ErrRecordNotFound if there is no matching active post.
func (s *BlogPosts) SoftDelete(ctx context.Context, id, userID uint) error {
	res := s.DB.WithContext(ctx).
		Model(&models.BlogPost{}).
		Where("id = ? AND user_id = ? AND deleted_at IS NULL", id, userID).
		Update("deleted_at", time.Now())
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Restore clears deleted_at on a soft-deleted owned post.
func (s *BlogPosts) Restore(ctx context.Context, id, userID uint) error {
	res := s.DB.WithContext(ctx).
		Model(&models.BlogPost{}).
		Where("id = ? AND user_id = ? AND deleted_at IS NOT NULL", id, userID).
		Update("deleted_at", nil)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// HardDelete permanently removes soft-deleted owned posts by id. Active posts
// are never hard-deleted directly; they must be soft-deleted first.
func (s *BlogPosts) HardDelete(ctx context.Context, ids []uint, userID uint) (int64, error) {
	res := s.DB.WithContext(ctx).
		Where("id IN ? AND user_id = ? AND deleted_at IS NOT NULL", ids, userID).
		Delete(&models.BlogPost{})
	return res.RowsAffected, res.Error
}

// PurgeDeletedBefore permanently removes posts soft-deleted before the cutoff,
// across all users. Used by the retention scheduler.
func (s *BlogPosts) PurgeDeletedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res := s.DB.WithContext(ctx).
		Where("deleted_at IS NOT NULL AND deleted_at < ?", cutoff).
		Delete(&models.BlogPost{})
	return res.RowsAffected, res.Error
}
