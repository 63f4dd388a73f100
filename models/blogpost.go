package models

import (
	"time"
)

// BlogPost is an article generated from a video link. A post is created
// complete on pipeline success or not at all; afterwards only its delete
// lifecycle changes.
type BlogPost struct {
	ID     uint `gorm:"primaryKey" json:"id"`
	UserID uint `gorm:"not null;index" json:"user_id"`
	User   User `gorm:"foreignKey:UserID" json:"-"`

	Title      string `gorm:"size:300" json:"title"`
	SourceLink string `gorm:"not null" json:"source_link"`
	Content    string `gorm:"type:text" json:"content"`

	// Status tracks async generation: pending, processing, complete, failed.
	// Synchronously generated posts are created complete.
	Status string `gorm:"default:'complete'" json:"status"`

	CreatedAt time.Time `json:"created_at"`

	// Soft delete. Nil means active. Kept as an explicit column with explicit
	// query scopes in the store rather than an auto-filtered gorm.DeletedAt.
	DeletedAt *time.Time `gorm:"index" json:"deleted_at,omitempty"`
}

func (BlogPost) TableName() string {
	return "blogposts"
}

// IsDeleted reports whether the post is in the recently-deleted state.
func (b *BlogPost) IsDeleted() bool {
	return b.DeletedAt != nil
}

const (
	BlogStatusPending    = "pending"
	BlogStatusProcessing = "processing"
	BlogStatusComplete   = "complete"
	BlogStatusFailed     = "failed"
)
