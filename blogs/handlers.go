// Package blogs exposes the article HTTP surface: generation, owner-scoped
// CRUD over the soft-delete lifecycle, translation, and the share/export
// endpoints.
package blogs

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/blogforge/blogforge-api/internal/logger"
	"github.com/blogforge/blogforge-api/models"
	"github.com/blogforge/blogforge-api/pipeline"
	"github.com/blogforge/blogforge-api/tasks"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// PipelineRunner runs one generation pipeline for a user and link.
type PipelineRunner interface {
	Run(ctx context.Context, userID uint, link string) (*models.BlogPost, error)
}

// TextTranslator performs a single stateless translation call.
type TextTranslator interface {
	Translate(ctx context.Context, text, targetLang string) (string, error)
}

// PostStore is the persistence surface the handlers need.
type PostStore interface {
	Save(ctx context.Context, post *models.BlogPost) error
	GetActiveOwned(ctx context.Context, id, userID uint) (*models.BlogPost, error)
	ListActive(ctx context.Context, userID uint) ([]models.BlogPost, error)
	ListDeleted(ctx context.Context, userID uint) ([]models.BlogPost, error)
	SoftDelete(ctx context.Context, id, userID uint) error
	Restore(ctx context.Context, id, userID uint) error
	HardDelete(ctx context.Context, ids []uint, userID uint) (int64, error)
}

// TaskEnqueuer pushes a task payload onto a named queue.
type TaskEnqueuer interface {
	Enqueue(ctx context.Context, queueName string, payload interface{}) error
}

type Handler struct {
	Posts      PostStore
	Pipeline   PipelineRunner
	Translator TextTranslator
	Queue      TaskEnqueuer
	BaseURL    string

	log *logger.Logger
}

func NewHandler(posts PostStore, pl PipelineRunner, tr TextTranslator, queue TaskEnqueuer, baseURL string) *Handler {
	return &Handler{
		Posts:      posts,
		Pipeline:   pl,
		Translator: tr,
		Queue:      queue,
		BaseURL:    strings.TrimRight(baseURL, "/"),
		log:        logger.New(),
	}
}

type GenerateRequest struct {
	Link string `json:"link" binding:"required,url"`
}

// GenerateBlog runs the whole pipeline synchronously; the request is held
// until the run terminates or fails.
func (h *Handler) GenerateBlog(c *gin.Context) {
	userID := c.GetUint("user_id")

	var req GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid data sent or missing video link."})
		return
	}

	post, err := h.Pipeline.Run(c.Request.Context(), userID, req.Link)
	if err != nil {
		// Full detail stays in server logs; the client only sees the
		// classified kind.
		h.log.WithRequest(c.Request).WithError(err).Error("blog generation failed")
		se := pipeline.AsStageError(err, pipeline.StageGeneration, pipeline.KindGenerationService)
		c.JSON(http.StatusInternalServerError, gin.H{"error": se.ClientMessage()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"content": post.Content})
}

// GenerateBlogAsync creates a pending post and hands the run to the worker.
func (h *Handler) GenerateBlogAsync(c *gin.Context) {
	userID := c.GetUint("user_id")

	var req GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid data sent or missing video link."})
		return
	}

	post := &models.BlogPost{
		UserID:     userID,
		SourceLink: req.Link,
		Status:     models.BlogStatusPending,
	}
	if err := h.Posts.Save(c.Request.Context(), post); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create blog record"})
		return
	}

	task := tasks.BlogGenerateTaskPayload{BlogID: post.ID}
	if err := h.Queue.Enqueue(c.Request.Context(), tasks.QueueBlogGenerate, task); err != nil {
		h.log.WithError(err).Error("failed to enqueue generation task")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to queue generation"})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"id": post.ID, "status": post.Status})
}

// ListBlogs returns the user's active posts.
func (h *Handler) ListBlogs(c *gin.Context) {
	userID := c.GetUint("user_id")

	posts, err := h.Posts.ListActive(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve blogs"})
		return
	}
	c.JSON(http.StatusOK, posts)
}

// GetBlog returns one active post owned by the user.
func (h *Handler) GetBlog(c *gin.Context) {
	userID := c.GetUint("user_id")
	id, ok := h.blogID(c)
	if !ok {
		return
	}

	post, err := h.Posts.GetActiveOwned(c.Request.Context(), id, userID)
	if err != nil {
		h.notFoundOrError(c, err)
		return
	}
	c.JSON(http.StatusOK, post)
}

// DeleteBlog soft-deletes an active owned post.
func (h *Handler) DeleteBlog(c *gin.Context) {
	userID := c.GetUint("user_id")
	id, ok := h.blogID(c)
	if !ok {
		return
	}

	if err := h.Posts.SoftDelete(c.Request.Context(), id, userID); err != nil {
		h.notFoundOrError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// ListDeletedBlogs returns the user's recently deleted posts.
func (h *Handler) ListDeletedBlogs(c *gin.Context) {
	userID := c.GetUint("user_id")

	posts, err := h.Posts.ListDeleted(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve deleted blogs"})
		return
	}
	c.JSON(http.StatusOK, posts)
}

// RestoreBlog brings a soft-deleted post back to active.
func (h *Handler) RestoreBlog(c *gin.Context) {
	userID := c.GetUint("user_id")
	id, ok := h.blogID(c)
	if !ok {
		return
	}

	if err := h.Posts.Restore(c.Request.Context(), id, userID); err != nil {
		h.notFoundOrError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

type PermanentDeleteRequest struct {
	BlogIDs []uint `json:"blog_ids" binding:"required"`
}

// PermanentDeleteBlogs removes selected soft-deleted posts for good.
func (h *Handler) PermanentDeleteBlogs(c *gin.Context) {
	userID := c.GetUint("user_id")

	var req PermanentDeleteRequest
	if err := c.ShouldBindJSON(&req); err != nil || len(req.BlogIDs) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No blogs selected"})
		return
	}

	deleted, err := h.Posts.HardDelete(c.Request.Context(), req.BlogIDs, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete blogs"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": deleted})
}

type TranslateRequest struct {
	Text       string `json:"text"`
	TargetLang string `json:"target_lang"`
}

// TranslateBlog translates arbitrary text into the target language.
func (h *Handler) TranslateBlog(c *gin.Context) {
	var req TranslateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No text provided"})
		return
	}
	if req.TargetLang == "" {
		req.TargetLang = "en"
	}

	translated, err := h.Translator.Translate(c.Request.Context(), req.Text, req.TargetLang)
	if err != nil {
		h.log.WithError(err).Error("translation failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Translation failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"translated_text": translated})
}

func (h *Handler) blogID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid blog ID"})
		return 0, false
	}
	return uint(id), true
}

func (h *Handler) notFoundOrError(c *gin.Context, err error) {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Blog not found"})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
}
