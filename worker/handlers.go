package worker

import (
	"context"
	"encoding/json"

	"github.com/blogforge/blogforge-api/models"
	"github.com/blogforge/blogforge-api/tasks"
)

// PipelineRunner runs the generation stages without persisting; the worker
// owns the row it writes the result into.
type PipelineRunner interface {
	Generate(ctx context.Context, userID uint, link string) (*models.BlogPost, error)
}

// PostStore is the slice of the blog store the worker needs.
type PostStore interface {
	Get(ctx context.Context, id uint) (*models.BlogPost, error)
	Update(ctx context.Context, post *models.BlogPost) error
}

// Generation ties the processor to the pipeline and the post store.
type Generation struct {
	Posts    PostStore
	Pipeline PipelineRunner
}

// HandleBlogGeneration processes tasks from QueueBlogGenerate: it loads the
// pending row, runs the pipeline, and copies the result (or failure status)
// back onto the row.
func (g *Generation) HandleBlogGeneration(p *Processor) TaskHandler {
	return func(ctx context.Context, payload string) error {
		var task tasks.BlogGenerateTaskPayload
		if err := json.Unmarshal([]byte(payload), &task); err != nil {
			return err
		}

		post, err := g.Posts.Get(ctx, task.BlogID)
		if err != nil {
			return err
		}
		if post.Status != models.BlogStatusPending {
			p.log.WithField("blog_id", post.ID).WithField("status", post.Status).
				Warn("skipping task for non-pending blog")
			return nil
		}

		post.Status = models.BlogStatusProcessing
		if err := g.Posts.Update(ctx, post); err != nil {
			return err
		}

		generated, runErr := g.Pipeline.Generate(ctx, post.UserID, post.SourceLink)
		if runErr != nil {
			post.Status = models.BlogStatusFailed
			if err := g.Posts.Update(ctx, post); err != nil {
				return err
			}
			return runErr
		}

		post.Title = generated.Title
		post.Content = generated.Content
		post.Status = models.BlogStatusComplete
		return g.Posts.Update(ctx, post)
	}
}
