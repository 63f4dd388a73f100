package worker

import (
	"context"
	"errors"
	"testing"

	"github.com/blogforge/blogforge-api/models"
	"github.com/blogforge/blogforge-api/tasks"
)

type fakePostStore struct {
	posts   map[uint]*models.BlogPost
	updates []string
	getErr  error
}

func (f *fakePostStore) Get(ctx context.Context, id uint) (*models.BlogPost, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	p, ok := f.posts[id]
	if !ok {
		return nil, errors.New("record not found")
	}
	cp := *p
	return &cp, nil
}

func (f *fakePostStore) Update(ctx context.Context, post *models.BlogPost) error {
	cp := *post
	f.posts[post.ID] = &cp
	f.updates = append(f.updates, post.Status)
	return nil
}

type fakeGenPipeline struct {
	post *models.BlogPost
	err  error
}

func (f *fakeGenPipeline) Generate(ctx context.Context, userID uint, link string) (*models.BlogPost, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.post, nil
}

func payloadFor(t *testing.T, blogID uint) string {
	t.Helper()
	s, err := tasks.Marshal(tasks.BlogGenerateTaskPayload{BlogID: blogID})
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	return s
}

func TestHandleBlogGenerationSuccess(t *testing.T) {
	store := &fakePostStore{posts: map[uint]*models.BlogPost{
		3: {ID: 3, UserID: 7, SourceLink: "https://example.com/v", Status: models.BlogStatusPending},
	}}
	gen := &Generation{
		Posts: store,
		Pipeline: &fakeGenPipeline{post: &models.BlogPost{
			Title:   "Resolved Title",
			Content: "Generated body.",
		}},
	}
	handler := gen.HandleBlogGeneration(NewProcessor(nil))

	if err := handler(context.Background(), payloadFor(t, 3)); err != nil {
		t.Fatalf("handler error = %v", err)
	}

	got := store.posts[3]
	if got.Status != models.BlogStatusComplete {
		t.Errorf("status = %q", got.Status)
	}
	if got.Title != "Resolved Title" || got.Content != "Generated body." {
		t.Errorf("result not copied onto row: %+v", got)
	}
	// Processing first, then complete.
	if len(store.updates) != 2 || store.updates[0] != models.BlogStatusProcessing {
		t.Errorf("update sequence = %v", store.updates)
	}
}

func TestHandleBlogGenerationPipelineFailureMarksFailed(t *testing.T) {
	store := &fakePostStore{posts: map[uint]*models.BlogPost{
		3: {ID: 3, UserID: 7, SourceLink: "https://example.com/v", Status: models.BlogStatusPending},
	}}
	runErr := errors.New("transcription unavailable")
	gen := &Generation{Posts: store, Pipeline: &fakeGenPipeline{err: runErr}}
	handler := gen.HandleBlogGeneration(NewProcessor(nil))

	if err := handler(context.Background(), payloadFor(t, 3)); !errors.Is(err, runErr) {
		t.Fatalf("handler error = %v, want pipeline error", err)
	}
	if store.posts[3].Status != models.BlogStatusFailed {
		t.Errorf("status = %q, want failed", store.posts[3].Status)
	}
}

func TestHandleBlogGenerationSkipsNonPending(t *testing.T) {
	store := &fakePostStore{posts: map[uint]*models.BlogPost{
		3: {ID: 3, Status: models.BlogStatusComplete, Content: "already done"},
	}}
	gen := &Generation{Posts: store, Pipeline: &fakeGenPipeline{post: &models.BlogPost{Content: "new"}}}
	handler := gen.HandleBlogGeneration(NewProcessor(nil))

	if err := handler(context.Background(), payloadFor(t, 3)); err != nil {
		t.Fatalf("handler error = %v", err)
	}
	if len(store.updates) != 0 {
		t.Errorf("non-pending post was touched: updates = %v", store.updates)
	}
	if store.posts[3].Content != "already done" {
		t.Error("completed post overwritten")
	}
}

func TestHandleBlogGenerationBadPayload(t *testing.T) {
	gen := &Generation{Posts: &fakePostStore{posts: map[uint]*models.BlogPost{}}, Pipeline: &fakeGenPipeline{}}
	handler := gen.HandleBlogGeneration(NewProcessor(nil))

	if err := handler(context.Background(), "{not json"); err == nil {
		t.Fatal("expected error for malformed payload")
	}
}
