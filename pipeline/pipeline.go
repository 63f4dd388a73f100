// Package pipeline implements the staged video-to-article generation chain:
// acquisition, transcription, generation, persistence. Each stage returns an
// ordinary error value; the orchestrator short-circuits on the first failure
// and persists only on full success.
package pipeline

import (
	"context"
	"strings"

	"github.com/blogforge/blogforge-api/internal/config"
	"github.com/blogforge/blogforge-api/internal/logger"
	"github.com/blogforge/blogforge-api/models"
	"github.com/sirupsen/logrus"
)

type audioAcquirer interface {
	Acquire(ctx context.Context, link string) (Acquisition, error)
}

type audioTranscriber interface {
	Transcribe(ctx context.Context, audio *TempAudio) (string, error)
}

type articleGenerator interface {
	Generate(ctx context.Context, transcript string) (string, error)
}

// PostSaver is the persistence sink. Called once per run, on full success.
type PostSaver interface {
	Save(ctx context.Context, post *models.BlogPost) error
}

// Pipeline sequences the stages for one generation run.
type Pipeline struct {
	acquirer    audioAcquirer
	transcriber audioTranscriber
	generator   articleGenerator
	posts       PostSaver
	log         *logger.Logger
}

// New wires the production stages from configuration.
func New(cfg config.Config, posts PostSaver) *Pipeline {
	return &Pipeline{
		acquirer:    NewAcquirer(cfg),
		transcriber: NewTranscriber(cfg.Transcription),
		generator:   NewGenerator(cfg.Generation),
		posts:       posts,
		log:         logger.New(),
	}
}

// NewForTests wires injected stages.
func NewForTests(acquirer audioAcquirer, transcriber audioTranscriber, generator articleGenerator, posts PostSaver) *Pipeline {
	return &Pipeline{
		acquirer:    acquirer,
		transcriber: transcriber,
		generator:   generator,
		posts:       posts,
		log:         logger.New(),
	}
}

// Run executes the full chain for one link on behalf of one user. On success
// exactly one complete post has been persisted; on failure the returned error
// is always a *StageError and nothing has been written.
func (p *Pipeline) Run(ctx context.Context, userID uint, link string) (*models.BlogPost, error) {
	post, err := p.Generate(ctx, userID, link)
	if err != nil {
		return nil, err
	}

	if err := p.posts.Save(ctx, post); err != nil {
		se := stageErr(StagePersistence, KindPersistence, "saving article", err)
		p.log.WithError(se).Error("persistence stage failed")
		return nil, se
	}

	p.log.WithFields(logrus.Fields{"user_id": userID, "blog_id": post.ID}).Info("pipeline complete")
	return post, nil
}

// Generate runs the remote stages only, without persisting. The async worker
// uses this and writes the result onto its own pre-created row.
func (p *Pipeline) Generate(ctx context.Context, userID uint, link string) (*models.BlogPost, error) {
	log := p.log.WithFields(logrus.Fields{"user_id": userID, "link": link})

	acq, err := p.acquirer.Acquire(ctx, link)
	if err != nil {
		se := AsStageError(err, StageAcquisition, KindAcquisition)
		log.WithError(se).Error("acquisition stage failed")
		return nil, se
	}
	log.WithField("title", acq.Title).Info("audio acquired")

	// The transcriber owns the scratch audio from here; it releases the
	// handle on every exit path.
	transcript, err := p.transcriber.Transcribe(ctx, acq.Audio)
	if err != nil {
		se := AsStageError(err, StageTranscription, KindTranscriptionService)
		log.WithError(se).Error("transcription stage failed")
		return nil, se
	}
	if strings.TrimSpace(transcript) == "" {
		se := stageErr(StageTranscription, KindTranscriptionService, "empty result", nil)
		log.WithError(se).Error("transcription stage returned empty text")
		return nil, se
	}
	log.WithField("transcript_chars", len(transcript)).Info("transcription complete")

	content, err := p.generator.Generate(ctx, transcript)
	if err != nil {
		se := AsStageError(err, StageGeneration, KindGenerationService)
		log.WithError(se).Error("generation stage failed")
		return nil, se
	}
	if strings.TrimSpace(content) == "" {
		se := stageErr(StageGeneration, KindGenerationParse, "empty article body", nil)
		log.WithError(se).Error("generation stage returned empty body")
		return nil, se
	}

	return &models.BlogPost{
		UserID:     userID,
		Title:      acq.Title,
		SourceLink: link,
		Content:    content,
		Status:     models.BlogStatusComplete,
	}, nil
}
