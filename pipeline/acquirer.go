package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/blogforge/blogforge-api/internal/config"
	"github.com/blogforge/blogforge-api/internal/logger"
	"github.com/google/uuid"
)

// UnknownTitle is the fallback when metadata lookup fails. Title resolution
// is never fatal to an acquisition.
const UnknownTitle = "Unknown Title"

// audioExtensions are probed when the downloader reports a path that does not
// exist, which happens when the container extension changes between the
// predicted and the written file.
var audioExtensions = []string{".webm", ".m4a", ".opus", ".mp3"}

// commandResult is an internal process execution response.
type commandResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// commandRunner abstracts process execution for testability.
type commandRunner interface {
	Run(ctx context.Context, name string, args ...string) (commandResult, error)
}

// execRunner executes commands via os/exec.
type execRunner struct{}

func (r *execRunner) Run(ctx context.Context, name string, args ...string) (commandResult, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	result := commandResult{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}
	if err != nil {
		result.ExitCode = -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
		}
		return result, err
	}
	return result, nil
}

// Acquisition is the acquirer's output: resolved title plus the scratch
// audio handle, whose lifetime the caller now owns.
type Acquisition struct {
	Title string
	Audio *TempAudio
}

// Acquirer resolves a video link to a downloaded audio file via yt-dlp.
type Acquirer struct {
	ytdlp       string
	scratchRoot string
	timeout     time.Duration

	runner   commandRunner
	newRunID func() string
	stat     func(name string) (os.FileInfo, error)
	log      *logger.Logger
}

// NewAcquirer constructs the production acquirer.
func NewAcquirer(cfg config.Config) *Acquirer {
	return &Acquirer{
		ytdlp:       cfg.YTDLPPath,
		scratchRoot: cfg.MediaDir,
		timeout:     cfg.AcquireTimeout,
		runner:      &execRunner{},
		newRunID:    func() string { return uuid.New().String() },
		stat:        os.Stat,
		log:         logger.New(),
	}
}

// NewAcquirerForTests constructs an acquirer with injected dependencies.
func NewAcquirerForTests(ytdlp, scratchRoot string, runner commandRunner, newRunID func() string) *Acquirer {
	return &Acquirer{
		ytdlp:       ytdlp,
		scratchRoot: scratchRoot,
		runner:      runner,
		newRunID:    newRunID,
		stat:        os.Stat,
		log:         logger.New(),
	}
}

// Title resolves the video title. Any failure falls back to UnknownTitle.
func (a *Acquirer) Title(ctx context.Context, link string) string {
	res, err := a.runner.Run(ctx, a.ytdlp,
		"--no-warnings",
		"--no-playlist",
		"--skip-download",
		"--print", "title",
		link,
	)
	if err != nil {
		a.log.WithError(err).WithField("link", link).Warn("title lookup failed, using fallback")
		return UnknownTitle
	}
	title := strings.TrimSpace(res.Stdout)
	if title == "" {
		return UnknownTitle
	}
	return title
}

// Acquire resolves the title and downloads the best audio-only stream into a
// per-run scratch directory. On success the caller owns the returned handle.
func (a *Acquirer) Acquire(ctx context.Context, link string) (Acquisition, error) {
	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	title := a.Title(ctx, link)

	runDir := filepath.Join(a.scratchRoot, a.newRunID())
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		return Acquisition{}, stageErr(StageAcquisition, KindAcquisition,
			"cannot create scratch directory", err)
	}

	outTmpl := filepath.Join(runDir, sanitizeFilename(title)+".%(ext)s")
	res, err := a.runner.Run(ctx, a.ytdlp,
		"--no-warnings",
		"--no-playlist",
		"-f", "bestaudio/best",
		"-o", outTmpl,
		"--no-simulate",
		"--print", "after_move:filepath",
		link,
	)
	if err != nil {
		_ = os.RemoveAll(runDir)
		a.log.WithError(err).WithField("link", link).WithField("stderr", res.Stderr).
			Error("audio download failed")
		return Acquisition{}, stageErr(StageAcquisition, KindAcquisition,
			"audio download failed", err)
	}

	audioPath, err := a.locateAudio(res.Stdout, runDir, title)
	if err != nil {
		_ = os.RemoveAll(runDir)
		return Acquisition{}, stageErr(StageAcquisition, KindAcquisition,
			"no audio file found after download", err)
	}

	return Acquisition{
		Title: title,
		Audio: NewTempAudio(audioPath, runDir),
	}, nil
}

// locateAudio resolves the written file: first the path yt-dlp printed, then
// the title with each known audio extension.
func (a *Acquirer) locateAudio(stdout, runDir, title string) (string, error) {
	printed := lastLine(stdout)
	if printed != "" {
		if _, err := a.stat(printed); err == nil {
			return printed, nil
		}
	}

	base := filepath.Join(runDir, sanitizeFilename(title))
	for _, ext := range audioExtensions {
		candidate := base + ext
		if _, err := a.stat(candidate); err == nil {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("no audio file matching %q in %s", title, runDir)
}

func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	if len(lines) == 0 {
		return ""
	}
	return strings.TrimSpace(lines[len(lines)-1])
}

// sanitizeFilename strips path separators and characters that are unsafe in
// filenames. Uniqueness comes from the run directory, not the name.
func sanitizeFilename(name string) string {
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|', 0:
			return '_'
		}
		return r
	}, name)
	cleaned = strings.TrimSpace(cleaned)
	if cleaned == "" {
		return "audio"
	}
	return cleaned
}
