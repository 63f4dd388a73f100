package pipeline

import (
	"os"
	"sync"
	"sync/atomic"
)

// TempAudio is the downloaded audio file for one pipeline run. The whole
// run-scoped scratch directory goes away when the handle is released.
type TempAudio struct {
	Path string

	dir     string
	once    sync.Once
	relErr  error
	relDone atomic.Bool
}

// NewTempAudio wraps a downloaded file inside its run directory.
func NewTempAudio(path, dir string) *TempAudio {
	return &TempAudio{Path: path, dir: dir}
}

// Release deletes the scratch directory. Safe to call more than once; only
// the first call touches the filesystem.
func (t *TempAudio) Release() error {
	t.once.Do(func() {
		t.relErr = os.RemoveAll(t.dir)
		t.relDone.Store(true)
	})
	return t.relErr
}

// Released reports whether Release has run. Safe to call from another
// goroutine than the one releasing.
func (t *TempAudio) Released() bool {
	return t.relDone.Load()
}
