// Package watcher reloads settings when the host writes to the sqlite
// options database behind our back.
package watcher

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
	"github.com/vrsandeep/xwc-settings/internal/jobs"
	"gitlab.com/tozd/go/errors"
)

// DefaultDebounce is how long the watcher waits after the last write
// before reloading.
const DefaultDebounce = 2 * time.Second

// Service watches the database file and its journal files.
type Service struct {
	ctx           jobs.JobContext
	dbPath        string
	watcher       *fsnotify.Watcher
	mu            sync.Mutex
	debounceTimer *time.Timer
	debounceDelay time.Duration
	stopChan      chan struct{}
	stopOnce      sync.Once
	log           zerolog.Logger
}

// NewService creates a watcher for the sqlite database at dbPath.
func NewService(ctx jobs.JobContext, dbPath string, log zerolog.Logger) *Service {
	return &Service{
		ctx:           ctx,
		dbPath:        dbPath,
		debounceDelay: DefaultDebounce,
		stopChan:      make(chan struct{}),
		log:           log.With().Str("component", "watcher").Logger(),
	}
}

// SetDebounce changes the debounce delay. It must be called before Start.
func (w *Service) SetDebounce(d time.Duration) {
	w.debounceDelay = d
}

// Start begins watching the database directory.
func (w *Service) Start() error {
	if w.dbPath == "" || w.dbPath == ":memory:" {
		return errors.New("watching needs an on-disk sqlite database")
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Errorf("creating file watcher: %w", err)
	}
	w.watcher = watcher

	// The database file is replaced and journaled by sqlite, so the
	// directory is watched rather than the file itself.
	dir := filepath.Dir(w.dbPath)
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return errors.Errorf("watching %s: %w", dir, err)
	}

	w.log.Info().Str("path", w.dbPath).Msg("File watcher started for settings database")
	go w.processEvents()
	return nil
}

// Stop stops the watcher and any pending reload.
func (w *Service) Stop() error {
	var err error
	w.stopOnce.Do(func() {
		close(w.stopChan)
		w.mu.Lock()
		if w.debounceTimer != nil {
			w.debounceTimer.Stop()
		}
		w.mu.Unlock()
		if w.watcher != nil {
			err = w.watcher.Close()
		}
	})
	return err
}

func (w *Service) processEvents() {
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.Warn().Err(err).Msg("File watcher error")

		case <-w.stopChan:
			return
		}
	}
}

func (w *Service) handleEvent(event fsnotify.Event) {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Remove) {
		return
	}
	if !w.isDatabaseFile(event.Name) {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
	}
	w.debounceTimer = time.AfterFunc(w.debounceDelay, w.triggerReload)
}

// isDatabaseFile matches the database and the -wal, -shm and -journal
// files sqlite keeps next to it.
func (w *Service) isDatabaseFile(path string) bool {
	base := filepath.Base(w.dbPath)
	name := filepath.Base(path)
	return name == base || strings.HasPrefix(name, base+"-")
}

func (w *Service) triggerReload() {
	select {
	case <-w.stopChan:
		return
	default:
	}
	if _, err := os.Stat(w.dbPath); err != nil {
		w.log.Warn().Err(err).Msg("Settings database disappeared, skipping reload")
		return
	}

	w.log.Debug().Msg("Settings database changed, triggering reload")
	err := w.ctx.JobManager().RunJob(jobs.SettingsReloadJob, w.ctx)
	if errors.Is(err, jobs.ErrJobRunning) {
		// Try again once the running job is done.
		w.mu.Lock()
		w.debounceTimer = time.AfterFunc(w.debounceDelay, w.triggerReload)
		w.mu.Unlock()
		return
	}
	if err != nil {
		w.log.Error().Err(err).Msg("Could not start settings reload")
	}
}
