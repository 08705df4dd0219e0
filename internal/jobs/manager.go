package jobs

import (
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/vrsandeep/xwc-settings/internal/config"
	"github.com/vrsandeep/xwc-settings/internal/settings"
	"github.com/vrsandeep/xwc-settings/internal/websocket"
	"gitlab.com/tozd/go/errors"
)

var (
	ErrJobRunning  = errors.Base("a job is already running")
	ErrJobNotFound = errors.Base("job not found")
)

// JobContext is an interface that provides the necessary dependencies for a job to run.
// The core.App struct will implement this interface.
type JobContext interface {
	Config() *config.Config
	Settings() settings.Config
	WsHub() *websocket.Hub
	JobManager() *JobManager
}

type jobTask func(ctx JobContext) error

type JobStatus struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Status    string    `json:"status"` // "idle", "running", "success", "failed"
	Message   string    `json:"message"`
	StartTime time.Time `json:"start_time,omitempty"`
	EndTime   time.Time `json:"end_time,omitempty"`
}

type JobManager struct {
	mu      sync.Mutex
	jobs    map[string]jobTask
	status  map[string]*JobStatus
	running bool
	wg      sync.WaitGroup
	log     zerolog.Logger
}

func NewManager(log zerolog.Logger) *JobManager {
	return &JobManager{
		jobs:   make(map[string]jobTask),
		status: make(map[string]*JobStatus),
		log:    log.With().Str("component", "jobs").Logger(),
	}
}

func (jm *JobManager) Register(id, name string, task jobTask) {
	jm.mu.Lock()
	defer jm.mu.Unlock()
	jm.jobs[id] = task
	jm.status[id] = &JobStatus{ID: id, Name: name, Status: "idle"}
}

// RunJob starts a registered job in the background. Only one job runs at
// a time.
func (jm *JobManager) RunJob(id string, ctx JobContext) error {
	jm.mu.Lock()
	if jm.running {
		jm.mu.Unlock()
		return ErrJobRunning
	}

	task, ok := jm.jobs[id]
	if !ok {
		jm.mu.Unlock()
		return errors.Errorf("%w: %q", ErrJobNotFound, id)
	}

	jm.running = true
	status := jm.status[id]
	status.Status = "running"
	status.StartTime = time.Now()
	status.EndTime = time.Time{}
	status.Message = "Job started..."
	jm.wg.Add(1)
	jm.mu.Unlock()

	jm.log.Info().Str("job", id).Msg("Starting job")
	go func() {
		var err error
		defer func() {
			if r := recover(); r != nil {
				err = errors.Errorf("job panicked: %v", r)
			}

			jm.mu.Lock()
			status.EndTime = time.Now()
			if err != nil {
				jm.log.Error().Err(err).Str("job", id).Msg("Job failed")
				status.Status = "failed"
				status.Message = err.Error()
			} else {
				status.Status = "success"
				status.Message = "Job completed successfully."
			}
			snapshot := *status
			jm.running = false
			jm.mu.Unlock()

			if hub := ctx.WsHub(); hub != nil {
				hub.Broadcast(websocket.EventJobStatus, snapshot)
			}
			jm.log.Info().Str("job", id).Dur("took", snapshot.EndTime.Sub(snapshot.StartTime)).Msg("Finished job")
			jm.wg.Done()
		}()

		err = task(ctx)
	}()
	return nil
}

// Wait blocks until no job is running.
func (jm *JobManager) Wait() {
	jm.wg.Wait()
}

// GetStatus returns a snapshot of every job, sorted by id.
func (jm *JobManager) GetStatus() []JobStatus {
	jm.mu.Lock()
	defer jm.mu.Unlock()

	statuses := make([]JobStatus, 0, len(jm.status))
	for _, s := range jm.status {
		statuses = append(statuses, *s)
	}
	sort.Slice(statuses, func(i, j int) bool { return statuses[i].ID < statuses[j].ID })
	return statuses
}
