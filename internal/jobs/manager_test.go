package jobs_test

import (
	"context"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vrsandeep/xwc-settings/internal/config"
	"github.com/vrsandeep/xwc-settings/internal/jobs"
	"github.com/vrsandeep/xwc-settings/internal/models"
	"github.com/vrsandeep/xwc-settings/internal/settings"
	"github.com/vrsandeep/xwc-settings/internal/websocket"
	"gitlab.com/tozd/go/errors"
)

type fakeJobContext struct {
	cfg    *config.Config
	repo   settings.Config
	ws     *websocket.Hub
	jobMgr *jobs.JobManager
}

func (f *fakeJobContext) Config() *config.Config       { return f.cfg }
func (f *fakeJobContext) Settings() settings.Config    { return f.repo }
func (f *fakeJobContext) WsHub() *websocket.Hub        { return f.ws }
func (f *fakeJobContext) JobManager() *jobs.JobManager { return f.jobMgr }

func newFakeContext() *fakeJobContext {
	ctx := &fakeJobContext{cfg: &config.Config{}, ws: websocket.NewHub()}
	ctx.jobMgr = jobs.NewManager(zerolog.Nop())
	return ctx
}

func TestManager_NewManager(t *testing.T) {
	mgr := jobs.NewManager(zerolog.Nop())
	assert.NotNil(t, mgr)
	assert.Empty(t, mgr.GetStatus())
}

func TestManager_RegisterAndGetStatus(t *testing.T) {
	mgr := jobs.NewManager(zerolog.Nop())
	mgr.Register("jobB", "Job B", func(ctx jobs.JobContext) error { return nil })
	mgr.Register("jobA", "Job A", func(ctx jobs.JobContext) error { return nil })

	statuses := mgr.GetStatus()
	require.Len(t, statuses, 2)
	assert.Equal(t, "jobA", statuses[0].ID)
	assert.Equal(t, "Job A", statuses[0].Name)
	assert.Equal(t, "idle", statuses[0].Status)
	assert.Equal(t, "jobB", statuses[1].ID)
}

func TestManager_RunJob_SuccessAndStatus(t *testing.T) {
	ctx := newFakeContext()
	var called bool
	ctx.jobMgr.Register("jobX", "Job X", func(ctx jobs.JobContext) error { called = true; return nil })

	require.NoError(t, ctx.jobMgr.RunJob("jobX", ctx))
	ctx.jobMgr.Wait()

	assert.True(t, called)
	status := ctx.jobMgr.GetStatus()[0]
	assert.Equal(t, "success", status.Status)
	assert.False(t, status.EndTime.Before(status.StartTime))
}

func TestManager_RunJob_Failure(t *testing.T) {
	ctx := newFakeContext()
	ctx.jobMgr.Register("jobF", "Job F", func(ctx jobs.JobContext) error { return errors.New("store offline") })

	require.NoError(t, ctx.jobMgr.RunJob("jobF", ctx))
	ctx.jobMgr.Wait()

	status := ctx.jobMgr.GetStatus()[0]
	assert.Equal(t, "failed", status.Status)
	assert.Equal(t, "store offline", status.Message)
}

func TestManager_RunJob_AlreadyRunning(t *testing.T) {
	ctx := newFakeContext()
	block := make(chan struct{})
	ctx.jobMgr.Register("jobY", "Job Y", func(ctx jobs.JobContext) error { <-block; return nil })

	require.NoError(t, ctx.jobMgr.RunJob("jobY", ctx))
	assert.ErrorIs(t, ctx.jobMgr.RunJob("jobY", ctx), jobs.ErrJobRunning)
	close(block)
	ctx.jobMgr.Wait()
}

func TestManager_RunJob_NotFound(t *testing.T) {
	ctx := newFakeContext()
	assert.ErrorIs(t, ctx.jobMgr.RunJob("nojob", ctx), jobs.ErrJobNotFound)
}

func TestManager_RunJob_Panic(t *testing.T) {
	ctx := newFakeContext()
	ctx.jobMgr.Register("panicJob", "Panic Job", func(ctx jobs.JobContext) error { panic("fail") })

	require.NoError(t, ctx.jobMgr.RunJob("panicJob", ctx))
	ctx.jobMgr.Wait()

	status := ctx.jobMgr.GetStatus()[0]
	assert.Equal(t, "failed", status.Status)
	assert.Contains(t, status.Message, "panicked")
}

func TestManager_Concurrency(t *testing.T) {
	ctx := newFakeContext()
	var mu sync.Mutex
	var count int
	ctx.jobMgr.Register("jobC", "Job C", func(ctx jobs.JobContext) error {
		mu.Lock()
		count++
		mu.Unlock()
		return nil
	})

	var started int
	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if ctx.jobMgr.RunJob("jobC", ctx) == nil {
				mu.Lock()
				started++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	ctx.jobMgr.Wait()

	mu.Lock()
	defer mu.Unlock()
	assert.GreaterOrEqual(t, started, 1)
	assert.Equal(t, started, count)
}

type countingLoader struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (l *countingLoader) LoadRows(context.Context, string) ([]models.RawRow, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls++
	if l.err != nil {
		return nil, l.err
	}
	return []models.RawRow{{Section: "general--title", Options: "Shop"}}, nil
}

func TestReloadSettingsJob(t *testing.T) {
	loader := &countingLoader{}
	repo, err := settings.New(context.Background(), loader, settings.Groups{Page: "xwc"})
	require.NoError(t, err)

	ctx := newFakeContext()
	ctx.repo = settings.NewSynchronized(repo)
	jobs.RegisterDefaults(ctx.jobMgr)

	require.NoError(t, ctx.jobMgr.RunJob(jobs.SettingsReloadJob, ctx))
	ctx.jobMgr.Wait()

	assert.Equal(t, 2, loader.calls)
	assert.Equal(t, "success", ctx.jobMgr.GetStatus()[0].Status)

	loader.err = errors.New("locked")
	require.NoError(t, ctx.jobMgr.RunJob(jobs.SettingsReloadJob, ctx))
	ctx.jobMgr.Wait()

	status := ctx.jobMgr.GetStatus()[0]
	assert.Equal(t, "failed", status.Status)
	assert.Contains(t, status.Message, "locked")
	assert.Equal(t, "Shop", ctx.repo.Get("general.title", nil))
}

func TestStartJobsDisabled(t *testing.T) {
	ctx := newFakeContext()
	assert.Nil(t, jobs.StartJobs(ctx, zerolog.Nop()))
}

func TestStartJobsSchedulesReload(t *testing.T) {
	ctx := newFakeContext()
	ctx.cfg.Settings.ReloadInterval = 60
	s := jobs.StartJobs(ctx, zerolog.Nop())
	require.NotNil(t, s)
	defer s.Stop()
	assert.Len(t, s.Jobs(), 1)
}
