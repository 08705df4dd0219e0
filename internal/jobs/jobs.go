package jobs

import (
	"context"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/rs/zerolog"
	"github.com/vrsandeep/xwc-settings/internal/websocket"
	"gitlab.com/tozd/go/errors"
)

// SettingsReloadJob rebuilds the settings tree from the options store.
const SettingsReloadJob = "settings-reload"

const reloadTimeout = 30 * time.Second

// RegisterDefaults registers the jobs every app runs.
func RegisterDefaults(jm *JobManager) {
	jm.Register(SettingsReloadJob, "Reload settings", ReloadSettings)
}

// ReloadSettings reloads the settings repository and tells connected
// clients about it.
func ReloadSettings(app JobContext) error {
	ctx, cancel := context.WithTimeout(context.Background(), reloadTimeout)
	defer cancel()

	if err := app.Settings().Reload(ctx); err != nil {
		return errors.Errorf("reloading settings: %w", err)
	}
	if hub := app.WsHub(); hub != nil {
		hub.Broadcast(websocket.EventSettingsReloaded, map[string]int{"groups": len(app.Settings().All())})
	}
	return nil
}

// StartJobs starts the background job scheduler. It returns nil when no
// job is scheduled.
func StartJobs(app JobContext, log zerolog.Logger) *gocron.Scheduler {
	interval := app.Config().Settings.ReloadInterval
	if interval == 0 {
		log.Info().Msg("Settings reload interval is 0, scheduled reload is disabled.")
		return nil
	}

	s := gocron.NewScheduler(time.UTC)
	s.SingletonModeAll()

	log.Info().Str("job", SettingsReloadJob).Int("seconds", interval).Msg("Scheduling job")
	_, err := s.Every(interval).Seconds().WaitForSchedule().Do(func() {
		log.Debug().Str("job", SettingsReloadJob).Msg("Scheduler is triggering job")
		// Submit the job to the manager instead of running it directly.
		// This prevents conflicts with manually triggered jobs.
		if err := app.JobManager().RunJob(SettingsReloadJob, app); err != nil {
			log.Warn().Err(err).Str("job", SettingsReloadJob).Msg("Scheduled job could not start")
		}
	})
	if err != nil {
		log.Error().Err(err).Str("job", SettingsReloadJob).Msg("Error scheduling job")
		return nil
	}

	log.Info().Msg("Starting background job scheduler...")
	s.StartAsync()
	return s
}
