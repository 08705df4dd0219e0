// This file contains shared test utilities for job context mocking.

package testutil

import (
	"github.com/rs/zerolog"
	"github.com/vrsandeep/xwc-settings/internal/config"
	"github.com/vrsandeep/xwc-settings/internal/jobs"
	"github.com/vrsandeep/xwc-settings/internal/settings"
	"github.com/vrsandeep/xwc-settings/internal/websocket"
)

// MockJobContext implements jobs.JobContext for testing
type MockJobContext struct {
	Cfg  *config.Config
	Repo settings.Config
	Hub  *websocket.Hub
	Jobs *jobs.JobManager
}

// NewMockJobContext returns a context with an empty config, a hub that is
// not running and a fresh job manager.
func NewMockJobContext(repo settings.Config) *MockJobContext {
	return &MockJobContext{
		Cfg:  &config.Config{},
		Repo: repo,
		Hub:  websocket.NewHub(),
		Jobs: jobs.NewManager(zerolog.Nop()),
	}
}

func (m *MockJobContext) Config() *config.Config       { return m.Cfg }
func (m *MockJobContext) Settings() settings.Config    { return m.Repo }
func (m *MockJobContext) WsHub() *websocket.Hub        { return m.Hub }
func (m *MockJobContext) JobManager() *jobs.JobManager { return m.Jobs }
