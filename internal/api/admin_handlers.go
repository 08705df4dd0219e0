package api

import (
	"encoding/json"
	"net/http"

	"github.com/vrsandeep/xwc-settings/internal/jobs"
	"gitlab.com/tozd/go/errors"
)

func (s *Server) handleGetVersion(w http.ResponseWriter, r *http.Request) {
	RespondWithJSON(w, http.StatusOK, map[string]string{"version": s.app.Version})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if _, _, err := s.app.Options().GetOption(r.Context(), "xwc_health_check"); err != nil {
		RespondWithError(w, http.StatusServiceUnavailable, "Database connection failed")
		return
	}
	RespondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleListFields(w http.ResponseWriter, r *http.Request) {
	RespondWithJSON(w, http.StatusOK, s.app.Fields().List())
}

func (s *Server) handleListPlugins(w http.ResponseWriter, r *http.Request) {
	list := s.app.Plugins().ListPlugins()
	if list == nil {
		RespondWithJSON(w, http.StatusOK, []any{})
		return
	}
	RespondWithJSON(w, http.StatusOK, list)
}

func (s *Server) handleRunAdminJob(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		JobID string `json:"job_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		RespondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	err := s.app.JobManager().RunJob(payload.JobID, s.app)
	switch {
	case errors.Is(err, jobs.ErrJobNotFound):
		RespondWithError(w, http.StatusNotFound, err.Error())
		return
	case err != nil:
		RespondWithError(w, http.StatusConflict, err.Error()) // 409 Conflict if a job is already running
		return
	}

	RespondWithJSON(w, http.StatusAccepted, map[string]string{
		"message": "Job '" + payload.JobID + "' started successfully.",
	})
}

func (s *Server) handleGetAdminJobsStatus(w http.ResponseWriter, r *http.Request) {
	RespondWithJSON(w, http.StatusOK, s.app.JobManager().GetStatus())
}
