package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/vrsandeep/xwc-settings/internal/codec"
	"github.com/vrsandeep/xwc-settings/internal/logger"
	"github.com/vrsandeep/xwc-settings/internal/settings"
	"github.com/vrsandeep/xwc-settings/internal/websocket"
	"gitlab.com/tozd/go/errors"
)

func settingPath(r *http.Request) string {
	raw := chi.URLParam(r, "path")
	if p, err := url.PathUnescape(raw); err == nil {
		return p
	}
	return raw
}

func (s *Server) handleGetAllSettings(w http.ResponseWriter, r *http.Request) {
	RespondWithJSON(w, http.StatusOK, s.app.Settings().All())
}

// handleGetSetting returns the value at a dot path. A "default" query
// parameter is returned instead of a 404 when nothing is stored there.
func (s *Server) handleGetSetting(w http.ResponseWriter, r *http.Request) {
	path := settingPath(r)
	node, found := s.app.Settings().Lookup(path)
	if !found {
		if def, ok := r.URL.Query()["default"]; ok {
			RespondWithJSON(w, http.StatusOK, map[string]any{"path": path, "value": def[0], "found": false})
			return
		}
		RespondWithError(w, http.StatusNotFound, "Setting not found")
		return
	}

	var value any = node
	if leaf, ok := node.(settings.Leaf); ok {
		value = leaf.Value
	}
	RespondWithJSON(w, http.StatusOK, map[string]any{"path": path, "value": value, "found": true})
}

func (s *Server) handleHasSetting(w http.ResponseWriter, r *http.Request) {
	path := settingPath(r)
	RespondWithJSON(w, http.StatusOK, map[string]any{"path": path, "exists": s.app.Settings().Has(path)})
}

// handleSetSetting changes the in-memory tree. Stored options are not
// touched; the next reload discards the change.
func (s *Server) handleSetSetting(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Value json.RawMessage `json:"value"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil || payload.Value == nil {
		RespondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	value, err := decodeValue(payload.Value)
	if err != nil {
		RespondWithError(w, http.StatusBadRequest, "Invalid value")
		return
	}

	path := settingPath(r)
	err = s.app.Settings().Set(path, value)
	switch {
	case errors.Is(err, settings.ErrEmptyPath):
		RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, settings.ErrShapeConflict):
		RespondWithError(w, http.StatusConflict, err.Error())
		return
	case err != nil:
		RespondWithError(w, http.StatusInternalServerError, "Failed to set value")
		return
	}

	logger.FromContext(r.Context()).Info().Str("path", path).Msg("Setting changed")
	s.app.WsHub().Broadcast(websocket.EventSettingsUpdated, map[string]string{"path": path})
	RespondWithJSON(w, http.StatusOK, map[string]any{"path": path, "value": value})
}

func (s *Server) handleReloadSettings(w http.ResponseWriter, r *http.Request) {
	if err := s.reload(r); err != nil {
		RespondWithError(w, http.StatusInternalServerError, "Failed to reload settings")
		return
	}
	RespondWithJSON(w, http.StatusOK, map[string]string{"status": "reloaded"})
}

// reload rebuilds the tree after a write through the API and tells
// clients about it.
func (s *Server) reload(r *http.Request) error {
	log := logger.FromContext(r.Context())
	if err := s.app.Settings().Reload(r.Context()); err != nil {
		log.Error().Err(err).Msg("Settings reload failed")
		return err
	}
	log.Info().Msg("Settings reloaded")
	s.app.WsHub().Broadcast(websocket.EventSettingsReloaded, nil)
	return nil
}

// decodeValue turns a JSON value into a setting: objects become groups,
// arrays become lists, whole numbers become int64.
func decodeValue(data json.RawMessage) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	if obj, ok := v.(map[string]any); ok {
		return toBranch(obj), nil
	}
	return plainJSON(v), nil
}

func toBranch(obj map[string]any) settings.Branch {
	b := settings.Branch{}
	for k, child := range obj {
		if nested, ok := child.(map[string]any); ok {
			b[k] = toBranch(nested)
			continue
		}
		b[k] = settings.Leaf{Value: plainJSON(child)}
	}
	return b
}

// plainJSON normalizes numbers and turns arrays into lists.
func plainJSON(v any) any {
	switch t := v.(type) {
	case json.Number:
		if n, err := t.Int64(); err == nil {
			return n
		}
		f, _ := t.Float64()
		return f
	case []any:
		items := make([]any, len(t))
		for i, item := range t {
			items[i] = plainJSON(item)
		}
		return codec.ArrayOf(items...)
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, child := range t {
			out[k] = plainJSON(child)
		}
		return out
	}
	return v
}
