package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/vrsandeep/xwc-settings/internal/codec"
	"github.com/vrsandeep/xwc-settings/internal/settingsapi"
	"github.com/vrsandeep/xwc-settings/internal/websocket"
)

type pageInfo struct {
	ID       string                `json:"id"`
	Label    string                `json:"label"`
	Sections []settingsapi.Section `json:"sections"`
}

type formInfo struct {
	ID          string                `json:"id"`
	Kind        settingsapi.FormKind  `json:"kind"`
	Title       string                `json:"title"`
	Description string                `json:"description,omitempty"`
	OptionKey   string                `json:"option_key"`
	AdminVars   settingsapi.AdminVars `json:"admin_vars"`
	Enabled     *bool                 `json:"enabled,omitempty"`
	Settings    *codec.Array          `json:"settings,omitempty"`
}

func (s *Server) handleListPages(w http.ResponseWriter, r *http.Request) {
	out := []pageInfo{}
	for _, id := range s.app.PageIDs() {
		p := s.app.Page(id)
		out = append(out, pageInfo{ID: p.ID, Label: p.Label, Sections: p.OwnSections()})
	}
	RespondWithJSON(w, http.StatusOK, out)
}

// sectionFromRequest resolves the page and section named in the URL. The
// unnamed section is addressed as "core", like its option.
func (s *Server) sectionFromRequest(w http.ResponseWriter, r *http.Request) (*settingsapi.Page, string, bool) {
	page := s.app.Page(chi.URLParam(r, "pageID"))
	if page == nil {
		RespondWithError(w, http.StatusNotFound, "Settings page not found")
		return nil, "", false
	}
	section := chi.URLParam(r, "section")
	if _, ok := page.Section(section); !ok && section == "core" {
		section = ""
	}
	if _, ok := page.Section(section); !ok {
		RespondWithError(w, http.StatusNotFound, "Settings section not found")
		return nil, "", false
	}
	return page, section, true
}

func (s *Server) handleRenderSection(w http.ResponseWriter, r *http.Request) {
	page, section, ok := s.sectionFromRequest(w, r)
	if !ok {
		return
	}
	markup, err := page.Render(r.Context(), section, s.app.Options())
	if err != nil {
		RespondWithError(w, http.StatusInternalServerError, "Failed to render section")
		return
	}
	RespondWithHTML(w, http.StatusOK, markup)
}

func (s *Server) handleSaveSection(w http.ResponseWriter, r *http.Request) {
	page, section, ok := s.sectionFromRequest(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		RespondWithError(w, http.StatusBadRequest, "Invalid form data")
		return
	}

	saved, err := page.Save(r.Context(), section, r.PostForm, s.app.Options())
	if err != nil {
		RespondWithError(w, http.StatusInternalServerError, "Failed to save settings")
		return
	}
	if err := s.reload(r); err != nil {
		RespondWithError(w, http.StatusInternalServerError, "Settings saved but reload failed")
		return
	}
	s.app.WsHub().Broadcast(websocket.EventSettingsUpdated, map[string]any{"page": page.ID, "section": section, "options": saved})
	RespondWithJSON(w, http.StatusOK, map[string]any{"saved": saved})
}

func describeForm(f *settingsapi.Form) formInfo {
	return formInfo{
		ID:          f.ID,
		Kind:        f.Kind,
		Title:       f.Title,
		Description: f.Description,
		OptionKey:   f.OptionKey(),
		AdminVars:   f.AdminVars(),
	}
}

func (s *Server) handleListForms(w http.ResponseWriter, r *http.Request) {
	out := []formInfo{}
	for _, id := range s.app.FormIDs() {
		out = append(out, describeForm(s.app.Form(id)))
	}
	RespondWithJSON(w, http.StatusOK, out)
}

// loadForm loads the stored settings of the form named in the URL. The
// caller must hold formMu.
func (s *Server) loadForm(w http.ResponseWriter, r *http.Request) (*settingsapi.Form, bool) {
	form := s.app.Form(chi.URLParam(r, "formID"))
	if form == nil {
		RespondWithError(w, http.StatusNotFound, "Settings form not found")
		return nil, false
	}
	if err := form.Load(r.Context(), s.app.Options()); err != nil {
		RespondWithError(w, http.StatusInternalServerError, "Failed to load form settings")
		return nil, false
	}
	return form, true
}

func (s *Server) handleGetForm(w http.ResponseWriter, r *http.Request) {
	s.formMu.Lock()
	defer s.formMu.Unlock()

	form, ok := s.loadForm(w, r)
	if !ok {
		return
	}
	info := describeForm(form)
	enabled := form.Enabled()
	info.Enabled = &enabled
	info.Settings = form.Settings()
	RespondWithJSON(w, http.StatusOK, info)
}

func (s *Server) handleRenderForm(w http.ResponseWriter, r *http.Request) {
	s.formMu.Lock()
	defer s.formMu.Unlock()

	form, ok := s.loadForm(w, r)
	if !ok {
		return
	}
	markup, err := form.Render()
	if err != nil {
		RespondWithError(w, http.StatusInternalServerError, "Failed to render form")
		return
	}
	RespondWithHTML(w, http.StatusOK, markup)
}

func (s *Server) handleSaveForm(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		RespondWithError(w, http.StatusBadRequest, "Invalid form data")
		return
	}

	s.formMu.Lock()
	form, ok := s.loadForm(w, r)
	if !ok {
		s.formMu.Unlock()
		return
	}
	err := form.ProcessAdminOptions(r.Context(), r.PostForm, s.app.Options())
	s.formMu.Unlock()
	if err != nil {
		RespondWithError(w, http.StatusInternalServerError, "Failed to save form")
		return
	}

	if err := s.reload(r); err != nil {
		RespondWithError(w, http.StatusInternalServerError, "Settings saved but reload failed")
		return
	}
	s.app.WsHub().Broadcast(websocket.EventSettingsUpdated, map[string]string{"form": form.ID, "option": form.OptionKey()})
	RespondWithJSON(w, http.StatusOK, map[string]string{"saved": form.OptionKey()})
}
