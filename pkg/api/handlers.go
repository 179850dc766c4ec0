package api

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/healthviz/pkg/buildinfo"
	"github.com/matzehuels/healthviz/pkg/chart"
	"github.com/matzehuels/healthviz/pkg/errors"
	"github.com/matzehuels/healthviz/pkg/hierarchy"
	"github.com/matzehuels/healthviz/pkg/pipeline"
	"github.com/matzehuels/healthviz/pkg/storage"
)

// PresetInfo is the listing entry for one preset.
type PresetInfo struct {
	Name   string `json:"name"`
	Kind   string `json:"kind"`
	Title  string `json:"title,omitempty"`
	Source string `json:"source"`
}

// RunRequest is the optional body of POST /v1/charts/{name}/runs.
type RunRequest struct {
	Refresh bool   `json:"refresh,omitempty"`
	Focus   string `json:"focus,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, struct {
		Status string `json:"status"`
		buildinfo.Info
	}{"ok", buildinfo.Get()})
}

func (s *Server) handleListCharts(w http.ResponseWriter, _ *http.Request) {
	out := make([]PresetInfo, len(s.presets))
	for i, p := range s.presets {
		out[i] = PresetInfo{Name: p.Name, Kind: p.Kind, Title: p.Title, Source: p.Source}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateRun(w http.ResponseWriter, r *http.Request) {
	p, ok := s.preset(chi.URLParam(r, "name"))
	if !ok {
		writeError(w, errors.New(errors.ErrCodeNotFound, "unknown chart %q", chi.URLParam(r, "name")))
		return
	}

	var req RunRequest
	if r.Body != nil {
		body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
		if err != nil {
			writeError(w, errors.Wrap(errors.ErrCodeInvalidInput, err, "read request body"))
			return
		}
		if len(body) > 0 {
			if err := json.Unmarshal(body, &req); err != nil {
				writeError(w, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode request body"))
				return
			}
		}
	}

	opts := p.Options
	opts.Refresh = req.Refresh
	if req.Focus != "" {
		opts.Focus = req.Focus
	}
	opts.Formats = []string{pipeline.FormatJSON}

	run := storage.NewRun("", p.Name)
	start := time.Now()
	res, err := s.runner.Execute(r.Context(), opts)
	run.DurationMS = time.Since(start).Milliseconds()
	if err != nil {
		run.Fail(err)
		s.save(r, run)
		writeError(w, err)
		return
	}

	run.ID = res.RunID
	run.Status = storage.StatusSucceeded
	run.Chart = &res.Chart
	run.ChartHash = res.ChartHash
	run.Rows = res.Stats.Rows
	run.Cached = res.CacheInfo.ChartHit
	if err := s.store.SaveRun(r.Context(), run); err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Location", "/v1/runs/"+run.ID)
	writeJSON(w, http.StatusCreated, run)
}

func (s *Server) save(r *http.Request, run *storage.Run) {
	if err := s.store.SaveRun(r.Context(), run); err != nil {
		s.logger.Warn("could not save run", "id", run.ID, "err", err)
	}
}

func (s *Server) handleFocus(w http.ResponseWriter, r *http.Request) {
	p, ok := s.preset(chi.URLParam(r, "name"))
	if !ok {
		writeError(w, errors.New(errors.ErrCodeNotFound, "unknown chart %q", chi.URLParam(r, "name")))
		return
	}
	if p.Kind != chart.KindSunburst {
		writeError(w, errors.New(errors.ErrCodeUnsupported, "chart %q is a %s chart; focus needs a sunburst", p.Name, p.Kind))
		return
	}

	opts := p.Options
	opts.Focus = ""
	opts.Formats = []string{pipeline.FormatJSON}
	res, err := s.runner.Execute(r.Context(), opts)
	if err != nil {
		writeError(w, err)
		return
	}

	zoomed, err := pipeline.Refocus(res.Chart, focusParam(r.URL.Query()["path"]))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, zoomed)
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit := 0
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, errors.New(errors.ErrCodeInvalidInput, "limit must be a non-negative integer"))
			return
		}
		limit = n
	}

	runs, err := s.store.ListRuns(r.Context(), q.Get("preset"), limit)
	if err != nil {
		writeError(w, err)
		return
	}
	if runs == nil {
		runs = []*storage.Run{}
	}
	writeJSON(w, http.StatusOK, runs)
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	run, err := s.store.GetRun(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, run)
}

// focusParam reads ?path=a/b, or one key per repeated ?path= so keys may
// contain "/".
func focusParam(values []string) string {
	switch len(values) {
	case 0:
		return ""
	case 1:
		return values[0]
	default:
		return hierarchy.JoinPath(values)
	}
}
