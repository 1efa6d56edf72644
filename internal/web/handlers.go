package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"weekcal/internal/capture"
	"weekcal/internal/ics"
	appLog "weekcal/internal/log"
	"weekcal/internal/metrics"
	"weekcal/internal/model"
	"weekcal/internal/schedule"
)

const preconditionMsg = "no schedule available; generate one first"

// generateRequest is the POST /api/generate body.
type generateRequest struct {
	ScheduleInput string `json:"schedule_input"`
}

// layoutResponse wraps the week grid with the display configuration the
// presentation layer needs.
type layoutResponse struct {
	Status        string           `json:"status"`
	WeekdayLabels []string         `json:"weekday_labels"`
	Timezone      string           `json:"timezone"`
	Data          model.WeekLayout `json:"data"`
}

// scheduleKey resolves the caller's schedule store key. A ?key= query
// parameter wins (used by the capture pipeline, which has no cookie jar);
// otherwise the session cookie is used, minting a fresh key on first visit.
func (s *Server) scheduleKey(w http.ResponseWriter, r *http.Request) (string, error) {
	if k := r.URL.Query().Get("key"); k != "" {
		if _, err := uuid.Parse(k); err != nil {
			return "", fmt.Errorf("invalid key parameter")
		}
		return k, nil
	}

	sess, err := s.cookies.Get(r, sessionCookieName)
	if err != nil {
		// A tampered or stale cookie: start over with a fresh session.
		appLog.Warn("session cookie rejected; issuing a new one", "err", err)
		sess, _ = s.cookies.New(r, sessionCookieName)
	}

	sid, ok := sess.Values["sid"].(string)
	if !ok || sid == "" {
		sid = uuid.NewString()
		sess.Values["sid"] = sid
		if err := sess.Save(r, w); err != nil {
			return "", fmt.Errorf("saving session: %w", err)
		}
	}
	return sid, nil
}

// handleGenerate parses a schedule submission, stores it under the caller's
// session, and responds with the week grid layout.
//
// POST /api/generate {"schedule_input": "週一 09:00-11:00 A\n..."}
func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "POST required")
		return
	}

	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	sched, err := schedule.Parse(req.ScheduleInput)
	if err != nil {
		var perr *schedule.ParseError
		if errors.As(err, &perr) {
			metrics.ParsesTotal.WithLabelValues("parse_error").Inc()
			writeError(w, http.StatusBadRequest, perr.Error())
			return
		}
		metrics.ParsesTotal.WithLabelValues("internal_error").Inc()
		appLog.Error("generate: unexpected parse failure", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	metrics.ParsesTotal.WithLabelValues("ok").Inc()

	key, err := s.scheduleKey(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.store.Put(r.Context(), key, sched); err != nil {
		appLog.Error("generate: store put failed", err, "key", key)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	appLog.Info("schedule generated",
		"key", key,
		"activity_count", len(sched.Activities),
		"repeat_months", sched.Config.ICSRepeatMonths,
	)

	writeJSON(w, http.StatusOK, layoutResponse{
		Status:        "success",
		WeekdayLabels: s.cfg.WeekdayLabels,
		Timezone:      s.loc.String(),
		Data:          schedule.Aggregate(sched.Activities),
	})
}

// handleLayout re-aggregates and returns the stored schedule's week grid.
//
// GET /api/layout
func (s *Server) handleLayout(w http.ResponseWriter, r *http.Request) {
	key, err := s.scheduleKey(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	sched, err := s.store.Get(r.Context(), key)
	if err != nil {
		if isPrecondition(err) {
			writeError(w, http.StatusBadRequest, preconditionMsg)
			return
		}
		appLog.Error("layout: store get failed", err, "key", key)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, layoutResponse{
		Status:        "success",
		WeekdayLabels: s.cfg.WeekdayLabels,
		Timezone:      s.loc.String(),
		Data:          schedule.Aggregate(sched.Activities),
	})
}

// handleExportICS materializes the stored schedule into an ICS file over
// the configured repeat window, anchored at today in the display timezone.
//
// GET /api/export/ics
func (s *Server) handleExportICS(w http.ResponseWriter, r *http.Request) {
	key, err := s.scheduleKey(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	sched, err := s.store.Get(r.Context(), key)
	if err != nil {
		if isPrecondition(err) {
			writeError(w, http.StatusBadRequest, preconditionMsg)
			return
		}
		appLog.Error("export ics: store get failed", err, "key", key)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	doc, err := ics.Build(sched, ics.BuildOptions{
		Reference: s.clock.Now(),
		Location:  s.loc,
	})
	if err != nil {
		appLog.Error("export ics: build failed", err, "key", key)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	metrics.ExportsTotal.WithLabelValues("ics").Inc()

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="weekly_schedule.ics"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(doc))
}

// handleExportPNG screenshots the rendered grid page through headless
// Chromium and returns the image. Gated by capture.enabled since it needs a
// Chromium binary on the host.
//
// GET /api/export/png
func (s *Server) handleExportPNG(w http.ResponseWriter, r *http.Request) {
	if !s.cfg.Capture.Enabled {
		writeError(w, http.StatusNotImplemented, "PNG export is disabled")
		return
	}

	key, err := s.scheduleKey(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	// Confirm a schedule exists before spinning up a browser.
	if _, err := s.store.Get(r.Context(), key); err != nil {
		if isPrecondition(err) {
			writeError(w, http.StatusBadRequest, preconditionMsg)
			return
		}
		appLog.Error("export png: store get failed", err, "key", key)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	// The capture browser has no cookie jar, so the grid page is addressed
	// by explicit key.
	pageURL := fmt.Sprintf("http://%s/?key=%s", s.cfg.Listen, key)

	begin := time.Now()
	png, err := capture.GridPNG(r.Context(), capture.Options{
		URL:    pageURL,
		Width:  s.cfg.Capture.Width,
		Height: s.cfg.Capture.Height,
	})
	if err != nil {
		appLog.Error("export png: capture failed", err, "key", key)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	metrics.ExportsTotal.WithLabelValues("png").Inc()
	appLog.Info("png export completed", "key", key, "bytes", len(png), "elapsed", time.Since(begin))

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Disposition", `attachment; filename="weekly_schedule.png"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(png)
}
