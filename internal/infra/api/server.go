package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"telegram-notify-bot/internal/application"
	"telegram-notify-bot/internal/infra/logging"
)

// CalendarFeed renders the iCalendar export.
type CalendarFeed interface {
	WriteFeed(ctx context.Context, w io.Writer) error
}

// Server exposes the keep-alive, metrics, trigger hooks and calendar feed.
type Server struct {
	triggers application.Triggers
	calendar CalendarFeed
	auth     *HookAuth
	timeout  time.Duration
	log      *zerolog.Logger
	server   *http.Server
}

func NewServer(triggers application.Triggers, calendar CalendarFeed, auth *HookAuth, timeout time.Duration, logger *zerolog.Logger) *Server {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	l := logger.With().Str("component", "http").Logger()
	return &Server{triggers: triggers, calendar: calendar, auth: auth, timeout: timeout, log: &l}
}

// Router builds the chi router; exposed for tests.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(TraceID(), RequestLog(s.log), Recover(s.log))

	r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("Bot is running"))
	})
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(s.auth.Require(), HookTrigger())
		// checks run to completion; only the feed is bounded
		r.Get("/check", s.handleBirthdayCheck)
		r.Get("/events", s.handleEventCheck(false))
		r.Get("/events/half", s.handleEventCheck(true))
		if s.calendar != nil {
			r.With(Timeout(s.timeout)).Get("/calendar.ics", s.handleCalendar)
		}
	})
	return r
}

func (s *Server) Start(port int) error {
	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.log.Info().Int("port", port).Msg("HTTP server listening")
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func (s *Server) handleBirthdayCheck(w http.ResponseWriter, r *http.Request) {
	res, err := s.triggers.BirthdayCheck(detach(r))
	s.writeResult(w, r, res, err)
}

func (s *Server) handleEventCheck(halfDay bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := s.triggers.EventCheck(detach(r), halfDay)
		s.writeResult(w, r, res, err)
	}
}

// detach keeps the request values (trace id, trigger) but not its
// cancellation, so a dropped client cannot abort a dispatch halfway.
func detach(r *http.Request) context.Context {
	return context.WithoutCancel(r.Context())
}

func (s *Server) writeResult(w http.ResponseWriter, r *http.Request, res application.CheckResult, err error) {
	if err != nil {
		logging.With(r.Context(), s.log).Error().Err(err).Str("path", r.URL.Path).Msg("hook check failed")
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "check failed"})
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleCalendar(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `inline; filename="events.ics"`)
	if err := s.calendar.WriteFeed(r.Context(), w); err != nil {
		logging.With(r.Context(), s.log).Error().Err(err).Msg("calendar feed failed")
		http.Error(w, "calendar unavailable", http.StatusInternalServerError)
	}
}

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
