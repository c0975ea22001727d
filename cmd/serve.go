package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/wanderplan/trip-cli/internal/export"
	"github.com/wanderplan/trip-cli/internal/model"
	"github.com/wanderplan/trip-cli/internal/orchestrator"
	"github.com/wanderplan/trip-cli/internal/session"
	"github.com/wanderplan/trip-cli/internal/store"
)

var servePort int

// stepRequest is the wire shape of one conversation turn.
type stepRequest struct {
	Text      string   `json:"text,omitempty"`
	Field     string   `json:"field,omitempty"`
	OptionID  string   `json:"option_id,omitempty"`
	EntityIDs []string `json:"entity_ids,omitempty"`
	Verdict   string   `json:"verdict,omitempty"`
	Issues    []string `json:"issues,omitempty"`
}

func (r stepRequest) toInput() orchestrator.Input {
	in := orchestrator.Input{
		Text:      r.Text,
		Field:     model.FieldKey(r.Field),
		OptionID:  r.OptionID,
		EntityIDs: r.EntityIDs,
		Verdict:   model.SatisfactionVerdict(r.Verdict),
	}
	for _, issue := range r.Issues {
		in.Issues = append(in.Issues, model.IssueCategory(issue))
	}
	return in
}

// newRouter builds the planning API. Each step loads the session, runs
// one conversation turn, and saves it back, so any instance can serve
// any session.
func newRouter(st store.Store, enricher orchestrator.Enricher) chi.Router {
	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Post("/sessions", func(w http.ResponseWriter, req *http.Request) {
		var body struct {
			SingleCity bool `json:"single_city"`
		}
		if req.Body != nil {
			_ = json.NewDecoder(req.Body).Decode(&body)
		}

		sess := session.New()
		if body.SingleCity {
			err := sess.Commit(func(d *session.Data) error {
				d.Prefs.SingleCity = true
				return nil
			})
			if err != nil {
				httpError(w, http.StatusInternalServerError, err)
				return
			}
		}

		orch := newOrchestrator(sess, enricher)
		card, err := orch.Start(req.Context())
		if err != nil {
			httpError(w, http.StatusInternalServerError, err)
			return
		}
		if err := st.SaveSession(req.Context(), sess); err != nil {
			httpError(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{
			"session_id": sess.ID(),
			"card":       card,
		})
	})

	r.Get("/sessions", func(w http.ResponseWriter, req *http.Request) {
		filter := store.SessionFilter{
			State:       model.State(req.URL.Query().Get("state")),
			Destination: req.URL.Query().Get("destination"),
		}
		if limit := req.URL.Query().Get("limit"); limit != "" {
			filter.Limit, _ = strconv.Atoi(limit)
		}
		sessions, err := st.ListSessions(req.Context(), filter)
		if err != nil {
			httpError(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusOK, sessions)
	})

	r.Route("/sessions/{id}", func(r chi.Router) {
		r.Post("/step", func(w http.ResponseWriter, req *http.Request) {
			sess, err := st.LoadSession(req.Context(), chi.URLParam(req, "id"))
			if err != nil {
				httpError(w, http.StatusNotFound, err)
				return
			}

			var body stepRequest
			if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
				http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
				return
			}

			orch := newOrchestrator(sess, enricher)
			card, err := orch.Step(req.Context(), body.toInput())
			if err != nil {
				httpError(w, http.StatusInternalServerError, err)
				return
			}
			if err := st.SaveSession(req.Context(), sess); err != nil {
				httpError(w, http.StatusInternalServerError, err)
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{
				"state": sess.Snapshot().State,
				"card":  card,
			})
		})

		r.Get("/history", func(w http.ResponseWriter, req *http.Request) {
			events, err := st.SessionEvents(req.Context(), chi.URLParam(req, "id"))
			if err != nil {
				httpError(w, http.StatusInternalServerError, err)
				return
			}
			writeJSON(w, http.StatusOK, events)
		})

		r.Get("/export", func(w http.ResponseWriter, req *http.Request) {
			sess, err := st.LoadSession(req.Context(), chi.URLParam(req, "id"))
			if err != nil {
				httpError(w, http.StatusNotFound, err)
				return
			}
			md, err := export.Markdown(sess.Snapshot())
			if err != nil {
				httpError(w, http.StatusConflict, err)
				return
			}
			w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
			_, _ = w.Write([]byte(md))
		})

		r.Delete("/", func(w http.ResponseWriter, req *http.Request) {
			if err := st.DeleteSession(req.Context(), chi.URLParam(req, "id")); err != nil {
				status := http.StatusInternalServerError
				if strings.Contains(err.Error(), "not found") {
					status = http.StatusNotFound
				}
				httpError(w, status, err)
				return
			}
			w.WriteHeader(http.StatusNoContent)
		})
	})

	return r
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the planning API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate store")
		}

		router := newRouter(st, newEnricher(st))

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: router,
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			srv.Shutdown(ctx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func httpError(w http.ResponseWriter, status int, err error) {
	zap.L().Warn("request failed", zap.Int("status", status), zap.Error(err))
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
