package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/flowassist/flow-cli/internal/media"
	"github.com/flowassist/flow-cli/internal/pipeline"
	"github.com/flowassist/flow-cli/internal/store"
)

var servePort int

// flowRunner is what the trigger endpoint needs from the pipeline.
type flowRunner interface {
	Run(ctx context.Context, req pipeline.Request) (*pipeline.Result, error)
}

// mediaConverter is what the convert endpoint needs from the converter.
type mediaConverter interface {
	CheckURL(rawURL string) error
	Convert(ctx context.Context, rawURL string) (string, error)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP trigger API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := store.Open(ctx, cfg.Store)
		if err != nil {
			return err
		}
		defer st.Close()

		flow := buildPipeline(ctx, st)
		conv := media.NewConverter(cfg.Media)

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: newAPIRouter(ctx, flow, conv),
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

// newAPIRouter builds the trigger API. Pipeline runs started here outlive
// the request, so they run on base rather than the request context.
func newAPIRouter(base context.Context, flow flowRunner, conv mediaConverter) http.Handler {
	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Post("/api/run-flow", func(w http.ResponseWriter, req *http.Request) {
		var body struct {
			Niche    string   `json:"niche"`
			Location string   `json:"location"`
			Sources  []string `json:"sources"`
			MaxPosts int      `json:"max_posts"`
		}
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
			return
		}
		if body.Niche == "" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "niche is required"})
			return
		}
		platforms, err := parsePlatforms(body.Sources)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}

		pr := pipeline.Request{
			Niche:    body.Niche,
			Location: body.Location,
			Sources:  platforms,
			MaxPosts: body.MaxPosts,
		}

		go func() {
			result, err := flow.Run(base, pr)
			if err != nil {
				zap.L().Error("triggered flow failed",
					zap.String("niche", pr.Niche),
					zap.Error(err),
				)
				return
			}
			zap.L().Info("triggered flow complete",
				zap.String("niche", pr.Niche),
				zap.Int("collected", result.Collected),
				zap.Int("saved", result.Saved),
			)
		}()

		writeJSON(w, http.StatusAccepted, map[string]any{
			"status":  "started",
			"message": fmt.Sprintf("Flow started for niche %q", body.Niche),
			"params": map[string]any{
				"niche":    body.Niche,
				"location": body.Location,
				"sources":  body.Sources,
			},
		})
	})

	r.Post("/api/convert", func(w http.ResponseWriter, req *http.Request) {
		var body struct {
			URL string `json:"url"`
		}
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
			return
		}
		if body.URL == "" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "url is required"})
			return
		}
		if err := conv.CheckURL(body.URL); err != nil {
			status := http.StatusBadRequest
			if errors.Is(err, media.ErrHostNotAllowed) {
				status = http.StatusForbidden
			}
			writeJSON(w, status, map[string]string{"error": err.Error()})
			return
		}

		path, err := conv.Convert(req.Context(), body.URL)
		if err != nil {
			zap.L().Error("media conversion failed", zap.String("url", body.URL), zap.Error(err))
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "conversion failed"})
			return
		}

		writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "file": path})
	})

	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
