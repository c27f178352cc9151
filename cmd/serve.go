package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/calib-cli/internal/calib"
	"github.com/sells-group/calib-cli/internal/store"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the calibration HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		opts, err := fitOptions(0, "", false)
		if err != nil {
			return err
		}

		limiter := rate.NewLimiter(rate.Limit(cfg.Server.RateLimitRPS), cfg.Server.RateBurst)

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: newRouter(st, opts, limiter),
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

// newRouter builds the HTTP API over a model registry.
func newRouter(st store.Store, opts calib.Options, limiter *rate.Limiter) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "DELETE"},
		AllowedHeaders: []string{"Content-Type"},
	}))
	if limiter != nil {
		r.Use(rateLimit(limiter))
	}

	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Post("/v1/fit", func(w http.ResponseWriter, req *http.Request) {
		var body struct {
			Name   string    `json:"name"`
			Scores []float64 `json:"scores"`
			Labels []int     `json:"labels"`
		}
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		m, err := calib.New(opts).Fit(body.Scores, body.Labels)
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}

		rec, err := st.SaveModel(req.Context(), body.Name, m)
		if err != nil {
			zap.L().Error("save model failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "save model failed")
			return
		}

		writeJSON(w, http.StatusCreated, map[string]any{
			"id":         rec.ID,
			"bins":       len(m.Bins),
			"boundaries": m.Boundaries,
		})
	})

	r.Post("/v1/calibrate", func(w http.ResponseWriter, req *http.Request) {
		var body struct {
			Model  string    `json:"model"`
			Scores []float64 `json:"scores"`
		}
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if len(body.Scores) == 0 {
			writeError(w, http.StatusBadRequest, "scores are required")
			return
		}

		rec, err := lookupModel(req, st, body.Model)
		if err != nil {
			if eris.Is(err, store.ErrModelNotFound) {
				writeError(w, http.StatusNotFound, "model not found")
				return
			}
			zap.L().Error("load model failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "load model failed")
			return
		}

		calibrated, err := rec.Model.Predict(body.Scores)
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"model":      rec.ID,
			"calibrated": calibrated,
		})
	})

	r.Get("/v1/models", func(w http.ResponseWriter, req *http.Request) {
		recs, err := st.ListModels(req.Context(), store.ModelFilter{
			Name: req.URL.Query().Get("name"),
		})
		if err != nil {
			zap.L().Error("list models failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "list models failed")
			return
		}

		out := make([]map[string]any, 0, len(recs))
		for _, rec := range recs {
			out = append(out, map[string]any{
				"id":         rec.ID,
				"name":       rec.Name,
				"bins":       rec.BinCount,
				"samples":    rec.Samples,
				"created_at": rec.CreatedAt,
			})
		}
		writeJSON(w, http.StatusOK, map[string]any{"models": out})
	})

	r.Get("/v1/models/{id}", func(w http.ResponseWriter, req *http.Request) {
		rec, err := st.GetModel(req.Context(), chi.URLParam(req, "id"))
		if err != nil {
			if eris.Is(err, store.ErrModelNotFound) {
				writeError(w, http.StatusNotFound, "model not found")
				return
			}
			zap.L().Error("get model failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "get model failed")
			return
		}
		writeJSON(w, http.StatusOK, rec)
	})

	return r
}

// lookupModel resolves a model reference: empty or "latest" means the most
// recently saved model, anything else is a registry id.
func lookupModel(req *http.Request, st store.Store, ref string) (*store.Record, error) {
	if ref == "" || ref == "latest" {
		return st.LatestModel(req.Context())
	}
	return st.GetModel(req.Context(), ref)
}

func rateLimit(limiter *rate.Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if !limiter.Allow() {
				writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}
			next.ServeHTTP(w, req)
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
