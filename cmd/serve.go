package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/ozcodx/marcopolo/internal/dataset"
	"github.com/ozcodx/marcopolo/internal/game"
	"github.com/ozcodx/marcopolo/internal/geodist"
	"github.com/ozcodx/marcopolo/internal/model"
	"github.com/ozcodx/marcopolo/internal/store"
)

var servePort int

// shutdownTimeout bounds how long in-flight requests may drain after a stop signal.
const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API for the globe frontend",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		svc, closeStore, err := initService(ctx)
		if err != nil {
			return err
		}
		defer closeStore() //nolint:errcheck

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		ln, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
		if err != nil {
			return eris.Wrap(err, "server listen")
		}

		srv := &http.Server{Handler: newRouter(svc)}
		return runServer(ctx, srv, ln)
	},
}

// runServer serves on ln until ctx is canceled, then drains in-flight
// requests on a fresh context so a clean stop signal does not abort them.
func runServer(ctx context.Context, srv *http.Server, ln net.Listener) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		zap.L().Info("starting server", zap.String("addr", ln.Addr().String()))
		if err := srv.Serve(ln); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		zap.L().Info("shutting down server")
		drainCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(drainCtx)
	})

	return g.Wait()
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}

func newRouter(svc *game.Service) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	limiter := newClientLimiter(rate.Limit(cfg.Server.GuessRPS), cfg.Server.GuessBurst)

	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Get("/countries", func(w http.ResponseWriter, req *http.Request) {
		q := req.URL.Query().Get("q")
		matches := svc.Resolver().Search(q, cfg.Game.SuggestLimit)
		writeJSON(w, http.StatusOK, map[string]any{"countries": matches})
	})

	r.Route("/rounds", func(r chi.Router) {
		r.Post("/", func(w http.ResponseWriter, req *http.Request) {
			var body struct {
				Target string `json:"target"`
			}
			if req.ContentLength > 0 {
				if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
					writeError(w, http.StatusBadRequest, "invalid request body")
					return
				}
			}

			round, err := svc.StartRound(req.Context(), body.Target)
			if err != nil {
				if eris.Is(err, dataset.ErrNotFound) {
					writeError(w, http.StatusUnprocessableEntity, "unknown target country")
					return
				}
				serverError(w, err)
				return
			}
			writeJSON(w, http.StatusCreated, roundView(round))
		})

		r.Get("/{id}", func(w http.ResponseWriter, req *http.Request) {
			round, err := svc.GetRound(req.Context(), chi.URLParam(req, "id"))
			if err != nil {
				roundError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, roundView(round))
		})

		r.Get("/{id}/ranked", func(w http.ResponseWriter, req *http.Request) {
			ranked, err := svc.Ranked(req.Context(), chi.URLParam(req, "id"))
			if err != nil {
				roundError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"guesses": guessViews(ranked)})
		})

		r.Post("/{id}/guesses", func(w http.ResponseWriter, req *http.Request) {
			if !limiter.allow(clientIP(req)) {
				writeError(w, http.StatusTooManyRequests, "slow down")
				return
			}

			var body struct {
				Country string `json:"country"`
			}
			if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
				writeError(w, http.StatusBadRequest, "invalid request body")
				return
			}
			if body.Country == "" {
				writeError(w, http.StatusBadRequest, "country is required")
				return
			}

			g, err := svc.Guess(req.Context(), chi.URLParam(req, "id"), body.Country)
			if err != nil {
				switch {
				case eris.Is(err, dataset.ErrNotFound):
					writeError(w, http.StatusUnprocessableEntity, "unknown country")
				case eris.Is(err, game.ErrDuplicateGuess):
					writeError(w, http.StatusConflict, "country already guessed")
				case eris.Is(err, game.ErrRoundFinished):
					writeError(w, http.StatusConflict, "round is finished")
				default:
					roundError(w, err)
				}
				return
			}
			writeJSON(w, http.StatusCreated, guessView(*g))
		})

		r.Post("/{id}/abandon", func(w http.ResponseWriter, req *http.Request) {
			if err := svc.Abandon(req.Context(), chi.URLParam(req, "id")); err != nil {
				if eris.Is(err, game.ErrRoundFinished) {
					writeError(w, http.StatusConflict, "round is finished")
					return
				}
				roundError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, map[string]string{"status": string(model.RoundStatusAbandoned)})
		})
	})

	return r
}

// --- response shaping ---

type guessJSON struct {
	ID         string        `json:"id"`
	Country    model.Country `json:"country"`
	FlagURL    string        `json:"flag_url"`
	DistanceKm int           `json:"distance_km"`
	Tier       model.Tier    `json:"tier"`
	Seq        int           `json:"seq"`
}

type roundJSON struct {
	ID      string         `json:"id"`
	Status  string         `json:"status"`
	Target  *model.Country `json:"target,omitempty"`
	Guesses []guessJSON    `json:"guesses"`
}

func guessView(g model.Guess) guessJSON {
	return guessJSON{
		ID:         g.ID,
		Country:    g.Country,
		FlagURL:    g.Country.FlagURL(),
		DistanceKm: geodist.RoundKm(g.DistanceKm),
		Tier:       g.Tier,
		Seq:        g.Seq,
	}
}

func guessViews(guesses []model.Guess) []guessJSON {
	out := make([]guessJSON, 0, len(guesses))
	for _, g := range guesses {
		out = append(out, guessView(g))
	}
	return out
}

// roundView hides the target while the round is still active.
func roundView(r *model.Round) roundJSON {
	v := roundJSON{
		ID:      r.ID,
		Status:  string(r.Status),
		Guesses: guessViews(r.Guesses),
	}
	if r.Status != model.RoundStatusActive {
		target := r.Target
		v.Target = &target
	}
	return v
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Error("encode response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func roundError(w http.ResponseWriter, err error) {
	if eris.Is(err, store.ErrRoundNotFound) {
		writeError(w, http.StatusNotFound, "round not found")
		return
	}
	serverError(w, err)
}

func serverError(w http.ResponseWriter, err error) {
	zap.L().Error("request failed", zap.Error(err))
	writeError(w, http.StatusInternalServerError, "internal error")
}

// --- per-client rate limiting ---

// limiterTTL is how long an idle client keeps its limiter before eviction.
const limiterTTL = 10 * time.Minute

type clientEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

type clientLimiter struct {
	mu        sync.Mutex
	clients   map[string]*clientEntry
	rps       rate.Limit
	burst     int
	ttl       time.Duration
	lastSweep time.Time
}

func newClientLimiter(rps rate.Limit, burst int) *clientLimiter {
	return &clientLimiter{
		clients:   map[string]*clientEntry{},
		rps:       rps,
		burst:     burst,
		ttl:       limiterTTL,
		lastSweep: time.Now(),
	}
}

func (c *clientLimiter) allow(key string) bool {
	now := time.Now()

	c.mu.Lock()
	if now.Sub(c.lastSweep) >= c.ttl {
		for k, e := range c.clients {
			if now.Sub(e.lastSeen) >= c.ttl {
				delete(c.clients, k)
			}
		}
		c.lastSweep = now
	}
	e, ok := c.clients[key]
	if !ok {
		e = &clientEntry{limiter: rate.NewLimiter(c.rps, c.burst)}
		c.clients[key] = e
	}
	e.lastSeen = now
	c.mu.Unlock()

	return e.limiter.Allow()
}

func clientIP(req *http.Request) string {
	host, _, err := net.SplitHostPort(req.RemoteAddr)
	if err != nil {
		return req.RemoteAddr
	}
	return host
}
