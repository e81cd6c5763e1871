package app

import (
	"encoding/json"
	"errors"
	"net/http"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ccastromar/aos-research-team/internal/logx"
	"github.com/ccastromar/aos-research-team/internal/team"
	"github.com/ccastromar/aos-research-team/internal/ui"
)

// Max request size for POST /api/run (1MB)
const maxRunBodyBytes int64 = 1 << 20

var errRateLimited = errors.New("rate limit exceeded")

var idRe = regexp.MustCompile(`^[a-zA-Z0-9_-]{1,64}$`)

// Overviewer is the part of team.Team the API reads.
type Overviewer interface {
	Overview() team.Overview
}

// API serves the JSON endpoints. Auth is optional (API_KEY) and every client
// gets a naive fixed-window rate limit.
type API struct {
	ui     *ui.UI
	team   Overviewer
	apiKey string
	rl     *rateLimiter
}

func NewAPI(u *ui.UI, t Overviewer, apiKey string) *API {
	return &API{
		ui:     u,
		team:   t,
		apiKey: strings.TrimSpace(apiKey),
		rl:     newRateLimiter(time.Minute, 60),
	}
}

func (a *API) Routes(r chi.Router) {
	r.Use(a.authAndLimit)
	r.Post("/run", a.handleRun)
	r.Get("/runs/{id}", a.handleGetRun)
	r.Get("/team", a.handleTeam)
}

func (a *API) authAndLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !a.checkAuth(r) {
			w.Header().Set("WWW-Authenticate", "Bearer, X-API-Key")
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		if err := a.rl.acquire(getClientKey(r)); err != nil {
			writeError(w, http.StatusTooManyRequests, "too many requests")
			return
		}
		next.ServeHTTP(w, r)
	})
}

type runRequest struct {
	Topic string `json:"topic"`
}

type runResponse struct {
	ID     string           `json:"id"`
	Status string           `json:"status"`
	Result string           `json:"result"`
	Logs   []string         `json:"logs"`
	Stages []ui.StageOutput `json:"stages"`
	Error  string           `json:"error,omitempty"`
}

func toResponse(r ui.Run) runResponse {
	return runResponse{
		ID:     r.ID,
		Status: r.Status,
		Result: r.Result,
		Logs:   r.Logs,
		Stages: r.Stages,
		Error:  r.Error,
	}
}

// handleRun runs the team synchronously and answers with the stored run.
func (a *API) handleRun(w http.ResponseWriter, r *http.Request) {
	ct := r.Header.Get("Content-Type")
	if ct == "" || !strings.HasPrefix(strings.ToLower(ct), "application/json") {
		writeError(w, http.StatusUnsupportedMediaType, "unsupported media type")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxRunBodyBytes)
	var req runRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		status := http.StatusBadRequest
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			status = http.StatusRequestEntityTooLarge
		}
		writeError(w, status, "invalid request body")
		return
	}

	logx.Info("Api", "new run topic='%s'", req.Topic)
	run, err := a.ui.Execute(r.Context(), req.Topic)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	status := http.StatusOK
	if run.Status != ui.StatusOK {
		status = http.StatusInternalServerError
	}
	writeJSON(w, status, toResponse(run))
}

func (a *API) handleGetRun(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !idRe.MatchString(id) {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	run, ok := a.ui.Store().Get(id)
	if !ok {
		writeError(w, http.StatusNotFound, "run not found")
		return
	}
	writeJSON(w, http.StatusOK, toResponse(run))
}

func (a *API) handleTeam(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.team.Overview())
}

// checkAuth enforces API key when configured via API_KEY env var
func (a *API) checkAuth(r *http.Request) bool {
	if a.apiKey == "" {
		return true
	}
	if k := r.Header.Get("X-API-Key"); k != "" && k == a.apiKey {
		return true
	}
	auth := r.Header.Get("Authorization")
	if strings.HasPrefix(strings.ToLower(auth), "bearer ") {
		return strings.TrimSpace(auth[7:]) == a.apiKey
	}
	return false
}

// getClientKey picks an identifier for rate limiting: API key if present, else IP
func getClientKey(r *http.Request) string {
	if k := r.Header.Get("X-API-Key"); k != "" {
		return "key:" + k
	}
	if auth := r.Header.Get("Authorization"); strings.HasPrefix(strings.ToLower(auth), "bearer ") {
		return "key:" + strings.TrimSpace(auth[7:])
	}
	host := r.RemoteAddr
	if i := strings.LastIndex(host, ":"); i > 0 {
		host = host[:i]
	}
	return "ip:" + host
}

// rateBucket tracks hits in a fixed window
type rateBucket struct {
	start time.Time
	hits  int
}

// rateSweepEvery is how many acquires pass between sweeps of expired buckets.
const rateSweepEvery = 256

type rateLimiter struct {
	window     time.Duration
	limit      int
	now        func() time.Time
	sweepEvery int
	mu         sync.Mutex
	calls      int
	buckets    map[string]*rateBucket
}

func newRateLimiter(window time.Duration, limit int) *rateLimiter {
	return &rateLimiter{
		window:     window,
		limit:      limit,
		now:        time.Now,
		sweepEvery: rateSweepEvery,
		buckets:    make(map[string]*rateBucket),
	}
}

// acquire returns errRateLimited once key used up its window
func (l *rateLimiter) acquire(key string) error {
	if key == "" {
		key = "anon"
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.calls++
	if l.calls%l.sweepEvery == 0 {
		l.sweep(now)
	}

	b, ok := l.buckets[key]
	if !ok || now.Sub(b.start) >= l.window {
		l.buckets[key] = &rateBucket{start: now, hits: 1}
		return nil
	}
	if b.hits >= l.limit {
		return errRateLimited
	}
	b.hits++
	return nil
}

// sweep drops buckets whose window has passed. Caller holds mu.
func (l *rateLimiter) sweep(now time.Time) {
	for k, b := range l.buckets {
		if now.Sub(b.start) >= l.window {
			delete(l.buckets, k)
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"status": "error", "error": msg})
}
