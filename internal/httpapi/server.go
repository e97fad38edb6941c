package httpapi

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/time/rate"

	"github.com/kianmotamedipinnacle-boop/jet-dashboard/internal/chat"
	"github.com/kianmotamedipinnacle-boop/jet-dashboard/internal/config"
	"github.com/kianmotamedipinnacle-boop/jet-dashboard/internal/dashboard"
	"github.com/kianmotamedipinnacle-boop/jet-dashboard/internal/logging"
	"github.com/kianmotamedipinnacle-boop/jet-dashboard/internal/notify"
	"github.com/kianmotamedipinnacle-boop/jet-dashboard/internal/render"
	"github.com/kianmotamedipinnacle-boop/jet-dashboard/internal/store"
	"github.com/kianmotamedipinnacle-boop/jet-dashboard/internal/store/postgres"
	"github.com/kianmotamedipinnacle-boop/jet-dashboard/internal/ui"
	"github.com/kianmotamedipinnacle-boop/jet-dashboard/pkg/models"
)

// limitBody wraps r.Body with http.MaxBytesReader so handlers cannot read more than maxBytes.
func limitBody(w http.ResponseWriter, r *http.Request, maxBytes int64) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
}

// bodyLimitMiddleware limits request body size for POST, PUT, PATCH.
func bodyLimitMiddleware(maxBytes int64, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost || r.Method == http.MethodPut || r.Method == http.MethodPatch {
			limitBody(w, r, maxBytes)
		}
		next.ServeHTTP(w, r)
	})
}

// corsMiddleware sets CORS headers for dev mode (UI dev server on a different origin).
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-API-Key")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ServerOptions configures the HTTP server (home dir, listen addr, API key, DB, metrics, webhook).
type ServerOptions struct {
	Home           string
	Addr           string
	Dev            bool
	APIKey         string       // if set, require X-API-Key header or query api_key
	DBDriver       string       // "sqlite" (default) or "postgres"
	DBURL          string       // for postgres: connection string
	MetricsHandler http.Handler // if set, used for /metrics (e.g. OTel Prometheus handler)
	UseOtelHTTP    bool         // if true, wrap handler with otelhttp for request metrics
	Logger         *slog.Logger

	// Activity entries are forwarded to WebhookURL when set; WebhookActions filters by action type.
	WebhookURL     string
	WebhookChannel string
	WebhookActions []string

	// Per-session chat rate; zero uses the chat package defaults.
	ChatLimit rate.Limit
	ChatBurst int
}

// App holds the HTTP server, SSE hub, the dashboard board and its store, chat sessions and home path.
type App struct {
	Server   *http.Server
	Hub      *SSEHub
	Board    *dashboard.Board
	Chat     *chat.Hub
	Store    store.Store
	Renderer *render.Renderer
	Notifier *notify.Dispatcher // nil unless a webhook is configured
	Home     string

	opts      ServerOptions
	log       *slog.Logger
	closeOnce sync.Once
	closeErr  error
}

// openStore opens the configured backend.
func openStore(opts ServerOptions) (store.Store, error) {
	if opts.DBDriver == "postgres" {
		return postgres.Open(opts.DBURL)
	}
	return store.Open(opts.Home)
}

// NewApp opens the store, loads the board and registers all routes.
func NewApp(opts ServerOptions) (*App, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	st, err := openStore(opts)
	if err != nil {
		return nil, err
	}

	app := &App{
		Hub:      NewSSEHub(),
		Store:    st,
		Renderer: render.New(render.DefaultTTL),
		Home:     opts.Home,
		opts:     opts,
		log:      logger,
	}
	if opts.WebhookURL != "" {
		reg := notify.NewRegistry()
		reg.Register(notify.Webhook{URL: opts.WebhookURL, Channel: opts.WebhookChannel, Username: "jet", Actions: opts.WebhookActions})
		app.Notifier = notify.NewDispatcher(reg, 0, logger)
	}

	board, err := dashboard.New(context.Background(), st, dashboard.Options{Logger: logger, Publish: app.publish})
	if err != nil {
		_ = st.Close()
		if app.Notifier != nil {
			app.Notifier.Close()
		}
		return nil, err
	}
	app.Board = board
	app.Chat = chat.New(chat.Options{
		Recorder: board,
		Logger:   logger,
		Publish:  app.publish,
		Limit:    opts.ChatLimit,
		Burst:    opts.ChatBurst,
	})

	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{"ok": true})
	})
	if opts.MetricsHandler != nil {
		mux.Handle("/metrics", opts.MetricsHandler)
	} else {
		mux.HandleFunc("/metrics", app.handleMetrics)
	}
	mux.HandleFunc("/config", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, app.config())
	})
	mux.HandleFunc("/bootstrap", app.handleBootstrap)
	mux.HandleFunc("/stream", app.Hub.Handler())

	mux.HandleFunc("/kanban", app.handleKanban)
	mux.HandleFunc("/kanban/", app.handleKanbanItem)
	mux.HandleFunc("/brain", app.handleBrain)
	mux.HandleFunc("/brain/", app.handleBrainItem)
	mux.HandleFunc("/docs", app.handleDocs)
	mux.HandleFunc("/docs/", app.handleDocItem)
	mux.HandleFunc("/notes", app.handleNotes)
	mux.HandleFunc("/notes/", app.handleNoteItem)
	mux.HandleFunc("/log", app.handleLog)
	mux.HandleFunc("/status", app.handleStatus)
	mux.HandleFunc("/chat/", app.handleChat)
	mux.HandleFunc("/seed", app.handleSeed)
	mux.HandleFunc("/seed/documents", app.handleSeedDocuments)

	// UI: embedded dashboard page
	mux.Handle("/", ui.Handler())

	var handler http.Handler = mux
	handler = bodyLimitMiddleware(models.DefaultMaxRequestBodyBytes, handler)
	if opts.Dev {
		handler = corsMiddleware(handler)
	}
	if opts.APIKey != "" {
		handler = apiKeyMiddleware(opts.APIKey, handler)
	}
	handler = requestLogMiddleware(logger, handler)
	if opts.UseOtelHTTP {
		handler = otelhttp.NewHandler(handler, "jet")
	}
	app.Server = &http.Server{
		Addr:              opts.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	app.Server.RegisterOnShutdown(func() {
		_ = app.Close()
	})
	return app, nil
}

// Close ends open event streams, flushes pending notifications and closes the store. Safe to call more than once.
func (a *App) Close() error {
	a.closeOnce.Do(func() {
		a.Hub.Close()
		if a.Notifier != nil {
			a.Notifier.Close()
		}
		a.closeErr = a.Store.Close()
	})
	return a.closeErr
}

// publish fans board and chat events out to SSE subscribers and log entries to the notifier.
func (a *App) publish(event string, payload any) {
	a.Hub.PublishJSON(map[string]any{"type": event, "data": payload})
	if event != dashboard.EventLog || a.Notifier == nil {
		return
	}
	if entry, ok := payload.(models.ActivityEntry); ok {
		a.Notifier.Enqueue(entry)
	}
}

func (a *App) config() models.Config {
	return models.Config{
		Home:        a.Home,
		BootstrapID: getBootstrapID(a.Home),
		DBDriver:    a.Store.Driver(),
	}
}

func (a *App) handleMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	counts := a.Board.CardCounts()
	statuses := make([]string, 0, len(counts))
	for s := range counts {
		statuses = append(statuses, s)
	}
	sort.Strings(statuses)
	_, _ = fmt.Fprintf(w, "# TYPE jet_cards_total gauge\n")
	for _, s := range statuses {
		_, _ = fmt.Fprintf(w, "jet_cards_total{status=%q} %d\n", s, counts[s])
	}
	_, _ = fmt.Fprintf(w, "# TYPE jet_activity_entries_total gauge\n")
	_, _ = fmt.Fprintf(w, "jet_activity_entries_total %d\n", a.Board.ActivityCount())
	_, _ = fmt.Fprintf(w, "# TYPE jet_sse_subscribers gauge\n")
	_, _ = fmt.Fprintf(w, "jet_sse_subscribers %d\n", a.Hub.Len())
}

func (a *App) handleBootstrap(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	all := dashboard.Filter{}
	writeJSON(w, models.Bootstrap{
		Config: a.config(),
		Kanban: a.Board.ListCards(all),
		Brain:  a.Board.ListBrain(all),
		Docs:   a.Board.ListDocs(all),
		Notes:  a.Board.ListNotes(all),
		Status: a.Board.GetStatus(),
		Log:    a.Board.PageActivity(dashboard.PageRequest{}),
	})
}

// responseRecorder captures status code for logging and forwards Flusher if supported.
type responseRecorder struct {
	http.ResponseWriter
	status int
}

func (r *responseRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *responseRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Unwrap lets http.ResponseController reach the connection, e.g. to lift write deadlines.
func (r *responseRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

func apiKeyMiddleware(apiKey string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path
		if path == "/health" || path == "/metrics" {
			next.ServeHTTP(w, r)
			return
		}
		key := r.Header.Get("X-API-Key")
		if key == "" {
			key = r.URL.Query().Get("api_key")
		}
		if key != apiKey {
			writeJSONError(w, http.StatusUnauthorized, "invalid or missing API key")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func requestLogMiddleware(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		start := time.Now()
		rec := &responseRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, req)
		logging.WithRequest(logger, req.Method, req.URL.Path).Info("request",
			"status", rec.status,
			"duration_ms", time.Since(start).Milliseconds())
	})
}

func getBootstrapID(home string) string {
	if home == "" {
		return ""
	}
	protected := config.ProtectedDir(home)
	_ = os.MkdirAll(protected, 0o755)
	path := filepath.Join(protected, "bootstrap_id")
	if b, err := os.ReadFile(path); err == nil {
		if s := string(bytesTrimSpace(b)); s != "" {
			return s
		}
	}
	id := randomHex(16)
	_ = os.WriteFile(path, []byte(id+"\n"), 0o644)
	return id
}

func randomHex(n int) string {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		// fallback: time-based
		return hex.EncodeToString([]byte(time.Now().Format(time.RFC3339Nano)))
	}
	return hex.EncodeToString(b)
}

func bytesTrimSpace(b []byte) []byte {
	i := 0
	j := len(b)
	for i < j && (b[i] == ' ' || b[i] == '\n' || b[i] == '\r' || b[i] == '\t') {
		i++
	}
	for j > i && (b[j-1] == ' ' || b[j-1] == '\n' || b[j-1] == '\r' || b[j-1] == '\t') {
		j--
	}
	return b[i:j]
}

func writeJSON(w http.ResponseWriter, v any) {
	writeJSONStatus(w, http.StatusOK, v)
}

func writeJSONStatus(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}

// writeJSONError sends a JSON body {"error": "message"} with the given status code.
func writeJSONError(w http.ResponseWriter, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]any{"error": message})
}

// writeResult writes v with code, mapping board errors: validation failures become 400,
// storage failures keep the result but mark it with X-Durability, anything else is a 500.
func writeResult(w http.ResponseWriter, code int, v any, err error) {
	var verr *dashboard.ValidationError
	var serr *dashboard.StorageError
	switch {
	case err == nil:
	case errors.As(err, &verr):
		writeJSONError(w, http.StatusBadRequest, verr.Msg)
		return
	case errors.As(err, &serr):
		w.Header().Set("X-Durability", "uncertain")
	default:
		writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSONStatus(w, code, v)
}

// decodeJSON reads the request body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSONError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return false
		}
		writeJSONError(w, http.StatusBadRequest, "invalid json")
		return false
	}
	return true
}

func methodNotAllowed(w http.ResponseWriter) {
	writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
}
