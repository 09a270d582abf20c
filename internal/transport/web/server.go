// Package web serves the browser front-end: the chat page, the SSE answer
// stream, document upload, and the transcript.
package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/docqa/internal/domain"
	logpkg "github.com/kailas-cloud/docqa/internal/logger"
	"github.com/kailas-cloud/docqa/internal/metrics"
	chatuc "github.com/kailas-cloud/docqa/internal/usecase/chat"
	healthuc "github.com/kailas-cloud/docqa/internal/usecase/health"
	ingestuc "github.com/kailas-cloud/docqa/internal/usecase/ingest"
)

// maxUploadBytes caps one PDF upload.
const maxUploadBytes = 32 << 20

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error) bool

// Server is the browser-facing HTTP server. One chat session backs the UI:
// the transcript survives page reloads but not restarts.
type Server struct {
	ingest        *ingestuc.Service
	session       *chatuc.Session
	health        *healthuc.Service
	docsDir       string
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates the web server.
func NewServer(
	ingest *ingestuc.Service,
	session *chatuc.Session,
	health *healthuc.Service,
	docsDir string,
	logger *zap.Logger,
) *Server {
	s := &Server{
		ingest:  ingest,
		session: session,
		health:  health,
		docsDir: docsDir,
		logger:  logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrIngestion, http.StatusBadRequest, "ingestion_failed"),
		sentinelHandler(domain.ErrIndexQuery, http.StatusConflict, "index_query_failed"),
		sentinelHandler(domain.ErrEmbedding, http.StatusBadGateway, "embedding_provider_error"),
		sentinelHandler(domain.ErrGeneration, http.StatusBadGateway, "generation_provider_error"),
		sentinelHandler(domain.ErrIndexWrite, http.StatusInternalServerError, "index_write_failed"),
		sentinelHandler(domain.ErrIndexLoad, http.StatusInternalServerError, "index_load_failed"),
	}
	return s
}

// Router builds the chi router with the middleware stack.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(jsonRecoverer(s.logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(s.logger))
	r.Use(metrics.Middleware())

	r.Get("/", s.handleIndex)
	r.Get("/api/ask", s.handleAsk)
	r.Post("/api/documents", s.handleUpload)
	r.Get("/api/history", s.handleHistory)
	r.Get("/healthz", s.handleHealth)
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	return r
}

// handleIndex serves the chat page.
func (s *Server) handleIndex(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = io.WriteString(w, chatPage)
}

// sseFrame is one server-sent answer frame.
type sseFrame struct {
	Content string `json:"content,omitempty"`
	Error   string `json:"error,omitempty"`
	Done    bool   `json:"done,omitempty"`
}

// handleAsk streams one answer as server-sent events. Failures arrive as a
// terminal error frame: the EventSource on the page handles every outcome
// the same way, and the session stays usable for the next question.
func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	question := r.URL.Query().Get("q")

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	ctx, usage := domain.NewContextWithUsage(r.Context())

	answer, err := s.session.Ask(ctx, question)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	setEmbeddingHeader(w, usage)

	if err != nil {
		writeFrame(w, flusher, sseFrame{Error: s.safeMessage(err), Done: true})
		return
	}
	defer answer.Close()

	for {
		frag, err := answer.Recv()
		if errors.Is(err, io.EOF) {
			writeFrame(w, flusher, sseFrame{Done: true})
			return
		}
		if err != nil {
			writeFrame(w, flusher, sseFrame{Error: s.safeMessage(err), Done: true})
			return
		}
		writeFrame(w, flusher, sseFrame{Content: frag})
	}
}

func writeFrame(w http.ResponseWriter, flusher http.Flusher, frame sseFrame) {
	payload, _ := json.Marshal(frame)
	fmt.Fprintf(w, "data: %s\n\n", payload)
	flusher.Flush()
}

// handleUpload accepts a PDF, saves it into the documents directory, and
// runs the ingestion pipeline. A failure aborts this upload only.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "PDF file upload required in field 'file'")
		return
	}
	defer file.Close()

	name := filepath.Base(header.Filename)
	if !strings.EqualFold(filepath.Ext(name), ".pdf") {
		writeError(w, http.StatusBadRequest, "ingestion_failed", "only PDF files are accepted")
		return
	}

	if err := os.MkdirAll(s.docsDir, 0o755); err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", "cannot store the upload")
		return
	}

	path := filepath.Join(s.docsDir, name)
	dst, err := os.Create(path)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", "cannot store the upload")
		return
	}
	if _, err := io.Copy(dst, file); err != nil {
		dst.Close()
		os.Remove(path)
		writeError(w, http.StatusBadRequest, "bad_request", "upload interrupted")
		return
	}
	dst.Close()

	report, err := s.ingest.IngestFile(r.Context(), path)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message":  fmt.Sprintf("PDF '%s' processed and added to knowledge base!", report.Document.Name),
		"document": report.Document.Name,
		"segments": report.Segments,
	})
}

// handleHistory returns the transcript so a reloaded page can redraw it.
func (s *Server) handleHistory(w http.ResponseWriter, _ *http.Request) {
	turns := s.session.History()

	type turnJSON struct {
		Question string `json:"question"`
		Answer   string `json:"answer"`
	}
	items := make([]turnJSON, len(turns))
	for i, t := range turns {
		items[i] = turnJSON{Question: t.Question, Answer: t.Answer}
	}

	writeJSON(w, http.StatusOK, map[string]any{"turns": items})
}

// handleHealth reports component health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	status := http.StatusOK
	if report.Status != healthuc.Healthy {
		status = http.StatusServiceUnavailable
	}

	writeJSON(w, status, map[string]any{
		"status":         report.Status,
		"checks":         report.Checks,
		"index_segments": report.IndexSegments,
	})
}

// handleDomainError walks the handler chain; unrecognized errors become an
// opaque 500.
func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	for _, h := range s.errorHandlers {
		if h(w, err) {
			return
		}
	}
	s.logger.Error("unhandled error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
}

func sentinelHandler(sentinel error, status int, code string) errorHandler {
	return func(w http.ResponseWriter, err error) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, safeDomainMessage(err))
		return true
	}
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrIngestion,
		domain.ErrEmbedding,
		domain.ErrIndexWrite,
		domain.ErrIndexLoad,
		domain.ErrIndexQuery,
		domain.ErrGeneration,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// safeMessage is the SSE variant: the empty-question rejection is the one
// non-sentinel error a user can trigger, and its text is safe to show.
func (s *Server) safeMessage(err error) string {
	if errors.Is(err, chatuc.ErrEmptyQuestion) {
		return chatuc.ErrEmptyQuestion.Error()
	}
	return safeDomainMessage(err)
}

func setEmbeddingHeader(w http.ResponseWriter, usage *domain.EmbeddingUsage) {
	if usage != nil && usage.Used {
		w.Header().Set("X-Embedding-Tokens", strconv.Itoa(usage.TotalTokens))
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]string{"code": code, "message": message})
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.Stack("stacktrace"),
					)
					writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEventMiddleware emits a canonical log line per request and propagates X-Request-ID.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			requestID := chiMiddleware.GetReqID(r.Context())
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
