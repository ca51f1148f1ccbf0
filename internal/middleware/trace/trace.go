package trace

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"runtime/debug"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	emilog "emipilot/internal/log"
)

type ContextKey string

const (
	RequestIDKey    ContextKey = "request_id"
	RequestIDHeader            = "X-Request-ID"
)

var validRequestID = regexp.MustCompile(`^[A-Za-z0-9._-]{1,64}$`)

// Middleware assigns request ids, logs every request and recovers panics.
type Middleware struct {
	logger     *emilog.Logger
	structured *emilog.StructuredLogger
	extractIP  func(*http.Request) string
	onPanic    http.HandlerFunc

	totalRequests int64
	panics        int64
}

// NewMiddleware builds the tracing middleware. onPanic writes the response
// after a handler panic; it is only called when nothing has been written yet.
func NewMiddleware(logger *emilog.Logger, extractIP func(*http.Request) string, onPanic http.HandlerFunc) *Middleware {
	return &Middleware{
		logger:     logger,
		structured: emilog.NewStructuredLogger(logger),
		extractIP:  extractIP,
		onPanic:    onPanic,
	}
}

func (m *Middleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		atomic.AddInt64(&m.totalRequests, 1)

		clientIP := ""
		if m.extractIP != nil {
			clientIP = m.extractIP(r)
		}

		requestID := r.Header.Get(RequestIDHeader)
		if !validRequestID.MatchString(requestID) {
			requestID = GenerateRequestID()
		}
		w.Header().Set(RequestIDHeader, requestID)

		logger := m.logger.With(emilog.FieldRequestID, requestID)
		ctx := context.WithValue(r.Context(), RequestIDKey, requestID)
		ctx = emilog.WithLogger(ctx, logger)
		r = r.WithContext(ctx)

		m.structured.LogHTTPStart(ctx, r, clientIP)

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		defer func() {
			if rec := recover(); rec != nil {
				atomic.AddInt64(&m.panics, 1)
				logger.ErrorContext(ctx, "Recovered from panic",
					emilog.FieldError, fmt.Sprint(rec),
					"stack", string(debug.Stack()))
				if !rw.wroteHeader {
					if m.onPanic != nil {
						m.onPanic(rw, r)
					} else {
						rw.WriteHeader(http.StatusInternalServerError)
					}
				}
			}
			m.structured.LogHTTPEnd(ctx, r, rw.statusCode, time.Since(start).Milliseconds(), clientIP)
		}()

		next.ServeHTTP(rw, r)
	})
}

type responseWriter struct {
	http.ResponseWriter
	statusCode  int
	wroteHeader bool
}

func (rw *responseWriter) WriteHeader(code int) {
	if rw.wroteHeader {
		return
	}
	rw.statusCode = code
	rw.wroteHeader = true
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	if !rw.wroteHeader {
		rw.WriteHeader(http.StatusOK)
	}
	return rw.ResponseWriter.Write(b)
}

// GenerateRequestID creates a unique request ID for tracing
func GenerateRequestID() string {
	return "req_" + uuid.NewString()
}

// GetRequestID extracts the request ID from context
func GetRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(RequestIDKey).(string); ok {
		return id
	}
	return ""
}

type Metrics struct {
	TotalRequests int64
	Panics        int64
}

func (m *Middleware) GetMetrics() Metrics {
	return Metrics{
		TotalRequests: atomic.LoadInt64(&m.totalRequests),
		Panics:        atomic.LoadInt64(&m.panics),
	}
}
