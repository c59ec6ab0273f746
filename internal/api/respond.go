package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/jaam8/voting_booth/internal/models"
	"go.uber.org/zap"
)

const maxBodyBytes = 1 << 20

func JSONResponse(w http.ResponseWriter, l *zap.Logger, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		l.Error("failed to encode JSON response", zap.Error(err))
	}
}

func ErrorResponse(w http.ResponseWriter, l *zap.Logger, statusCode int, message string) {
	JSONResponse(w, l, statusCode, models.ErrorResponse{Message: message})
}

func ParseJSONBody(w http.ResponseWriter, r *http.Request, v interface{}) error {
	defer r.Body.Close()
	return json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// WithLogging logs method, path, status and duration. Bodies are never
// logged since they may carry vote tokens.
func WithLogging(l *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)
			l.Info("request completed",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", rec.status),
				zap.Duration("duration", time.Since(start)))
		})
	}
}
