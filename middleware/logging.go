package middleware

import (
	"net/http"
	"time"

	"go.uber.org/zap"
	"p9e.in/logibook/config"
)

type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func (s *statusRecorder) Write(b []byte) (int, error) {
	if s.status == 0 {
		s.status = http.StatusOK
	}
	n, err := s.ResponseWriter.Write(b)
	s.bytes += n
	return n, err
}

// RequestLogger logs one line per request. Claims are only known once the
// JWT middleware has run, so mount it inside the authenticated subrouters
// to get user ids in the log.
func RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w}
		next.ServeHTTP(rec, r)
		if rec.status == 0 {
			rec.status = http.StatusOK
		}

		fields := []zap.Field{
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Int("bytes", rec.bytes),
			zap.Duration("took", time.Since(start)),
			zap.String("ip", getClientIP(r)),
		}
		if id := GetUserID(r); id != "" {
			fields = append(fields, zap.String("user", id))
		}
		switch {
		case rec.status >= 500:
			config.Log.Error("request", fields...)
		case rec.status >= 400:
			config.Log.Warn("request", fields...)
		default:
			config.Log.Info("request", fields...)
		}
	})
}
