package http

import (
	"net/http"

	"github.com/felixge/httpsnoop"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const requestIDHeader = "X-Request-Id"

// requestID Проставляет X-Request-Id, если клиент его не передал
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
			r.Header.Set(requestIDHeader, id)
		}
		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r)
	})
}

func accessLog(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			snoop := httpsnoop.CaptureMetrics(next, w, r)

			logger.Info("http request",
				zap.String("request_id", r.Header.Get(requestIDHeader)),
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", snoop.Code),
				zap.Int64("bytes", snoop.Written),
				zap.Duration("duration", snoop.Duration),
				zap.String("remote_addr", r.RemoteAddr),
			)
		})
	}
}

// recoverPanic Перехватывает панику в обработчике и отвечает 500
func recoverPanic(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rv := recover(); rv != nil {
					if rv == http.ErrAbortHandler {
						panic(rv)
					}
					logger.Error("panic in http handler",
						zap.Any("panic", rv),
						zap.String("path", r.URL.Path),
						zap.Stack("stack"),
					)
					respondWithError(w, http.StatusInternalServerError, errInternal)
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
