package middleware

import (
	"log"
	"net/http"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

// Logger logs one line per request with its status, size and latency.
// Websocket upgrades are logged when the connection is handed off.
func Logger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		defer func() {
			log.Printf("[http] %s %s %d %dB %s req=%s",
				r.Method, r.URL.RequestURI(), status(ww), ww.BytesWritten(),
				time.Since(start).Round(time.Microsecond), chimiddleware.GetReqID(r.Context()))
		}()

		next.ServeHTTP(ww, r)
	})
}

// status treats a handler that never wrote a header as 200
func status(ww chimiddleware.WrapResponseWriter) int {
	if ww.Status() == 0 {
		return http.StatusOK
	}
	return ww.Status()
}
