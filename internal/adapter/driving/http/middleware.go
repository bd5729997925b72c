package httphandler

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
)

type requestIDKey struct{}

// statusWriter wraps http.ResponseWriter to capture the response status code.
type statusWriter struct {
	http.ResponseWriter
	status int
}

// WriteHeader captures the status code and delegates to the embedded writer.
func (sw *statusWriter) WriteHeader(status int) {
	sw.status = status
	sw.ResponseWriter.WriteHeader(status)
}

// ApplyMiddleware wraps h with request id, logging, panic recovery, the
// loopback host check and no-store caching headers, outermost first.
// listenAddr is the address the server is bound to; its host is accepted in
// the Host header alongside the loopback names.
func ApplyMiddleware(h http.Handler, logger *slog.Logger, listenAddr string) http.Handler {
	h = noStoreMiddleware(h)
	h = hostCheckMiddleware(logger, allowedHosts(listenAddr), h)
	h = recoveryMiddleware(logger, h)
	h = loggingMiddleware(logger, h)
	return requestIDMiddleware(h)
}

// requestIDMiddleware tags each request with a fresh id, echoed in the
// X-Request-ID response header.
func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := uuid.NewString()
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey{}, id)))
	})
}

func requestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// loggingMiddleware logs each HTTP request with method, path, status, and duration.
func loggingMiddleware(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(sw, r)

		logger.Info("http request",
			"request_id", requestID(r.Context()),
			"method", r.Method,
			"path", r.URL.Path,
			"status", sw.status,
			"duration", time.Since(start).Round(time.Microsecond),
		)
	})
}

// recoveryMiddleware recovers from panics in HTTP handlers, logs the error,
// and returns a 500 response.
func recoveryMiddleware(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if v := recover(); v != nil {
				logger.Error("panic recovered",
					"panic", v,
					"request_id", requestID(r.Context()),
					"path", r.URL.Path,
				)
				http.Error(w, "internal server error", http.StatusInternalServerError)
			}
		}()

		next.ServeHTTP(w, r)
	})
}

// noStoreMiddleware keeps decrypted passwords out of browser caches.
func noStoreMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-store")
		next.ServeHTTP(w, r)
	})
}

// allowedHosts returns the host names the server answers to: the loopback
// names plus the host part of listenAddr unless it is a wildcard.
func allowedHosts(listenAddr string) map[string]bool {
	hosts := map[string]bool{
		"localhost": true,
		"127.0.0.1": true,
		"::1":       true,
	}

	host := listenAddr
	if h, _, err := net.SplitHostPort(listenAddr); err == nil {
		host = h
	}
	host = strings.ToLower(strings.Trim(host, "[]"))
	if host != "" && host != "0.0.0.0" && host != "::" {
		hosts[host] = true
	}
	return hosts
}

// hostCheckMiddleware rejects requests whose Host header names anything but
// an allowed host, which defeats DNS rebinding. Browser requests must also be
// same-origin: an Origin header has to match Host, and Sec-Fetch-Site has to
// be same-origin or none.
func hostCheckMiddleware(logger *slog.Logger, allowed map[string]bool, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !allowed[requestHostname(r.Host)] {
			logger.Warn("rejected request for foreign host",
				"request_id", requestID(r.Context()),
				"host", r.Host,
			)
			http.Error(w, "misdirected request", http.StatusMisdirectedRequest)
			return
		}

		if origin := r.Header.Get("Origin"); origin != "" {
			u, err := url.Parse(origin)
			if err != nil || !strings.EqualFold(u.Host, r.Host) {
				logger.Warn("rejected cross-origin request",
					"request_id", requestID(r.Context()),
					"origin", origin,
				)
				http.Error(w, "cross-origin request refused", http.StatusForbidden)
				return
			}
		}

		switch r.Header.Get("Sec-Fetch-Site") {
		case "", "same-origin", "none":
		default:
			http.Error(w, "cross-site request refused", http.StatusForbidden)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func requestHostname(hostport string) string {
	host := hostport
	if h, _, err := net.SplitHostPort(hostport); err == nil {
		host = h
	}
	return strings.ToLower(strings.Trim(host, "[]"))
}
