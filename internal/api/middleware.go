package api

import (
	"crypto/subtle"
	"encoding/base64"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/smazurov/nodepower/internal/logging"
)

const authRealm = `Basic realm="nodepower"`

// HTTPLoggingMiddleware logs each request at a level derived from its status.
func HTTPLoggingMiddleware(ctx huma.Context, next func(huma.Context)) {
	start := time.Now()
	logger := logging.GetLogger("http")

	attrs := []slog.Attr{
		slog.String("method", ctx.Method()),
		slog.String("path", ctx.URL().Path),
		slog.String("remote_addr", ctx.RemoteAddr()),
	}
	if ua := ctx.Header("User-Agent"); ua != "" {
		attrs = append(attrs, slog.String("user_agent", ua))
	}

	next(ctx)

	status := ctx.Status()
	attrs = append(attrs, slog.Int("status", status), slog.Duration("duration", time.Since(start)))

	level := slog.LevelInfo
	switch {
	case ctx.Method() == http.MethodOptions:
		level = slog.LevelDebug
	case status >= 500:
		level = slog.LevelError
	case status >= 400:
		level = slog.LevelWarn
	}
	logger.LogAttrs(ctx.Context(), level, "HTTP request completed", attrs...)
}

// basicAuthMiddleware enforces credentials on operations that declare the
// basicAuth scheme. EventSource cannot send headers, so the SSE stream may
// pass base64("user:pass") in the auth query parameter instead.
func (s *Server) basicAuthMiddleware(username, password string) func(huma.Context, func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		if op := ctx.Operation(); op != nil && len(op.Security) == 0 {
			next(ctx)
			return
		}

		user, pass, ok := credentials(ctx)
		if !ok {
			s.unauthorized(ctx, "Authentication required")
			return
		}

		userOK := subtle.ConstantTimeCompare([]byte(user), []byte(username)) == 1
		passOK := subtle.ConstantTimeCompare([]byte(pass), []byte(password)) == 1
		if !userOK || !passOK {
			s.unauthorized(ctx, "Invalid credentials")
			return
		}

		next(ctx)
	}
}

func (s *Server) unauthorized(ctx huma.Context, msg string) {
	ctx.SetHeader("WWW-Authenticate", authRealm)
	_ = huma.WriteErr(s.api, ctx, http.StatusUnauthorized, msg)
}

func credentials(ctx huma.Context) (string, string, bool) {
	var encoded string
	if header := ctx.Header("Authorization"); header != "" {
		const prefix = "Basic "
		if !strings.HasPrefix(header, prefix) {
			return "", "", false
		}
		encoded = header[len(prefix):]
	} else {
		encoded = ctx.Query("auth")
	}
	if encoded == "" {
		return "", "", false
	}

	decoded, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", "", false
	}
	user, pass, found := strings.Cut(string(decoded), ":")
	return user, pass, found
}

// corsConfig is permissive: the API is meant for a trusted management network.
type corsConfig struct {
	allowOrigin  string
	allowMethods string
	allowHeaders string
	maxAge       string
}

func defaultCORS() corsConfig {
	return corsConfig{
		allowOrigin:  "*",
		allowMethods: strings.Join([]string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions}, ", "),
		allowHeaders: "Content-Type, Authorization, Accept, Origin",
		maxAge:       strconv.Itoa(24 * 60 * 60),
	}
}

func (c corsConfig) middleware(ctx huma.Context, next func(huma.Context)) {
	ctx.SetHeader("Access-Control-Allow-Origin", c.allowOrigin)
	ctx.SetHeader("Access-Control-Allow-Methods", c.allowMethods)
	ctx.SetHeader("Access-Control-Allow-Headers", c.allowHeaders)
	ctx.SetHeader("Access-Control-Max-Age", c.maxAge)
	next(ctx)
}

// preflight answers OPTIONS before routing; huma middleware never sees
// requests for methods an operation does not declare.
func (c corsConfig) preflight(mux *http.ServeMux) {
	mux.HandleFunc("OPTIONS /", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", c.allowOrigin)
		w.Header().Set("Access-Control-Allow-Methods", c.allowMethods)
		w.Header().Set("Access-Control-Allow-Headers", c.allowHeaders)
		w.Header().Set("Access-Control-Max-Age", c.maxAge)
		w.WriteHeader(http.StatusNoContent)
	})
}
