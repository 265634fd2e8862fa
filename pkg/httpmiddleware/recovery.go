package httpmiddleware

import (
	"encoding/json"
	"net/http"

	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"
)

// panicResponse mirrors the error body the API handlers use, so a crashed
// request still reads like every other error to the client.
type panicResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Recovery returns a middleware that recovers from handler panics, logs
// them with a stack trace, and responds with a JSON 500 body. The
// connection is closed since the handler state is unknown.
func Recovery() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					zctx.From(r.Context()).Error("panic recovered",
						zap.Any("panic", rec),
						zap.String("path", r.URL.Path),
						zap.Stack("stack"),
					)
					w.Header().Set("Connection", "close")
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(panicResponse{
						Code:    http.StatusInternalServerError,
						Message: "internal error",
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
