package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"
)

// Recover turns a panic in a handler into a logged error and the generic
// error page rendered by onPanic.
func Recover(onPanic func(http.ResponseWriter, *http.Request, error)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}

				err, ok := rec.(error)
				if !ok {
					err = fmt.Errorf("%v", rec)
				}
				LoggerFromContext(r.Context()).Error().
					Err(err).
					Bytes("stack", debug.Stack()).
					Str("path", r.URL.Path).
					Msg("panic recovered")
				onPanic(w, r, err)
			}()

			next.ServeHTTP(w, r)
		})
	}
}
