package middlewares

import (
	"context"
	"net/http"

	"github.com/jmoiron/sqlx"
	"github.com/sbilibin2017/microblog/internal/logger"
)

// TxMiddleware wraps an HTTP handler with a database transaction.
// The transaction is finished when the handler writes its status: it is
// committed for statuses below 400 and rolled back otherwise or on panic.
// A failed commit turns the response into a 500.
func TxMiddleware(db *sqlx.DB) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tx, err := db.BeginTxx(r.Context(), nil)
			if err != nil {
				logger.FromContext(r.Context()).Errorw("failed to begin transaction", "error", err)
				w.WriteHeader(http.StatusInternalServerError)
				return
			}

			tw := &txResponseWriter{ResponseWriter: w, tx: tx, ctx: r.Context()}

			defer func() {
				if rec := recover(); rec != nil {
					if !tw.finished {
						tx.Rollback()
					}
					panic(rec)
				}
			}()

			ctx := setTxToContext(r.Context(), tx)
			r = r.WithContext(ctx)

			next.ServeHTTP(tw, r)

			if !tw.finished {
				tw.WriteHeader(http.StatusOK)
			}
		})
	}
}

type txResponseWriter struct {
	http.ResponseWriter
	tx       *sqlx.Tx
	ctx      context.Context
	finished bool
	failed   bool
}

func (w *txResponseWriter) WriteHeader(status int) {
	if w.finished {
		w.ResponseWriter.WriteHeader(status)
		return
	}
	w.finished = true

	if status >= http.StatusBadRequest {
		if err := w.tx.Rollback(); err != nil {
			logger.FromContext(w.ctx).Errorw("failed to rollback transaction", "error", err)
		}
		w.ResponseWriter.WriteHeader(status)
		return
	}

	if err := w.tx.Commit(); err != nil {
		logger.FromContext(w.ctx).Errorw("failed to commit transaction", "error", err)
		w.failed = true
		w.Header().Del("Location")
		http.Error(w.ResponseWriter, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.ResponseWriter.WriteHeader(status)
}

func (w *txResponseWriter) Write(b []byte) (int, error) {
	if !w.finished {
		w.WriteHeader(http.StatusOK)
	}
	if w.failed {
		return len(b), nil
	}
	return w.ResponseWriter.Write(b)
}

// contextKey is an unexported type for keys in context
type contextKey int

const (
	txKey contextKey = iota
	currentUserKey
	apiUserIDKey
)

// setTxToContext stores a transaction in the context
func setTxToContext(ctx context.Context, tx *sqlx.Tx) context.Context {
	return context.WithValue(ctx, txKey, tx)
}

// GetTxFromContext retrieves the transaction from the context. Returns nil if not present.
func GetTxFromContext(ctx context.Context) *sqlx.Tx {
	tx, _ := ctx.Value(txKey).(*sqlx.Tx)
	return tx
}
