package middleware

import (
	"bytes"
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gocomet/taxi-fare/internal/api/dto"
	"github.com/gocomet/taxi-fare/pkg/cache"
	apperrors "github.com/gocomet/taxi-fare/pkg/errors"
	"github.com/gocomet/taxi-fare/pkg/logger"
)

// IdempotencyHeader is the request header holding the client key
const IdempotencyHeader = "Idempotency-Key"

// IdempotencyStore claims keys and records responses for replay
type IdempotencyStore interface {
	Begin(ctx context.Context, key string) (*cache.StoredResponse, error)
	Complete(ctx context.Context, key string, resp cache.StoredResponse) error
	Release(ctx context.Context, key string) error
}

var _ IdempotencyStore = (*cache.IdempotencyStore)(nil)

type recordingWriter struct {
	gin.ResponseWriter
	body bytes.Buffer
}

func (w *recordingWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *recordingWriter) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// Idempotency replays the recorded response for a repeated Idempotency-Key.
// Only 2xx responses are recorded; on any other outcome the key is released so
// the client can retry. Requests without the header pass straight through, as
// do all requests when the store is unreachable.
func Idempotency(store IdempotencyStore, log logger.Sink) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader(IdempotencyHeader)
		if key == "" || store == nil {
			c.Next()
			return
		}
		ctx := c.Request.Context()

		stored, err := store.Begin(ctx, key)
		switch {
		case errors.Is(err, cache.ErrRequestInProgress):
			appErr := apperrors.NewAppError(apperrors.CodeRequestInProgress, "a request with this idempotency key is still in progress", http.StatusConflict, err)
			c.AbortWithStatusJSON(appErr.Status, dto.NewErrorResponse(appErr, GetRequestID(c)))
			return
		case err != nil:
			log.Warn("Idempotency store unavailable, processing request without replay protection",
				logger.String("idempotency_key", key),
				logger.Err(err),
			)
			c.Next()
			return
		case stored != nil:
			log.Info("Replaying recorded response", logger.String("idempotency_key", key))
			c.Header("X-Idempotency-Replayed", "true")
			c.Data(stored.Status, "application/json; charset=utf-8", stored.Body)
			c.Abort()
			return
		}

		w := &recordingWriter{ResponseWriter: c.Writer}
		c.Writer = w
		c.Next()

		status := w.Status()
		if status < 200 || status >= 300 {
			if err := store.Release(context.WithoutCancel(ctx), key); err != nil {
				log.Warn("Failed to release idempotency key", logger.String("idempotency_key", key), logger.Err(err))
			}
			return
		}
		resp := cache.StoredResponse{Status: status, Body: w.body.Bytes()}
		if err := store.Complete(context.WithoutCancel(ctx), key, resp); err != nil {
			log.Error("Failed to record idempotent response", logger.String("idempotency_key", key), logger.Err(err))
		}
	}
}
