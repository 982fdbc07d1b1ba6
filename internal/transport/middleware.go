package transport

import (
	"bytes"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	portidem "github.com/alanyang/prodline/internal/port/idempotency"
)

// noisyPaths are high-frequency read paths logged at Debug to keep Info clean.
var noisyPaths = map[string]bool{
	"/api/tasks/": true,
	"/api/ws":     true,
}

func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		if c.Request.Method == http.MethodOptions {
			return
		}
		level := slog.LevelInfo
		if c.Request.Method == http.MethodGet && noisyPaths[c.Request.URL.Path] {
			level = slog.LevelDebug
		}

		slog.Log(c.Request.Context(), level, "request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}

func CORSMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS, PUT")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, Idempotency-Key")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

const IdempotencyHeader = "Idempotency-Key"

// bodyRecorder tees the response body so it can be replayed later.
type bodyRecorder struct {
	gin.ResponseWriter
	buf bytes.Buffer
}

func (w *bodyRecorder) Write(b []byte) (int, error) {
	w.buf.Write(b)
	return w.ResponseWriter.Write(b)
}

// IdempotencyMiddleware replays the stored response for a repeated
// Idempotency-Key on mutating requests. Only 2xx responses are remembered so
// a client can retry after a conflict. A key is bound to the operation it was
// first used on: reusing it elsewhere is rejected with 422, and a second
// request arriving while the first is still running gets 409. The in-flight
// guard is per process.
func IdempotencyMiddleware(store portidem.Store) gin.HandlerFunc {
	var inflight sync.Map
	return func(c *gin.Context) {
		key := c.GetHeader(IdempotencyHeader)
		if key == "" || c.Request.Method == http.MethodGet || c.Request.Method == http.MethodOptions {
			c.Next()
			return
		}
		ctx := c.Request.Context()
		opType := c.Request.Method + " " + c.FullPath()

		if _, busy := inflight.LoadOrStore(key, struct{}{}); busy {
			c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": "a request with this Idempotency-Key is still in progress"})
			return
		}
		defer inflight.Delete(key)

		rec, found, err := store.Check(ctx, key)
		if err != nil {
			slog.WarnContext(ctx, "idempotency lookup failed", "key", key, "error", err)
		} else if found && rec.OpType != "" && rec.OpType != opType {
			c.AbortWithStatusJSON(http.StatusUnprocessableEntity, gin.H{
				"error": "Idempotency-Key was already used for " + rec.OpType,
			})
			return
		} else if found {
			c.Header("Idempotent-Replayed", "true")
			c.Data(rec.StatusCode, "application/json; charset=utf-8", rec.Body)
			c.Abort()
			return
		}

		w := &bodyRecorder{ResponseWriter: c.Writer}
		c.Writer = w
		c.Next()

		status := w.Status()
		if status < 200 || status >= 300 {
			return
		}
		if err := store.Store(ctx, key, opType, portidem.Record{StatusCode: status, Body: w.buf.Bytes()}); err != nil {
			slog.WarnContext(ctx, "idempotency store failed", "key", key, "error", err)
		}
	}
}
