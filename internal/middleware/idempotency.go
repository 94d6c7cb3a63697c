package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"time"

	"go-elms/internal/shared/apperror"
	"go-elms/internal/shared/response"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

const (
	idempotencyLockTTL  = 30 * time.Second
	idempotencyCacheTTL = 24 * time.Hour
)

type bodyRecorder struct {
	gin.ResponseWriter
	body bytes.Buffer
}

func (w *bodyRecorder) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

// cachedResponse preserves the original status code so a replayed 201 from
// submit comes back as a 201, not a 200.
type cachedResponse struct {
	Status int             `json:"status"`
	Body   json.RawMessage `json:"body"`
}

// Idempotency replays the cached response for a repeated Idempotency-Key on
// mutating routes. Submit and decide both retry from flaky clients; without
// this a retried POST files the leave twice or trips the status CAS.
func Idempotency(rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		idempKey := c.GetHeader("Idempotency-Key")
		if idempKey == "" || c.Request.Method != http.MethodPost {
			c.Next()
			return
		}

		userID := c.GetString("user_id")
		cacheKey := "idemp:" + c.FullPath() + ":" + userID + ":" + idempKey
		lockKey := cacheKey + ":lock"

		if cached, err := rdb.Get(c.Request.Context(), cacheKey).Result(); err == nil {
			var resp cachedResponse
			if err := json.Unmarshal([]byte(cached), &resp); err == nil && resp.Status != 0 {
				c.Header("X-Idempotent-Replay", "true")
				c.Data(resp.Status, "application/json", resp.Body)
				c.Abort()
				return
			}
			// A corrupt cache entry falls through and re-runs the handler.
		}

		// SetNX is the lock: a second request with the same key while the
		// first is still in flight gets a conflict instead of a double run.
		isNew, err := rdb.SetNX(c.Request.Context(), lockKey, "locked", idempotencyLockTTL).Result()
		if err == nil && !isNew {
			response.Error(c, http.StatusConflict, apperror.CodeConflict, "Request with this idempotency key is already being processed", nil)
			c.Abort()
			return
		}

		recorder := &bodyRecorder{ResponseWriter: c.Writer}
		c.Writer = recorder

		c.Next()

		status := c.Writer.Status()
		if status >= http.StatusOK && status < http.StatusMultipleChoices {
			if entry, err := json.Marshal(cachedResponse{Status: status, Body: recorder.body.Bytes()}); err == nil {
				rdb.Set(c.Request.Context(), cacheKey, entry, idempotencyCacheTTL)
			}
		}
		rdb.Del(c.Request.Context(), lockKey)
	}
}
