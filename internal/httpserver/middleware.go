package httpserver

import (
	"net/http"
	"strings"
	"time"

	"aquashop/internal/service/cart"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	headerSessionID = "X-Session-ID"
	headerUserID    = "X-User-ID"
	headerUserEmail = "X-User-Email"

	sessionCtxKey = "cart_session"
	noticesCtxKey = "cart_notices"
)

// requestLogger logs one line per request once the handler chain completes.
func requestLogger(logger zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		event := logger.Info()
		switch {
		case status >= 500:
			event = logger.Error()
		case status >= 400:
			event = logger.Warn()
		}
		if len(c.Errors) > 0 {
			event = event.Str("errors", c.Errors.String())
		}
		event.
			Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Str("session_id", c.Writer.Header().Get(headerSessionID)).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Msg("request completed")
	}
}

// sessionMiddleware resolves the cart session from the request headers, issuing a new
// session id when none was sent, and attaches a notice recorder to the request context.
func sessionMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader(headerSessionID))
		if id == "" {
			id = uuid.NewString()
		} else if _, err := uuid.Parse(id); err != nil {
			writeError(c, http.StatusBadRequest, "invalid "+headerSessionID)
			return
		}
		c.Header(headerSessionID, id)

		s := cart.Session{
			ID:     id,
			UserID: strings.TrimSpace(c.GetHeader(headerUserID)),
			Email:  strings.ToLower(strings.TrimSpace(c.GetHeader(headerUserEmail))),
		}
		rec := &cart.NoticeRecorder{}
		c.Request = c.Request.WithContext(cart.WithNotifier(c.Request.Context(), rec))
		c.Set(sessionCtxKey, s)
		c.Set(noticesCtxKey, rec)
		c.Next()
	}
}

func sessionFrom(c *gin.Context) cart.Session {
	s, _ := c.MustGet(sessionCtxKey).(cart.Session)
	return s
}

func noticesFrom(c *gin.Context) []cart.Notice {
	rec, ok := c.Get(noticesCtxKey)
	if !ok {
		return []cart.Notice{}
	}
	return rec.(*cart.NoticeRecorder).Notices()
}
