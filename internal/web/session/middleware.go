package session

import (
	"github.com/gin-gonic/gin"
)

const (
	contextKeySession = "wanderlust.session"
	contextKeyManager = "wanderlust.session.manager"
)

// Middleware loads the request's session into the gin context. A store
// failure is attached to the context and the chain is aborted so the error
// layer can answer. Sessions not committed by a handler are committed after
// it returns, provided nothing was written yet.
func Middleware(m *Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(contextKeyManager, m)
		s, err := m.Load(c.Request.Context(), c.Request)
		if err != nil {
			_ = c.Error(err)
			c.Abort()
			return
		}
		c.Set(contextKeySession, s)

		c.Next()

		if !c.Writer.Written() {
			if err := m.Commit(c.Request.Context(), c.Writer, s); err != nil {
				_ = c.Error(err)
			}
		}
	}
}

// FromContext returns the request's session. Outside the middleware (or when
// loading failed) it returns a fresh detached session so callers never nil-check.
func FromContext(c *gin.Context) *Session {
	if v, ok := c.Get(contextKeySession); ok {
		if s, ok := v.(*Session); ok {
			return s
		}
	}
	s := &Session{rec: freshRecord()}
	c.Set(contextKeySession, s)
	return s
}

// Save commits the request's session. Call it before writing a response.
func Save(c *gin.Context) error {
	v, ok := c.Get(contextKeyManager)
	if !ok {
		return nil
	}
	m := v.(*Manager)
	return m.Commit(c.Request.Context(), c.Writer, FromContext(c))
}
