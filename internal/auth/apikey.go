package auth

import (
	"net/http"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
)

// Guard gates the ingestion and device endpoints behind a shared secret.
//
// Fail-closed: when enforcement is on and no key is configured, every
// request is rejected, including ones carrying an empty key header. When
// enforcement is off, every request passes regardless of key. The expected
// key can be swapped at runtime (settings-file hot reload).
type Guard struct {
	enforce bool

	mu  sync.RWMutex
	key string
}

// NewGuard creates a guard with the given enforcement mode and expected key.
func NewGuard(enforce bool, key string) *Guard {
	return &Guard{enforce: enforce, key: key}
}

// SetKey replaces the expected key. Safe for concurrent use with Authorize.
func (g *Guard) SetKey(key string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.key = key
}

// Authorize reports whether a request carrying supplied may proceed.
func (g *Guard) Authorize(supplied string) bool {
	if !g.enforce {
		return true
	}
	g.mu.RLock()
	expected := g.key
	g.mu.RUnlock()
	if expected == "" {
		return false
	}
	return supplied == expected
}

// Middleware enforces the guard on every request via the X-API-Key header.
func (g *Guard) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		supplied := strings.TrimSpace(c.GetHeader("X-API-Key"))
		if !g.Authorize(supplied) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid API key"})
			return
		}
		c.Next()
	}
}
