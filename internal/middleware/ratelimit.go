package middleware

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// limiterPool 為每個呼叫者維護一個獨立的速率限制器
type limiterPool struct {
	mu    sync.Mutex
	m     map[string]*rate.Limiter
	rps   int
	burst int
}

func (p *limiterPool) get(key string) *rate.Limiter {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.m == nil {
		p.m = make(map[string]*rate.Limiter)
	}
	if l, ok := p.m[key]; ok {
		return l
	}
	l := rate.NewLimiter(rate.Limit(p.rps), p.burst)
	p.m[key] = l
	return l
}

// RateLimit 依使用者（未登入時依來源 IP）限制請求速率
func RateLimit(rps, burst int) gin.HandlerFunc {
	if rps <= 0 {
		rps = 20
	}
	if burst <= 0 {
		burst = 40
	}
	pool := &limiterPool{rps: rps, burst: burst}

	return func(c *gin.Context) {
		key := c.ClientIP()
		if userID, ok := c.Get("userID"); ok {
			key = userID.(string)
		}

		if !pool.get(key).Allow() {
			c.JSON(http.StatusTooManyRequests, gin.H{"success": false, "message": "請求過於頻繁，請稍後再試"})
			c.Abort()
			return
		}
		c.Next()
	}
}
