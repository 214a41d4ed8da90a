package user

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	// CookieName 是承载凭据token的Cookie名称
	CookieName = "slot_user_token"

	// CookieMaxAge 是凭据Cookie的有效期（一年）
	CookieMaxAge = 365 * 24 * 60 * 60

	// IdentityKey 是解析后的用户在Gin上下文中的键
	IdentityKey = "identity"
)

// ClientIP 从请求中提取客户端IP。
// 优先使用X-Forwarded-For的第一个条目，其次是X-Real-IP，
// 最后回退到Gin自己的判定。
func ClientIP(c *gin.Context) string {
	if fwd := c.GetHeader("X-Forwarded-For"); fwd != "" {
		if first := strings.TrimSpace(strings.Split(fwd, ",")[0]); first != "" {
			return first
		}
	}
	if realIP := c.GetHeader("X-Real-IP"); realIP != "" {
		return realIP
	}
	if ip := c.ClientIP(); ip != "" {
		return ip
	}
	return "unknown"
}

// EnsureIdentityMiddleware 解析（或创建）当前请求的用户身份，
// 并在凭据发生变化时向客户端下发新的Cookie。
// 解析后的用户通过IdentityKey放入Gin上下文。
func EnsureIdentityMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		presented, _ := c.Cookie(CookieName)
		ip := ClientIP(c)

		u, err := Resolve(presented, ip)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to resolve identity"})
			return
		}

		// 只要解析出的token与客户端出示的不同（包括首次创建），就重新下发Cookie
		if u.CookieToken != presented {
			SetCredentialCookie(c, u.CookieToken)
		}

		c.Set(IdentityKey, u)
		c.Next()
	}
}

// SetCredentialCookie 下发长期凭据Cookie。
// Secure标志只在release模式下开启，本地调试不强制HTTPS。
func SetCredentialCookie(c *gin.Context, credential string) {
	secure := gin.Mode() == gin.ReleaseMode
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(CookieName, credential, CookieMaxAge, "/", "", secure, true)
}

// IdentityFromContext 从Gin上下文取出已解析的用户。
func IdentityFromContext(c *gin.Context) (*User, bool) {
	v, ok := c.Get(IdentityKey)
	if !ok {
		return nil, false
	}
	u, ok := v.(*User)
	return u, ok
}
