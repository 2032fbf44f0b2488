package middleware

import (
	"github.com/gin-gonic/gin"
)

// TrustProxies configures which peers may set the client IP through forwarding headers.
// With no proxies every forwarding header is ignored and the socket peer address is used.
// cloudflare makes Gin read CF-Connecting-IP, so only enable it when the service is
// reachable exclusively through Cloudflare.
func TrustProxies(r *gin.Engine, proxies []string, cloudflare bool) error {
	if len(proxies) == 0 {
		proxies = nil
	}
	if err := r.SetTrustedProxies(proxies); err != nil {
		return err
	}
	if cloudflare {
		r.TrustedPlatform = gin.PlatformCloudflare
	}
	return nil
}

// RealIP stores the client IP resolved by Gin under "real_ip".
// Forwarding headers only count when they come from a proxy allowed by TrustProxies.
func RealIP() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("real_ip", c.ClientIP())
		c.Next()
	}
}
