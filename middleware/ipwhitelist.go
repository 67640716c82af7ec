package middleware

import (
	"net"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

// IPWhitelist returns a middleware that only allows requests from the listed
// IPs or CIDR ranges. If the whitelist is empty, all IPs are allowed.
// Unparsable entries are ignored.
func IPWhitelist(entries []string) gin.HandlerFunc {
	var nets []*net.IPNet
	for _, e := range entries {
		e = strings.TrimSpace(e)
		if !strings.Contains(e, "/") {
			if ip := net.ParseIP(e); ip != nil {
				bits := 32
				if ip.To4() == nil {
					bits = 128
				}
				e += "/" + strconv.Itoa(bits)
			}
		}
		if _, n, err := net.ParseCIDR(e); err == nil {
			nets = append(nets, n)
		}
	}
	allowAll := len(entries) == 0
	return func(c *gin.Context) {
		if allowAll {
			c.Next()
			return
		}
		ip := net.ParseIP(c.ClientIP())
		for _, n := range nets {
			if ip != nil && n.Contains(ip) {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "access denied"})
	}
}
