package middleware

import (
	"fmt"

	"github.com/gin-gonic/gin"
)

// HeadersConfig mirrors the helmet defaults the service shipped with.
type HeadersConfig struct {
	CSP                   string
	HSTSMaxAge            int
	HSTSIncludeSubdomains bool
	XFrameOptions         string
	XContentTypeOptions   string
	ReferrerPolicy        string
	CrossOriginOpener     string
	CrossOriginResource   string
	DNSPrefetchControl    string
	PermittedCrossDomain  string
}

func DefaultHeadersConfig() HeadersConfig {
	return HeadersConfig{
		CSP: "default-src 'self'; " +
			"base-uri 'self'; " +
			"font-src 'self' https: data:; " +
			"form-action 'self'; " +
			"frame-ancestors 'self'; " +
			"img-src 'self' data:; " +
			"object-src 'none'; " +
			"script-src 'self'; " +
			"style-src 'self' https: 'unsafe-inline'",
		HSTSMaxAge:            15552000,
		HSTSIncludeSubdomains: true,
		XFrameOptions:         "SAMEORIGIN",
		XContentTypeOptions:   "nosniff",
		ReferrerPolicy:        "no-referrer",
		CrossOriginOpener:     "same-origin",
		CrossOriginResource:   "same-origin",
		DNSPrefetchControl:    "off",
		PermittedCrossDomain:  "none",
	}
}

func SecurityHeaders(cfg HeadersConfig) gin.HandlerFunc {
	hsts := ""
	if cfg.HSTSMaxAge > 0 {
		hsts = fmt.Sprintf("max-age=%d", cfg.HSTSMaxAge)
		if cfg.HSTSIncludeSubdomains {
			hsts += "; includeSubDomains"
		}
	}

	return func(c *gin.Context) {
		h := c.Writer.Header()
		if cfg.CSP != "" {
			h.Set("Content-Security-Policy", cfg.CSP)
		}
		h.Set("Cross-Origin-Opener-Policy", cfg.CrossOriginOpener)
		h.Set("Cross-Origin-Resource-Policy", cfg.CrossOriginResource)
		h.Set("Referrer-Policy", cfg.ReferrerPolicy)
		h.Set("X-Content-Type-Options", cfg.XContentTypeOptions)
		h.Set("X-DNS-Prefetch-Control", cfg.DNSPrefetchControl)
		h.Set("X-Frame-Options", cfg.XFrameOptions)
		h.Set("X-Permitted-Cross-Domain-Policies", cfg.PermittedCrossDomain)
		h.Set("X-XSS-Protection", "0")
		if hsts != "" && c.Request.TLS != nil {
			h.Set("Strict-Transport-Security", hsts)
		}
		h.Del("X-Powered-By")
		c.Next()
	}
}
