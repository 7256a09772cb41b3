package server

// HTTP error messages for middleware responses
const (
	ErrMsgUnauthorized    = "Unauthorized"
	ErrMsgTooManyRequests = "Too Many Requests"
)

// Security alert message templates
const (
	SecurityAlertFailedAuth = "SECURITY ALERT: Multiple failed authentication attempts"
	SecurityAlertHighRate   = "SECURITY ALERT: Blocking high request rate"
)

// HTTP header names
const (
	HeaderAPIKey        = "X-API-Key"
	HeaderForwardedFor  = "X-Forwarded-For"
	HeaderContentType   = "X-Content-Type-Options"
	HeaderFrameOptions  = "X-Frame-Options"
	HeaderXSSProtection = "X-XSS-Protection"
)

// Security header values
const (
	HeaderValueNoSniff    = "nosniff"
	HeaderValueSameOrigin = "SAMEORIGIN"
	HeaderValueXSSBlock   = "1; mode=block"
)

// Public path prefixes that bypass authentication
var PublicPaths = []string{
	"/healthz",
	"/readyz",
	"/metrics",
}

// Rate limiting window parameters
const (
	failedAuthAlertThreshold = 5
	requestRateLimit         = 1000
)
