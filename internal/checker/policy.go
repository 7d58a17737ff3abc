package checker

import "time"

// RedirectMode controls how redirects are followed during a check.
type RedirectMode string

const (
	RedirectAlways    RedirectMode = "always"
	RedirectNever     RedirectMode = "never"
	RedirectHTTPOnly  RedirectMode = "http-only"
	RedirectHTTPSOnly RedirectMode = "https-only"
)

// Valid reports whether m is one of the supported redirect modes.
func (m RedirectMode) Valid() bool {
	switch m {
	case RedirectAlways, RedirectNever, RedirectHTTPOnly, RedirectHTTPSOnly:
		return true
	}
	return false
}

// CheckPolicy bundles the per-check configuration. It is never mutated by
// the checker; each check builds its own client from it.
type CheckPolicy struct {
	Timeout       time.Duration
	Retries       int
	RetryDelay    time.Duration
	RedirectMode  RedirectMode
	MaxRedirects  int
	CustomHeaders map[string]string
	VerifyTLS     bool
}

// DefaultPolicy returns the documented defaults: 5s timeout, 2 retries with
// a 1s delay between attempts, redirects always followed up to 30 hops and
// TLS verification on.
func DefaultPolicy() CheckPolicy {
	return CheckPolicy{
		Timeout:      5 * time.Second,
		Retries:      2,
		RetryDelay:   1 * time.Second,
		RedirectMode: RedirectAlways,
		MaxRedirects: 30,
		VerifyTLS:    true,
	}
}
