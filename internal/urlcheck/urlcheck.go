// Package urlcheck decides whether a long URL may be shortened.
//
// In restricted mode loopback and private-range hostnames are refused so the
// service cannot be pointed at internal addresses. The check is an exact or
// prefix match on the lowercased hostname, not CIDR arithmetic: it does not
// cover all of 172.16.0.0/12, IPv6 loopback, or hostnames that resolve to
// private addresses.
package urlcheck

import (
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/vadimbarashkov/shortlink/internal/entity"
)

var (
	blockedHosts        = []string{"localhost", "127.0.0.1"}
	blockedHostPrefixes = []string{"10.", "192.168.", "172.16."}
)

// Validator checks candidate long URLs. It is safe for concurrent use.
type Validator struct {
	validate   *validator.Validate
	restricted bool
	logger     *slog.Logger
}

// New returns a Validator. When restricted is true private and loopback
// hostnames are rejected.
func New(restricted bool, logger *slog.Logger) *Validator {
	return &Validator{
		validate:   validator.New(),
		restricted: restricted,
		logger:     logger,
	}
}

// Check returns nil when candidate is acceptable, otherwise an error
// wrapping entity.ErrInvalidURL that names the reason.
func (v *Validator) Check(candidate string) error {
	if err := v.check(candidate); err != nil {
		v.logger.Debug("url rejected", slog.String("url", candidate), slog.Any("err", err))
		return err
	}

	return nil
}

// Valid reports whether candidate is acceptable.
func (v *Validator) Valid(candidate string) bool {
	return v.Check(candidate) == nil
}

func (v *Validator) check(candidate string) error {
	if candidate == "" {
		return fmt.Errorf("%w: empty url", entity.ErrInvalidURL)
	}

	if err := v.validate.Var(candidate, "http_url"); err != nil {
		return fmt.Errorf("%w: malformed or non-http url", entity.ErrInvalidURL)
	}

	u, err := url.Parse(candidate)
	if err != nil {
		return fmt.Errorf("%w: %w", entity.ErrInvalidURL, err)
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: unsupported scheme %q", entity.ErrInvalidURL, u.Scheme)
	}

	host := strings.ToLower(u.Hostname())
	if host == "" {
		return fmt.Errorf("%w: missing hostname", entity.ErrInvalidURL)
	}

	if v.restricted && isPrivateHost(host) {
		return fmt.Errorf("%w: private or loopback host %q", entity.ErrInvalidURL, host)
	}

	return nil
}

func isPrivateHost(host string) bool {
	for _, h := range blockedHosts {
		if host == h {
			return true
		}
	}

	for _, p := range blockedHostPrefixes {
		if strings.HasPrefix(host, p) {
			return true
		}
	}

	return false
}
