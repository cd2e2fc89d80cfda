package service

import (
	"net/url"
	"strings"

	"tourbook/internal/config"
	"tourbook/internal/models"
)

// ImagePolicy keeps post images to hosts the frontend is allowed to load
// from and substitutes the fallback for anything else.
type ImagePolicy struct {
	allowed  map[string]bool
	fallback string
}

func NewImagePolicy(cfg config.ImagesConfig) ImagePolicy {
	p := ImagePolicy{allowed: make(map[string]bool, len(cfg.AllowedHosts)), fallback: cfg.Fallback}
	for _, h := range cfg.AllowedHosts {
		p.allowed[strings.ToLower(h)] = true
	}
	if p.fallback == "" {
		p.fallback = models.DefaultPostImage
	}
	return p
}

// Resolve returns raw when it is a local path or an https URL on an allowed
// host, the fallback otherwise.
func (p ImagePolicy) Resolve(raw *string) string {
	if raw == nil {
		return p.fallback
	}
	s := strings.TrimSpace(*raw)
	if s == "" {
		return p.fallback
	}
	if strings.HasPrefix(s, "/") && !strings.HasPrefix(s, "//") {
		return s
	}
	u, err := url.Parse(s)
	if err != nil || u.Scheme != "https" || !p.allowed[strings.ToLower(u.Hostname())] {
		return p.fallback
	}
	return s
}
