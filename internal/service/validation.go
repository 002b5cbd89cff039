package service

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

const (
	// MaxSlugLength bounds slugs coming off the wire before any store call.
	MaxSlugLength = 255

	maxTargetURLLength = 2048
)

var (
	ErrInvalidSlug      = errors.New("invalid slug")
	ErrInvalidTargetURL = errors.New("invalid target url")

	// customSlugPattern restricts client-chosen slugs. Auto-generated slugs
	// always satisfy it.
	customSlugPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]{3,64}$`)
)

// ValidateSlug checks a slug taken from an inbound redirect request.
// Rejection here means the store is never consulted and no scan is recorded.
func ValidateSlug(slug string) error {
	if slug == "" {
		return fmt.Errorf("%w: empty", ErrInvalidSlug)
	}
	if len(slug) > MaxSlugLength {
		return fmt.Errorf("%w: exceeds %d characters", ErrInvalidSlug, MaxSlugLength)
	}
	return nil
}

// ValidateCustomSlug applies the stricter rules for client-supplied slugs
// at creation time.
func ValidateCustomSlug(slug string) error {
	if !customSlugPattern.MatchString(slug) {
		return fmt.Errorf("%w: must be 3-64 characters of letters, digits, hyphen or underscore", ErrInvalidSlug)
	}
	return nil
}

// ValidateTargetURL checks a redirect destination at create/update time.
func ValidateTargetURL(raw string) error {
	if raw == "" {
		return fmt.Errorf("%w: empty", ErrInvalidTargetURL)
	}
	if len(raw) > maxTargetURLLength {
		return fmt.Errorf("%w: exceeds %d characters", ErrInvalidTargetURL, maxTargetURLLength)
	}

	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidTargetURL, err)
	}

	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return fmt.Errorf("%w: scheme must be http or https", ErrInvalidTargetURL)
	}
	if u.Host == "" {
		return fmt.Errorf("%w: missing host", ErrInvalidTargetURL)
	}
	return nil
}
