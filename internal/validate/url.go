// Package validate holds the destination URL predicate consumed by the link
// services.
package validate

import (
	"fmt"
	"net/url"
	"strings"
)

// MaxDestinationLen bounds the accepted destination URL length.
const MaxDestinationLen = 2048

var allowedTLDs = map[string]struct{}{
	"com": {}, "org": {}, "net": {}, "edu": {}, "gov": {},
	"mil": {}, "int": {}, "io": {}, "dev": {}, "app": {},
	"co": {}, "me": {}, "us": {}, "uk": {}, "de": {},
}

// Destination reports whether raw is an acceptable destination URL:
// http/https scheme, at most 2048 characters, and a host whose labels are
// alphanumeric-with-hyphens ending in a known TLD.
func Destination(raw string) error {
	if len(raw) > MaxDestinationLen {
		return fmt.Errorf("url too long (max %d characters)", MaxDestinationLen)
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("url must start with either http or https")
	}

	host := parsed.Hostname()
	if host == "" {
		return fmt.Errorf("missing host name")
	}
	if err := validateDomain(host); err != nil {
		return err
	}
	return validateTLD(host)
}

func validateDomain(domain string) error {
	if !strings.Contains(domain, ".") {
		return fmt.Errorf("domain must contain at least one dot")
	}

	parts := strings.Split(domain, ".")
	if len(parts) < 2 {
		return fmt.Errorf("domain must have at least two parts")
	}

	for _, part := range parts {
		if part == "" {
			return fmt.Errorf("domain parts cannot be empty")
		}
		if strings.HasPrefix(part, "-") || strings.HasSuffix(part, "-") {
			return fmt.Errorf("domain parts cannot start or end with hyphen")
		}
		for i := 0; i < len(part); i++ {
			c := part[i]
			if !isAlphanumeric(c) && c != '-' {
				return fmt.Errorf("domain parts can only contain letters, numbers, and hyphens")
			}
		}
	}
	return nil
}

func validateTLD(domain string) error {
	tld := domain[strings.LastIndex(domain, ".")+1:]
	if _, ok := allowedTLDs[strings.ToLower(tld)]; !ok {
		return fmt.Errorf("invalid tld: %s", tld)
	}
	return nil
}

func isAlphanumeric(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9'
}
