// Package subdomain derives, validates and allocates public subdomain labels.
package subdomain

import (
	"regexp"
	"strings"

	"github.com/sitecraft-ai/sitecraft-backend/internal/deploy/domain"
)

const (
	MinLength = 3
	MaxLength = 63

	defaultLabel = "site"
)

var labelPattern = regexp.MustCompile(`^[a-z0-9]([a-z0-9-]*[a-z0-9])?$`)

// Normalize turns a free-form project name into a DNS label: lowercase
// letters, digits and single inner hyphens, at most MaxLength long.
func Normalize(name string) string {
	label := clean(name)
	switch {
	case label == "":
		return defaultLabel
	case len(label) < MinLength:
		return label + "-" + defaultLabel
	}
	return label
}

// clean maps a string onto label characters without any length padding.
func clean(name string) string {
	var b strings.Builder
	b.Grow(len(name))

	lastHyphen := true // suppresses leading hyphens
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}

	return truncate(b.String(), MaxLength)
}

// Validate checks a user-supplied subdomain without normalizing it.
func Validate(subdomain string) error {
	if len(subdomain) < MinLength || len(subdomain) > MaxLength {
		return ErrLength
	}
	if !labelPattern.MatchString(subdomain) {
		return ErrFormat
	}
	return nil
}

// WithSuffix joins base and suffix, shortening base so the label fits.
func WithSuffix(base, suffix string) string {
	if suffix == "" {
		return base
	}
	room := MaxLength - len(suffix) - 1
	if room < 1 {
		return truncate(suffix, MaxLength)
	}
	return truncate(base, room) + "-" + suffix
}

func truncate(label string, n int) string {
	if len(label) > n {
		label = label[:n]
	}
	return strings.Trim(label, "-")
}

// FromURL extracts the label of a stored project URL published under
// parentDomain, or "" when the URL is not one of ours.
func FromURL(rawURL, parentDomain string) string {
	host := strings.TrimPrefix(strings.TrimPrefix(rawURL, "https://"), "http://")
	host = strings.TrimSuffix(host, "/")
	suffix := "." + domain.ParentDomain(parentDomain)
	if !strings.HasSuffix(host, suffix) {
		return ""
	}
	label := strings.TrimSuffix(host, suffix)
	if strings.Contains(label, ".") || Validate(label) != nil {
		return ""
	}
	return label
}
