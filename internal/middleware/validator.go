package middleware

import (
	"fmt"
	"net"
	"net/url"
	"path/filepath"
	"strings"
)

// NormalizeWebsiteURL trims raw and prefixes https:// when no scheme is given.
func NormalizeWebsiteURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.Contains(raw, "://") {
		return raw
	}
	return "https://" + raw
}

// ValidateWebsiteURL rejects URLs pointing at localhost or internal
// addresses. Anything else passes; the website audit reports malformed URLs
// itself.
func ValidateWebsiteURL(rawURL string) error {
	if rawURL == "" {
		return nil
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil
	}
	host := strings.ToLower(u.Hostname())
	if host == "localhost" || strings.HasSuffix(host, ".localhost") {
		return fmt.Errorf("localhost/internal hosts are not allowed")
	}
	if ip := net.ParseIP(host); ip != nil {
		if ip.IsLoopback() || ip.IsPrivate() || ip.IsUnspecified() || ip.IsLinkLocalUnicast() {
			return fmt.Errorf("localhost/internal IPs are not allowed")
		}
	}
	return nil
}

// UploadFileName reduces a client-supplied name to a safe base name.
func UploadFileName(name string) (string, error) {
	name = SanitizeString(strings.ReplaceAll(name, "\\", "/"))
	base := filepath.Base(name)
	if base == "." || base == "/" || base == ".." || base == "" {
		return "", fmt.Errorf("invalid file name")
	}
	return base, nil
}

// SanitizeString drops NUL and control characters and trims the result.
func SanitizeString(input string) string {
	var b strings.Builder
	for _, r := range input {
		if r >= 32 && r != 127 || r == '\t' || r == '\n' {
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(b.String())
}

// ValidateLimit clamps a page size to [1, 100], defaulting to 20.
func ValidateLimit(limit int) int {
	if limit <= 0 {
		return 20
	}
	if limit > 100 {
		return 100
	}
	return limit
}
