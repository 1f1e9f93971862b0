package middleware

import (
	"fmt"
	"net/url"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/Zeeeepa/graph-sitter-sub004/internal/domain/issues"
)

// Input validation and sanitization utilities

var (
	tenantPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]{1,64}$`)
	repoPattern   = regexp.MustCompile(`^[A-Za-z0-9_.-]+/[A-Za-z0-9_.-]+$`)
	scpPattern    = regexp.MustCompile(`^git@[A-Za-z0-9.-]+:[A-Za-z0-9_.-]+/[A-Za-z0-9_.-]+(\.git)?$`)
)

const maxSymbolLen = 256

// ValidateSource accepts https/ssh git URLs, scp-style git remotes and, when allowLocal, local paths.
func ValidateSource(src string, allowLocal bool) error {
	src = strings.TrimSpace(src)
	if src == "" {
		return fmt.Errorf("source cannot be empty")
	}
	if scpPattern.MatchString(src) {
		return nil
	}
	if strings.Contains(src, "://") {
		return ValidateURL(src)
	}
	if !allowLocal {
		return fmt.Errorf("local sources are disabled on this server")
	}
	return ValidatePath(src)
}

// ValidateURL validates a remote repository URL
func ValidateURL(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL format: %w", err)
	}
	switch u.Scheme {
	case "https", "http", "ssh", "git":
	default:
		return fmt.Errorf("invalid URL scheme: %s (allowed: https, http, ssh, git)", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("URL has no host")
	}

	// SSRF protection
	host := strings.ToLower(u.Hostname())
	for _, b := range []string{"localhost", "127.0.0.1", "0.0.0.0", "::1"} {
		if host == b {
			return fmt.Errorf("localhost/internal IPs are not allowed")
		}
	}
	if strings.HasPrefix(host, "10.") || strings.HasPrefix(host, "192.168.") || strings.HasPrefix(host, "169.254.") {
		return fmt.Errorf("private IP ranges are not allowed")
	}
	for i := 16; i <= 31; i++ {
		if strings.HasPrefix(host, fmt.Sprintf("172.%d.", i)) {
			return fmt.Errorf("private IP ranges are not allowed")
		}
	}
	return nil
}

// ValidatePath validates local source paths
func ValidatePath(path string) error {
	cleaned := filepath.Clean(path)
	for _, part := range strings.Split(filepath.ToSlash(cleaned), "/") {
		if part == ".." {
			return fmt.Errorf("path traversal detected")
		}
	}
	for _, b := range []string{"/etc", "/proc", "/sys", "/dev", "/boot"} {
		if cleaned == b || strings.HasPrefix(cleaned, b+"/") {
			return fmt.Errorf("access to %s is not allowed", b)
		}
	}
	for _, d := range []string{"$(", "`", "&", "|", ";", "\n", "\r"} {
		if strings.Contains(path, d) {
			return fmt.Errorf("invalid characters in path")
		}
	}
	return nil
}

// SanitizeString removes dangerous characters from strings
func SanitizeString(input string) string {
	input = strings.ReplaceAll(input, "\x00", "")
	var result strings.Builder
	for _, r := range input {
		if r >= 32 || r == '\t' || r == '\n' {
			result.WriteRune(r)
		}
	}
	return strings.TrimSpace(result.String())
}

// ValidateTenantID validates tenant ID format
func ValidateTenantID(tenant string) error {
	if tenant == "" {
		return fmt.Errorf("tenant ID cannot be empty")
	}
	if !tenantPattern.MatchString(tenant) {
		return fmt.Errorf("invalid tenant ID format (alphanumeric, dash, underscore only, max 64 chars)")
	}
	return nil
}

// ValidateAnalysisID requires a UUID.
func ValidateAnalysisID(id string) error {
	if id == "" {
		return fmt.Errorf("analysis ID cannot be empty")
	}
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("invalid analysis ID format")
	}
	return nil
}

// ValidateRepo requires "owner/name".
func ValidateRepo(repo string) error {
	if !repoPattern.MatchString(repo) {
		return fmt.Errorf("repo must be owner/name")
	}
	return nil
}

func ValidateSymbol(q string) error {
	if strings.TrimSpace(q) == "" {
		return fmt.Errorf("symbol cannot be empty")
	}
	if len(q) > maxSymbolLen || SanitizeString(q) != q {
		return fmt.Errorf("invalid symbol query")
	}
	return nil
}

// ValidateSeverity accepts an empty filter or a known severity.
func ValidateSeverity(s string) error {
	if s == "" {
		return nil
	}
	_, err := issues.ParseSeverity(s)
	return err
}

// ValidateLimit validates pagination limit
func ValidateLimit(limit int) int {
	if limit <= 0 {
		return 20 // default
	}
	if limit > 100 {
		return 100 // max limit
	}
	return limit
}

// ValidateDays validates days parameter
func ValidateDays(days int) int {
	if days <= 0 {
		return 7 // default
	}
	if days > 365 {
		return 365 // max 1 year
	}
	return days
}
