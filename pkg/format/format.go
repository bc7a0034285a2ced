// Package format provides pure formatting and validation helpers used by
// the workflows and the HTTP surface.
package format

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

var (
	emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phoneRe = regexp.MustCompile(`^\+?[0-9][0-9\s-]{6,14}$`)
	// unsafeFileChars matches everything outside the conservative set kept
	// in storage object keys.
	unsafeFileChars = regexp.MustCompile(`[^a-zA-Z0-9._-]`)
)

// Date renders a timestamp for display, e.g. "12 Jan 2026".
func Date(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2 Jan 2006")
}

// DateTime renders a timestamp with time of day, e.g. "12 Jan 2026 14:05".
func DateTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2 Jan 2006 15:04")
}

// Currency renders an amount with its currency code, e.g. "USD 250.00".
func Currency(amount float64, currency string) string {
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if currency == "" {
		return fmt.Sprintf("%.2f", amount)
	}
	return fmt.Sprintf("%s %.2f", currency, amount)
}

// FileSize renders a byte count in human units, e.g. "2.0 MB".
func FileSize(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}

// ValidEmail reports whether s looks like an email address.
func ValidEmail(s string) bool {
	return emailRe.MatchString(strings.TrimSpace(s))
}

// ValidPhone reports whether s looks like a phone number.
func ValidPhone(s string) bool {
	return phoneRe.MatchString(strings.TrimSpace(s))
}

// FileExtension returns the lowercased extension of name without the dot.
func FileExtension(name string) string {
	ext := strings.TrimPrefix(filepath.Ext(name), ".")
	return strings.ToLower(ext)
}

// SanitizeFileName strips path components and replaces characters that are
// unsafe in storage object keys.
func SanitizeFileName(name string) string {
	name = filepath.Base(strings.TrimSpace(name))
	name = unsafeFileChars.ReplaceAllString(name, "_")
	if name == "" || name == "." || name == ".." {
		return "file"
	}
	return name
}
