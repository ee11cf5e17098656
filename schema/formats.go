package schema

import "regexp"

// formatPatterns maps `format` keyword names to their validation patterns.
// Unrecognized format names pass silently.
var formatPatterns = map[string]*regexp.Regexp{
	"date-time": regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}(\.\d+)?(Z|[+-]\d{2}:\d{2})$`),
	"date":      regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`),
	"time":      regexp.MustCompile(`^\d{2}:\d{2}:\d{2}(\.\d+)?(Z|[+-]\d{2}:\d{2})?$`),
	"email":     regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`),
	"uri":       regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9+.-]*:`),
	"uuid":      regexp.MustCompile(`(?i)^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`),
	"ipv4":      regexp.MustCompile(`^(\d{1,3}\.){3}\d{1,3}$`),
	"ipv6":      regexp.MustCompile(`(?i)^([0-9a-f]{1,4}:){7}[0-9a-f]{1,4}$`),
}

// checkFormat reports whether s satisfies the named format. Unknown formats
// always pass.
func checkFormat(name, s string) bool {
	pattern, ok := formatPatterns[name]
	if !ok {
		return true
	}

	return pattern.MatchString(s)
}
