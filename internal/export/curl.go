// Package export renders endpoint definitions as external command formats.
package export

import (
	"fmt"
	"strings"

	"github.com/valisehq/valise/internal/core"
)

// Curl renders the endpoint as a curl command with line continuations.
// Inactive headers are skipped; the URL always comes last.
func Curl(ep *core.Endpoint) string {
	var parts []string
	parts = append(parts, "curl")

	if ep.Method() != "GET" {
		parts = append(parts, "-X", ep.Method())
	}

	for _, h := range ep.Headers() {
		if !h.Active {
			continue
		}
		parts = append(parts, "-H", fmt.Sprintf("%s: %s", h.Name, h.Value))
	}

	if ep.BodyContent() != "" {
		parts = append(parts, "--data-raw", ep.BodyContent())
	}

	parts = append(parts, ep.URL())

	return formatPretty(parts)
}

func formatPretty(parts []string) string {
	var sb strings.Builder
	sb.WriteString("curl")

	for i := 1; i < len(parts); i++ {
		part := parts[i]

		if strings.HasPrefix(part, "-") && i+1 < len(parts) {
			sb.WriteString(" \\\n  ")
			sb.WriteString(shellQuote(part))
			sb.WriteString(" ")
			i++
			sb.WriteString(shellQuote(parts[i]))
		} else {
			// URL goes on its own line
			sb.WriteString(" \\\n  ")
			sb.WriteString(shellQuote(part))
		}
	}

	return sb.String()
}

func shellQuote(s string) string {
	if !strings.ContainsAny(s, " \t\n\"'$`\\!*?[]{}()<>|&;") {
		return s
	}
	escaped := strings.ReplaceAll(s, "'", "'\"'\"'")
	return "'" + escaped + "'"
}
