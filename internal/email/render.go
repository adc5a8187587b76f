package email

import (
	"html"
	"regexp"
	"strings"
)

var placeholder = regexp.MustCompile(`\{\{\s*([A-Za-z0-9_.]+)\s*\}\}`)

// replaces {{name}} placeholders with vars; unknown names are left as written so a missing
// variable is visible in the sent mail rather than silently blank
func Render(tmpl string, vars map[string]string, escape bool) string {
	return placeholder.ReplaceAllStringFunc(tmpl, func(m string) string {
		name := placeholder.FindStringSubmatch(m)[1]

		v, ok := vars[name]
		if !ok {
			return m
		}

		if escape {
			return html.EscapeString(v)
		}

		return v
	})
}

// names referenced by a template, in order of first use
func Placeholders(tmpl string) []string {
	var (
		names []string
		seen  = map[string]bool{}
	)

	for _, m := range placeholder.FindAllStringSubmatch(tmpl, -1) {
		if !seen[m[1]] {
			seen[m[1]] = true
			names = append(names, m[1])
		}
	}

	return names
}

// subject lines must not carry header-breaking characters
func sanitizeHeader(v string) string {
	return strings.NewReplacer("\r", " ", "\n", " ").Replace(v)
}
