// Package template renders campaign bodies by substituting personalization
// placeholders. Two interchangeable syntaxes are supported, [Name] and
// {{Name}}, matching what the import and editor surfaces produce.
package template

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"

	"github.com/sendgrove/blastpipe/internal/utils"
)

// reservedWords are HTML conditional-comment keywords that look like
// placeholders inside markup such as <!--[if !mso]>...<![endif]-->.
var reservedWords = []string{"if", "endif", "else", "elseif", "mso"}

var (
	squareVarRe = regexp.MustCompile(`\[([A-Za-z][A-Za-z0-9 _-]*)\]`)
	curlyVarRe  = regexp.MustCompile(`\{\{([A-Za-z][A-Za-z0-9 _-]*)\}\}`)
)

// Render replaces every [key] and {{key}} occurrence with the value for key,
// for every key present in variables. Placeholders whose key is absent are
// left untouched. Substituted values are never re-scanned, so a value that
// itself looks like a placeholder survives verbatim.
func Render(template string, variables map[string]string) string {
	if len(variables) == 0 || template == "" {
		return template
	}

	var b strings.Builder
	b.Grow(len(template))

	for i := 0; i < len(template); {
		if strings.HasPrefix(template[i:], "{{") {
			if end := strings.Index(template[i+2:], "}}"); end >= 0 {
				name := template[i+2 : i+2+end]
				if value, ok := variables[name]; ok {
					b.WriteString(value)
					i += end + 4
					continue
				}
			}
		}
		if template[i] == '[' {
			if end := strings.IndexByte(template[i+1:], ']'); end >= 0 {
				name := template[i+1 : i+1+end]
				if value, ok := variables[name]; ok {
					b.WriteString(value)
					i += end + 2
					continue
				}
			}
		}
		b.WriteByte(template[i])
		i++
	}

	return b.String()
}

// ExtractVariables returns the deduplicated set of placeholder names found in
// the template. Names start with a letter and may contain letters, digits,
// spaces, underscores and hyphens. Reserved conditional-comment keywords are
// excluded so markup like <!--[if !mso]> never yields a variable.
func ExtractVariables(template string) []string {
	seen := make(map[string]struct{})
	var names []string

	collect := func(matches [][]string) {
		for _, match := range matches {
			name := match[1]
			if isReserved(name) {
				continue
			}
			if _, ok := seen[name]; ok {
				continue
			}
			seen[name] = struct{}{}
			names = append(names, name)
		}
	}

	collect(squareVarRe.FindAllStringSubmatch(template, -1))
	collect(curlyVarRe.FindAllStringSubmatch(template, -1))

	return names
}

func isReserved(name string) bool {
	if utils.IsStringInSlice(name, reservedWords) {
		return true
	}
	return strings.HasPrefix(name, "if ")
}

// ValidationResult reports whether a template contains every required
// placeholder.
type ValidationResult struct {
	Valid   bool     `json:"valid"`
	Missing []string `json:"missing"`
	Found   []string `json:"found"`
}

func ValidateTemplate(template string, requiredVars []string) ValidationResult {
	found := ExtractVariables(template)
	foundSet := make(map[string]struct{}, len(found))
	for _, name := range found {
		foundSet[name] = struct{}{}
	}

	missing := []string{}
	for _, name := range requiredVars {
		if _, ok := foundSet[name]; !ok {
			missing = append(missing, name)
		}
	}

	return ValidationResult{
		Valid:   len(missing) == 0,
		Missing: missing,
		Found:   found,
	}
}

// HTMLToText strips markup and joins the text-node content with single
// spaces. It is a lossy fallback for providers that want a plain-text part,
// not a layout-preserving converter.
func HTMLToText(htmlBody string) string {
	tokenizer := html.NewTokenizer(strings.NewReader(htmlBody))

	var parts []string
	for {
		tokenType := tokenizer.Next()
		if tokenType == html.ErrorToken {
			break
		}
		if tokenType == html.TextToken {
			text := strings.TrimSpace(tokenizer.Token().Data)
			if text != "" {
				parts = append(parts, text)
			}
		}
	}

	return strings.Join(parts, " ")
}
