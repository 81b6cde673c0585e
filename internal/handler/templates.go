package handler

import (
	"encoding/json"
	"fmt"
	"html/template"
	"strings"
	"time"

	twmerge "github.com/Oudwins/tailwind-merge-go"

	"github.com/DukeRupert/catalog-admin/internal/csrf"
)

// timestampLayouts are the shapes of ISO timestamps the backend sends.
var timestampLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04:05.999999999", "2006-01-02"}

// parseTimestamp parses a backend timestamp. ok is false for blank or
// unparseable values.
func parseTimestamp(iso string) (time.Time, bool) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, iso); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// formatDate renders a backend timestamp for tables, or "-" when it is
// missing.
func formatDate(iso string) string {
	t, ok := parseTimestamp(iso)
	if !ok {
		return "-"
	}
	return t.Format("Jan 2, 2006")
}

func formatDateTime(iso string) string {
	t, ok := parseTimestamp(iso)
	if !ok {
		return "-"
	}
	return t.Format("Jan 2, 2006 3:04 PM")
}

// TemplateFuncs returns a FuncMap with custom template functions
func TemplateFuncs() template.FuncMap {
	return template.FuncMap{
		"year": func() int {
			return time.Now().Year()
		},

		"lower": strings.ToLower,

		// JSON encoding for safe JavaScript embedding
		"json": func(v any) template.JS {
			b, err := json.Marshal(v)
			if err != nil {
				return template.JS(`""`)
			}
			return template.JS(b)
		},

		// cx merges Tailwind classes so later ones win over conflicting
		// earlier ones.
		"cx": func(classes ...string) string {
			return twmerge.Merge(strings.Join(classes, " "))
		},

		// Conditional/Logic functions
		"ternary": func(condition bool, trueVal, falseVal any) any {
			if condition {
				return trueVal
			}
			return falseVal
		},

		// Collection functions
		"dict": func(values ...any) map[string]any {
			if len(values)%2 != 0 {
				return nil
			}
			dict := make(map[string]any, len(values)/2)
			for i := 0; i < len(values); i += 2 {
				key, ok := values[i].(string)
				if !ok {
					return nil
				}
				dict[key] = values[i+1]
			}
			return dict
		},

		// Form helpers
		"csrfField": func(token string) template.HTML {
			return template.HTML(fmt.Sprintf(`<input type="hidden" name="%s" value="%s">`, csrf.FormFieldName, template.HTMLEscapeString(token)))
		},

		// Badge helpers
		"toneClass": func(tone string) string {
			switch tone {
			case ToneSuccess:
				return "bg-green-100 text-green-800"
			case ToneWarning:
				return "bg-yellow-100 text-yellow-800"
			case ToneDanger:
				return "bg-red-100 text-red-800"
			default:
				return "bg-gray-100 text-gray-600"
			}
		},
		"toastClass": func(toastType string) string {
			switch toastType {
			case "success":
				return "border-green-500"
			case "error":
				return "border-red-500"
			case "warning":
				return "border-yellow-500"
			default:
				return "border-blue-500"
			}
		},
	}
}
