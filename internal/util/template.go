package util

import (
	"strings"
	"sync"
	"text/template"
)

var (
	templateMu    sync.Mutex
	templateCache = map[string]*template.Template{}

	templateFuncs = template.FuncMap{
		// default returns def when val is nil or empty.
		"default": func(def, val any) any {
			if val == nil || val == "" {
				return def
			}
			return val
		},
	}
)

// RenderTemplate executes text as a text/template against data. Text without
// "{{" is returned unchanged. Parsed templates are cached by source.
func RenderTemplate(text string, data map[string]any) (string, error) {
	if !strings.Contains(text, "{{") {
		return text, nil
	}

	tmpl, err := parseCached(text)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	if err := tmpl.Execute(&sb, data); err != nil {
		return "", err
	}
	return sb.String(), nil
}

func parseCached(text string) (*template.Template, error) {
	templateMu.Lock()
	defer templateMu.Unlock()

	if t, ok := templateCache[text]; ok {
		return t, nil
	}
	t, err := template.New("instruction").Funcs(templateFuncs).Parse(text)
	if err != nil {
		return nil, err
	}
	templateCache[text] = t
	return t, nil
}
