package adapter

import (
	"embed"
	"fmt"
	"strings"
	"sync"
	"text/template"
)

//go:embed templates/*.tmpl
var formatterTemplateFS embed.FS

var loadFormatterTemplates = sync.OnceValues(func() (*template.Template, error) {
	return template.New("formatter").
		Funcs(template.FuncMap{
			"add":  func(a, b int) int { return a + b },
			"join": strings.Join,
		}).
		ParseFS(formatterTemplateFS, "templates/*.tmpl")
})

// executeFormatterTemplate renders one named block with trailing newlines trimmed.
func executeFormatterTemplate(name string, data any) (string, error) {
	tmpl, err := loadFormatterTemplates()
	if err != nil {
		return "", fmt.Errorf("parse formatter templates: %w", err)
	}

	var out strings.Builder
	if err := tmpl.ExecuteTemplate(&out, name, data); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return strings.TrimRight(out.String(), "\n"), nil
}
