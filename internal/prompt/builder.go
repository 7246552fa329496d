// Package prompt renders the chat assistant's prompts from embedded templates.
package prompt

import (
	"embed"
	"fmt"
	"strings"
	"sync"
	"text/template"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

type TemplateName string

const (
	TemplateAssistant       TemplateName = "assistant.tmpl"
	TemplateAssistantSystem TemplateName = "assistant_system.tmpl"
)

var templateFuncs = template.FuncMap{
	"trim": strings.TrimSpace,
	"add":  func(a, b int) int { return a + b },
}

// PromptBuilder parses every embedded template on first use and renders them by name.
type PromptBuilder struct {
	load func() (*template.Template, error)
}

var DefaultPromptBuilder = sync.OnceValue(NewPromptBuilder)

func NewPromptBuilder() *PromptBuilder {
	return &PromptBuilder{
		load: sync.OnceValues(func() (*template.Template, error) {
			return template.New("prompts").Funcs(templateFuncs).ParseFS(templateFS, "templates/*.tmpl")
		}),
	}
}

func (pb *PromptBuilder) Render(name TemplateName, data any) (string, error) {
	set, err := pb.load()
	if err != nil {
		return "", fmt.Errorf("parse prompt templates: %w", err)
	}

	tmpl := set.Lookup(string(name))
	if tmpl == nil {
		return "", fmt.Errorf("prompt template %s not found", name)
	}

	var out strings.Builder
	if err := tmpl.Execute(&out, data); err != nil {
		return "", fmt.Errorf("render prompt %s: %w", name, err)
	}
	return out.String(), nil
}

// BuildAssistantPrompt renders the user turn sent to the chat provider.
func (pb *PromptBuilder) BuildAssistantPrompt(data AssistantPromptData) (string, error) {
	return pb.Render(TemplateAssistant, data)
}

// BuildSystemPrompt renders the fixed instructions for a conference.
func (pb *PromptBuilder) BuildSystemPrompt(data SystemPromptData) (string, error) {
	return pb.Render(TemplateAssistantSystem, data)
}
