package prompts

import (
	"embed"
	"fmt"
	"strings"
)

//go:embed *.md
var promptFS embed.FS

// Loader serves the French prompt templates embedded in the binary.
type Loader struct {
	templates map[string]string
}

// NewLoader loads every embedded markdown template.
func NewLoader() (*Loader, error) {
	loader := &Loader{templates: make(map[string]string)}

	entries, err := promptFS.ReadDir(".")
	if err != nil {
		return nil, fmt.Errorf("read prompts directory: %w", err)
	}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".md") {
			continue
		}
		content, err := promptFS.ReadFile(entry.Name())
		if err != nil {
			return nil, fmt.Errorf("read prompt file %s: %w", entry.Name(), err)
		}
		loader.templates[strings.TrimSuffix(entry.Name(), ".md")] = string(content)
	}

	return loader, nil
}

// Get returns a prompt template by name.
func (l *Loader) Get(name string) (string, error) {
	template, exists := l.templates[name]
	if !exists {
		return "", fmt.Errorf("prompt template %q not found", name)
	}
	return template, nil
}

// Render returns a prompt template with {{key}} placeholders substituted.
func (l *Loader) Render(name string, variables map[string]string) (string, error) {
	content, err := l.Get(name)
	if err != nil {
		return "", err
	}
	for key, value := range variables {
		content = strings.ReplaceAll(content, fmt.Sprintf("{{%s}}", key), value)
	}
	return content, nil
}

// List returns all available template names.
func (l *Loader) List() []string {
	names := make([]string, 0, len(l.templates))
	for name := range l.templates {
		names = append(names, name)
	}
	return names
}
