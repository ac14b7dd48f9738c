package render

import (
	"bytes"
	"sync"
	"text/template"

	"github.com/r3e-network/oxy-engine/internal/engine/enginerr"
)

// TemplateRegistry pre-parses every template an executable may render,
// failing fast on syntax error before execution (spec §4.C). Registration
// is additive and safe for concurrent Register/Render calls; writes only
// happen at registration time.
type TemplateRegistry struct {
	mu        sync.RWMutex
	templates map[string]*template.Template
}

// NewTemplateRegistry creates an empty registry.
func NewTemplateRegistry() *TemplateRegistry {
	return &TemplateRegistry{templates: make(map[string]*template.Template)}
}

// Register parses and stores templates by name. Using
// Option("missingkey=error") makes an unknown variable a render-time
// failure rather than silently rendering "<no value>", satisfying the
// spec's "unknown variables fail with TemplateError" contract.
func (r *TemplateRegistry) Register(templates map[string]string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for name, body := range templates {
		tmpl, err := template.New(name).Option("missingkey=error").Parse(body)
		if err != nil {
			return enginerr.Wrap(enginerr.ConfigurationError, "register template "+name, err)
		}
		r.templates[name] = tmpl
	}
	return nil
}

// Render looks up a pre-registered template by name and renders it against
// the stacked context, optionally overlaid with an ad-hoc scope.
func (r *TemplateRegistry) Render(name string, ctx *Context, scope map[string]any) (string, error) {
	r.mu.RLock()
	tmpl, ok := r.templates[name]
	r.mu.RUnlock()
	if !ok {
		return "", enginerr.New(enginerr.ConfigurationError, "template not registered: "+name)
	}

	data := ctx.Resolve()
	for k, v := range scope {
		data[k] = v
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", enginerr.Wrap(enginerr.ValidationError, "render template "+name, err)
	}
	return buf.String(), nil
}

// RenderString parses and renders an ad-hoc template body without
// registering it, used for one-off renders (e.g. a loop item's inline
// template) where pre-registration isn't worthwhile.
func (r *TemplateRegistry) RenderString(body string, ctx *Context, scope map[string]any) (string, error) {
	tmpl, err := template.New("inline").Option("missingkey=error").Parse(body)
	if err != nil {
		return "", enginerr.Wrap(enginerr.ValidationError, "parse inline template", err)
	}

	data := ctx.Resolve()
	for k, v := range scope {
		data[k] = v
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", enginerr.Wrap(enginerr.ValidationError, "render inline template", err)
	}
	return buf.String(), nil
}
