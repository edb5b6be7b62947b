// Package template expands strategy templates over indicator parameter grids.
//
// Templates use Jinja syntax ({{ period }}, filters, {% if %} blocks) and are
// rendered with pongo2. Undefined variables render as empty strings.
package template

import (
	"os"
	"path/filepath"

	"github.com/flosch/pongo2/v6"
	"github.com/zakaria-lahyani/backtester/internal/logger"
	"github.com/zakaria-lahyani/backtester/pkg/errors"
	"go.uber.org/zap"
)

// StrategyTemplate is one template file of an indicator.
type StrategyTemplate struct {
	Name    string
	Content string
}

// Rendered is a strategy document produced from a template and a context.
type Rendered struct {
	Template string
	Context  Context
	YAML     string
}

func init() {
	// Jinja spells the integer filter "int"
	if pongo2.FilterExists("int") {
		return
	}

	err := pongo2.RegisterFilter("int", func(in *pongo2.Value, _ *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
		return pongo2.AsValue(in.Integer()), nil
	})
	if err != nil {
		panic(err)
	}
}

// LoadTemplates reads the named template files from dir. Files that cannot
// be read are skipped with a warning.
func LoadTemplates(log *logger.Logger, dir string, names []string) []StrategyTemplate {
	templates := make([]StrategyTemplate, 0, len(names))

	for _, name := range names {
		content, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			log.Warn("Skipping template", zap.String("template", name), zap.Error(err))

			continue
		}

		templates = append(templates, StrategyTemplate{Name: name, Content: string(content)})
	}

	log.Info("Loaded strategy templates", zap.Int("count", len(templates)), zap.String("dir", dir))

	return templates
}

// Compile parses a template.
func Compile(t StrategyTemplate) (*pongo2.Template, error) {
	tmpl, err := pongo2.FromString(t.Content)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeTemplateError, err, "failed to parse template %s", t.Name)
	}

	return tmpl, nil
}

// Render renders one template against one context.
func Render(t StrategyTemplate, ctx Context) (string, error) {
	tmpl, err := Compile(t)
	if err != nil {
		return "", err
	}

	return execute(t.Name, tmpl, ctx)
}

func execute(name string, tmpl *pongo2.Template, ctx Context) (string, error) {
	out, err := tmpl.Execute(pongo2.Context(ctx))
	if err != nil {
		return "", errors.Wrapf(errors.ErrCodeTemplateError, err, "failed to render template %s", name)
	}

	return out, nil
}

// RenderAll renders every template against every context, templates in the
// outer loop. Failed renders are logged and skipped.
func RenderAll(log *logger.Logger, templates []StrategyTemplate, contexts []Context) []Rendered {
	rendered := make([]Rendered, 0, len(templates)*len(contexts))

	for _, t := range templates {
		tmpl, err := Compile(t)
		if err != nil {
			log.Warn("Failed to parse template", zap.String("template", t.Name), zap.Error(err))

			continue
		}

		for _, ctx := range contexts {
			out, err := execute(t.Name, tmpl, ctx)
			if err != nil {
				log.Warn("Failed to generate strategy", zap.String("template", t.Name), zap.Error(err))

				continue
			}

			rendered = append(rendered, Rendered{Template: t.Name, Context: ctx, YAML: out})
		}
	}

	log.Info("Generated strategy configurations", zap.Int("count", len(rendered)))

	return rendered
}
