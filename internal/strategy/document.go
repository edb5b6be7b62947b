// Package strategy parses the declarative strategy documents produced by
// template rendering. A document names its timeframes and, for entry and
// exit, a long (and optionally short) ConditionGroup.
package strategy

import (
	"github.com/go-playground/validator/v10"
	"github.com/zakaria-lahyani/backtester/internal/version"
	"github.com/zakaria-lahyani/backtester/pkg/errors"
	"gopkg.in/yaml.v3"
)

// DefaultName is used when a document carries no name.
const DefaultName = "unknown_strategy"

// DefaultTimeframes is used when a document declares no timeframes.
var DefaultTimeframes = []string{"1"}

type Document struct {
	Name       string   `yaml:"name" json:"name" validate:"required" jsonschema:"title=Name,description=Strategy name used in result file names"`
	Timeframes []string `yaml:"timeframes" json:"timeframes" validate:"required,min=1,dive,numeric" jsonschema:"title=Timeframes,description=Timeframes in minutes the strategy reads"`
	// EngineVersion optionally pins the engine versions the document was written for.
	EngineVersion string `yaml:"engine_version,omitempty" json:"engine_version,omitempty" jsonschema:"title=Engine Version,description=Engine version or semver constraint"`
	Entry         Sides  `yaml:"entry" json:"entry" jsonschema:"title=Entry"`
	Exit          Sides  `yaml:"exit" json:"exit" jsonschema:"title=Exit"`
}

// Parse decodes, defaults and validates a rendered strategy document.
func Parse(data []byte) (*Document, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrap(errors.ErrCodeStrategyConfigError, "failed to parse strategy yaml", err)
	}

	if doc.Name == "" {
		doc.Name = DefaultName
	}

	if len(doc.Timeframes) == 0 {
		doc.Timeframes = append([]string(nil), DefaultTimeframes...)
	}

	if err := doc.Validate(); err != nil {
		return nil, err
	}

	return &doc, nil
}

// Validate checks the document structure and engine compatibility.
func (d *Document) Validate() error {
	validate := validator.New()

	if err := validate.Struct(d); err != nil {
		return errors.Wrapf(errors.ErrCodeStrategyConfigError, err, "strategy %q is invalid", d.Name)
	}

	for _, group := range d.Groups() {
		for i, c := range group.Conditions {
			if c.Value == nil {
				return errors.Newf(errors.ErrCodeStrategyConfigError,
					"strategy %q: condition %d on %q has no value", d.Name, i, c.Signal)
			}
		}
	}

	if err := version.CheckCompatibility(version.GetVersion(), d.EngineVersion); err != nil {
		return errors.Wrapf(errors.ErrCodeStrategyConfigError, err, "strategy %q", d.Name)
	}

	return nil
}

// Groups returns every condition group of the document: entry long, entry
// short, exit long, exit short, skipping absent ones.
func (d *Document) Groups() []*ConditionGroup {
	groups := d.Entry.Groups()

	return append(groups, d.Exit.Groups()...)
}

// HasShort reports whether the document declares a short side.
func (d *Document) HasShort() bool {
	return d.Entry.Short != nil && d.Exit.Short != nil
}
