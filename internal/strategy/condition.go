package strategy

import (
	"fmt"

	"github.com/moznion/go-optional"
)

// Mode is the policy a ConditionGroup uses to combine its conditions.
type Mode string

const (
	// ModeAll fires when every condition fires (logical AND).
	ModeAll Mode = "all"
	// ModeAny fires when at least one condition fires (logical OR).
	ModeAny Mode = "any"
)

type Operator string

const (
	OperatorCrossesAbove Operator = "crosses_above"
	OperatorCrossesBelow Operator = "crosses_below"
	OperatorChangesTo    Operator = "changes_to"
	OperatorRemains      Operator = "remains"
	OperatorGt           Operator = "gt"
	OperatorGte          Operator = "gte"
	OperatorLt           Operator = "lt"
	OperatorLte          Operator = "lte"
	OperatorEq           Operator = "eq"
	OperatorNe           Operator = "ne"
)

var operatorAliases = map[Operator]Operator{
	">":  OperatorGt,
	">=": OperatorGte,
	"<":  OperatorLt,
	"<=": OperatorLte,
	"==": OperatorEq,
	"!=": OperatorNe,
}

// AllOperators lists the canonical operator names.
var AllOperators = []Operator{
	OperatorCrossesAbove, OperatorCrossesBelow, OperatorChangesTo, OperatorRemains,
	OperatorGt, OperatorGte, OperatorLt, OperatorLte, OperatorEq, OperatorNe,
}

// Canonical resolves symbolic aliases such as ">=" to their named form.
// The second result is false for operators the evaluator does not know.
func (o Operator) Canonical() (Operator, bool) {
	if alias, ok := operatorAliases[o]; ok {
		return alias, true
	}

	for _, op := range AllOperators {
		if op == o {
			return o, true
		}
	}

	return o, false
}

// Condition is one declarative test of a signal column against a value.
// Value is either the name of another column or a literal; the evaluator
// decides which once per condition.
type Condition struct {
	Signal    string                  `yaml:"signal" json:"signal" validate:"required" jsonschema:"title=Signal,description=Column the condition reads"`
	Operator  Operator                `yaml:"operator" json:"operator" validate:"required" jsonschema:"title=Operator,description=Comparison crossing or state operator"`
	Value     any                     `yaml:"value" json:"value" jsonschema:"title=Value,description=Literal threshold or name of another column"`
	Timeframe optional.Option[string] `yaml:"timeframe" json:"timeframe,omitempty" jsonschema:"title=Timeframe,description=Timeframe in minutes the signal is read from"`
}

// UnmarshalYAML implements custom unmarshaling for Condition
func (c *Condition) UnmarshalYAML(unmarshal func(interface{}) error) error {
	type raw struct {
		Signal    string   `yaml:"signal"`
		Operator  Operator `yaml:"operator"`
		Value     any      `yaml:"value"`
		Timeframe *string  `yaml:"timeframe"`
	}

	var r raw
	if err := unmarshal(&r); err != nil {
		return err
	}

	c.Signal = r.Signal
	c.Operator = r.Operator
	c.Value = r.Value
	c.Timeframe = optional.None[string]()

	if r.Timeframe != nil && *r.Timeframe != "" {
		c.Timeframe = optional.Some(*r.Timeframe)
	}

	return nil
}

// ValueName returns the value as a column name candidate. Only string values
// can refer to columns.
func (c Condition) ValueName() (string, bool) {
	s, ok := c.Value.(string)

	return s, ok
}

func (c Condition) String() string {
	tf := "-"
	if c.Timeframe.IsSome() {
		tf = c.Timeframe.Unwrap()
	}

	return fmt.Sprintf("%s %s %v @%s", c.Signal, c.Operator, c.Value, tf)
}

// ConditionGroup is one side (entry or exit) of a strategy.
type ConditionGroup struct {
	Mode       Mode        `yaml:"mode" json:"mode" validate:"required" jsonschema:"title=Mode,enum=all,enum=any"`
	Conditions []Condition `yaml:"conditions" json:"conditions" validate:"required,min=1,dive" jsonschema:"title=Conditions"`
}

// Sides groups the long and optional short condition groups of one section.
type Sides struct {
	Long  *ConditionGroup `yaml:"long" json:"long" validate:"required" jsonschema:"title=Long"`
	Short *ConditionGroup `yaml:"short,omitempty" json:"short,omitempty" validate:"omitempty" jsonschema:"title=Short"`
}

// Groups returns the non-nil groups, long first.
func (s Sides) Groups() []*ConditionGroup {
	groups := make([]*ConditionGroup, 0, 2)
	if s.Long != nil {
		groups = append(groups, s.Long)
	}

	if s.Short != nil {
		groups = append(groups, s.Short)
	}

	return groups
}
