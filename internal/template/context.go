package template

import (
	"sort"
	"strconv"
	"strings"

	"github.com/zakaria-lahyani/backtester/internal/types"
	"github.com/zakaria-lahyani/backtester/pkg/errors"
)

type StrategyType string

const (
	StrategyTypeSimple   StrategyType = "simple"
	StrategyTypeCombined StrategyType = "combined"
)

var AllStrategyTypes = []any{
	StrategyTypeSimple,
	StrategyTypeCombined,
}

// IndicatorConfig is the parameter grid of one indicator.
type IndicatorConfig struct {
	Name             string         `yaml:"-" json:"-"`
	Periods          []string       `yaml:"periods" json:"periods" jsonschema:"title=Periods,description=Indicator periods to sweep" validate:"required,min=1"`
	Timeframes       []string       `yaml:"timeframes" json:"timeframes" jsonschema:"title=Timeframes,description=Timeframes in minutes to sweep" validate:"required,min=1,dive,numeric"`
	Templates        []string       `yaml:"templates" json:"templates" jsonschema:"title=Templates,description=Template file names" validate:"required,min=1"`
	AdditionalParams map[string]any `yaml:"additional_params,omitempty" json:"additional_params,omitempty" jsonschema:"title=Additional Params,description=Extra values available to every template"`
	Type             string         `yaml:"type,omitempty" json:"type,omitempty" jsonschema:"title=Type,description=Indicator computed for this entry. Defaults to the entry name,enum=rsi,enum=macd,enum=bollinger_bands,enum=ema,enum=atr,enum=ma" validate:"omitempty,oneof=rsi macd bollinger_bands ema atr ma"`
}

// Kind is the indicator computed for this entry: Type when set, the entry
// name otherwise.
func (c IndicatorConfig) Kind() types.IndicatorType {
	if c.Type != "" {
		return types.IndicatorType(c.Type)
	}

	return types.IndicatorType(c.Name)
}

// Context is the set of values a template is rendered with.
type Context map[string]any

// StrategyName is the rendering key the indicator name is published under.
const StrategyName = "signal_name"

// SimpleContexts builds one context per period and timeframe pair.
func SimpleContexts(cfg IndicatorConfig) []Context {
	contexts := make([]Context, 0, len(cfg.Periods)*len(cfg.Timeframes))

	for _, period := range cfg.Periods {
		for _, tf := range cfg.Timeframes {
			ctx := Context{
				"period":     period,
				"timeframe":  tf,
				StrategyName: cfg.Name,
			}
			ctx.merge(cfg.AdditionalParams)
			contexts = append(contexts, ctx)
		}
	}

	return contexts
}

// CombinedContexts builds one context per (period, higher timeframe,
// period, lower timeframe) combination where the higher timeframe is
// strictly longer than the lower one. Timeframes are visited in ascending
// numeric order.
func CombinedContexts(cfg IndicatorConfig) ([]Context, error) {
	timeframes, err := sortedTimeframes(cfg.Timeframes)
	if err != nil {
		return nil, err
	}

	var contexts []Context

	for _, periodHTF := range cfg.Periods {
		for _, higher := range timeframes {
			for _, periodLTF := range cfg.Periods {
				for _, lower := range timeframes {
					if higher.minutes <= lower.minutes {
						continue
					}

					ctx := Context{
						"period_htf":       periodHTF,
						"higher_timeframe": higher.name,
						"period_ltf":       periodLTF,
						"lower_timeframe":  lower.name,
						StrategyName:       cfg.Name,
					}
					ctx.merge(cfg.AdditionalParams)
					contexts = append(contexts, ctx)
				}
			}
		}
	}

	return contexts, nil
}

// ContextsFor dispatches on the strategy type. Unknown types use the simple
// grid.
func ContextsFor(strategyType StrategyType, cfg IndicatorConfig) ([]Context, error) {
	if strategyType == StrategyTypeCombined {
		return CombinedContexts(cfg)
	}

	return SimpleContexts(cfg), nil
}

func (c Context) merge(params map[string]any) {
	for k, v := range params {
		c[k] = v
	}
}

type timeframe struct {
	name    string
	minutes int
}

func sortedTimeframes(names []string) ([]timeframe, error) {
	out := make([]timeframe, 0, len(names))

	for _, name := range names {
		minutes, err := strconv.Atoi(strings.TrimSpace(name))
		if err != nil {
			return nil, errors.Newf(errors.ErrCodeInvalidTimeframe, "timeframe %q is not a number of minutes", name)
		}

		out = append(out, timeframe{name: name, minutes: minutes})
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].minutes < out[j].minutes })

	return out, nil
}
