package portfolio

// FeeModel calculates the commission charged for one fill.
type FeeModel interface {
	// Fee returns the fee in account currency for a fill of size units at price.
	Fee(size, price float64) float64
}

type Broker string

const (
	BrokerInteractiveBroker Broker = "interactive_broker"
	BrokerZero              Broker = "zero_commission"
)

var AllBrokers = []any{
	BrokerInteractiveBroker,
	BrokerZero,
}

// FeeModelFor returns the fee model of a broker. Unknown brokers pay nothing.
func FeeModelFor(broker Broker) FeeModel {
	switch broker {
	case BrokerInteractiveBroker:
		return NewPerUnitFees(0.005, 1.0)
	case BrokerZero:
		return ZeroFees{}
	default:
		return ZeroFees{}
	}
}

// ZeroFees implements FeeModel with zero commission.
type ZeroFees struct{}

// Fee implements FeeModel.
func (ZeroFees) Fee(_, _ float64) float64 {
	return 0
}

// PerUnitFees charges a fixed amount per unit with a minimum per fill.
type PerUnitFees struct {
	PerUnit float64
	Minimum float64
}

func NewPerUnitFees(perUnit, minimum float64) *PerUnitFees {
	return &PerUnitFees{PerUnit: perUnit, Minimum: minimum}
}

// Fee implements FeeModel.
func (f *PerUnitFees) Fee(size, _ float64) float64 {
	fee := f.PerUnit * size
	if fee < f.Minimum {
		return f.Minimum
	}

	return fee
}
