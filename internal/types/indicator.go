package types

type IndicatorType string

const (
	IndicatorTypeRSI          IndicatorType = "rsi"
	IndicatorTypeCompositeRSI IndicatorType = "composite_rsi"
	IndicatorTypeHurst        IndicatorType = "hurst"
)

// AllIndicatorTypes lists the derived indicator columns in the order the engine advances them.
var AllIndicatorTypes = []IndicatorType{
	IndicatorTypeRSI,
	IndicatorTypeCompositeRSI,
	IndicatorTypeHurst,
}
