package strategy

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"os"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/invopop/jsonschema"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-ablation/internal/indicator"
	"github.com/rxtech-lab/argo-ablation/pkg/errors"
	"gopkg.in/yaml.v3"
)

// IndicatorConfig holds indicator lookbacks.
type IndicatorConfig struct {
	RSIPeriod         optional.Option[int] `yaml:"rsi_period" json:"rsi_period" jsonschema:"title=RSI Period,description=Wilder RSI lookback used by the entry filter,minimum=1"`
	ShortCompositeRSI optional.Option[int] `yaml:"short_composite_rsi" json:"short_composite_rsi" jsonschema:"title=Short Composite RSI,description=Fast leg of the composite RSI,minimum=1"`
	LongCompositeRSI  optional.Option[int] `yaml:"long_composite_rsi" json:"long_composite_rsi" jsonschema:"title=Long Composite RSI,description=Slow leg of the composite RSI,minimum=1"`
	HurstWindow       optional.Option[int] `yaml:"hurst_window" json:"hurst_window" jsonschema:"title=Hurst Window,description=Trailing closes used by the rolling Hurst exponent,minimum=10"`
}

// EntryThresholds configures the entry filters.
type EntryThresholds struct {
	RSILow         optional.Option[float64] `yaml:"rsi_low" json:"rsi_low" jsonschema:"title=RSI Low,description=Lower bound of the RSI entry band,minimum=0,maximum=100"`
	RSIHigh        optional.Option[float64] `yaml:"rsi_high" json:"rsi_high" jsonschema:"title=RSI High,description=Upper bound of the RSI entry band,minimum=0,maximum=100"`
	HurstThreshold optional.Option[float64] `yaml:"hurst_threshold" json:"hurst_threshold" jsonschema:"title=Hurst Threshold,description=Entry requires the Hurst exponent to exceed this value"`
}

// ExitConfig configures the exit triggers.
type ExitConfig struct {
	MaxBarsInTrade        optional.Option[int]     `yaml:"max_bars_in_trade" json:"max_bars_in_trade" jsonschema:"title=Max Bars In Trade,description=Time exit after this many bars held,minimum=1"`
	MaxProfitableCloses   optional.Option[int]     `yaml:"max_profitable_closes" json:"max_profitable_closes" jsonschema:"title=Max Profitable Closes,description=Take profit after this many consecutive bars closing at or above their open,minimum=1"`
	CompositeRSIThreshold optional.Option[float64] `yaml:"composite_rsi_threshold" json:"composite_rsi_threshold" jsonschema:"title=Composite RSI Threshold,description=Exit when the composite RSI exceeds this value,minimum=0,maximum=100"`
}

// TransactionCosts are per-contract costs scaled by contract size.
type TransactionCosts struct {
	CommissionPerContract optional.Option[float64] `yaml:"commission_per_contract" json:"commission_per_contract" jsonschema:"title=Commission Per Contract,description=Commission charged on each side of a trade,minimum=0"`
	ContractSize          optional.Option[float64] `yaml:"contract_size" json:"contract_size" jsonschema:"title=Contract Size,description=Units per contract,exclusiveMinimum=0"`
	SlippagePerContract   optional.Option[float64] `yaml:"slippage_per_contract" json:"slippage_per_contract" jsonschema:"title=Slippage Per Contract,description=Slippage charged on exit,minimum=0"`
}

// Config is the immutable strategy configuration.
// Every numeric field is optional at decode time. The base fields are checked by RequireBase.
type Config struct {
	Name             string           `yaml:"name" json:"name" jsonschema:"title=Name,description=Label used in result folders and reports"`
	Indicators       IndicatorConfig  `yaml:"indicators" json:"indicators" jsonschema:"title=Indicators"`
	EntryThresholds  EntryThresholds  `yaml:"entry_thresholds" json:"entry_thresholds" jsonschema:"title=Entry Thresholds"`
	Exits            ExitConfig       `yaml:"exits" json:"exits" jsonschema:"title=Exits"`
	TransactionCosts TransactionCosts `yaml:"transaction_costs" json:"transaction_costs" jsonschema:"title=Transaction Costs"`
	Ablation         AblationMask     `yaml:"ablation" json:"ablation" jsonschema:"title=Ablation,description=Signal sources switched on or off. Missing flags are on"`
}

type rawConfig struct {
	Name       string `yaml:"name,omitempty"`
	Indicators struct {
		RSIPeriod         *int `yaml:"rsi_period,omitempty" validate:"omitempty,gt=0"`
		ShortCompositeRSI *int `yaml:"short_composite_rsi,omitempty" validate:"omitempty,gt=0"`
		LongCompositeRSI  *int `yaml:"long_composite_rsi,omitempty" validate:"omitempty,gt=0"`
		HurstWindow       *int `yaml:"hurst_window,omitempty" validate:"omitempty,gte=10"`
	} `yaml:"indicators"`
	EntryThresholds struct {
		RSILow         *float64 `yaml:"rsi_low,omitempty" validate:"omitempty,gte=0,lte=100"`
		RSIHigh        *float64 `yaml:"rsi_high,omitempty" validate:"omitempty,gte=0,lte=100"`
		HurstThreshold *float64 `yaml:"hurst_threshold,omitempty"`
	} `yaml:"entry_thresholds"`
	Exits struct {
		MaxBarsInTrade        *int     `yaml:"max_bars_in_trade,omitempty" validate:"omitempty,gt=0"`
		MaxProfitableCloses   *int     `yaml:"max_profitable_closes,omitempty" validate:"omitempty,gt=0"`
		CompositeRSIThreshold *float64 `yaml:"composite_rsi_threshold,omitempty" validate:"omitempty,gte=0,lte=100"`
	} `yaml:"exits"`
	TransactionCosts struct {
		CommissionPerContract *float64 `yaml:"commission_per_contract,omitempty" validate:"omitempty,gte=0"`
		ContractSize          *float64 `yaml:"contract_size,omitempty" validate:"omitempty,gt=0"`
		SlippagePerContract   *float64 `yaml:"slippage_per_contract,omitempty" validate:"omitempty,gte=0"`
	} `yaml:"transaction_costs"`
	Ablation map[string]bool `yaml:"ablation,omitempty"`
}

var configValidator = newConfigValidator()

func newConfigValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("yaml"), ",", 2)[0]
		if name == "-" {
			return ""
		}

		return name
	})

	return v
}

func someOf[T any](p *T) optional.Option[T] {
	if p == nil {
		return optional.None[T]()
	}

	return optional.Some(*p)
}

func ptrOf[T any](o optional.Option[T]) *T {
	if o.IsNone() {
		return nil
	}

	v := o.Unwrap()

	return &v
}

// UnmarshalYAML implements custom unmarshaling for Config
func (c *Config) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var raw rawConfig
	if err := unmarshal(&raw); err != nil {
		return err
	}

	c.Name = raw.Name
	c.Indicators = IndicatorConfig{
		RSIPeriod:         someOf(raw.Indicators.RSIPeriod),
		ShortCompositeRSI: someOf(raw.Indicators.ShortCompositeRSI),
		LongCompositeRSI:  someOf(raw.Indicators.LongCompositeRSI),
		HurstWindow:       someOf(raw.Indicators.HurstWindow),
	}
	c.EntryThresholds = EntryThresholds{
		RSILow:         someOf(raw.EntryThresholds.RSILow),
		RSIHigh:        someOf(raw.EntryThresholds.RSIHigh),
		HurstThreshold: someOf(raw.EntryThresholds.HurstThreshold),
	}
	c.Exits = ExitConfig{
		MaxBarsInTrade:        someOf(raw.Exits.MaxBarsInTrade),
		MaxProfitableCloses:   someOf(raw.Exits.MaxProfitableCloses),
		CompositeRSIThreshold: someOf(raw.Exits.CompositeRSIThreshold),
	}
	c.TransactionCosts = TransactionCosts{
		CommissionPerContract: someOf(raw.TransactionCosts.CommissionPerContract),
		ContractSize:          someOf(raw.TransactionCosts.ContractSize),
		SlippagePerContract:   someOf(raw.TransactionCosts.SlippagePerContract),
	}

	c.Ablation = nil
	if raw.Ablation != nil {
		c.Ablation = make(AblationMask, len(raw.Ablation))
		for k, v := range raw.Ablation {
			c.Ablation[SignalSource(k)] = v
		}
	}

	return nil
}

// MarshalYAML writes optional fields only when they are set.
func (c Config) MarshalYAML() (interface{}, error) {
	return c.toRaw(), nil
}

func (c Config) toRaw() rawConfig {
	var raw rawConfig

	raw.Name = c.Name
	raw.Indicators.RSIPeriod = ptrOf(c.Indicators.RSIPeriod)
	raw.Indicators.ShortCompositeRSI = ptrOf(c.Indicators.ShortCompositeRSI)
	raw.Indicators.LongCompositeRSI = ptrOf(c.Indicators.LongCompositeRSI)
	raw.Indicators.HurstWindow = ptrOf(c.Indicators.HurstWindow)
	raw.EntryThresholds.RSILow = ptrOf(c.EntryThresholds.RSILow)
	raw.EntryThresholds.RSIHigh = ptrOf(c.EntryThresholds.RSIHigh)
	raw.EntryThresholds.HurstThreshold = ptrOf(c.EntryThresholds.HurstThreshold)
	raw.Exits.MaxBarsInTrade = ptrOf(c.Exits.MaxBarsInTrade)
	raw.Exits.MaxProfitableCloses = ptrOf(c.Exits.MaxProfitableCloses)
	raw.Exits.CompositeRSIThreshold = ptrOf(c.Exits.CompositeRSIThreshold)
	raw.TransactionCosts.CommissionPerContract = ptrOf(c.TransactionCosts.CommissionPerContract)
	raw.TransactionCosts.ContractSize = ptrOf(c.TransactionCosts.ContractSize)
	raw.TransactionCosts.SlippagePerContract = ptrOf(c.TransactionCosts.SlippagePerContract)

	if c.Ablation != nil {
		raw.Ablation = make(map[string]bool, len(c.Ablation))
		for k, v := range c.Ablation {
			raw.Ablation[string(k)] = v
		}
	}

	return raw
}

// Validate checks ranges of the fields that are set and the ablation flags.
func (c Config) Validate() error {
	raw := c.toRaw()
	if err := configValidator.Struct(raw); err != nil {
		var validationErrors validator.ValidationErrors
		if stderrors.As(err, &validationErrors) && len(validationErrors) > 0 {
			first := validationErrors[0]
			field := strings.TrimPrefix(first.Namespace(), "rawConfig.")

			return errors.Newf(errors.ErrCodeInvalidConfiguration, "invalid configuration field %q: failed %q check", field, first.Tag())
		}

		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid configuration", err)
	}

	if low, high := c.EntryThresholds.RSILow, c.EntryThresholds.RSIHigh; low.IsSome() && high.IsSome() && low.Unwrap() > high.Unwrap() {
		return errors.Newf(errors.ErrCodeInvalidThreshold, "entry_thresholds.rsi_low (%v) exceeds entry_thresholds.rsi_high (%v)", low.Unwrap(), high.Unwrap())
	}

	return c.Ablation.Validate()
}

// RequireBase fails with a missing-parameter error naming the first absent base field.
// The base fields are the indicator lookbacks and the transaction costs.
func (c Config) RequireBase() error {
	checks := []struct {
		field string
		set   bool
	}{
		{"indicators.rsi_period", c.Indicators.RSIPeriod.IsSome()},
		{"indicators.short_composite_rsi", c.Indicators.ShortCompositeRSI.IsSome()},
		{"indicators.long_composite_rsi", c.Indicators.LongCompositeRSI.IsSome()},
		{"indicators.hurst_window", c.Indicators.HurstWindow.IsSome()},
		{"transaction_costs.commission_per_contract", c.TransactionCosts.CommissionPerContract.IsSome()},
		{"transaction_costs.contract_size", c.TransactionCosts.ContractSize.IsSome()},
		{"transaction_costs.slippage_per_contract", c.TransactionCosts.SlippagePerContract.IsSome()},
	}

	for _, check := range checks {
		if !check.set {
			return errors.NewMissingParameterError(check.field)
		}
	}

	return nil
}

// IndicatorPeriods returns the lookbacks for the standard indicator set.
// Call RequireBase first; unset lookbacks come back as zero.
func (c Config) IndicatorPeriods() indicator.Periods {
	return indicator.Periods{
		RSIPeriod:         c.Indicators.RSIPeriod.TakeOr(0),
		ShortCompositeRSI: c.Indicators.ShortCompositeRSI.TakeOr(0),
		LongCompositeRSI:  c.Indicators.LongCompositeRSI.TakeOr(0),
		HurstWindow:       c.Indicators.HurstWindow.TakeOr(0),
	}
}

// WithAblation returns a copy of the config using mask.
func (c Config) WithAblation(name string, mask AblationMask) Config {
	out := c
	out.Name = name
	out.Ablation = mask

	return out
}

// ParseConfig decodes and validates a YAML strategy configuration. Unknown fields are rejected.
func ParseConfig(content []byte) (Config, error) {
	var config Config

	decoder := yaml.NewDecoder(bytes.NewReader(content))
	decoder.KnownFields(true)

	if err := decoder.Decode(&config); err != nil {
		return Config{}, errors.Wrap(errors.ErrCodeInvalidConfiguration, "failed to decode strategy config", err)
	}

	if err := config.Validate(); err != nil {
		return Config{}, err
	}

	return config, nil
}

// LoadConfig reads and parses a YAML strategy configuration file.
func LoadConfig(path string) (Config, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrapf(errors.ErrCodeInvalidConfiguration, err, "failed to read strategy config %s", path)
	}

	config, err := ParseConfig(content)
	if err != nil {
		return Config{}, err
	}

	return config, nil
}

// GenerateSchema generates a JSON schema for Config
func (c *Config) GenerateSchema() (*jsonschema.Schema, error) {
	reflector := jsonschema.Reflector{
		ExpandedStruct:            true,
		DoNotReference:            true,
		AllowAdditionalProperties: false,
		Mapper: func(t reflect.Type) *jsonschema.Schema {
			switch t.String() {
			case "optional.Option[int]":
				return &jsonschema.Schema{Type: "integer"}
			case "optional.Option[float64]":
				return &jsonschema.Schema{Type: "number"}
			}

			if t == reflect.TypeOf(AblationMask{}) {
				properties := jsonschema.NewProperties()
				for _, s := range AllSignalSources {
					properties.Set(string(s), &jsonschema.Schema{Type: "boolean", Default: true})
				}

				return &jsonschema.Schema{
					Type:                 "object",
					Properties:           properties,
					AdditionalProperties: jsonschema.FalseSchema,
				}
			}

			return nil
		},
	}

	schema := reflector.Reflect(c)

	schema.Title = "ablation-strategy-config"
	schema.Description = "Configuration schema for the RSI/Hurst ablation strategy"
	schema.Version = "http://json-schema.org/draft-07/schema#"

	return schema, nil
}

// GenerateSchemaJSON generates a JSON schema string for Config
func (c *Config) GenerateSchemaJSON() (string, error) {
	schema, err := c.GenerateSchema()
	if err != nil {
		return "", err
	}

	schemaBytes, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return "", err
	}

	return string(schemaBytes), nil
}

// DefaultConfig returns the configuration used by the sample files.
func DefaultConfig() Config {
	return Config{
		Name: "baseline",
		Indicators: IndicatorConfig{
			RSIPeriod:         optional.Some(14),
			ShortCompositeRSI: optional.Some(2),
			LongCompositeRSI:  optional.Some(24),
			HurstWindow:       optional.Some(indicator.DefaultHurstWindow),
		},
		EntryThresholds: EntryThresholds{
			RSILow:         optional.Some(30.0),
			RSIHigh:        optional.Some(70.0),
			HurstThreshold: optional.Some(0.5),
		},
		Exits: ExitConfig{
			MaxBarsInTrade:        optional.Some(10),
			MaxProfitableCloses:   optional.Some(3),
			CompositeRSIThreshold: optional.Some(70.0),
		},
		TransactionCosts: TransactionCosts{
			CommissionPerContract: optional.Some(2.5),
			ContractSize:          optional.Some(50.0),
			SlippagePerContract:   optional.Some(12.5),
		},
		Ablation: FullMask(),
	}
}
