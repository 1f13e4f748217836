package engine

import (
	"encoding/json"
	"reflect"
	"strings"
	"time"

	"github.com/invopop/jsonschema"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-ablation/internal/backtest/engine/engine_v1/commission_fee"
	"github.com/rxtech-lab/argo-ablation/internal/types"
	"github.com/rxtech-lab/argo-ablation/internal/version"
	"github.com/rxtech-lab/argo-ablation/pkg/errors"
)

// DefaultPeriodsPerYear annualizes Sharpe ratios of daily returns.
const DefaultPeriodsPerYear = 252

var allInitialSignals = []any{
	types.SignalTypeFlat,
	types.SignalTypeBuy,
}

type BacktestEngineV1Config struct {
	Broker         commission_fee.Broker      `yaml:"broker" json:"broker" jsonschema:"title=Broker,description=Cost model. per_contract uses the strategy transaction costs and zero_commission ignores them"`
	StartTime      optional.Option[time.Time] `yaml:"start_time" json:"start_time" jsonschema:"title=Start Time,description=Optional start time for the backtest period"`
	EndTime        optional.Option[time.Time] `yaml:"end_time" json:"end_time" jsonschema:"title=End Time,description=Optional end time for the backtest period"`
	Symbol         optional.Option[string]    `yaml:"symbol" json:"symbol" jsonschema:"title=Symbol,description=Rows of this symbol are used when the data file holds several"`
	PeriodsPerYear int                        `yaml:"periods_per_year" json:"periods_per_year" jsonschema:"title=Periods Per Year,description=Annualization factor for the Sharpe ratio,minimum=1,default=252"`
	InitialSignal  types.SignalType           `yaml:"initial_signal" json:"initial_signal" jsonschema:"title=Initial Signal,description=Pending signal applied at the first bar. buy enters at the first open"`
	EngineVersion  string                     `yaml:"engine_version" json:"engine_version,omitempty" jsonschema:"title=Engine Version,description=Semver constraint the running engine must satisfy such as ^1.2"`
}

// UnmarshalYAML implements custom unmarshaling for BacktestEngineV1Config
func (c *BacktestEngineV1Config) UnmarshalYAML(unmarshal func(interface{}) error) error {
	type Config struct {
		Broker         commission_fee.Broker `yaml:"broker"`
		StartTime      *time.Time            `yaml:"start_time"`
		EndTime        *time.Time            `yaml:"end_time"`
		Symbol         *string               `yaml:"symbol"`
		PeriodsPerYear *int                  `yaml:"periods_per_year"`
		InitialSignal  types.SignalType      `yaml:"initial_signal"`
		EngineVersion  string                `yaml:"engine_version"`
	}

	var config Config
	if err := unmarshal(&config); err != nil {
		return err
	}

	*c = EmptyConfig()

	if config.Broker != "" {
		c.Broker = config.Broker
	}

	if config.StartTime != nil {
		c.StartTime = optional.Some(*config.StartTime)
	}

	if config.EndTime != nil {
		c.EndTime = optional.Some(*config.EndTime)
	}

	if config.Symbol != nil {
		c.Symbol = optional.Some(*config.Symbol)
	}

	if config.PeriodsPerYear != nil {
		c.PeriodsPerYear = *config.PeriodsPerYear
	}

	if config.InitialSignal != "" {
		c.InitialSignal = config.InitialSignal
	}

	c.EngineVersion = config.EngineVersion

	return nil
}

// MarshalYAML writes the optional fields only when they are set.
func (c BacktestEngineV1Config) MarshalYAML() (interface{}, error) {
	type Config struct {
		Broker         commission_fee.Broker `yaml:"broker"`
		StartTime      *time.Time            `yaml:"start_time,omitempty"`
		EndTime        *time.Time            `yaml:"end_time,omitempty"`
		Symbol         *string               `yaml:"symbol,omitempty"`
		PeriodsPerYear int                   `yaml:"periods_per_year"`
		InitialSignal  types.SignalType      `yaml:"initial_signal"`
		EngineVersion  string                `yaml:"engine_version,omitempty"`
	}

	config := Config{
		Broker:         c.Broker,
		PeriodsPerYear: c.PeriodsPerYear,
		InitialSignal:  c.InitialSignal,
		EngineVersion:  c.EngineVersion,
	}

	if c.StartTime.IsSome() {
		start := c.StartTime.Unwrap()
		config.StartTime = &start
	}

	if c.EndTime.IsSome() {
		end := c.EndTime.Unwrap()
		config.EndTime = &end
	}

	if c.Symbol.IsSome() {
		symbol := c.Symbol.Unwrap()
		config.Symbol = &symbol
	}

	return config, nil
}

// Validate checks the engine configuration.
func (c BacktestEngineV1Config) Validate() error {
	switch c.Broker {
	case commission_fee.BrokerPerContract, commission_fee.BrokerZero:
	default:
		return errors.Newf(errors.ErrCodeBacktestConfigError, "unknown broker %q", c.Broker)
	}

	if c.PeriodsPerYear <= 0 {
		return errors.Newf(errors.ErrCodeBacktestConfigError, "periods_per_year must be positive, got %d", c.PeriodsPerYear)
	}

	if c.InitialSignal != types.SignalTypeFlat && c.InitialSignal != types.SignalTypeBuy {
		return errors.Newf(errors.ErrCodeBacktestConfigError, "initial_signal must be flat or buy, got %q", c.InitialSignal)
	}

	if c.StartTime.IsSome() && c.EndTime.IsSome() && c.EndTime.Unwrap().Before(c.StartTime.Unwrap()) {
		return errors.New(errors.ErrCodeBacktestConfigError, "end_time is before start_time")
	}

	return version.Satisfies(version.GetVersion(), c.EngineVersion)
}

// GenerateSchema generates a JSON schema for the BacktestEngineV1Config
func (c *BacktestEngineV1Config) GenerateSchema() (*jsonschema.Schema, error) {
	reflector := jsonschema.Reflector{
		ExpandedStruct:            true,
		AllowAdditionalProperties: false,
		Mapper: func(t reflect.Type) *jsonschema.Schema {
			switch t.String() {
			case "optional.Option[time.Time]":
				return &jsonschema.Schema{
					Type:   "string",
					Format: "date-time",
				}
			case "optional.Option[string]":
				return &jsonschema.Schema{Type: "string"}
			}

			if strings.Contains(t.String(), "commission_fee.Broker") {
				return &jsonschema.Schema{
					Type: "string",
					Enum: commission_fee.AllBrokers,
				}
			}

			if t == reflect.TypeOf(types.SignalType("")) {
				return &jsonschema.Schema{
					Type: "string",
					Enum: allInitialSignals,
				}
			}

			return nil
		},
	}

	schema := reflector.Reflect(c)

	schema.Title = "backtest-engine-v1-config"
	schema.Description = "Configuration schema for BacktestEngineV1"
	schema.Version = "http://json-schema.org/draft-07/schema#"

	return schema, nil
}

// GenerateSchemaJSON generates a JSON schema string for the BacktestEngineV1Config
func (c *BacktestEngineV1Config) GenerateSchemaJSON() (string, error) {
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

// EmptyConfig returns a BacktestEngineV1Config with default values
func EmptyConfig() BacktestEngineV1Config {
	return BacktestEngineV1Config{
		Broker:         commission_fee.BrokerPerContract,
		StartTime:      optional.None[time.Time](),
		EndTime:        optional.None[time.Time](),
		Symbol:         optional.None[string](),
		PeriodsPerYear: DefaultPeriodsPerYear,
		InitialSignal:  types.SignalTypeFlat,
	}
}
