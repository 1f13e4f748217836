package types

type SignalType string

const (
	// SignalTypeBuy opens a long position on the next bar's open
	SignalTypeBuy SignalType = "buy"
	// SignalTypeSell closes the open position on the next bar's open
	SignalTypeSell SignalType = "sell"
	// SignalTypeFlat leaves the position unchanged
	SignalTypeFlat SignalType = "flat"
)

// SignalContext tells the translator which predicate produced a boolean decision.
type SignalContext string

const (
	SignalContextEntry SignalContext = "entry"
	SignalContextExit  SignalContext = "exit"
)

// TranslateSignal converts a predicate result into a pending signal.
// A true entry decision becomes buy, a true exit decision becomes sell and false is always flat.
func TranslateSignal(fired bool, context SignalContext) SignalType {
	if !fired {
		return SignalTypeFlat
	}

	switch context {
	case SignalContextEntry:
		return SignalTypeBuy
	case SignalContextExit:
		return SignalTypeSell
	default:
		return SignalTypeFlat
	}
}

type PositionState string

const (
	PositionStateFlat PositionState = "flat"
	PositionStateLong PositionState = "long"
)
