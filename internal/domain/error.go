package domain

import "errors"

var (
	// ErrArithmetic is returned when a currency conversion divides by a null
	// or zero exchange rate from a rate row that was present in the reference
	// table. A rate row that is simply absent is not an error; the USD
	// fields stay null instead.
	ErrArithmetic = errors.New("arithmetic error: malformed exchange rate")

	// ErrMalformedProductKey is returned when a mobile key has fewer than
	// four slash-delimited segments. Downstream joins assume well-formed
	// natural keys, so this fails the stage instead of coercing.
	ErrMalformedProductKey = errors.New("malformed product key")

	// ErrUnknownSourceFormat is returned for a source catalog entry whose
	// format is outside the supported set.
	ErrUnknownSourceFormat = errors.New("unknown source format")

	// ErrUnknownRateColumn is returned when a source catalog entry names a
	// currency-pair column that the exchange-rate table does not carry.
	ErrUnknownRateColumn = errors.New("unknown exchange rate column")
)
