package market

import "errors"

// ErrDataValidation marks malformed input data: missing columns,
// unparsable timestamps, or frames that are empty after cleaning.
// Fatal for the affected symbol; portfolio loads skip the symbol.
var ErrDataValidation = errors.New("data validation")
