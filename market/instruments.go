package market

// SymbolMeta carries the per-symbol constants needed for pip math and
// lot sizing.
type SymbolMeta struct {
	Symbol         string
	PipSize        float64 // price units per pip, e.g. EURUSD 0.0001
	PipValuePerLot float64 // account currency per pip per standard lot
	LotStep        float64
}

// Symbols is the built-in instrument table. Unknown symbols fall back
// to EURUSD metadata via MetaFor.
var Symbols = map[string]SymbolMeta{
	"EURUSD": {Symbol: "EURUSD", PipSize: 0.0001, PipValuePerLot: 10.0, LotStep: 0.01},
	"GBPUSD": {Symbol: "GBPUSD", PipSize: 0.0001, PipValuePerLot: 10.0, LotStep: 0.01},
	"USDJPY": {Symbol: "USDJPY", PipSize: 0.01, PipValuePerLot: 9.0, LotStep: 0.01},
}

// MetaFor returns the metadata for symbol, defaulting to EURUSD.
func MetaFor(symbol string) SymbolMeta {
	if meta, ok := Symbols[symbol]; ok {
		return meta
	}
	return Symbols["EURUSD"]
}
