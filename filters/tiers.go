package filters

import (
	"os"
	"strings"
	"sync"

	"github.com/gocarina/gocsv"
	log "github.com/sirupsen/logrus"
)

// Tier is the historical-edge classification of a regime combination.
type Tier int

const (
	TierUnknown Tier = iota
	TierA
	TierB
	TierC
	TierUnfiltered
)

func (t Tier) String() string {
	switch t {
	case TierA:
		return "A"
	case TierB:
		return "B"
	case TierC:
		return "C"
	case TierUnfiltered:
		return "UNFILTERED"
	}
	return "UNKNOWN"
}

// Default risk scales per tier. Tier C vetoes outright.
var tierScales = map[Tier]float64{
	TierA:       1.5,
	TierB:       0.75,
	TierUnknown: 0.5,
	TierC:       0.0,
}

// Expectancy thresholds for classifying edge-map rows into tiers, and
// the minimum sample size a row needs to count at all.
const (
	tierAExpectancy = 0.25
	tierBExpectancy = 0.05
	tierMinTrades   = 30
)

// Combo keys the tier lookup. Fields are canonical uppercase strings
// so CSV rows and live regime tags hash identically.
type Combo struct {
	Session    string
	Trend      string
	Volatility string
	Pattern    string
}

// NewCombo canonicalizes live regime tags into a lookup key.
func NewCombo(session Session, trend Trend, vol Volatility, pattern string) Combo {
	return Combo{
		Session:    session.String(),
		Trend:      trend.String(),
		Volatility: vol.String(),
		Pattern:    strings.TrimSpace(pattern),
	}
}

// ComboTier is a resolved tier plus its risk scale.
type ComboTier struct {
	Tier  Tier
	Scale float64
}

// TierResult is the verdict for one candidate: vetoed (tier C or a
// non-positive scale) or allowed with a size multiplier.
type TierResult struct {
	Allowed bool
	Scale   float64
	Tier    Tier
}

type edgeRow struct {
	SessionTag       string  `csv:"session_tag"`
	TrendRegime      string  `csv:"trend_regime"`
	VolatilityRegime string  `csv:"volatility_regime"`
	PatternTag       string  `csv:"pattern_tag"`
	NTrades          float64 `csv:"n_trades"`
	Expectancy       float64 `csv:"expectancy"`
}

type overrideRow struct {
	SessionTag       string  `csv:"session_tag"`
	TrendRegime      string  `csv:"trend_regime"`
	VolatilityRegime string  `csv:"volatility_regime"`
	PatternTag       string  `csv:"pattern_tag"`
	Tier             string  `csv:"tier"`
	RiskScale        float64 `csv:"risk_scale"`
}

// TierMap is the lazily-built, invalidatable edge-tier cache. After
// the first build it is read-only, so concurrent sweep workers share
// one instance safely; Invalidate forces a rebuild on next use.
type TierMap struct {
	EdgePath     string
	OverridePath string
	Enabled      bool

	mu     sync.Mutex
	built  bool
	combos map[Combo]ComboTier
}

// NewTierMap creates a cache over the given edge and override CSVs.
// Missing files are not errors: the map simply stays empty and every
// combo resolves to UNKNOWN.
func NewTierMap(edgePath, overridePath string) *TierMap {
	return &TierMap{EdgePath: edgePath, OverridePath: overridePath, Enabled: true}
}

// Invalidate discards the built map; the next lookup rebuilds it.
func (m *TierMap) Invalidate() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.built = false
	m.combos = nil
}

// Resolve returns the tier for a combo, building the map on first use.
func (m *TierMap) Resolve(c Combo) ComboTier {
	m.mu.Lock()
	if !m.built {
		m.combos = m.build()
		m.built = true
	}
	combos := m.combos
	m.mu.Unlock()

	if ct, ok := combos[c]; ok {
		return ct
	}
	return ComboTier{Tier: TierUnknown, Scale: tierScales[TierUnknown]}
}

// Allow resolves a combo and applies the tier-C / non-positive-scale
// veto. A disabled map admits everything at scale 1.
func (m *TierMap) Allow(c Combo) TierResult {
	if !m.Enabled {
		return TierResult{Allowed: true, Scale: 1.0, Tier: TierUnfiltered}
	}
	ct := m.Resolve(c)
	if ct.Tier == TierC || ct.Scale <= 0 {
		return TierResult{Allowed: false, Scale: 0, Tier: TierC}
	}
	return TierResult{Allowed: true, Scale: ct.Scale, Tier: ct.Tier}
}

func (m *TierMap) build() map[Combo]ComboTier {
	combos := make(map[Combo]ComboTier)

	for _, row := range loadRows[edgeRow](m.EdgePath) {
		if row.NTrades < tierMinTrades {
			continue
		}
		var tier Tier
		switch {
		case row.Expectancy >= tierAExpectancy:
			tier = TierA
		case row.Expectancy >= tierBExpectancy:
			tier = TierB
		case row.Expectancy < 0:
			tier = TierC
		default:
			continue
		}
		combos[comboFromCSV(row.SessionTag, row.TrendRegime, row.VolatilityRegime, row.PatternTag)] = ComboTier{
			Tier:  tier,
			Scale: tierScales[tier],
		}
	}

	// Manual overrides win over the computed edge map.
	for _, row := range loadRows[overrideRow](m.OverridePath) {
		tier := parseTier(row.Tier)
		if tier == TierUnfiltered {
			continue
		}
		scale := row.RiskScale
		if scale == 0 && tier != TierC {
			scale = tierScales[tier]
		}
		combo := comboFromCSV(row.SessionTag, row.TrendRegime, row.VolatilityRegime, row.PatternTag)
		if combo == (Combo{}) {
			continue
		}
		combos[combo] = ComboTier{Tier: tier, Scale: scale}
	}

	return combos
}

func loadRows[T any](path string) []*T {
	if path == "" {
		return nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()

	var rows []*T
	if err := gocsv.UnmarshalFile(f, &rows); err != nil {
		log.WithError(err).WithField("path", path).Warn("skipping unreadable tier map")
		return nil
	}
	return rows
}

func comboFromCSV(session, trend, vol, pattern string) Combo {
	return Combo{
		Session:    strings.ToUpper(strings.TrimSpace(session)),
		Trend:      strings.ToUpper(strings.TrimSpace(trend)),
		Volatility: strings.ToUpper(strings.TrimSpace(vol)),
		Pattern:    strings.TrimSpace(pattern),
	}
}

func parseTier(s string) Tier {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "A":
		return TierA
	case "B":
		return TierB
	case "C":
		return TierC
	case "UNKNOWN":
		return TierUnknown
	}
	return TierUnfiltered
}
