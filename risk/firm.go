package risk

import (
	"os"
	"strconv"
)

// FirmProfile overlays the account-level loss rails. The internal
// fractions must be tighter than the prop-firm fractions: the internal
// rails trip a forced flatten before the prop firm would fail the
// account.
type FirmProfile struct {
	InternalMaxDailyLossFraction  float64 `yaml:"internal_max_daily_loss_fraction" json:"internal_max_daily_loss_fraction"`
	InternalMaxTrailingDDFraction float64 `yaml:"internal_max_trailing_dd_fraction" json:"internal_max_trailing_dd_fraction"`
	PropMaxDailyLossFraction      float64 `yaml:"prop_max_daily_loss_fraction" json:"prop_max_daily_loss_fraction"`
	PropMaxTotalLossFraction      float64 `yaml:"prop_max_total_loss_fraction" json:"prop_max_total_loss_fraction"`
}

// DefaultFirmProfile mirrors a 100k two-step evaluation account:
// prop caps 5% daily / 6% total, internal rails one point tighter.
func DefaultFirmProfile() FirmProfile {
	return FirmProfile{
		InternalMaxDailyLossFraction:  0.02,
		InternalMaxTrailingDDFraction: 0.04,
		PropMaxDailyLossFraction:      0.05,
		PropMaxTotalLossFraction:      0.06,
	}
}

// Environment variable names for the overlay overrides.
const (
	EnvInternalMaxDailyLoss  = "PROPSIM_INTERNAL_MAX_DAILY_LOSS"
	EnvInternalMaxTrailingDD = "PROPSIM_INTERNAL_MAX_TRAILING_DD"
	EnvPropMaxDailyLoss      = "PROPSIM_PROP_MAX_DAILY_LOSS"
	EnvPropMaxTotalLoss      = "PROPSIM_PROP_MAX_TOTAL_LOSS"
)

// ApplyEnv overrides any fraction set in the environment. Unset or
// unparsable variables leave the profile untouched.
func (fp *FirmProfile) ApplyEnv() {
	overrideFraction(&fp.InternalMaxDailyLossFraction, EnvInternalMaxDailyLoss)
	overrideFraction(&fp.InternalMaxTrailingDDFraction, EnvInternalMaxTrailingDD)
	overrideFraction(&fp.PropMaxDailyLossFraction, EnvPropMaxDailyLoss)
	overrideFraction(&fp.PropMaxTotalLossFraction, EnvPropMaxTotalLoss)
}

func overrideFraction(dst *float64, key string) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return
	}
	if v, err := strconv.ParseFloat(raw, 64); err == nil && v > 0 {
		*dst = v
	}
}
