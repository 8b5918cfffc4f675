// Package units converts numeric values between measurement units and
// currencies. Unit names arrive from generated plans, so normalization is
// deliberately forgiving: abbreviations, plurals, and stray whitespace all
// resolve to one canonical spelling before lookup.
//
// Conversion tries three strategies in order: metric prefix arithmetic for SI
// pairs, a fixed pair table for everything else, and finally the currency
// converter as a fallback for names neither strategy recognizes.
package units

import (
	"context"
	"log/slog"
	"strings"
)

// NormalizeUnit resolves a raw unit name to its canonical spelling. A few
// single-letter abbreviations are case-sensitive and must be checked before
// lowercasing ("K" kelvin vs "k", "T" ton, "ms" millisecond).
func NormalizeUnit(u string) string {
	switch u {
	case "K":
		return "kelvin"
	case "C":
		return "celsius"
	case "F":
		return "fahrenheit"
	case "T":
		return "ton"
	case "ms":
		return "millisecond"
	}
	lower := strings.ToLower(strings.TrimSpace(u))
	lower = strings.ReplaceAll(lower, " ", "")
	lower = strings.TrimSuffix(lower, "s")
	switch lower {
	case "feet", "ft":
		return "foot"
	case "in", "inche":
		return "inch"
	case "yd":
		return "yard"
	case "mi":
		return "mile"
	case "cm":
		return "centimeter"
	case "km":
		return "kilometer"
	case "mg":
		return "milligram"
	case "g":
		return "gram"
	case "kg":
		return "kilogram"
	case "lb":
		return "pound"
	case "ml":
		return "milliliter"
	case "qt":
		return "quart"
	case "centurie":
		return "century"
	case "celsiu":
		return "celsius"
	case "hr":
		return "hour"
	case "yr":
		return "year"
	case "min":
		return "minute"
	case "sec":
		return "second"
	case "gal":
		return "gallon"
	case "oz":
		return "ounce"
	case "sqft", "squarefeet":
		return "squarefoot"
	default:
		return lower
	}
}

// metricPrefixes maps SI prefix names to their scale factors. Ordered lookup
// is not needed; prefix names never prefix one another.
var metricPrefixes = map[string]float64{
	"yotta": 1e24,
	"zetta": 1e21,
	"exa":   1e18,
	"peta":  1e15,
	"tera":  1e12,
	"giga":  1e9,
	"mega":  1e6,
	"kilo":  1e3,
	"hecto": 1e2,
	"deka":  1e1,
	"deci":  1e-1,
	"centi": 1e-2,
	"milli": 1e-3,
	"micro": 1e-6,
	"nano":  1e-9,
	"pico":  1e-12,
	"femto": 1e-15,
	"atto":  1e-18,
}

func metricPrefixOf(unit string) (float64, bool) {
	for prefix, scale := range metricPrefixes {
		if strings.HasPrefix(unit, prefix) {
			return scale, true
		}
	}
	return 0, false
}

func mul(factor float64) func(float64) float64 {
	return func(v float64) float64 { return v * factor }
}

func div(divisor float64) func(float64) float64 {
	return func(v float64) float64 { return v / divisor }
}

// pairTable maps "from:to" canonical pairs to conversion functions.
var pairTable = map[string]func(float64) float64{
	// Plans occasionally emit an empty source unit with target "number";
	// treat it as identity.
	":number": func(v float64) float64 { return v },

	// Distance
	"inch:foot":       div(12),
	"inch:yard":       div(36),
	"inch:mile":       div(63_360),
	"inch:mm":         mul(25.4),
	"inch:millimeter": mul(25.4),
	"inch:centimeter": mul(2.54),
	"inch:meter":      mul(0.0254),
	"inch:kilometer":  mul(0.0000254),

	"foot:inch":       mul(12),
	"foot:yard":       div(3),
	"foot:mile":       div(5280),
	"foot:mm":         mul(304.8),
	"foot:millimeter": mul(304.8),
	"foot:centimeter": mul(30.48),
	"foot:meter":      mul(0.3048),
	"foot:kilometer":  mul(0.0003048),

	"yard:inch":       mul(36),
	"yard:foot":       mul(3),
	"yard:mile":       div(1760),
	"yard:mm":         mul(914.4),
	"yard:millimeter": mul(914.4),
	"yard:centimeter": mul(91.44),
	"yard:meter":      mul(0.9144),
	"yard:kilometer":  mul(0.0009144),

	"mile:inch":       mul(63_360),
	"mile:foot":       mul(5_280),
	"mile:yard":       mul(1760),
	"mile:mm":         mul(1_609_344),
	"mile:millimeter": mul(1_609_344),
	"mile:centimeter": mul(160_934.4),
	"mile:meter":      mul(1_609.344),
	"mile:kilometer":  mul(1.609344),

	"mm:inch":         mul(0.0393700787402),
	"millimeter:inch": mul(0.0393700787402),
	"mm:foot":         func(v float64) float64 { return v * 0.0393700787402 / 12 },
	"millimeter:foot": func(v float64) float64 { return v * 0.0393700787402 / 12 },
	"mm:yard":         func(v float64) float64 { return v * 0.0393700787402 / 36 },
	"millimeter:yard": func(v float64) float64 { return v * 0.0393700787402 / 36 },
	"mm:mile":         func(v float64) float64 { return v * 0.0393700787402 / 63_360 },
	"millimeter:mile": func(v float64) float64 { return v * 0.0393700787402 / 63_360 },

	"centimeter:inch": mul(0.393700787402),
	"centimeter:foot": func(v float64) float64 { return v * 0.393700787402 / 12 },
	"centimeter:yard": func(v float64) float64 { return v * 0.393700787402 / 36 },
	"centimeter:mile": func(v float64) float64 { return v * 0.393700787402 / 63_360 },

	"meter:inch": mul(39.3700787402),
	"meter:foot": func(v float64) float64 { return v * 39.3700787402 / 12 },
	"meter:yard": func(v float64) float64 { return v * 39.3700787402 / 36 },
	"meter:mile": func(v float64) float64 { return v * 39.3700787402 / 63_360 },

	"kilometer:inch": mul(39_370.0787402),
	"kilometer:foot": func(v float64) float64 { return v * 39_370.0787402 / 12 },
	"kilometer:yard": func(v float64) float64 { return v * 39_370.0787402 / 36 },
	"kilometer:mile": func(v float64) float64 { return v * 39_370.0787402 / 63_360 },

	// Speed
	"mph:kph":                           div(0.6214),
	"milesperhour:kilometersperhour":    div(0.6214),
	"kph:mph":                           mul(0.6214),
	"kilometersperhour:milesperhour":    mul(0.6214),

	// Weight
	"pound:gram":     mul(453.592),
	"pound:ounce":    mul(16),
	"pound:kilogram": div(2.2046223),
	"pound:ton":      div(2_000),

	"ton:pound":    mul(2_000),
	"ton:gram":     mul(907185),
	"ton:kilogram": mul(907.18474),

	"gram:pound": div(453.592),
	"gram:ton":   div(907185),
	"gram:ounce": div(28.3),

	"kilogram:pound": mul(2.2046223),
	"kilogram:ton":   mul(0.001102),

	"ounce:gram":  mul(28.3),
	"ounce:pound": div(16),

	// Time
	"millisecond:second": div(1000),
	"millisecond:minute": div(60_000),
	"millisecond:hour":   div(3_600_000),
	"millisecond:day":    div(86_400_000),
	"millisecond:week":   div(604_800_000),

	"second:millisecond": mul(1000),
	"second:minute":      div(60),
	"second:hour":        div(3_600),
	"second:day":         div(86_400),
	"second:week":        div(604_800),

	"minute:millisecond": mul(60_000),
	"minute:second":      mul(60),
	"minute:hour":        div(60),
	"minute:day":         div(1_440),
	"minute:week":        div(10_080),

	"hour:millisecond": mul(3_600_000),
	"hour:second":      mul(3_600),
	"hour:minute":      mul(60),
	"hour:day":         div(24),
	"hour:week":        div(168),

	"day:millisecond": mul(86_400_000),
	"day:second":      mul(86_400),
	"day:minute":      mul(1_440),
	"day:hour":        mul(24),
	"day:week":        div(7),
	"day:month":       div(30.4167), // approx
	"day:year":        div(365),     // approx

	"week:millisecond": mul(604_800_000),
	"week:second":      mul(604_800),
	"week:minute":      mul(10_080),
	"week:hour":        mul(168),
	"week:day":         mul(7),
	"week:month":       div(4.34524), // approx
	"week:year":        div(52.1429), // approx

	"month:week": mul(4.34524),
	"month:year": div(12),

	"year:day":      mul(365), // approx
	"year:week":     func(v float64) float64 { return v * 365 / 7 },
	"year:month":    mul(12),
	"year:decade":   div(10),
	"year:century":  div(100),
	"year:millenia": div(1_000),

	"decade:month":    mul(120),
	"decade:year":     mul(10),
	"decade:century":  div(10),
	"decade:millenia": div(100),

	"century:month":    mul(1_200),
	"century:year":     mul(100),
	"century:decade":   mul(10),
	"century:millenia": div(10),

	// Temperature
	"celsius:kelvin":     func(v float64) float64 { return v + 273.15 },
	"celsius:fahrenheit": func(v float64) float64 { return v*9/5 + 32 },
	"kelvin:celsius":     func(v float64) float64 { return v - 273.15 },
	"kelvin:fahrenheit":  func(v float64) float64 { return (v-273.15)*9/5 + 32 },
	"fahrenheit:celsius": func(v float64) float64 { return (v - 32) * 5 / 9 },
	"fahrenheit:kelvin":  func(v float64) float64 { return (v-32)*5/9 + 273.15 },

	// Money denominations
	"cent:dollar": div(100),
	"dollar:cent": mul(100),
	"$mm:$":       mul(1_000_000),

	// Information size
	"bit:byte": div(8),
	"byte:bit": mul(8),

	// Quantity scales
	"one:hundred":  div(100),
	"one:thousand": div(1_000),
	"one:million":  div(1_000_000),
	"one:billion":  div(1_000_000_000),
	"one:trillion": div(1_000_000_000_000),

	"hundred:one":      mul(100),
	"hundred:thousand": div(10),
	"hundred:million":  div(10_000),
	"hundred:billion":  div(10_000_000),
	"hundred:trillion": div(10_000_000_000),

	"thousand:one":      mul(1_000),
	"thousand:hundred":  mul(10),
	"thousand:million":  div(1_000),
	"thousand:billion":  div(1_000_000),
	"thousand:trillion": div(1_000_000_000),

	"million:one":      mul(1_000_000),
	"million:hundred":  mul(10_000),
	"million:thousand": mul(1_000),
	"million:billion":  div(1_000),
	"million:trillion": div(1_000_000),

	"billion:one":      mul(1_000_000_000),
	"billion:hundred":  mul(10_000_000),
	"billion:thousand": mul(1_000_000),
	"billion:million":  mul(1_000),
	"billion:trillion": div(1_000),

	"trillion:one":      mul(1_000_000_000_000),
	"trillion:hundred":  mul(10_000_000_000),
	"trillion:thousand": mul(1_000_000_000),
	"trillion:million":  mul(1_000_000),
	"trillion:billion":  mul(1_000),

	// Area
	"squarefoot:acre":    div(43_560),
	"squarefoot:ac":      div(43_560),
	"squarefoot:hectare": div(107_639),
	"squarefoot:ha":      div(107_639),

	"acre:squarefoot": mul(43_560),
	"ac:squarefoot":   mul(43_560),
	"ac:ha":           mul(0.405),
	"acre:hectare":    mul(0.405),

	"hectare:squarefoot": mul(107_639),
	"ha:squarefoot":      mul(107_639),
	"ha:ac":              mul(2.47105),
	"hectare:acre":       mul(2.47105),

	// Volume
	"cup:pint":       div(2),
	"cup:quart":      div(4),
	"cup:gallon":     div(16),
	"cup:milliliter": mul(236.588),
	"cup:liter":      mul(0.236588),

	"pint:cup":        mul(2),
	"pint:quart":      div(2),
	"pint:gallon":     div(8),
	"pint:milliliter": mul(473.176),
	"pint:liter":      mul(0.473176),

	"quart:cup":        mul(4),
	"quart:pint":       mul(2),
	"quart:gallon":     div(4),
	"quart:milliliter": mul(946.353),
	"quart:liter":      mul(0.946353),

	"gallon:cup":        mul(16),
	"gallon:pint":       mul(8),
	"gallon:quart":      mul(4),
	"gallon:milliliter": mul(3_785.41),
	"gallon:liter":      mul(3.78541),

	"liter:cup":    func(v float64) float64 { return v / 3.78541 * 16 },
	"liter:pint":   func(v float64) float64 { return v / 3.78541 * 8 },
	"liter:quart":  func(v float64) float64 { return v / 3.78541 * 4 },
	"liter:gallon": div(3.78541),
}

// Converter converts values between units, falling back to currency
// conversion for unrecognized pairs.
type Converter struct {
	rates  *RateCache
	logger *slog.Logger
}

// NewConverter creates a Converter. rates may be nil, in which case currency
// fallback always fails.
func NewConverter(rates *RateCache, logger *slog.Logger) *Converter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Converter{rates: rates, logger: logger}
}

// Convert converts value from fromUnit to toUnit. The second return is false
// when no conversion path exists or the currency fallback fails.
func (c *Converter) Convert(ctx context.Context, value float64, fromUnit, toUnit string) (float64, bool) {
	from := NormalizeUnit(fromUnit)
	to := NormalizeUnit(toUnit)

	if from == to {
		return value, true
	}

	fromPrefix, fromOK := metricPrefixOf(from)
	toPrefix, toOK := metricPrefixOf(to)
	if fromOK && toOK {
		// e.g. centimeter (1e-2) to kilometer (1e3): 100 * 1e-2 / 1e3 = 0.001
		return value * fromPrefix / toPrefix, true
	}
	if toOK && strings.HasSuffix(to, from) {
		// e.g. meter to kilometer
		return value / toPrefix, true
	}
	if fromOK && strings.HasSuffix(from, to) {
		// e.g. kilometer to meter
		return value * fromPrefix, true
	}

	if fn, ok := pairTable[from+":"+to]; ok {
		return fn(value), true
	}

	// Maybe currency?
	if converted, ok := c.convertCurrency(ctx, value, fromUnit, toUnit); ok {
		return converted, true
	}
	c.logger.Error("unknown unit conversion", "from", fromUnit, "to", toUnit)
	return 0, false
}
