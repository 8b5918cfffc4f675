package units

import (
	"context"
	"math"
	"strings"
)

// currencySynonyms maps lowercase currency names and symbols to ISO 4217
// codes. Both the code itself and the common English name resolve.
var currencySynonyms = map[string]string{
	"aed": "AED", "uae dirham": "AED",
	"afn": "AFN", "afghan afghani": "AFN",
	"all": "ALL", "albanian lek": "ALL",
	"amd": "AMD", "armenian dram": "AMD",
	"ang": "ANG", "netherlands antillian guilder": "ANG",
	"aoa": "AOA", "angolan kwanza": "AOA",
	"ars": "ARS", "argentine peso": "ARS",
	"aud": "AUD", "australian dollar": "AUD",
	"awg": "AWG", "aruban florin": "AWG",
	"azn": "AZN", "azerbaijani manat": "AZN",
	"bam": "BAM", "bosnia and herzegovina mark": "BAM",
	"bbd": "BBD", "barbados dollar": "BBD",
	"bdt": "BDT", "bangladeshi taka": "BDT",
	"bgn": "BGN", "bulgarian lev": "BGN",
	"bhd": "BHD", "bahraini dinar": "BHD",
	"bif": "BIF", "burundian franc": "BIF",
	"bmd": "BMD", "bermudian dollar": "BMD",
	"bnd": "BND", "brunei dollar": "BND",
	"bob": "BOB", "bolivian boliviano": "BOB",
	"brl": "BRL", "brazilian real": "BRL",
	"bsd": "BSD", "bahamian dollar": "BSD",
	"btn": "BTN", "bhutanese ngultrum": "BTN",
	"bwp": "BWP", "botswana pula": "BWP",
	"byn": "BYN", "belarusian ruble": "BYN",
	"bzd": "BZD", "belize dollar": "BZD",
	"cad": "CAD", "canadian dollar": "CAD",
	"cdf": "CDF", "congolese franc": "CDF",
	"chf": "CHF", "swiss franc": "CHF",
	"clp": "CLP", "chilean peso": "CLP",
	"cny": "CNY", "chinese renminbi": "CNY",
	"cop": "COP", "colombian peso": "COP",
	"crc": "CRC", "costa rican colon": "CRC",
	"cup": "CUP", "cuban peso": "CUP",
	"cve": "CVE", "cape verdean escudo": "CVE",
	"czk": "CZK", "czech koruna": "CZK",
	"djf": "DJF", "djiboutian franc": "DJF",
	"dkk": "DKK", "danish krone": "DKK",
	"dop": "DOP", "dominican peso": "DOP",
	"dzd": "DZD", "algerian dinar": "DZD",
	"egp": "EGP", "egyptian pound": "EGP",
	"ern": "ERN", "eritrean nakfa": "ERN",
	"etb": "ETB", "ethiopian birr": "ETB",
	"eur": "EUR", "euro": "EUR", "€": "EUR",
	"fjd": "FJD", "fiji dollar": "FJD",
	"fkp": "FKP", "falkland islands pound": "FKP",
	"fok": "FOK", "faroese króna": "FOK",
	"gbp": "GBP", "pound sterling": "GBP", "£": "GBP",
	"gel": "GEL", "georgian lari": "GEL",
	"ggp": "GGP", "guernsey pound": "GGP",
	"ghs": "GHS", "ghanaian cedi": "GHS",
	"gip": "GIP", "gibraltar pound": "GIP",
	"gmd": "GMD", "gambian dalasi": "GMD",
	"gnf": "GNF", "guinean franc": "GNF",
	"gtq": "GTQ", "guatemalan quetzal": "GTQ",
	"gyd": "GYD", "guyanese dollar": "GYD",
	"hkd": "HKD", "hong kong dollar": "HKD",
	"hnl": "HNL", "honduran lempira": "HNL",
	"hrk": "HRK", "croatian kuna": "HRK",
	"htg": "HTG", "haitian gourde": "HTG",
	"huf": "HUF", "hungarian forint": "HUF",
	"idr": "IDR", "indonesian rupiah": "IDR",
	"ils": "ILS", "israeli new shekel": "ILS",
	"imp": "IMP", "manx pound": "IMP",
	"inr": "INR", "indian rupee": "INR",
	"iqd": "IQD", "iraqi dinar": "IQD",
	"irr": "IRR", "iranian rial": "IRR",
	"isk": "ISK", "icelandic króna": "ISK",
	"jep": "JEP", "jersey pound": "JEP",
	"jmd": "JMD", "jamaican dollar": "JMD",
	"jod": "JOD", "jordanian dinar": "JOD",
	"jpy": "JPY", "japanese yen": "JPY", "¥": "JPY",
	"kes": "KES", "kenyan shilling": "KES",
	"kgs": "KGS", "kyrgyzstani som": "KGS",
	"khr": "KHR", "cambodian riel": "KHR",
	"kid": "KID", "kiribati dollar": "KID",
	"kmf": "KMF", "comorian franc": "KMF",
	"krw": "KRW", "south korean won": "KRW",
	"kwd": "KWD", "kuwaiti dinar": "KWD",
	"kyd": "KYD", "cayman islands dollar": "KYD",
	"kzt": "KZT", "kazakhstani tenge": "KZT",
	"lak": "LAK", "lao kip": "LAK",
	"lbp": "LBP", "lebanese pound": "LBP",
	"lkr": "LKR", "sri lanka rupee": "LKR",
	"lrd": "LRD", "liberian dollar": "LRD",
	"lsl": "LSL", "lesotho loti": "LSL",
	"lyd": "LYD", "libyan dinar": "LYD",
	"mad": "MAD", "moroccan dirham": "MAD",
	"mdl": "MDL", "moldovan leu": "MDL",
	"mga": "MGA", "malagasy ariary": "MGA",
	"mkd": "MKD", "macedonian denar": "MKD",
	"mmk": "MMK", "burmese kyat": "MMK",
	"mnt": "MNT", "mongolian tögrög": "MNT",
	"mop": "MOP", "macanese pataca": "MOP",
	"mru": "MRU", "mauritanian ouguiya": "MRU",
	"mur": "MUR", "mauritian rupee": "MUR",
	"mvr": "MVR", "maldivian rufiyaa": "MVR",
	"mwk": "MWK", "malawian kwacha": "MWK",
	"mxn": "MXN", "mexican peso": "MXN",
	"myr": "MYR", "malaysian ringgit": "MYR",
	"mzn": "MZN", "mozambican metical": "MZN",
	"nad": "NAD", "namibian dollar": "NAD",
	"ngn": "NGN", "nigerian naira": "NGN",
	"nio": "NIO", "nicaraguan córdoba": "NIO",
	"nok": "NOK", "norwegian krone": "NOK",
	"npr": "NPR", "nepalese rupee": "NPR",
	"nzd": "NZD", "new zealand dollar": "NZD",
	"omr": "OMR", "omani rial": "OMR",
	"pab": "PAB", "panamanian balboa": "PAB",
	"pen": "PEN", "peruvian sol": "PEN",
	"pgk": "PGK", "papua new guinean kina": "PGK",
	"php": "PHP", "philippine peso": "PHP",
	"pkr": "PKR", "pakistani rupee": "PKR",
	"pln": "PLN", "polish złoty": "PLN",
	"pyg": "PYG", "paraguayan guaraní": "PYG",
	"qar": "QAR", "qatari riyal": "QAR",
	"ron": "RON", "romanian leu": "RON",
	"rsd": "RSD", "serbian dinar": "RSD",
	"rub": "RUB", "russian ruble": "RUB",
	"rwf": "RWF", "rwandan franc": "RWF",
	"sar": "SAR", "saudi riyal": "SAR",
	"sbd": "SBD", "solomon islands dollar": "SBD",
	"scr": "SCR", "seychellois rupee": "SCR",
	"sdg": "SDG", "sudanese pound": "SDG",
	"sek": "SEK", "swedish krona": "SEK",
	"sgd": "SGD", "singapore dollar": "SGD",
	"shp": "SHP", "saint helena pound": "SHP",
	"sle": "SLE", "sierra leonean leone": "SLE",
	"sos": "SOS", "somali shilling": "SOS",
	"srd": "SRD", "surinamese dollar": "SRD",
	"ssp": "SSP", "south sudanese pound": "SSP",
	"stn": "STN", "são tomé and príncipe dobra": "STN",
	"syp": "SYP", "syrian pound": "SYP",
	"szl": "SZL", "eswatini lilangeni": "SZL",
	"thb": "THB", "thai baht": "THB",
	"tjs": "TJS", "tajikistani somoni": "TJS",
	"tmt": "TMT", "turkmenistan manat": "TMT",
	"tnd": "TND", "tunisian dinar": "TND",
	"top": "TOP", "tongan paʻanga": "TOP",
	"try": "TRY", "turkish lira": "TRY",
	"ttd": "TTD", "trinidad and tobago dollar": "TTD",
	"tvd": "TVD", "tuvaluan dollar": "TVD",
	"twd": "TWD", "new taiwan dollar": "TWD",
	"tzs": "TZS", "tanzanian shilling": "TZS",
	"uah": "UAH", "ukrainian hryvnia": "UAH",
	"ugx": "UGX", "ugandan shilling": "UGX",
	"usd": "USD", "united states dollar": "USD",
	"uyu": "UYU", "uruguayan peso": "UYU",
	"uzs": "UZS", "uzbekistani so'm": "UZS",
	"ves": "VES", "venezuelan bolívar soberano": "VES",
	"vnd": "VND", "vietnamese đồng": "VND",
	"vuv": "VUV", "vanuatu vatu": "VUV",
	"wst": "WST", "samoan tālā": "WST",
	"xaf": "XAF", "central african cfa franc": "XAF",
	"xcd": "XCD", "east caribbean dollar": "XCD",
	"xdr": "XDR", "special drawing rights": "XDR",
	"xof": "XOF", "west african cfa franc": "XOF",
	"xpf": "XPF", "cfp franc": "XPF",
	"yer": "YER", "yemeni rial": "YER",
	"zar": "ZAR", "south african rand": "ZAR",
	"zmw": "ZMW", "zambian kwacha": "ZMW",
	"zwl": "ZWL", "zimbabwean dollar": "ZWL",
}

// NormalizeCurrency resolves a currency name or symbol to its ISO code.
func NormalizeCurrency(currency string) (string, bool) {
	code, ok := currencySynonyms[strings.ToLower(strings.TrimSpace(currency))]
	return code, ok
}

// Round rounds x to the given number of decimal places.
func Round(x float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	return math.Round(x*scale) / scale
}

// convertCurrency converts amount between currencies using USD-based rates.
// Returns false when either name is unknown or rates cannot be fetched.
func (c *Converter) convertCurrency(ctx context.Context, amount float64, fromCurrency, toCurrency string) (float64, bool) {
	from, ok := NormalizeCurrency(fromCurrency)
	if !ok {
		c.logger.Error("unknown currency", "currency", fromCurrency)
		return 0, false
	}
	to, ok := NormalizeCurrency(toCurrency)
	if !ok {
		c.logger.Error("unknown currency", "currency", toCurrency)
		return 0, false
	}

	if c.rates == nil {
		return 0, false
	}

	rates, err := c.rates.Rates(ctx)
	if err != nil {
		c.logger.Error("fetching forex rates", "err", err)
		return 0, false
	}

	fromRate, ok := rates[from]
	if !ok || fromRate == 0 {
		return 0, false
	}
	toRate, ok := rates[to]
	if !ok {
		return 0, false
	}

	// Rates are USD based: fromCurrency -> USD -> toCurrency.
	inUSD := amount / fromRate
	return Round(inUSD*toRate, 4), true
}
