package genvalue

import (
	"strings"
)

// iso2Countries and iso3Countries are small reference tables used when a
// string column's max length exactly matches a country-code width — this
// is a common schema shape (country_code CHAR(2)/CHAR(3)) worth special-
// casing rather than emitting an arbitrary truncated word.
var iso2Countries = []string{
	"US", "CA", "MX", "GB", "FR", "DE", "ES", "IT", "PT", "NL",
	"BE", "CH", "AT", "SE", "NO", "DK", "FI", "PL", "IE", "GR",
	"JP", "CN", "KR", "IN", "AU", "NZ", "BR", "AR", "CL", "ZA",
}

var iso3Countries = []string{
	"USA", "CAN", "MEX", "GBR", "FRA", "DEU", "ESP", "ITA", "PRT", "NLD",
	"BEL", "CHE", "AUT", "SWE", "NOR", "DNK", "FIN", "POL", "IRL", "GRC",
	"JPN", "CHN", "KOR", "IND", "AUS", "NZL", "BRA", "ARG", "CHL", "ZAF",
}

func (g *Generator) isoCountryCode(letters int) string {
	table := iso2Countries
	if letters == 3 {
		table = iso3Countries
	}
	return table[g.Rand.IntN(len(table))]
}

// ibanLike emits a synthetic "ES"+22-digit identifier, matching the IBAN
// width (24) a CHAR/VARCHAR(24) column commonly declares.
func (g *Generator) ibanLike() string {
	var b strings.Builder
	b.WriteString("ES")
	for i := 0; i < 22; i++ {
		b.WriteByte(byte('0' + g.Rand.IntN(10)))
	}
	return b.String()
}

// stringValue implements the §4.2 step-5 string-generation fallback.
func (g *Generator) stringValue(maxLength int, fixedWidthChar bool) string {
	var s string
	switch maxLength {
	case 2:
		s = g.isoCountryCode(2)
	case 3:
		s = g.isoCountryCode(3)
	case 24:
		s = g.ibanLike()
	default:
		s = g.wordPhrase(maxLength)
	}

	if len(s) > maxLength {
		s = s[:maxLength]
	}
	if fixedWidthChar && len(s) < maxLength {
		s = s + strings.Repeat(" ", maxLength-len(s))
	}
	return s
}

// wordPhrase picks 1-4 whitespace-joined dictionary words when a
// dictionary is loaded (alternating with the faker's lorem 50/50 when both
// a human-language dictionary and the Latin fallback are enabled), or a
// 3..min(maxLen/5,10)-word lorem phrase otherwise.
func (g *Generator) wordPhrase(maxLen int) string {
	useDict := len(g.Words.List) > 0
	if useDict && g.Words.Latin {
		useDict = g.Rand.Float64() < 0.5
	}

	if useDict {
		n := 1 + g.Rand.IntN(4)
		words := make([]string, n)
		for i := range words {
			words[i] = g.Words.List[g.Rand.IntN(len(g.Words.List))]
		}
		return strings.Join(words, " ")
	}

	upper := maxLen / 5
	if upper > 10 {
		upper = 10
	}
	if upper < 3 {
		upper = 3
	}
	n := 3 + g.Rand.IntN(upper-3+1)
	words := make([]string, n)
	for i := range words {
		words[i] = g.Faker.LoremIpsumWord()
	}
	return strings.Join(words, " ")
}
