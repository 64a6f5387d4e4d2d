// Package extract pulls GMV amounts and stream durations out of raw
// OCR text with ordered pattern cascades. The OCR output for livestream
// dashboards is noisy, so every pattern tolerates spacing and casing
// variations and suspicious matches fall through to the next rule.
package extract

import (
	"regexp"
	"strconv"
	"strings"
)

// misreads maps common OCR confusions of the GMV label back to GMV.
var misreads = strings.NewReplacer(
	"BMV", "GMV",
	"GMY", "GMV",
	"GMW", "GMV",
)

var (
	collapseRe = regexp.MustCompile(`\s+`)

	// The labelled rules require the RP currency marker after the label,
	// with only non-letter noise in between. Bare numbers near a GMV
	// label are usually viewer counts or timestamps, not money.
	// The amount token carries thousand dots, a decimal comma and an
	// optional K suffix, e.g. "1.234.567", "5K", "12,5K".
	gmvLangsungRe = regexp.MustCompile(`GMV\s*LANGSUNG[^A-Z]*RP\s*([\d.,K]+)`)
	gmvRe         = regexp.MustCompile(`GMV[^A-Z]*RP\s*([\d.,K]+)`)
	rupiahRe      = regexp.MustCompile(`RP\s*([\d.,K]+)`)
)

// gmvRule is one step of the extraction cascade. Rules run in order and
// the first rule producing a positive amount wins.
type gmvRule struct {
	name  string
	apply func(text string) (float64, bool)
}

var gmvRules = []gmvRule{
	{name: "gmv_langsung", apply: firstMatch(gmvLangsungRe)},
	{name: "gmv", apply: firstMatch(gmvRe)},
	{name: "max_rupiah", apply: maxRupiah},
}

// GMV returns the best GMV amount found in raw OCR text, in Rupiah.
// It returns 0 when no rule matches.
func GMV(raw string) float64 {
	text := normalize(raw)
	for _, rule := range gmvRules {
		if amount, ok := rule.apply(text); ok {
			return amount
		}
	}
	return 0
}

// normalize uppercases, fixes known label misreads and collapses all
// whitespace so the patterns can assume single spaces.
func normalize(raw string) string {
	text := strings.ToUpper(raw)
	text = misreads.Replace(text)
	return collapseRe.ReplaceAllString(text, " ")
}

func firstMatch(re *regexp.Regexp) func(string) (float64, bool) {
	return func(text string) (float64, bool) {
		m := re.FindStringSubmatch(text)
		if m == nil {
			return 0, false
		}
		amount, ok := parseAmount(m[1])
		return amount, ok && amount > 0
	}
}

// maxRupiah takes the largest of all "RP <amount>" occurrences. The
// dashboard shows several Rupiah figures and GMV is reliably the biggest.
func maxRupiah(text string) (float64, bool) {
	var best float64
	for _, m := range rupiahRe.FindAllStringSubmatch(text, -1) {
		if amount, ok := parseAmount(m[1]); ok && amount > best {
			best = amount
		}
	}
	return best, best > 0
}

// parseAmount converts an Indonesian formatted number token. Dots are
// thousand separators, a comma is the decimal mark and a trailing K
// multiplies by a thousand.
func parseAmount(token string) (float64, bool) {
	token = strings.TrimSpace(token)
	if token == "" {
		return 0, false
	}

	factor := 1.0
	if strings.HasSuffix(token, "K") {
		factor = 1000
		token = strings.TrimSuffix(token, "K")
	}
	token = strings.ReplaceAll(token, ".", "")
	token = strings.ReplaceAll(token, ",", ".")

	value, err := strconv.ParseFloat(token, 64)
	if err != nil {
		return 0, false
	}
	return value * factor, true
}
