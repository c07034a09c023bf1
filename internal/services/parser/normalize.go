package parser

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/edumoraes/blingsync/internal/models"
)

// Dimension bounds in centimeters. Values outside are clamped with a warning.
const (
	MinDimensionCM = 0.5
	MaxDimensionCM = 200.0
)

// ShortDescriptionLimit caps the plain-text description sent upstream.
const ShortDescriptionLimit = 255

var (
	nonDigitsRe = regexp.MustCompile(`\D+`)
	spacesRe    = regexp.MustCompile(`\s+`)

	// Brazilian-format number with dot thousands and comma decimals,
	// e.g. "1.234,56".
	thousandsRe = regexp.MustCompile(`^\d{1,3}(\.\d{3})+,\d+$`)

	intRe = regexp.MustCompile(`^\d+$`)

	styleRe   = regexp.MustCompile(`(?is)<style.*?</style>`)
	scriptRe  = regexp.MustCompile(`(?is)<script.*?</script>`)
	htmlTagRe = regexp.MustCompile(`<[^>]+>`)

	httpURLRe = regexp.MustCompile(`(?i)^https?://`)
)

// digitsOnly strips everything that is not a decimal digit.
func digitsOnly(s string) string {
	return nonDigitsRe.ReplaceAllString(s, "")
}

// parseDecimal parses a locale-aware decimal: comma as decimal separator,
// dot as thousands separator. Plain dot-decimal input is accepted too.
func parseDecimal(s string) (float64, bool) {
	clean := spacesRe.ReplaceAllString(s, "")
	if clean == "" {
		return 0, false
	}
	if thousandsRe.MatchString(clean) {
		clean = strings.ReplaceAll(clean, ".", "")
	}
	clean = strings.Replace(clean, ",", ".", 1)

	n, err := strconv.ParseFloat(clean, 64)
	if err != nil || math.IsInf(n, 0) || math.IsNaN(n) {
		return 0, false
	}
	return n, true
}

// parseIntStrict accepts digits-only input.
func parseIntStrict(s string) (int, bool) {
	if !intRe.MatchString(s) {
		return 0, false
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}

// roundUpTenth rounds up to one decimal place. Rounding down is the unsafe
// direction for shipping weights, so up is the only rounding used. The
// epsilon keeps values already on a tenth from being pushed to the next one
// by float noise.
func roundUpTenth(v float64) float64 {
	return math.Ceil(v*10-1e-9) / 10
}

// clampDimension clamps v into the allowed range and rounds up to one
// decimal. The second return reports whether clamping occurred.
func clampDimension(v float64) (float64, bool) {
	clamped := false
	if v < MinDimensionCM {
		v = MinDimensionCM
		clamped = true
	} else if v > MaxDimensionCM {
		v = MaxDimensionCM
		clamped = true
	}
	return roundUpTenth(v), clamped
}

// stripHTML reduces an HTML fragment to plain text with collapsed spacing.
func stripHTML(s string) string {
	s = styleRe.ReplaceAllString(s, " ")
	s = scriptRe.ReplaceAllString(s, " ")
	s = htmlTagRe.ReplaceAllString(s, " ")
	s = spacesRe.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// truncate caps s at max bytes on a rune boundary.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	runes := []rune(s)
	out := make([]rune, 0, len(runes))
	size := 0
	for _, r := range runes {
		size += len(string(r))
		if size > max {
			break
		}
		out = append(out, r)
	}
	return string(out)
}

// parseStatus maps free text onto the two-state enum by prefix match on
// the localized words. Unrecognized text yields no status at all rather
// than a default.
func parseStatus(s string) (models.Status, bool) {
	t := strings.ToLower(strings.TrimSpace(s))
	switch {
	case t == "a", strings.HasPrefix(t, "ati"):
		return models.StatusActive, true
	case t == "i", strings.HasPrefix(t, "ina"):
		return models.StatusInactive, true
	default:
		return "", false
	}
}

// statusCode renders a status in the canonical single-letter BN form.
func statusCode(st models.Status) string {
	if st == models.StatusActive {
		return "A"
	}
	return "I"
}

// normalizeID attempts a digits-only identifier, keeping the original when
// the value is genuinely non-numeric.
func normalizeID(s string) string {
	id := strings.TrimSpace(s)
	stripped := strings.NewReplacer(" ", "", ".", "", ",", "").Replace(id)
	if stripped != "" && intRe.MatchString(stripped) {
		return stripped
	}
	return id
}

// isHTTPURL reports whether u is an absolute http or https URL.
func isHTTPURL(u string) bool {
	return httpURLRe.MatchString(u)
}

// formatFloat renders a number for the canonical cleaned line.
func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
