package value

import (
	"math"
	"sort"
	"strings"
	"unicode"

	"github.com/antzucaro/matchr"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// foldTransform strips accents and case so that "Mohammed" and "Muhammad"
// style variance doesn't dominate the score before the fuzzy comparator
// even runs.
var foldTransform = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

func simplify(s string) string {
	folded, _, err := transform.String(foldTransform, s)
	if err != nil {
		folded = s
	}
	return strings.ToLower(strings.TrimSpace(folded))
}

func tokenSort(s string) string {
	fields := strings.Fields(s)
	sort.Strings(fields)
	return strings.Join(fields, " ")
}

// FuzzyMatchStrings is the exported form of fuzzyMatchStrings, used by the
// reconciliation engine's synthetic all_labels constraint, which compares
// a query string directly against an entity's raw label/alias strings
// rather than against a typed Value.
func FuzzyMatchStrings(ref, val string) int {
	return fuzzyMatchStrings(ref, val)
}

// fuzzyMatchStrings scores how well val matches ref on a 0-100 scale using
// a token-sort-order Jaro-Winkler comparison. JaroWinkler(a, b) is already
// symmetric in both its arguments, so unlike a naive "compare both
// directions and reuse the first result" shortcut, swapping ref and val
// here always produces the same score.
func fuzzyMatchStrings(ref, val string) int {
	if ref == "" || val == "" {
		return 0
	}
	if refQid, ok := ParseQid(ref); ok {
		if valQid, ok := ParseQid(val); ok {
			if refQid == valQid {
				return 100
			}
			return 0
		}
	}
	a := tokenSort(simplify(ref))
	b := tokenSort(simplify(val))
	if a == b {
		return 100
	}
	score := matchr.JaroWinkler(a, b, true)
	return int(math.Round(score * 100))
}

// matchFloats scores two numbers on a 0-100 scale: identical values score
// 100, and the score decays smoothly as the absolute difference grows,
// using an arctangent of the log difference so that small absolute gaps
// between large numbers aren't penalized as harshly as the same gap
// between small numbers.
func matchFloats(ref, val float64) int {
	diff := math.Abs(ref - val)
	if diff == 0 {
		return 100
	}
	score := 100 * (math.Atan(-math.Log(diff))/math.Pi + 0.5)
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	return int(math.Round(score))
}

// matchInts scores two integers: exact match is 100, anything else is 0.
func matchInts(ref, val int64) int {
	if ref == val {
		return 100
	}
	return 0
}

// earthRadiusKm is used for the flat-earth approximation below; over the
// short distances this scoring needs to discriminate, treating degrees as
// locally flat and scaling by the earth's radius is accurate enough.
const earthRadiusKm = 6371.0

// matchCoords scores two lat/lng pairs: identical coordinates score 100,
// decaying linearly to 0 at a one kilometer separation.
func matchCoords(lat1, lng1, lat2, lng2 float64) int {
	dLat := lat1 - lat2
	dLng := lng1 - lng2
	distKm := math.Sqrt(dLat*dLat+dLng*dLng) * math.Pi / 180 * earthRadiusKm
	score := 100 * (1 - distKm)
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	return int(math.Round(score))
}
