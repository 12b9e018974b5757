package rag

import (
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"
)

var disallowedChars = regexp.MustCompile(`[^a-záéíóúñüA-ZÁÉÍÓÚÑÜ0-9\s.,¿?¡!]`)

// CleanQuery NFC-normalizes a query, strips emoji and special characters
// (accents, ñ and Spanish punctuation are kept) and collapses whitespace.
func CleanQuery(query string) string {
	query = norm.NFC.String(query)
	query = disallowedChars.ReplaceAllString(query, "")
	return strings.Join(strings.Fields(query), " ")
}

var numberWords = map[string]int{
	"uno": 1, "una": 1, "dos": 2, "tres": 3, "cuatro": 4, "cinco": 5,
	"seis": 6, "siete": 7, "ocho": 8, "nueve": 9, "diez": 10,
	"once": 11, "doce": 12, "trece": 13, "catorce": 14, "quince": 15,
	"dieciseis": 16, "dieciséis": 16, "diecisiete": 17, "dieciocho": 18,
	"diecinueve": 19, "veinte": 20,
}

const numberExpr = `\d+|uno|una|dos|tres|cuatro|cinco|seis|siete|ocho|nueve|diez|once|doce|trece|catorce|quince|diecis[eé]is|diecisiete|dieciocho|diecinueve|veinte`

var (
	articlePattern = regexp.MustCompile(`(?i)\b(?:art[ií]culo|art\.)\s*(\d+)`)

	rangePattern = regexp.MustCompile(`(?i)\bart[ií]culos\s+(?:del?\s+)?(\d+)\s+(?:al|a|hasta(?:\s+el)?|y)\s+(\d+)`)

	firstNPattern = regexp.MustCompile(`(?i)\b(?:(` + numberExpr + `)\s+)?primer(os|o)?\s+(?:(` + numberExpr + `)\s+)?art[ií]culos?\b`)

	listPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\bcu[aá]les\s+son\s+(?:los\s+)?art[ií]culos`),
		regexp.MustCompile(`(?i)\bqu[eé]\s+art[ií]culos`),
		regexp.MustCompile(`(?i)\btodos\s+los\s+art[ií]culos`),
		regexp.MustCompile(`(?i)\b(?:mu[eé]strame|muestra|lista|listar|enumera|dame)\s+(?:todos\s+)?(?:los\s+)?art[ií]culos`),
		regexp.MustCompile(`(?i)\bart[ií]culos\s+(?:que\s+hablan|que\s+tratan|sobre|relacionados|acerca)`),
	}
)

type intentKind int

const (
	intentOpen intentKind = iota
	intentArticle
	intentFirstN
	intentRange
	intentList
)

// intent is the classification of a cleaned query.
type intent struct {
	kind   intentKind
	number string
	count  int
	from   int
	to     int
}

// classify decides how a cleaned query is answered. Positional listings are
// checked before article numbers so "artículos del 5 al 12" is not read as
// article 5.
func classify(query string) intent {
	if m := rangePattern.FindStringSubmatch(query); m != nil {
		from, errFrom := strconv.Atoi(m[1])
		to, errTo := strconv.Atoi(m[2])
		if errFrom == nil && errTo == nil {
			return intent{kind: intentRange, from: from, to: to}
		}
	}
	if m := firstNPattern.FindStringSubmatch(query); m != nil {
		count := parseCount(m[1])
		if count == 0 {
			count = parseCount(m[3])
		}
		if count == 0 {
			count = defaultListCount
			if strings.EqualFold(m[2], "o") || m[2] == "" {
				count = 1
			}
		}
		return intent{kind: intentFirstN, count: count}
	}
	if m := articlePattern.FindStringSubmatch(query); m != nil {
		return intent{kind: intentArticle, number: m[1]}
	}
	for _, p := range listPatterns {
		if p.MatchString(query) {
			return intent{kind: intentList}
		}
	}
	return intent{kind: intentOpen}
}

func parseCount(s string) int {
	if s == "" {
		return 0
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return numberWords[strings.ToLower(s)]
}
