package parser

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Verbal numbers that may precede a "thousand" word: 0-19, tens to 90,
// hundreds to 900.
var russianNumbers = map[string]int64{
	"ноль": 0, "один": 1, "два": 2, "три": 3, "четыре": 4, "пять": 5,
	"шесть": 6, "семь": 7, "восемь": 8, "девять": 9, "десять": 10,
	"одиннадцать": 11, "двенадцать": 12, "тринадцать": 13, "четырнадцать": 14,
	"пятнадцать": 15, "шестнадцать": 16, "семнадцать": 17, "восемнадцать": 18,
	"девятнадцать": 19, "двадцать": 20, "тридцать": 30, "сорок": 40,
	"пятьдесят": 50, "шестьдесят": 60, "семьдесят": 70, "восемьдесят": 80,
	"девяносто": 90, "сто": 100, "двести": 200, "триста": 300, "четыреста": 400,
	"пятьсот": 500, "шестьсот": 600, "семьсот": 700, "восемьсот": 800,
	"девятьсот": 900,
}

var thousandWords = map[string]struct{}{
	"тысяч": {}, "тысячи": {}, "тысяча": {},
}

var (
	// Digits (optionally split by one space/comma/period/NBSP group)
	// directly followed by a declined "thousand" word.
	digitThousandsRe = regexp.MustCompile(`([0-9]+(?:[ ,.\x{00A0}][0-9]+)?)\s*(тысяч|тысячи|тысяча)`)

	// Grouped integers like "1 000", "5,000", "1.000.000" with an optional
	// decimal fraction, or a plain decimal number. The grouped alternative
	// requires at least one separator group so an ungrouped run such as
	// "1456" is captured whole by the second alternative.
	numeralRe = regexp.MustCompile(`([0-9]{1,3}(?:[ ,.\x{00A0}][0-9]{3})+(?:[.,][0-9]+)?|[0-9]+(?:[.,][0-9]+)?)`)

	separatorReplacer = strings.NewReplacer(" ", "", ",", "", "\u00A0", "", ".", "")
)

// ExtractAmount parses a normalized text string into a decimal amount.
// Extraction stages run in strict priority order, first success wins:
// digits+"тысяч", verbal number+"тысяч", then a plain numeral. ok is false
// when no stage succeeds; the caller must treat that as a hard parse
// failure.
func ExtractAmount(text string) (decimal.Decimal, bool) {
	if amount, ok := extractDigitThousands(text); ok {
		return amount, true
	}
	if amount, ok := extractVerbalThousands(text); ok {
		return amount, true
	}
	return extractNumeral(text)
}

func extractDigitThousands(text string) (decimal.Decimal, bool) {
	m := digitThousandsRe.FindStringSubmatch(text)
	if m == nil {
		return decimal.Decimal{}, false
	}
	base, err := strconv.ParseInt(separatorReplacer.Replace(m[1]), 10, 64)
	if err != nil {
		return decimal.Decimal{}, false
	}
	return decimal.NewFromInt(base * 1000), true
}

func extractVerbalThousands(text string) (decimal.Decimal, bool) {
	// Scan word pairs: a number word immediately followed by a "thousand"
	// word. Tokens are trimmed of stray punctuation from transcription.
	fields := strings.Fields(text)
	for i := 0; i+1 < len(fields); i++ {
		word := strings.Trim(fields[i], ",.!?;:")
		next := strings.Trim(fields[i+1], ",.!?;:")
		value, isNumber := russianNumbers[word]
		if !isNumber {
			continue
		}
		if _, isThousand := thousandWords[next]; isThousand {
			return decimal.NewFromInt(value * 1000), true
		}
	}
	return decimal.Decimal{}, false
}

func extractNumeral(text string) (decimal.Decimal, bool) {
	m := numeralRe.FindString(text)
	if m == "" {
		return decimal.Decimal{}, false
	}

	s := strings.ReplaceAll(m, " ", "")
	s = strings.ReplaceAll(s, "\u00A0", "")

	// A comma is a decimal point when 1-2 digits follow the last one,
	// otherwise every comma is a thousands separator and is dropped.
	if strings.Contains(s, ",") {
		parts := strings.Split(s, ",")
		if len(parts) == 2 && len(parts[1]) <= 2 {
			s = parts[0] + "." + parts[1]
		} else {
			s = strings.Join(parts, "")
		}
	}

	amount, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, false
	}
	return amount, true
}
