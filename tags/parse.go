package tags

import (
	"strconv"
	"strings"
)

// lineField is the index of the ex-command field in ctags output. With -n
// ctags writes the line number there, e.g. `42;"`.
const lineField = 2

// pseudoTagPrefix marks ctags metadata lines such as !_TAG_FILE_FORMAT.
const pseudoTagPrefix = "!_"

// Parse converts one line of tool output into a Record.
//
// Layout: name<TAB>file<TAB>excmd;"<TAB>kind<TAB>... The name is everything
// before the first tab and the line is the first run of digits in the
// ex-command field. Parse never fails: a malformed line yields a record with
// line 0 (and an empty name when the line starts with a tab), which sorts
// first and never matches a real cursor line.
func Parse(raw string) Record {
	raw = strings.TrimRight(raw, "\r\n")

	fields := strings.SplitN(raw, "\t", lineField+2)
	record := Record{Name: fields[0]}
	if len(fields) > lineField {
		record.Line = firstNumber(fields[lineField])
	}
	return record
}

// IsPseudoTag reports whether raw is a ctags pseudo tag rather than a symbol.
func IsPseudoTag(raw string) bool {
	return strings.HasPrefix(raw, pseudoTagPrefix)
}

// firstNumber returns the first maximal run of ASCII digits in s, or 0.
func firstNumber(s string) int {
	start := strings.IndexFunc(s, isDigit)
	if start < 0 {
		return 0
	}
	end := start
	for end < len(s) && isDigit(rune(s[end])) {
		end++
	}
	n, err := strconv.Atoi(s[start:end])
	if err != nil {
		// overflow
		return 0
	}
	return n
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}
