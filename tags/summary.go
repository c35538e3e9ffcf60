package tags

import (
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// Summary describes how a newly published list differs from the one it
// replaced, by symbol name in line order.
type Summary struct {
	Added   int
	Removed int
	Total   int
}

// Unchanged reports whether the replacement carried the same symbols.
func (s Summary) Unchanged() bool {
	return s.Added == 0 && s.Removed == 0
}

// Summarize compares the names of two lists line by line. It only feeds
// logging; publishing always replaces the whole list.
func Summarize(old, updated *List) Summary {
	summary := Summary{Total: updated.Len()}

	oldText := joinNames(old)
	newText := joinNames(updated)
	if oldText == newText {
		return summary
	}

	dmp := diffmatchpatch.New()
	chars1, chars2, lineArray := dmp.DiffLinesToChars(oldText, newText)
	diffs := dmp.DiffMain(chars1, chars2, false)
	lineDiffs := dmp.DiffCharsToLines(diffs, lineArray)

	for _, d := range lineDiffs {
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			summary.Added += strings.Count(d.Text, "\n")
		case diffmatchpatch.DiffDelete:
			summary.Removed += strings.Count(d.Text, "\n")
		}
	}
	return summary
}

// joinNames renders one name per line, each newline-terminated so every
// record counts as a full line in the diff.
func joinNames(l *List) string {
	var sb strings.Builder
	for _, name := range l.Names() {
		sb.WriteString(name)
		sb.WriteByte('\n')
	}
	return sb.String()
}
