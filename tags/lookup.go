package tags

// Lookup returns the name of the symbol enclosing cursorLine: the last record
// starting at or before that line. It returns "" when the list is empty or
// the cursor is above the first record.
func Lookup(l *List, cursorLine int) string {
	if l == nil {
		return ""
	}
	name := ""
	for _, r := range l.records {
		if r.Line > cursorLine {
			break
		}
		name = r.Name
	}
	return name
}
