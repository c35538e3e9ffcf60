package tags

import (
	"fmt"
	"sort"
)

// Record is one symbol reported by the tag tool and the line it starts on.
// Line is 1-indexed; 0 means the tool output carried no usable line number.
type Record struct {
	Name string
	Line int
}

// List is an immutable, line-ordered sequence of records for one document.
// Records sharing a line keep the order in which the tool emitted them.
// A nil *List is the empty list.
type List struct {
	records []Record
}

// NewList copies records and sorts the copy by line. The sort is stable so
// equal-line records keep their arrival order.
func NewList(records []Record) *List {
	sorted := make([]Record, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Line < sorted[j].Line
	})
	return &List{records: sorted}
}

// Len returns the number of records.
func (l *List) Len() int {
	if l == nil {
		return 0
	}
	return len(l.records)
}

// At returns the i-th record in line order. Like slice indexing it panics
// when i is out of range, which includes every i for the empty list.
func (l *List) At(i int) Record {
	if i < 0 || i >= l.Len() {
		panic(fmt.Sprintf("tags: index %d out of range for list of length %d", i, l.Len()))
	}
	return l.records[i]
}

// Records returns a copy of the records in line order.
func (l *List) Records() []Record {
	if l == nil {
		return nil
	}
	out := make([]Record, len(l.records))
	copy(out, l.records)
	return out
}

// Names returns the record names in line order.
func (l *List) Names() []string {
	if l == nil {
		return nil
	}
	names := make([]string, len(l.records))
	for i, r := range l.records {
		names[i] = r.Name
	}
	return names
}

// Lookup is shorthand for Lookup(l, line).
func (l *List) Lookup(line int) string {
	return Lookup(l, line)
}
