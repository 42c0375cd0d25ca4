package report

import (
	"fmt"
	"sync"
)

// Table maps every partition to its check outcomes.
type Table struct {
	mu     sync.RWMutex
	rows   []map[CheckKind]Outcome
	strays []StrayOutcome
}

// NewTable creates a table with one empty row per partition.
func NewTable(numPartitions int) *Table {
	rows := make([]map[CheckKind]Outcome, numPartitions)
	for i := range rows {
		rows[i] = make(map[CheckKind]Outcome, len(Kinds))
	}
	return &Table{rows: rows}
}

// NumPartitions returns the number of rows in the table.
func (t *Table) NumPartitions() int {
	return len(t.rows)
}

// Record stores o for partition. If an outcome of the same kind is already
// present the two are merged: FAIL beats PASS and FAIL details accumulate.
// Outcomes for a partition outside the table are kept as stray failures;
// a stray without a detail is given one naming the valid range.
func (t *Table) Record(partition int, o Outcome) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if partition < 0 || partition >= len(t.rows) {
		o.Status = Fail
		if o.Detail == "" {
			o.Detail = fmt.Sprintf("partition %d is out of range [0, %d)", partition, len(t.rows))
		}
		t.strays = append(t.strays, StrayOutcome{Partition: partition, Outcome: o})
		return
	}

	row := t.rows[partition]
	if prev, ok := row[o.Kind]; ok {
		o = merge(prev, o)
	}
	row[o.Kind] = o
}

// Lookup returns the outcome of kind for partition, if one was recorded.
func (t *Table) Lookup(partition int, kind CheckKind) (Outcome, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if partition < 0 || partition >= len(t.rows) {
		return Outcome{}, false
	}
	o, ok := t.rows[partition][kind]
	return o, ok
}

// FillMissing records a FAIL of kind with detail for every partition that
// has no outcome of that kind yet. It returns the partitions it filled.
func (t *Table) FillMissing(kind CheckKind, detail string) []int {
	t.mu.Lock()
	defer t.mu.Unlock()

	var filled []int
	for p, row := range t.rows {
		if _, ok := row[kind]; ok {
			continue
		}
		row[kind] = Outcome{Kind: kind, Status: Fail, Detail: detail}
		filled = append(filled, p)
	}
	return filled
}

// Strays returns the outcomes recorded for out-of-range partitions, in
// recording order.
func (t *Table) Strays() []StrayOutcome {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]StrayOutcome, len(t.strays))
	copy(out, t.strays)
	return out
}
