// Package audit contains the audit trail: the pure change-set filter that
// redacts entity diffs down to an allow-list, the per-resource-type log
// policies, and the recorder that persists events through the transactional
// outbox.
package audit

import (
	"bytes"
	"encoding/json"
	"reflect"
)

// Snapshot is a point-in-time view of an entity's fields.
type Snapshot map[string]any

// AllowList is the ordered set of field names eligible for logging. Order is
// preserved into the resulting ChangeSet for deterministic serialization.
//
// The allow-list is the sole gate against PII leakage: callers must never
// include sensitive field names (credentials, tokens, national IDs, raw
// contact identifiers). The filter performs no semantic PII detection.
type AllowList []string

// FieldChange is a single field-level difference.
type FieldChange struct {
	Field string `json:"field"`
	Old   any    `json:"old"`
	New   any    `json:"new"`
}

// ChangeSet is the filtered, redacted set of field-level differences eligible
// for logging, ordered by allow-list insertion order.
type ChangeSet []FieldChange

// Empty reports whether the change set contains no fields.
func (cs ChangeSet) Empty() bool {
	return len(cs) == 0
}

// Fields returns the field names in the change set, in order.
func (cs ChangeSet) Fields() []string {
	fields := make([]string, len(cs))
	for i, c := range cs {
		fields[i] = c.Field
	}
	return fields
}

// FilterOptions tune the change-set filter.
type FilterOptions struct {
	// OnlyDirty retains only fields whose before/after values differ.
	OnlyDirty bool
}

// DefaultFilterOptions match the common case: log dirty fields only.
func DefaultFilterOptions() FilterOptions {
	return FilterOptions{OnlyDirty: true}
}

// FilterChanges diffs two snapshots and retains only allow-listed fields.
// This is pure domain logic - no I/O, no side effects - and never fails on
// well-formed input; an empty result is not an error.
//
// A field absent from both snapshots is treated as "no change". A field
// present in only one snapshot diffs against nil.
func FilterChanges(before, after Snapshot, allow AllowList, opts FilterOptions) ChangeSet {
	var changes ChangeSet

	for _, field := range allow {
		oldVal, inBefore := before[field]
		newVal, inAfter := after[field]

		if !inBefore && !inAfter {
			continue
		}
		if opts.OnlyDirty && valueEqual(oldVal, newVal) {
			continue
		}
		changes = append(changes, FieldChange{Field: field, Old: oldVal, New: newVal})
	}

	return changes
}

// valueEqual compares by value, not reference. JSON normalization makes
// equivalent representations (e.g. int vs float64 from a decoded payload)
// compare equal; unmarshalable values fall back to deep equality.
func valueEqual(a, b any) bool {
	if a == nil && b == nil {
		return true
	}

	aJSON, errA := json.Marshal(a)
	bJSON, errB := json.Marshal(b)
	if errA != nil || errB != nil {
		return reflect.DeepEqual(a, b)
	}
	return bytes.Equal(aJSON, bJSON)
}
