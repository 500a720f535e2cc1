// Package model defines the core data structures for the accusync detection engine.
package model

import "strings"

// Row is one order line as an ordered map of column name to string value.
// Column order is preserved so that "all remaining columns" scans are deterministic.
type Row struct {
	values map[string]string
	keys   []string
}

// NewRow builds a row from alternating column/value pairs.
// A trailing column without a value is stored as empty.
func NewRow(pairs ...string) Row {
	r := Row{values: make(map[string]string, len(pairs)/2)}
	for i := 0; i < len(pairs); i += 2 {
		value := ""
		if i+1 < len(pairs) {
			value = pairs[i+1]
		}
		r.Set(pairs[i], value)
	}
	return r
}

// Set stores a value, appending the column if it is new.
func (r *Row) Set(column, value string) {
	if r.values == nil {
		r.values = make(map[string]string)
	}
	if _, exists := r.values[column]; !exists {
		r.keys = append(r.keys, column)
	}
	r.values[column] = value
}

// Get returns the raw value of a column.
func (r Row) Get(column string) (string, bool) {
	v, ok := r.values[column]
	return v, ok
}

// Keys returns the columns in insertion order.
func (r Row) Keys() []string {
	keys := make([]string, len(r.keys))
	copy(keys, r.keys)
	return keys
}

// Len returns the number of columns.
func (r Row) Len() int {
	return len(r.keys)
}

// Lookup returns the first non-blank value among the candidate columns,
// together with the column it came from.
func (r Row) Lookup(candidates ...string) (value, column string) {
	for _, c := range candidates {
		if v, ok := r.values[c]; ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v), c
		}
	}
	return "", ""
}

// LookupContaining returns the first non-blank value whose column name contains
// any of the keywords (case-insensitive), scanning columns in row order.
func (r Row) LookupContaining(keywords ...string) (value, column string) {
	for _, c := range r.keys {
		lower := strings.ToLower(c)
		for _, k := range keywords {
			if strings.Contains(lower, strings.ToLower(k)) {
				if v := strings.TrimSpace(r.values[c]); v != "" {
					return v, c
				}
				break
			}
		}
	}
	return "", ""
}
