// Package materials maps decoded tag identifiers to friendly filament
// descriptors.
//
// Lookup runs in two passes: an exact match on variant id first, then an
// exact match on material id. The variant id is the more specific key, so
// a variant match always wins over a material match. Entries with an
// empty variant or material id simply do not participate in that pass.
package materials

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// Entry is one immutable material descriptor. The JSON shape matches the
// store index records the append service accepts.
type Entry struct {
	VariantID  string `json:"variantId,omitempty"`
	MaterialID string `json:"materialId,omitempty"`
	Code       string `json:"code"`
	Name       string `json:"name"`
	Color      string `json:"color,omitempty"`
}

// Table is an immutable material lookup table, loaded once at startup.
type Table struct {
	entries []Entry
}

// NewTable creates a table from the given entries. The slice is copied;
// the table never mutates after construction.
func NewTable(entries []Entry) *Table {
	t := &Table{entries: make([]Entry, len(entries))}
	copy(t.entries, entries)
	return t
}

// Len returns the number of entries.
func (t *Table) Len() int {
	return len(t.entries)
}

// Entries returns a copy of the table contents.
func (t *Table) Entries() []Entry {
	out := make([]Entry, len(t.entries))
	copy(out, t.entries)
	return out
}

// Lookup resolves a decoded (materialID, variantID) pair. Variant match
// takes priority over material match. Not-found is not an error; the
// caller records the unresolved sentinel and continues.
func (t *Table) Lookup(materialID, variantID string) (Entry, bool) {
	if variantID != "" {
		for _, e := range t.entries {
			if e.VariantID != "" && e.VariantID == variantID {
				return e, true
			}
		}
	}
	if materialID != "" {
		for _, e := range t.entries {
			if e.MaterialID != "" && e.MaterialID == materialID {
				return e, true
			}
		}
	}
	return Entry{}, false
}

// LoadJSON reads a JSON array of entries, the same shape the original
// store index export uses.
func LoadJSON(r io.Reader) (*Table, error) {
	var entries []Entry
	if err := json.NewDecoder(r).Decode(&entries); err != nil {
		return nil, fmt.Errorf("failed to decode materials JSON: %w", err)
	}
	return NewTable(entries), nil
}

// LoadFile reads a JSON entry file from disk.
func LoadFile(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open materials file: %w", err)
	}
	defer f.Close()
	return LoadJSON(f)
}

// Builtin returns the compiled-in table covering the common spool
// variants, used when no materials file is configured.
func Builtin() *Table {
	return NewTable(builtinEntries)
}

var builtinEntries = []Entry{
	{VariantID: "10100000", Code: "10100", Name: "PLA Basic", Color: "Jade White"},
	{VariantID: "10101000", Code: "10101", Name: "PLA Basic", Color: "Black"},
	{VariantID: "10102000", Code: "10102", Name: "PLA Basic", Color: "Silver"},
	{VariantID: "10103000", Code: "10103", Name: "PLA Basic", Color: "Bambu Green"},
	{VariantID: "10200000", Code: "10200", Name: "PLA Matte", Color: "Ivory White"},
	{VariantID: "10201000", Code: "10201", Name: "PLA Matte", Color: "Charcoal"},
	{VariantID: "11100000", Code: "11100", Name: "PLA Silk", Color: "Gold"},
	{VariantID: "13000000", Code: "13000", Name: "PLA-CF", Color: "Black"},
	{VariantID: "30100000", Code: "30100", Name: "PETG Basic", Color: "Clear"},
	{VariantID: "30101000", Code: "30101", Name: "PETG Basic", Color: "Black"},
	{VariantID: "31000000", Code: "31000", Name: "PETG-CF", Color: "Black"},
	{VariantID: "40100000", Code: "40100", Name: "ABS", Color: "White"},
	{VariantID: "50100000", Code: "50100", Name: "TPU 95A", Color: "Black"},
	{VariantID: "60100000", Code: "60100", Name: "PA-CF", Color: "Black"},
	{VariantID: "70100000", Code: "70100", Name: "ASA", Color: "White"},
	{VariantID: "80100000", Code: "80100", Name: "PC", Color: "Transparent"},

	// Material-id fallbacks for tags whose variant field predates the
	// variant index.
	{MaterialID: "PLA0000", Code: "10100", Name: "PLA Basic"},
	{MaterialID: "PETG000", Code: "30100", Name: "PETG Basic"},
	{MaterialID: "ABS0000", Code: "40100", Name: "ABS"},
	{MaterialID: "TPU0000", Code: "50100", Name: "TPU 95A"},
}
