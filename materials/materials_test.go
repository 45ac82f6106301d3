package materials

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookupVariantBeatsMaterial(t *testing.T) {
	table := NewTable([]Entry{
		// A: variant matches, material does not.
		{VariantID: "10100000", MaterialID: "OTHER00", Code: "10100", Name: "PLA Basic"},
		// B: material matches, variant does not.
		{VariantID: "99999999", MaterialID: "PLA0000", Code: "99999", Name: "Wrong"},
	})

	entry, ok := table.Lookup("PLA0000", "10100000")
	require.True(t, ok)
	assert.Equal(t, "10100", entry.Code, "variant match must win over material match")
}

func TestLookupMaterialFallback(t *testing.T) {
	table := NewTable([]Entry{
		{VariantID: "20200000", Code: "20200", Name: "PLA Matte"},
		{MaterialID: "PLA0000", Code: "10100", Name: "PLA Basic"},
	})

	entry, ok := table.Lookup("PLA0000", "10100000")
	require.True(t, ok)
	assert.Equal(t, "10100", entry.Code)
}

func TestLookupEmptyKeysDoNotParticipate(t *testing.T) {
	table := NewTable([]Entry{
		{VariantID: "", MaterialID: "", Code: "00000", Name: "Unindexed"},
	})

	// Empty inputs must not match entries with empty keys.
	_, ok := table.Lookup("", "")
	assert.False(t, ok)

	_, ok = table.Lookup("PLA0000", "10100000")
	assert.False(t, ok)
}

func TestLookupMiss(t *testing.T) {
	table := Builtin()
	_, ok := table.Lookup("NOPE000", "NOSUCH00")
	assert.False(t, ok)
}

func TestBuiltinResolvesCommonVariant(t *testing.T) {
	entry, ok := Builtin().Lookup("", "10100000")
	require.True(t, ok)
	assert.Equal(t, "10100", entry.Code)
	assert.Equal(t, "PLA Basic", entry.Name)
}

func TestLoadJSON(t *testing.T) {
	src := `[
		{"code":"10100","name":"PLA Basic","color":"Jade White","variantId":"10100000"},
		{"code":"30100","name":"PETG Basic","materialId":"PETG000"}
	]`

	table, err := LoadJSON(strings.NewReader(src))
	require.NoError(t, err)
	require.Equal(t, 2, table.Len())

	entry, ok := table.Lookup("", "10100000")
	require.True(t, ok)
	assert.Equal(t, "Jade White", entry.Color)

	entry, ok = table.Lookup("PETG000", "")
	require.True(t, ok)
	assert.Equal(t, "30100", entry.Code)
}

func TestLoadJSONRejectsGarbage(t *testing.T) {
	_, err := LoadJSON(strings.NewReader(`{"not":"an array"}`))
	assert.Error(t, err)
}

func TestTableIsImmutable(t *testing.T) {
	entries := []Entry{{VariantID: "10100000", Code: "10100"}}
	table := NewTable(entries)

	entries[0].Code = "mutated"
	got, ok := table.Lookup("", "10100000")
	require.True(t, ok)
	assert.Equal(t, "10100", got.Code)
}
