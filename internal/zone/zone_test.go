package zone

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyDefaultTable(t *testing.T) {
	c := NewClassifier(DefaultTable())
	tests := []struct {
		location string
		want     Name
	}{
		{"Yelahanka New Town", East},
		{"whitefield", East},
		{"ELECTRONIC CITY phase 1", South},
		{"Kengeri Satellite Town", West},
		{"near Mathikere bus stop", North},
		{"Surjapur Road", Central},
		{"Chickpet", NonHiring},
		{"Koramangala", Unknown},
		{"", Unknown},
		{"   ", Unknown},
		// location inside an area name also matches
		{"Hulimavu", South},
		{"Electronic", South},
	}
	for _, tt := range tests {
		t.Run(tt.location, func(t *testing.T) {
			assert.Equal(t, tt.want, c.Classify(tt.location))
		})
	}
}

func TestClassifyFirstZoneWins(t *testing.T) {
	tbl, err := NewTable(
		Zone{Name: "A", Areas: []string{"Bellandur"}},
		Zone{Name: "B", Areas: []string{"Chikka Bellandur"}},
	)
	require.NoError(t, err)
	c := NewClassifier(tbl)
	assert.Equal(t, Name("A"), c.Classify("Chikka Bellandur"))

	tbl, err = NewTable(
		Zone{Name: "B", Areas: []string{"Chikka Bellandur"}},
		Zone{Name: "A", Areas: []string{"Bellandur"}},
	)
	require.NoError(t, err)
	assert.Equal(t, Name("B"), NewClassifier(tbl).Classify("Chikka Bellandur"))
}

func TestClassifyIsDeterministicAndClosed(t *testing.T) {
	tbl := DefaultTable()
	c := NewClassifier(tbl)
	names := map[Name]bool{Unknown: true}
	for _, n := range tbl.Names() {
		names[n] = true
	}
	for _, s := range []string{"Varthur Lake", "xyz", "Cotton Pete market", "Girinagar 2nd stage", "a"} {
		got := c.Classify(s)
		assert.Equal(t, got, c.Classify(s))
		assert.True(t, names[got], "unexpected zone %q", got)
	}
}

func TestNewTableRejectsBadInput(t *testing.T) {
	_, err := NewTable()
	assert.ErrorIs(t, err, ErrEmptyTable)

	_, err = NewTable(Zone{Name: "Unknown", Areas: []string{"x"}})
	assert.ErrorIs(t, err, ErrReservedName)

	_, err = NewTable(Zone{Name: "A", Areas: []string{"x"}}, Zone{Name: "A", Areas: []string{"y"}})
	assert.Error(t, err)

	_, err = NewTable(Zone{Name: "A", Areas: []string{" "}})
	assert.Error(t, err)
}

func TestTableCopiesAreIndependent(t *testing.T) {
	tbl := DefaultTable()
	zs := tbl.Zones()
	zs[0].Areas[0] = "Mutated"
	assert.Equal(t, "Yelahanka", tbl.Zones()[0].Areas[0])
	assert.True(t, tbl.Restricted(NonHiring))
	assert.False(t, tbl.Restricted(East))
}

func TestLoadTable(t *testing.T) {
	doc := `
zones:
  - name: Airport
    coverage: Devanahalli belt
    areas: [Devanahalli, "Trumpet Flyover"]
  - name: Core
    areas:
      - MG Road
`
	tbl, err := LoadTable(strings.NewReader(doc))
	require.NoError(t, err)
	assert.Equal(t, []Name{"Airport", "Core"}, tbl.Names())

	c := NewClassifier(tbl)
	assert.Equal(t, Name("Core"), c.Classify("mg road metro"))
	assert.Equal(t, Unknown, c.Classify("Whitefield"))

	_, err = LoadTable(strings.NewReader("zones:\n  - name: X\n    area: [a]\n"))
	assert.Error(t, err)
}
