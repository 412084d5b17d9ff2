package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLayoutDataUnmarshalMixedSeatNumbers(t *testing.T) {
	// Hand-authored layouts mix quoted and bare seat numbers.
	raw := `{"sections": {"Floor": {"rows": {"A": ["1", 2, "3"], "B": [10]}}}}`

	var layout LayoutData
	require.NoError(t, json.Unmarshal([]byte(raw), &layout))

	floor := layout.Sections["Floor"]
	assert.Equal(t, []SeatNumber{"1", "2", "3"}, floor.Rows["A"])
	assert.Equal(t, []SeatNumber{"10"}, floor.Rows["B"])
}

func TestLayoutDataExpandSeatsStableOrder(t *testing.T) {
	raw := `{"sections": {
		"Balcony": {"rows": {"A": ["1", "2"]}},
		"Floor":   {"rows": {"B": ["5"], "A": ["1"]}}
	}}`

	var layout LayoutData
	require.NoError(t, json.Unmarshal([]byte(raw), &layout))

	positions := layout.ExpandSeats()
	require.Len(t, positions, 4)

	assert.Equal(t, SeatPosition{"Balcony", "A", "1"}, positions[0])
	assert.Equal(t, SeatPosition{"Balcony", "A", "2"}, positions[1])
	assert.Equal(t, SeatPosition{"Floor", "A", "1"}, positions[2])
	assert.Equal(t, SeatPosition{"Floor", "B", "5"}, positions[3])
}

func TestLayoutDataSeatCount(t *testing.T) {
	layout := LayoutData{Sections: map[string]SectionLayout{
		"Floor":   {Rows: map[string][]SeatNumber{"A": {"1", "2", "3"}}},
		"Balcony": {Rows: map[string][]SeatNumber{"A": {"1"}, "B": {"1", "2"}}},
	}}

	assert.Equal(t, 6, layout.SeatCount())
	assert.Len(t, layout.ExpandSeats(), 6)
}

func TestLayoutDataScanRoundTrip(t *testing.T) {
	original := LayoutData{Sections: map[string]SectionLayout{
		"Floor": {Rows: map[string][]SeatNumber{"A": {"1", "2"}}},
	}}

	value, err := original.Value()
	require.NoError(t, err)

	var restored LayoutData
	require.NoError(t, restored.Scan(value))
	assert.Equal(t, original, restored)

	var empty LayoutData
	require.NoError(t, empty.Scan(nil))
	assert.Nil(t, empty.Sections)
}
