package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"sort"
)

// LayoutData is the JSONB seating map stored on a venue:
// {"sections": {"Floor": {"rows": {"A": ["1", "2", "3"]}}}}
type LayoutData struct {
	Sections map[string]SectionLayout `json:"sections"`
}

// SectionLayout holds the rows of one section, each row listing its
// seat numbers.
type SectionLayout struct {
	Rows map[string][]SeatNumber `json:"rows"`
}

// SeatNumber is a flexible seat identifier that accepts both JSON strings
// and numbers, since hand-authored layouts use either.
type SeatNumber string

func (n *SeatNumber) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*n = SeatNumber(s)
		return nil
	}
	var num json.Number
	if err := json.Unmarshal(data, &num); err != nil {
		return fmt.Errorf("invalid seat number: %s", string(data))
	}
	*n = SeatNumber(num.String())
	return nil
}

func (n SeatNumber) String() string {
	return string(n)
}

// SeatPosition is one (section, row, number) triple expanded from a layout.
type SeatPosition struct {
	Section    string
	RowLabel   string
	SeatNumber string
}

// Value implements driver.Valuer so the layout can be written to a JSONB column.
func (l LayoutData) Value() (driver.Value, error) {
	return json.Marshal(l)
}

// Scan implements sql.Scanner for reading the layout back from JSONB.
func (l *LayoutData) Scan(src interface{}) error {
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, l)
	case string:
		return json.Unmarshal([]byte(v), l)
	case nil:
		*l = LayoutData{}
		return nil
	default:
		return fmt.Errorf("cannot scan %T into LayoutData", src)
	}
}

// ExpandSeats flattens the layout into the full list of seat positions,
// ordered by section, row, then seat number so regeneration is stable.
func (l *LayoutData) ExpandSeats() []SeatPosition {
	var positions []SeatPosition

	sections := make([]string, 0, len(l.Sections))
	for name := range l.Sections {
		sections = append(sections, name)
	}
	sort.Strings(sections)

	for _, sectionName := range sections {
		section := l.Sections[sectionName]

		rows := make([]string, 0, len(section.Rows))
		for name := range section.Rows {
			rows = append(rows, name)
		}
		sort.Strings(rows)

		for _, rowLabel := range rows {
			for _, num := range section.Rows[rowLabel] {
				positions = append(positions, SeatPosition{
					Section:    sectionName,
					RowLabel:   rowLabel,
					SeatNumber: num.String(),
				})
			}
		}
	}

	return positions
}

// SeatCount returns how many seats the layout defines.
func (l *LayoutData) SeatCount() int {
	count := 0
	for _, section := range l.Sections {
		for _, numbers := range section.Rows {
			count += len(numbers)
		}
	}
	return count
}
