package domain

import (
	"encoding/json"
)

// NullDisplay is how text renderings show a null cell.
const NullDisplay = "—"

// ColumnKind tells display and export code how to treat a column's values.
type ColumnKind string

const (
	ColumnText     ColumnKind = "text"
	ColumnDate     ColumnKind = "date"
	ColumnInteger  ColumnKind = "integer"
	ColumnDecimal  ColumnKind = "decimal"
	ColumnPercent  ColumnKind = "percent"
	ColumnAmount   ColumnKind = "amount"
	ColumnDuration ColumnKind = "duration"
)

// Column is one entry of a table schema.
type Column struct {
	Name string     `json:"name"`
	Kind ColumnKind `json:"kind"`
}

// Cell is a display value. An invalid cell is null and marshals to JSON null.
type Cell struct {
	Value string
	Valid bool
}

// TextCell returns a valid cell holding v.
func TextCell(v string) Cell {
	return Cell{Value: v, Valid: true}
}

// NullCell returns a null cell.
func NullCell() Cell {
	return Cell{}
}

// String renders the cell for plain-text output.
func (c Cell) String() string {
	if !c.Valid {
		return NullDisplay
	}
	return c.Value
}

// MarshalJSON implements json.Marshaler
func (c Cell) MarshalJSON() ([]byte, error) {
	if !c.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(c.Value)
}

// UnmarshalJSON implements json.Unmarshaler
func (c *Cell) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*c = Cell{}
		return nil
	}
	var v string
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*c = Cell{Value: v, Valid: true}
	return nil
}

// Table is a formatted, display-ready table.
type Table struct {
	Name            string   `json:"name"`
	Title           string   `json:"title"`
	Columns         []Column `json:"columns"`
	Rows            [][]Cell `json:"rows"`
	NoData          bool     `json:"no_data"`
	PercentDecimals int      `json:"percent_decimals"`
}

// ColumnIndex returns the position of the named column or -1.
func (t *Table) ColumnIndex(name string) int {
	for i, c := range t.Columns {
		if c.Name == name {
			return i
		}
	}
	return -1
}

// NamedTableSet is an ordered collection of tables addressed by name.
type NamedTableSet struct {
	Tables []Table `json:"tables"`
}

// Add appends a table to the set.
func (s *NamedTableSet) Add(t Table) {
	s.Tables = append(s.Tables, t)
}

// Get returns the table with the given name.
func (s *NamedTableSet) Get(name string) (*Table, bool) {
	for i := range s.Tables {
		if s.Tables[i].Name == name {
			return &s.Tables[i], true
		}
	}
	return nil, false
}

// Names lists table names in order.
func (s *NamedTableSet) Names() []string {
	names := make([]string, 0, len(s.Tables))
	for _, t := range s.Tables {
		names = append(names, t.Name)
	}
	return names
}

// Len returns the number of tables.
func (s *NamedTableSet) Len() int {
	return len(s.Tables)
}

// HasData reports whether at least one table has rows.
func (s *NamedTableSet) HasData() bool {
	for _, t := range s.Tables {
		if !t.NoData && len(t.Rows) > 0 {
			return true
		}
	}
	return false
}
