package zone

import (
	"errors"
	"fmt"
	"strings"
)

// Name identifies a zone from a Table. Unknown is returned when no zone matches.
type Name string

const (
	Unknown   Name = "Unknown"
	NonHiring Name = "Non_Hiring"
	East      Name = "East"
	West      Name = "West"
	North     Name = "North"
	South     Name = "South"
	Central   Name = "Central"
)

type Zone struct {
	Name     Name     `yaml:"name" json:"name"`
	Coverage string   `yaml:"coverage" json:"coverage,omitempty"`
	Areas    []string `yaml:"areas" json:"areas"`
}

var (
	ErrEmptyTable   = errors.New("zone table has no zones")
	ErrReservedName = errors.New("zone name is reserved")
)

// Table is an ordered, read-only set of zones. The first zone whose area
// matches a location wins, so the order is part of its behaviour.
type Table struct {
	zones      []Zone
	lowered    [][]string
	restricted map[Name]bool
}

// NewTable copies zones into a Table. Names must be unique and non-empty
// and every zone needs at least one area.
func NewTable(zones ...Zone) (*Table, error) {
	if len(zones) == 0 {
		return nil, ErrEmptyTable
	}
	t := &Table{
		zones:      make([]Zone, 0, len(zones)),
		lowered:    make([][]string, 0, len(zones)),
		restricted: map[Name]bool{NonHiring: true},
	}
	seen := make(map[Name]struct{}, len(zones))
	for _, z := range zones {
		name := Name(strings.TrimSpace(string(z.Name)))
		switch {
		case name == "":
			return nil, fmt.Errorf("zone %d: empty name", len(t.zones))
		case name == Unknown:
			return nil, fmt.Errorf("zone %q: %w", name, ErrReservedName)
		}
		if _, dup := seen[name]; dup {
			return nil, fmt.Errorf("zone %q: duplicate name", name)
		}
		seen[name] = struct{}{}

		areas := make([]string, 0, len(z.Areas))
		low := make([]string, 0, len(z.Areas))
		for _, a := range z.Areas {
			a = strings.TrimSpace(a)
			if a == "" {
				continue
			}
			areas = append(areas, a)
			low = append(low, strings.ToLower(a))
		}
		if len(areas) == 0 {
			return nil, fmt.Errorf("zone %q: no areas", name)
		}
		t.zones = append(t.zones, Zone{Name: name, Coverage: z.Coverage, Areas: areas})
		t.lowered = append(t.lowered, low)
	}
	return t, nil
}

// Zones returns a copy of the zones in table order.
func (t *Table) Zones() []Zone {
	out := make([]Zone, len(t.zones))
	for i, z := range t.zones {
		z.Areas = append([]string(nil), z.Areas...)
		out[i] = z
	}
	return out
}

func (t *Table) Names() []Name {
	out := make([]Name, len(t.zones))
	for i, z := range t.zones {
		out[i] = z.Name
	}
	return out
}

// Restricted reports whether pickups in the zone fall under the
// non-hiring policy.
func (t *Table) Restricted(n Name) bool { return t.restricted[n] }

// Classifier maps free-text locations to zones of a single Table.
type Classifier struct {
	table *Table
}

func NewClassifier(t *Table) *Classifier {
	return &Classifier{table: t}
}

func (c *Classifier) Table() *Table { return c.table }

// Classify returns the first zone with an area that is a substring of
// location, or that location is a substring of, ignoring case.
// Blank input is Unknown.
func (c *Classifier) Classify(location string) Name {
	loc := strings.ToLower(strings.TrimSpace(location))
	if loc == "" {
		return Unknown
	}
	for i, areas := range c.table.lowered {
		for _, area := range areas {
			if strings.Contains(loc, area) || strings.Contains(area, loc) {
				return c.table.zones[i].Name
			}
		}
	}
	return Unknown
}
