package offer

import (
	"fmt"
	"strings"
)

// Region is the geographic scope of an offer or a student.
type Region int

const (
	RegionGlobal Region = iota
	RegionEurope
	RegionAsia
	RegionAmericas
)

var regionNames = map[Region]string{
	RegionGlobal:   "GLOBAL",
	RegionEurope:   "EUROPE",
	RegionAsia:     "ASIA",
	RegionAmericas: "AMERICAS",
}

// Valid reports whether r is one of the fixed regions.
func (r Region) Valid() bool {
	_, ok := regionNames[r]
	return ok
}

func (r Region) String() string {
	if name, ok := regionNames[r]; ok {
		return name
	}
	return fmt.Sprintf("Region(%d)", int(r))
}

// MarshalText encodes the region by name.
func (r Region) MarshalText() ([]byte, error) {
	if !r.Valid() {
		return nil, fmt.Errorf("unknown region %d", int(r))
	}
	return []byte(r.String()), nil
}

// UnmarshalText accepts a region name in any case.
func (r *Region) UnmarshalText(text []byte) error {
	parsed, err := ParseRegion(string(text))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// ParseRegion parses a region name.
func ParseRegion(s string) (Region, error) {
	want := strings.ToUpper(strings.TrimSpace(s))
	for r, name := range regionNames {
		if name == want {
			return r, nil
		}
	}
	return 0, fmt.Errorf("unknown region %q", s)
}

// Visible reports whether a student in studentRegion may see and apply to an
// offer scoped to offerRegion.
func Visible(offerRegion, studentRegion Region) bool {
	return offerRegion == RegionGlobal || offerRegion == studentRegion
}
