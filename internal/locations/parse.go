package locations

import "strings"

const (
	defaultCountry = "USA"
	canadaCountry  = "Canada"
	// bcToken is the only state token that implies a non-US default country.
	bcToken = "BC"
)

// Place is a parsed "City, State[, Country]" string.
type Place struct {
	City    string
	State   string // normalized full name, empty when absent
	Country string
}

// ParsePlace splits a location string on commas and fills in the default
// country when none is given.
func ParsePlace(location string) Place {
	parts := strings.Split(location, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}

	var p Place
	p.City = parts[0]

	rawState := ""
	if len(parts) > 1 {
		rawState = parts[1]
	}

	if len(parts) > 2 && parts[2] != "" {
		p.Country = parts[2]
	} else if rawState == bcToken {
		p.Country = canadaCountry
	} else {
		p.Country = defaultCountry
	}

	if rawState != "" {
		p.State = NormalizeState(rawState)
	}
	return p
}

// CountryKey is the id of the country node.
func (p Place) CountryKey() string { return p.Country }

// StateKey is the id of the state node, or "" when the place has no state.
func (p Place) StateKey() string {
	if p.State == "" {
		return ""
	}
	return p.State + ", " + p.Country
}

// CityKey is the id of the city node, or "" when the place has no city.
func (p Place) CityKey() string {
	if p.City == "" {
		return ""
	}
	parent := p.StateKey()
	if parent == "" {
		parent = p.CountryKey()
	}
	return p.City + ", " + parent
}
