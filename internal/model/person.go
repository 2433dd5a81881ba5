package model

import "fmt"

// Coordinates is a [longitude, latitude] pair in decimal degrees.
type Coordinates [2]float64

// Lon returns the longitude.
func (c Coordinates) Lon() float64 { return c[0] }

// Lat returns the latitude.
func (c Coordinates) Lat() float64 { return c[1] }

func (c Coordinates) String() string {
	return fmt.Sprintf("[%.4f, %.4f]", c[0], c[1])
}

// Person is one entry of the roster. Coordinates stay nil until the person's
// location has been geocoded.
type Person struct {
	ID          string       `json:"id" yaml:"id"`
	Name        string       `json:"name" yaml:"name"`
	Handle      string       `json:"handle" yaml:"handle"`
	Location    string       `json:"location" yaml:"location"`
	Coordinates *Coordinates `json:"coordinates,omitempty" yaml:"coordinates,omitempty"`
}

// Located returns a copy of p carrying the given coordinates.
func (p Person) Located(c Coordinates) Person {
	p.Coordinates = &c
	return p
}

// Point returns the person's coordinates, or the zero pair when unresolved.
func (p Person) Point() Coordinates {
	if p.Coordinates == nil {
		return Coordinates{}
	}
	return *p.Coordinates
}
