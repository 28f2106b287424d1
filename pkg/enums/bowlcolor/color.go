package bowlcolor

import "strings"

// Color is the display tag a bowl carries for its assignment state.
type Color struct {
	Name string
}

func (c Color) Code() string {
	return c.Name
}

func (c Color) IsZero() bool {
	return c.Name == ""
}

type Enum struct {
	Black Color // unassigned
	Green Color // single customer
	Red   Color // conflicting customers
}

var Colors = Enum{
	Black: Color{Name: "black"},
	Green: Color{Name: "green"},
	Red:   Color{Name: "red"},
}

var All = []Color{
	Colors.Black,
	Colors.Green,
	Colors.Red,
}

// ByName returns the color for a given name, or nil if not found
func ByName(name string) *Color {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, c := range All {
		if c.Name == name {
			return &c
		}
	}
	return nil
}
