package scantype

import "strings"

// Operation identifies what a scanner did with a bowl.
type Operation struct {
	Name string
}

func (o Operation) Code() string {
	return o.Name
}

func (o Operation) Label() string {
	if o.Name == "" {
		return ""
	}
	return strings.ToUpper(o.Name[:1]) + o.Name[1:]
}

type Enum struct {
	Kitchen Operation
	Prepare Operation
	Return  Operation
}

var Operations = Enum{
	Kitchen: Operation{Name: "kitchen"},
	Prepare: Operation{Name: "prepare"},
	Return:  Operation{Name: "return"},
}

var All = []Operation{
	Operations.Kitchen,
	Operations.Prepare,
	Operations.Return,
}

// ByName returns the operation for a given name, or nil if not found
func ByName(name string) *Operation {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, o := range All {
		if o.Name == name {
			return &o
		}
	}
	return nil
}
