// Package iotype enumerates the coarse artifact kinds that flow through pipes.
package iotype

import "fmt"

// IOType is the kind of artifact a block consumes or produces.
type IOType int

const (
	// None marks a block without input (extractors) or without output
	// (loaders).
	None IOType = iota
	Primitive
	Sheet
	Table
	File
	FileSystem
)

var names = map[IOType]string{
	None:       "None",
	Primitive:  "Primitive",
	Sheet:      "Sheet",
	Table:      "Table",
	File:       "File",
	FileSystem: "FileSystem",
}

func (t IOType) String() string {
	if n, ok := names[t]; ok {
		return n
	}
	return fmt.Sprintf("IOType(%d)", int(t))
}

// IsConvertibleTo reports whether an artifact of type t can be fed into an
// input of type target. IOTypes only convert to themselves.
func (t IOType) IsConvertibleTo(target IOType) bool {
	return t == target
}

// Parse resolves an IOType by its name.
func Parse(name string) (IOType, bool) {
	for t, n := range names {
		if n == name {
			return t, true
		}
	}
	return None, false
}
