package ir

import (
	"strconv"
	"strings"
)

// Path returns the location of y within its tree, such as
// "$.numbers[1].name".
func (y *Node) Path() string {
	if y.Parent == nil {
		return "$"
	}
	switch y.Parent.Type {
	case ObjectType:
		return y.Parent.Path() + PathField(y.ParentField)
	case ArrayType:
		return y.Parent.Path() + PathIndex(y.ParentIndex)
	default:
		panic("parent but not in container")
	}
}

// PathField renders one object key as a path segment.
func PathField(f string) string {
	if f != "" && strings.IndexAny(f, "'.*$[]") == -1 {
		return "." + f
	}
	return ".'" + strings.Replace(f, "'", "\\'", -1) + "'"
}

// PathIndex renders one array index as a path segment.
func PathIndex(i int) string {
	return "[" + strconv.Itoa(i) + "]"
}
