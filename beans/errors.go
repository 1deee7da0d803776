package beans

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
)

var (
	ErrDocumentShape     = errors.New("document shape")
	ErrUnresolvedTypeTag = errors.New("unresolved type tag")
	ErrUnknownProperty   = errors.New("unknown property")
	ErrConstruction      = errors.New("construction failed")
	ErrPropertyWrite     = errors.New("property not writable")
	ErrUncatalogable     = errors.New("uncatalogable type")
	ErrCycle             = errors.New("circular reference")
)

func at(loc string) string {
	if loc == "" {
		return ""
	}
	return " at " + loc
}

// DocumentShapeError reports a document value of the wrong kind, such as
// an array where an object was required.
type DocumentShapeError struct {
	Location string
	Expected string
	Got      string
}

func (e *DocumentShapeError) Error() string {
	return fmt.Sprintf("document shape error%s: expected %s, got %s", at(e.Location), e.Expected, e.Got)
}

func (e *DocumentShapeError) Is(target error) bool { return target == ErrDocumentShape }

// UnresolvedTypeTagError describes a type tag that could not be used. It is
// never returned from Decode; the decoder logs it and keeps the expected type.
type UnresolvedTypeTagError struct {
	Location string
	Tag      string
	Expected reflect.Type
	// Resolved is set when the tag named a type that is not assignable
	// to Expected.
	Resolved reflect.Type
}

func (e *UnresolvedTypeTagError) Error() string {
	if e.Resolved != nil {
		return fmt.Sprintf("type tag %q%s: %s is not assignable to %s", e.Tag, at(e.Location), e.Resolved, e.Expected)
	}
	return fmt.Sprintf("type tag %q%s: no such type", e.Tag, at(e.Location))
}

func (e *UnresolvedTypeTagError) Is(target error) bool { return target == ErrUnresolvedTypeTag }

// UnknownPropertyError reports a document key with no catalog entry.
type UnknownPropertyError struct {
	Location string
	Type     reflect.Type
	Property string
}

func (e *UnknownPropertyError) Error() string {
	return fmt.Sprintf("unknown property %q of %s%s", e.Property, e.Type, at(e.Location))
}

func (e *UnknownPropertyError) Is(target error) bool { return target == ErrUnknownProperty }

// ConstructionError reports a failure to build an instance.
type ConstructionError struct {
	Location string
	Type     reflect.Type
	Message  string
	Err      error
}

func (e *ConstructionError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "cannot construct %s%s", e.Type, at(e.Location))
	if e.Message != "" {
		b.WriteString(": " + e.Message)
	}
	if e.Err != nil {
		b.WriteString(": " + e.Err.Error())
	}
	return b.String()
}

func (e *ConstructionError) Is(target error) bool { return target == ErrConstruction }

func (e *ConstructionError) Unwrap() error { return e.Err }

// PropertyWriteError reports a property that cannot be assigned.
type PropertyWriteError struct {
	Location string
	Type     reflect.Type
	Property string
	Err      error
}

func (e *PropertyWriteError) Error() string {
	msg := fmt.Sprintf("cannot write property %q of %s%s", e.Property, e.Type, at(e.Location))
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *PropertyWriteError) Is(target error) bool { return target == ErrPropertyWrite }

func (e *PropertyWriteError) Unwrap() error { return e.Err }

// UncatalogableError reports a type whose properties cannot be determined.
type UncatalogableError struct {
	Location string
	Type     reflect.Type
	Message  string
	Err      error
}

func (e *UncatalogableError) Error() string {
	msg := fmt.Sprintf("uncatalogable type %s%s", e.Type, at(e.Location))
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *UncatalogableError) Is(target error) bool { return target == ErrUncatalogable }

func (e *UncatalogableError) Unwrap() error { return e.Err }

// withLocation fills in the location of errors raised away from the
// document position, such as catalog failures.
func withLocation(err error, loc string) error {
	switch e := err.(type) {
	case *UncatalogableError:
		if e.Location == "" {
			c := *e
			c.Location = loc
			return &c
		}
	case *PropertyWriteError:
		if e.Location == "" {
			c := *e
			c.Location = loc
			return &c
		}
	}
	return err
}
