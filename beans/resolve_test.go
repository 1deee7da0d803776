package beans

import (
	"reflect"
	"testing"
)

func TestTypeNames(t *testing.T) {
	m := personMapper(t)
	tests := []struct {
		typ  reflect.Type
		want string
	}{
		{reflect.TypeFor[SpecialNumber](), "SpecialNumber"},
		{reflect.TypeFor[*SpecialNumber](), "SpecialNumber"},
		{reflect.TypeFor[PhoneNumber](), "github.com/signadot/beanmap/beans.PhoneNumber"},
		{reflect.TypeFor[[]int](), "[]int"},
	}
	for _, tt := range tests {
		if got := m.TagFor(tt.typ); got != tt.want {
			t.Errorf("TagFor(%v) = %q, want %q", tt.typ, got, tt.want)
		}
	}

	if got, ok := m.TypeFor("SpecialNumber"); !ok || got != reflect.TypeFor[SpecialNumber]() {
		t.Errorf("TypeFor(SpecialNumber) = %v, %v", got, ok)
	}
	if _, ok := m.TypeFor("nothing.Here"); ok {
		t.Error("TypeFor(nothing.Here) resolved")
	}
	// aliases are per mapper
	if _, ok := MustNewMapper().TypeFor("SpecialNumber"); ok {
		t.Error("alias leaked to another mapper")
	}
}

func TestAliasLastWins(t *testing.T) {
	m := MustNewMapper(Alias[Square]("sq"), Alias[Square]("square"))
	if got := m.TagFor(reflect.TypeFor[Square]()); got != "square" {
		t.Errorf("TagFor() = %q, want square", got)
	}
	for _, tag := range []string{"sq", "square"} {
		if got, ok := m.TypeFor(tag); !ok || got != reflect.TypeFor[Square]() {
			t.Errorf("TypeFor(%q) = %v, %v", tag, got, ok)
		}
	}
}

func TestAssignable(t *testing.T) {
	tests := []struct {
		actual, expected reflect.Type
		want             bool
	}{
		{reflect.TypeFor[PhoneNumber](), reflect.TypeFor[Phone](), true},
		{reflect.TypeFor[SpecialNumber](), reflect.TypeFor[Phone](), true},
		{reflect.TypeFor[*PhoneNumber](), reflect.TypeFor[PhoneNumber](), true},
		{reflect.TypeFor[SpecialNumber](), reflect.TypeFor[PhoneNumber](), false},
		{reflect.TypeFor[Person](), reflect.TypeFor[Phone](), false},
		{reflect.TypeFor[Person](), reflect.TypeFor[any](), true},
	}
	for _, tt := range tests {
		if got := assignable(tt.actual, tt.expected); got != tt.want {
			t.Errorf("assignable(%v, %v) = %v, want %v", tt.actual, tt.expected, got, tt.want)
		}
	}
}

func TestFit(t *testing.T) {
	pn := PhoneNumber{Name: "n"}
	tests := []struct {
		name string
		v    any
		t    reflect.Type
		want any
	}{
		{"pointer for interface", pn, reflect.TypeFor[Phone](), &pn},
		{"value for any", pn, reflect.TypeFor[any](), pn},
		{"add pointer", pn, reflect.TypeFor[*PhoneNumber](), &pn},
		{"remove pointer", &pn, reflect.TypeFor[PhoneNumber](), pn},
		{"numeric", int64(3), reflect.TypeFor[int8](), int8(3)},
		{"value implementing", Square{Side: 1}, reflect.TypeFor[Shape](), Square{Side: 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := fit(reflect.ValueOf(tt.v), tt.t)
			if !ok {
				t.Fatal("fit() failed")
			}
			if got.Type() != tt.t {
				t.Errorf("fit() type = %v, want %v", got.Type(), tt.t)
			}
			if !reflect.DeepEqual(got.Interface(), tt.want) {
				t.Errorf("fit() = %#v, want %#v", got.Interface(), tt.want)
			}
		})
	}
	if _, ok := fit(reflect.ValueOf("s"), reflect.TypeFor[int]()); ok {
		t.Error("fit(string, int) succeeded")
	}
}

func TestKnownType(t *testing.T) {
	type localBean struct{ V int }
	if _, err := DefaultMapper().Properties(reflect.TypeFor[localBean]()); err != nil {
		t.Fatalf("Properties() error = %v", err)
	}
	name := TypeName(reflect.TypeFor[localBean]())
	if got, ok := KnownType(name); !ok || got != reflect.TypeFor[localBean]() {
		t.Errorf("KnownType(%q) = %v, %v", name, got, ok)
	}
}
