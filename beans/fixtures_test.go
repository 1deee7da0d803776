package beans

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"testing"
)

type Phone interface {
	Digits() string
}

type PhoneNumber struct {
	Name   string
	Number string
}

func (p *PhoneNumber) Digits() string { return p.Number }

type SpecialNumber struct {
	PhoneNumber
}

type Person struct {
	Name    string
	Age     int
	Numbers []Phone
}

func tom() *Person {
	return &Person{
		Name: "Tom Test",
		Age:  42,
		Numbers: []Phone{
			&PhoneNumber{Name: "Mobile", Number: "123"},
			&SpecialNumber{PhoneNumber{Name: "Emergency", Number: "911"}},
		},
	}
}

const tomJSON = `{"age":42,"name":"Tom Test","numbers":[{"name":"Mobile","number":"123"},{"@class":"SpecialNumber","name":"Emergency","number":"911"}]}`

func personMapper(t *testing.T, opts ...Option) *Mapper {
	t.Helper()
	opts = append([]Option{
		WithTypes(Type[Phone](Default[PhoneNumber]())),
		Alias[SpecialNumber]("SpecialNumber"),
	}, opts...)
	m, err := NewMapper(opts...)
	if err != nil {
		t.Fatalf("NewMapper() error = %v", err)
	}
	return m
}

// RoBean is readable only through its getter.
type RoBean struct {
	value string
}

func NewRoBean(value string) *RoBean { return &RoBean{value: value} }

func (r *RoBean) Value() string { return r.value }

type ImmutablePoint struct {
	name string
	x, y int
}

func NewPoint(x, y int) ImmutablePoint {
	return ImmutablePoint{x: x, y: y}
}

func NewNamedPoint(name string, x, y int) ImmutablePoint {
	return ImmutablePoint{name: name, x: x, y: y}
}

func (p ImmutablePoint) Name() string { return p.name }
func (p ImmutablePoint) X() int       { return p.x }
func (p ImmutablePoint) Y() int       { return p.y }

// Box records which constructor built it.
type Box struct {
	a, b, c int
	D       int
	via     string
}

func NewBox3(a, b, c int) *Box { return &Box{a: a, b: b, c: c, via: "abc"} }

func NewBox2(a, b int) Box { return Box{a: a, b: b, via: "ab"} }

func (x *Box) A() int { return x.a }
func (x *Box) B() int { return x.b }
func (x *Box) C() int { return x.c }

// Temperature is written as text like "21.5C".
type Temperature struct {
	Degrees float64
}

func (t Temperature) MarshalText() ([]byte, error) {
	return []byte(strconv.FormatFloat(t.Degrees, 'f', -1, 64) + "C"), nil
}

func (t *Temperature) UnmarshalText(d []byte) error {
	s, ok := strings.CutSuffix(string(d), "C")
	if !ok {
		return fmt.Errorf("temperature %q has no unit", d)
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return err
	}
	t.Degrees = f
	return nil
}

type Weather struct {
	City string
	High Temperature
}

type Tagged struct {
	FullName string `bean:"field=name"`
	Secret   string `bean:"-"`
	Cache    string `bean:"transient"`
	Count    int
}

// Account has a property backed by a getter/setter pair, and one whose
// getter fails.
type Account struct {
	owner   string
	balance int
}

func (a *Account) Owner() string     { return a.owner }
func (a *Account) SetOwner(s string) { a.owner = s }
func (a *Account) Balance() (int, error) {
	if a.balance < 0 {
		return 0, errors.New("overdrawn")
	}
	return a.balance, nil
}
func (a *Account) SetBalance(b int) error {
	if b > 1000 {
		return errors.New("too rich")
	}
	a.balance = b
	return nil
}

type Node struct {
	Name string
	Next *Node
}

type Shape interface {
	Area() float64
}

type Square struct {
	Side float64
}

func (s Square) Area() float64 { return s.Side * s.Side }
