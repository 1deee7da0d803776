package beans

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/signadot/beanmap/ir"
)

func TestUnmarshalPerson(t *testing.T) {
	m := personMapper(t)
	var got Person
	if err := m.Unmarshal([]byte(tomJSON), &got); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if diff := cmp.Diff(tom(), &got); diff != "" {
		t.Errorf("Unmarshal() (-want +got):\n%s", diff)
	}
}

func TestRoundTrip(t *testing.T) {
	m := personMapper(t)
	d, err := m.Marshal(tom())
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	var p Person
	if err := m.Unmarshal(d, &p); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	again, err := m.Marshal(&p)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if string(again) != string(d) {
		t.Errorf("round trip:\n%s\n%s", d, again)
	}
	if _, ok := p.Numbers[1].(*SpecialNumber); !ok {
		t.Errorf("numbers[1] is %T, want *SpecialNumber", p.Numbers[1])
	}
}

func TestUnmarshalTypeTags(t *testing.T) {
	m := personMapper(t)
	tests := []struct {
		name string
		in   string
		want any
	}{
		{
			name: "alias",
			in:   `{"@class":"SpecialNumber","name":"E","number":"1"}`,
			want: &SpecialNumber{PhoneNumber{Name: "E", Number: "1"}},
		},
		{
			name: "canonical name",
			in:   `{"@class":"github.com/signadot/beanmap/beans.SpecialNumber","name":"E","number":"1"}`,
			want: &SpecialNumber{PhoneNumber{Name: "E", Number: "1"}},
		},
		{
			name: "no tag",
			in:   `{"name":"M","number":"2"}`,
			want: &PhoneNumber{Name: "M", Number: "2"},
		},
		{
			name: "unknown tag",
			in:   `{"@class":"no.such.Type","name":"M","number":"2"}`,
			want: &PhoneNumber{Name: "M", Number: "2"},
		},
		{
			name: "not assignable",
			in:   `{"@class":"github.com/signadot/beanmap/beans.Person","name":"M","number":"2"}`,
			want: &PhoneNumber{Name: "M", Number: "2"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got Phone
			if err := m.Unmarshal([]byte(tt.in), &got); err != nil {
				t.Fatalf("Unmarshal() error = %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Unmarshal() (-want +got):\n%s", diff)
			}
		})
	}
}

func TestUnmarshalTagLogged(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	m := personMapper(t, WithLogger(zap.New(core)))
	var got Phone
	if err := m.Unmarshal([]byte(`{"@class":"no.such.Type","name":"M"}`), &got); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	entries := logs.FilterMessage("type tag not used").All()
	if len(entries) != 1 {
		t.Fatalf("got %d log entries, want 1", len(entries))
	}
	err, _ := entries[0].ContextMap()["error"].(string)
	if !strings.Contains(err, "no.such.Type") {
		t.Errorf("logged error %q does not name the tag", err)
	}
}

func TestAliasBeforeResolver(t *testing.T) {
	resolver := func(tag string) (reflect.Type, bool) {
		if tag == "SpecialNumber" {
			return reflect.TypeFor[PhoneNumber](), true
		}
		return nil, false
	}
	m := personMapper(t, WithResolver(resolver))
	var got Phone
	if err := m.Unmarshal([]byte(`{"@class":"SpecialNumber","name":"E","number":"1"}`), &got); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if _, ok := got.(*SpecialNumber); !ok {
		t.Errorf("Unmarshal() = %T, want *SpecialNumber", got)
	}
}

func TestCustomResolver(t *testing.T) {
	m := personMapper(t, WithResolver(func(tag string) (reflect.Type, bool) {
		if tag == "sq" {
			return reflect.TypeFor[Square](), true
		}
		return nil, false
	}))
	var got Shape
	if err := m.Unmarshal([]byte(`{"@class":"sq","side":2}`), &got); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if got.Area() != 4 {
		t.Errorf("Area() = %v, want 4", got.Area())
	}
	if _, ok := got.(Square); !ok {
		t.Errorf("Unmarshal() = %T, want Square", got)
	}
}

func TestUnmarshalConstructors(t *testing.T) {
	m := MustNewMapper(WithTypes(Type[Box](
		Constructor(NewBox2, "a", "b"),
		Constructor(NewBox3, "a", "b", "c"),
	)))
	tests := []struct {
		in   string
		want Box
	}{
		{`{"a":1,"b":2,"c":3}`, Box{a: 1, b: 2, c: 3, via: "abc"}},
		{`{"d":4,"b":2,"a":1}`, Box{a: 1, b: 2, D: 4, via: "ab"}},
		{`{"a":1,"b":2,"c":3,"d":4}`, Box{a: 1, b: 2, c: 3, D: 4, via: "abc"}},
	}
	for _, tt := range tests {
		var got Box
		if err := m.Unmarshal([]byte(tt.in), &got); err != nil {
			t.Fatalf("Unmarshal(%s) error = %v", tt.in, err)
		}
		if diff := cmp.Diff(tt.want, got, cmp.AllowUnexported(Box{})); diff != "" {
			t.Errorf("Unmarshal(%s) (-want +got):\n%s", tt.in, diff)
		}
	}

	var b Box
	err := m.Unmarshal([]byte(`{"a":1,"c":3}`), &b)
	if !errors.Is(err, ErrPropertyWrite) {
		t.Errorf("Unmarshal() error = %v, want %v", err, ErrPropertyWrite)
	}
}

func TestRequireConstructor(t *testing.T) {
	m := MustNewMapper(WithTypes(Type[Box](
		Constructor(NewBox2, "a", "b"),
		RequireConstructor(),
	)))
	var b Box
	err := m.Unmarshal([]byte(`{"d":1}`), &b)
	if !errors.Is(err, ErrConstruction) {
		t.Errorf("Unmarshal() error = %v, want %v", err, ErrConstruction)
	}
}

func TestConstructorFailure(t *testing.T) {
	m := MustNewMapper(WithTypes(Type[Box](
		Constructor(func(a, b int) (Box, error) {
			if a > b {
				return Box{}, errors.New("unordered")
			}
			return NewBox2(a, b), nil
		}, "a", "b"),
		Constructor(func(a, b, c int) *Box { panic("boom") }, "a", "b", "c"),
	)))
	for _, in := range []string{`{"a":2,"b":1}`, `{"a":1,"b":2,"c":3}`} {
		var b Box
		err := m.Unmarshal([]byte(in), &b)
		var cerr *ConstructionError
		if !errors.As(err, &cerr) {
			t.Errorf("Unmarshal(%s) error = %v, want *ConstructionError", in, err)
			continue
		}
		if cerr.Type != reflect.TypeFor[Box]() {
			t.Errorf("ConstructionError.Type = %v", cerr.Type)
		}
	}
}

func TestUnmarshalReadOnly(t *testing.T) {
	m := MustNewMapper(WithTypes(
		Type[RoBean](Constructor(NewRoBean, "value")),
		Type[ImmutablePoint](
			Constructor(NewPoint, "x", "y"),
			Constructor(NewNamedPoint, "name", "x", "y"),
		),
	))
	var ro *RoBean
	if err := m.Unmarshal([]byte(`{"value":"v"}`), &ro); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if ro.Value() != "v" {
		t.Errorf("Value() = %q, want v", ro.Value())
	}

	var pts []ImmutablePoint
	in := `[{"x":1,"y":2},{"name":"n","x":3,"y":4}]`
	if err := m.Unmarshal([]byte(in), &pts); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	want := []ImmutablePoint{NewPoint(1, 2), NewNamedPoint("n", 3, 4)}
	if diff := cmp.Diff(want, pts, cmp.AllowUnexported(ImmutablePoint{})); diff != "" {
		t.Errorf("Unmarshal() (-want +got):\n%s", diff)
	}

	var p ImmutablePoint
	err := m.Unmarshal([]byte(`{"name":"n"}`), &p)
	if !errors.Is(err, ErrPropertyWrite) {
		t.Errorf("Unmarshal() error = %v, want %v", err, ErrPropertyWrite)
	}
}

func TestUnmarshalUnknownProperty(t *testing.T) {
	in := []byte(`{"name":"M","extra":{"deep":[1,{"x":null}]},"number":"2"}`)
	var p PhoneNumber
	err := Unmarshal(in, &p)
	var uerr *UnknownPropertyError
	if !errors.As(err, &uerr) {
		t.Fatalf("Unmarshal() error = %v, want *UnknownPropertyError", err)
	}
	if uerr.Property != "extra" {
		t.Errorf("Property = %q, want extra", uerr.Property)
	}

	m := MustNewMapper(SkipUnknown())
	p = PhoneNumber{}
	if err := m.Unmarshal(in, &p); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if want := (PhoneNumber{Name: "M", Number: "2"}); p != want {
		t.Errorf("Unmarshal() = %+v, want %+v", p, want)
	}
}

func TestUnmarshalShapeErrors(t *testing.T) {
	tests := []struct {
		name string
		in   string
		v    any
	}{
		{"array for bean", `[1]`, &PhoneNumber{}},
		{"string for int", `{"age":"x"}`, &Person{}},
		{"object for slice", `{"numbers":{}}`, &Person{}},
		{"overflow", `300`, new(int8)},
		{"fraction", `1.5`, new(int)},
		{"negative", `-1`, new(uint)},
		{"truncated", `{"name":"x"`, &PhoneNumber{}},
		{"trailing", `{} {}`, &PhoneNumber{}},
		{"array too long", `[1,2,3]`, new([2]int)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := personMapper(t).Unmarshal([]byte(tt.in), tt.v)
			if err == nil {
				t.Fatal("Unmarshal() error = nil")
			}
			if tt.name == "truncated" {
				return
			}
			if !errors.Is(err, ErrDocumentShape) {
				t.Errorf("Unmarshal() error = %v, want %v", err, ErrDocumentShape)
			}
		})
	}
}

func TestUnmarshalLocation(t *testing.T) {
	m := personMapper(t)
	var p Person
	err := m.Unmarshal([]byte(`{"numbers":[{"name":"a"},{"name":1}]}`), &p)
	var serr *DocumentShapeError
	if !errors.As(err, &serr) {
		t.Fatalf("Unmarshal() error = %v, want *DocumentShapeError", err)
	}
	if !strings.Contains(serr.Location, "$.numbers[1].name") {
		t.Errorf("Location = %q, want it to name $.numbers[1].name", serr.Location)
	}
}

func TestUnmarshalUntyped(t *testing.T) {
	m := personMapper(t)
	in := `{"a":{"@class":"SpecialNumber","name":"E","number":"911"},"b":{"k":[1,2.5,"s",true,null]},"c":{"@class":"no.such.Type","k":"v"}}`
	var got map[string]any
	if err := m.Unmarshal([]byte(in), &got); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	want := map[string]any{
		"a": SpecialNumber{PhoneNumber{Name: "E", Number: "911"}},
		"b": map[string]any{"k": []any{int64(1), 2.5, "s", true, nil}},
		"c": map[string]any{"@class": "no.such.Type", "k": "v"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Unmarshal() (-want +got):\n%s", diff)
	}

	var v any
	if err := m.Unmarshal([]byte(`[{"x":1},"y"]`), &v); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if diff := cmp.Diff([]any{map[string]any{"x": int64(1)}, "y"}, v); diff != "" {
		t.Errorf("Unmarshal() (-want +got):\n%s", diff)
	}
}

func TestUnmarshalInterfaceWithoutDefault(t *testing.T) {
	var s Shape
	err := Unmarshal([]byte(`{"side":1}`), &s)
	if !errors.Is(err, ErrConstruction) {
		t.Errorf("Unmarshal() error = %v, want %v", err, ErrConstruction)
	}
}

func TestUnmarshalNull(t *testing.T) {
	m := personMapper(t)
	p := Person{Name: "x", Numbers: []Phone{nil}}
	if err := m.Unmarshal([]byte(`{"name":null,"numbers":[null]}`), &p); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if diff := cmp.Diff(Person{Numbers: []Phone{nil}}, p); diff != "" {
		t.Errorf("Unmarshal() (-want +got):\n%s", diff)
	}
	var pp *Person
	if err := m.Unmarshal([]byte(`null`), &pp); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if pp != nil {
		t.Errorf("Unmarshal() = %v, want nil", pp)
	}
}

func TestUnmarshalAccessors(t *testing.T) {
	var a Account
	if err := Unmarshal([]byte(`{"balance":10,"owner":"o"}`), &a); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if a.owner != "o" || a.balance != 10 {
		t.Errorf("Unmarshal() = %+v", a)
	}
	err := Unmarshal([]byte(`{"balance":5000}`), &a)
	var werr *PropertyWriteError
	if !errors.As(err, &werr) || werr.Property != "balance" {
		t.Errorf("Unmarshal() error = %v, want *PropertyWriteError for balance", err)
	}
}

func TestUnmarshalFieldTags(t *testing.T) {
	var got Tagged
	if err := Unmarshal([]byte(`{"name":"n","cache":"c","count":2}`), &got); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if want := (Tagged{FullName: "n", Cache: "c", Count: 2}); got != want {
		t.Errorf("Unmarshal() = %+v, want %+v", got, want)
	}
	err := Unmarshal([]byte(`{"secret":"s"}`), &got)
	if !errors.Is(err, ErrUnknownProperty) {
		t.Errorf("Unmarshal() error = %v, want %v", err, ErrUnknownProperty)
	}
}

func TestUnmarshalAdapter(t *testing.T) {
	var w Weather
	if err := Unmarshal([]byte(`{"city":"Oslo","high":"21.5C"}`), &w); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if w.High.Degrees != 21.5 {
		t.Errorf("High = %v, want 21.5", w.High)
	}
	// objects bypass the adapter
	if err := Unmarshal([]byte(`{"high":{"degrees":3}}`), &w); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if w.High.Degrees != 3 {
		t.Errorf("High = %v, want 3", w.High)
	}
	err := Unmarshal([]byte(`{"high":"warm"}`), &w)
	if !errors.Is(err, ErrConstruction) {
		t.Errorf("Unmarshal() error = %v, want %v", err, ErrConstruction)
	}
}

func TestUnmarshalIgnored(t *testing.T) {
	type external struct {
		Field string `json:"f"`
	}
	m := MustNewMapper(Ignore(reflect.TypeFor[external]()))
	var got map[string]*external
	if err := m.Unmarshal([]byte(`{"x":{"f":"v"}}`), &got); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if diff := cmp.Diff(map[string]*external{"x": {Field: "v"}}, got); diff != "" {
		t.Errorf("Unmarshal() (-want +got):\n%s", diff)
	}
}

func TestFromIR(t *testing.T) {
	m := personMapper(t)
	node := ir.FromKeyVals([]ir.KeyVal{
		{Key: ir.FromString("name"), Val: ir.FromString("Tom Test")},
		{Key: ir.FromString("numbers"), Val: ir.FromSlice([]*ir.Node{
			ir.FromKeyVals([]ir.KeyVal{
				{Key: ir.FromString(ir.TypeTagKey), Val: ir.FromString("SpecialNumber")},
				{Key: ir.FromString("number"), Val: ir.FromString("911")},
			}),
		})},
	})
	var got Person
	if err := m.FromIR(node, &got); err != nil {
		t.Fatalf("FromIR() error = %v", err)
	}
	want := Person{Name: "Tom Test", Numbers: []Phone{&SpecialNumber{PhoneNumber{Number: "911"}}}}
	if diff := cmp.Diff(want, got, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("FromIR() (-want +got):\n%s", diff)
	}
}
