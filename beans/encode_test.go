package beans

import (
	"errors"
	"reflect"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestMarshalPerson(t *testing.T) {
	m := personMapper(t)
	got, err := m.Marshal(tom())
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if string(got) != tomJSON {
		t.Errorf("Marshal() =\n%s\nwant\n%s", got, tomJSON)
	}
}

func TestMarshalTags(t *testing.T) {
	m := personMapper(t)
	special := &SpecialNumber{PhoneNumber{Name: "E", Number: "1"}}
	plain := &PhoneNumber{Name: "M", Number: "2"}
	tests := []struct {
		name string
		v    any
		opts []EncodeOption
		want string
	}{
		{
			name: "no context",
			v:    special,
			want: `{"name":"E","number":"1"}`,
		},
		{
			name: "default implementation",
			v:    plain,
			opts: []EncodeOption{ExpectType[Phone]()},
			want: `{"name":"M","number":"2"}`,
		},
		{
			name: "other implementation",
			v:    special,
			opts: []EncodeOption{ExpectType[Phone]()},
			want: `{"@class":"SpecialNumber","name":"E","number":"1"}`,
		},
		{
			name: "exact type",
			v:    special,
			opts: []EncodeOption{ExpectType[*SpecialNumber]()},
			want: `{"name":"E","number":"1"}`,
		},
		{
			name: "universal type",
			v:    plain,
			opts: []EncodeOption{ExpectType[any]()},
			want: `{"@class":"github.com/signadot/beanmap/beans.PhoneNumber","name":"M","number":"2"}`,
		},
		{
			name: "slice elements",
			v:    []Phone{plain, special},
			opts: []EncodeOption{ExpectType[[]Phone]()},
			want: `[{"name":"M","number":"2"},{"@class":"SpecialNumber","name":"E","number":"1"}]`,
		},
		{
			name: "map elements",
			v:    map[string]any{"b": special, "a": 1},
			opts: []EncodeOption{ExpectType[map[string]any]()},
			want: `{"a":1,"b":{"@class":"SpecialNumber","name":"E","number":"1"}}`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := m.Marshal(tt.v, tt.opts...)
			if err != nil {
				t.Fatalf("Marshal() error = %v", err)
			}
			if string(got) != tt.want {
				t.Errorf("Marshal() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestMarshalOmitTag(t *testing.T) {
	m := personMapper(t, OmitTag())
	got, err := m.Marshal(tom())
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	want := `{"age":42,"name":"Tom Test","numbers":[{"name":"Mobile","number":"123"},{"name":"Emergency","number":"911"}]}`
	if string(got) != want {
		t.Errorf("Marshal() = %s, want %s", got, want)
	}
}

func TestMarshalUntypedSlot(t *testing.T) {
	type holder struct {
		Items []any
		Attrs map[string]any
	}
	m := personMapper(t)
	got, err := m.Marshal(holder{
		Items: []any{"x", 1.5, &PhoneNumber{Name: "n", Number: "1"}},
		Attrs: map[string]any{"k": true},
	})
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	want := `{"attrs":{"k":true},"items":["x",1.5,{"@class":"github.com/signadot/beanmap/beans.PhoneNumber","name":"n","number":"1"}]}`
	if string(got) != want {
		t.Errorf("Marshal() = %s, want %s", got, want)
	}
}

func TestMarshalConstructed(t *testing.T) {
	m, err := NewMapper(WithTypes(
		Type[RoBean](Constructor(NewRoBean, "value")),
		Type[ImmutablePoint](
			Constructor(NewPoint, "x", "y"),
			Constructor(NewNamedPoint, "name", "x", "y"),
		),
	))
	if err != nil {
		t.Fatalf("NewMapper() error = %v", err)
	}
	tests := []struct {
		v    any
		want string
	}{
		{NewRoBean("ro"), `{"value":"ro"}`},
		{NewNamedPoint("p", 1, 2), `{"name":"p","x":1,"y":2}`},
	}
	for _, tt := range tests {
		got, err := m.Marshal(tt.v)
		if err != nil {
			t.Fatalf("Marshal(%T) error = %v", tt.v, err)
		}
		if string(got) != tt.want {
			t.Errorf("Marshal(%T) = %s, want %s", tt.v, got, tt.want)
		}
	}
}

func TestMarshalFieldTags(t *testing.T) {
	got, err := Marshal(Tagged{FullName: "n", Secret: "s", Cache: "c", Count: 1})
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if want := `{"count":1,"name":"n"}`; string(got) != want {
		t.Errorf("Marshal() = %s, want %s", got, want)
	}
}

func TestMarshalGetterFailure(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	m := MustNewMapper(WithLogger(zap.New(core)))
	got, err := m.Marshal(&Account{owner: "o", balance: -1})
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if want := `{"owner":"o"}`; string(got) != want {
		t.Errorf("Marshal() = %s, want %s", got, want)
	}
	if n := logs.FilterMessage("property read failed").Len(); n != 1 {
		t.Errorf("got %d warnings, want 1", n)
	}
}

func TestMarshalAdapter(t *testing.T) {
	w := Weather{City: "Oslo", High: Temperature{Degrees: 21.5}}
	got, err := Marshal(w)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if want := `{"city":"Oslo","high":"21.5C"}`; string(got) != want {
		t.Errorf("Marshal() = %s, want %s", got, want)
	}

	m := MustNewMapper(WithAdapter(reflect.TypeFor[Temperature](), TextAdapter(
		func(string) (Temperature, error) { return Temperature{}, nil },
		func(Temperature) string { return "warm" },
	)))
	got, err = m.Marshal(w)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if want := `{"city":"Oslo","high":"warm"}`; string(got) != want {
		t.Errorf("Marshal() with adapter = %s, want %s", got, want)
	}
}

func TestMarshalCycle(t *testing.T) {
	n := &Node{Name: "a"}
	n.Next = &Node{Name: "b", Next: n}
	_, err := Marshal(n)
	if !errors.Is(err, ErrCycle) {
		t.Fatalf("Marshal() error = %v, want %v", err, ErrCycle)
	}

	shared := &Node{Name: "s"}
	got, err := Marshal([]*Node{shared, shared})
	if err != nil {
		t.Fatalf("Marshal() shared error = %v", err)
	}
	if want := `[{"name":"s","next":null},{"name":"s","next":null}]`; string(got) != want {
		t.Errorf("Marshal() = %s, want %s", got, want)
	}
}

func TestMarshalSharedAddress(t *testing.T) {
	nodes := []Node{{Name: "a"}, {Name: "b"}}
	nodes[1].Next = &nodes[0]
	got, err := Marshal(nodes)
	if err != nil {
		t.Fatalf("Marshal() slice error = %v", err)
	}
	want := `[{"name":"a","next":null},{"name":"b","next":{"name":"a","next":null}}]`
	if string(got) != want {
		t.Errorf("Marshal() = %s, want %s", got, want)
	}

	type inner struct {
		X int
	}
	type outer struct {
		In inner
		P  *inner
	}
	o := &outer{In: inner{X: 1}}
	o.P = &o.In
	got, err = Marshal(o)
	if err != nil {
		t.Fatalf("Marshal() first field error = %v", err)
	}
	if want := `{"in":{"x":1},"p":{"x":1}}`; string(got) != want {
		t.Errorf("Marshal() = %s, want %s", got, want)
	}

	nodes[0].Next = &nodes[0]
	if _, err := Marshal(nodes); !errors.Is(err, ErrCycle) {
		t.Errorf("Marshal() self reference error = %v, want %v", err, ErrCycle)
	}
}

func TestMarshalIgnored(t *testing.T) {
	type external struct {
		Field string `json:"f"`
	}
	m := MustNewMapper(Ignore(reflect.TypeFor[external]()))
	got, err := m.Marshal(map[string]external{"x": {Field: "v"}})
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if want := `{"x":{"f":"v"}}`; string(got) != want {
		t.Errorf("Marshal() = %s, want %s", got, want)
	}
}

func TestMarshalConcurrent(t *testing.T) {
	m := personMapper(t)
	var wg sync.WaitGroup
	results := make([]string, 32)
	errs := make([]error, len(results))
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			var d []byte
			if i%2 == 0 {
				d, errs[i] = m.Marshal(tom())
			} else {
				d, errs[i] = m.Marshal(tom().Numbers[1], ExpectType[Phone]())
			}
			results[i] = string(d)
		}()
	}
	wg.Wait()
	for i, got := range results {
		if errs[i] != nil {
			t.Fatalf("Marshal() error = %v", errs[i])
		}
		want := tomJSON
		if i%2 == 1 {
			want = `{"@class":"SpecialNumber","name":"Emergency","number":"911"}`
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("result %d (-want +got):\n%s", i, diff)
		}
	}
}

func TestToIR(t *testing.T) {
	m := personMapper(t)
	node, err := m.ToIR(tom())
	if err != nil {
		t.Fatalf("ToIR() error = %v", err)
	}
	got := node.ToAny()
	want := map[string]any{
		"age":  int64(42),
		"name": "Tom Test",
		"numbers": []any{
			map[string]any{"name": "Mobile", "number": "123"},
			map[string]any{"@class": "SpecialNumber", "name": "Emergency", "number": "911"},
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ToIR() (-want +got):\n%s", diff)
	}
}
