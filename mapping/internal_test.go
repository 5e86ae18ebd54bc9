package mapping

import (
	"errors"
	"math"
	"reflect"
	"strconv"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"
)

// --- Storage Type Helpers ---

func TestNaturalStorageType(t *testing.T) {
	tests := []struct {
		typ       reflect.Type
		want      StorageType
		supported bool
	}{
		{reflect.TypeFor[string](), StorageString, true},
		{reflect.TypeFor[*string](), StorageString, true},
		{reflect.TypeFor[bool](), StorageBool, true},
		{reflect.TypeFor[uint16](), StorageNumber, true},
		{reflect.TypeFor[float32](), StorageNumber, true},
		{reflect.TypeFor[[]byte](), StorageBinary, true},
		{reflect.TypeFor[[32]byte](), StorageBinary, true},
		{reflect.TypeFor[[]int](), StorageList, true},
		{reflect.TypeFor[[3]string](), StorageList, true},
		{reflect.TypeFor[map[string]int](), StorageMap, true},
		{reflect.TypeFor[struct{ A int }](), StorageMap, true},
		{reflect.TypeFor[time.Time](), StorageString, true},
		{reflect.TypeFor[uuid.UUID](), StorageString, true},
		{reflect.TypeFor[any](), StorageDynamic, true},
		{reflect.TypeFor[chan int](), StorageDynamic, false},
		{reflect.TypeFor[func()](), StorageDynamic, false},
		{reflect.TypeFor[complex128](), StorageDynamic, false},
	}

	for _, tt := range tests {
		t.Run(tt.typ.String(), func(t *testing.T) {
			got, ok := naturalStorageType(tt.typ)
			if got != tt.want || ok != tt.supported {
				t.Errorf("naturalStorageType(%s) = (%q, %v), want (%q, %v)", tt.typ, got, ok, tt.want, tt.supported)
			}
		})
	}
}

func TestIsNullable(t *testing.T) {
	nullable := []reflect.Type{
		reflect.TypeFor[*int](),
		reflect.TypeFor[any](),
		reflect.TypeFor[map[string]int](),
		reflect.TypeFor[[]string](),
		reflect.TypeFor[[]byte](),
	}
	for _, typ := range nullable {
		if !isNullable(typ) {
			t.Errorf("expected %s to be nullable", typ)
		}
	}

	notNullable := []reflect.Type{
		reflect.TypeFor[int](),
		reflect.TypeFor[string](),
		reflect.TypeFor[[2]int](),
		reflect.TypeFor[time.Time](),
	}
	for _, typ := range notNullable {
		if isNullable(typ) {
			t.Errorf("expected %s not to be nullable", typ)
		}
	}
}

func TestParseStorageType(t *testing.T) {
	for _, s := range []string{"S", "N", "B", "BOOL", "SS", "NS", "BS", "L", "M"} {
		st, ok := ParseStorageType(s)
		if !ok || string(st) != s {
			t.Errorf("ParseStorageType(%q) = (%q, %v)", s, st, ok)
		}
	}
	if _, ok := ParseStorageType("NULL"); ok {
		t.Error("NULL is not a column storage type")
	}
	if _, ok := ParseStorageType(""); ok {
		t.Error("empty string is not a storage type")
	}
}

func TestStorageType_ScalarAttributeType(t *testing.T) {
	if at, ok := StorageNumber.ScalarAttributeType(); !ok || at != types.ScalarAttributeTypeN {
		t.Errorf("expected N, got %q %v", at, ok)
	}
	if _, ok := StorageList.ScalarAttributeType(); ok {
		t.Error("L cannot be a key attribute type")
	}
	if StorageDynamic.String() != "dynamic" {
		t.Errorf("expected dynamic, got %q", StorageDynamic.String())
	}
}

// --- Tag Parsing ---

func TestParseTag(t *testing.T) {
	m := parseTag("name, type=ns , partition=2")
	if m.override.Name == nil || *m.override.Name != "name" {
		t.Errorf("expected name override, got %v", m.override.Name)
	}
	if m.override.StorageType == nil || *m.override.StorageType != StorageNumberSet {
		t.Errorf("expected NS override, got %v", m.override.StorageType)
	}
	if m.partition == nil || *m.partition != 2 {
		t.Errorf("expected partition position 2, got %v", m.partition)
	}
	if m.clustering != nil {
		t.Error("expected no clustering marker")
	}

	ignored := parseTag("-")
	if !ignored.override.ignored() {
		t.Error("expected - to ignore")
	}

	included := parseTag(",ignore=false")
	if included.override.Ignore == nil || included.override.ignored() {
		t.Error("expected explicit ignore=false")
	}
}

func TestKeyPosition(t *testing.T) {
	tests := map[string]int{"": 0, "3": 3, "x": 0, "-1": 0}
	for in, want := range tests {
		if got := *keyPosition(in); got != want {
			t.Errorf("keyPosition(%q) = %d, want %d", in, got, want)
		}
	}
}

// --- Overrides ---

func TestColumnOverride_Merge(t *testing.T) {
	name := "a"
	st := StorageBinary
	c := ColumnOverride{Name: &name}
	c.merge(ColumnOverride{StorageType: &st})

	if c.Name == nil || *c.Name != "a" {
		t.Error("merge must keep facets the other override leaves unset")
	}
	if c.StorageType == nil || *c.StorageType != StorageBinary {
		t.Error("merge must copy set facets")
	}
	if c.ignored() {
		t.Error("unset ignore facet means included")
	}
}

// --- Accessors ---

type inner struct{ Hidden string }

type Base struct {
	ID   string
	Kind string
}

type composite struct {
	Base
	inner
	Kind  int
	Title string
}

func TestAccessorsFor(t *testing.T) {
	table, err := accessorsFor(reflect.TypeFor[composite]())
	if err != nil {
		t.Fatal(err)
	}

	var names []string
	for _, p := range table.props {
		names = append(names, p.name)
	}
	want := []string{"ID", "Hidden", "Kind", "Title"}
	if !reflect.DeepEqual(names, want) {
		t.Fatalf("expected %v, got %v", want, names)
	}

	kind, _ := table.lookup("Kind")
	if kind.typ.Kind() != reflect.Int {
		t.Errorf("outer Kind must shadow Base.Kind, got %s", kind.typ)
	}

	again, _ := accessorsFor(reflect.TypeFor[composite]())
	if again != table {
		t.Error("expected cached accessor table")
	}

	v := reflect.ValueOf(&composite{}).Elem()
	id, _ := table.lookup("ID")
	id.set(v, reflect.ValueOf("x"))
	if got := id.get(v).String(); got != "x" {
		t.Errorf("expected x, got %q", got)
	}

	hidden, ok := table.lookup("Hidden")
	if !ok {
		t.Fatal("expected field promoted from unexported embedded struct")
	}
	hidden.set(v, reflect.ValueOf("h"))
	if got := v.Interface().(composite).inner.Hidden; got != "h" {
		t.Errorf("expected h, got %q", got)
	}
}

type secret struct {
	token string
}

type withSecret struct {
	secret
	ID string
}

func TestAccessorsFor_UnexportedFieldsOfEmbeddedSkipped(t *testing.T) {
	table, err := accessorsFor(reflect.TypeFor[withSecret]())
	if err != nil {
		t.Fatal(err)
	}
	if len(table.props) != 1 || table.props[0].name != "ID" {
		t.Errorf("expected only ID, got %d properties", len(table.props))
	}
}

func TestAccessorsFor_NotStruct(t *testing.T) {
	if _, err := accessorsFor(reflect.TypeFor[int]()); !errors.Is(err, ErrNotStruct) {
		t.Errorf("expected ErrNotStruct, got %v", err)
	}
}

// --- Conversion Helpers ---

func TestWholeNumber(t *testing.T) {
	tests := []struct {
		text   string
		want   string
		narrow bool
	}{
		{"1e3", "1000", false},
		{"2.0", "2", false},
		{"-4E1", "-40", false},
		{"1.5", "", true},
		{"99999999999999999999", "", true},
		{"1e400", "", true},
		{"abc", "", false},
		{"NaN", "", false},
	}
	for _, tt := range tests {
		_, parseErr := strconv.ParseInt(tt.text, 10, 64)
		got, err := wholeNumber(tt.text, parseErr)
		if tt.want != "" {
			if err != nil || got.String() != tt.want {
				t.Errorf("wholeNumber(%q) = (%v, %v), want %s", tt.text, got, err, tt.want)
			}
			continue
		}
		if err == nil {
			t.Errorf("wholeNumber(%q) = %v, want error", tt.text, got)
			continue
		}
		if errors.Is(err, errNarrowing) != tt.narrow {
			t.Errorf("wholeNumber(%q) = %v, narrowing want %v", tt.text, err, tt.narrow)
		}
	}
}

func TestDecodeAs_WholeNumbers(t *testing.T) {
	v, err := decodeAs(&types.AttributeValueMemberN{Value: "1e3"}, reflect.TypeFor[time.Duration]())
	if err != nil || v.Interface().(time.Duration) != 1000 {
		t.Errorf("expected 1000ns, got %v %v", v, err)
	}

	_, err = decodeAs(&types.AttributeValueMemberN{Value: "-1"}, reflect.TypeFor[uint32]())
	if !errors.Is(err, errNarrowing) {
		t.Errorf("expected negative into uint to be out of range, got %v", err)
	}

	u, err := decodeAs(&types.AttributeValueMemberN{Value: "2.5e1"}, reflect.TypeFor[uint8]())
	if err != nil || u.Uint() != 25 {
		t.Errorf("expected 25, got %v %v", u, err)
	}
}

func TestCheckFinite(t *testing.T) {
	for _, f := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		if err := checkFinite(reflect.ValueOf(f)); !errors.Is(err, errNarrowing) {
			t.Errorf("checkFinite(%v) = %v, want errNarrowing", f, err)
		}
	}
	if err := checkFinite(reflect.ValueOf(float32(1.5))); err != nil {
		t.Errorf("unexpected error %v", err)
	}
	if err := checkFinite(reflect.ValueOf("NaN")); err != nil {
		t.Errorf("strings are checked after parsing, got %v", err)
	}
}

func TestSetBytes_Array(t *testing.T) {
	out := reflect.New(reflect.TypeFor[[3]byte]()).Elem()
	if err := setBytes(out, []byte{1, 2, 3}); err != nil {
		t.Fatal(err)
	}
	if out.Interface().([3]byte) != [3]byte{1, 2, 3} {
		t.Errorf("unexpected array %v", out)
	}
	if err := setBytes(out, []byte{1, 2}); !errors.Is(err, errNarrowing) {
		t.Errorf("expected length mismatch to be out of range, got %v", err)
	}
}

type Page[T any] struct {
	Items []T
}

func TestSimpleName(t *testing.T) {
	if got := simpleName(reflect.TypeFor[Page[int]]()); got != "Page" {
		t.Errorf("expected Page, got %q", got)
	}
	if got := simpleName(reflect.TypeFor[Base]()); got != "Base" {
		t.Errorf("expected Base, got %q", got)
	}
}

func TestDecodeColumn_NullRule(t *testing.T) {
	if _, err := decodeColumn("P", null(), reflect.TypeFor[int]()); !errors.Is(err, errNotNullable) {
		t.Errorf("expected errNotNullable, got %v", err)
	}
	v, err := decodeColumn("P", nil, reflect.TypeFor[map[string]int]())
	if err != nil || !v.IsNil() {
		t.Errorf("expected nil map, got %v %v", v, err)
	}
}

func TestEncodeSet(t *testing.T) {
	av, err := encodeSet(reflect.ValueOf([]int{1, 2}), StorageNumberSet)
	if err != nil {
		t.Fatal(err)
	}
	ns, ok := av.(*types.AttributeValueMemberNS)
	if !ok || !reflect.DeepEqual(ns.Value, []string{"1", "2"}) {
		t.Errorf("unexpected set %#v", av)
	}

	if _, err := encodeSet(reflect.ValueOf([]int{1}), StorageBinarySet); !errors.Is(err, errIncompatible) {
		t.Errorf("expected errIncompatible, got %v", err)
	}
	if _, err := encodeSet(reflect.ValueOf("x"), StorageStringSet); !errors.Is(err, errIncompatible) {
		t.Errorf("expected errIncompatible, got %v", err)
	}
}

// --- Naming ---

func TestNaming_Apply(t *testing.T) {
	tests := []struct {
		naming Naming
		in     string
		want   string
	}{
		{NamingIdentity, "FavoriteColor", "FavoriteColor"},
		{NamingSnakeCase, "FavoriteColor", "favorite_color"},
		{NamingLowerCamel, "FavoriteColor", "favoriteColor"},
		{NamingPluralSnake, "UserAccount", "user_accounts"},
		{NamingSnakeCase, "UserID", "user_id"},
		{NamingSnakeCase, "OwnerUUID", "owner_uuid"},
		{NamingLowerCamel, "ID", "id"},
		{NamingSnakeCase, "", ""},
	}
	for _, tt := range tests {
		if got := tt.naming.Apply(tt.in); got != tt.want {
			t.Errorf("%s.Apply(%q) = %q, want %q", tt.naming, tt.in, got, tt.want)
		}
	}
	if Naming(42).valid() || Naming(42).String() != "unknown" {
		t.Error("expected out-of-range naming to be invalid")
	}
}
