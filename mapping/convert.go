package mapping

import (
	"encoding"
	"errors"
	"fmt"
	"math"
	"math/big"
	"reflect"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/vmihailenco/msgpack/v5"
)

var (
	textUnmarshalerType = reflect.TypeFor[encoding.TextUnmarshaler]()

	errIncompatible = errors.New("incompatible shape")
	errNarrowing    = errors.New("value out of range")
	errNotNullable  = errors.New("type is not nullable")
)

func null() types.AttributeValue {
	return &types.AttributeValueMemberNULL{Value: true}
}

func isNull(av types.AttributeValue) bool {
	_, ok := av.(*types.AttributeValueMemberNULL)
	return av == nil || ok
}

// encodeColumn converts a field value to its storage representation.
// The storage kind is the explicit override, else the declared kind, else the
// kind of the runtime value.
func encodeColumn(col *BoundColumn, v reflect.Value) (types.AttributeValue, error) {
	for v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface {
		if v.IsNil() {
			return null(), nil
		}
		v = v.Elem()
	}
	if (v.Kind() == reflect.Map || v.Kind() == reflect.Slice) && v.IsNil() {
		return null(), nil
	}

	st := col.Override
	if st == StorageDynamic {
		st = col.StorageType
	}
	if st == StorageDynamic {
		runtime, ok := naturalStorageType(v.Type())
		if !ok || runtime == StorageDynamic {
			return nil, convErr(col.Property, v, "storage value", errIncompatible)
		}
		st = runtime
	}

	av, err := encodeAs(v, st)
	if err != nil {
		return nil, convErr(col.Property, v, st.String(), err)
	}
	return av, nil
}

func encodeAs(v reflect.Value, st StorageType) (types.AttributeValue, error) {
	switch st {
	case StorageString:
		if tm, ok := asTextMarshaler(v); ok {
			text, err := tm.MarshalText()
			if err != nil {
				return nil, err
			}
			return &types.AttributeValueMemberS{Value: string(text)}, nil
		}
		if s, ok := scalarText(v); ok {
			return &types.AttributeValueMemberS{Value: s}, nil
		}

	case StorageNumber:
		if err := checkFinite(v); err != nil {
			return nil, err
		}
		if s, ok := formatNumber(v); ok {
			return &types.AttributeValueMemberN{Value: s}, nil
		}
		if v.Kind() == reflect.String {
			f, err := strconv.ParseFloat(v.String(), 64)
			if err != nil {
				return nil, err
			}
			if err := checkFinite(reflect.ValueOf(f)); err != nil {
				return nil, err
			}
			return &types.AttributeValueMemberN{Value: v.String()}, nil
		}

	case StorageBinary:
		if tm, ok := asTextMarshaler(v); ok {
			text, err := tm.MarshalText()
			if err != nil {
				return nil, err
			}
			return &types.AttributeValueMemberB{Value: text}, nil
		}
		switch {
		case isBytes(v.Type()):
			return &types.AttributeValueMemberB{Value: byteSlice(v)}, nil
		case v.Kind() == reflect.String:
			return &types.AttributeValueMemberB{Value: []byte(v.String())}, nil
		}
		switch v.Kind() {
		case reflect.Struct, reflect.Map, reflect.Slice, reflect.Array:
			b, err := msgpack.Marshal(v.Interface())
			if err != nil {
				return nil, err
			}
			return &types.AttributeValueMemberB{Value: b}, nil
		}

	case StorageBool:
		switch v.Kind() {
		case reflect.Bool:
			return &types.AttributeValueMemberBOOL{Value: v.Bool()}, nil
		case reflect.String:
			b, err := strconv.ParseBool(v.String())
			if err != nil {
				return nil, err
			}
			return &types.AttributeValueMemberBOOL{Value: b}, nil
		}

	case StorageStringSet, StorageNumberSet, StorageBinarySet:
		return encodeSet(v, st)

	case StorageList, StorageMap:
		av, err := attributevalue.Marshal(v.Interface())
		if err != nil {
			return nil, err
		}
		switch av.(type) {
		case *types.AttributeValueMemberL:
			if st == StorageList {
				return av, nil
			}
		case *types.AttributeValueMemberM:
			if st == StorageMap {
				return av, nil
			}
		}
	}
	return nil, errIncompatible
}

// encodeSet builds SS, NS or BS from a slice or array. Empty sets are stored
// as NULL because DynamoDB rejects empty sets.
func encodeSet(v reflect.Value, st StorageType) (types.AttributeValue, error) {
	if v.Kind() != reflect.Slice && v.Kind() != reflect.Array {
		return nil, errIncompatible
	}
	if v.Len() == 0 {
		return null(), nil
	}

	var (
		strs  []string
		blobs [][]byte
	)
	for i := 0; i < v.Len(); i++ {
		elem := v.Index(i)
		switch st {
		case StorageStringSet:
			s, ok := setText(elem)
			if !ok {
				return nil, errIncompatible
			}
			strs = append(strs, s)
		case StorageNumberSet:
			if err := checkFinite(elem); err != nil {
				return nil, err
			}
			s, ok := formatNumber(elem)
			if !ok {
				return nil, errIncompatible
			}
			strs = append(strs, s)
		case StorageBinarySet:
			if !isBytes(elem.Type()) {
				return nil, errIncompatible
			}
			blobs = append(blobs, byteSlice(elem))
		}
	}

	switch st {
	case StorageStringSet:
		return &types.AttributeValueMemberSS{Value: strs}, nil
	case StorageNumberSet:
		return &types.AttributeValueMemberNS{Value: strs}, nil
	default:
		return &types.AttributeValueMemberBS{Value: blobs}, nil
	}
}

func setText(v reflect.Value) (string, bool) {
	if tm, ok := asTextMarshaler(v); ok {
		text, err := tm.MarshalText()
		return string(text), err == nil
	}
	if v.Kind() == reflect.String {
		return v.String(), true
	}
	return "", false
}

// scalarText formats strings, numbers, booleans and byte slices as text.
func scalarText(v reflect.Value) (string, bool) {
	switch v.Kind() {
	case reflect.String:
		return v.String(), true
	case reflect.Bool:
		return strconv.FormatBool(v.Bool()), true
	}
	if isBytes(v.Type()) {
		return string(byteSlice(v)), true
	}
	return formatNumber(v)
}

// byteSlice copies the contents of a byte slice or byte array. Arrays read
// from a struct value are not addressable, so Bytes cannot be used on them.
func byteSlice(v reflect.Value) []byte {
	if v.Kind() == reflect.Slice {
		return append([]byte(nil), v.Bytes()...)
	}
	b := make([]byte, v.Len())
	for i := range b {
		b[i] = byte(v.Index(i).Uint())
	}
	return b
}

// setBytes stores b into a byte slice or byte array. An array only accepts
// exactly its length.
func setBytes(out reflect.Value, b []byte) error {
	if out.Kind() == reflect.Slice {
		out.SetBytes(append([]byte(nil), b...))
		return nil
	}
	if len(b) != out.Len() {
		return fmt.Errorf("%w: %d bytes into %s", errNarrowing, len(b), out.Type())
	}
	for i, c := range b {
		out.Index(i).SetUint(uint64(c))
	}
	return nil
}

// checkFinite rejects NaN and infinite floats, which have no N representation.
func checkFinite(v reflect.Value) error {
	if v.Kind() != reflect.Float32 && v.Kind() != reflect.Float64 {
		return nil
	}
	if f := v.Float(); math.IsNaN(f) || math.IsInf(f, 0) {
		return fmt.Errorf("%w: %v is not a finite number", errNarrowing, f)
	}
	return nil
}

func formatNumber(v reflect.Value) (string, bool) {
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(v.Int(), 10), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(v.Uint(), 10), true
	case reflect.Float32:
		return strconv.FormatFloat(v.Float(), 'f', -1, 32), true
	case reflect.Float64:
		return strconv.FormatFloat(v.Float(), 'f', -1, 64), true
	}
	return "", false
}

func asTextMarshaler(v reflect.Value) (encoding.TextMarshaler, bool) {
	if v.Type().Implements(textMarshalerType) {
		return v.Interface().(encoding.TextMarshaler), true
	}
	if reflect.PointerTo(v.Type()).Implements(textMarshalerType) {
		p := reflect.New(v.Type())
		p.Elem().Set(v)
		return p.Interface().(encoding.TextMarshaler), true
	}
	return nil, false
}

// decodeColumn converts a storage value to a value of type t. NULL and
// absent values decode to the zero value of nullable types only.
func decodeColumn(property string, av types.AttributeValue, t reflect.Type) (reflect.Value, error) {
	if isNull(av) {
		if isNullable(t) {
			return reflect.Zero(t), nil
		}
		return reflect.Value{}, &TypeConversionError{Property: property, Value: nil, Target: t.String(), Err: errNotNullable}
	}

	v, err := decodeAs(av, t)
	if err != nil {
		return reflect.Value{}, &TypeConversionError{Property: property, Value: rawValue(av), Target: t.String(), Err: err}
	}
	return v, nil
}

func decodeAs(av types.AttributeValue, t reflect.Type) (reflect.Value, error) {
	out := reflect.New(t).Elem()

	if t.Kind() == reflect.Pointer {
		elem, err := decodeAs(av, t.Elem())
		if err != nil {
			return reflect.Value{}, err
		}
		p := reflect.New(t.Elem())
		p.Elem().Set(elem)
		return p, nil
	}

	_, isNumber := av.(*types.AttributeValueMemberN)
	if reflect.PointerTo(t).Implements(textUnmarshalerType) && !(isNumber && isNumericKind(t.Kind())) {
		text, ok := storedText(av)
		if !ok {
			return reflect.Value{}, errIncompatible
		}
		if err := out.Addr().Interface().(encoding.TextUnmarshaler).UnmarshalText([]byte(text)); err != nil {
			return reflect.Value{}, err
		}
		return out, nil
	}

	if isBytes(t) {
		var b []byte
		switch x := av.(type) {
		case *types.AttributeValueMemberB:
			b = x.Value
		case *types.AttributeValueMemberS:
			b = []byte(x.Value)
		default:
			return reflect.Value{}, errIncompatible
		}
		if err := setBytes(out, b); err != nil {
			return reflect.Value{}, err
		}
		return out, nil
	}

	switch t.Kind() {
	case reflect.String:
		text, ok := storedText(av)
		if !ok {
			return reflect.Value{}, errIncompatible
		}
		out.SetString(text)
		return out, nil

	case reflect.Bool:
		switch x := av.(type) {
		case *types.AttributeValueMemberBOOL:
			out.SetBool(x.Value)
			return out, nil
		case *types.AttributeValueMemberS:
			b, err := strconv.ParseBool(x.Value)
			if err != nil {
				return reflect.Value{}, err
			}
			out.SetBool(b)
			return out, nil
		}
		return reflect.Value{}, errIncompatible

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		text, ok := numericText(av)
		if !ok {
			return reflect.Value{}, errIncompatible
		}
		n, err := strconv.ParseInt(text, 10, 64)
		if err != nil {
			whole, werr := wholeNumber(text, err)
			if werr != nil {
				return reflect.Value{}, werr
			}
			if !whole.IsInt64() {
				return reflect.Value{}, errNarrowing
			}
			n = whole.Int64()
		}
		if out.OverflowInt(n) {
			return reflect.Value{}, errNarrowing
		}
		out.SetInt(n)
		return out, nil

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		text, ok := numericText(av)
		if !ok {
			return reflect.Value{}, errIncompatible
		}
		n, err := strconv.ParseUint(text, 10, 64)
		if err != nil {
			whole, werr := wholeNumber(text, err)
			if werr != nil {
				return reflect.Value{}, werr
			}
			if !whole.IsUint64() {
				return reflect.Value{}, fmt.Errorf("%w: %s does not fit %s", errNarrowing, text, t)
			}
			n = whole.Uint64()
		}
		if out.OverflowUint(n) {
			return reflect.Value{}, errNarrowing
		}
		out.SetUint(n)
		return out, nil

	case reflect.Float32, reflect.Float64:
		text, ok := numericText(av)
		if !ok {
			return reflect.Value{}, errIncompatible
		}
		f, err := strconv.ParseFloat(text, 64)
		if errors.Is(err, strconv.ErrRange) {
			return reflect.Value{}, errNarrowing
		}
		if err != nil {
			return reflect.Value{}, err
		}
		if out.OverflowFloat(f) {
			return reflect.Value{}, errNarrowing
		}
		out.SetFloat(f)
		return out, nil

	case reflect.Interface:
		var x any
		if err := attributevalue.Unmarshal(av, &x); err != nil {
			return reflect.Value{}, err
		}
		if x == nil {
			return out, nil
		}
		if !reflect.TypeOf(x).AssignableTo(t) {
			return reflect.Value{}, errIncompatible
		}
		out.Set(reflect.ValueOf(x))
		return out, nil

	case reflect.Struct, reflect.Map, reflect.Slice, reflect.Array:
		switch x := av.(type) {
		case *types.AttributeValueMemberB:
			if err := msgpack.Unmarshal(x.Value, out.Addr().Interface()); err != nil {
				return reflect.Value{}, err
			}
			return out, nil
		case *types.AttributeValueMemberS, *types.AttributeValueMemberN, *types.AttributeValueMemberBOOL:
			return reflect.Value{}, errIncompatible
		}
		if err := attributevalue.Unmarshal(av, out.Addr().Interface()); err != nil {
			return reflect.Value{}, err
		}
		return out, nil
	}
	return reflect.Value{}, errIncompatible
}

// wholeNumber is the fallback for integer targets after strconv rejected
// text with parseErr. It accepts whole values in exponent or decimal notation
// ("1e3", "2.0") and returns them exactly; range checks are left to the
// caller. Malformed text yields parseErr, fractions and values far beyond
// 64 bits yield errNarrowing.
func wholeNumber(text string, parseErr error) (*big.Int, error) {
	if errors.Is(parseErr, strconv.ErrRange) {
		return nil, errNarrowing
	}
	f, err := strconv.ParseFloat(text, 64)
	if errors.Is(err, strconv.ErrRange) || (err == nil && math.Abs(f) > math.MaxUint64) {
		return nil, errNarrowing
	}
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, parseErr
	}
	r, ok := new(big.Rat).SetString(text)
	if !ok {
		return nil, parseErr
	}
	if !r.IsInt() {
		return nil, fmt.Errorf("%w: %s is not an integer", errNarrowing, text)
	}
	return r.Num(), nil
}

func numericText(av types.AttributeValue) (string, bool) {
	switch x := av.(type) {
	case *types.AttributeValueMemberN:
		return x.Value, true
	case *types.AttributeValueMemberS:
		return x.Value, true
	}
	return "", false
}

func storedText(av types.AttributeValue) (string, bool) {
	switch x := av.(type) {
	case *types.AttributeValueMemberS:
		return x.Value, true
	case *types.AttributeValueMemberN:
		return x.Value, true
	case *types.AttributeValueMemberB:
		return string(x.Value), true
	case *types.AttributeValueMemberBOOL:
		return strconv.FormatBool(x.Value), true
	}
	return "", false
}

func isNumericKind(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

// rawValue unwraps scalar attribute values for error messages.
func rawValue(av types.AttributeValue) any {
	switch x := av.(type) {
	case *types.AttributeValueMemberS:
		return x.Value
	case *types.AttributeValueMemberN:
		return x.Value
	case *types.AttributeValueMemberB:
		return x.Value
	case *types.AttributeValueMemberBOOL:
		return x.Value
	case *types.AttributeValueMemberNULL:
		return nil
	}
	return av
}

func convErr(property string, v reflect.Value, target string, err error) *TypeConversionError {
	var value any
	if v.IsValid() && v.CanInterface() {
		value = v.Interface()
	}
	return &TypeConversionError{Property: property, Value: value, Target: target, Err: err}
}
