package engine

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// Kind identifies the variant held by a Value.
type Kind int

const (
	KindNull Kind = iota
	KindString
	KindInt
	KindFloat
	KindBool
	KindMap
	KindList
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindString:
		return "string"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindBool:
		return "bool"
	case KindMap:
		return "map"
	case KindList:
		return "list"
	}
	return "unknown"
}

// Value is the closed set of attribute values the engine can store.
// The zero Value is the null value. Construct values with the
// *Value functions; inspect them with Kind and the As* accessors.
type Value struct {
	kind Kind
	str  string
	i    int64
	f    float64
	b    bool
	m    map[string]Value
	l    []Value
}

// Item is a stored record: attribute name to Value. Every item written
// through the engine must carry the table's partition and sort key
// attributes as string values.
type Item map[string]Value

// NullValue returns the null value.
func NullValue() Value { return Value{kind: KindNull} }

// StringValue returns a string value.
func StringValue(s string) Value { return Value{kind: KindString, str: s} }

// IntValue returns an integer number value.
func IntValue(i int64) Value { return Value{kind: KindInt, i: i} }

// FloatValue returns a fractional number value.
func FloatValue(f float64) Value { return Value{kind: KindFloat, f: f} }

// BoolValue returns a boolean value.
func BoolValue(b bool) Value { return Value{kind: KindBool, b: b} }

// TimeValue converts a timestamp to its stored textual form (RFC 3339,
// UTC). Timestamps are strings on the wire and read back as strings.
func TimeValue(t time.Time) Value {
	return StringValue(t.UTC().Format(time.RFC3339))
}

// MapValue returns a nested map value.
func MapValue(m map[string]Value) Value { return Value{kind: KindMap, m: m} }

// ListValue returns a nested list value.
func ListValue(l []Value) Value { return Value{kind: KindList, l: l} }

// NumberValue parses a wire decimal into an Int or Float value using the
// engine's classification rule: a decimal with a zero fractional part is
// an integer, anything else is a float. This rule cannot distinguish a
// stored 12 from a stored 12.0; both read back as IntValue(12).
func NumberValue(s string) (Value, error) {
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return IntValue(i), nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return Value{}, &SerializationError{Reason: fmt.Sprintf("unparseable number %q", s)}
	}
	// 2^63 is representable in float64 but not in int64, and MaxInt64
	// rounds up to it in float64; the upper bound must exclude the
	// boundary or int64(f) overflows.
	if f == math.Trunc(f) && f >= math.MinInt64 && f < float64(1<<63) {
		return IntValue(int64(f)), nil
	}
	return FloatValue(f), nil
}

// Kind returns the variant held by v.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether v is the null value.
func (v Value) IsNull() bool { return v.kind == KindNull }

// AsString returns the string held by v, if any.
func (v Value) AsString() (string, bool) { return v.str, v.kind == KindString }

// AsInt returns the integer held by v, if any.
func (v Value) AsInt() (int64, bool) { return v.i, v.kind == KindInt }

// AsFloat returns the float held by v, if any.
func (v Value) AsFloat() (float64, bool) { return v.f, v.kind == KindFloat }

// AsBool returns the boolean held by v, if any.
func (v Value) AsBool() (bool, bool) { return v.b, v.kind == KindBool }

// AsMap returns the nested map held by v, if any.
func (v Value) AsMap() (map[string]Value, bool) { return v.m, v.kind == KindMap }

// AsList returns the nested list held by v, if any.
func (v Value) AsList() ([]Value, bool) { return v.l, v.kind == KindList }

// Equal reports whether two values hold the same variant and contents.
// Int and Float values are never equal to each other, even when
// numerically identical.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindNull:
		return true
	case KindString:
		return v.str == o.str
	case KindInt:
		return v.i == o.i
	case KindFloat:
		return v.f == o.f
	case KindBool:
		return v.b == o.b
	case KindMap:
		if len(v.m) != len(o.m) {
			return false
		}
		for k, mv := range v.m {
			ov, ok := o.m[k]
			if !ok || !mv.Equal(ov) {
				return false
			}
		}
		return true
	case KindList:
		if len(v.l) != len(o.l) {
			return false
		}
		for i := range v.l {
			if !v.l[i].Equal(o.l[i]) {
				return false
			}
		}
		return true
	}
	return false
}

// serialize converts a Value to its DynamoDB attribute representation.
// Floats become fixed-point wire decimals so no precision is lost.
func serialize(v Value) (types.AttributeValue, error) {
	switch v.kind {
	case KindNull:
		return &types.AttributeValueMemberNULL{Value: true}, nil
	case KindString:
		return &types.AttributeValueMemberS{Value: v.str}, nil
	case KindInt:
		return &types.AttributeValueMemberN{Value: strconv.FormatInt(v.i, 10)}, nil
	case KindFloat:
		if math.IsNaN(v.f) || math.IsInf(v.f, 0) {
			return nil, &SerializationError{Reason: "non-finite float"}
		}
		return &types.AttributeValueMemberN{Value: strconv.FormatFloat(v.f, 'f', -1, 64)}, nil
	case KindBool:
		return &types.AttributeValueMemberBOOL{Value: v.b}, nil
	case KindMap:
		m := make(map[string]types.AttributeValue, len(v.m))
		for k, mv := range v.m {
			av, err := serialize(mv)
			if err != nil {
				return nil, err
			}
			m[k] = av
		}
		return &types.AttributeValueMemberM{Value: m}, nil
	case KindList:
		l := make([]types.AttributeValue, len(v.l))
		for i, lv := range v.l {
			av, err := serialize(lv)
			if err != nil {
				return nil, err
			}
			l[i] = av
		}
		return &types.AttributeValueMemberL{Value: l}, nil
	}
	return nil, &SerializationError{Reason: fmt.Sprintf("unsupported value kind %d", v.kind)}
}

// deserialize converts a DynamoDB attribute back to a Value. Numbers are
// classified per NumberValue. Binary and set attributes are outside the
// engine's value set and fail.
func deserialize(av types.AttributeValue) (Value, error) {
	switch a := av.(type) {
	case *types.AttributeValueMemberNULL:
		return NullValue(), nil
	case *types.AttributeValueMemberS:
		return StringValue(a.Value), nil
	case *types.AttributeValueMemberN:
		return NumberValue(a.Value)
	case *types.AttributeValueMemberBOOL:
		return BoolValue(a.Value), nil
	case *types.AttributeValueMemberM:
		m := make(map[string]Value, len(a.Value))
		for k, mav := range a.Value {
			v, err := deserialize(mav)
			if err != nil {
				return Value{}, err
			}
			m[k] = v
		}
		return MapValue(m), nil
	case *types.AttributeValueMemberL:
		l := make([]Value, len(a.Value))
		for i, lav := range a.Value {
			v, err := deserialize(lav)
			if err != nil {
				return Value{}, err
			}
			l[i] = v
		}
		return ListValue(l), nil
	}
	return Value{}, &SerializationError{Reason: fmt.Sprintf("unsupported attribute type %T", av)}
}

// toNative converts a Value to the equivalent native Go value, for
// handing to SDK marshalers that expect plain Go types.
func toNative(v Value) (any, error) {
	switch v.kind {
	case KindNull:
		return nil, nil
	case KindString:
		return v.str, nil
	case KindInt:
		return v.i, nil
	case KindFloat:
		if math.IsNaN(v.f) || math.IsInf(v.f, 0) {
			return nil, &SerializationError{Reason: "non-finite float"}
		}
		return v.f, nil
	case KindBool:
		return v.b, nil
	case KindMap:
		m := make(map[string]any, len(v.m))
		for k, mv := range v.m {
			nv, err := toNative(mv)
			if err != nil {
				return nil, err
			}
			m[k] = nv
		}
		return m, nil
	case KindList:
		l := make([]any, len(v.l))
		for i, lv := range v.l {
			nv, err := toNative(lv)
			if err != nil {
				return nil, err
			}
			l[i] = nv
		}
		return l, nil
	}
	return nil, &SerializationError{Reason: fmt.Sprintf("unsupported value kind %d", v.kind)}
}

// attrError prefixes the attribute name onto a conversion failure
// without stacking error prefixes; the result stays a typed
// SerializationError.
func attrError(name string, err error) error {
	var serr *SerializationError
	if errors.As(err, &serr) {
		return &SerializationError{Reason: fmt.Sprintf("attribute %q: %s", name, serr.Reason)}
	}
	return err
}

// serializeItem converts an Item to the DynamoDB wire form.
func serializeItem(item Item) (map[string]types.AttributeValue, error) {
	raw := make(map[string]types.AttributeValue, len(item))
	for name, v := range item {
		av, err := serialize(v)
		if err != nil {
			return nil, attrError(name, err)
		}
		raw[name] = av
	}
	return raw, nil
}

// deserializeItem converts a DynamoDB item to an Item.
func deserializeItem(raw map[string]types.AttributeValue) (Item, error) {
	item := make(Item, len(raw))
	for name, av := range raw {
		v, err := deserialize(av)
		if err != nil {
			return nil, attrError(name, err)
		}
		item[name] = v
	}
	return item, nil
}

// serializeValues converts caller-supplied expression values
// (":name" -> Value) to the wire form.
func serializeValues(values map[string]Value) (map[string]types.AttributeValue, error) {
	if len(values) == 0 {
		return nil, nil
	}
	out := make(map[string]types.AttributeValue, len(values))
	for placeholder, v := range values {
		if !strings.HasPrefix(placeholder, ":") {
			return nil, &ValidationError{Field: "values", Reason: fmt.Sprintf("placeholder %q must start with ':'", placeholder)}
		}
		av, err := serialize(v)
		if err != nil {
			return nil, err
		}
		out[placeholder] = av
	}
	return out, nil
}
