package core

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ValueKind is the shape a configured option value arrived in.
type ValueKind uint8

const (
	KindUnset ValueKind = iota
	KindString
	KindInt
	KindBool
)

func (k ValueKind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindInt:
		return "integer"
	case KindBool:
		return "boolean"
	default:
		return "unset"
	}
}

// Value is a loosely typed handler option value.
// Depending on how a handler definition was stored or transmitted, the same option may arrive
// as a string, an integer or a boolean, so all three are kept as-is and converted on access.
type Value struct {
	kind ValueKind
	str  string
	num  int64
	flag bool
}

func StringValue(s string) Value {
	return Value{kind: KindString, str: s}
}

func IntValue(i int64) Value {
	return Value{kind: KindInt, num: i}
}

func BoolValue(b bool) Value {
	return Value{kind: KindBool, flag: b}
}

// ValueOf converts a decoded YAML/JSON scalar into a Value.
// Integral floats (as produced by encoding/json) become integers, everything else that is not
// a string, integer or boolean is rendered as a string.
func ValueOf(v any) Value {
	switch t := v.(type) {
	case nil:
		return Value{}
	case Value:
		return t
	case string:
		return StringValue(t)
	case bool:
		return BoolValue(t)
	case int:
		return IntValue(int64(t))
	case int8:
		return IntValue(int64(t))
	case int16:
		return IntValue(int64(t))
	case int32:
		return IntValue(int64(t))
	case int64:
		return IntValue(t)
	case uint:
		return IntValue(int64(t))
	case uint8:
		return IntValue(int64(t))
	case uint16:
		return IntValue(int64(t))
	case uint32:
		return IntValue(int64(t))
	case uint64:
		if t > math.MaxInt64 {
			return StringValue(strconv.FormatUint(t, 10))
		}
		return IntValue(int64(t))
	case float32:
		return ValueOf(float64(t))
	case float64:
		if t == math.Trunc(t) && math.Abs(t) < math.MaxInt64 {
			return IntValue(int64(t))
		}
		return StringValue(strconv.FormatFloat(t, 'f', -1, 64))
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return IntValue(i)
		}
		return StringValue(t.String())
	default:
		return StringValue(fmt.Sprint(t))
	}
}

func (v Value) Kind() ValueKind {
	return v.kind
}

func (v Value) IsSet() bool {
	return v.kind != KindUnset
}

// String renders the value the way an operator would have typed it.
func (v Value) String() string {
	switch v.kind {
	case KindString:
		return v.str
	case KindInt:
		return strconv.FormatInt(v.num, 10)
	case KindBool:
		return strconv.FormatBool(v.flag)
	default:
		return ""
	}
}

// Int returns the value as an integer. Strings are parsed after trimming whitespace.
func (v Value) Int() (int64, error) {
	switch v.kind {
	case KindInt:
		return v.num, nil
	case KindString:
		i, err := strconv.ParseInt(strings.TrimSpace(v.str), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("'%s' is not an integer", v.str)
		}
		return i, nil
	default:
		return 0, fmt.Errorf("%s value is not an integer", v.kind)
	}
}

// Truthy reports whether the value is one of the three accepted "on" representations:
// the string "1", the integer 1 or the boolean true. Anything else, including "true" as a
// string, is false.
func (v Value) Truthy() bool {
	switch v.kind {
	case KindString:
		return v.str == "1"
	case KindInt:
		return v.num == 1
	case KindBool:
		return v.flag
	default:
		return false
	}
}

// Interface returns the underlying Go value (nil when unset).
func (v Value) Interface() any {
	switch v.kind {
	case KindString:
		return v.str
	case KindInt:
		return v.num
	case KindBool:
		return v.flag
	default:
		return nil
	}
}

func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Interface())
}

func (v *Value) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return err
	}
	switch raw.(type) {
	case map[string]any, []any:
		return fmt.Errorf("option value must be a string, integer or boolean")
	}
	*v = ValueOf(raw)
	return nil
}

func (v Value) MarshalYAML() (any, error) {
	return v.Interface(), nil
}

func (v *Value) UnmarshalYAML(unmarshal func(any) error) error {
	var raw any
	if err := unmarshal(&raw); err != nil {
		return err
	}
	switch raw.(type) {
	case map[string]any, []any:
		return fmt.Errorf("option value must be a string, integer or boolean")
	}
	*v = ValueOf(raw)
	return nil
}

// Options maps option names of one action to their configured values.
type Options map[string]Value

// OptionsOf converts a loosely typed map (e.g. decoded JSON) into Options.
func OptionsOf(raw map[string]any) Options {
	opts := make(Options, len(raw))
	for k, v := range raw {
		opts[k] = ValueOf(v)
	}
	return opts
}

// Get returns the value for name and whether it was configured at all.
func (o Options) Get(name string) (Value, bool) {
	v, ok := o[name]
	if !ok || !v.IsSet() {
		return Value{}, false
	}
	return v, true
}

// String returns the string form of the option, or fallback if it is unset or empty.
func (o Options) String(name, fallback string) string {
	if v, ok := o.Get(name); ok {
		if s := v.String(); s != "" {
			return s
		}
	}
	return fallback
}

// Truthy is shorthand for Get(name).Truthy(); unset options are false.
func (o Options) Truthy(name string) bool {
	v, _ := o.Get(name)
	return v.Truthy()
}

// Map returns the options as plain Go values, e.g. for expression environments.
func (o Options) Map() map[string]any {
	m := make(map[string]any, len(o))
	for k, v := range o {
		m[k] = v.Interface()
	}
	return m
}
