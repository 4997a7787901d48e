package dispatch

import (
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/darmiel/toki/internal/core"
)

const (
	serialKey = "serial"
	detailKey = "detail"
)

// ResolveSerial finds the serial of the token an event is about.
//
// Candidates in order of precedence:
//  1. the "serial" parameter of the inbound request
//  2. the "serial" field in the "detail" section of the response body
//  3. the "serial" field of the current audit record
//
// The first non-empty candidate wins. ok is false if none of them is set.
func ResolveSerial(ec core.EventContext) (serial string, ok bool) {
	candidates := []any{
		ec.Request[serialKey],
		responseSerial(ec.Response),
		ec.Audit[serialKey],
	}
	for _, c := range candidates {
		if s := scalarString(c); s != "" {
			return s, true
		}
	}
	return "", false
}

func responseSerial(body map[string]any) any {
	detail, ok := body[detailKey].(map[string]any)
	if !ok {
		return nil
	}
	return detail[serialKey]
}

// scalarString renders a scalar candidate. nil, false, zero numbers and non-scalars
// are treated as absent so the next candidate is tried.
func scalarString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		if !t {
			return ""
		}
		return "true"
	case map[string]any, []any:
		return ""
	case json.Number:
		if f, err := t.Float64(); err == nil && f == 0 {
			return ""
		}
		return t.String()
	default:
		if isZeroNumber(reflect.ValueOf(t)) {
			return ""
		}
		return fmt.Sprint(t)
	}
}

func isZeroNumber(rv reflect.Value) bool {
	switch {
	case rv.CanInt():
		return rv.Int() == 0
	case rv.CanUint():
		return rv.Uint() == 0
	case rv.CanFloat():
		return rv.Float() == 0
	}
	return false
}
