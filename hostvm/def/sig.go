package def

import (
	"fmt"
	"math"
	"strings"
)

// ValidFieldSig reports whether sig is a field type the runtime can store.
func ValidFieldSig(sig string) bool {
	switch sig {
	case "I", "J", "Z", "F", "D":
		return true
	}
	return IsReference(sig)
}

// IsReference reports whether sig names an object or array type.
func IsReference(sig string) bool {
	switch {
	case strings.HasPrefix(sig, "["):
		return len(sig) > 1 && (ValidFieldSig(sig[1:]) || isPrimitiveArrayElem(sig[1:]))
	case strings.HasPrefix(sig, "L"):
		return len(sig) > 2 && strings.HasSuffix(sig, ";") && !strings.ContainsAny(sig[1:len(sig)-1], ";[")
	}
	return false
}

func isPrimitiveArrayElem(sig string) bool {
	switch sig {
	case "B", "C", "S":
		return true
	}
	return false
}

// ValidMethodSig reports whether sig has the form (args)ret.
func ValidMethodSig(sig string) bool {
	if !strings.HasPrefix(sig, "(") {
		return false
	}
	end := strings.IndexByte(sig, ')')
	if end < 0 {
		return false
	}
	ret := sig[end+1:]
	return ret == "V" || ValidFieldSig(ret) || isPrimitiveArrayElem(ret)
}

// Coerce converts a decoded field value to the Go type stored for sig:
// int32, int64, bool, float32 or float64 for primitives and the name of the
// referenced object for references. YAML and TOML decode numbers to
// different Go types, so both are accepted.
func Coerce(sig string, v any) (any, error) {
	switch sig {
	case "I":
		n, ok := asInt(v)
		if !ok {
			return nil, fmt.Errorf("want integer, got %T", v)
		}
		if n < math.MinInt32 || n > math.MaxInt32 {
			return nil, fmt.Errorf("%d overflows int32", n)
		}
		return int32(n), nil
	case "J":
		n, ok := asInt(v)
		if !ok {
			return nil, fmt.Errorf("want integer, got %T", v)
		}
		return n, nil
	case "Z":
		b, ok := v.(bool)
		if !ok {
			return nil, fmt.Errorf("want bool, got %T", v)
		}
		return b, nil
	case "F":
		f, ok := asFloat(v)
		if !ok {
			return nil, fmt.Errorf("want number, got %T", v)
		}
		return float32(f), nil
	case "D":
		f, ok := asFloat(v)
		if !ok {
			return nil, fmt.Errorf("want number, got %T", v)
		}
		return f, nil
	}

	if !IsReference(sig) {
		return nil, fmt.Errorf("unsupported signature %q", sig)
	}
	switch r := v.(type) {
	case nil:
		return "", nil
	case string:
		return r, nil
	default:
		return nil, fmt.Errorf("want object name, got %T", v)
	}
}

func asInt(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case uint64:
		if n > math.MaxInt64 {
			return 0, false
		}
		return int64(n), true
	}
	return 0, false
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	}
	if i, ok := asInt(v); ok {
		return float64(i), true
	}
	return 0, false
}
