package binding

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/spf13/cast"
)

var truthy = map[string]bool{"true": true, "y": true, "1": true}

// Coerce converts a raw extracted value to the declared tag. It never fails:
// values that cannot be represented become nil.
func Coerce(value any, tag TypeTag) any {
	switch tag {
	case Boolean:
		return toBoolean(value)
	case Number:
		return toNumber(value)
	case String:
		return toString(value)
	default:
		return value
	}
}

func toBoolean(value any) any {
	switch v := value.(type) {
	case nil:
		return nil
	case bool:
		return v
	case string:
		if v == "" {
			return nil
		}
		return truthy[strings.ToLower(v)]
	default:
		return truthy[strings.ToLower(fmt.Sprint(v))]
	}
}

// toNumber parses decimal and 0x/0o/0b prefixed strings. A blank string is
// zero. Results that are not finite become nil so they stay JSON encodable.
func toNumber(value any) any {
	if value == nil {
		return nil
	}
	if s, ok := value.(string); ok {
		s = strings.TrimSpace(s)
		if s == "" {
			return float64(0)
		}
		if base := radix(s); base != 0 {
			n, err := strconv.ParseUint(s[2:], base, 64)
			if err != nil {
				return nil
			}
			return float64(n)
		}
		value = s
	}
	f, err := cast.ToFloat64E(value)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return f
}

func radix(s string) int {
	if len(s) < 3 || s[0] != '0' {
		return 0
	}
	switch s[1] {
	case 'x', 'X':
		return 16
	case 'o', 'O':
		return 8
	case 'b', 'B':
		return 2
	}
	return 0
}

func toString(value any) any {
	if value == nil {
		return nil
	}
	s, err := cast.ToStringE(value)
	if err != nil {
		return fmt.Sprint(value)
	}
	return s
}
