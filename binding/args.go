package binding

import "math"

// Args is the argument list handed to an endpoint method. Coerced positions
// hold nil, bool, float64 or string depending on their TypeTag.
type Args []any

// Value returns the raw argument at i, or nil when i is out of range.
func (a Args) Value(i int) any {
	if i < 0 || i >= len(a) {
		return nil
	}
	return a[i]
}

// Number returns a Number argument; ok is false when it is null.
func (a Args) Number(i int) (float64, bool) {
	f, ok := a.Value(i).(float64)
	return f, ok
}

// Int is Number truncated to an int; ok is false when it does not fit.
func (a Args) Int(i int) (int, bool) {
	f, ok := a.Number(i)
	if !ok || f < float64(math.MinInt) || f >= -float64(math.MinInt) {
		return 0, false
	}
	return int(f), true
}

// String returns a String argument; ok is false when it is null.
func (a Args) String(i int) (string, bool) {
	s, ok := a.Value(i).(string)
	return s, ok
}

// Bool returns a Boolean argument. A null Boolean reads as false.
func (a Args) Bool(i int) bool {
	b, _ := a.Value(i).(bool)
	return b
}

// Request returns the request facet injected at i.
func (a Args) Request(i int) Request {
	r, _ := a.Value(i).(Request)
	return r
}

// Response returns the response facet injected at i.
func (a Args) Response(i int) Response {
	r, _ := a.Value(i).(Response)
	return r
}
