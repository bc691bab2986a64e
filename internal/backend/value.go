package backend

import (
	"fmt"
	"time"
)

// Kind tags the variants a column value can take.
type Kind int

const (
	KindNull Kind = iota
	KindInt
	KindText
	KindTime
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindInt:
		return "int"
	case KindText:
		return "text"
	case KindTime:
		return "time"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Value is a tagged variant over the column types the schema uses.
// Reads are type-checked; asking for the wrong kind returns a *TypeError
// instead of a zero value.
type Value struct {
	kind Kind
	i    int64
	s    string
	t    time.Time
}

// TypeError reports a typed read against a value of a different kind.
type TypeError struct {
	Want Kind
	Got  Kind
}

func (e *TypeError) Error() string {
	return fmt.Sprintf("value is %s, not %s", e.Got, e.Want)
}

func Null() Value            { return Value{kind: KindNull} }
func Int64(v int64) Value    { return Value{kind: KindInt, i: v} }
func Text(v string) Value    { return Value{kind: KindText, s: v} }
func Time(v time.Time) Value { return Value{kind: KindTime, t: v} }

func (v Value) Kind() Kind   { return v.kind }
func (v Value) IsNull() bool { return v.kind == KindNull }

func (v Value) Int() (int64, error) {
	if v.kind != KindInt {
		return 0, &TypeError{Want: KindInt, Got: v.kind}
	}
	return v.i, nil
}

func (v Value) Text() (string, error) {
	if v.kind != KindText {
		return "", &TypeError{Want: KindText, Got: v.kind}
	}
	return v.s, nil
}

func (v Value) Time() (time.Time, error) {
	if v.kind != KindTime {
		return time.Time{}, &TypeError{Want: KindTime, Got: v.kind}
	}
	return v.t, nil
}

// arg converts the value into something database/sql can bind.
func (v Value) arg() any {
	switch v.kind {
	case KindInt:
		return v.i
	case KindText:
		return v.s
	case KindTime:
		return v.t
	default:
		return nil
	}
}

// fromColumn converts a scanned column back into a Value.
func fromColumn(raw any) (Value, error) {
	switch x := raw.(type) {
	case nil:
		return Null(), nil
	case int64:
		return Int64(x), nil
	case string:
		return Text(x), nil
	case []byte:
		return Text(string(x)), nil
	case time.Time:
		return Time(x), nil
	default:
		return Value{}, fmt.Errorf("unsupported column type %T", raw)
	}
}

// Row is one result row, in select-list order.
type Row []Value

func args(params []Value) []any {
	out := make([]any, len(params))
	for i, p := range params {
		out[i] = p.arg()
	}
	return out
}
