package backend

import (
	"errors"
	"testing"
	"time"
)

func TestValueTypedReads(t *testing.T) {
	now := time.Unix(1700000000, 0).UTC()

	v := Int64(42)
	if got, err := v.Int(); err != nil || got != 42 {
		t.Fatalf("Int() = %d, %v", got, err)
	}
	if _, err := v.Text(); err == nil {
		t.Fatalf("expected type error reading int as text")
	}

	v = Text("hello")
	if got, err := v.Text(); err != nil || got != "hello" {
		t.Fatalf("Text() = %q, %v", got, err)
	}

	v = Time(now)
	if got, err := v.Time(); err != nil || !got.Equal(now) {
		t.Fatalf("Time() = %v, %v", got, err)
	}

	v = Null()
	if !v.IsNull() {
		t.Fatalf("expected null value")
	}
	_, err := v.Int()
	var typeErr *TypeError
	if !errors.As(err, &typeErr) {
		t.Fatalf("expected *TypeError, got %v", err)
	}
	if typeErr.Want != KindInt || typeErr.Got != KindNull {
		t.Fatalf("unexpected type error: %+v", typeErr)
	}
}

func TestFromColumn(t *testing.T) {
	now := time.Unix(1700000000, 0).UTC()

	cases := []struct {
		raw  any
		kind Kind
	}{
		{nil, KindNull},
		{int64(7), KindInt},
		{"text", KindText},
		{[]byte("bytes"), KindText},
		{now, KindTime},
	}
	for _, tc := range cases {
		v, err := fromColumn(tc.raw)
		if err != nil {
			t.Fatalf("fromColumn(%v) failed: %v", tc.raw, err)
		}
		if v.Kind() != tc.kind {
			t.Fatalf("fromColumn(%v) kind = %v, want %v", tc.raw, v.Kind(), tc.kind)
		}
	}

	if _, err := fromColumn(3.14); err == nil {
		t.Fatalf("expected error for unsupported column type")
	}
}
