package model

import (
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cast"
)

// Driver values arrive as int64, float64, bool, string, time.Time or raw
// bytes depending on driver and column type. These helpers normalize them.

func text(v any) any {
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return v
}

// ToInt64 converts a driver value to int64. Text is always read as
// decimal: "010" is 10, and prefixed forms like "0x1F" are rejected.
func ToInt64(v any) (int64, error) {
	switch x := text(v).(type) {
	case bool:
		if x {
			return 1, nil
		}
		return 0, nil
	case string:
		s := strings.TrimSpace(x)
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return n, nil
		}
		if strings.ContainsAny(s, "xXoObB_") {
			return 0, errors.Newf("unable to cast %q to int64", x)
		}
		// "12.00" and friends.
		return cast.ToInt64E(s)
	default:
		return cast.ToInt64E(x)
	}
}

// ToInt converts a driver value to int.
func ToInt(v any) (int, error) {
	n, err := ToInt64(v)
	return int(n), err
}

// ToString converts a driver value to string. Times use RFC 3339.
func ToString(v any) (string, error) {
	if t, ok := v.(time.Time); ok {
		return t.Format(time.RFC3339Nano), nil
	}
	return cast.ToStringE(text(v))
}

// ToBool converts a driver value to bool. A single raw byte is read as a
// BIT(1) value.
func ToBool(v any) (bool, error) {
	if b, ok := v.([]byte); ok && len(b) == 1 && b[0] <= 1 {
		return b[0] == 1, nil
	}
	return cast.ToBoolE(text(v))
}

// ToFloat64 converts a driver value to float64.
func ToFloat64(v any) (float64, error) {
	return cast.ToFloat64E(text(v))
}

// ToTime converts a driver value to time.Time. Zone-less text is read in
// local time.
func ToTime(v any) (time.Time, error) {
	return cast.ToTimeInDefaultLocationE(text(v), time.Local)
}

// ToBytes converts a driver value to a byte slice.
func ToBytes(v any) ([]byte, error) {
	switch b := v.(type) {
	case []byte:
		return append([]byte(nil), b...), nil
	case string:
		return []byte(b), nil
	}
	return nil, errors.Newf("unable to cast %#v of type %T to []byte", v, v)
}
