package coerce

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// ColumnType is the declared type of a worksheet column.
type ColumnType string

const (
	DateTime ColumnType = "DATETIME"
	Date     ColumnType = "DATE"
	Time     ColumnType = "TIME"
	Number   ColumnType = "NUMBER"
	String   ColumnType = "STRING"
	Bool     ColumnType = "BOOL"
	Unknown  ColumnType = "UNKNOWN"
)

const (
	secondsPerDay = 86400
	// unixEpochSerial is the serial day number of 1970-01-01T00:00:00Z
	// (serial days count from 1899-12-30).
	unixEpochSerial = 25569

	// TimestampLayout is the ISO-8601 UTC layout used for DATETIME output.
	TimestampLayout = "2006-01-02T15:04:05.000000Z"

	minUnixSeconds = -62135596800 // 0001-01-01T00:00:00Z
	maxUnixSeconds = 253402300799 // 9999-12-31T23:59:59Z

	microsPerSecond = 1_000_000
	microsPerMinute = 60 * microsPerSecond
	microsPerHour   = 60 * microsPerMinute
	microsPerDay    = 24 * microsPerHour
)

// Coerce converts one raw cell value to the output value for a column of
// type t. It never fails: anything that cannot be converted is returned in
// its string form. Null input yields nil for every type.
func Coerce(v Value, t ColumnType) any {
	if v.Kind() == KindNull {
		return nil
	}

	switch t {
	case DateTime:
		return toDateTime(v)
	case Date:
		return toDate(v)
	case Time:
		return toDuration(v)
	case Number:
		return toNumber(v)
	case String:
		return v.String()
	case Bool:
		return toBool(v)
	case Unknown:
		return v.Native()
	default:
		return v.Native()
	}
}

// SerialToTime converts a serial day number to a UTC time truncated to the
// second. ok is false when the result falls outside years 1..9999.
func SerialToTime(serial float64) (time.Time, bool) {
	secs := math.Floor((serial - unixEpochSerial) * secondsPerDay)
	if math.IsNaN(secs) || secs < minUnixSeconds || secs > maxUnixSeconds {
		return time.Time{}, false
	}

	return time.Unix(int64(secs), 0).UTC(), true
}

// FormatTimestamp renders t in the DATETIME output layout.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

func toDateTime(v Value) any {
	if !v.IsNumeric() {
		return v.String()
	}
	t, ok := SerialToTime(v.float())
	if !ok {
		return v.String()
	}

	return FormatTimestamp(t)
}

func toDate(v Value) any {
	if !v.IsNumeric() {
		return v.String()
	}
	t, ok := SerialToTime(v.float())
	if !ok {
		return v.String()
	}

	return FormatTimestamp(t)[:len("2006-01-02")]
}

func toDuration(v Value) any {
	if !v.IsNumeric() {
		return v.String()
	}
	s, ok := FormatDuration(v.float() * secondsPerDay)
	if !ok {
		return v.String()
	}

	return s
}

// FormatDuration renders a number of seconds as "H:MM:SS", with a
// ".ffffff" suffix when there are fractional microseconds and a
// "N day(s), " prefix past 24 hours. ok is false for NaN, infinities and
// values too large to represent.
func FormatDuration(seconds float64) (string, bool) {
	if math.IsNaN(seconds) || math.IsInf(seconds, 0) {
		return "", false
	}
	micros := math.RoundToEven(seconds * microsPerSecond)
	if math.Abs(micros) >= math.MaxInt64/2 {
		return "", false
	}

	total := int64(micros)
	days := total / microsPerDay
	rem := total % microsPerDay
	if rem < 0 {
		days--
		rem += microsPerDay
	}

	hours := rem / microsPerHour
	rem %= microsPerHour
	minutes := rem / microsPerMinute
	rem %= microsPerMinute
	secs := rem / microsPerSecond
	frac := rem % microsPerSecond

	var b strings.Builder
	if days != 0 {
		unit := "days"
		if days == 1 || days == -1 {
			unit = "day"
		}
		fmt.Fprintf(&b, "%d %s, ", days, unit)
	}
	fmt.Fprintf(&b, "%d:%02d:%02d", hours, minutes, secs)
	if frac != 0 {
		fmt.Fprintf(&b, ".%06d", frac)
	}

	return b.String(), true
}

func toNumber(v Value) any {
	switch v.Kind() {
	case KindInt:
		return v.i
	case KindFloat:
		return v.f
	case KindString:
		f, err := strconv.ParseFloat(strings.TrimSpace(v.s), 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return v.s
		}
		return f
	case KindBool:
		if v.b {
			return int64(1)
		}
		return int64(0)
	default:
		return v.String()
	}
}

func toBool(v Value) any {
	switch v.Kind() {
	case KindBool:
		return v.b
	case KindString:
		switch strings.ToLower(v.s) {
		case "true", "t", "yes", "y":
			return true
		case "false", "f", "no", "n":
			return false
		}
	case KindInt:
		switch v.i {
		case 1, -1:
			return true
		case 0:
			return false
		}
	case KindFloat:
		switch v.f {
		case 1, -1:
			return true
		case 0:
			return false
		}
	case KindNull:
		return nil
	}

	return v.String()
}
