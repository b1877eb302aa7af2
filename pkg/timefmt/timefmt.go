// Package timefmt formats and parses the elapsed-time strings stored in
// participant results.
//
// Stored results use MM:SS or HH:MM:SS. The stopwatch displays MM:SS.CC. The
// time picker uses MM:SS:mmm with an optional :uuu microsecond segment.
package timefmt

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

var ErrInvalidFormat = errors.New("invalid time format")

// FormatElapsed renders milliseconds as MM:SS, or HH:MM:SS once an hour is reached.
func FormatElapsed(ms int64) string {
	if ms < 0 {
		ms = 0
	}
	total := ms / 1000
	h := total / 3600
	m := (total % 3600) / 60
	s := total % 60
	if h > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}

// FormatStopwatch renders milliseconds as MM:SS.CC. Minutes are not wrapped into hours.
func FormatStopwatch(ms int64) string {
	if ms < 0 {
		ms = 0
	}
	m := ms / 60000
	s := (ms / 1000) % 60
	cs := (ms % 1000) / 10
	return fmt.Sprintf("%02d:%02d.%02d", m, s, cs)
}

// ParseDuration reads MM:SS (two segments) or HH:MM:SS (three segments). The
// seconds segment may carry a fractional part.
func ParseDuration(s string) (time.Duration, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	var h, m int64
	var sec float64
	var err error
	switch len(parts) {
	case 2:
		if m, err = parseUnit(parts[0]); err != nil {
			return 0, fmt.Errorf("%w: %q", ErrInvalidFormat, s)
		}
		sec, err = parseSeconds(parts[1])
	case 3:
		if h, err = parseUnit(parts[0]); err != nil {
			return 0, fmt.Errorf("%w: %q", ErrInvalidFormat, s)
		}
		if m, err = parseUnit(parts[1]); err != nil {
			return 0, fmt.Errorf("%w: %q", ErrInvalidFormat, s)
		}
		sec, err = parseSeconds(parts[2])
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidFormat, s)
	}
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidFormat, s)
	}
	total := float64(h)*3600 + float64(m)*60 + sec
	if total >= maxSeconds {
		return 0, fmt.Errorf("%w: %q out of range", ErrInvalidFormat, s)
	}
	return time.Duration(total * float64(time.Second)), nil
}

// maxSeconds is the first value whose nanosecond count no longer fits a time.Duration.
const maxSeconds = float64(math.MaxInt64) / float64(time.Second)

// Seconds is ParseDuration expressed in (fractional) seconds.
func Seconds(s string) (float64, error) {
	d, err := ParseDuration(s)
	if err != nil {
		return 0, err
	}
	return d.Seconds(), nil
}

func parseUnit(s string) (int64, error) {
	v, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || v < 0 {
		return 0, ErrInvalidFormat
	}
	return v, nil
}

func parseSeconds(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, ErrInvalidFormat
	}
	return v, nil
}

// Picker is the structured MM:SS:mmm[:uuu] value used by the time picker.
type Picker struct {
	Minutes int
	Seconds int
	Millis  int
	Micros  int
}

// ParsePicker accepts 2, 3 or 4 colon-separated segments; missing trailing
// segments are zero.
func ParsePicker(s string) (Picker, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) < 2 || len(parts) > 4 {
		return Picker{}, fmt.Errorf("%w: %q", ErrInvalidFormat, s)
	}
	vals := [4]int{}
	limits := [4]int64{-1, 59, 999, 999}
	for i, p := range parts {
		v, err := parseUnit(p)
		if err != nil || (limits[i] >= 0 && v > limits[i]) {
			return Picker{}, fmt.Errorf("%w: %q", ErrInvalidFormat, s)
		}
		vals[i] = int(v)
	}
	return Picker{Minutes: vals[0], Seconds: vals[1], Millis: vals[2], Micros: vals[3]}, nil
}

// String renders zero-padded MM:SS:mmm, adding :uuu only when microseconds are set.
func (p Picker) String() string {
	if p.Micros > 0 {
		return fmt.Sprintf("%02d:%02d:%03d:%03d", p.Minutes, p.Seconds, p.Millis, p.Micros)
	}
	return fmt.Sprintf("%02d:%02d:%03d", p.Minutes, p.Seconds, p.Millis)
}

func (p Picker) Duration() time.Duration {
	return time.Duration(p.Minutes)*time.Minute +
		time.Duration(p.Seconds)*time.Second +
		time.Duration(p.Millis)*time.Millisecond +
		time.Duration(p.Micros)*time.Microsecond
}

func PickerFromDuration(d time.Duration) Picker {
	if d < 0 {
		d = 0
	}
	us := d.Microseconds()
	return Picker{
		Minutes: int(us / 60_000_000),
		Seconds: int(us/1_000_000) % 60,
		Millis:  int(us/1000) % 1000,
		Micros:  int(us % 1000),
	}
}
