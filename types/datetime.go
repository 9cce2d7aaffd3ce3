package types

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// CIMDateTime is the CIM datetime type: either an absolute timestamp with a
// UTC offset, or an interval (a duration). Exactly one of the two forms is
// populated, selected by IsInterval.
//
// The textual form is a fixed 25-character pattern (DSP0004 Section 5.2.1):
//
//	yyyymmddhhmmss.mmmmmm±uuu   timestamp, uuu = UTC offset in minutes
//	ddddddddhhmmss.mmmmmm:000   interval
//
// Trailing significant digits may be replaced by '*' to express reduced
// precision. The wildcards must form a trailing run: left of the '.' the
// run must begin on a field boundary (whole year/month/day/... fields
// only), while the microseconds field may be partially wildcarded. A '*'
// followed by a digit within the same field does not parse.
type CIMDateTime struct {
	IsInterval bool

	// Timestamp fields.
	Year, Month, Day int
	// UTCOffset is the timezone offset in minutes east of UTC.
	UTCOffset int

	// Interval field.
	Days int

	// Shared fields.
	Hour, Minute, Second, Microsecond int

	// Precision is the number of significant digits before the first '*'
	// wildcard, counted over the 20 digits of the value (offset excluded),
	// or -1 if the value carries no wildcard.
	Precision int
}

const datetimeLen = 25

var timestampLayouts = struct{ dot, sep int }{dot: 14, sep: 21}

// ParseDateTime parses the 25-character CIM datetime form. The interval
// pattern is tried first, then the timestamp pattern; if neither matches a
// *FormatError is returned.
func ParseDateTime(text string) (*CIMDateTime, error) {
	if len(text) != datetimeLen {
		return nil, dtErr(text, "must be exactly 25 characters")
	}
	if text[timestampLayouts.dot] != '.' {
		return nil, dtErr(text, "missing '.' separator")
	}

	switch text[timestampLayouts.sep] {
	case ':':
		return parseInterval(text)
	case '+', '-':
		return parseTimestamp(text)
	}
	return nil, dtErr(text, "separator must be ':', '+' or '-'")
}

// Start offsets of the fields left of the '.' separator.
var (
	timestampFields = []int{0, 4, 6, 8, 10, 12}
	intervalFields  = []int{0, 8, 10, 12}
)

// checkWildcards validates the wildcard run over the 21-character
// significand (20 digits plus the '.') and returns the index of the first
// '*' (the separator index when there is none) together with the
// precision, or -1 when no wildcard is present. Once a '*' appears, every
// later digit of the significand must also be '*'. Left of the '.' the
// run must begin on one of the given field boundaries; only the
// microseconds field may be cut mid-field.
func checkWildcards(text string, fields []int) (int, int, error) {
	first := strings.IndexByte(text[:timestampLayouts.sep], '*')
	if first < 0 {
		return timestampLayouts.sep, -1, nil
	}
	for i := first; i < timestampLayouts.sep; i++ {
		if i == timestampLayouts.dot {
			continue
		}
		if text[i] != '*' {
			return 0, 0, dtErr(text, "wildcards must be a trailing run")
		}
	}
	if first < timestampLayouts.dot {
		aligned := false
		for _, f := range fields {
			if f == first {
				aligned = true
				break
			}
		}
		if !aligned {
			return 0, 0, dtErr(text, "wildcards left of '.' must cover whole fields")
		}
		return first, first, nil
	}
	// first is past the '.' here; precision counts digits only.
	return first, first - 1, nil
}

func parseInterval(text string) (*CIMDateTime, error) {
	wild, precision, err := checkWildcards(text, intervalFields)
	if err != nil {
		return nil, err
	}
	if text[22:25] != "000" {
		return nil, dtErr(text, "interval offset must be ':000'")
	}
	days, err := dtField(text, 0, 8, wild)
	if err != nil {
		return nil, err
	}
	hour, err := dtField(text, 8, 10, wild)
	if err != nil {
		return nil, err
	}
	minute, err := dtField(text, 10, 12, wild)
	if err != nil {
		return nil, err
	}
	second, err := dtField(text, 12, 14, wild)
	if err != nil {
		return nil, err
	}
	micro, err := dtMicro(text)
	if err != nil {
		return nil, err
	}
	if hour > 23 || minute > 59 || second > 59 {
		return nil, dtErr(text, "interval time fields out of range")
	}
	return &CIMDateTime{
		IsInterval:  true,
		Days:        days,
		Hour:        hour,
		Minute:      minute,
		Second:      second,
		Microsecond: micro,
		Precision:   precision,
	}, nil
}

func parseTimestamp(text string) (*CIMDateTime, error) {
	wild, precision, err := checkWildcards(text, timestampFields)
	if err != nil {
		return nil, err
	}
	year, err := dtField(text, 0, 4, wild)
	if err != nil {
		return nil, err
	}
	month, err := dtField(text, 4, 6, wild)
	if err != nil {
		return nil, err
	}
	day, err := dtField(text, 6, 8, wild)
	if err != nil {
		return nil, err
	}
	hour, err := dtField(text, 8, 10, wild)
	if err != nil {
		return nil, err
	}
	minute, err := dtField(text, 10, 12, wild)
	if err != nil {
		return nil, err
	}
	second, err := dtField(text, 12, 14, wild)
	if err != nil {
		return nil, err
	}
	micro, err := dtMicro(text)
	if err != nil {
		return nil, err
	}
	offset, err := dtField(text, 22, 25, datetimeLen)
	if err != nil {
		return nil, err
	}
	if text[timestampLayouts.sep] == '-' {
		offset = -offset
	}
	// Wildcarded month/day read as zero; range-check only significant
	// fields.
	if (wild > 4 && (month < 1 || month > 12)) ||
		(wild > 6 && (day < 1 || day > 31)) ||
		hour > 23 || minute > 59 || second > 59 {
		return nil, dtErr(text, "timestamp fields out of range")
	}
	return &CIMDateTime{
		Year:        year,
		Month:       month,
		Day:         day,
		Hour:        hour,
		Minute:      minute,
		Second:      second,
		Microsecond: micro,
		UTCOffset:   offset,
		Precision:   precision,
	}, nil
}

// dtField parses one fixed-width field, reading it as zero when it lies
// inside the wildcard run (the run is field-aligned, so a field is either
// all digits or all '*').
func dtField(text string, from, to, wildStart int) (int, error) {
	if from >= wildStart {
		return 0, nil
	}
	v, err := strconv.Atoi(text[from:to])
	if err != nil {
		return 0, dtErr(text, fmt.Sprintf("characters %d..%d must be digits", from, to-1))
	}
	return v, nil
}

// dtMicro parses the microseconds field, treating wildcarded digits as zero.
func dtMicro(text string) (int, error) {
	s := text[15:21]
	s = strings.ReplaceAll(s, "*", "0")
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, dtErr(text, "microseconds must be digits")
	}
	return v, nil
}

func dtErr(text, reason string) error {
	return &FormatError{Type: TypeDateTime, Text: text, Reason: reason}
}

// NewTimestamp builds a full-precision timestamp value from t, keeping its
// timezone as the UTC offset.
func NewTimestamp(t time.Time) *CIMDateTime {
	_, secs := t.Zone()
	return &CIMDateTime{
		Year:        t.Year(),
		Month:       int(t.Month()),
		Day:         t.Day(),
		Hour:        t.Hour(),
		Minute:      t.Minute(),
		Second:      t.Second(),
		Microsecond: t.Nanosecond() / 1000,
		UTCOffset:   secs / 60,
		Precision:   -1,
	}
}

// NewInterval builds a full-precision interval value from d. Negative
// durations are not representable.
func NewInterval(d time.Duration) (*CIMDateTime, error) {
	if d < 0 {
		return nil, dtErr(d.String(), "interval cannot be negative")
	}
	micro := d.Microseconds()
	return &CIMDateTime{
		IsInterval:  true,
		Days:        int(micro / (24 * 3600 * 1e6)),
		Hour:        int(micro / (3600 * 1e6) % 24),
		Minute:      int(micro / (60 * 1e6) % 60),
		Second:      int(micro / 1e6 % 60),
		Microsecond: int(micro % 1e6),
		Precision:   -1,
	}, nil
}

// Time converts a timestamp value to time.Time. Calling Time on an interval
// is an error.
func (dt *CIMDateTime) Time() (time.Time, error) {
	if dt.IsInterval {
		return time.Time{}, dtErr(dt.String(), "not a timestamp")
	}
	loc := time.FixedZone("", dt.UTCOffset*60)
	return time.Date(dt.Year, time.Month(dt.Month), dt.Day,
		dt.Hour, dt.Minute, dt.Second, dt.Microsecond*1000, loc), nil
}

// Duration converts an interval value to time.Duration. Calling Duration on
// a timestamp is an error.
func (dt *CIMDateTime) Duration() (time.Duration, error) {
	if !dt.IsInterval {
		return 0, dtErr(dt.String(), "not an interval")
	}
	micro := int64(dt.Days)*24*3600*1e6 +
		int64(dt.Hour)*3600*1e6 +
		int64(dt.Minute)*60*1e6 +
		int64(dt.Second)*1e6 +
		int64(dt.Microsecond)
	return time.Duration(micro) * time.Microsecond, nil
}

// Equal reports field-wise equality, including precision.
func (dt *CIMDateTime) Equal(other *CIMDateTime) bool {
	if dt == nil || other == nil {
		return dt == other
	}
	return *dt == *other
}

// String renders the canonical 25-character form. Digits past Precision
// are written back as '*', left of the '.' included.
func (dt *CIMDateTime) String() string {
	var sig string
	if dt.IsInterval {
		sig = fmt.Sprintf("%08d%02d%02d%02d.%06d",
			dt.Days, dt.Hour, dt.Minute, dt.Second, dt.Microsecond)
	} else {
		sig = fmt.Sprintf("%04d%02d%02d%02d%02d%02d.%06d",
			dt.Year, dt.Month, dt.Day, dt.Hour, dt.Minute, dt.Second, dt.Microsecond)
	}
	b := []byte(sig)
	if dt.Precision >= 0 {
		for i := range b {
			if i == timestampLayouts.dot {
				continue
			}
			digit := i
			if i > timestampLayouts.dot {
				digit--
			}
			if digit >= dt.Precision {
				b[i] = '*'
			}
		}
	}
	if dt.IsInterval {
		return string(b) + ":000"
	}
	sign := "+"
	off := dt.UTCOffset
	if off < 0 {
		sign = "-"
		off = -off
	}
	return fmt.Sprintf("%s%s%03d", b, sign, off)
}
