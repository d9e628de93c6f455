package calendar

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
)

const (
	// TimestampLayout is the only form the remote store accepts when opening a slot.
	TimestampLayout = "2006-01-02T15:04:05"
	DateLayout      = "2006-01-02"
)

var (
	ErrInvalidTimestamp = errors.New("invalid local timestamp")
	ErrInvalidDate      = errors.New("invalid date")
	ErrInvalidTime      = errors.New("invalid time of day")
)

// Layouts accepted when reading records back from the remote store. None of
// them carry a zone, so a value with an offset suffix fails to parse.
var readLayouts = []string{
	TimestampLayout,
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
}

var slotTimestampPattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}$`)

// LocalDateTime is a wall-clock timestamp with no zone attached.
//
// The wrapped time.Time is pinned to UTC only so that stdlib arithmetic and
// formatting work; it is never converted to or from another location.
type LocalDateTime struct {
	t time.Time
}

// ParseLocalDateTime reads a naive timestamp as returned by the remote store.
func ParseLocalDateTime(s string) (LocalDateTime, error) {
	s = strings.TrimSpace(s)
	for _, layout := range readLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return LocalDateTime{t: t.Truncate(time.Second)}, nil
		}
	}
	return LocalDateTime{}, fmt.Errorf("%w: %q", ErrInvalidTimestamp, s)
}

// ParseSlotTimestamp accepts exactly YYYY-MM-DDTHH:mm:ss.
func ParseSlotTimestamp(s string) (LocalDateTime, error) {
	if !slotTimestampPattern.MatchString(s) {
		return LocalDateTime{}, fmt.Errorf("%w: %q must look like YYYY-MM-DDTHH:mm:ss", ErrInvalidTimestamp, s)
	}
	t, err := time.ParseInLocation(TimestampLayout, s, time.UTC)
	if err != nil {
		return LocalDateTime{}, fmt.Errorf("%w: %q", ErrInvalidTimestamp, s)
	}
	return LocalDateTime{t: t}, nil
}

// LocalNow reads the wall-clock fields of now as they are, without any zone
// conversion. Sub-second precision is dropped.
func LocalNow(now time.Time) LocalDateTime {
	return LocalDateTime{t: time.Date(now.Year(), now.Month(), now.Day(),
		now.Hour(), now.Minute(), now.Second(), 0, time.UTC)}
}

func (l LocalDateTime) IsZero() bool { return l.t.IsZero() }

// Canonical renders the timestamp in TimestampLayout.
func (l LocalDateTime) Canonical() string { return l.t.Format(TimestampLayout) }

func (l LocalDateTime) String() string { return l.Canonical() }

func (l LocalDateTime) Date() Date {
	return Date{Year: l.t.Year(), Month: l.t.Month(), Day: l.t.Day()}
}

func (l LocalDateTime) Clock() Clock {
	return Clock{Hour: l.t.Hour(), Minute: l.t.Minute(), Second: l.t.Second()}
}

func (l LocalDateTime) Add(d time.Duration) LocalDateTime { return LocalDateTime{t: l.t.Add(d)} }

func (l LocalDateTime) AddMinutes(n int) LocalDateTime {
	return l.Add(time.Duration(n) * time.Minute)
}

func (l LocalDateTime) Sub(o LocalDateTime) time.Duration { return l.t.Sub(o.t) }

func (l LocalDateTime) Before(o LocalDateTime) bool { return l.t.Before(o.t) }

func (l LocalDateTime) After(o LocalDateTime) bool { return l.t.After(o.t) }

func (l LocalDateTime) Equal(o LocalDateTime) bool { return l.t.Equal(o.t) }

func (l LocalDateTime) Compare(o LocalDateTime) int { return l.t.Compare(o.t) }

func (l LocalDateTime) MarshalText() ([]byte, error) {
	return []byte(l.Canonical()), nil
}

func (l *LocalDateTime) UnmarshalText(b []byte) error {
	v, err := ParseLocalDateTime(string(b))
	if err != nil {
		return err
	}
	*l = v
	return nil
}

// Date is a calendar day with no time or zone.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

func ParseDate(s string) (Date, error) {
	t, err := time.ParseInLocation(DateLayout, strings.TrimSpace(s), time.UTC)
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return Date{Year: t.Year(), Month: t.Month(), Day: t.Day()}, nil
}

func (d Date) IsZero() bool { return d == Date{} }

// At combines the day with a time of day.
func (d Date) At(c Clock) LocalDateTime {
	return LocalDateTime{t: time.Date(d.Year, d.Month, d.Day, c.Hour, c.Minute, c.Second, 0, time.UTC)}
}

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

func (d Date) MarshalText() ([]byte, error) { return []byte(d.String()), nil }

func (d *Date) UnmarshalText(b []byte) error {
	v, err := ParseDate(string(b))
	if err != nil {
		return err
	}
	*d = v
	return nil
}

// Clock is a time of day.
type Clock struct {
	Hour   int
	Minute int
	Second int
}

// ParseClock accepts HH:mm or HH:mm:ss on a 24 hour clock.
func ParseClock(s string) (Clock, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{"15:04", "15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return Clock{Hour: t.Hour(), Minute: t.Minute(), Second: t.Second()}, nil
		}
	}
	return Clock{}, fmt.Errorf("%w: %q", ErrInvalidTime, s)
}

// MustClock is ParseClock for literals.
func MustClock(s string) Clock {
	c, err := ParseClock(s)
	if err != nil {
		panic(err)
	}
	return c
}

func (c Clock) Valid() bool {
	return c.Hour >= 0 && c.Hour < 24 && c.Minute >= 0 && c.Minute < 60 && c.Second >= 0 && c.Second < 60
}

func (c Clock) String() string {
	if c.Second != 0 {
		return fmt.Sprintf("%02d:%02d:%02d", c.Hour, c.Minute, c.Second)
	}
	return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
}

func (c Clock) MarshalText() ([]byte, error) { return []byte(c.String()), nil }

func (c *Clock) UnmarshalText(b []byte) error {
	v, err := ParseClock(string(b))
	if err != nil {
		return err
	}
	*c = v
	return nil
}

// floorMinutes converts d to whole minutes, rounding toward negative infinity.
func floorMinutes(d time.Duration) int {
	m := d / time.Minute
	if d%time.Minute < 0 {
		m--
	}
	return int(m)
}
