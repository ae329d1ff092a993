// Package calendar provides a time-zone free calendar date.
package calendar

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/railzwaylabs/clubsettle/internal/errs"
)

const layout = "2006-01-02"

var ErrInvalidDate = errs.Validation("invalid_date")

// Date is a calendar day stored as UTC midnight.
type Date struct {
	t time.Time
}

// Parse accepts exactly YYYY-MM-DD.
func Parse(value string) (Date, error) {
	value = strings.TrimSpace(value)
	if len(value) != len(layout) {
		return Date{}, ErrInvalidDate
	}
	t, err := time.ParseInLocation(layout, value, time.UTC)
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{t: t}, nil
}

// MustParse is Parse for literals in tests and seeds.
func MustParse(value string) Date {
	d, err := Parse(value)
	if err != nil {
		panic(fmt.Sprintf("calendar: invalid date %q", value))
	}
	return d
}

// FromTime truncates t to its UTC calendar day.
func FromTime(t time.Time) Date {
	t = t.UTC()
	return Date{t: time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)}
}

func (d Date) IsZero() bool { return d.t.IsZero() }

func (d Date) Time() time.Time { return d.t }

func (d Date) AddDays(n int) Date {
	return Date{t: d.t.AddDate(0, 0, n)}
}

func (d Date) NextWeek() Date { return d.AddDays(7) }

func (d Date) PrevWeek() Date { return d.AddDays(-7) }

func (d Date) Before(o Date) bool { return d.t.Before(o.t) }

func (d Date) After(o Date) bool { return d.t.After(o.t) }

func (d Date) Equal(o Date) bool { return d.t.Equal(o.t) }

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.t.Format(layout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*d = Date{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return ErrInvalidDate
	}
	parsed, err := Parse(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// GormDataType stores dates in a DATE column.
func (Date) GormDataType() string { return "date" }

func (d Date) Value() (driver.Value, error) {
	if d.IsZero() {
		return nil, nil
	}
	return d.String(), nil
}

func (d *Date) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*d = Date{}
		return nil
	case time.Time:
		*d = FromTime(v)
		return nil
	case string:
		return d.scanString(v)
	case []byte:
		return d.scanString(string(v))
	default:
		return fmt.Errorf("calendar: cannot scan %T into Date", src)
	}
}

func (d *Date) scanString(s string) error {
	if len(s) > len(layout) {
		s = s[:len(layout)]
	}
	parsed, err := Parse(s)
	if err != nil {
		return fmt.Errorf("calendar: cannot scan %q into Date", s)
	}
	*d = parsed
	return nil
}
