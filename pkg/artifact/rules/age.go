package rules

import (
	"errors"
	"fmt"
	"time"
)

// ErrUnknownUnit is returned when an age unit is not recognised.
var ErrUnknownUnit = errors.New("unknown age unit")

// AgeSpec is an "older than" threshold such as 14 days or 2 weeks.
type AgeSpec struct {
	Amount int
	Unit   string
}

// String implements fmt.Stringer.
func (a AgeSpec) String() string {
	return fmt.Sprintf("%d %s", a.Amount, a.Unit)
}

// unitStep describes how to subtract one unit from a time. Fixed units use
// duration; calendar units use AddDate so month and year lengths are respected.
type unitStep struct {
	duration            time.Duration
	years, months, days int
}

// Unit names follow the dayjs manipulate units: long, plural and short
// forms. Short forms are case-sensitive ("M" is month, "m" is minute).
var units = map[string]unitStep{
	"millisecond":  {duration: time.Millisecond},
	"milliseconds": {duration: time.Millisecond},
	"ms":           {duration: time.Millisecond},
	"second":       {duration: time.Second},
	"seconds":      {duration: time.Second},
	"s":            {duration: time.Second},
	"minute":       {duration: time.Minute},
	"minutes":      {duration: time.Minute},
	"m":            {duration: time.Minute},
	"hour":         {duration: time.Hour},
	"hours":        {duration: time.Hour},
	"h":            {duration: time.Hour},
	"day":          {days: 1},
	"days":         {days: 1},
	"d":            {days: 1},
	"week":         {days: 7},
	"weeks":        {days: 7},
	"w":            {days: 7},
	"month":        {months: 1},
	"months":       {months: 1},
	"M":            {months: 1},
	"quarter":      {months: 3},
	"quarters":     {months: 3},
	"Q":            {months: 3},
	"year":         {years: 1},
	"years":        {years: 1},
	"y":            {years: 1},
}

// Validate checks that the unit is known and the amount is not negative.
func (a AgeSpec) Validate() error {
	if _, ok := units[a.Unit]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownUnit, a.Unit)
	}
	if a.Amount < 0 {
		return fmt.Errorf("age amount must be >= 0, got %d", a.Amount)
	}
	return nil
}

// Cutoff returns now minus the age.
func (a AgeSpec) Cutoff(now time.Time) (time.Time, error) {
	if err := a.Validate(); err != nil {
		return time.Time{}, err
	}

	step := units[a.Unit]
	if step.duration != 0 {
		return now.Add(-time.Duration(a.Amount) * step.duration), nil
	}
	return now.AddDate(-step.years*a.Amount, -step.months*a.Amount, -step.days*a.Amount), nil
}
