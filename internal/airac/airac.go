// Package airac computes AIRAC release cycles for the controller pack.
// Cycles are fixed 28-day periods counted from a base date; the cycle start
// date doubles as the git tag label for a release (formatted YYYY/MM).
package airac

import (
	"fmt"
	"time"

	"ukcpup/internal/errors"
)

const (
	// startDate is the first AIRAC date following the last cycle length modification
	startDate = "2019-01-02"

	// cycleDays is the length of one AIRAC cycle
	cycleDays = 28

	// dateLayout is the ISO date format accepted for cycle inputs
	dateLayout = "2006-01-02"
)

// Calculator performs cycle arithmetic relative to the fixed base date.
// The zero-value-unsafe Now field lets tests pin the clock; NewCalculator
// defaults it to time.Now.
type Calculator struct {
	baseDate time.Time
	Now      func() time.Time
}

// NewCalculator creates a Calculator using the wall clock.
func NewCalculator() *Calculator {
	base, _ := time.Parse(dateLayout, startDate)
	return &Calculator{
		baseDate: base,
		Now:      time.Now,
	}
}

// BaseDate returns the fixed cycle epoch (2019-01-02).
func (c *Calculator) BaseDate() time.Time {
	return c.baseDate
}

// CycleIndex calculates the number of whole AIRAC cycles between the given
// date and the base date. An empty dateIn means today. A malformed date
// returns an InvalidDateFormat error.
func (c *Calculator) CycleIndex(dateIn string) (int, error) {
	var input time.Time
	if dateIn != "" {
		parsed, err := time.Parse(dateLayout, dateIn)
		if err != nil {
			return 0, errors.New(errors.InvalidDateFormat,
				fmt.Sprintf("cannot parse %q as a YYYY-MM-DD date", dateIn), err)
		}
		input = parsed
	} else {
		now := c.Now()
		input = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	}

	// Whole days elapsed since the base date, then floor-divided into cycles.
	// Both dates are midnight UTC so the hour count is an exact multiple of 24.
	// The -1 mirrors the +1 start-date offset: cycle n spans days 28n+1
	// through 28n+28, and the last day must stay in cycle n.
	days := int(input.Sub(c.baseDate).Hours() / 24)
	return floorDiv(days-1, cycleDays), nil
}

// CycleStartDate returns the start date of the cycle with the given index.
// When next is true the following cycle is returned. The +1 day offset is a
// fixed correction so cycle boundaries land on the historically correct day.
func (c *Calculator) CycleStartDate(index int, next bool) time.Time {
	n := index
	if next {
		n = index + 1
	}
	return c.baseDate.AddDate(0, 0, n*cycleDays+1)
}

// CurrentTag returns the git tag label for the cycle containing the given
// date (empty means today), formatted YYYY/MM. The tag reflects the computed
// cycle directly; no lookback is applied near a boundary.
func (c *Calculator) CurrentTag(dateIn string) (string, error) {
	index, err := c.CycleIndex(dateIn)
	if err != nil {
		return "", err
	}
	return c.CycleStartDate(index, false).Format("2006/01"), nil
}

// floorDiv divides a by b rounding toward negative infinity.
func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
