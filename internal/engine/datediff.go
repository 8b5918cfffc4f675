package engine

import (
	"fmt"
	"regexp"
	"time"

	"github.com/rowpipe/rowpipe/internal/coerce"
	"github.com/rowpipe/rowpipe/internal/errors"
	"github.com/rowpipe/rowpipe/internal/plan"
	"github.com/rowpipe/rowpipe/internal/value"
)

// SupportedDateDiffIntervals lists the units dateDiff can report.
var SupportedDateDiffIntervals = map[string]struct{}{
	"years": {}, "quarters": {}, "months": {}, "weeks": {},
	"days": {}, "hours": {}, "minutes": {}, "seconds": {},
}

// Relative date keywords borrowed from SQL. The day-granularity forms
// require parentheses, the timestamp forms accept them optionally.
var (
	reRelativeDay = regexp.MustCompile(`(?i)^(?:today|curdate|current_date|getdate)(?:\(\))$`)
	reRelativeNow = regexp.MustCompile(`(?i)^(?:now|current_timestamp)(?:\(\))?$`)
)

// dateEndpoint is one side of a date difference: either a column reference
// or a literal instant resolved once up front.
type dateEndpoint struct {
	colIndex   int
	colName    string
	dateFormat string
	literal    time.Time
	isColumn   bool
	resolved   bool
}

func (e *Engine) resolveDateEndpoint(columnOrDate, dateFormat string, normCols []string) dateEndpoint {
	ep := dateEndpoint{colName: columnOrDate, dateFormat: coerce.FixTokens(dateFormat)}
	if idx := ColToIndex(columnOrDate, normCols); idx != -1 {
		ep.colIndex = idx
		ep.isColumn = true
		ep.resolved = true
		return ep
	}
	if t, ok := coerce.ParseDate(columnOrDate, ep.dateFormat); ok {
		ep.literal = t
		ep.resolved = true
		return ep
	}
	if reRelativeDay.MatchString(columnOrDate) {
		now := e.now().UTC()
		ep.literal = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
		ep.resolved = true
		return ep
	}
	if reRelativeNow.MatchString(columnOrDate) {
		ep.literal = e.now().UTC()
		ep.resolved = true
		return ep
	}
	return ep
}

func (ep dateEndpoint) at(row value.Row) (time.Time, bool) {
	if !ep.isColumn {
		return ep.literal, true
	}
	return coerce.StringToDate(AccessCell(row, ep.colIndex, ep.colName), ep.dateFormat)
}

func (ep dateEndpoint) describe() string {
	if ep.dateFormat != "" {
		return fmt.Sprintf("%s (%s)", ep.colName, ep.dateFormat)
	}
	return ep.colName
}

func (e *Engine) dateDiffOp(ds value.Dataset, normCols []string, op *plan.DateDiffOp) (*opResult, error) {
	if _, ok := SupportedDateDiffIntervals[op.Interval]; !ok {
		return nil, errors.NewValidationError("dateDiff", "",
			"unsupported interval for date difference: %s", op.Interval)
	}

	start := e.resolveDateEndpoint(op.StartColumnOrDate, op.StartDateFormat, normCols)
	end := e.resolveDateEndpoint(op.EndColumnOrDate, op.EndDateFormat, normCols)
	if !start.resolved {
		return nil, errors.NewValidationError("dateDiff", "",
			"unable to find or parse starting date for date difference: %s (%s)",
			op.StartColumnOrDate, start.dateFormat)
	}
	if !end.resolved {
		return nil, errors.NewValidationError("dateDiff", "",
			"unable to find or parse ending date for date difference: %s (%s)",
			op.EndColumnOrDate, end.dateFormat)
	}
	if !start.isColumn && !end.isColumn {
		return nil, errors.NewValidationError("dateDiff", "",
			"unable to create new column with date difference between two literal dates: %s and %s",
			op.StartColumnOrDate, op.EndColumnOrDate)
	}

	diffs := mapRows(e, ds, func(_ int, row value.Row) value.Value {
		startTime, ok := start.at(row)
		if !ok {
			return value.Null()
		}
		endTime, ok := end.at(row)
		if !ok {
			return value.Null()
		}
		return value.Num(dateDiffIn(op.Interval, startTime, endTime))
	})

	out := make(value.Dataset, len(ds))
	for i, row := range ds {
		widened := make(value.Row, len(row)+1)
		copy(widened, row)
		widened[len(row)] = diffs[i]
		out[i] = widened
	}

	return &opResult{
		dataset: out,
		enOp: fmt.Sprintf("- create a new column named %q by finding the difference in %s between %s and %s\n",
			op.As, op.Interval, start.describe(), end.describe()),
		newColumns: []string{op.As},
	}, nil
}

// dateDiffIn reports end minus start in the given interval. Month-derived
// intervals walk the calendar so variable month lengths are respected, with
// the remainder expressed as a fraction of the partially covered span. Pure
// time intervals come straight from the elapsed duration.
func dateDiffIn(interval string, start, end time.Time) float64 {
	switch interval {
	case "years":
		return calendarDiff(start, end, 12)
	case "quarters":
		return calendarDiff(start, end, 3)
	case "months":
		return calendarDiff(start, end, 1)
	}

	d := end.Sub(start)
	switch interval {
	case "weeks":
		return d.Hours() / (24 * 7)
	case "days":
		return d.Hours() / 24
	case "hours":
		return d.Hours()
	case "minutes":
		return d.Minutes()
	}
	return d.Seconds()
}

func calendarDiff(start, end time.Time, monthsPerStep int) float64 {
	if end.Before(start) {
		return -calendarDiff(end, start, monthsPerStep)
	}
	var whole float64
	cursor := start
	for {
		next := addMonthsClamped(cursor, monthsPerStep)
		if next.After(end) {
			span := next.Sub(cursor)
			if span <= 0 {
				return whole
			}
			return whole + float64(end.Sub(cursor))/float64(span)
		}
		cursor = next
		whole++
	}
}

// addMonthsClamped advances by whole months, clamping the day of month so
// Jan 31 plus one month lands on the end of February rather than rolling
// into March the way time.Time.AddDate does.
func addMonthsClamped(t time.Time, months int) time.Time {
	y, m, d := t.Date()
	m += time.Month(months)
	for m > 12 {
		m -= 12
		y++
	}
	for m < 1 {
		m += 12
		y--
	}
	if last := daysInMonth(y, m); d > last {
		d = last
	}
	h, min, sec := t.Clock()
	return time.Date(y, m, d, h, min, sec, t.Nanosecond(), t.Location())
}

func daysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
