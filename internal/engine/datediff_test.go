package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rowpipe/rowpipe/internal/plan"
	"github.com/rowpipe/rowpipe/internal/value"
)

func TestDateDiff_DaysBetweenColumnAndLiteral(t *testing.T) {
	e := newTestEngine(t)
	ds := singleColumn(value.Str("2023-01-01"), value.Str("garbage"), value.Null())

	r, err := e.dateDiffOp(ds, []string{"start"}, &plan.DateDiffOp{
		Interval:          "days",
		StartColumnOrDate: "start",
		EndColumnOrDate:   "2023-01-11",
		As:                "elapsed",
	})
	require.NoError(t, err)

	assert.Equal(t, value.Num(10), r.dataset[0][1])
	assert.Equal(t, value.Null(), r.dataset[1][1])
	assert.Equal(t, value.Null(), r.dataset[2][1])
	assert.Equal(t, []string{"elapsed"}, r.newColumns)
	assert.Contains(t, r.enOp, "finding the difference in days between start and 2023-01-11")
}

func TestDateDiff_ColumnToColumn(t *testing.T) {
	e := newTestEngine(t)
	ds := value.Rows(
		value.Row{value.Str("2023-01-01"), value.Str("2023-03-01")},
	)

	r, err := e.dateDiffOp(ds, []string{"from", "to"}, &plan.DateDiffOp{
		Interval:          "months",
		StartColumnOrDate: "from",
		EndColumnOrDate:   "to",
		As:                "months",
	})
	require.NoError(t, err)
	assert.Equal(t, value.Num(2), r.dataset[0][2])
}

func TestDateDiff_CalendarIntervals(t *testing.T) {
	e := newTestEngine(t)

	tests := []struct {
		name     string
		start    string
		end      string
		interval string
		want     float64
	}{
		{"whole years", "2020-06-15", "2023-06-15", "years", 3},
		{"clamped month end", "2023-01-31", "2023-02-28", "months", 1},
		{"quarters", "2023-01-01", "2023-10-01", "quarters", 3},
		{"negative when reversed", "2023-01-11", "2023-01-01", "days", -10},
		{"weeks", "2023-01-01", "2023-01-15", "weeks", 2},
		{"hours", "2023-01-01", "2023-01-02", "hours", 24},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ds := singleColumn(value.Str(tt.start))
			r, err := e.dateDiffOp(ds, []string{"d"}, &plan.DateDiffOp{
				Interval:          tt.interval,
				StartColumnOrDate: "d",
				EndColumnOrDate:   tt.end,
				As:                "diff",
			})
			require.NoError(t, err)
			got, ok := r.dataset[0][1].AsNumber()
			require.True(t, ok)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestDateDiff_FractionalMonths(t *testing.T) {
	e := newTestEngine(t)
	ds := singleColumn(value.Str("2023-01-01"))

	r, err := e.dateDiffOp(ds, []string{"d"}, &plan.DateDiffOp{
		Interval:          "months",
		StartColumnOrDate: "d",
		EndColumnOrDate:   "2023-02-15",
		As:                "diff",
	})
	require.NoError(t, err)

	got, ok := r.dataset[0][1].AsNumber()
	require.True(t, ok)
	// one whole month plus 14 of February's 28 days
	assert.InDelta(t, 1.5, got, 1e-9)
}

func TestDateDiff_RelativeKeywords(t *testing.T) {
	e := newTestEngine(t)
	e.WithClock(func() time.Time {
		return time.Date(2023, 1, 21, 18, 0, 0, 0, time.UTC)
	})
	ds := singleColumn(value.Str("2023-01-01"))

	t.Run("today() resolves to UTC start of day", func(t *testing.T) {
		r, err := e.dateDiffOp(ds, []string{"d"}, &plan.DateDiffOp{
			Interval:          "days",
			StartColumnOrDate: "d",
			EndColumnOrDate:   "today()",
			As:                "diff",
		})
		require.NoError(t, err)
		assert.Equal(t, value.Num(20), r.dataset[0][1])
	})

	t.Run("now keeps the time of day and parens are optional", func(t *testing.T) {
		r, err := e.dateDiffOp(ds, []string{"d"}, &plan.DateDiffOp{
			Interval:          "hours",
			StartColumnOrDate: "d",
			EndColumnOrDate:   "NOW",
			As:                "diff",
		})
		require.NoError(t, err)
		assert.Equal(t, value.Num(20*24+18), r.dataset[0][1])
	})

	t.Run("day keywords require parens", func(t *testing.T) {
		_, err := e.dateDiffOp(ds, []string{"d"}, &plan.DateDiffOp{
			Interval:          "days",
			StartColumnOrDate: "d",
			EndColumnOrDate:   "today",
			As:                "diff",
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unable to find or parse ending date")
	})
}

func TestDateDiff_ValidationErrors(t *testing.T) {
	e := newTestEngine(t)
	ds := singleColumn(value.Str("2023-01-01"))

	t.Run("unsupported interval", func(t *testing.T) {
		_, err := e.dateDiffOp(ds, []string{"d"}, &plan.DateDiffOp{
			Interval:          "fortnights",
			StartColumnOrDate: "d",
			EndColumnOrDate:   "2023-02-01",
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unsupported interval for date difference: fortnights")
	})

	t.Run("two literals", func(t *testing.T) {
		_, err := e.dateDiffOp(ds, []string{"d"}, &plan.DateDiffOp{
			Interval:          "days",
			StartColumnOrDate: "2023-01-01",
			EndColumnOrDate:   "2023-02-01",
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "between two literal dates")
	})

	t.Run("unparseable start", func(t *testing.T) {
		_, err := e.dateDiffOp(ds, []string{"d"}, &plan.DateDiffOp{
			Interval:          "days",
			StartColumnOrDate: "whenever",
			EndColumnOrDate:   "d",
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unable to find or parse starting date")
	})
}
