package trips

import (
	"fmt"
	"time"
)

// YearMonth identifies a calendar month, which is also the granularity of
// the published trip record files.
type YearMonth struct {
	Year  int
	Month time.Month
}

func YearMonthOf(t time.Time) YearMonth {
	return YearMonth{t.Year(), t.Month()}
}

func (ym YearMonth) Next() YearMonth {
	if ym.Month == time.December {
		return YearMonth{ym.Year + 1, time.January}
	}
	return YearMonth{ym.Year, ym.Month + 1}
}

func (ym YearMonth) After(other YearMonth) bool {
	return ym.Year > other.Year || (ym.Year == other.Year && ym.Month > other.Month)
}

func (ym YearMonth) String() string {
	return fmt.Sprintf("%04d-%02d", ym.Year, int(ym.Month))
}

// Months lists every calendar month touched by the interval, from the month
// of its start through the month of its end, both inclusive.
func Months(iv Interval) []YearMonth {
	var (
		first = YearMonthOf(iv.Start())
		last  = YearMonthOf(iv.End())
		ym    []YearMonth
	)
	for m := first; !m.After(last); m = m.Next() {
		ym = append(ym, m)
	}
	return ym
}
