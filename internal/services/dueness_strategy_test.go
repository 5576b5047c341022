package services

import (
	"reflect"
	"testing"
	"time"

	"kasa/internal/core"
)

func yearMonth(year int, month time.Month) core.YearMonth {
	return core.YearMonth{Year: year, Month: month}
}

func TestBackfillChecker_DueMonths(t *testing.T) {
	checker := BackfillChecker{}

	tests := []struct {
		name  string
		last  core.YearMonth
		start core.YearMonth
		day   int
		today core.Date
		want  []core.YearMonth
	}{
		{
			name:  "never processed, day reached",
			start: yearMonth(2024, time.March),
			day:   10,
			today: date(2024, 3, 10),
			want:  []core.YearMonth{yearMonth(2024, time.March)},
		},
		{
			name:  "never processed, day not reached",
			start: yearMonth(2024, time.March),
			day:   10,
			today: date(2024, 3, 9),
			want:  nil,
		},
		{
			name:  "catches up missed months across a year",
			last:  yearMonth(2023, time.November),
			day:   5,
			today: date(2024, 2, 20),
			want:  []core.YearMonth{yearMonth(2023, time.December), yearMonth(2024, time.January), yearMonth(2024, time.February)},
		},
		{
			name:  "current month waits for its day",
			last:  yearMonth(2024, time.January),
			day:   25,
			today: date(2024, 3, 20),
			want:  []core.YearMonth{yearMonth(2024, time.February)},
		},
		{
			name:  "day 31 clamps to end of february",
			last:  yearMonth(2024, time.January),
			day:   31,
			today: date(2024, 2, 29),
			want:  []core.YearMonth{yearMonth(2024, time.February)},
		},
		{
			name:  "already processed this month",
			last:  yearMonth(2024, time.March),
			day:   1,
			today: date(2024, 3, 31),
			want:  nil,
		},
		{
			name:  "no start falls back to current month",
			day:   1,
			today: date(2024, 3, 2),
			want:  []core.YearMonth{yearMonth(2024, time.March)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := checker.DueMonths(tt.last, tt.start, tt.day, tt.today)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("BackfillChecker.DueMonths() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCurrentMonthChecker_DueMonths(t *testing.T) {
	checker := CurrentMonthChecker{}

	tests := []struct {
		name  string
		last  core.YearMonth
		day   int
		today core.Date
		want  []core.YearMonth
	}{
		{"never processed, day reached", core.YearMonth{}, 15, date(2024, 3, 15), []core.YearMonth{yearMonth(2024, time.March)}},
		{"day not reached", core.YearMonth{}, 15, date(2024, 3, 14), nil},
		{"missed months are not caught up", yearMonth(2023, time.December), 1, date(2024, 3, 2), []core.YearMonth{yearMonth(2024, time.March)}},
		{"already credited", yearMonth(2024, time.March), 1, date(2024, 3, 30), nil},
		{"day 30 in february", yearMonth(2024, time.January), 30, date(2024, 2, 29), []core.YearMonth{yearMonth(2024, time.February)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := checker.DueMonths(tt.last, core.YearMonth{}, tt.day, tt.today)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("CurrentMonthChecker.DueMonths() = %v, want %v", got, tt.want)
			}
		})
	}
}
