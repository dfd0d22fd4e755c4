package lifecycle

import (
	"testing"
	"time"
)

func TestNormalizeDate(t *testing.T) {
	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{in: "202312", want: "2023-12-01", ok: true},
		{in: "2023-12-25", want: "2023-12-25", ok: true},
		{in: "2023年12月", want: "2023-12-01", ok: true},
		{in: "2023年12月25日", want: "2023-12-25", ok: true},
		{in: "2023/3/5", want: "2023-03-05", ok: true},
		{in: "2023.03.05", want: "2023-03-05", ok: true},
		{in: "2023-03", want: "2023-03-01", ok: true},
		{in: "2023/3", want: "2023-03-01", ok: true},
		{in: "2023.3", want: "2023-03-01", ok: true},
		{in: "2019", want: "2019-01-01", ok: true},
		{in: "  2019-07-01  ", want: "2019-07-01", ok: true},
		{in: "2019-07-01 00:00:00", want: "2019-07-01", ok: true},
		{in: "", ok: false},
		{in: "   ", ok: false},
		{in: "garbage", ok: false},
		{in: "202313", ok: false},
		{in: "2023-02-30", ok: false},
		{in: "nan", ok: false},
	}
	for _, tc := range cases {
		got, ok := NormalizeDate(tc.in)
		if ok != tc.ok {
			t.Fatalf("NormalizeDate(%q) ok=%v, want %v", tc.in, ok, tc.ok)
		}
		if !ok {
			continue
		}
		if got.Format("2006-01-02") != tc.want {
			t.Fatalf("NormalizeDate(%q)=%s, want %s", tc.in, got.Format("2006-01-02"), tc.want)
		}
		if got.Location() != time.UTC || got.Hour() != 0 {
			t.Fatalf("NormalizeDate(%q) not a UTC midnight: %v", tc.in, got)
		}
	}
}

func TestDaysBetween(t *testing.T) {
	start := time.Date(2024, 2, 28, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 3, 1, 23, 59, 0, 0, time.UTC)
	if got := DaysBetween(start, end); got != 2 {
		t.Fatalf("expected 2 days across leap day, got %d", got)
	}
	if got := DaysBetween(end, start); got != -2 {
		t.Fatalf("expected -2, got %d", got)
	}
}
