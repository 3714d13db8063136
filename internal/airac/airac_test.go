package airac

import (
	"errors"
	"regexp"
	"testing"
	"time"

	uerr "ukcpup/internal/errors"
)

func fixedClock(date string) func() time.Time {
	t, err := time.Parse("2006-01-02", date)
	if err != nil {
		panic(err)
	}
	return func() time.Time { return t }
}

func TestCycleIndex_KnownDate(t *testing.T) {
	c := NewCalculator()

	got, err := c.CycleIndex("2023-06-01")
	if err != nil {
		t.Fatalf("CycleIndex returned error: %v", err)
	}
	if got != 57 {
		t.Errorf("CycleIndex(2023-06-01) = %d, want 57", got)
	}
}

func TestCycleIndex_MalformedDate(t *testing.T) {
	c := NewCalculator()

	tests := []string{"2021", "01-02-2019", "not-a-date", "2023-13-40"}
	for _, input := range tests {
		t.Run(input, func(t *testing.T) {
			_, err := c.CycleIndex(input)
			if err == nil {
				t.Fatalf("CycleIndex(%q) should fail", input)
			}
			if !errors.Is(err, uerr.New(uerr.InvalidDateFormat, "", nil)) {
				t.Errorf("error code = %v, want InvalidDateFormat", uerr.CodeOf(err))
			}
		})
	}
}

func TestCycleIndex_EmptyUsesClock(t *testing.T) {
	c := NewCalculator()
	c.Now = fixedClock("2023-06-01")

	got, err := c.CycleIndex("")
	if err != nil {
		t.Fatalf("CycleIndex returned error: %v", err)
	}
	if got != 57 {
		t.Errorf("CycleIndex(today=2023-06-01) = %d, want 57", got)
	}
}

func TestCycleStartDate_Epoch(t *testing.T) {
	c := NewCalculator()

	got := c.CycleStartDate(0, false)
	want := time.Date(2019, 1, 3, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("CycleStartDate(0) = %s, want %s", got.Format("2006-01-02"), want.Format("2006-01-02"))
	}
}

func TestCycleStartDate_Next(t *testing.T) {
	c := NewCalculator()

	current := c.CycleStartDate(10, false)
	next := c.CycleStartDate(10, true)
	if diff := next.Sub(current).Hours() / 24; diff != 28 {
		t.Errorf("next cycle starts %v days after current, want 28", diff)
	}
}

func TestCycleBoundaries_RoundTrip(t *testing.T) {
	c := NewCalculator()

	for n := 0; n < 80; n++ {
		start := c.CycleStartDate(n, false)

		idx, err := c.CycleIndex(start.Format("2006-01-02"))
		if err != nil {
			t.Fatalf("CycleIndex returned error: %v", err)
		}
		if idx != n {
			t.Fatalf("CycleIndex(CycleStartDate(%d)) = %d, want %d", n, idx, n)
		}

		dayBefore := start.AddDate(0, 0, -1)
		idx, err = c.CycleIndex(dayBefore.Format("2006-01-02"))
		if err != nil {
			t.Fatalf("CycleIndex returned error: %v", err)
		}
		if idx != n-1 {
			t.Fatalf("CycleIndex(day before cycle %d start) = %d, want %d", n, idx, n-1)
		}
	}
}

func TestCurrentTag_Format(t *testing.T) {
	c := NewCalculator()
	tagPattern := regexp.MustCompile(`^20[2-9][0-9]/[0-1][0-9]$`)

	dates := []string{"2019-01-03", "2021-07-15", "2023-06-01", "2026-08-29"}
	for _, d := range dates {
		tag, err := c.CurrentTag(d)
		if err != nil {
			t.Fatalf("CurrentTag(%s) returned error: %v", d, err)
		}
		if !tagPattern.MatchString(tag) {
			t.Errorf("CurrentTag(%s) = %q, want YYYY/MM format", d, tag)
		}
	}
}

func TestCurrentTag_KnownCycle(t *testing.T) {
	c := NewCalculator()

	// Cycle 57 starts 2023-05-19, so the tag for 2023-06-01 is 2023/05
	tag, err := c.CurrentTag("2023-06-01")
	if err != nil {
		t.Fatalf("CurrentTag returned error: %v", err)
	}
	if tag != "2023/05" {
		t.Errorf("CurrentTag(2023-06-01) = %q, want %q", tag, "2023/05")
	}
}

func TestCurrentTag_Deterministic(t *testing.T) {
	c := NewCalculator()

	first, err := c.CurrentTag("2024-03-10")
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 5; i++ {
		again, err := c.CurrentTag("2024-03-10")
		if err != nil {
			t.Fatal(err)
		}
		if again != first {
			t.Fatalf("CurrentTag not deterministic: %q then %q", first, again)
		}
	}
}
