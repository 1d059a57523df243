package assignment

import (
	"testing"
	"time"
)

func testPolicy() Policy {
	return Policy{
		DefaultCourse:     "Canvas",
		QuizFallbackField: "title",
		SearchDescription: true,
	}
}

func TestNormalize_QuizWithCourseTag(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	raw := RawEvent{
		Summary:     "[CS101] Quiz 2",
		EndDateTime: "2024-03-10T23:59:00Z",
	}

	a, defect := Normalize(raw, 0, now, time.UTC, testPolicy())
	if defect {
		t.Fatal("unexpected defect")
	}
	if a.Title != "Quiz 2" {
		t.Fatalf("Title = %q, want %q", a.Title, "Quiz 2")
	}
	if a.Course != "CS101" {
		t.Fatalf("Course = %q, want %q", a.Course, "CS101")
	}
	if a.Description != "This is a quiz for CS101" {
		t.Fatalf("Description = %q", a.Description)
	}
	want := time.Date(2024, 3, 10, 23, 59, 0, 0, time.UTC)
	if !a.DueDate.Equal(want) {
		t.Fatalf("DueDate = %v, want %v", a.DueDate, want)
	}
}

func TestNormalize_AllDayResolvesToPreviousMidnightMinusMinute(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	raw := RawEvent{
		Summary: "Essay",
		EndDate: "2024-03-15",
	}

	a, defect := Normalize(raw, 3, now, time.UTC, testPolicy())
	if defect {
		t.Fatal("unexpected defect")
	}
	want := time.Date(2024, 3, 14, 23, 59, 0, 0, time.UTC)
	if !a.DueDate.Equal(want) {
		t.Fatalf("DueDate = %v, want %v", a.DueDate, want)
	}
	if a.Course != "Canvas" {
		t.Fatalf("Course = %q, want default", a.Course)
	}
	if a.Description != "No Description" {
		t.Fatalf("Description = %q", a.Description)
	}
}

func TestNormalize_PreciseTimestampWinsOverAllDay(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	raw := RawEvent{
		Summary:     "Project",
		EndDate:     "2024-03-15",
		EndDateTime: "2024-03-12T18:30:00Z",
	}

	a, defect := Normalize(raw, 0, now, time.UTC, testPolicy())
	if defect {
		t.Fatal("unexpected defect")
	}
	want := time.Date(2024, 3, 12, 18, 30, 0, 0, time.UTC)
	if !a.DueDate.Equal(want) {
		t.Fatalf("DueDate = %v, want %v", a.DueDate, want)
	}
}

func TestNormalize_Defects(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		raw  RawEvent
	}{
		{name: "no_end_fields", raw: RawEvent{Summary: "Reading"}},
		{name: "bad_date", raw: RawEvent{Summary: "Reading", EndDate: "15-03-2024"}},
		{name: "bad_datetime", raw: RawEvent{Summary: "Reading", EndDateTime: "soon"}},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			a, defect := Normalize(tc.raw, 0, now, time.UTC, testPolicy())
			if !defect {
				t.Fatal("expected defect flag")
			}
			if !a.DueDate.Equal(now) {
				t.Fatalf("DueDate = %v, want fallback to now", a.DueDate)
			}
		})
	}
}

func TestNormalize_MissingSummary(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	a, _ := Normalize(RawEvent{EndDate: "2024-03-15"}, 0, now, time.UTC, testPolicy())

	if a.Title != "Untitled Event" {
		t.Fatalf("Title = %q, want placeholder", a.Title)
	}
	if a.Course != "Canvas" {
		t.Fatalf("Course = %q, want default", a.Course)
	}
}

func TestNormalize_DescriptionVerbatimWhenPresent(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	raw := RawEvent{
		Summary:     "[CS101] Quiz 3",
		Description: "  Covers chapters 4-6.  ",
		EndDate:     "2024-03-15",
	}

	a, _ := Normalize(raw, 0, now, time.UTC, testPolicy())
	if a.Description != "Covers chapters 4-6." {
		t.Fatalf("Description = %q", a.Description)
	}
}

func TestNormalize_QuizFallbackKeyedOffCourse(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	p := testPolicy()
	p.QuizFallbackField = "course"

	raw := RawEvent{
		Summary: "[Weekly Quiz Section] Check-in 4",
		EndDate: "2024-03-15",
	}

	a, _ := Normalize(raw, 0, now, time.UTC, p)
	if a.Description != "This is a quiz for Weekly Quiz Section" {
		t.Fatalf("Description = %q", a.Description)
	}

	// Under the default title-keyed policy the same event gets the plain
	// placeholder, since "Check-in 4" carries no quiz marker.
	a, _ = Normalize(raw, 0, now, time.UTC, testPolicy())
	if a.Description != "No Description" {
		t.Fatalf("Description = %q, want placeholder", a.Description)
	}
}

func TestNormalizeBatch_AssignsOrdinalIDsAndCountsDefects(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	raws := []RawEvent{
		{Summary: "[CS101] Quiz 2", EndDateTime: "2024-03-10T23:59:00Z"},
		{Summary: "Essay", EndDate: "2024-03-15"},
		{Summary: "Broken"},
	}

	c := NormalizeBatch(raws, now, time.UTC, testPolicy())
	if c.Len() != 3 {
		t.Fatalf("Len = %d, want 3", c.Len())
	}
	if c.Defects() != 1 {
		t.Fatalf("Defects = %d, want 1", c.Defects())
	}
	for i, a := range c.Items() {
		if a.ID != i {
			t.Fatalf("item %d has ID %d", i, a.ID)
		}
	}
}
