package ics

import (
	"testing"
	"time"
)

const sampleFeed = `BEGIN:VCALENDAR
VERSION:2.0
PRODID:-//Instructure//Canvas//EN
BEGIN:VEVENT
UID:assignment-101@canvas
SUMMARY:[CS101] Quiz 2
DESCRIPTION:Covers sorting
DTSTART:20240310T220000Z
DTEND:20240310T235900Z
END:VEVENT
BEGIN:VEVENT
UID:assignment-102@canvas
SUMMARY:Essay
DTSTART;VALUE=DATE:20240315
DTEND;VALUE=DATE:20240316
END:VEVENT
BEGIN:VEVENT
SUMMARY:No UID here
DTSTART:20240310T220000Z
END:VEVENT
END:VCALENDAR
`

func TestParseFeed(t *testing.T) {
	t.Parallel()

	src := Source{ID: "canvas", URL: "https://canvas.example/feed.ics"}
	events, err := ParseFeed(src, []byte(sampleFeed))
	if err != nil {
		t.Fatalf("ParseFeed: %v", err)
	}

	// The UID-less VEVENT is skipped, not fatal.
	if len(events) != 2 {
		t.Fatalf("len = %d, want 2", len(events))
	}

	quiz := events[0]
	if quiz.Summary != "[CS101] Quiz 2" {
		t.Fatalf("Summary = %q", quiz.Summary)
	}
	if quiz.AllDay {
		t.Fatal("timed event flagged all-day")
	}
	wantEnd := time.Date(2024, 3, 10, 23, 59, 0, 0, time.UTC)
	if !quiz.End.Equal(wantEnd) {
		t.Fatalf("End = %v, want %v", quiz.End, wantEnd)
	}

	essay := events[1]
	if !essay.AllDay {
		t.Fatal("date-only event not flagged all-day")
	}
}

func TestParseFeed_EmptyBody(t *testing.T) {
	t.Parallel()

	if _, err := ParseFeed(Source{ID: "x"}, nil); err == nil {
		t.Fatal("expected error for empty body")
	}
}
