package core

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestFinalGrade(t *testing.T) {
	got, err := FinalGrade(GradeComponents{Midterm: 80, FinalExam: 90, Assignments: 70, Quiz: 100})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.StringFixed(2) != "84.00" {
		t.Fatalf("expected 84.00, got %s", got.StringFixed(2))
	}

	for _, g := range []GradeComponents{
		{Midterm: -1},
		{FinalExam: 100.5},
		{Quiz: 101},
	} {
		if _, err := FinalGrade(g); !errors.Is(err, ErrGradeOutOfRange) {
			t.Fatalf("%+v: expected ErrGradeOutOfRange, got %v", g, err)
		}
	}
}

func TestPendingTasks(t *testing.T) {
	d := func(day int) time.Time { return time.Date(2024, 5, day, 0, 0, 0, 0, time.UTC) }
	tasks := []Task{
		{Title: "Laporan", Deadline: d(20), Status: TaskInProgress},
		{Title: "Kuis", Deadline: d(10), Status: TaskTodo},
		{Title: "Makalah", Deadline: d(5), Status: TaskDone},
	}
	got := PendingTasks(tasks)
	if len(got) != 2 || got[0].Title != "Kuis" || got[1].Title != "Laporan" {
		t.Fatalf("unexpected pending tasks %+v", got)
	}
}

func TestScheduleEntryValidateTime(t *testing.T) {
	tests := []struct {
		time    string
		wantErr error
	}{
		{time: "08:00"},
		{time: "08.00-10.00"},
		{time: "08:00-10:30"},
		{time: "Pagi"},
		{time: "  ", wantErr: ErrMissingRequiredField},
		{time: strings.Repeat("x", 51), wantErr: ErrTextTooLong},
	}
	for _, tt := range tests {
		err := (ScheduleEntry{Course: "Kalkulus", Day: "Senin", Time: tt.time}).Validate()
		if tt.wantErr == nil && err != nil {
			t.Errorf("time %q: unexpected error %v", tt.time, err)
		}
		if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
			t.Errorf("time %q: expected %v, got %v", tt.time, tt.wantErr, err)
		}
	}

	sched := SortSchedule([]ScheduleEntry{
		{Course: "Fisika", Day: "Senin", Time: "10.00-12.00"},
		{Course: "Kimia", Day: "Senin", Time: "08.00-10.00"},
	})
	if sched[0].Course != "Kimia" {
		t.Fatalf("free-text times should order as strings, got %+v", sched)
	}
}

func TestScheduleAndAttendance(t *testing.T) {
	sched := SortSchedule([]ScheduleEntry{
		{Course: "Basis Data", Day: "Rabu", Time: "08:00"},
		{Course: "Kalkulus", Day: "Senin", Time: "13:00"},
		{Course: "Algoritma", Day: "Senin", Time: "07:30"},
	})
	if sched[0].Course != "Algoritma" || sched[2].Course != "Basis Data" {
		t.Fatalf("unexpected order %+v", sched)
	}
	if err := (ScheduleEntry{Course: "X", Day: "Minggu", Time: "08:00"}).Validate(); !errors.Is(err, ErrInvalidDay) {
		t.Fatalf("expected ErrInvalidDay, got %v", err)
	}

	sum := SummarizeAttendance([]AttendanceEntry{
		{Course: "Kalkulus", Status: Present},
		{Course: "Kalkulus", Status: Sick},
		{Course: "Algoritma", Status: Present},
	})
	if len(sum) != 2 || sum[1].Course != "Kalkulus" || sum[1].Total != 2 || sum[1].Counts[Sick] != 1 {
		t.Fatalf("unexpected summary %+v", sum)
	}
}

func TestParseStatuses(t *testing.T) {
	if st, err := ParseTaskStatus("selesai"); err != nil || st != TaskDone {
		t.Fatalf("got %q %v", st, err)
	}
	if _, err := ParseAttendanceStatus("Bolos"); !errors.Is(err, ErrInvalidStatus) {
		t.Fatalf("expected ErrInvalidStatus, got %v", err)
	}
}
