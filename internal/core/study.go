package core

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

type (
	TaskStatus       string
	AttendanceStatus string
)

const (
	TaskTodo       TaskStatus = "Belum"
	TaskInProgress TaskStatus = "Proses"
	TaskDone       TaskStatus = "Selesai"
)

const (
	Present AttendanceStatus = "Hadir"
	Absent  AttendanceStatus = "Alpa"
	Excused AttendanceStatus = "Izin"
	Sick    AttendanceStatus = "Sakit"
)

// Weekdays are the schedule days in display order.
var Weekdays = []string{"Senin", "Selasa", "Rabu", "Kamis", "Jumat", "Sabtu"}

var (
	ErrInvalidStatus = errors.New("invalid status")
	ErrInvalidDay    = errors.New("invalid schedule day")
)

type (
	Task struct {
		ID       string
		Title    string
		Deadline time.Time
		Status   TaskStatus
		Owner    string
	}

	Note struct {
		ID      string
		Title   string
		Body    string
		Created time.Time
		Owner   string
	}

	ScheduleEntry struct {
		ID     string
		Course string
		Day    string
		Time   string // "HH:MM"
		Room   string
		Owner  string
	}

	AttendanceEntry struct {
		ID     string
		Course string
		Date   time.Time
		Status AttendanceStatus
		Owner  string
	}

	// AttendanceSummary counts entries per status for one course.
	AttendanceSummary struct {
		Course string
		Counts map[AttendanceStatus]int
		Total  int
	}
)

func (t Task) OwnerLabel() string            { return t.Owner }
func (n Note) OwnerLabel() string            { return n.Owner }
func (s ScheduleEntry) OwnerLabel() string   { return s.Owner }
func (a AttendanceEntry) OwnerLabel() string { return a.Owner }

func ParseTaskStatus(s string) (TaskStatus, error) {
	for _, st := range []TaskStatus{TaskTodo, TaskInProgress, TaskDone} {
		if strings.EqualFold(strings.TrimSpace(s), string(st)) {
			return st, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
}

func ParseAttendanceStatus(s string) (AttendanceStatus, error) {
	for _, st := range []AttendanceStatus{Present, Absent, Excused, Sick} {
		if strings.EqualFold(strings.TrimSpace(s), string(st)) {
			return st, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
}

func (t Task) Validate() error {
	if strings.TrimSpace(t.Title) == "" {
		return ErrEmptyName
	}
	if _, err := ParseTaskStatus(string(t.Status)); err != nil {
		return err
	}
	if t.Deadline.IsZero() {
		return fmt.Errorf("%w: zero deadline", ErrInvalidTimestamp)
	}
	return nil
}

func (n Note) Validate() error {
	if strings.TrimSpace(n.Title) == "" {
		return ErrEmptyName
	}
	return nil
}

const maxScheduleTimeLen = 50

func (s ScheduleEntry) Validate() error {
	if strings.TrimSpace(s.Course) == "" {
		return ErrEmptyName
	}
	if dayIndex(s.Day) < 0 {
		return fmt.Errorf("%w: %q", ErrInvalidDay, s.Day)
	}
	// Time is free text ("08.00-10.00", "Pagi").
	if strings.TrimSpace(s.Time) == "" {
		return fmt.Errorf("%w: time", ErrMissingRequiredField)
	}
	if len(s.Time) > maxScheduleTimeLen {
		return fmt.Errorf("%w: time (max %d characters)", ErrTextTooLong, maxScheduleTimeLen)
	}
	return nil
}

func (a AttendanceEntry) Validate() error {
	if strings.TrimSpace(a.Course) == "" {
		return ErrEmptyName
	}
	if a.Date.IsZero() {
		return fmt.Errorf("%w: zero date", ErrInvalidTimestamp)
	}
	if _, err := ParseAttendanceStatus(string(a.Status)); err != nil {
		return err
	}
	return nil
}

func dayIndex(day string) int {
	for i, d := range Weekdays {
		if strings.EqualFold(d, day) {
			return i
		}
	}
	return -1
}

// PendingTasks returns unfinished tasks ordered by deadline.
func PendingTasks(tasks []Task) []Task {
	var out []Task
	for _, t := range tasks {
		if t.Status != TaskDone {
			out = append(out, t)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Deadline.Before(out[j].Deadline) })
	return out
}

// SortSchedule orders entries by weekday then time.
func SortSchedule(entries []ScheduleEntry) []ScheduleEntry {
	out := append([]ScheduleEntry(nil), entries...)
	sort.SliceStable(out, func(i, j int) bool {
		di, dj := dayIndex(out[i].Day), dayIndex(out[j].Day)
		if di != dj {
			return di < dj
		}
		return out[i].Time < out[j].Time
	})
	return out
}

// SummarizeAttendance groups entries by course, courses in name order.
func SummarizeAttendance(entries []AttendanceEntry) []AttendanceSummary {
	byCourse := map[string]*AttendanceSummary{}
	for _, e := range entries {
		s, ok := byCourse[e.Course]
		if !ok {
			s = &AttendanceSummary{Course: e.Course, Counts: map[AttendanceStatus]int{}}
			byCourse[e.Course] = s
		}
		s.Counts[e.Status]++
		s.Total++
	}
	out := make([]AttendanceSummary, 0, len(byCourse))
	for _, s := range byCourse {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Course < out[j].Course })
	return out
}
