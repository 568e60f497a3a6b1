package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"dompet/internal/core"
	"dompet/internal/ledger"
	dlog "dompet/internal/log"

	"github.com/shopspring/decimal"
)

// StudyService manages the student-life records: tasks, notes, the weekly
// class schedule and attendance.
type StudyService struct {
	store  ledger.StudyStore
	now    func() time.Time
	loc    *time.Location
	logger *dlog.Logger
}

func NewStudyService(store ledger.StudyStore, opts ...Option) *StudyService {
	o := buildOptions(opts)
	if o.logger.Component() == dlog.ComponentLedger {
		o.logger = o.logger.WithComponent(dlog.ComponentStudy)
	}
	return &StudyService{store: store, now: o.now, loc: o.loc, logger: o.logger}
}

// AddTask stores a task. An empty status means core.TaskTodo.
func (s *StudyService) AddTask(ctx context.Context, sess Session, title string, deadline time.Time, status string) (core.Task, error) {
	st := core.TaskTodo
	if strings.TrimSpace(status) != "" {
		parsed, err := core.ParseTaskStatus(status)
		if err != nil {
			return core.Task{}, err
		}
		st = parsed
	}
	t, err := s.store.AppendTask(ctx, core.Task{
		Title:    strings.TrimSpace(title),
		Deadline: deadline,
		Status:   st,
		Owner:    core.NormalizeOwner(sess.User),
	})
	if err != nil {
		return core.Task{}, err
	}
	s.logger.InfoContext(ctx, "Task added", dlog.FieldOwner, t.Owner, "task_id", t.ID)
	return t, nil
}

// Tasks lists the session's tasks. pendingOnly drops finished ones and orders
// the rest by deadline.
func (s *StudyService) Tasks(ctx context.Context, sess Session, pendingOnly bool) ([]core.Task, error) {
	all, err := s.store.ListTasks(ctx)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	tasks := core.Scope(all, sess.User)
	if pendingOnly {
		return core.PendingTasks(tasks), nil
	}
	return tasks, nil
}

func (s *StudyService) AddNote(ctx context.Context, sess Session, title, body string) (core.Note, error) {
	return s.store.AppendNote(ctx, core.Note{
		Title:   strings.TrimSpace(title),
		Body:    body,
		Created: s.now().In(s.loc),
		Owner:   core.NormalizeOwner(sess.User),
	})
}

func (s *StudyService) Notes(ctx context.Context, sess Session) ([]core.Note, error) {
	all, err := s.store.ListNotes(ctx)
	if err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}
	return core.Scope(all, sess.User), nil
}

func (s *StudyService) AddSchedule(ctx context.Context, sess Session, course, day, at, room string) (core.ScheduleEntry, error) {
	return s.store.AppendSchedule(ctx, core.ScheduleEntry{
		Course: strings.TrimSpace(course),
		Day:    canonicalDay(day),
		Time:   strings.TrimSpace(at),
		Room:   strings.TrimSpace(room),
		Owner:  core.NormalizeOwner(sess.User),
	})
}

// Schedule lists the session's classes ordered by weekday then time.
func (s *StudyService) Schedule(ctx context.Context, sess Session) ([]core.ScheduleEntry, error) {
	all, err := s.store.ListSchedule(ctx)
	if err != nil {
		return nil, fmt.Errorf("list schedule: %w", err)
	}
	return core.SortSchedule(core.Scope(all, sess.User)), nil
}

// RecordAttendance stores one attendance mark. A zero date means today.
func (s *StudyService) RecordAttendance(ctx context.Context, sess Session, course string, date time.Time, status string) (core.AttendanceEntry, error) {
	st, err := core.ParseAttendanceStatus(status)
	if err != nil {
		return core.AttendanceEntry{}, err
	}
	if date.IsZero() {
		now := s.now().In(s.loc)
		date = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.loc)
	}
	return s.store.AppendAttendance(ctx, core.AttendanceEntry{
		Course: strings.TrimSpace(course),
		Date:   date,
		Status: st,
		Owner:  core.NormalizeOwner(sess.User),
	})
}

func (s *StudyService) Attendance(ctx context.Context, sess Session) ([]core.AttendanceEntry, error) {
	all, err := s.store.ListAttendance(ctx)
	if err != nil {
		return nil, fmt.Errorf("list attendance: %w", err)
	}
	return core.Scope(all, sess.User), nil
}

func (s *StudyService) AttendanceSummary(ctx context.Context, sess Session) ([]core.AttendanceSummary, error) {
	entries, err := s.Attendance(ctx, sess)
	if err != nil {
		return nil, err
	}
	return core.SummarizeAttendance(entries), nil
}

// FinalGrade weighs the four components; nothing is stored.
func (s *StudyService) FinalGrade(g core.GradeComponents) (decimal.Decimal, error) {
	return core.FinalGrade(g)
}

func canonicalDay(day string) string {
	day = strings.TrimSpace(day)
	for _, d := range core.Weekdays {
		if strings.EqualFold(d, day) {
			return d
		}
	}
	return day
}
