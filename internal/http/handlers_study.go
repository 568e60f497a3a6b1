package http

import (
	"net/http"

	"dompet/internal/core"
)

func (s *Server) handleListTasks(w http.ResponseWriter, r *http.Request) {
	tasks, err := s.study.Tasks(r.Context(), s.session(r), parseBool(r.URL.Query().Get("pending")))
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	NewResponse().JSON(taskViews(tasks)).Write(w)
}

func (s *Server) handleAddTask(w http.ResponseWriter, r *http.Request) {
	p, ok := parseBody(w, r)
	if !ok {
		return
	}
	deadline, err := parseOptionalTime(p.Get("deadline"), s.cfg.Location)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	t, err := s.study.AddTask(r.Context(), s.session(r), p.Get("title"), deadline, p.Get("status"))
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	NewResponse().Status(http.StatusCreated).JSON(taskViews([]core.Task{t})[0]).Write(w)
}

func (s *Server) handleListNotes(w http.ResponseWriter, r *http.Request) {
	notes, err := s.study.Notes(r.Context(), s.session(r))
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	NewResponse().JSON(noteViews(notes)).Write(w)
}

func (s *Server) handleAddNote(w http.ResponseWriter, r *http.Request) {
	p, ok := parseBody(w, r)
	if !ok {
		return
	}
	n, err := s.study.AddNote(r.Context(), s.session(r), p.Get("title"), p.Get("body"))
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	NewResponse().Status(http.StatusCreated).JSON(noteViews([]core.Note{n})[0]).Write(w)
}

func (s *Server) handleListSchedule(w http.ResponseWriter, r *http.Request) {
	entries, err := s.study.Schedule(r.Context(), s.session(r))
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	NewResponse().JSON(scheduleViews(entries)).Write(w)
}

func (s *Server) handleAddSchedule(w http.ResponseWriter, r *http.Request) {
	p, ok := parseBody(w, r)
	if !ok {
		return
	}
	e, err := s.study.AddSchedule(r.Context(), s.session(r), p.Get("course"), p.Get("day"), p.Get("time"), p.Get("room"))
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	NewResponse().Status(http.StatusCreated).JSON(scheduleViews([]core.ScheduleEntry{e})[0]).Write(w)
}

func (s *Server) handleListAttendance(w http.ResponseWriter, r *http.Request) {
	entries, err := s.study.Attendance(r.Context(), s.session(r))
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	NewResponse().JSON(attendanceViews(entries)).Write(w)
}

func (s *Server) handleRecordAttendance(w http.ResponseWriter, r *http.Request) {
	p, ok := parseBody(w, r)
	if !ok {
		return
	}
	date, err := parseOptionalTime(p.Get("date"), s.cfg.Location)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	a, err := s.study.RecordAttendance(r.Context(), s.session(r), p.Get("course"), date, p.Get("status"))
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	NewResponse().Status(http.StatusCreated).JSON(attendanceViews([]core.AttendanceEntry{a})[0]).Write(w)
}

func (s *Server) handleAttendanceSummary(w http.ResponseWriter, r *http.Request) {
	sums, err := s.study.AttendanceSummary(r.Context(), s.session(r))
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	NewResponse().JSON(attendanceSummaryViews(sums)).Write(w)
}

// handleFinalGrade computes the weighted grade; nothing is stored.
func (s *Server) handleFinalGrade(w http.ResponseWriter, r *http.Request) {
	p, ok := parseBody(w, r)
	if !ok {
		return
	}
	var g core.GradeComponents
	for key, dst := range map[string]*float64{
		"midterm":     &g.Midterm,
		"final":       &g.FinalExam,
		"assignments": &g.Assignments,
		"quiz":        &g.Quiz,
	} {
		v, err := p.Float(key)
		if err != nil {
			writeError(r.Context(), w, err)
			return
		}
		*dst = v
	}

	grade, err := s.study.FinalGrade(g)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	NewResponse().JSON(struct {
		Components core.GradeComponents `json:"components"`
		Final      string               `json:"final"`
	}{g, grade.StringFixed(2)}).Write(w)
}
