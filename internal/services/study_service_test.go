package services

import (
	"context"
	"testing"
	"time"

	"dompet/internal/core"
	"dompet/internal/ledger"
	"dompet/internal/ledger/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStudy(t *testing.T) *StudyService {
	t.Helper()
	return NewStudyService(memory.New(ledger.DefaultCategories),
		WithClock(func() time.Time { return fixedNow }),
		WithLocation(time.UTC))
}

func TestStudyService_Tasks(t *testing.T) {
	svc := newTestStudy(t)
	ctx := context.Background()
	may := NewSession("May", "")

	late := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)
	soon := time.Date(2024, 3, 20, 0, 0, 0, 0, time.UTC)

	_, err := svc.AddTask(ctx, may, "Laporan praktikum", late, "")
	require.NoError(t, err)
	_, err = svc.AddTask(ctx, may, "Kuis kalkulus", soon, "proses")
	require.NoError(t, err)
	_, err = svc.AddTask(ctx, may, "Esai", soon, "Selesai")
	require.NoError(t, err)
	_, err = svc.AddTask(ctx, NewSession("Lili", ""), "Lain", soon, "")
	require.NoError(t, err)

	_, err = svc.AddTask(ctx, may, "Bad", soon, "nanti")
	assert.ErrorIs(t, err, core.ErrInvalidStatus)
	_, err = svc.AddTask(ctx, may, "", soon, "")
	assert.ErrorIs(t, err, core.ErrEmptyName)

	all, err := svc.Tasks(ctx, may, false)
	require.NoError(t, err)
	assert.Len(t, all, 3)
	assert.Equal(t, core.TaskTodo, all[0].Status)

	pending, err := svc.Tasks(ctx, may, true)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, "Kuis kalkulus", pending[0].Title)
	assert.Equal(t, core.TaskInProgress, pending[0].Status)
}

func TestStudyService_Notes(t *testing.T) {
	svc := newTestStudy(t)
	ctx := context.Background()

	n, err := svc.AddNote(ctx, NewSession("May", ""), "Rangkuman", "# Bab 1")
	require.NoError(t, err)
	assert.Equal(t, fixedNow, n.Created)

	notes, err := svc.Notes(ctx, NewSession("Lili", ""))
	require.NoError(t, err)
	assert.Empty(t, notes)
}

func TestStudyService_Schedule(t *testing.T) {
	svc := newTestStudy(t)
	ctx := context.Background()
	may := NewSession("May", "")

	_, err := svc.AddSchedule(ctx, may, "Fisika", "rabu", "10:00", "B2")
	require.NoError(t, err)
	_, err = svc.AddSchedule(ctx, may, "Kalkulus", "Senin", "13:00", "A1")
	require.NoError(t, err)
	_, err = svc.AddSchedule(ctx, may, "Kimia", "Senin", "08:00", "A3")
	require.NoError(t, err)
	_, err = svc.AddSchedule(ctx, may, "Olahraga", "Minggu", "08:00", "")
	assert.ErrorIs(t, err, core.ErrInvalidDay)

	got, err := svc.Schedule(ctx, may)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, []string{"Kimia", "Kalkulus", "Fisika"}, []string{got[0].Course, got[1].Course, got[2].Course})
	assert.Equal(t, "Rabu", got[2].Day)
}

func TestStudyService_Attendance(t *testing.T) {
	svc := newTestStudy(t)
	ctx := context.Background()
	may := NewSession("May", "")

	for _, st := range []string{"Hadir", "hadir", "Sakit"} {
		_, err := svc.RecordAttendance(ctx, may, "Fisika", time.Time{}, st)
		require.NoError(t, err)
	}
	_, err := svc.RecordAttendance(ctx, may, "Kimia", time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), "Izin")
	require.NoError(t, err)
	_, err = svc.RecordAttendance(ctx, may, "Kimia", time.Time{}, "bolos")
	assert.ErrorIs(t, err, core.ErrInvalidStatus)

	entries, err := svc.Attendance(ctx, may)
	require.NoError(t, err)
	require.Len(t, entries, 4)
	assert.Equal(t, time.Date(2024, 3, 13, 0, 0, 0, 0, time.UTC), entries[0].Date)

	summary, err := svc.AttendanceSummary(ctx, may)
	require.NoError(t, err)
	require.Len(t, summary, 2)
	assert.Equal(t, "Fisika", summary[0].Course)
	assert.Equal(t, 2, summary[0].Counts[core.Present])
	assert.Equal(t, 3, summary[0].Total)
}

func TestStudyService_FinalGrade(t *testing.T) {
	svc := newTestStudy(t)
	got, err := svc.FinalGrade(core.GradeComponents{Midterm: 80, FinalExam: 90, Assignments: 70, Quiz: 100})
	require.NoError(t, err)
	assert.Equal(t, "84", got.String())
	assert.Equal(t, "84.00", got.StringFixed(2))

	_, err = svc.FinalGrade(core.GradeComponents{Midterm: 101})
	assert.ErrorIs(t, err, core.ErrGradeOutOfRange)
}
