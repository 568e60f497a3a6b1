package core

import (
	"errors"
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

var ErrGradeOutOfRange = errors.New("grade component out of range [0,100]")

var (
	weightMidterm     = decimal.RequireFromString("0.3")
	weightFinalExam   = decimal.RequireFromString("0.4")
	weightAssignments = decimal.RequireFromString("0.2")
	weightQuiz        = decimal.RequireFromString("0.1")
)

type GradeComponents struct {
	Midterm     float64 `json:"midterm"`
	FinalExam   float64 `json:"final"`
	Assignments float64 `json:"assignments"`
	Quiz        float64 `json:"quiz"`
}

func (g GradeComponents) Validate() error {
	for name, v := range map[string]float64{
		"midterm":     g.Midterm,
		"final":       g.FinalExam,
		"assignments": g.Assignments,
		"quiz":        g.Quiz,
	} {
		if math.IsNaN(v) || v < 0 || v > 100 {
			return fmt.Errorf("%w: %s=%v", ErrGradeOutOfRange, name, v)
		}
	}
	return nil
}

// FinalGrade is 0.3*midterm + 0.4*final + 0.2*assignments + 0.1*quiz,
// rounded to two decimals.
func FinalGrade(g GradeComponents) (decimal.Decimal, error) {
	if err := g.Validate(); err != nil {
		return decimal.Zero, err
	}
	sum := decimal.NewFromFloat(g.Midterm).Mul(weightMidterm).
		Add(decimal.NewFromFloat(g.FinalExam).Mul(weightFinalExam)).
		Add(decimal.NewFromFloat(g.Assignments).Mul(weightAssignments)).
		Add(decimal.NewFromFloat(g.Quiz).Mul(weightQuiz))
	return sum.Round(2), nil
}
