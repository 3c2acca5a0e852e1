// Package session drives one pass over the question catalog, one
// question at a time, recording answers and accumulating score.
package session

import (
	"github.com/iandominoni/triagem/internal/catalog"
	"github.com/iandominoni/triagem/internal/model"
)

// Session is the transient state of one in-progress questionnaire.
// It only moves forward: there is no undo, a cancelled questionnaire is
// discarded via Reset. Not safe for concurrent use; one caller at a time.
type Session struct {
	cat           *catalog.Catalog
	axisIndex     int
	questionIndex int
	answers       []model.Answer
	score         int
}

// New creates a session positioned at the first question of cat.
func New(cat *catalog.Catalog) *Session {
	return &Session{cat: cat}
}

// Reset returns the session to its initial state: no answers, zero
// score, first question of the first axis.
func (s *Session) Reset() {
	s.axisIndex = 0
	s.questionIndex = 0
	s.answers = nil
	s.score = 0
}

// CurrentQuestionNumber returns the 1-indexed position of the current
// question across the whole catalog.
func (s *Session) CurrentQuestionNumber() int {
	n := 0
	for i := 0; i < s.axisIndex; i++ {
		n += len(s.cat.AxisAt(i).Questions)
	}
	return n + s.questionIndex + 1
}

// CurrentAxis returns the axis the session is currently on.
func (s *Session) CurrentAxis() catalog.Axis {
	return s.cat.AxisAt(s.axisIndex)
}

// CurrentQuestion returns the question awaiting an answer, or nil once
// the session is finished.
func (s *Session) CurrentQuestion() *catalog.Question {
	if s.IsFinished() {
		return nil
	}
	ax := s.CurrentAxis()
	if s.questionIndex < len(ax.Questions) {
		q := ax.Questions[s.questionIndex]
		return &q
	}
	return nil
}

// Answer records v for the current question and advances. It reports
// whether more questions remain. Answering a finished session is a
// no-op returning false.
func (s *Session) Answer(v model.Value) bool {
	q := s.CurrentQuestion()
	if q == nil {
		return false
	}

	points := q.WeightFor(v)
	s.answers = append(s.answers, model.Answer{
		Axis:          s.CurrentAxis().Name,
		QuestionID:    q.ID,
		QuestionText:  q.Text,
		Justification: q.Justification,
		Value:         v,
		Points:        points,
	})
	s.score += points

	s.questionIndex++
	if s.questionIndex >= len(s.CurrentAxis().Questions) {
		s.axisIndex++
		s.questionIndex = 0
	}
	return s.axisIndex < s.cat.AxisCount()
}

// IsFinished reports whether every axis has been walked.
func (s *Session) IsFinished() bool {
	return s.axisIndex >= s.cat.AxisCount()
}

// Score returns the cumulative score, always equal to the sum of the
// recorded answers' points.
func (s *Session) Score() int {
	return s.score
}

// Answers returns the answers recorded so far, in order.
func (s *Session) Answers() []model.Answer {
	return s.answers
}
