// Package report assembles read-side views of stored assessments for
// the external consumers of the history: the PDF generator and the
// email sender. Rendering and transport stay outside this repository;
// this package only shapes the data they need.
package report

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/iandominoni/triagem/internal/i18n"
	"github.com/iandominoni/triagem/internal/model"
	"github.com/iandominoni/triagem/internal/risk"
	"github.com/iandominoni/triagem/internal/store"
)

// AxisSection groups one axis's answers with its tallies.
type AxisSection struct {
	Axis     string         `json:"eixo"`
	Answers  []model.Answer `json:"respostas"`
	YesCount int            `json:"sim"`
	NoCount  int            `json:"nao"`
	Points   int            `json:"pontos"`
}

// Report is one assessment prepared for rendering: answers grouped by
// axis in their original order, plus the level color and localized
// result message.
type Report struct {
	Assessment model.Assessment `json:"avaliacao"`
	Sections   []AxisSection    `json:"secoes"`
	Color      string           `json:"cor"`
	Message    string           `json:"mensagem"`
}

// Build loads an assessment and its answers and groups them per axis.
// Returns nil when the assessment does not exist.
func Build(ctx context.Context, s *store.Store, assessmentID int64) (*Report, error) {
	a, err := s.GetAssessment(assessmentID)
	if err != nil {
		return nil, fmt.Errorf("get assessment %d: %w", assessmentID, err)
	}
	if a == nil {
		return nil, nil
	}
	answers, err := s.ListAnswersForAssessment(assessmentID)
	if err != nil {
		return nil, fmt.Errorf("list answers for %d: %w", assessmentID, err)
	}

	return &Report{
		Assessment: *a,
		Sections:   GroupByAxis(answers),
		Color:      risk.ColorFor(a.RiskLevel),
		Message:    i18n.ResultMessage(ctx, a.RiskLevel),
	}, nil
}

// GroupByAxis splits answers into per-axis sections, preserving the
// order axes first appear in.
func GroupByAxis(answers []model.Answer) []AxisSection {
	var sections []AxisSection
	index := make(map[string]int)
	for _, a := range answers {
		i, ok := index[a.Axis]
		if !ok {
			i = len(sections)
			index[a.Axis] = i
			sections = append(sections, AxisSection{Axis: a.Axis})
		}
		sec := &sections[i]
		sec.Answers = append(sec.Answers, a)
		if a.Value == model.Yes {
			sec.YesCount++
		} else {
			sec.NoCount++
		}
		sec.Points += a.Points
	}
	return sections
}

// ResponsePath renders the answer sequence as display text, one axis
// heading per group and one line per question.
func ResponsePath(answers []model.Answer) string {
	if len(answers) == 0 {
		return "Nenhuma resposta registrada"
	}

	var b strings.Builder
	currentAxis := ""
	for _, a := range answers {
		if a.Axis != currentAxis {
			currentAxis = a.Axis
			fmt.Fprintf(&b, "\n%s:\n", currentAxis)
		}
		symbol := "✗ NÃO"
		if a.Value == model.Yes {
			symbol = "✓ SIM"
		}
		fmt.Fprintf(&b, "  Q%02d: %s (+%d pts)\n", a.QuestionID, symbol, a.Points)
	}
	return strings.TrimRight(b.String(), "\n")
}

// Export is the top-level JSON structure for a full history export.
type Export struct {
	GeneratedAt time.Time          `json:"generated_at"`
	Total       int                `json:"total"`
	Assessments []AssessmentExport `json:"avaliacoes"`
}

// AssessmentExport is one assessment with its answers, export form.
type AssessmentExport struct {
	Assessment model.Assessment `json:"avaliacao"`
	Answers    []model.Answer   `json:"respostas"`
}

// ExportAll builds the export structure for every stored assessment,
// newest first.
func ExportAll(s *store.Store) (Export, error) {
	assessments, err := s.ListAssessments(0, 0)
	if err != nil {
		return Export{}, fmt.Errorf("list assessments: %w", err)
	}

	export := Export{GeneratedAt: time.Now(), Total: len(assessments)}
	for _, a := range assessments {
		answers, err := s.ListAnswersForAssessment(a.ID)
		if err != nil {
			return Export{}, fmt.Errorf("list answers for %d: %w", a.ID, err)
		}
		export.Assessments = append(export.Assessments, AssessmentExport{
			Assessment: a,
			Answers:    answers,
		})
	}
	return export, nil
}
