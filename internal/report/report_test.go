package report

import (
	"context"
	"strings"
	"testing"

	"github.com/iandominoni/triagem/internal/i18n"
	"github.com/iandominoni/triagem/internal/model"
	"github.com/iandominoni/triagem/internal/risk"
	"github.com/iandominoni/triagem/internal/store"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.New(":memory:")
	if err != nil {
		t.Fatalf("newTestStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func testCtx(t *testing.T) context.Context {
	t.Helper()
	if err := i18n.Init("pt"); err != nil {
		t.Fatalf("i18n.Init: %v", err)
	}
	return i18n.WithLocalizer(context.Background(), i18n.NewLocalizer("pt"))
}

func testAnswers() []model.Answer {
	return []model.Answer{
		{Axis: "Comportamento Alimentar", QuestionID: 1, QuestionText: "P1", Value: model.Yes, Points: 5},
		{Axis: "Comportamento Alimentar", QuestionID: 2, QuestionText: "P2", Value: model.No, Points: 1},
		{Axis: "Imagem Corporal", QuestionID: 3, QuestionText: "P3", Value: model.Yes, Points: 4},
	}
}

func TestGroupByAxis(t *testing.T) {
	sections := GroupByAxis(testAnswers())

	if len(sections) != 2 {
		t.Fatalf("expected 2 sections, got %d", len(sections))
	}
	// Axis order of first appearance is preserved.
	if sections[0].Axis != "Comportamento Alimentar" || sections[1].Axis != "Imagem Corporal" {
		t.Errorf("section order = %q, %q", sections[0].Axis, sections[1].Axis)
	}

	first := sections[0]
	if first.YesCount != 1 || first.NoCount != 1 || first.Points != 6 {
		t.Errorf("first section tallies = %+v", first)
	}
	if len(first.Answers) != 2 {
		t.Errorf("first section answers = %d, want 2", len(first.Answers))
	}

	if sections[1].YesCount != 1 || sections[1].NoCount != 0 || sections[1].Points != 4 {
		t.Errorf("second section tallies = %+v", sections[1])
	}
}

func TestResponsePath(t *testing.T) {
	got := ResponsePath(testAnswers())

	for _, want := range []string{
		"Comportamento Alimentar:",
		"Q01: ✓ SIM (+5 pts)",
		"Q02: ✗ NÃO (+1 pts)",
		"Imagem Corporal:",
		"Q03: ✓ SIM (+4 pts)",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("ResponsePath missing %q in:\n%s", want, got)
		}
	}

	if got := ResponsePath(nil); got != "Nenhuma resposta registrada" {
		t.Errorf("ResponsePath(nil) = %q", got)
	}
}

func TestBuild(t *testing.T) {
	s := newTestStore(t)
	ctx := testCtx(t)

	id, err := s.SaveAssessmentWithAnswers("Paciente X", risk.LevelLow, 10, testAnswers())
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	rep, err := Build(ctx, s, id)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if rep == nil {
		t.Fatal("expected report, got nil")
	}

	if rep.Assessment.PatientName != "Paciente X" {
		t.Errorf("patient = %q", rep.Assessment.PatientName)
	}
	if len(rep.Sections) != 2 {
		t.Errorf("sections = %d, want 2", len(rep.Sections))
	}
	if rep.Color != risk.ColorFor(risk.LevelLow) {
		t.Errorf("color = %q", rep.Color)
	}
	if !strings.Contains(rep.Message, "Resultado positivo") {
		t.Errorf("message = %q", rep.Message)
	}
}

func TestBuildMissing(t *testing.T) {
	s := newTestStore(t)
	ctx := testCtx(t)

	rep, err := Build(ctx, s, 9999)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if rep != nil {
		t.Errorf("expected nil report for missing assessment, got %+v", rep)
	}
}

func TestExportAll(t *testing.T) {
	s := newTestStore(t)

	id1, _ := s.SaveAssessmentWithAnswers("P1", risk.LevelLow, 10, testAnswers())
	s.SaveAssessmentWithAnswers("P2", risk.LevelMedium, 35, nil)

	export, err := ExportAll(s)
	if err != nil {
		t.Fatalf("ExportAll: %v", err)
	}
	if export.Total != 2 {
		t.Errorf("total = %d, want 2", export.Total)
	}
	if len(export.Assessments) != 2 {
		t.Fatalf("assessments = %d, want 2", len(export.Assessments))
	}

	for _, ae := range export.Assessments {
		if ae.Assessment.ID == id1 && len(ae.Answers) != 3 {
			t.Errorf("assessment %d answers = %d, want 3", id1, len(ae.Answers))
		}
	}
	if export.GeneratedAt.IsZero() {
		t.Error("expected GeneratedAt to be set")
	}
}
