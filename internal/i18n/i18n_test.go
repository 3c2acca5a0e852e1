package i18n

import (
	"context"
	"testing"

	"github.com/iandominoni/triagem/internal/risk"
)

func initLang(t *testing.T, lang string) context.Context {
	t.Helper()
	if err := Init(lang); err != nil {
		t.Fatalf("Init(%q): %v", lang, err)
	}
	loc := NewLocalizer(lang)
	return WithLocalizer(context.Background(), loc)
}

func TestTranslatePortuguese(t *testing.T) {
	ctx := initLang(t, "pt")

	got := T(ctx, "AppTitle")
	if got != "Sistema de Avaliação de Risco" {
		t.Errorf("T(AppTitle) = %q", got)
	}

	got = T(ctx, "NoActiveSession")
	if got != "Nenhum questionário em andamento" {
		t.Errorf("T(NoActiveSession) = %q", got)
	}
}

func TestTranslateEnglish(t *testing.T) {
	ctx := initLang(t, "en")

	got := T(ctx, "AppTitle")
	if got != "Risk Assessment System" {
		t.Errorf("T(AppTitle) = %q", got)
	}
}

func TestResultMessagePerLevel(t *testing.T) {
	ctx := initLang(t, "pt")

	tests := []struct {
		level risk.Level
		want  string
	}{
		{risk.LevelLow, "Resultado positivo. Sem indícios clínicos significativos detectados."},
		{risk.LevelMedium, "Atenção necessária. Relação emocional desajustada com alimentação e imagem corporal."},
		{risk.LevelHigh, "Alerta importante. Padrões disfuncionais em desenvolvimento requerem atenção profissional."},
		{risk.LevelCritical, "Intervenção urgente recomendada. Possível transtorno alimentar ativo detectado."},
	}
	for _, tt := range tests {
		if got := ResultMessage(ctx, tt.level); got != tt.want {
			t.Errorf("ResultMessage(%q) = %q, want %q", tt.level, got, tt.want)
		}
	}

	// Unknown levels fall back to the critical message.
	if got := ResultMessage(ctx, risk.Level("???")); got != tests[3].want {
		t.Errorf("ResultMessage(unknown) = %q", got)
	}
}

func TestTemplateData(t *testing.T) {
	ctx := initLang(t, "pt")

	got := Td(ctx, "QuestionN", map[string]any{"Number": 3, "Total": 11})
	if got != "Pergunta 3 de 11" {
		t.Errorf("Td(QuestionN) = %q", got)
	}
}

func TestPluralTranslation(t *testing.T) {
	ctx := initLang(t, "pt")

	got1 := Tp(ctx, "AssessmentsStored", 1)
	if got1 != "1 avaliação armazenada" {
		t.Errorf("Tp(AssessmentsStored, 1) = %q", got1)
	}

	got5 := Tp(ctx, "AssessmentsStored", 5)
	if got5 != "5 avaliações armazenadas" {
		t.Errorf("Tp(AssessmentsStored, 5) = %q", got5)
	}
}

func TestMissingKey(t *testing.T) {
	ctx := initLang(t, "pt")

	got := T(ctx, "NonExistentKey")
	if got != "NonExistentKey" {
		t.Errorf("T(NonExistentKey) = %q, want the key itself", got)
	}
}
