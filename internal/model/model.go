package model

import (
	"strings"
	"time"

	"github.com/iandominoni/triagem/internal/risk"
)

// Value is a normalized yes/no answer value.
type Value string

const (
	Yes Value = "sim"
	No  Value = "nao"
)

// Int returns the stored integer form of the value (1 = yes, 0 = no).
func (v Value) Int() int {
	if v == Yes {
		return 1
	}
	return 0
}

// ValueFromInt converts a stored integer back to a Value.
func ValueFromInt(i int) Value {
	if i != 0 {
		return Yes
	}
	return No
}

// NormalizeValue coerces any raw answer representation to a Value.
// It is total: unrecognized input normalizes to No, never an error.
// Accepted yes forms: true, non-zero numbers, and the strings
// "sim", "s", "1", "true" (case-insensitive, trimmed).
func NormalizeValue(raw any) Value {
	switch v := raw.(type) {
	case Value:
		// Non-canonical Value strings go through the string rules.
		return NormalizeValue(string(v))
	case bool:
		if v {
			return Yes
		}
		return No
	case int:
		return ValueFromInt(v)
	case int64:
		if v != 0 {
			return Yes
		}
		return No
	case float64:
		// JSON numbers decode as float64.
		if v != 0 {
			return Yes
		}
		return No
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "sim", "s", "1", "true":
			return Yes
		}
		return No
	default:
		return No
	}
}

// Answer is one answered question. The session fills all fields except
// ID and CreatedAt, which the store assigns at write time. Justification
// travels with the session only; it is not a column of the answers table.
type Answer struct {
	ID            int64     `json:"id,omitempty"`
	Axis          string    `json:"eixo"`
	QuestionID    int       `json:"pergunta_id"`
	QuestionText  string    `json:"pergunta_texto"`
	Justification string    `json:"justificativa,omitempty"`
	Value         Value     `json:"resposta"`
	Points        int       `json:"pontos"`
	CreatedAt     time.Time `json:"data_criacao,omitzero"`
}

// Assessment is one completed, persisted questionnaire run.
// Date is the display form of CreatedAt, filled on reads.
type Assessment struct {
	ID          int64      `json:"id"`
	PatientName string     `json:"nome_paciente"`
	RiskLevel   risk.Level `json:"nivel_risco"`
	Score       int        `json:"pontuacao"`
	CreatedAt   time.Time  `json:"data_criacao"`
	Date        string     `json:"data"`
}
