// Package catalog holds the immutable question catalog the questionnaire
// walks through. The catalog is loaded once from a JSON document and is
// read-only for the lifetime of a session.
package catalog

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/iandominoni/triagem/internal/model"
)

// Question is one yes/no screening question with per-answer weights.
type Question struct {
	ID            int
	Text          string
	Justification string
	WeightYes     int
	WeightNo      int
}

// WeightFor returns the points awarded for answering v.
func (q Question) WeightFor(v model.Value) int {
	if v == model.Yes {
		return q.WeightYes
	}
	return q.WeightNo
}

// Axis is a named thematic grouping of questions.
type Axis struct {
	Name      string
	Questions []Question
}

// Catalog is the ordered set of axes.
type Catalog struct {
	axes []Axis
}

// AxisCount returns the number of axes.
func (c *Catalog) AxisCount() int {
	return len(c.axes)
}

// AxisAt returns the axis at index i.
func (c *Catalog) AxisAt(i int) Axis {
	return c.axes[i]
}

// TotalQuestions returns the number of questions across all axes.
func (c *Catalog) TotalQuestions() int {
	total := 0
	for _, ax := range c.axes {
		total += len(ax.Questions)
	}
	return total
}

// questionDoc mirrors one question object of the input document.
// peso_sim is the yes weight; the legacy peso field is accepted when
// peso_sim is absent. peso_nao defaults to 1.
type questionDoc struct {
	ID            int    `json:"id"`
	Text          string `json:"texto"`
	Justification string `json:"justificativa"`
	WeightYes     *int   `json:"peso_sim"`
	LegacyWeight  *int   `json:"peso"`
	WeightNo      *int   `json:"peso_nao"`
}

type axisDoc struct {
	Name      string        `json:"nome"`
	Questions []questionDoc `json:"perguntas"`
}

type catalogDoc struct {
	Axes []axisDoc `json:"eixos"`
}

// Load reads and parses a catalog document from path.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return c, nil
}

// Parse builds a catalog from a JSON document with a top-level "eixos"
// key. An empty or malformed document is an error; loaded catalogs are
// trusted by the session without further validation.
func Parse(data []byte) (*Catalog, error) {
	var doc catalogDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("unmarshal catalog: %w", err)
	}
	if len(doc.Axes) == 0 {
		return nil, fmt.Errorf("catalog has no axes")
	}

	axes := make([]Axis, 0, len(doc.Axes))
	for _, ad := range doc.Axes {
		if ad.Name == "" {
			return nil, fmt.Errorf("axis without a name")
		}
		if len(ad.Questions) == 0 {
			return nil, fmt.Errorf("axis %q has no questions", ad.Name)
		}
		ax := Axis{Name: ad.Name, Questions: make([]Question, 0, len(ad.Questions))}
		for _, qd := range ad.Questions {
			if qd.Text == "" {
				return nil, fmt.Errorf("axis %q: question %d has no text", ad.Name, qd.ID)
			}
			q := Question{
				ID:            qd.ID,
				Text:          qd.Text,
				Justification: qd.Justification,
				WeightNo:      1,
			}
			switch {
			case qd.WeightYes != nil:
				q.WeightYes = *qd.WeightYes
			case qd.LegacyWeight != nil:
				q.WeightYes = *qd.LegacyWeight
			}
			if qd.WeightNo != nil {
				q.WeightNo = *qd.WeightNo
			}
			ax.Questions = append(ax.Questions, q)
		}
		axes = append(axes, ax)
	}
	return &Catalog{axes: axes}, nil
}

// New builds a catalog from already-constructed axes, for callers that
// supply the structure directly (tests, embedded defaults).
func New(axes []Axis) *Catalog {
	return &Catalog{axes: axes}
}
