// Package handler exposes the questionnaire core as a JSON API. The
// desktop front ends are thin clients of these routes; all scoring,
// classification and persistence happens behind them.
package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"sync"

	"github.com/go-chi/chi/v5"

	"github.com/iandominoni/triagem/internal/catalog"
	"github.com/iandominoni/triagem/internal/i18n"
	"github.com/iandominoni/triagem/internal/model"
	"github.com/iandominoni/triagem/internal/report"
	"github.com/iandominoni/triagem/internal/risk"
	"github.com/iandominoni/triagem/internal/session"
	"github.com/iandominoni/triagem/internal/store"
)

// Handler holds shared dependencies for HTTP handlers. It keeps one
// active session: the application is single-user, one questionnaire at
// a time. The mutex only serializes HTTP access to that shared session.
type Handler struct {
	store *store.Store
	cat   *catalog.Catalog

	mu          sync.Mutex
	sess        *session.Session
	patientName string
}

// New creates a new Handler.
func New(s *store.Store, cat *catalog.Catalog) *Handler {
	return &Handler{store: s, cat: cat}
}

// Routes registers all HTTP routes.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/quiz/start", h.handleStartQuiz)
	r.Get("/quiz/question", h.handleCurrentQuestion)
	r.Post("/quiz/answer", h.handleAnswer)

	r.Get("/assessments", h.handleListAssessments)
	r.Get("/assessments/orphans", h.handleListOrphans)
	r.Get("/assessments/{id}", h.handleGetAssessment)
	r.Get("/assessments/{id}/answers", h.handleListAnswers)
	r.Get("/assessments/{id}/report", h.handleReport)
	r.Delete("/assessments/{id}", h.handleDeleteAssessment)

	r.Patch("/answers/{id}", h.handleUpdateAnswer)

	r.Get("/axes/{axis}/answers", h.handleAxisAnswers)
	r.Get("/axes/{axis}/counts", h.handleAxisCounts)
}

type questionResponse struct {
	Axis          string `json:"eixo"`
	QuestionID    int    `json:"pergunta_id"`
	Text          string `json:"texto"`
	Justification string `json:"justificativa,omitempty"`
	Number        int    `json:"numero"`
	Total         int    `json:"total"`
	Label         string `json:"rotulo"`
}

type resultResponse struct {
	AssessmentID int64      `json:"avaliacao_id"`
	PatientName  string     `json:"nome_paciente"`
	RiskLevel    risk.Level `json:"nivel_risco"`
	Score        int        `json:"pontuacao"`
	Message      string     `json:"mensagem"`
	Color        string     `json:"cor"`
}

type answerResponse struct {
	Finished bool              `json:"finalizado"`
	Next     *questionResponse `json:"proxima,omitempty"`
	Result   *resultResponse   `json:"resultado,omitempty"`
}

func (h *Handler) handleStartQuiz(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PatientName string `json:"nome_paciente"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.PatientName == "" {
		http.Error(w, "nome_paciente is required", http.StatusBadRequest)
		return
	}

	h.mu.Lock()
	h.sess = session.New(h.cat)
	h.sess.Reset()
	h.patientName = req.PatientName
	q := h.questionPayload(r)
	h.mu.Unlock()

	slog.Info("questionnaire started", "patient", req.PatientName, "questions", h.cat.TotalQuestions())
	writeJSON(w, http.StatusCreated, q)
}

func (h *Handler) handleCurrentQuestion(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.sess == nil {
		http.Error(w, i18n.T(r.Context(), "NoActiveSession"), http.StatusConflict)
		return
	}
	if h.sess.IsFinished() {
		http.Error(w, i18n.T(r.Context(), "QuestionnaireFinished"), http.StatusGone)
		return
	}
	writeJSON(w, http.StatusOK, h.questionPayload(r))
}

func (h *Handler) handleAnswer(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Value any `json:"resposta"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.sess == nil {
		http.Error(w, i18n.T(r.Context(), "NoActiveSession"), http.StatusConflict)
		return
	}

	hasMore := h.sess.Answer(model.NormalizeValue(req.Value))
	if hasMore {
		writeJSON(w, http.StatusOK, answerResponse{Next: h.questionPayload(r)})
		return
	}

	// Final answer: classify and persist the whole run atomically.
	score := h.sess.Score()
	level := risk.Classify(score)
	id, err := h.store.SaveAssessmentWithAnswers(h.patientName, level, score, h.sess.Answers())
	if err != nil {
		slog.Error("failed to save assessment", "patient", h.patientName, "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	slog.Info("assessment saved", "id", id, "patient", h.patientName, "score", score, "level", level)

	result := &resultResponse{
		AssessmentID: id,
		PatientName:  h.patientName,
		RiskLevel:    level,
		Score:        score,
		Message:      i18n.ResultMessage(r.Context(), level),
		Color:        risk.ColorFor(level),
	}
	h.sess = nil
	h.patientName = ""
	writeJSON(w, http.StatusOK, answerResponse{Finished: true, Result: result})
}

// questionPayload builds the response for the session's current
// question. Callers must hold h.mu.
func (h *Handler) questionPayload(r *http.Request) *questionResponse {
	q := h.sess.CurrentQuestion()
	if q == nil {
		return nil
	}
	number := h.sess.CurrentQuestionNumber()
	total := h.cat.TotalQuestions()
	return &questionResponse{
		Axis:          h.sess.CurrentAxis().Name,
		QuestionID:    q.ID,
		Text:          q.Text,
		Justification: q.Justification,
		Number:        number,
		Total:         total,
		Label:         i18n.Td(r.Context(), "QuestionN", map[string]any{"Number": number, "Total": total}),
	}
}

func (h *Handler) handleListAssessments(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	assessments, err := h.store.ListAssessments(limit, offset)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, assessments)
}

func (h *Handler) handleListOrphans(w http.ResponseWriter, r *http.Request) {
	orphans, err := h.store.ListOrphanAssessments()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, orphans)
}

func (h *Handler) handleGetAssessment(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	a, err := h.store.GetAssessment(id)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if a == nil {
		http.Error(w, i18n.T(r.Context(), "AssessmentNotFound"), http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (h *Handler) handleListAnswers(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	answers, err := h.store.ListAnswersForAssessment(id)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, answers)
}

func (h *Handler) handleReport(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	rep, err := report.Build(r.Context(), h.store, id)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if rep == nil {
		http.Error(w, i18n.T(r.Context(), "AssessmentNotFound"), http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

func (h *Handler) handleDeleteAssessment(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	if err := h.store.DeleteAssessment(id); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	slog.Info("assessment deleted", "id", id)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleUpdateAnswer(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	var req struct {
		Value any `json:"resposta"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	err := h.store.UpdateAnswer(id, req.Value)
	if err == store.ErrNotFound {
		http.Error(w, i18n.T(r.Context(), "AnswerNotFound"), http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleAxisAnswers(w http.ResponseWriter, r *http.Request) {
	axis := chi.URLParam(r, "axis")
	assessmentID, _ := strconv.ParseInt(r.URL.Query().Get("assessment_id"), 10, 64)

	answers, err := h.store.ListAnswersForAxis(axis, assessmentID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, answers)
}

func (h *Handler) handleAxisCounts(w http.ResponseWriter, r *http.Request) {
	axis := chi.URLParam(r, "axis")
	assessmentID, _ := strconv.ParseInt(r.URL.Query().Get("assessment_id"), 10, 64)

	yes, no, err := h.store.CountAnswersByValue(axis, assessmentID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"sim": yes, "nao": no})
}

func idParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response", "error", err)
	}
}
