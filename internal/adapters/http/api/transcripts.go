package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/okian/diploma/internal/domain/credits"
	"github.com/okian/diploma/internal/domain/dedupe"
	"github.com/okian/diploma/internal/domain/model"
)

// TranscriptDependencies accepts transcripts for asynchronous evaluation.
type TranscriptDependencies interface {
	dedupe.Deduper
	Catalog() *credits.Catalog
	NewSubmissionID() string
	Enqueue(ctx context.Context, t model.Transcript) bool
}

// TranscriptHandler handles transcript submissions.
type TranscriptHandler struct {
	deps TranscriptDependencies
}

// NewTranscriptHandler creates a new transcript handler.
func NewTranscriptHandler(deps TranscriptDependencies) *TranscriptHandler {
	return &TranscriptHandler{deps: deps}
}

// HandlePostTranscript handles POST /transcripts. Transcripts are validated
// synchronously and evaluated by the worker pool.
func (h *TranscriptHandler) HandlePostTranscript(w http.ResponseWriter, r *http.Request) {
	const op = "api.transcripts"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}

	var req transcriptRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	t, err := req.transcript(h.deps.Catalog())
	if err != nil {
		writeError(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	t.StudentID = strings.TrimSpace(t.StudentID)
	t.SubmissionID = strings.TrimSpace(t.SubmissionID)
	if err := t.Validate(h.deps.Catalog()); err != nil {
		writeError(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	if t.SubmissionID == "" {
		t.SubmissionID = h.deps.NewSubmissionID()
	}

	ctx := r.Context()
	if h.deps.SeenAndRecord(ctx, t.SubmissionID) {
		writeJSON(w, http.StatusOK, ackResponse{Status: "duplicate", SubmissionID: t.SubmissionID, Duplicate: true})
		return
	}
	if !h.deps.Enqueue(ctx, t) {
		h.deps.Unrecord(ctx, t.SubmissionID)
		w.Header().Set("Retry-After", "1")
		writeError(w, NewKind(op, ErrBackpressure))
		return
	}
	writeJSON(w, http.StatusAccepted, ackResponse{Status: "accepted", SubmissionID: t.SubmissionID})
}
