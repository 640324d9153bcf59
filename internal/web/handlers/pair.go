package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/kozaktomas/photo-grouper/internal/adjudicate"
	"github.com/kozaktomas/photo-grouper/internal/fingerprint"
	"go.uber.org/zap"
)

// Reviewer is the decision queue the handlers serve.
type Reviewer interface {
	Pending() (adjudicate.Pair, bool)
	Decide(id string, same bool) error
	Progress() adjudicate.Progress
	Decided() int
}

// PairHandler serves the pending pair to the review page.
type PairHandler struct {
	reviewer      Reviewer
	thumbnailSize int
	logger        *zap.Logger
}

func NewPairHandler(reviewer Reviewer, thumbnailSize int, logger *zap.Logger) *PairHandler {
	return &PairHandler{
		reviewer:      reviewer,
		thumbnailSize: thumbnailSize,
		logger:        logger,
	}
}

type PairResponse struct {
	Pending  bool                `json:"pending"`
	ID       string              `json:"id,omitempty"`
	Left     string              `json:"left,omitempty"`
	Right    string              `json:"right,omitempty"`
	Decided  int                 `json:"decided"`
	Progress adjudicate.Progress `json:"progress"`
}

type DecisionRequest struct {
	ID   string `json:"id"`
	Same *bool  `json:"same"`
}

// Get returns the pending pair, or pending=false when the run is not waiting.
func (h *PairHandler) Get(w http.ResponseWriter, r *http.Request) {
	resp := PairResponse{
		Decided:  h.reviewer.Decided(),
		Progress: h.reviewer.Progress(),
	}
	if pair, ok := h.reviewer.Pending(); ok {
		resp.Pending = true
		resp.ID = pair.ID
		resp.Left = string(pair.Left)
		resp.Right = string(pair.Right)
	}
	respondJSON(w, http.StatusOK, resp)
}

// Image returns a JPEG thumbnail of one side of the pending pair.
func (h *PairHandler) Image(w http.ResponseWriter, r *http.Request) {
	pair, ok := h.reviewer.Pending()
	if !ok {
		respondError(w, http.StatusNotFound, "no pair pending")
		return
	}

	var path string
	switch side := chi.URLParam(r, "side"); side {
	case "left":
		path = string(pair.Left)
	case "right":
		path = string(pair.Right)
	default:
		respondError(w, http.StatusBadRequest, "side must be left or right")
		return
	}

	data, err := fingerprint.ResizeFile(path, h.thumbnailSize)
	if err != nil {
		h.logger.Warn("failed to render thumbnail", zap.String("image", path), zap.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to render image")
		return
	}

	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// Decide records the answer for the pending pair.
func (h *PairHandler) Decide(w http.ResponseWriter, r *http.Request) {
	var req DecisionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}
	if req.ID == "" || req.Same == nil {
		respondError(w, http.StatusBadRequest, "id and same are required")
		return
	}

	err := h.reviewer.Decide(req.ID, *req.Same)
	switch {
	case errors.Is(err, adjudicate.ErrNoPendingPair), errors.Is(err, adjudicate.ErrStalePair):
		h.logger.Info("rejected stale decision", zap.String("pair", sanitizeForLog(req.ID)), zap.Error(err))
		respondError(w, http.StatusConflict, err.Error())
		return
	case err != nil:
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"id":   req.ID,
		"same": *req.Same,
	})
}
