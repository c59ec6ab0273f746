package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/jaam8/voting_booth/internal/metrics"
	"github.com/jaam8/voting_booth/internal/models"
	"github.com/jaam8/voting_booth/internal/service"
	"go.uber.org/zap"
)

type TaskService interface {
	SendVoteInvitations(ctx context.Context, reqs []models.InvitationRequest) error
	IssueVoteToken(ctx context.Context, email, festivalSlug string) (string, error)
	RedeemVoteToken(ctx context.Context, token string) (email, festivalSlug string, err error)
}

type TaskHandler struct {
	s           TaskService
	m           *metrics.Metrics
	strictKinds bool
	l           *zap.Logger
}

// NewTaskHandler builds the /tasks handler. With strictKinds unset, unknown
// task kinds are accepted with an empty 201 like the legacy controller did.
func NewTaskHandler(s TaskService, m *metrics.Metrics, strictKinds bool, l *zap.Logger) *TaskHandler {
	return &TaskHandler{
		s:           s,
		m:           m,
		strictKinds: strictKinds,
		l:           l,
	}
}

// CreateTask handles POST /tasks.
func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	var req models.TaskRequest
	if err := ParseJSONBody(w, r, &req); err != nil {
		h.m.ObserveTask("", false, http.StatusBadRequest)
		ErrorResponse(w, h.l, http.StatusBadRequest, "Invalid JSON")
		return
	}

	status := h.dispatch(w, r, req)
	h.m.ObserveTask(string(req.Kind), req.Kind.Known(), status)
}

func (h *TaskHandler) dispatch(w http.ResponseWriter, r *http.Request, req models.TaskRequest) int {
	if _, ok := UserFromContext(r.Context()); !ok && req.Kind.Protected() {
		h.l.Warn("unauthorized task submission", zap.String("kind", string(req.Kind)))
		ErrorResponse(w, h.l, http.StatusUnauthorized, "Unauthorized")
		return http.StatusUnauthorized
	}

	switch req.Kind {
	case models.TaskVoteInvitations:
		return h.voteInvitations(w, r, req.Data)
	case models.TaskVote:
		return h.vote(w, r, req.Data)
	}

	if h.strictKinds {
		h.l.Warn("rejected task", zap.String("kind", string(req.Kind)), zap.Error(models.ErrUnknownTaskKind))
		ErrorResponse(w, h.l, http.StatusBadRequest, "Unknown task kind")
		return http.StatusBadRequest
	}
	w.WriteHeader(http.StatusCreated)
	return http.StatusCreated
}

func (h *TaskHandler) voteInvitations(w http.ResponseWriter, r *http.Request, data json.RawMessage) int {
	var reqs []models.InvitationRequest
	if err := json.Unmarshal(data, &reqs); err != nil {
		ErrorResponse(w, h.l, http.StatusBadRequest, "data must be a list of invitations")
		return http.StatusBadRequest
	}

	err := h.s.SendVoteInvitations(r.Context(), reqs)
	var batchErr *service.BatchError
	switch {
	case err == nil:
		w.WriteHeader(http.StatusCreated)
		return http.StatusCreated
	case errors.Is(err, models.ErrInvalidTaskData):
		ErrorResponse(w, h.l, http.StatusBadRequest, err.Error())
		return http.StatusBadRequest
	case errors.As(err, &batchErr):
		JSONResponse(w, h.l, http.StatusInternalServerError, models.ErrorResponse{
			Message: "Failed to send some vote invitations",
			Failed:  batchErr.Failed,
		})
		return http.StatusInternalServerError
	default:
		h.l.Error("failed to send vote invitations", zap.Error(err))
		ErrorResponse(w, h.l, http.StatusInternalServerError, "Failed to send vote invitations")
		return http.StatusInternalServerError
	}
}

func (h *TaskHandler) vote(w http.ResponseWriter, r *http.Request, data json.RawMessage) int {
	var req models.VoteTaskData
	if err := json.Unmarshal(data, &req); err != nil {
		ErrorResponse(w, h.l, http.StatusBadRequest, "data must contain email and festivalSlug")
		return http.StatusBadRequest
	}

	token, err := h.s.IssueVoteToken(r.Context(), req.Email, req.FestivalSlug)
	switch {
	case err == nil:
	case errors.Is(err, models.ErrInvitationNotFound):
		ErrorResponse(w, h.l, http.StatusNotFound, "No vote invitation found")
		return http.StatusNotFound
	case errors.Is(err, models.ErrInvalidTaskData):
		ErrorResponse(w, h.l, http.StatusBadRequest, err.Error())
		return http.StatusBadRequest
	default:
		ErrorResponse(w, h.l, http.StatusInternalServerError, "Failed to create vote token")
		return http.StatusInternalServerError
	}

	h.m.TokenIssued()
	JSONResponse(w, h.l, http.StatusCreated, models.VoteTokenResponse{Token: token})
	return http.StatusCreated
}

// RedeemToken handles POST /tokens/redeem.
func (h *TaskHandler) RedeemToken(w http.ResponseWriter, r *http.Request) {
	var req models.RedeemRequest
	if err := ParseJSONBody(w, r, &req); err != nil {
		ErrorResponse(w, h.l, http.StatusBadRequest, "Invalid JSON")
		return
	}

	email, slug, err := h.s.RedeemVoteToken(r.Context(), req.Token)
	switch {
	case err == nil:
	case errors.Is(err, models.ErrInvalidTaskData):
		h.m.Redemption("invalid")
		ErrorResponse(w, h.l, http.StatusBadRequest, "token is required")
		return
	case errors.Is(err, models.ErrTokenNotFound):
		h.m.Redemption("not_found")
		ErrorResponse(w, h.l, http.StatusNotFound, "Vote token not found or expired")
		return
	default:
		h.m.Redemption("error")
		ErrorResponse(w, h.l, http.StatusInternalServerError, "Failed to redeem vote token")
		return
	}

	h.m.Redemption("ok")
	h.l.Info("vote token redeemed", zap.String("festival_slug", slug))
	JSONResponse(w, h.l, http.StatusOK, models.RedeemResponse{Email: email, FestivalSlug: slug})
}
