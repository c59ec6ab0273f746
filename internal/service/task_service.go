package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jaam8/voting_booth/internal/models"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type InvitationRepository interface {
	CreateInvitation(ctx context.Context, inv *models.Invitation) error
	FindInvitation(ctx context.Context, email, festivalSlug string) (*models.Invitation, error)
}

// TokenCache maps vote tokens to "email:festivalSlug" until their TTL runs out.
type TokenCache interface {
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Take(ctx context.Context, key string) (string, error)
}

type InvitationSender interface {
	SendVoteInvitation(ctx context.Context, to string, fields map[string]string) error
}

type Options struct {
	TokenTTL    time.Duration
	TokenLength int
	Concurrency int
}

func DefaultOptions() Options {
	return Options{
		TokenTTL:    30 * time.Minute,
		TokenLength: 32,
		Concurrency: 16,
	}
}

// BatchError reports every recipient of a vote_invitations task that could
// not be stored or notified.
type BatchError struct {
	Failed []string
	Total  int
	Err    error
}

func (e *BatchError) Error() string {
	return fmt.Sprintf("service: %d of %d invitations failed: %v", len(e.Failed), e.Total, e.Err)
}

func (e *BatchError) Unwrap() []error {
	return multierr.Errors(e.Err)
}

type TaskService struct {
	invitations InvitationRepository
	tokens      TokenCache
	sender      InvitationSender
	opts        Options
	random      func(n int) (string, error)
	now         func() time.Time
	l           *zap.Logger
}

func New(invitations InvitationRepository, tokens TokenCache, sender InvitationSender, opts Options, l *zap.Logger) *TaskService {
	def := DefaultOptions()
	if opts.TokenTTL <= 0 {
		opts.TokenTTL = def.TokenTTL
	}
	if opts.TokenLength <= 0 {
		opts.TokenLength = def.TokenLength
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = def.Concurrency
	}
	return &TaskService{
		invitations: invitations,
		tokens:      tokens,
		sender:      sender,
		opts:        opts,
		random:      GenerateRandomString,
		now:         time.Now,
		l:           l,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// SendVoteInvitations stores an invitation and sends the invitation message
// for every request. Requests run concurrently and all of them are attempted;
// any failure is returned as a *BatchError.
func (s *TaskService) SendVoteInvitations(ctx context.Context, reqs []models.InvitationRequest) error {
	if len(reqs) == 0 {
		return fmt.Errorf("%w: no invitations given", models.ErrInvalidTaskData)
	}
	for _, req := range reqs {
		if err := req.Validate(); err != nil {
			return err
		}
	}

	var (
		mu     sync.Mutex
		failed []string
		errs   error
	)
	g := errgroup.Group{}
	g.SetLimit(s.opts.Concurrency)
	for _, req := range reqs {
		g.Go(func() error {
			if err := s.sendVoteInvitation(ctx, req); err != nil {
				mu.Lock()
				failed = append(failed, req.To)
				errs = multierr.Append(errs, fmt.Errorf("invitation for %s: %w", req.To, err))
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()

	if errs != nil {
		s.l.Error("failed to send vote invitations",
			zap.Int("failed", len(failed)),
			zap.Int("total", len(reqs)),
			zap.Error(errs))
		return &BatchError{Failed: failed, Total: len(reqs), Err: errs}
	}
	s.l.Info("vote invitations sent", zap.Int("total", len(reqs)))
	return nil
}

func (s *TaskService) sendVoteInvitation(ctx context.Context, req models.InvitationRequest) error {
	email := normalizeEmail(req.To)
	inv := &models.Invitation{
		ID:           uuid.New().String(),
		Email:        email,
		FestivalSlug: req.FestivalSlug,
		Fields:       req.Fields,
		CreatedAt:    s.now().UTC(),
	}
	if err := s.invitations.CreateInvitation(ctx, inv); err != nil {
		return fmt.Errorf("service: failed to create invitation: %w", err)
	}
	if err := s.sender.SendVoteInvitation(ctx, email, req.Fields); err != nil {
		return fmt.Errorf("service: failed to send invitation: %w", err)
	}
	return nil
}

// IssueVoteToken exchanges an existing invitation for a short lived vote
// token. Retrying after a failed cache write is safe: the earlier token, if
// any, just expires.
func (s *TaskService) IssueVoteToken(ctx context.Context, email, festivalSlug string) (string, error) {
	email = normalizeEmail(email)
	festivalSlug = strings.TrimSpace(festivalSlug)
	if email == "" || festivalSlug == "" {
		return "", fmt.Errorf("%w: email and festivalSlug are required", models.ErrInvalidTaskData)
	}

	inv, err := s.invitations.FindInvitation(ctx, email, festivalSlug)
	if err != nil {
		if errors.Is(err, models.ErrInvitationNotFound) {
			return "", err
		}
		s.l.Error("failed to find invitation", zap.Error(err))
		return "", fmt.Errorf("service: failed to find invitation: %w", err)
	}

	token, err := s.random(s.opts.TokenLength)
	if err != nil {
		s.l.Error("failed to generate vote token", zap.Error(err))
		return "", fmt.Errorf("service: failed to generate vote token: %w", err)
	}
	if err := s.tokens.Set(ctx, token, models.Subject(inv.Email, inv.FestivalSlug), s.opts.TokenTTL); err != nil {
		s.l.Error("failed to store vote token", zap.Error(err))
		return "", fmt.Errorf("service: failed to store vote token: %w", err)
	}
	s.l.Info("vote token issued",
		zap.String("festival_slug", inv.FestivalSlug),
		zap.Duration("ttl", s.opts.TokenTTL))
	return token, nil
}

// RedeemVoteToken consumes a vote token. A token can be redeemed once.
func (s *TaskService) RedeemVoteToken(ctx context.Context, token string) (email, festivalSlug string, err error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return "", "", fmt.Errorf("%w: token is required", models.ErrInvalidTaskData)
	}
	subject, err := s.tokens.Take(ctx, token)
	if err != nil {
		if errors.Is(err, models.ErrTokenNotFound) {
			return "", "", err
		}
		s.l.Error("failed to redeem vote token", zap.Error(err))
		return "", "", fmt.Errorf("service: failed to redeem vote token: %w", err)
	}
	return models.ParseSubject(subject)
}
