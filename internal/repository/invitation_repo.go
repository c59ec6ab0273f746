package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jaam8/voting_booth/internal/models"
	"github.com/tarantool/go-tarantool"
	"go.uber.org/zap"
)

const (
	invitationsSpace = "invitations"
	primaryIndex     = "primary"
)

// Conn is the part of *tarantool.Connection the repositories use.
type Conn interface {
	Select(space, index interface{}, offset, limit, iterator uint32, key interface{}) (*tarantool.Response, error)
	Replace(space interface{}, tuple interface{}) (*tarantool.Response, error)
	Delete(space, index interface{}, key interface{}) (*tarantool.Response, error)
}

type InvitationRepository struct {
	db Conn
	l  *zap.Logger
}

func NewInvitationRepository(db Conn, l *zap.Logger) *InvitationRepository {
	return &InvitationRepository{
		db: db,
		l:  l,
	}
}

// CreateInvitation stores the invitation, replacing an earlier one for the
// same (email, festival) pair.
func (r *InvitationRepository) CreateInvitation(ctx context.Context, inv *models.Invitation) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.l.Debug("creating invitation",
		zap.String("email", inv.Email),
		zap.String("festival_slug", inv.FestivalSlug))

	tuple := []interface{}{
		inv.Email,
		inv.FestivalSlug,
		inv.ID,
		inv.Fields,
		inv.CreatedAt.Unix(),
	}
	resp, err := r.db.Replace(invitationsSpace, tuple)
	if err != nil {
		r.l.Debug("error inserting invitation", zap.Error(err))
		return fmt.Errorf("repository: database insert error: %w", err)
	}
	r.l.Debug("tarantool response",
		zap.Uint32("status_code", resp.Code),
		zap.String("error", resp.Error))
	return nil
}

func (r *InvitationRepository) FindInvitation(ctx context.Context, email, festivalSlug string) (*models.Invitation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	resp, err := r.db.Select(invitationsSpace, primaryIndex, 0, 1, tarantool.IterEq,
		[]interface{}{email, festivalSlug})
	if err != nil {
		r.l.Debug("failed to select invitation", zap.Error(err))
		return nil, fmt.Errorf("repository: database select error: %w", err)
	}
	r.l.Debug("tarantool response",
		zap.Uint32("status_code", resp.Code),
		zap.Int("tuples", len(resp.Data)),
		zap.String("error", resp.Error))

	if len(resp.Data) == 0 {
		r.l.Debug("invitation not found",
			zap.String("email", email),
			zap.String("festival_slug", festivalSlug))
		return nil, models.ErrInvitationNotFound
	}
	tuple, ok := resp.Data[0].([]interface{})
	if !ok {
		r.l.Debug("unexpected data type", zap.Any("data", resp.Data[0]))
		return nil, models.ErrFailedToProcessData
	}
	return decodeInvitation(tuple)
}

func decodeInvitation(tuple []interface{}) (*models.Invitation, error) {
	if len(tuple) < 5 {
		return nil, fmt.Errorf("repository: invitation tuple has %d fields: %w",
			len(tuple), models.ErrFailedToProcessData)
	}
	email, ok1 := tuple[0].(string)
	slug, ok2 := tuple[1].(string)
	id, ok3 := tuple[2].(string)
	createdAt, ok4 := toInt64(tuple[4])
	if !ok1 || !ok2 || !ok3 || !ok4 {
		return nil, fmt.Errorf("repository: unexpected invitation field types: %w",
			models.ErrFailedToProcessData)
	}
	inv := &models.Invitation{
		ID:           id,
		Email:        email,
		FestivalSlug: slug,
		CreatedAt:    time.Unix(createdAt, 0).UTC(),
	}
	if fields, ok := convertKeys(tuple[3]).(map[string]interface{}); ok {
		inv.Fields = make(map[string]string, len(fields))
		for k, v := range fields {
			inv.Fields[k] = fmt.Sprint(v)
		}
	}
	return inv, nil
}

// convertKeys turns the map[interface{}]interface{} values msgpack hands back
// into string-keyed maps.
func convertKeys(i interface{}) interface{} {
	switch x := i.(type) {
	case map[interface{}]interface{}:
		m2 := make(map[string]interface{}, len(x))
		for k, v := range x {
			m2[fmt.Sprintf("%v", k)] = convertKeys(v)
		}
		return m2
	case []interface{}:
		for idx, item := range x {
			x[idx] = convertKeys(item)
		}
		return x
	default:
		return i
	}
}

func toInt64(v interface{}) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case uint64:
		return int64(n), true
	case int:
		return int64(n), true
	case uint32:
		return int64(n), true
	case int32:
		return int64(n), true
	case uint:
		return int64(n), true
	case int16:
		return int64(n), true
	case uint16:
		return int64(n), true
	case int8:
		return int64(n), true
	case uint8:
		return int64(n), true
	default:
		return 0, false
	}
}
