package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Invitation authorizes one email address to vote in one festival. It is
// keyed by (Email, FestivalSlug).
type Invitation struct {
	ID           string            `json:"id"`
	Email        string            `json:"email"`
	FestivalSlug string            `json:"festivalSlug"`
	Fields       map[string]string `json:"fields,omitempty"`
	CreatedAt    time.Time         `json:"createdAt"`
}

// InvitationRequest is one entry of a vote_invitations task. Every key other
// than "to" ends up in Fields and is passed through to the invitation record
// and the message template.
type InvitationRequest struct {
	To           string
	FestivalSlug string
	Fields       map[string]string
}

func (r *InvitationRequest) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	r.Fields = make(map[string]string, len(raw))
	for k, v := range raw {
		switch k {
		case "to":
			s, ok := v.(string)
			if !ok {
				return fmt.Errorf("%w: \"to\" must be a string", ErrInvalidTaskData)
			}
			r.To = strings.TrimSpace(s)
		default:
			if v == nil {
				continue
			}
			if s, ok := v.(string); ok {
				r.Fields[k] = s
			} else {
				r.Fields[k] = fmt.Sprint(v)
			}
		}
	}
	r.FestivalSlug = strings.TrimSpace(r.Fields["festivalSlug"])
	return nil
}

func (r InvitationRequest) Validate() error {
	if r.To == "" || !strings.Contains(r.To, "@") || strings.Contains(r.To, ":") {
		return fmt.Errorf("%w: invitation recipient %q is not an email", ErrInvalidTaskData, r.To)
	}
	if r.FestivalSlug == "" {
		return fmt.Errorf("%w: invitation for %s has no festivalSlug", ErrInvalidTaskData, r.To)
	}
	return nil
}

// Subject is the cache value a vote token maps to.
func Subject(email, festivalSlug string) string {
	return email + ":" + festivalSlug
}

// ParseSubject splits a cached token value. Invited emails never contain
// ':', so the first separator ends the email and the slug may contain any.
func ParseSubject(subject string) (email, festivalSlug string, err error) {
	email, festivalSlug, ok := strings.Cut(subject, ":")
	if !ok || email == "" || festivalSlug == "" {
		return "", "", fmt.Errorf("%w: malformed token subject", ErrFailedToProcessData)
	}
	return email, festivalSlug, nil
}
