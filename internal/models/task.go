package models

import "encoding/json"

type TaskKind string

const (
	TaskVoteInvitations TaskKind = "vote_invitations"
	TaskVote            TaskKind = "vote"
)

// Protected task kinds can only be submitted by an authenticated admin.
func (k TaskKind) Protected() bool {
	return k == TaskVoteInvitations
}

func (k TaskKind) Known() bool {
	switch k {
	case TaskVoteInvitations, TaskVote:
		return true
	}
	return false
}

type TaskRequest struct {
	Kind TaskKind        `json:"kind"`
	Data json.RawMessage `json:"data"`
}

type VoteTaskData struct {
	Email        string `json:"email"`
	FestivalSlug string `json:"festivalSlug"`
}

type VoteTokenResponse struct {
	Token string `json:"token"`
}

type RedeemRequest struct {
	Token string `json:"token"`
}

type RedeemResponse struct {
	Email        string `json:"email"`
	FestivalSlug string `json:"festivalSlug"`
}

type ErrorResponse struct {
	Message string   `json:"message"`
	Failed  []string `json:"failed,omitempty"`
}

// User is the authenticated caller attached to a request.
type User struct {
	ID string
}
