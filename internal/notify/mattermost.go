package notify

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"text/template"

	"github.com/mattermost/mattermost-server/v6/model"
	"go.uber.org/zap"
)

var ErrRecipientNotFound = errors.New("no mattermost user with this email")

const DefaultInvitationTemplate = `You are invited to vote at **{{.Festival}}**.
Open {{.VoteURL}} and sign in with {{.To}} to cast your vote.`

// Client is the part of *model.Client4 the sender needs.
type Client interface {
	GetUserByEmail(email, etag string) (*model.User, *model.Response, error)
	CreateDirectChannel(userId1, userId2 string) (*model.Channel, *model.Response, error)
	CreatePost(post *model.Post) (*model.Post, *model.Response, error)
}

type invitationData struct {
	To           string
	Festival     string
	FestivalSlug string
	VoteURL      string
	Fields       map[string]string
}

// MattermostSender delivers vote invitations as direct messages from the bot
// account to the user registered with the invited email.
type MattermostSender struct {
	client    Client
	botID     string
	inviteURL string
	tmpl      *template.Template
	l         *zap.Logger
}

func NewMattermostSender(client Client, botID, inviteURL, tmpl string, l *zap.Logger) (*MattermostSender, error) {
	if tmpl == "" {
		tmpl = DefaultInvitationTemplate
	}
	t, err := template.New("invitation").Option("missingkey=zero").Parse(tmpl)
	if err != nil {
		return nil, fmt.Errorf("notify: invalid invitation template: %w", err)
	}
	return &MattermostSender{
		client:    client,
		botID:     botID,
		inviteURL: strings.TrimRight(inviteURL, "/"),
		tmpl:      t,
		l:         l,
	}, nil
}

func (s *MattermostSender) SendVoteInvitation(ctx context.Context, to string, fields map[string]string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	message, err := s.render(to, fields)
	if err != nil {
		return err
	}

	user, resp, err := s.client.GetUserByEmail(to, "")
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusNotFound {
			return fmt.Errorf("notify: %s: %w", to, ErrRecipientNotFound)
		}
		return fmt.Errorf("notify: failed to look up user: %w", err)
	}
	channel, _, err := s.client.CreateDirectChannel(s.botID, user.Id)
	if err != nil {
		return fmt.Errorf("notify: failed to open direct channel: %w", err)
	}
	post, resp, err := s.client.CreatePost(&model.Post{
		ChannelId: channel.Id,
		Message:   message,
	})
	if err != nil {
		return fmt.Errorf("notify: failed to send invitation: %w", err)
	}
	s.l.Debug("send new message",
		zap.String("channel_id", post.ChannelId),
		zap.String("user_id", user.Id),
		zap.Int("status_code", resp.StatusCode))
	return nil
}

func (s *MattermostSender) render(to string, fields map[string]string) (string, error) {
	slug := fields["festivalSlug"]
	data := invitationData{
		To:           to,
		Festival:     slug,
		FestivalSlug: slug,
		VoteURL:      s.inviteURL + "/" + slug,
		Fields:       fields,
	}
	if title := fields["festivalTitle"]; title != "" {
		data.Festival = title
	}
	var buf bytes.Buffer
	if err := s.tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("notify: failed to render invitation: %w", err)
	}
	return buf.String(), nil
}

// LogSender only logs invitations. It stands in for Mattermost when no bot
// token is configured.
type LogSender struct {
	l *zap.Logger
}

func NewLogSender(l *zap.Logger) *LogSender {
	return &LogSender{l: l}
}

func (s *LogSender) SendVoteInvitation(ctx context.Context, to string, fields map[string]string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.l.Info("vote invitation",
		zap.String("to", to),
		zap.Any("fields", fields))
	return nil
}
