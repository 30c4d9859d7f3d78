package chat

import (
	"context"
	"errors"
	"strings"

	"github.com/crebai/crebmatch-backend/internal/matches"
	"github.com/crebai/crebmatch-backend/pkg/db/models"
	"github.com/crebai/crebmatch-backend/pkg/enums"
	pkgerrors "github.com/crebai/crebmatch-backend/pkg/errors"
	"github.com/crebai/crebmatch-backend/pkg/logger"
	"github.com/crebai/crebmatch-backend/pkg/metrics"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const defaultSubscriberBuffer = 64

// ServiceParams groups dependencies for the chat service.
type ServiceParams struct {
	ChatRepo         *Repository
	MatchRepo        *matches.Repository
	Logger           *logger.Logger
	Metrics          *metrics.EngineMetrics
	SubscriberBuffer int
}

// Service exposes the real-time match channel. A channel opens when its
// match is accepted and every append is durable before fan-out.
type Service interface {
	Post(ctx context.Context, principalID, matchID uuid.UUID, content string) (MessageDTO, error)
	History(ctx context.Context, principalID, matchID uuid.UUID, afterSeq int64, limit int) (MessagesPageDTO, error)
	Subscribe(ctx context.Context, principalID, matchID uuid.UUID) ([]MessageDTO, *Subscriber, error)
	Unsubscribe(matchID uuid.UUID, sub *Subscriber)
	PostSystemWith(ctx context.Context, matchID uuid.UUID, content string, fn func(tx *gorm.DB) error) (MessageDTO, error)
}

type service struct {
	chatRepo  *Repository
	matchRepo *matches.Repository
	hub       *hub
	logg      *logger.Logger
	metrics   *metrics.EngineMetrics
	buffer    int
}

// NewService builds a chat service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.ChatRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "chat repo is required")
	}
	if params.MatchRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "match repo is required")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "logger is required")
	}
	buffer := params.SubscriberBuffer
	if buffer <= 0 {
		buffer = defaultSubscriberBuffer
	}
	return &service{
		chatRepo:  params.ChatRepo,
		matchRepo: params.MatchRepo,
		hub:       newHub(),
		logg:      params.Logger,
		metrics:   params.Metrics,
		buffer:    buffer,
	}, nil
}

// Post appends a sender message and fans it out. The append is persisted
// before any subscriber sees it.
func (s *service) Post(ctx context.Context, principalID, matchID uuid.UUID, content string) (MessageDTO, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return MessageDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "message content is required")
	}

	if err := s.ensureOpenChannelParty(ctx, principalID, matchID); err != nil {
		return MessageDTO{}, err
	}

	ch := s.hub.channel(matchID)
	ch.mu.Lock()
	defer ch.mu.Unlock()

	seq, err := s.reserveSeq(ctx, ch, matchID)
	if err != nil {
		return MessageDTO{}, err
	}

	sender := principalID
	msg := models.Message{
		MatchID:  matchID,
		SenderID: &sender,
		Seq:      seq,
		Content:  content,
	}
	if err := s.chatRepo.Append(ctx, nil, &msg); err != nil {
		return MessageDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append message")
	}
	ch.nextSeq = seq + 1

	dto := toDTO(msg)
	ch.broadcast(dto)
	s.metrics.IncMessagePosted()
	return dto, nil
}

// PostSystemWith appends a system message atomically with the caller's own
// writes: fn runs in the same DB transaction, under the channel lock, and
// the message fans out only after commit. The document workflow uses this
// to keep artifact state and its chat notification consistent.
func (s *service) PostSystemWith(ctx context.Context, matchID uuid.UUID, content string, fn func(tx *gorm.DB) error) (MessageDTO, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return MessageDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "message content is required")
	}
	if matchID == uuid.Nil {
		return MessageDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "match id is required")
	}

	ch := s.hub.channel(matchID)
	ch.mu.Lock()
	defer ch.mu.Unlock()

	seq, err := s.reserveSeq(ctx, ch, matchID)
	if err != nil {
		return MessageDTO{}, err
	}

	msg := models.Message{
		MatchID: matchID,
		Seq:     seq,
		Content: content,
	}
	err = s.chatRepo.Transaction(ctx, func(tx *gorm.DB) error {
		if fn != nil {
			if err := fn(tx); err != nil {
				return err
			}
		}
		return s.chatRepo.Append(ctx, tx, &msg)
	})
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil {
			return MessageDTO{}, typed
		}
		return MessageDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append system message")
	}
	ch.nextSeq = seq + 1

	dto := toDTO(msg)
	ch.broadcast(dto)
	s.metrics.IncMessagePosted()
	return dto, nil
}

// History serves ascending pages of the channel.
func (s *service) History(ctx context.Context, principalID, matchID uuid.UUID, afterSeq int64, limit int) (MessagesPageDTO, error) {
	if err := s.ensureOpenChannelParty(ctx, principalID, matchID); err != nil {
		return MessagesPageDTO{}, err
	}

	rows, err := s.chatRepo.ListAfterSeq(ctx, matchID, afterSeq, limit)
	if err != nil {
		return MessagesPageDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load history")
	}

	page := MessagesPageDTO{Messages: make([]MessageDTO, 0, len(rows))}
	for _, row := range rows {
		page.Messages = append(page.Messages, toDTO(row))
	}
	if len(page.Messages) > 0 {
		page.NextAfterSeq = page.Messages[len(page.Messages)-1].Seq
	}
	return page, nil
}

// Subscribe snapshots the backlog and registers a live subscriber in one
// step under the channel lock, so the seam between the two carries no gap
// and no duplicate.
func (s *service) Subscribe(ctx context.Context, principalID, matchID uuid.UUID) ([]MessageDTO, *Subscriber, error) {
	if err := s.ensureOpenChannelParty(ctx, principalID, matchID); err != nil {
		return nil, nil, err
	}

	ch := s.hub.channel(matchID)
	ch.mu.Lock()
	defer ch.mu.Unlock()

	rows, err := s.chatRepo.ListAll(ctx, matchID)
	if err != nil {
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load backlog")
	}
	backlog := make([]MessageDTO, 0, len(rows))
	for _, row := range rows {
		backlog = append(backlog, toDTO(row))
	}

	sub := ch.register(s.buffer)
	return backlog, sub, nil
}

// Unsubscribe removes a live subscriber and closes its channel.
func (s *service) Unsubscribe(matchID uuid.UUID, sub *Subscriber) {
	if sub == nil {
		return
	}
	ch := s.hub.channel(matchID)
	ch.mu.Lock()
	defer ch.mu.Unlock()
	ch.unregister(sub)
}

// reserveSeq must be called with ch.mu held.
func (s *service) reserveSeq(ctx context.Context, ch *channel, matchID uuid.UUID) (int64, error) {
	if ch.nextSeq == 0 {
		max, err := s.chatRepo.MaxSeq(ctx, matchID)
		if err != nil {
			return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load channel sequence")
		}
		ch.nextSeq = max + 1
	}
	return ch.nextSeq, nil
}

func (s *service) ensureOpenChannelParty(ctx context.Context, principalID, matchID uuid.UUID) error {
	if principalID == uuid.Nil || matchID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "principal id and match id are required")
	}
	match, err := s.matchRepo.FindByID(ctx, matchID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "match not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load match")
	}
	if !match.Party(principalID) {
		return pkgerrors.New(pkgerrors.CodeForbidden, "not a party to this match")
	}
	if match.Status != enums.MatchStatusAccepted {
		return pkgerrors.New(pkgerrors.CodeChannelClosed, "chat opens when the match is accepted")
	}
	return nil
}
