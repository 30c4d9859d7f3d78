package chat

import (
	"time"

	"github.com/crebai/crebmatch-backend/pkg/db/models"
	"github.com/google/uuid"
)

// MessageDTO is the wire projection of a chat message. SenderID is nil for
// system-authored entries.
type MessageDTO struct {
	ID        uuid.UUID  `json:"id"`
	MatchID   uuid.UUID  `json:"match_id"`
	SenderID  *uuid.UUID `json:"sender_id,omitempty"`
	Seq       int64      `json:"seq"`
	Content   string     `json:"content"`
	System    bool       `json:"system"`
	CreatedAt time.Time  `json:"created_at"`
}

// MessagesPageDTO is an ascending page of a channel's history. NextAfterSeq
// is the cursor for the following page; zero means the page was not full.
type MessagesPageDTO struct {
	Messages     []MessageDTO `json:"messages"`
	NextAfterSeq int64        `json:"next_after_seq,omitempty"`
}

func toDTO(msg models.Message) MessageDTO {
	return MessageDTO{
		ID:        msg.ID,
		MatchID:   msg.MatchID,
		SenderID:  msg.SenderID,
		Seq:       msg.Seq,
		Content:   msg.Content,
		System:    msg.System(),
		CreatedAt: msg.CreatedAt,
	}
}
