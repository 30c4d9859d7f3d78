package models

import (
	"time"

	"github.com/google/uuid"
)

// Message is one entry in a match's append-only chat log. SenderID is NULL
// for system-authored messages (document workflow notifications). Seq is a
// per-match monotone sequence assigned under the channel lock; it is the
// authoritative ordering key and agrees with (created_at, insertion order).
type Message struct {
	ID        uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	MatchID   uuid.UUID  `gorm:"column:match_id;type:uuid;not null;index:messages_match_seq_idx,priority:1"`
	SenderID  *uuid.UUID `gorm:"column:sender_id;type:uuid"`
	Seq       int64      `gorm:"column:seq;not null;index:messages_match_seq_idx,priority:2"`
	Content   string     `gorm:"column:content;type:text;not null"`
	CreatedAt time.Time  `gorm:"column:created_at;autoCreateTime"`
}

// System reports whether the message was authored by the engine itself.
func (m Message) System() bool {
	return m.SenderID == nil
}
