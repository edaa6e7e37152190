package core

import (
	"regexp"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog/log"

	"github.com/tverdyi/watchroom/internal/domain"
)

const (
	maxMessageLen  = 2000
	maxReactionLen = 16
	wordMask       = "***"
)

var (
	// emojiOnlyRe accepts messages made of emoji, symbols and whitespace
	// only, including ZWJ sequences and variation selectors.
	emojiOnlyRe = regexp.MustCompile(`^[\s\p{So}\p{Sk}\p{Cf}\x{2190}-\x{2BFF}\x{FE00}-\x{FE0F}\x{1F000}-\x{1FAFF}]+$`)

	linkRe = regexp.MustCompile(`(?i)(https?://|www\.)\S+`)
)

// SendMessage runs the moderation pipeline in its fixed order. Each policy
// may short-circuit with a typed rejection for the sender only; the word
// mask never rejects and, unlike the other policies, applies to the host
// too.
func (r *Room) SendMessage(conn domain.ConnID, text string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	m := r.findMember(conn)
	if m == nil {
		return ErrTargetNotFound
	}
	text = strings.TrimSpace(text)
	if text == "" || len(text) > maxMessageLen {
		return ErrBadPayload.With("empty or oversized message")
	}

	host := r.isHost(conn)
	mod := r.settings.Moderation

	if !host {
		if !mod.AllowGuestChat {
			return ErrContentRejected.With("chat is disabled for guests")
		}
		if mod.SlowModeSeconds > 0 && !m.LastMessageAt.IsZero() {
			wait := time.Duration(mod.SlowModeSeconds) * time.Second
			if r.now().Sub(m.LastMessageAt) < wait {
				return ErrRateLimited
			}
		}
		if mod.EmojiOnly && !emojiOnlyRe.MatchString(text) {
			return ErrContentRejected.With("emoji-only mode is on")
		}
		if mod.FilterLinks && linkRe.MatchString(text) {
			return ErrContentRejected.With("links are not allowed")
		}
	}
	if mod.FilterWords {
		text = r.maskBlockedWords(text)
	}

	now := r.now()
	m.LastMessageAt = now
	msg := domain.Message{
		ID:     ulid.Make().String(),
		Sender: conn,
		Name:   m.Name,
		Text:   text,
		SentAt: now,
	}
	r.transcript = append(r.transcript, msg)

	r.broadcast(MessageEvent{
		Type:      EvMessage,
		ID:        msg.ID,
		UserID:    msg.Sender,
		UserName:  msg.Name,
		Text:      msg.Text,
		Timestamp: msg.SentAt.UnixMilli(),
	})
	log.Debug().Str("module", "core.chat").Str("room", string(r.Key)).
		Str("sid", string(conn)).Msg("message delivered")
	return nil
}

// maskBlockedWords replaces each configured word case-insensitively.
// Caller holds mu.
func (r *Room) maskBlockedWords(text string) string {
	for _, re := range r.blockedRe {
		text = re.ReplaceAllString(text, wordMask)
	}
	return text
}

// rebuildWordFilter recompiles the blocked-word patterns after a
// moderation settings change. Caller holds mu.
func (r *Room) rebuildWordFilter() {
	r.blockedRe = r.blockedRe[:0]
	for _, w := range r.settings.Moderation.BlockedWords {
		w = strings.TrimSpace(w)
		if w == "" {
			continue
		}
		r.blockedRe = append(r.blockedRe, regexp.MustCompile(`(?i)`+regexp.QuoteMeta(w)))
	}
}

// React relays a small reaction to the whole room, sender included.
func (r *Room) React(conn domain.ConnID, emoji string) error {
	if emoji == "" || len(emoji) > maxReactionLen {
		return ErrBadPayload.With("invalid reaction")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	m := r.findMember(conn)
	if m == nil {
		return ErrTargetNotFound
	}
	r.broadcast(struct {
		Type   string        `json:"type"`
		UserID domain.ConnID `json:"userId"`
		Emoji  string        `json:"emoji"`
	}{EvReaction, conn, emoji})
	return nil
}
