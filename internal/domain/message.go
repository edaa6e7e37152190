package domain

import "time"

// Message is one chat transcript entry. Immutable once stored; the whole
// transcript is dropped by the host's clear-chat action.
type Message struct {
	ID     string    `json:"id"`
	Sender ConnID    `json:"userId"`
	Name   string    `json:"userName"`
	Text   string    `json:"text"`
	SentAt time.Time `json:"-"`
}
