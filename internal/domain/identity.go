// Package domain contains entity without logic, just meta-data
package domain

import "errors"

const (
	MaxNameLen    = 36
	MaxRoomKeyLen = 36
)

var (
	ErrNameEmpty   = errors.New("name empty")
	ErrNameTooLong = errors.New("name too long")
)

// ConnID is the transient per-connection identity. It changes on every
// reconnect.
type ConnID string

// ClientID is the stable client identity supplied by the client at join
// time. It survives reconnects and is what the grace-period logic and the
// ban list key on.
type ClientID string

// RoomKey identifies one room in the registry.
type RoomKey string

// Identity is the externally-verified credential the connection gate hands
// to the coordinator. The coordinator never issues or checks credentials
// itself.
type Identity struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Verified  bool   `json:"verified"`
	Suspended bool   `json:"suspended"`
}

func ValidName(name string) error {
	if len(name) == 0 {
		return ErrNameEmpty
	}
	if len(name) > MaxNameLen {
		return ErrNameTooLong
	}
	return nil
}
