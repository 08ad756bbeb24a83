package model

import (
	"encoding/json"
	"time"
)

// GameID uniquely identifies a game in a registry
type GameID string

// SyncStatus tracks whether an entry has reached the remote copy
type SyncStatus string

const (
	SyncStatusPending SyncStatus = "pending"
	SyncStatusSynced  SyncStatus = "synced"
)

// Lock is a time-boxed edit lease. A nil *Lock means unlocked.
// An expired lock is left in place until the next acquisition overwrites it.
type Lock struct {
	Holder string    `json:"lockHolder"`
	Expiry time.Time `json:"lockExpiry"`
}

// IsActive returns true if the lock exists and has not expired at now
func (l *Lock) IsActive(now time.Time) bool {
	return l != nil && now.Before(l.Expiry)
}

// HeldBy returns true if the lock is active and held by holder
func (l *Lock) HeldBy(holder string, now time.Time) bool {
	return l.IsActive(now) && l.Holder == holder
}

// Entry wraps one game's settlement state with registry metadata
type Entry struct {
	ID           GameID    `json:"id"`
	Name         string    `json:"name"`
	Creator      string    `json:"creator"`
	CreatedAt    time.Time `json:"createdAt"`
	LastModified time.Time `json:"lastModified"`
	LastEditor   string    `json:"lastEditor"`

	Lock *Lock `json:"lock"`

	// Derived counts for listings
	PlayerCount int `json:"playerCount"`
	RoundCount  int `json:"roundCount"`

	SyncStatus    SyncStatus `json:"syncStatus"`
	LastCloudSync *time.Time `json:"lastCloudSync,omitempty"`

	Data GameData `json:"gameData"`
}

// Clone returns a deep copy
func (e *Entry) Clone() *Entry {
	out := *e
	if e.Lock != nil {
		lock := *e.Lock
		out.Lock = &lock
	}
	if e.LastCloudSync != nil {
		t := *e.LastCloudSync
		out.LastCloudSync = &t
	}
	out.Data = e.Data.Clone()
	return &out
}

type entryFields Entry

// UnmarshalJSON also accepts the flat lock fields (isLocked, lockHolder,
// lockExpiry) that older documents carry instead of the nested lock. A
// legacy lock without an expiry was never active and decodes as unlocked.
func (e *Entry) UnmarshalJSON(b []byte) error {
	aux := struct {
		*entryFields
		IsLocked   bool       `json:"isLocked"`
		LockHolder *string    `json:"lockHolder"`
		LockExpiry *time.Time `json:"lockExpiry"`
	}{entryFields: (*entryFields)(e)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	if e.Lock == nil && aux.IsLocked && aux.LockExpiry != nil {
		lock := Lock{Expiry: *aux.LockExpiry}
		if aux.LockHolder != nil {
			lock.Holder = *aux.LockHolder
		}
		e.Lock = &lock
	}
	return nil
}
