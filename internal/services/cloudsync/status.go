package cloudsync

import (
	"time"
)

// State is the sync indicator shown to the user
type State string

const (
	StateIdle     State = "idle"
	StateSyncing  State = "syncing"
	StateSynced   State = "synced"
	StateError    State = "error"
	StateOffline  State = "offline"
	StateConflict State = "conflict"
)

// Failure is the most recent classified sync failure
type Failure struct {
	Operation string
	Category  Category
	Message   string
	At        time.Time
}

// Status is a point-in-time view of the sync engine
type Status struct {
	State             State
	SignedIn          bool
	UserID            string
	Online            bool
	AutoSync          bool
	HasUnsavedChanges bool
	LastSync          *time.Time
	LastError         *Failure
	Conflict          *Conflict
}

// Status returns the current sync status. Without an upload in this
// process, LastSync falls back to the newest per-game sync stamp.
func (e *Engine) Status() Status {
	e.mu.Lock()
	status := Status{
		State:  e.state,
		Online: e.online,
	}
	if e.lastSync != nil {
		at := *e.lastSync
		status.LastSync = &at
	}
	if e.lastError != nil {
		failure := *e.lastError
		status.LastError = &failure
	}
	if e.conflict != nil {
		view := *e.conflict
		view.remote = nil
		status.Conflict = &view
	}
	e.mu.Unlock()

	status.SignedIn = e.identity.IsSignedIn()
	status.UserID = e.identity.UserID()
	status.AutoSync = e.scheduler.isRunning()
	status.HasUnsavedChanges = e.registry.HasUnsavedChanges()

	if status.LastSync == nil {
		for _, entry := range e.registry.ListGames() {
			if entry.LastCloudSync != nil && (status.LastSync == nil || entry.LastCloudSync.After(*status.LastSync)) {
				at := *entry.LastCloudSync
				status.LastSync = &at
			}
		}
	}
	return status
}
