package model

import "time"

// EventType identifies the type of event
type EventType string

const (
	// Sync events
	EventSyncStarted      EventType = "sync_started"
	EventSyncSucceeded    EventType = "sync_succeeded"
	EventSyncFailed       EventType = "sync_failed"
	EventConflictDetected EventType = "conflict_detected"
	EventConflictResolved EventType = "conflict_resolved"
	EventRemoteMerged     EventType = "remote_merged"

	// Connectivity and session events
	EventOffline   EventType = "offline"
	EventOnline    EventType = "online"
	EventSignedIn  EventType = "signed_in"
	EventSignedOut EventType = "signed_out"
)

// Event is a status notification from the sync engine
type Event struct {
	Type      EventType
	Timestamp time.Time
	Message   string
	Payload   any // Type-specific data
}

// SyncFailedPayload contains data for sync failed events
type SyncFailedPayload struct {
	Operation string
	Category  string
	Err       error
}

// ConflictPayload contains data for conflict detected events
type ConflictPayload struct {
	LocalModified  time.Time
	RemoteModified time.Time
}

// SignedInPayload contains data for signed in events
type SignedInPayload struct {
	Profile Profile
}
