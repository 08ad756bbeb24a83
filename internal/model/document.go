package model

import "time"

// DocumentVersion is written into every uploaded envelope
const DocumentVersion = "2.0"

// SyncMetadata describes who wrote a remote document and when
type SyncMetadata struct {
	Version  string    `json:"version"`
	AppName  string    `json:"appName"`
	LastSync time.Time `json:"lastSync"`
	DeviceID string    `json:"deviceId"`
	UserID   string    `json:"userId"`
}

// SyncDocument is the single remote document holding a user's registry
type SyncDocument struct {
	Metadata    SyncMetadata `json:"metadata"`
	GameManager *Registry    `json:"gameManager"`
}

// CachedSession is the identity envelope persisted for session restoration.
// Access tokens are never part of it.
type CachedSession struct {
	IDToken   string    `json:"idToken"`
	Profile   Profile   `json:"profile"`
	Timestamp time.Time `json:"timestamp"`
}
