package model

import (
	"sort"
	"time"
)

// Registry is the collection of games on this device plus the current selection
type Registry struct {
	Games             map[GameID]*Entry `json:"games"`
	CurrentGameID     GameID            `json:"currentGameId,omitempty"`
	CurrentUser       string            `json:"currentUser"`
	HasUnsavedChanges bool              `json:"hasUnsavedChanges"`
}

// NewRegistry returns an empty registry for the given user
func NewRegistry(user string) *Registry {
	return &Registry{
		Games:       make(map[GameID]*Entry),
		CurrentUser: user,
	}
}

// GetGame returns the entry with the given ID, or nil
func (r *Registry) GetGame(id GameID) *Entry {
	return r.Games[id]
}

// GetGameByName returns the entry with exactly the given name, or nil
func (r *Registry) GetGameByName(name string) *Entry {
	for _, e := range r.Games {
		if e.Name == name {
			return e
		}
	}
	return nil
}

// SortedGames returns the entries, most recently modified first
func (r *Registry) SortedGames() []*Entry {
	entries := make([]*Entry, 0, len(r.Games))
	for _, e := range r.Games {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].LastModified.Equal(entries[j].LastModified) {
			return entries[i].ID < entries[j].ID
		}
		return entries[i].LastModified.After(entries[j].LastModified)
	})
	return entries
}

// LatestModification returns the newest LastModified across all games,
// or the zero time for an empty registry
func (r *Registry) LatestModification() time.Time {
	var latest time.Time
	for _, e := range r.Games {
		if e.LastModified.After(latest) {
			latest = e.LastModified
		}
	}
	return latest
}

// Normalize fills in missing maps and repairs legacy game payloads
func (r *Registry) Normalize() {
	if r.Games == nil {
		r.Games = make(map[GameID]*Entry)
	}
	for id, e := range r.Games {
		if e == nil {
			delete(r.Games, id)
			continue
		}
		e.Data.Normalize()
	}
}

// Clone returns a deep copy
func (r *Registry) Clone() *Registry {
	out := &Registry{
		Games:             make(map[GameID]*Entry, len(r.Games)),
		CurrentGameID:     r.CurrentGameID,
		CurrentUser:       r.CurrentUser,
		HasUnsavedChanges: r.HasUnsavedChanges,
	}
	for id, e := range r.Games {
		out.Games[id] = e.Clone()
	}
	return out
}
