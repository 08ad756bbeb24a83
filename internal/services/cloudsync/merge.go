package cloudsync

import (
	"time"

	"github.com/mcoot/bankerscore/internal/model"
)

// DefaultConflictGrace is how far local may run ahead of remote before it counts as a conflict
const DefaultConflictGrace = 60 * time.Second

// HasConflicts reports whether any game present on both sides was modified
// locally more than grace after the remote copy. Remote being newer is
// never a conflict.
func HasConflicts(local, remote *model.Registry, grace time.Duration) bool {
	if local == nil || remote == nil {
		return false
	}
	for id, l := range local.Games {
		r := remote.GetGame(id)
		if l == nil || r == nil {
			continue
		}
		if l.LastModified.Sub(r.LastModified) > grace {
			return true
		}
	}
	return false
}

// MergeStats counts how each game was resolved
type MergeStats struct {
	LocalOnly   int
	RemoteOnly  int
	LocalNewer  int
	RemoteNewer int
	Unchanged   int
}

// LocalWins reports whether the merged registry holds data the remote copy lacks
func (s MergeStats) LocalWins() bool {
	return s.LocalOnly > 0 || s.LocalNewer > 0
}

// Merge combines two registries game by game. Each game is taken whole
// from whichever side modified it last; ties keep the local copy. Device
// state (user, selection) comes from local. Inputs are not modified.
func Merge(local, remote *model.Registry) (*model.Registry, MergeStats) {
	merged := local.Clone()
	if merged.Games == nil {
		merged.Games = make(map[model.GameID]*model.Entry)
	}

	var stats MergeStats
	if remote != nil {
		for id, r := range remote.Games {
			if r == nil {
				continue
			}
			l := merged.Games[id]
			switch {
			case l == nil:
				merged.Games[id] = r.Clone()
				stats.RemoteOnly++
			case r.LastModified.After(l.LastModified):
				merged.Games[id] = r.Clone()
				stats.RemoteNewer++
			case l.LastModified.After(r.LastModified):
				stats.LocalNewer++
			default:
				stats.Unchanged++
			}
		}
	}

	for id := range merged.Games {
		if remote == nil || remote.GetGame(id) == nil {
			stats.LocalOnly++
		}
	}

	merged.HasUnsavedChanges = local.HasUnsavedChanges || stats.LocalWins()
	return merged, stats
}
