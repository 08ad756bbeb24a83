package cloudsync

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/bankerscore/internal/model"
)

var epoch = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

func at(seconds int) time.Time {
	return epoch.Add(time.Duration(seconds) * time.Second)
}

func registryOf(entries ...*model.Entry) *model.Registry {
	r := model.NewRegistry("alice")
	for _, e := range entries {
		r.Games[e.ID] = e
	}
	return r
}

func entry(id string, modified time.Time, editor string) *model.Entry {
	return &model.Entry{
		ID:           model.GameID(id),
		Name:         id,
		LastModified: modified,
		LastEditor:   editor,
		Data:         model.NewGameData(modified),
	}
}

func TestMergeIsPerGameLastWriterWins(t *testing.T) {
	local := registryOf(
		entry("A", at(10), "local"),
		entry("B", at(5), "local"),
	)
	remote := registryOf(
		entry("A", at(5), "remote"),
		entry("C", at(20), "remote"),
	)

	merged, stats := Merge(local, remote)

	require.Len(t, merged.Games, 3)
	assert.Equal(t, "local", merged.Games["A"].LastEditor)
	assert.True(t, merged.Games["A"].LastModified.Equal(at(10)))
	assert.Equal(t, "local", merged.Games["B"].LastEditor)
	assert.Equal(t, "remote", merged.Games["C"].LastEditor)

	assert.Equal(t, MergeStats{LocalOnly: 1, RemoteOnly: 1, LocalNewer: 1}, stats)
	assert.True(t, stats.LocalWins())
	assert.True(t, merged.HasUnsavedChanges)
}

func TestMergeTakesNewerRemoteEntryWhole(t *testing.T) {
	localA := entry("A", at(5), "local")
	localA.Data.CustomBankerRounds = 7
	remoteA := entry("A", at(10), "remote")

	merged, stats := Merge(registryOf(localA), registryOf(remoteA))

	assert.Equal(t, "remote", merged.Games["A"].LastEditor)
	assert.Equal(t, model.DefaultBankerRounds, merged.Games["A"].Data.CustomBankerRounds)
	assert.Equal(t, MergeStats{RemoteNewer: 1}, stats)
	assert.False(t, stats.LocalWins())
	assert.False(t, merged.HasUnsavedChanges)
}

func TestMergeTieKeepsLocal(t *testing.T) {
	merged, stats := Merge(
		registryOf(entry("A", at(10), "local")),
		registryOf(entry("A", at(10), "remote")),
	)

	assert.Equal(t, "local", merged.Games["A"].LastEditor)
	assert.Equal(t, MergeStats{Unchanged: 1}, stats)
}

func TestMergeKeepsLocalDeviceState(t *testing.T) {
	local := registryOf(entry("A", at(10), "local"))
	local.CurrentGameID = "A"
	local.CurrentUser = "alice"
	remote := registryOf(entry("B", at(20), "remote"))
	remote.CurrentGameID = "B"
	remote.CurrentUser = "bob"

	merged, _ := Merge(local, remote)

	assert.Equal(t, model.GameID("A"), merged.CurrentGameID)
	assert.Equal(t, "alice", merged.CurrentUser)
}

func TestMergeDoesNotAliasInputs(t *testing.T) {
	local := registryOf(entry("A", at(10), "local"))
	remote := registryOf(entry("C", at(20), "remote"))

	merged, _ := Merge(local, remote)
	merged.Games["A"].Name = "changed"
	merged.Games["C"].Data.Players = append(merged.Games["C"].Data.Players, model.Player{ID: 1, Name: "Amy"})

	assert.Equal(t, "A", local.Games["A"].Name)
	assert.Empty(t, remote.Games["C"].Data.Players)
	assert.Len(t, local.Games, 1)
}

func TestMergeWithEmptyRemote(t *testing.T) {
	local := registryOf(entry("A", at(10), "local"))

	merged, stats := Merge(local, nil)

	assert.Len(t, merged.Games, 1)
	assert.Equal(t, MergeStats{LocalOnly: 1}, stats)
}

func TestHasConflicts(t *testing.T) {
	tests := []struct {
		name   string
		local  *model.Registry
		remote *model.Registry
		want   bool
	}{
		{
			name:   "local ahead within grace",
			local:  registryOf(entry("G", at(100), "")),
			remote: registryOf(entry("G", at(95), "")),
			want:   false,
		},
		{
			name:   "local ahead beyond grace",
			local:  registryOf(entry("G", at(200), "")),
			remote: registryOf(entry("G", at(100), "")),
			want:   true,
		},
		{
			name:   "local ahead by exactly the grace window",
			local:  registryOf(entry("G", at(160), "")),
			remote: registryOf(entry("G", at(100), "")),
			want:   false,
		},
		{
			name:   "remote far ahead is not a conflict",
			local:  registryOf(entry("G", at(100), "")),
			remote: registryOf(entry("G", at(1000), "")),
			want:   false,
		},
		{
			name:   "disjoint games never conflict",
			local:  registryOf(entry("A", at(1000), "")),
			remote: registryOf(entry("B", at(0), "")),
			want:   false,
		},
		{
			name:   "one diverged game is enough",
			local:  registryOf(entry("A", at(100), ""), entry("B", at(500), "")),
			remote: registryOf(entry("A", at(100), ""), entry("B", at(100), "")),
			want:   true,
		},
		{
			name:   "no remote registry",
			local:  registryOf(entry("A", at(100), "")),
			remote: nil,
			want:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HasConflicts(tt.local, tt.remote, DefaultConflictGrace))
		})
	}
}

func TestClassify(t *testing.T) {
	assert.Equal(t, CategoryAuthentication, Classify(model.ErrInvalidToken))
	assert.Equal(t, CategoryQuota, Classify(model.ErrQuota))
	assert.Equal(t, CategoryNotFound, Classify(model.ErrRemoteFileMissing))
	assert.Equal(t, CategoryConnectivity, Classify(model.ErrConnectivity))
	assert.Equal(t, CategoryUnknown, Classify(model.ErrValidation))
	assert.Equal(t, Category(""), Classify(nil))
}
