package registry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/mcoot/bankerscore/internal/dependencies/clock"
	"github.com/mcoot/bankerscore/internal/dependencies/random"
	"github.com/mcoot/bankerscore/internal/model"
	"github.com/mcoot/bankerscore/internal/services/lease"
	"github.com/mcoot/bankerscore/internal/storage"
)

// maxIDAttempts bounds the search for a free daily suffix
const maxIDAttempts = 1000

// Controller owns the process-wide game registry and the current selection.
// All access goes through it; callers receive copies.
type Controller struct {
	storage storage.Storage
	lease   *lease.Service
	clock   clock.Clock
	random  random.Random
	logger  *slog.Logger

	mu        sync.Mutex
	registry  *model.Registry
	revision  uint64
	refresher *lease.Refresher
}

// NewController creates a Controller with an empty registry; call Load to restore saved state
func NewController(
	storage storage.Storage,
	lease *lease.Service,
	clock clock.Clock,
	random random.Random,
	logger *slog.Logger,
) *Controller {
	return &Controller{
		storage:  storage,
		lease:    lease,
		clock:    clock,
		random:   random,
		logger:   logger,
		registry: model.NewRegistry(""),
	}
}

// Load restores the registry from local storage. A missing registry starts empty.
func (c *Controller) Load(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	registry, err := c.storage.GetRegistry(ctx)
	if err != nil {
		if errors.Is(err, model.ErrRegistryNotFound) {
			c.registry = model.NewRegistry("")
			return nil
		}
		return err
	}
	registry.Normalize()
	if registry.CurrentGameID != "" && registry.GetGame(registry.CurrentGameID) == nil {
		registry.CurrentGameID = ""
	}
	c.registry = registry

	c.logger.Info("registry loaded",
		slog.Int("game_count", len(registry.Games)),
		slog.String("current_game", string(registry.CurrentGameID)),
	)
	return nil
}

// Save persists the registry to local storage
func (c *Controller) Save(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.storage.SaveRegistry(ctx, c.registry)
}

// Teardown stops the deferred lease renewal and persists the registry
func (c *Controller) Teardown(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopRefreshLocked()
	return c.storage.SaveRegistry(ctx, c.registry)
}

// SetCurrentUser sets the editor name used for leases and lastEditor stamps
func (c *Controller) SetCurrentUser(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return model.ErrEmptyUserName
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.registry.CurrentUser = name
	c.persistLocked(ctx)
	return nil
}

// CurrentUser returns the editor name
func (c *Controller) CurrentUser() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.registry.CurrentUser
}

// CreateGame adds a new game, makes it current and takes its lease.
// An unset current user is adopted from the creator.
func (c *Controller) CreateGame(ctx context.Context, name, creator string) (*model.Entry, error) {
	name = strings.TrimSpace(name)
	creator = strings.TrimSpace(creator)
	if name == "" {
		return nil, model.ErrEmptyGameName
	}
	if creator == "" {
		return nil, model.ErrEmptyCreator
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.registry.GetGameByName(name) != nil {
		return nil, fmt.Errorf("%w: %q", model.ErrGameNameTaken, name)
	}

	id, err := c.generateIDLocked()
	if err != nil {
		return nil, err
	}

	if c.registry.CurrentUser == "" {
		c.registry.CurrentUser = creator
	}

	now := c.clock.Now()
	entry := &model.Entry{
		ID:           id,
		Name:         name,
		Creator:      creator,
		CreatedAt:    now,
		LastModified: now,
		LastEditor:   creator,
		SyncStatus:   model.SyncStatusPending,
		Data:         model.NewGameData(now),
	}
	c.registry.Games[id] = entry

	if err := c.selectLocked(ctx, entry); err != nil {
		return nil, err
	}

	c.logger.Info("game created",
		slog.String("game_id", string(id)),
		slog.String("name", name),
		slog.String("creator", creator),
	)
	return entry.Clone(), nil
}

// SelectGame makes the game current and acquires its lease for the current user
func (c *Controller) SelectGame(ctx context.Context, id model.GameID) (*model.Entry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry := c.registry.GetGame(id)
	if entry == nil {
		return nil, model.ErrGameNotFound
	}
	if err := c.selectLocked(ctx, entry); err != nil {
		return nil, err
	}

	c.logger.Info("game selected",
		slog.String("game_id", string(id)),
		slog.String("user", c.registry.CurrentUser),
	)
	return entry.Clone(), nil
}

// SelectGameByName resolves a game by its exact name and selects it
func (c *Controller) SelectGameByName(ctx context.Context, name string) (*model.Entry, error) {
	c.mu.Lock()
	entry := c.registry.GetGameByName(name)
	c.mu.Unlock()
	if entry == nil {
		return nil, model.ErrGameNotFound
	}
	return c.SelectGame(ctx, entry.ID)
}

// Mutate runs fn against a copy of the current game's settlement state and
// commits it only if fn succeeds. Another holder's active lease blocks it.
func (c *Controller) Mutate(ctx context.Context, fn func(g *model.GameData) error) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, err := c.currentLocked()
	if err != nil {
		return err
	}
	if holder := c.lease.LockedBy(entry); holder != "" && holder != c.registry.CurrentUser {
		return &model.LockedError{GameID: entry.ID, Holder: holder, Expiry: entry.Lock.Expiry}
	}

	data := entry.Data.Clone()
	if err := fn(&data); err != nil {
		return err
	}
	entry.Data = data

	c.autoSaveLocked(ctx)
	return nil
}

// View runs fn against a copy of the current game's settlement state
func (c *Controller) View(fn func(g *model.GameData)) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, err := c.currentLocked()
	if err != nil {
		return err
	}
	data := entry.Data.Clone()
	fn(&data)
	return nil
}

// AutoSave stamps the current game's metadata, marks the registry dirty and
// persists it locally
func (c *Controller) AutoSave(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.autoSaveLocked(ctx)
}

// Deselect returns to the idle state. The lease is left to expire.
func (c *Controller) Deselect(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.registry.CurrentGameID == "" {
		return
	}
	c.logger.Info("game deselected", slog.String("game_id", string(c.registry.CurrentGameID)))
	c.registry.CurrentGameID = ""
	c.persistLocked(ctx)
}

// ReleaseCurrent explicitly releases the current game's lease
func (c *Controller) ReleaseCurrent(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, err := c.currentLocked()
	if err != nil {
		return err
	}
	if err := c.lease.Release(entry, c.registry.CurrentUser); err != nil {
		return err
	}
	c.stopRefreshLocked()
	c.autoSaveLocked(ctx)
	return nil
}

// RefreshCurrent renews the current user's lease on the current game
func (c *Controller) RefreshCurrent(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, err := c.currentLocked()
	if err != nil {
		return err
	}
	if err := c.lease.Refresh(entry, c.registry.CurrentUser); err != nil {
		return err
	}
	c.autoSaveLocked(ctx)
	return nil
}

// ListGames returns copies of all entries, most recently modified first
func (c *Controller) ListGames() []*model.Entry {
	c.mu.Lock()
	defer c.mu.Unlock()

	sorted := c.registry.SortedGames()
	entries := make([]*model.Entry, len(sorted))
	for i, e := range sorted {
		entries[i] = e.Clone()
	}
	return entries
}

// GetGame returns a copy of the entry with the given ID
func (c *Controller) GetGame(id model.GameID) (*model.Entry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry := c.registry.GetGame(id)
	if entry == nil {
		return nil, model.ErrGameNotFound
	}
	return entry.Clone(), nil
}

// CurrentGame returns a copy of the current entry
func (c *Controller) CurrentGame() (*model.Entry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, err := c.currentLocked()
	if err != nil {
		return nil, err
	}
	return entry.Clone(), nil
}

// HasUnsavedChanges reports whether edits have not yet reached the remote copy
func (c *Controller) HasUnsavedChanges() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.registry.HasUnsavedChanges
}

// Snapshot returns a copy of the registry and the revision it was taken at
func (c *Controller) Snapshot() (*model.Registry, uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.registry.Clone(), c.revision
}

// Replace swaps in a registry produced by the sync engine. The device-local
// user and selection are kept; a selection whose game vanished is cleared.
func (c *Controller) Replace(ctx context.Context, registry *model.Registry) {
	c.mu.Lock()
	defer c.mu.Unlock()

	next := registry.Clone()
	next.Normalize()
	next.CurrentUser = c.registry.CurrentUser
	next.CurrentGameID = c.registry.CurrentGameID
	if next.CurrentGameID != "" && next.GetGame(next.CurrentGameID) == nil {
		c.logger.Warn("current game no longer exists after sync",
			slog.String("game_id", string(next.CurrentGameID)),
		)
		next.CurrentGameID = ""
		c.stopRefreshLocked()
	}

	c.registry = next
	c.revision++
	c.persistLocked(ctx)
}

// MarkSynced records a successful upload of the snapshot taken at rev.
// The dirty flag is only cleared if nothing changed since that snapshot.
func (c *Controller) MarkSynced(ctx context.Context, rev uint64, at time.Time) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if rev != c.revision {
		c.logger.Info("registry changed during upload, keeping dirty flag",
			slog.Uint64("snapshot_revision", rev),
			slog.Uint64("current_revision", c.revision),
		)
		return false
	}

	for _, e := range c.registry.Games {
		e.SyncStatus = model.SyncStatusSynced
		synced := at
		e.LastCloudSync = &synced
	}
	c.registry.HasUnsavedChanges = false
	c.persistLocked(ctx)
	return true
}

func (c *Controller) selectLocked(ctx context.Context, entry *model.Entry) error {
	if err := c.lease.Acquire(entry, c.registry.CurrentUser); err != nil {
		return err
	}
	c.registry.CurrentGameID = entry.ID
	c.autoSaveLocked(ctx)
	c.armRefreshLocked(entry.ID)
	return nil
}

// armRefreshLocked schedules the deferred renewal for this selection.
// The renewal only happens while the game is still current.
func (c *Controller) armRefreshLocked(id model.GameID) {
	c.stopRefreshLocked()
	c.refresher = c.lease.ScheduleRefresh(func() bool {
		c.mu.Lock()
		defer c.mu.Unlock()

		if c.registry.CurrentGameID != id {
			c.logger.Info("lease renewal skipped, game no longer current",
				slog.String("game_id", string(id)),
			)
			return false
		}
		entry := c.registry.GetGame(id)
		if entry == nil {
			return false
		}
		if err := c.lease.Refresh(entry, c.registry.CurrentUser); err != nil {
			c.logger.Warn("lease renewal failed",
				slog.String("game_id", string(id)),
				slog.String("error", err.Error()),
			)
			return false
		}
		c.autoSaveLocked(context.Background())
		return true
	})
}

func (c *Controller) stopRefreshLocked() {
	if c.refresher != nil {
		c.refresher.Stop()
		c.refresher = nil
	}
}

func (c *Controller) currentLocked() (*model.Entry, error) {
	if c.registry.CurrentGameID == "" {
		return nil, model.ErrNoCurrentGame
	}
	entry := c.registry.GetGame(c.registry.CurrentGameID)
	if entry == nil {
		return nil, model.ErrGameNotFound
	}
	return entry, nil
}

func (c *Controller) autoSaveLocked(ctx context.Context) {
	entry, err := c.currentLocked()
	if err != nil {
		return
	}

	now := c.clock.Now()
	entry.LastModified = now
	entry.LastEditor = c.registry.CurrentUser
	entry.PlayerCount = len(entry.Data.Players)
	entry.RoundCount = len(entry.Data.Rounds)
	entry.SyncStatus = model.SyncStatusPending
	c.registry.HasUnsavedChanges = true
	c.revision++

	c.persistLocked(ctx)
}

// persistLocked saves locally on a best-effort basis
func (c *Controller) persistLocked(ctx context.Context) {
	if err := c.storage.SaveRegistry(ctx, c.registry); err != nil {
		c.logger.Error("failed to persist registry",
			slog.String("error", err.Error()),
		)
	}
}

// generateIDLocked allocates game_YYYYMMDD_NNN, retrying only on a collision
// within this registry
func (c *Controller) generateIDLocked() (model.GameID, error) {
	date := c.clock.Now().Format("20060102")
	for i := 0; i < maxIDAttempts; i++ {
		id := model.GameID(fmt.Sprintf("game_%s_%03d", date, c.random.Intn(1000)))
		if c.registry.GetGame(id) == nil {
			return id, nil
		}
	}
	return "", model.ErrGameIDExhausted
}
