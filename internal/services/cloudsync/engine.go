package cloudsync

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/mcoot/bankerscore/internal/dependencies/clock"
	"github.com/mcoot/bankerscore/internal/dependencies/random"
	"github.com/mcoot/bankerscore/internal/model"
	"github.com/mcoot/bankerscore/internal/remote"
	"github.com/mcoot/bankerscore/internal/services/identity"
	"github.com/mcoot/bankerscore/internal/services/registry"
	"github.com/mcoot/bankerscore/internal/storage"
)

const deviceIDAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

// Errors
var (
	ErrConflictPending   = fmt.Errorf("%w: resolve the pending sync conflict first", model.ErrInvalidState)
	ErrNoConflict        = fmt.Errorf("%w: no sync conflict to resolve", model.ErrInvalidState)
	ErrInvalidResolution = fmt.Errorf("%w: resolution must be %q or %q", model.ErrValidation, KeepLocal, AdoptRemote)
)

// Resolution is the user's answer to a detected conflict
type Resolution string

const (
	// KeepLocal uploads the local registry over the remote copy
	KeepLocal Resolution = "keep-local"
	// AdoptRemote replaces the whole local registry with the remote copy
	AdoptRemote Resolution = "adopt-remote"
)

// Config holds sync engine settings
type Config struct {
	Interval      time.Duration
	ConflictGrace time.Duration
	AppName       string
	FolderName    string
	FileName      string
	EventBuffer   int
}

// DefaultConfig returns the default sync settings
func DefaultConfig() Config {
	return Config{
		Interval:      DefaultInterval,
		ConflictGrace: DefaultConflictGrace,
		AppName:       "Banker Score Recording",
		FolderName:    "Banker Score Recording",
		FileName:      "games-data.json",
		EventBuffer:   64,
	}
}

// Conflict describes a download that was not merged because local edits
// run ahead of the remote copy
type Conflict struct {
	LocalModified  time.Time
	RemoteModified time.Time
	DetectedAt     time.Time

	remote *model.Registry
}

// SyncResult is the outcome of a download-and-merge or full sync
type SyncResult struct {
	NoRemoteData bool
	Conflict     *Conflict
	Stats        MergeStats
	Uploaded     bool
}

// Engine moves the game registry to and from the remote store
type Engine struct {
	registry *registry.Controller
	identity *identity.Service
	store    remote.Store
	storage  storage.Storage
	clock    clock.Clock
	random   random.Random
	cfg      Config
	logger   *slog.Logger

	scheduler *scheduler
	events    chan model.Event

	// opMu serializes network operations within this process
	opMu sync.Mutex

	mu        sync.Mutex
	base      context.Context
	online    bool
	state     State
	lastSync  *time.Time
	lastError *Failure
	conflict  *Conflict
	folder    *remote.FolderRef

	deviceMu sync.Mutex
	deviceID string
}

// New creates a sync Engine. It starts online with auto-sync stopped; call Start.
func New(
	registry *registry.Controller,
	identity *identity.Service,
	store remote.Store,
	storage storage.Storage,
	clock clock.Clock,
	random random.Random,
	cfg Config,
	logger *slog.Logger,
) *Engine {
	defaults := DefaultConfig()
	if cfg.Interval == 0 {
		cfg.Interval = defaults.Interval
	}
	if cfg.ConflictGrace == 0 {
		cfg.ConflictGrace = defaults.ConflictGrace
	}
	if cfg.AppName == "" {
		cfg.AppName = defaults.AppName
	}
	if cfg.FolderName == "" {
		cfg.FolderName = defaults.FolderName
	}
	if cfg.FileName == "" {
		cfg.FileName = defaults.FileName
	}
	if cfg.EventBuffer == 0 {
		cfg.EventBuffer = defaults.EventBuffer
	}

	e := &Engine{
		registry: registry,
		identity: identity,
		store:    store,
		storage:  storage,
		clock:    clock,
		random:   random,
		cfg:      cfg,
		logger:   logger,
		events:   make(chan model.Event, cfg.EventBuffer),
		base:     context.Background(),
		online:   true,
		state:    StateIdle,
	}
	e.scheduler = newScheduler(clock, cfg.Interval, e.autoTick)
	return e
}

// Events returns the notification channel. Events are dropped when nobody drains it.
func (e *Engine) Events() <-chan model.Event {
	return e.events
}

// Start restores a cached session and, if one is found, starts auto-sync.
// Background ticks run with a context derived from ctx that is never cancelled.
func (e *Engine) Start(ctx context.Context) error {
	e.mu.Lock()
	e.base = context.WithoutCancel(ctx)
	e.mu.Unlock()

	restored, err := e.identity.Restore(ctx)
	if err != nil {
		return err
	}
	if restored {
		e.logger.Info("restored cloud session", slog.String("user", e.identity.UserID()))
		e.resumeAutoSync()
	}
	return nil
}

// Stop halts auto-sync
func (e *Engine) Stop() {
	if e.scheduler.stop() {
		e.logger.Info("auto-sync stopped")
	}
}

// Connect signs in, starts auto-sync and pulls the remote registry
func (e *Engine) Connect(ctx context.Context, creds identity.Credentials) (*SyncResult, error) {
	profile, err := e.identity.SignIn(ctx, creds)
	if err != nil {
		return nil, e.fail(ctx, "sign-in", err)
	}
	e.emit(model.EventSignedIn, "signed in as "+profile.Name, model.SignedInPayload{Profile: *profile})
	e.resumeAutoSync()

	return e.DownloadAndMerge(ctx)
}

// Disconnect stops auto-sync and signs out
func (e *Engine) Disconnect(ctx context.Context) error {
	e.Stop()

	e.mu.Lock()
	e.folder = nil
	e.conflict = nil
	e.state = StateIdle
	e.mu.Unlock()

	if err := e.identity.SignOut(ctx); err != nil {
		return err
	}
	e.emit(model.EventSignedOut, "signed out", nil)
	return nil
}

// SetOnline handles connectivity signals from the environment. Going
// offline pauses auto-sync; coming back resumes it.
func (e *Engine) SetOnline(online bool) {
	e.mu.Lock()
	if e.online == online {
		e.mu.Unlock()
		return
	}
	e.online = online
	if online {
		if e.state == StateOffline {
			e.state = StateIdle
		}
	} else {
		e.state = StateOffline
	}
	e.mu.Unlock()

	if online {
		e.logger.Info("back online")
		e.emit(model.EventOnline, "back online", nil)
		e.resumeAutoSync()
		return
	}
	e.logger.Info("offline, pausing auto-sync")
	e.scheduler.stop()
	e.emit(model.EventOffline, "offline, changes will sync once reconnected", nil)
}

// Upload writes the whole registry to the remote document
func (e *Engine) Upload(ctx context.Context) error {
	e.opMu.Lock()
	defer e.opMu.Unlock()

	if e.conflictPending() {
		return ErrConflictPending
	}
	return e.upload(ctx, "upload")
}

// Download fetches the remote document. It returns nil without error when
// nothing has been uploaded yet.
func (e *Engine) Download(ctx context.Context) (*model.SyncDocument, error) {
	e.opMu.Lock()
	defer e.opMu.Unlock()

	doc, err := e.download(ctx, "download")
	if err != nil {
		return nil, err
	}
	e.succeed("download", nil)
	return doc, nil
}

// DownloadAndMerge pulls the remote registry and merges it game by game,
// unless local edits run ahead of it, in which case the conflict is held
// for ResolveConflict
func (e *Engine) DownloadAndMerge(ctx context.Context) (*SyncResult, error) {
	e.opMu.Lock()
	defer e.opMu.Unlock()

	return e.downloadAndMerge(ctx)
}

// SyncNow uploads unsynced local changes. It never downloads: merging and
// conflict detection happen on Connect and DownloadAndMerge, so a routine
// edit made since the last upload cannot be held back as a conflict.
func (e *Engine) SyncNow(ctx context.Context) (*SyncResult, error) {
	e.opMu.Lock()
	defer e.opMu.Unlock()

	if e.conflictPending() {
		return nil, ErrConflictPending
	}
	if e.identity.IsSignedIn() && !e.registry.HasUnsavedChanges() {
		e.logger.Debug("manual sync skipped: nothing to upload")
		return &SyncResult{}, nil
	}

	if err := e.upload(ctx, "sync"); err != nil {
		return nil, err
	}
	return &SyncResult{Uploaded: true}, nil
}

// ResolveConflict applies the user's choice. Without a held conflict the
// remote copy is fetched again, so a choice made in a later session still works.
func (e *Engine) ResolveConflict(ctx context.Context, choice Resolution) error {
	if choice != KeepLocal && choice != AdoptRemote {
		return ErrInvalidResolution
	}

	e.opMu.Lock()
	defer e.opMu.Unlock()

	e.mu.Lock()
	pending := e.conflict
	e.mu.Unlock()

	var remoteRegistry *model.Registry
	if pending != nil {
		remoteRegistry = pending.remote
	} else if choice == AdoptRemote {
		doc, err := e.download(ctx, "resolve")
		if err != nil {
			return err
		}
		if doc == nil {
			e.mu.Lock()
			e.state = StateIdle
			e.mu.Unlock()
			return ErrNoConflict
		}
		remoteRegistry = doc.GameManager
	}

	switch choice {
	case KeepLocal:
		if err := e.upload(ctx, "resolve"); err != nil {
			return err
		}
	case AdoptRemote:
		adopted := remoteRegistry.Clone()
		adopted.HasUnsavedChanges = false
		for _, entry := range adopted.Games {
			entry.SyncStatus = model.SyncStatusSynced
		}
		e.registry.Replace(ctx, adopted)
		e.succeed("resolve", nil)
	}

	e.mu.Lock()
	e.conflict = nil
	if e.state == StateConflict {
		e.state = StateSynced
	}
	e.mu.Unlock()

	e.logger.Info("sync conflict resolved", slog.String("choice", string(choice)))
	e.emit(model.EventConflictResolved, "conflict resolved: "+string(choice), choice)
	return nil
}

// Tick runs one auto-sync check: it uploads when online, signed in, free
// of conflicts and holding unsynced changes. It reports whether it uploaded.
func (e *Engine) Tick(ctx context.Context) (bool, error) {
	e.mu.Lock()
	online := e.online
	conflict := e.conflict != nil
	e.mu.Unlock()

	switch {
	case !online:
		e.logger.Debug("auto-sync skipped: offline")
		return false, nil
	case !e.identity.IsSignedIn():
		e.logger.Debug("auto-sync skipped: signed out")
		return false, nil
	case conflict:
		e.logger.Debug("auto-sync skipped: conflict pending")
		return false, nil
	case !e.registry.HasUnsavedChanges():
		return false, nil
	}

	e.opMu.Lock()
	defer e.opMu.Unlock()

	if err := e.upload(ctx, "auto-sync"); err != nil {
		return false, err
	}
	return true, nil
}

// DeviceID returns this device's identifier, generating and storing it on first use
func (e *Engine) DeviceID(ctx context.Context) string {
	e.deviceMu.Lock()
	defer e.deviceMu.Unlock()

	if e.deviceID != "" {
		return e.deviceID
	}

	id, err := e.storage.GetDeviceID(ctx)
	if err == nil && id != "" {
		e.deviceID = id
		return id
	}
	if err != nil && !errors.Is(err, model.ErrDeviceIDNotFound) {
		e.logger.Warn("failed to read device id",
			slog.String("error", err.Error()),
		)
	}

	id = "device_" + e.random.String(9, deviceIDAlphabet)
	if err := e.storage.SaveDeviceID(ctx, id); err != nil {
		e.logger.Warn("failed to store device id",
			slog.String("error", err.Error()),
		)
	}
	e.deviceID = id
	return id
}

func (e *Engine) upload(ctx context.Context, op string) error {
	if !e.identity.IsSignedIn() {
		return model.ErrNotSignedIn
	}
	e.begin(op)

	snapshot, rev := e.registry.Snapshot()

	token, err := e.identity.AccessToken(ctx)
	if err != nil {
		return e.fail(ctx, op, err)
	}
	folder, err := e.ensureFolder(ctx, token)
	if err != nil {
		return e.fail(ctx, op, err)
	}

	now := e.clock.Now()
	content, err := e.encode(ctx, snapshot, now)
	if err != nil {
		return e.fail(ctx, op, err)
	}

	files, err := e.store.FindByName(ctx, token, e.cfg.FileName, folder.ID)
	if err != nil {
		return e.fail(ctx, op, err)
	}
	if len(files) > 0 {
		_, err = e.store.UpdateFile(ctx, token, files[0], content)
	} else {
		_, err = e.store.CreateFile(ctx, token, e.cfg.FileName, folder, content)
	}
	if err != nil {
		return e.fail(ctx, op, err)
	}

	e.registry.MarkSynced(ctx, rev, now)
	e.logger.Info("registry uploaded",
		slog.String("operation", op),
		slog.Int("games", len(snapshot.Games)),
		slog.Int("bytes", len(content)),
	)
	e.succeed(op, &now)
	return nil
}

func (e *Engine) download(ctx context.Context, op string) (*model.SyncDocument, error) {
	if !e.identity.IsSignedIn() {
		return nil, model.ErrNotSignedIn
	}
	e.begin(op)

	token, err := e.identity.AccessToken(ctx)
	if err != nil {
		return nil, e.fail(ctx, op, err)
	}

	folder, found, err := e.findFolder(ctx, token)
	if err != nil {
		return nil, e.fail(ctx, op, err)
	}
	if !found {
		e.logger.Info("no remote data found")
		return nil, nil
	}

	files, err := e.store.FindByName(ctx, token, e.cfg.FileName, folder.ID)
	if err != nil {
		return nil, e.fail(ctx, op, err)
	}
	if len(files) == 0 {
		e.logger.Info("no remote data found")
		return nil, nil
	}
	if len(files) > 1 {
		e.logger.Warn("duplicate remote documents, using the newest",
			slog.Int("count", len(files)),
		)
	}

	content, err := e.store.GetFileContent(ctx, token, files[0])
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, nil
		}
		return nil, e.fail(ctx, op, err)
	}

	var doc model.SyncDocument
	if err := json.Unmarshal(content, &doc); err != nil {
		return nil, e.fail(ctx, op, fmt.Errorf("decode remote document: %w", err))
	}
	if doc.GameManager == nil {
		return nil, nil
	}
	doc.GameManager.Normalize()
	return &doc, nil
}

func (e *Engine) downloadAndMerge(ctx context.Context) (*SyncResult, error) {
	doc, err := e.download(ctx, "download")
	if err != nil {
		return nil, err
	}
	if doc == nil {
		e.succeed("download", nil)
		return &SyncResult{NoRemoteData: true}, nil
	}

	local, _ := e.registry.Snapshot()
	remoteRegistry := doc.GameManager

	if HasConflicts(local, remoteRegistry, e.cfg.ConflictGrace) {
		conflict := &Conflict{
			LocalModified:  local.LatestModification(),
			RemoteModified: remoteRegistry.LatestModification(),
			DetectedAt:     e.clock.Now(),
			remote:         remoteRegistry,
		}

		e.mu.Lock()
		e.conflict = conflict
		e.state = StateConflict
		e.mu.Unlock()

		e.logger.Warn("sync conflict detected",
			slog.Time("local_modified", conflict.LocalModified),
			slog.Time("remote_modified", conflict.RemoteModified),
		)
		e.emit(model.EventConflictDetected, "local and remote copies have diverged", model.ConflictPayload{
			LocalModified:  conflict.LocalModified,
			RemoteModified: conflict.RemoteModified,
		})

		view := *conflict
		view.remote = nil
		return &SyncResult{Conflict: &view}, nil
	}

	merged, stats := Merge(local, remoteRegistry)
	e.registry.Replace(ctx, merged)

	e.logger.Info("remote registry merged",
		slog.Int("remote_only", stats.RemoteOnly),
		slog.Int("remote_newer", stats.RemoteNewer),
		slog.Int("local_only", stats.LocalOnly),
		slog.Int("local_newer", stats.LocalNewer),
	)
	e.emit(model.EventRemoteMerged, "remote data merged", stats)
	e.succeed("download", nil)
	return &SyncResult{Stats: stats}, nil
}

func (e *Engine) encode(ctx context.Context, snapshot *model.Registry, now time.Time) ([]byte, error) {
	for _, entry := range snapshot.Games {
		entry.SyncStatus = model.SyncStatusSynced
		synced := now
		entry.LastCloudSync = &synced
	}
	snapshot.HasUnsavedChanges = false

	doc := model.SyncDocument{
		Metadata: model.SyncMetadata{
			Version:  model.DocumentVersion,
			AppName:  e.cfg.AppName,
			LastSync: now,
			DeviceID: e.DeviceID(ctx),
			UserID:   e.identity.UserID(),
		},
		GameManager: snapshot,
	}
	return json.MarshalIndent(doc, "", "  ")
}

// findFolder looks up the application folder, using the cached reference when present
func (e *Engine) findFolder(ctx context.Context, token string) (remote.FolderRef, bool, error) {
	e.mu.Lock()
	cached := e.folder
	e.mu.Unlock()
	if cached != nil {
		return *cached, true, nil
	}

	refs, err := e.store.FindByName(ctx, token, e.cfg.FolderName, "")
	if err != nil {
		return remote.FolderRef{}, false, err
	}
	for _, ref := range refs {
		if ref.Folder {
			e.cacheFolder(ref)
			return ref, true, nil
		}
	}
	return remote.FolderRef{}, false, nil
}

func (e *Engine) ensureFolder(ctx context.Context, token string) (remote.FolderRef, error) {
	folder, found, err := e.findFolder(ctx, token)
	if err != nil || found {
		return folder, err
	}

	folder, err = e.store.CreateFolder(ctx, token, e.cfg.FolderName)
	if err != nil {
		return remote.FolderRef{}, err
	}
	e.logger.Info("created remote app folder", slog.String("folder_id", folder.ID))
	e.cacheFolder(folder)
	return folder, nil
}

func (e *Engine) cacheFolder(ref remote.FolderRef) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.folder = &ref
}

func (e *Engine) conflictPending() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.conflict != nil
}

func (e *Engine) resumeAutoSync() {
	e.mu.Lock()
	online := e.online
	e.mu.Unlock()

	if !online || !e.identity.IsSignedIn() {
		return
	}
	if e.scheduler.start() {
		e.logger.Info("auto-sync started", slog.Duration("interval", e.cfg.Interval))
	}
}

func (e *Engine) autoTick() {
	e.mu.Lock()
	ctx := e.base
	e.mu.Unlock()

	// Failures are already classified and reported
	_, _ = e.Tick(ctx)
}

func (e *Engine) begin(op string) {
	e.mu.Lock()
	if e.state != StateConflict {
		e.state = StateSyncing
	}
	e.mu.Unlock()
	e.emit(model.EventSyncStarted, op, nil)
}

func (e *Engine) succeed(op string, uploadedAt *time.Time) {
	e.mu.Lock()
	if e.state != StateConflict {
		e.state = StateSynced
	}
	if uploadedAt != nil {
		at := *uploadedAt
		e.lastSync = &at
	}
	e.lastError = nil
	e.mu.Unlock()
	e.emit(model.EventSyncSucceeded, op, nil)
}

// fail classifies err, records it for Status and notifies listeners.
// Authentication failures sign the device out. It returns err unchanged.
func (e *Engine) fail(ctx context.Context, op string, err error) error {
	category := Classify(err)

	e.logger.Warn("sync failed",
		slog.String("operation", op),
		slog.String("category", string(category)),
		slog.String("error", err.Error()),
	)

	e.mu.Lock()
	e.lastError = &Failure{
		Operation: op,
		Category:  category,
		Message:   category.Message(),
		At:        e.clock.Now(),
	}
	switch category {
	case CategoryConnectivity:
		e.state = StateOffline
	default:
		e.state = StateError
	}
	if category == CategoryNotFound || category == CategoryAuthentication {
		e.folder = nil
	}
	e.mu.Unlock()

	e.emit(model.EventSyncFailed, category.Message(), model.SyncFailedPayload{
		Operation: op,
		Category:  string(category),
		Err:       err,
	})

	if category == CategoryAuthentication {
		e.scheduler.stop()
		if signOutErr := e.identity.ForceSignOut(ctx); signOutErr != nil {
			e.logger.Error("failed to clear cached session",
				slog.String("error", signOutErr.Error()),
			)
		}
		e.emit(model.EventSignedOut, "signed out, please sign in again", nil)
	}
	return err
}

func (e *Engine) emit(eventType model.EventType, message string, payload any) {
	event := model.Event{
		Type:      eventType,
		Timestamp: e.clock.Now(),
		Message:   message,
		Payload:   payload,
	}
	select {
	case e.events <- event:
	default:
		e.logger.Debug("event dropped, channel full", slog.String("type", string(eventType)))
	}
}
