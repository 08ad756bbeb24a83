package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/mcoot/bankerscore/internal/dependencies/clock"
	"github.com/mcoot/bankerscore/internal/model"
	"github.com/mcoot/bankerscore/internal/remote"
)

// Config holds in-memory store limits
type Config struct {
	// QuotaBytes caps the total content size per account; 0 means unlimited
	QuotaBytes int64
}

// Store is an in-memory remote store, partitioned by account
type Store struct {
	auth  remote.Authenticator
	clock clock.Clock
	cfg   Config

	mu       sync.RWMutex
	accounts map[string]*account

	// offline simulates a transport failure on every call
	offline bool
}

type account struct {
	files map[string]*file
	used  int64
}

type file struct {
	ref     remote.FileRef
	content []byte
}

// New creates an empty in-memory store
func New(auth remote.Authenticator, clock clock.Clock, cfg Config) *Store {
	return &Store{
		auth:     auth,
		clock:    clock,
		cfg:      cfg,
		accounts: make(map[string]*account),
	}
}

// Ensure Store implements the interface
var _ remote.Store = (*Store)(nil)

// SetOffline makes every subsequent call fail with a connectivity error until cleared
func (s *Store) SetOffline(offline bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.offline = offline
}

// FileCount returns how many files and folders an account holds
func (s *Store) FileCount(owner string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	acct, ok := s.accounts[owner]
	if !ok {
		return 0
	}
	return len(acct.files)
}

func (s *Store) FindByName(ctx context.Context, token, name, parentID string) ([]remote.FileRef, error) {
	acct, err := s.account(ctx, token)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	refs := []remote.FileRef{}
	for _, f := range acct.files {
		if f.ref.Name == name && f.ref.ParentID == parentID {
			refs = append(refs, f.ref)
		}
	}
	sort.Slice(refs, func(i, j int) bool {
		return refs[i].ModifiedTime.After(refs[j].ModifiedTime)
	})
	return refs, nil
}

func (s *Store) CreateFolder(ctx context.Context, token, name string) (remote.FolderRef, error) {
	if err := remote.ValidateName(name); err != nil {
		return remote.FolderRef{}, err
	}
	acct, err := s.account(ctx, token)
	if err != nil {
		return remote.FolderRef{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ref := remote.FileRef{
		ID:           uuid.NewString(),
		Name:         name,
		Folder:       true,
		ModifiedTime: s.clock.Now(),
	}
	acct.files[ref.ID] = &file{ref: ref}
	return ref, nil
}

func (s *Store) CreateFile(ctx context.Context, token, name string, parent remote.FolderRef, content []byte) (remote.FileRef, error) {
	if err := remote.ValidateName(name); err != nil {
		return remote.FileRef{}, err
	}
	acct, err := s.account(ctx, token)
	if err != nil {
		return remote.FileRef{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if parent.ID != "" {
		p, ok := acct.files[parent.ID]
		if !ok || !p.ref.Folder {
			return remote.FileRef{}, fmt.Errorf("%w: parent folder %s", model.ErrRemoteFileMissing, parent.ID)
		}
	}
	if err := s.checkQuota(acct, int64(len(content))); err != nil {
		return remote.FileRef{}, err
	}

	ref := remote.FileRef{
		ID:           uuid.NewString(),
		Name:         name,
		ParentID:     parent.ID,
		Size:         int64(len(content)),
		ModifiedTime: s.clock.Now(),
	}
	acct.files[ref.ID] = &file{ref: ref, content: clone(content)}
	acct.used += ref.Size
	return ref, nil
}

func (s *Store) UpdateFile(ctx context.Context, token string, ref remote.FileRef, content []byte) (remote.FileRef, error) {
	acct, err := s.account(ctx, token)
	if err != nil {
		return remote.FileRef{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	f, ok := acct.files[ref.ID]
	if !ok || f.ref.Folder {
		return remote.FileRef{}, fmt.Errorf("%w: %s", model.ErrRemoteFileMissing, ref.ID)
	}
	delta := int64(len(content)) - f.ref.Size
	if err := s.checkQuota(acct, delta); err != nil {
		return remote.FileRef{}, err
	}

	f.content = clone(content)
	f.ref.Size = int64(len(content))
	f.ref.ModifiedTime = s.clock.Now()
	acct.used += delta
	return f.ref, nil
}

func (s *Store) GetFileContent(ctx context.Context, token string, ref remote.FileRef) ([]byte, error) {
	acct, err := s.account(ctx, token)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	f, ok := acct.files[ref.ID]
	if !ok || f.ref.Folder {
		return nil, fmt.Errorf("%w: %s", model.ErrRemoteFileMissing, ref.ID)
	}
	return clone(f.content), nil
}

// account authenticates the token and returns the caller's partition
func (s *Store) account(ctx context.Context, token string) (*account, error) {
	s.mu.RLock()
	offline := s.offline
	s.mu.RUnlock()
	if offline {
		return nil, fmt.Errorf("%w: remote store unreachable", model.ErrConnectivity)
	}

	if token == "" {
		return nil, model.ErrNotSignedIn
	}
	owner, err := s.auth.Authenticate(ctx, token)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	acct, ok := s.accounts[owner]
	if !ok {
		acct = &account{files: make(map[string]*file)}
		s.accounts[owner] = acct
	}
	return acct, nil
}

func (s *Store) checkQuota(acct *account, delta int64) error {
	if s.cfg.QuotaBytes > 0 && delta > 0 && acct.used+delta > s.cfg.QuotaBytes {
		return remote.ErrQuotaExceeded(acct.used, s.cfg.QuotaBytes)
	}
	return nil
}

func clone(b []byte) []byte {
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
