package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/mcoot/bankerscore/internal/dependencies/clock"
	"github.com/mcoot/bankerscore/internal/model"
	"github.com/mcoot/bankerscore/internal/remote"
)

// Config holds Redis connection and quota settings
type Config struct {
	// URL is the Redis connection URL (e.g., redis://localhost:6379)
	URL string

	// Pool settings
	PoolSize     int
	MinIdleConns int

	// QuotaBytes caps the total content size per account; 0 means unlimited
	QuotaBytes int64
}

// DefaultConfig returns sensible defaults for the remote Redis store
func DefaultConfig() Config {
	return Config{
		URL:          "redis://localhost:6379",
		PoolSize:     10,
		MinIdleConns: 2,
		QuotaBytes:   10 << 20,
	}
}

// Store is a Redis-backed remote store, partitioned by account
type Store struct {
	client *redis.Client
	auth   remote.Authenticator
	clock  clock.Clock
	cfg    Config
}

// New connects to Redis and returns a Store
func New(cfg Config, auth remote.Authenticator, clock clock.Clock) (*Store, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return NewWithClient(client, cfg, auth, clock), nil
}

// NewWithClient creates a Store with an existing client (for testing)
func NewWithClient(client *redis.Client, cfg Config, auth remote.Authenticator, clock clock.Clock) *Store {
	return &Store{
		client: client,
		auth:   auth,
		clock:  clock,
		cfg:    cfg,
	}
}

// Close closes the Redis connection
func (s *Store) Close() error {
	return s.client.Close()
}

// Ensure Store implements the interface
var _ remote.Store = (*Store)(nil)

func (s *Store) FindByName(ctx context.Context, token, name, parentID string) ([]remote.FileRef, error) {
	owner, err := s.authenticate(ctx, token)
	if err != nil {
		return nil, err
	}

	ids, err := s.client.SMembers(ctx, childrenIndexKey(owner, parentID)).Result()
	if err != nil {
		return nil, s.wrap(err)
	}
	if len(ids) == 0 {
		return []remote.FileRef{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = metaKey(owner, id)
	}
	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, s.wrap(err)
	}

	refs := []remote.FileRef{}
	for _, v := range values {
		raw, ok := v.(string)
		if !ok {
			continue
		}
		var ref remote.FileRef
		if err := json.Unmarshal([]byte(raw), &ref); err != nil {
			return nil, err
		}
		if ref.Name == name {
			refs = append(refs, ref)
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
	owner, err := s.authenticate(ctx, token)
	if err != nil {
		return remote.FolderRef{}, err
	}

	ref := remote.FileRef{
		ID:           uuid.NewString(),
		Name:         name,
		Folder:       true,
		ModifiedTime: s.clock.Now(),
	}
	meta, err := json.Marshal(ref)
	if err != nil {
		return remote.FolderRef{}, err
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, metaKey(owner, ref.ID), meta, 0)
	pipe.SAdd(ctx, childrenIndexKey(owner, ""), ref.ID)
	if _, err := pipe.Exec(ctx); err != nil {
		return remote.FolderRef{}, s.wrap(err)
	}
	return ref, nil
}

func (s *Store) CreateFile(ctx context.Context, token, name string, parent remote.FolderRef, content []byte) (remote.FileRef, error) {
	if err := remote.ValidateName(name); err != nil {
		return remote.FileRef{}, err
	}
	owner, err := s.authenticate(ctx, token)
	if err != nil {
		return remote.FileRef{}, err
	}

	if parent.ID != "" {
		p, err := s.getMeta(ctx, owner, parent.ID)
		if err != nil {
			return remote.FileRef{}, err
		}
		if !p.Folder {
			return remote.FileRef{}, fmt.Errorf("%w: parent folder %s", model.ErrRemoteFileMissing, parent.ID)
		}
	}
	if err := s.checkQuota(ctx, owner, int64(len(content))); err != nil {
		return remote.FileRef{}, err
	}

	ref := remote.FileRef{
		ID:           uuid.NewString(),
		Name:         name,
		ParentID:     parent.ID,
		Size:         int64(len(content)),
		ModifiedTime: s.clock.Now(),
	}
	meta, err := json.Marshal(ref)
	if err != nil {
		return remote.FileRef{}, err
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, metaKey(owner, ref.ID), meta, 0)
	pipe.Set(ctx, contentKey(owner, ref.ID), content, 0)
	pipe.SAdd(ctx, childrenIndexKey(owner, parent.ID), ref.ID)
	pipe.IncrBy(ctx, usageKey(owner), ref.Size)
	if _, err := pipe.Exec(ctx); err != nil {
		return remote.FileRef{}, s.wrap(err)
	}
	return ref, nil
}

func (s *Store) UpdateFile(ctx context.Context, token string, file remote.FileRef, content []byte) (remote.FileRef, error) {
	owner, err := s.authenticate(ctx, token)
	if err != nil {
		return remote.FileRef{}, err
	}

	ref, err := s.getMeta(ctx, owner, file.ID)
	if err != nil {
		return remote.FileRef{}, err
	}
	if ref.Folder {
		return remote.FileRef{}, fmt.Errorf("%w: %s is a folder", model.ErrRemoteFileMissing, file.ID)
	}

	delta := int64(len(content)) - ref.Size
	if err := s.checkQuota(ctx, owner, delta); err != nil {
		return remote.FileRef{}, err
	}

	ref.Size = int64(len(content))
	ref.ModifiedTime = s.clock.Now()
	meta, err := json.Marshal(ref)
	if err != nil {
		return remote.FileRef{}, err
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, metaKey(owner, ref.ID), meta, 0)
	pipe.Set(ctx, contentKey(owner, ref.ID), content, 0)
	pipe.IncrBy(ctx, usageKey(owner), delta)
	if _, err := pipe.Exec(ctx); err != nil {
		return remote.FileRef{}, s.wrap(err)
	}
	return *ref, nil
}

func (s *Store) GetFileContent(ctx context.Context, token string, file remote.FileRef) ([]byte, error) {
	owner, err := s.authenticate(ctx, token)
	if err != nil {
		return nil, err
	}

	content, err := s.client.Get(ctx, contentKey(owner, file.ID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("%w: %s", model.ErrRemoteFileMissing, file.ID)
		}
		return nil, s.wrap(err)
	}
	return content, nil
}

func (s *Store) authenticate(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", model.ErrNotSignedIn
	}
	return s.auth.Authenticate(ctx, token)
}

func (s *Store) getMeta(ctx context.Context, owner, id string) (*remote.FileRef, error) {
	data, err := s.client.Get(ctx, metaKey(owner, id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("%w: %s", model.ErrRemoteFileMissing, id)
		}
		return nil, s.wrap(err)
	}
	var ref remote.FileRef
	if err := json.Unmarshal(data, &ref); err != nil {
		return nil, err
	}
	return &ref, nil
}

func (s *Store) checkQuota(ctx context.Context, owner string, delta int64) error {
	if s.cfg.QuotaBytes <= 0 || delta <= 0 {
		return nil
	}
	used, err := s.client.Get(ctx, usageKey(owner)).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return s.wrap(err)
	}
	if used+delta > s.cfg.QuotaBytes {
		return remote.ErrQuotaExceeded(used, s.cfg.QuotaBytes)
	}
	return nil
}

// wrap marks Redis transport failures as connectivity errors
func (s *Store) wrap(err error) error {
	return fmt.Errorf("%w: %v", model.ErrConnectivity, err)
}
