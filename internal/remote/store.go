package remote

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mcoot/bankerscore/internal/model"
)

// FileRef identifies a file or folder in the remote store
type FileRef struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	ParentID     string    `json:"parentId,omitempty"`
	Folder       bool      `json:"folder"`
	Size         int64     `json:"size"`
	ModifiedTime time.Time `json:"modifiedTime"`
}

// FolderRef is a FileRef known to be a folder
type FolderRef = FileRef

// Store is a per-account blob store with a flat folder hierarchy.
// Every call carries a bearer access token; a missing or invalid token
// fails with an error wrapping model.ErrAuthentication.
type Store interface {
	// FindByName lists entries named name directly under parentID
	// ("" for the account root)
	FindByName(ctx context.Context, token, name, parentID string) ([]FileRef, error)
	CreateFolder(ctx context.Context, token, name string) (FolderRef, error)
	CreateFile(ctx context.Context, token, name string, parent FolderRef, content []byte) (FileRef, error)
	UpdateFile(ctx context.Context, token string, file FileRef, content []byte) (FileRef, error)
	GetFileContent(ctx context.Context, token string, file FileRef) ([]byte, error)
}

// Authenticator resolves a bearer access token to the owning account
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (owner string, err error)
}

// StaticTokens is an Authenticator backed by a fixed token -> owner table
type StaticTokens map[string]string

// Authenticate looks the token up in the table
func (t StaticTokens) Authenticate(ctx context.Context, token string) (string, error) {
	owner, ok := t[token]
	if !ok || token == "" {
		return "", model.ErrInvalidToken
	}
	return owner, nil
}

// ErrQuotaExceeded reports a write that would exceed the account's quota
func ErrQuotaExceeded(used, limit int64) error {
	return fmt.Errorf("%w: %d of %d bytes used", model.ErrQuota, used, limit)
}

// ValidateName rejects names a store cannot hold
func ValidateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: file name is empty", model.ErrValidation)
	}
	return nil
}
