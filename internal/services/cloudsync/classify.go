package cloudsync

import (
	"context"
	"errors"

	"github.com/mcoot/bankerscore/internal/model"
)

// Category is the user-facing class of a sync failure
type Category string

const (
	CategoryAuthentication Category = "authentication"
	CategoryQuota          Category = "quota"
	CategoryNotFound       Category = "not_found"
	CategoryConnectivity   Category = "connectivity"
	CategoryUnknown        Category = "unknown"
)

// Classify maps an error from the identity provider or remote store onto a category
func Classify(err error) Category {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, model.ErrAuthentication):
		return CategoryAuthentication
	case errors.Is(err, model.ErrQuota):
		return CategoryQuota
	case errors.Is(err, model.ErrNotFound):
		return CategoryNotFound
	case errors.Is(err, model.ErrConnectivity),
		errors.Is(err, context.DeadlineExceeded):
		return CategoryConnectivity
	default:
		return CategoryUnknown
	}
}

// Message is the text shown to the user for a category
func (c Category) Message() string {
	switch c {
	case CategoryAuthentication:
		return "sign-in expired, please sign in again"
	case CategoryQuota:
		return "remote storage quota exceeded, try again later"
	case CategoryNotFound:
		return "remote file not found, a new backup will be created"
	case CategoryConnectivity:
		return "connection lost, will sync again once back online"
	default:
		return "sync failed, check the connection"
	}
}
