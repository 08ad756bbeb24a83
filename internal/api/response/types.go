package response

import (
	"github.com/mcoot/bankerscore/internal/remote"
)

// Health is the response for the health endpoint
type Health struct {
	Status string `json:"status"`
}

// FileList is the response for file lookups
type FileList struct {
	Files []remote.FileRef `json:"files"`
}
