package redis

import "fmt"

// Key prefix for all remote store data
const keyPrefix = "bankerscore:remote"

const rootParent = "root"

// metaKey returns the Redis key for a file's metadata
func metaKey(owner, id string) string {
	return fmt.Sprintf("%s:%s:file:%s", keyPrefix, owner, id)
}

// contentKey returns the Redis key for a file's content
func contentKey(owner, id string) string {
	return fmt.Sprintf("%s:%s:content:%s", keyPrefix, owner, id)
}

// childrenIndexKey returns the Redis key for the SET of entries under a parent
func childrenIndexKey(owner, parentID string) string {
	if parentID == "" {
		parentID = rootParent
	}
	return fmt.Sprintf("%s:%s:idx:children:%s", keyPrefix, owner, parentID)
}

// usageKey returns the Redis key for an account's stored byte count
func usageKey(owner string) string {
	return fmt.Sprintf("%s:%s:usage", keyPrefix, owner)
}
