package redis

import "fmt"

// Key prefix for all device-local data
const keyPrefix = "bankerscore"

// registryKey returns the Redis key for the game registry
func registryKey(namespace string) string {
	return fmt.Sprintf("%s:%s:registry", keyPrefix, namespace)
}

// deviceIDKey returns the Redis key for the device identifier
func deviceIDKey(namespace string) string {
	return fmt.Sprintf("%s:%s:device_id", keyPrefix, namespace)
}

// sessionKey returns the Redis key for the cached identity session
func sessionKey(namespace string) string {
	return fmt.Sprintf("%s:%s:session", keyPrefix, namespace)
}
