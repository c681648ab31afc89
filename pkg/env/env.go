// Package env reads raw environment variables for the few knobs that must
// work before the full config is loaded, such as log formatting.
package env

import "os"

// Get returns the variable's value, or fallback when it is unset or empty.
func Get(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
