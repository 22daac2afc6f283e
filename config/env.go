package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// EnvString reads an environment variable, reporting whether it is set.
func EnvString(key string) (string, bool) {
	value, ok := os.LookupEnv(key)
	return value, ok
}

// EnvInt reads an integer environment variable.
func EnvInt(key string) (int, bool, error) {
	value, ok := os.LookupEnv(key)
	if !ok {
		return 0, false, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, false, fmt.Errorf("parse %s: %w", key, err)
	}
	return parsed, true, nil
}

// EnvDuration reads a duration environment variable in Go syntax
// (e.g. "6h", "250ms").
func EnvDuration(key string) (time.Duration, bool, error) {
	value, ok := os.LookupEnv(key)
	if !ok {
		return 0, false, nil
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return 0, false, fmt.Errorf("parse %s: %w", key, err)
	}
	return parsed, true, nil
}
