package config

import (
	"io"
	"time"
)

// Config defines a set of methods for retrieving configuration values of various types.
// Implementations handle retrieval and type conversion and return the zero
// value for missing keys.
type Config interface {
	io.Closer

	// GetBool retrieves the value associated with key as a bool.
	GetBool(key string) bool

	// GetInt retrieves the value associated with key as an int.
	GetInt(key string) int

	// GetInt64 retrieves the value associated with key as an int64.
	GetInt64(key string) int64

	// GetFloat64 retrieves the value associated with key as a float64.
	GetFloat64(key string) float64

	// GetString retrieves the value associated with key as a string.
	GetString(key string) string

	// GetSecond retrieves the value associated with key as a number of seconds.
	GetSecond(key string) time.Duration

	// GetBinary retrieves the value associated with key as bytes.
	// The value is stored base64 encoded.
	GetBinary(key string) []byte

	// GetArray retrieves the value associated with key as a slice of strings.
	// The value is either a list or a string with format <element1>,<element2>,...
	// Elements are trimmed and empty elements dropped.
	GetArray(key string) []string
}
