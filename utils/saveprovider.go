package utils

// ResourceSource describes where a loaded resource came from.
type ResourceSource interface {
	Name() string
	Size() int64
}
