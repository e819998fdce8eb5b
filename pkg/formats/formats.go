// Package formats reads and writes scene documents: YAML files describing
// objects, their mesh data, shape keys and modifier stacks, optionally
// wrapped in a zstd frame.
package formats
