// Package domain contains entities without logic, just meta-data.
package domain

// RoomID is a caller-supplied rendezvous name. Rooms exist from the
// first join until the last member leaves.
type RoomID string
