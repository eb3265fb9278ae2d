// Package admission is the Admission component: it creates and joins
// rooms, resolves a stable player identity from a client-supplied device
// id, and tracks which room a device has last created or joined so a page
// reload can rejoin transparently, per spec.md §4.5 and §6.
package admission

import (
	"context"
	"errors"
)

// ErrUnknownDevice is returned when an operation references a device id
// that has never been resolved to a player identity.
var ErrUnknownDevice = errors.New("device id not recognized")

// Service is the device-identity persistence contract. It is independent
// of the Snapshot Store: a device's identity and "which room am I in"
// association outlive any single room and must survive a restart the same
// way a room snapshot does.
type Service interface {
	// ResolveIdentity returns the stable player id bound to deviceID,
	// minting and persisting a new one the first time deviceID is seen.
	// Idempotent: the same deviceID always resolves to the same player id.
	ResolveIdentity(ctx context.Context, deviceID string) (playerID string, err error)

	// SetActiveRoom records that deviceID's player is now in roomID, for
	// lookup_active_room / GET /player-room/{player_id}. Returns
	// ErrUnknownDevice if deviceID was never resolved.
	SetActiveRoom(ctx context.Context, deviceID, roomID string) error

	// ActiveRoomByDevice returns the room deviceID's player is currently
	// associated with, if any.
	ActiveRoomByDevice(ctx context.Context, deviceID string) (roomID string, ok bool, err error)

	// ActiveRoomByPlayer is the same lookup keyed directly by player id,
	// for the GET /player-room/{player_id} wire endpoint.
	ActiveRoomByPlayer(ctx context.Context, playerID string) (roomID string, ok bool, err error)

	// ClearActiveRoomByPlayer forgets the room association for playerID,
	// on leave_room.
	ClearActiveRoomByPlayer(ctx context.Context, playerID string) error

	Close() error
}
