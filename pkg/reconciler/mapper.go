package reconciler

import "github.com/agentstation/airsync/pkg/mirror"

// Mapper is the serialization boundary between a local entity type and its
// remote payload. Implementations must be pure.
type Mapper[T any] interface {
	// Key returns the local integer id, the sole join key between stores.
	Key(row T) int

	// Encode converts a row into a remote payload. The reconciler sets the
	// link field itself, so Encode need not.
	Encode(row T) (mirror.Fields, error)

	// Decode parses a remote payload, including the link field.
	Decode(fields mirror.Fields) (T, error)

	// ClearRemoteOwned zeroes every field whose value is only ever edited
	// in the remote store.
	ClearRemoteOwned(row *T)

	// CopyRemoteOwned copies the remote-owned fields of remote into row.
	CopyRemoteOwned(row *T, remote T)
}
