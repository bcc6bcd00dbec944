package device

import "context"

// ArtifactID is the host's handle for an installed metadata header.
type ArtifactID string

// Host installs and removes metadata headers.
type Host interface {
	// Declare installs header text and returns its handle.
	Declare(ctx context.Context, header string) (ArtifactID, error)

	// Unload removes a previously declared header.
	Unload(ctx context.Context, id ArtifactID) error
}
