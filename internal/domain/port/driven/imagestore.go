package driven

import "context"

// ImageStore defines the driven port for archiving uploaded photos.
type ImageStore interface {
	// Put stores the image under key and returns the key it was stored at.
	Put(ctx context.Context, key string, img Image) (string, error)
	// Delete removes the image stored under key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}
