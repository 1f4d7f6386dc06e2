package storage

import "io"

// BlobStore keeps uploaded artifacts. The returned key is the opaque upload
// reference handed to the evaluation collaborator.
type BlobStore interface {
	Put(key string, r io.Reader) (string, error) // returns canonical key
	Get(key string) (io.ReadCloser, error)
	Path(key string) (string, error) // local path, for tools that read files
}
