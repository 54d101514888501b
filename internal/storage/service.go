// Package storage is the boundary to the Drive-like object storage where
// original files and generated summaries live.
//
// The pipeline only depends on the small ObjectStorage interface; folder
// semantics (nested folder auto-creation) are the storage backend's
// responsibility. The production implementation targets Google Drive.
package storage

import "context"

// FileRef is an opaque reference to a stored file.
type FileRef struct {
	ID  string `json:"id"`
	URL string `json:"url,omitempty"`
}

// ObjectStorage stores, moves, renames and deletes files.
type ObjectStorage interface {
	// Upload stores data under filename inside folderPath, creating
	// nested folders as needed. Uploads are keyed by the generated
	// filename so a retry cannot silently overwrite a different file.
	Upload(ctx context.Context, data []byte, filename, folderPath, contentType string) (FileRef, error)

	// Move relocates a stored file into another folder path.
	Move(ctx context.Context, ref FileRef, folderPath string) error

	// Rename changes the display name of a stored file.
	Rename(ctx context.Context, ref FileRef, newName string) error

	// Delete removes a stored file.
	Delete(ctx context.Context, ref FileRef) error
}
