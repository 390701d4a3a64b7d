package memecatalog

import (
	"path"
	"time"
)

// Asset is one catalog entry. BlobKey is assigned by the Service on creation
// and never changes afterwards; only Name is mutable.
type Asset struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	BlobKey   string    `json:"blob_key"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Payload is the binary content of an asset together with a file name hint
// suitable for a Content-Disposition header.
type Payload struct {
	AssetID  int64
	Name     string
	FileName string
	Data     []byte
}

// FileNameHint derives the download file name for a blob key.
func FileNameHint(blobKey string) string {
	return path.Base(blobKey)
}
