package memecatalog

// CreateAssetRequest contains parameters for creating an asset
type CreateAssetRequest struct {
	Name        string
	Data        []byte
	ContentType string // forwarded to the blob store, optional
}

// UpdateAssetNameRequest contains parameters for renaming an asset
type UpdateAssetNameRequest struct {
	ID   int64
	Name string
}
