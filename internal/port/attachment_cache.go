package port

import "time"

// CachedFile is a document held in the attachment cache.
type CachedFile struct {
	Data        []byte
	ContentType string
	StoredAt    time.Time
}

// AttachmentCache holds recently produced documents for a limited time.
type AttachmentCache interface {
	Put(name string, data []byte, contentType string)
	Get(name string) (*CachedFile, bool)
}
