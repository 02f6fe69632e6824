package relay

import (
	"fmt"
	"io"
)

// Upload is one file received from a client
type Upload struct {
	FileName string
	Body     io.Reader
	Size     int64
}

// Descriptor is a presigned write URL and the storage key it writes to
type Descriptor struct {
	UploadURL string `json:"upload_url"`
	FileKey   string `json:"file_key"`
}

// Validate reports the first required field that is missing
func (d Descriptor) Validate() error {
	if d.UploadURL == "" {
		return fmt.Errorf("%w: missing upload_url", ErrMalformedSignerResponse)
	}
	if d.FileKey == "" {
		return fmt.Errorf("%w: missing file_key", ErrMalformedSignerResponse)
	}
	return nil
}

// Result describes a completed relay
type Result struct {
	FileKey     string
	FileName    string
	ContentType string
	// DetectedType is the sniffed MIME type of the body, which may differ from ContentType
	DetectedType string
}
