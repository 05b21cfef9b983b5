package entities

// VideoAsset is an in-memory video payload. It is never mutated once captured.
type VideoAsset struct {
	Data     []byte
	MimeType string
	Size     int64
}

func NewVideoAsset(data []byte, mimeType string) VideoAsset {
	return VideoAsset{
		Data:     data,
		MimeType: mimeType,
		Size:     int64(len(data)),
	}
}
