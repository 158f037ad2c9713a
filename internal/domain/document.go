// Package domain holds the core types shared across the pipeline: the
// document model, the media-kind variant, and the error taxonomy.
package domain

import (
	"path/filepath"
	"strings"
)

// MaxTextChars is the ceiling on extracted text accepted by the
// redaction/transformation gate. Longer input is rejected before any
// external call.
const MaxTextChars = 60_000

// MediaKind is the closed variant a document resolves to exactly once at the
// ingestion boundary. Every downstream branch dispatches on it.
type MediaKind int

const (
	MediaUnsupported MediaKind = iota
	MediaPlainText
	MediaPDF
	MediaImage
)

func (k MediaKind) String() string {
	switch k {
	case MediaPlainText:
		return "text"
	case MediaPDF:
		return "pdf"
	case MediaImage:
		return "image"
	default:
		return "unsupported"
	}
}

// AcceptedKinds names the accepted input kinds for user-facing errors.
const AcceptedKinds = "PDF, TXT or a photo (PNG/JPG/WEBP/BMP/TIFF)"

var imageExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".webp": true,
	".bmp":  true,
	".tif":  true,
	".tiff": true,
}

// UploadedDocument is the opaque upload as received: raw bytes, the declared
// media type, and a filename hint. It is immutable once received, owned by
// the extraction orchestrator for the duration of one request, and never
// persisted.
type UploadedDocument struct {
	Data         []byte
	DeclaredType string
	Filename     string
}

// Kind resolves the media kind from the declared type, falling back to
// filename-extension sniffing when the declared type is generic or absent.
func (d UploadedDocument) Kind() MediaKind {
	return ResolveMediaKind(d.DeclaredType, d.Filename)
}

// ResolveMediaKind maps a declared MIME type and filename hint onto the
// closed MediaKind variant.
func ResolveMediaKind(declared, filename string) MediaKind {
	mediaType := strings.ToLower(strings.TrimSpace(declared))
	if i := strings.IndexByte(mediaType, ';'); i >= 0 {
		mediaType = strings.TrimSpace(mediaType[:i])
	}
	ext := strings.ToLower(filepath.Ext(filename))

	switch {
	case strings.HasPrefix(mediaType, "text/") || ext == ".txt":
		return MediaPlainText
	case mediaType == "application/pdf" || ext == ".pdf":
		return MediaPDF
	case strings.HasPrefix(mediaType, "image/") || imageExtensions[ext]:
		return MediaImage
	default:
		return MediaUnsupported
	}
}
