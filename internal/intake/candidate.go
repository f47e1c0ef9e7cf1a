package intake

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"sentiscope/internal/domain"
)

// DetectMimeType resolves the content type of a screenshot. A declared image
// type wins; otherwise the first 512 bytes are sniffed, then the extension is
// consulted.
func DetectMimeType(name, declared string, data []byte) string {
	declared = strings.ToLower(strings.TrimSpace(declared))
	if i := strings.IndexByte(declared, ';'); i >= 0 {
		declared = strings.TrimSpace(declared[:i])
	}
	if strings.HasPrefix(declared, "image/") {
		return declared
	}

	head := data
	if len(head) > 512 {
		head = head[:512]
	}
	if sniffed := http.DetectContentType(head); strings.HasPrefix(sniffed, "image/") {
		return sniffed
	}

	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
	if mt, ok := domain.AllowedExtensions[ext]; ok {
		return mt
	}
	if declared != "" {
		return declared
	}
	return "application/octet-stream"
}

// FromMultipart reads an uploaded form file into a candidate.
func FromMultipart(header *multipart.FileHeader) (domain.FileCandidate, error) {
	f, err := header.Open()
	if err != nil {
		return domain.FileCandidate{}, fmt.Errorf("opening upload %s: %w", header.Filename, err)
	}
	defer func() { _ = f.Close() }()

	data, err := io.ReadAll(f)
	if err != nil {
		return domain.FileCandidate{}, fmt.Errorf("reading upload %s: %w", header.Filename, err)
	}
	mt := DetectMimeType(header.Filename, header.Header.Get("Content-Type"), data)
	return domain.NewFileCandidate(header.Filename, mt, data), nil
}

// FromPath reads a file from disk into a candidate.
func FromPath(path string) (domain.FileCandidate, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.FileCandidate{}, fmt.Errorf("reading %s: %w", path, err)
	}
	name := filepath.Base(path)
	return domain.NewFileCandidate(name, DetectMimeType(name, "", data), data), nil
}
