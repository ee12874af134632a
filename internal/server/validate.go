package server

import (
	"fmt"
	"net/http"
	"strings"
	"unicode/utf8"
)

// MaxUploadSize is the upload hard limit per blob.
const MaxUploadSize = 100 * 1024 * 1024

// csvBIExt is the required annotation file extension.
const csvBIExt = ".csv_bi"

// ValidateCSVBI rejects blobs that are oversized, misnamed, not UTF-8
// or missing the version header. The checks run in that order.
func ValidateCSVBI(content []byte, filename string) error {
	if len(content) > MaxUploadSize {
		return apiErr(http.StatusBadRequest, CodeValidation,
			fmt.Sprintf("file too large: %d bytes", len(content)))
	}
	if !strings.HasSuffix(filename, csvBIExt) {
		return apiErr(http.StatusBadRequest, CodeValidation,
			fmt.Sprintf("invalid extension: %s", filename))
	}
	if !utf8.Valid(content) {
		return apiErr(http.StatusBadRequest, CodeValidation, "file is not valid UTF-8")
	}

	text := strings.TrimSpace(string(content))
	if text == "" {
		return apiErr(http.StatusBadRequest, CodeValidation, "empty file")
	}
	first, _, _ := strings.Cut(text, "\n")
	if !strings.HasPrefix(first, "version =") && !strings.HasPrefix(first, "# version =") {
		return apiErr(http.StatusBadRequest, CodeValidation, "missing version header")
	}
	return nil
}
