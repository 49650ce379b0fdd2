package validation

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/xuefeiwang001/waste-cost-trend-dashboard/src/logger"
)

// AllowedClientContentTypes is a map for quick lookup of allowed client-declared MIME types.
var AllowedClientContentTypes = map[string]bool{
	"application/zip":          true,  // xlsx is a zip container
	"application/octet-stream": true,  // common browser fallback
	"application/vnd.ms-excel": false, // legacy .xls explicitly disallowed
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet": true,
}

// xlsxMagic is the zip local-file-header signature every xlsx starts with.
var xlsxMagic = []byte{0x50, 0x4B, 0x03, 0x04}

// oleMagic is the compound-document signature of legacy .xls files.
var oleMagic = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}

// ValidateClientContentType checks the Content-Type header provided by the client.
func ValidateClientContentType(contentType string) error {
	if allowed, exists := AllowedClientContentTypes[strings.ToLower(contentType)]; !exists || !allowed {
		logger.L.Warn("Disallowed client-declared Content-Type", "contentType", contentType)
		return fmt.Errorf("client-declared file type '%s' is not allowed for workbook upload", contentType)
	}
	return nil
}

// ValidateWorkbookMagicBytes checks the actual file content signature.
// The read pointer is reset to the beginning so the workbook parser can
// read the full file afterwards.
func ValidateWorkbookMagicBytes(file io.ReadSeeker) error {
	if file == nil {
		return fmt.Errorf("file is nil")
	}

	buffer := make([]byte, 8)
	n, err := file.Read(buffer)
	if err != nil && err != io.EOF {
		return fmt.Errorf("failed to read file for content checking: %w", err)
	}

	if _, seekErr := file.Seek(0, io.SeekStart); seekErr != nil {
		return fmt.Errorf("failed to reset file read pointer: %w", seekErr)
	}

	if n == 0 {
		return fmt.Errorf("file is empty")
	}

	if bytes.HasPrefix(buffer[:n], oleMagic) {
		logger.L.Warn("File rejected: legacy .xls signature detected")
		return fmt.Errorf("legacy .xls workbooks are not supported, save the file as .xlsx")
	}
	if !bytes.HasPrefix(buffer[:n], xlsxMagic) {
		logger.L.Warn("File rejected: missing xlsx zip signature")
		return fmt.Errorf("file does not look like an xlsx workbook")
	}
	return nil
}
