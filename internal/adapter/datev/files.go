package datev

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/iho/stripe-datev/internal/usecase"
)

// WrittenFile reports one file placed on disk.
type WrittenFile struct {
	Path    string
	Records int
	File    usecase.ExportFile
}

// WriteFiles writes every export file holding records into dir. Files
// without records in their range are skipped.
func (w *Writer) WriteFiles(dir string, files []usecase.ExportFile) ([]WrittenFile, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	var written []WrittenFile
	for _, f := range files {
		var buf bytes.Buffer
		n, err := w.WriteRecords(&buf, f.Records, Options{
			From:        f.From,
			To:          f.To,
			Description: f.Description,
		})
		if err != nil {
			return written, fmt.Errorf("%s: %w", f.FileName, err)
		}
		if n == 0 {
			continue
		}

		path := filepath.Join(dir, f.FileName)
		if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
			return written, fmt.Errorf("write %s: %w", f.FileName, err)
		}
		written = append(written, WrittenFile{Path: path, Records: n, File: f})
	}
	return written, nil
}
