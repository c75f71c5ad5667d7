package exporter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	apperrors "remarkcli/internal/errors"
	"remarkcli/pkg/contracts/domain"
)

// utf8BOM helps Excel recognize UTF-8 CSV files.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// FileWriter places exported reports in an output directory.
type FileWriter struct {
	outputDir string
	logger    *slog.Logger
}

// NewFileWriter creates a file writer rooted at outputDir.
func NewFileWriter(outputDir string, logger *slog.Logger) *FileWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileWriter{
		outputDir: outputDir,
		logger:    logger.With(slog.String("component", "file_writer")),
	}
}

// Save writes data to name inside the output directory and returns the full path.
// The file is written to a temporary sibling first and renamed into place.
func (w *FileWriter) Save(name string, data []byte) (string, error) {
	fullPath := w.resolvePath(name)

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return "", apperrors.NewStorageError("failed to create output directory", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(fullPath), ".export-*")
	if err != nil {
		return "", apperrors.NewStorageError("failed to create temp file", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return "", apperrors.NewStorageError("failed to write file", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return "", apperrors.NewStorageError("failed to close file", err)
	}
	if err := os.Rename(tmpName, fullPath); err != nil {
		os.Remove(tmpName)
		return "", apperrors.NewStorageError("failed to move file into place", err)
	}

	w.logger.Info("Report file written",
		slog.String("file_path", fullPath),
		slog.Int("bytes", len(data)))
	return fullPath, nil
}

// WriteCSV saves one table as a BOM-prefixed CSV file.
func (w *FileWriter) WriteCSV(name string, table domain.Table) (string, error) {
	data, err := EncodeCSV(table)
	if err != nil {
		return "", err
	}
	return w.Save(name, data)
}

// EncodeCSV renders a table as CSV: header row then data rows, nulls empty.
func EncodeCSV(table domain.Table) ([]byte, error) {
	var buf bytes.Buffer
	buf.Write(utf8BOM)

	writer := csv.NewWriter(&buf)
	header := make([]string, len(table.Columns))
	for i, col := range table.Columns {
		header[i] = col.Name
	}
	if err := writer.Write(header); err != nil {
		return nil, fmt.Errorf("failed to write headers: %w", err)
	}

	for i, row := range table.Rows {
		record := make([]string, len(row))
		for j, cell := range row {
			if cell.Valid {
				record[j] = cell.Value
			}
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// CSVFileName builds <Label>_<Scope>_<Table>_<YYYYMMDD>.csv.
func CSVFileName(label, scope, table string, date time.Time) string {
	return fmt.Sprintf("%s_%s_%s_%s.csv", label, fileComponent(scope), fileComponent(table), date.Format("20060102"))
}

func (w *FileWriter) resolvePath(name string) string {
	if filepath.IsAbs(name) || w.outputDir == "" {
		return name
	}
	return filepath.Join(w.outputDir, name)
}
