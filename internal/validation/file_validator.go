package validation

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/aeturrell/deploy-api/pkg/contracts/domain"
)

var (
	// xlsMagic opens every OLE2 compound document, which is how BIFF workbooks are stored
	xlsMagic = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}
	// xlsxMagic opens every zip archive
	xlsxMagic = []byte{'P', 'K', 0x03, 0x04}
)

// FileValidator checks local files before the pipeline reads them
type FileValidator struct {
	logger *slog.Logger
}

// NewFileValidator creates a new file validator
func NewFileValidator(logger *slog.Logger) *FileValidator {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileValidator{
		logger: logger.With(slog.String("component", "file_validator")),
	}
}

// ValidateDirectory checks that dir exists and is a directory
func (v *FileValidator) ValidateDirectory(dir string) error {
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		v.logger.Error("Directory does not exist",
			slog.String("directory", dir))
		return fmt.Errorf("directory %s does not exist", dir)
	}
	if err != nil {
		return fmt.Errorf("failed to stat directory %s: %w", dir, err)
	}
	if !info.IsDir() {
		v.logger.Error("Path is not a directory",
			slog.String("path", dir))
		return fmt.Errorf("%s is not a directory", dir)
	}
	return nil
}

// ValidateFile checks if a specific file exists and is readable
func (v *FileValidator) ValidateFile(path string) error {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		v.logger.Error("File does not exist",
			slog.String("file", path))
		return fmt.Errorf("file %s does not exist", path)
	}
	if err != nil {
		return fmt.Errorf("failed to stat file %s: %w", path, err)
	}
	if info.IsDir() {
		v.logger.Error("Path is a directory, not a file",
			slog.String("path", path))
		return fmt.Errorf("%s is a directory, not a file", path)
	}

	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("file %s is not readable: %w", path, err)
	}
	file.Close()

	v.logger.Debug("File validated",
		slog.String("file", path),
		slog.Int64("size", info.Size()))
	return nil
}

// ValidateSpreadsheet checks that path is a readable workbook whose leading
// bytes match its extension. An HTML error page saved as 2020.xlsx fails here
// with a clear message rather than deep inside the workbook reader.
func (v *FileValidator) ValidateSpreadsheet(path string) error {
	if err := v.ValidateFile(path); err != nil {
		return err
	}

	base := filepath.Base(path)
	if strings.HasPrefix(base, "~$") {
		return fmt.Errorf("file %s is a temporary Excel file", path)
	}

	var magic []byte
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case domain.FormatLegacy.Extension():
		magic = xlsMagic
	case domain.FormatModern.Extension():
		magic = xlsxMagic
	default:
		return fmt.Errorf("file %s is not an Excel file (extension: %s)", path, ext)
	}

	head, err := readHead(path, len(magic))
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	if !bytes.Equal(head, magic) {
		v.logger.Error("File content does not match its extension",
			slog.String("file", path),
			slog.String("detected", describe(head)))
		return fmt.Errorf("file %s is not a valid %s workbook (content looks like %s)",
			path, strings.TrimPrefix(filepath.Ext(path), "."), describe(head))
	}
	return nil
}

// ValidateSourceFiles checks every source file and stops at the first bad one
func (v *FileValidator) ValidateSourceFiles(files []domain.SourceFile) error {
	for _, f := range files {
		if err := v.ValidateSpreadsheet(f.Path); err != nil {
			return err
		}
	}
	v.logger.Debug("Source files validated", slog.Int("count", len(files)))
	return nil
}

func readHead(path string, n int) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	head := make([]byte, n)
	read, err := io.ReadFull(f, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return nil, err
	}
	return head[:read], nil
}

func describe(head []byte) string {
	switch {
	case len(head) == 0:
		return "an empty file"
	case bytes.HasPrefix(head, xlsxMagic):
		return "a zip archive"
	case bytes.HasPrefix(head, xlsMagic[:4]):
		return "an OLE2 document"
	case bytes.HasPrefix(bytes.TrimSpace(head), []byte("<")):
		return "HTML or XML"
	default:
		return "unknown data"
	}
}
