package publisher

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"

	"sjsage522/bonoworker/logger"
	apperrors "sjsage522/bonoworker/pkg/errors"
)

// FilePublisher writes the document to a JSON file
type FilePublisher struct {
	path string
	log  *logger.Logger
}

// NewFilePublisher creates a publisher writing to path
func NewFilePublisher(path string) *FilePublisher {
	return &FilePublisher{
		path: path,
		log:  logger.ForPublisher().WithField("path", path),
	}
}

// Path returns the output file path
func (p *FilePublisher) Path() string {
	return p.path
}

// Publish writes message indented with two spaces. The file is replaced
// atomically so readers never see a partial document.
func (p *FilePublisher) Publish(key string, message []byte) error {
	var out bytes.Buffer
	if err := json.Indent(&out, message, "", "  "); err != nil {
		return apperrors.NewPublisher("file", "document is not valid JSON", err)
	}
	out.WriteByte('\n')

	dir := filepath.Dir(p.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return apperrors.NewPublisher("file", "failed to create output directory", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(p.path)+".*.tmp")
	if err != nil {
		return apperrors.NewPublisher("file", "failed to create temporary file", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(out.Bytes()); err != nil {
		tmp.Close()
		return apperrors.NewPublisher("file", "failed to write document", err)
	}
	if err := tmp.Close(); err != nil {
		return apperrors.NewPublisher("file", "failed to write document", err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return apperrors.NewPublisher("file", "failed to set file mode", err)
	}
	if err := os.Rename(tmp.Name(), p.path); err != nil {
		return apperrors.NewPublisher("file", "failed to replace output file", err)
	}

	p.log.Info().Int("bytes", out.Len()).Str("run_id", key).Msg("Document written")
	return nil
}

// Close is a no-op
func (p *FilePublisher) Close() error {
	return nil
}
