package export

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/beevik/etree"
	"go.uber.org/zap"

	"fxvolbridge/internal/model"
	"fxvolbridge/internal/ticker"
)

// Exporter writes the two downstream documents to their fixed paths inside
// the shared export directory. A write replaces any prior file at the path.
type Exporter struct {
	dir       string
	formatter *Formatter
	logger    *zap.Logger
}

// NewExporter builds an exporter writing into dir.
func NewExporter(dir string, mapper *ticker.Mapper, now func() time.Time, logger *zap.Logger) *Exporter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Exporter{
		dir:       dir,
		formatter: NewFormatter(mapper, now),
		logger:    logger,
	}
}

// Path returns the output path for a kind.
func (e *Exporter) Path(kind model.ExportKind) string {
	return filepath.Join(e.dir, kind.FileName())
}

// Write renders and writes the document for the kind.
func (e *Exporter) Write(kind model.ExportKind, points []model.VolatilityPoint) error {
	var doc *etree.Document
	if kind == model.ExportAtm {
		doc = e.formatter.BuildAtm(points)
	} else {
		doc = e.formatter.BuildSmile(points)
	}

	if err := writeDocument(doc, e.Path(kind)); err != nil {
		return fmt.Errorf("write %s export: %w", kind, err)
	}

	e.logger.Info("export written",
		zap.String("kind", kind.String()),
		zap.String("path", e.Path(kind)),
		zap.Int("points", len(points)),
	)
	return nil
}

// writeDocument persists atomically: the temp file is renamed over the
// target so the downstream scanner never sees a half-written document.
func writeDocument(doc *etree.Document, path string) error {
	dir := filepath.Dir(path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create export dir: %w", err)
		}
	}

	doc.Indent(2)
	data, err := doc.WriteToBytes()
	if err != nil {
		return fmt.Errorf("render document: %w", err)
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("write tmp: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("rename tmp: %w", err)
	}

	return nil
}
