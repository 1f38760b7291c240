// Package export writes the artifacts of a crawl run to disk.
package export

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/agenthands/linkgraph/internal/config"
	"github.com/agenthands/linkgraph/internal/core"
	"github.com/agenthands/linkgraph/internal/platform/logger"
)

type Writer struct {
	Dir          string
	EnrichedFile string
	MissingFile  string
	LegacyFile   string
	Log          *logger.Logger
}

func NewWriter(cfg config.ExportConfig, log *logger.Logger) *Writer {
	return &Writer{
		Dir:          cfg.Dir,
		EnrichedFile: cfg.EnrichedFile,
		MissingFile:  cfg.MissingFile,
		LegacyFile:   cfg.LegacyFile,
		Log:          logger.OrNop(log).With("component", "export"),
	}
}

// Publish writes the enriched graph, the missing-page counts and the legacy
// adjacency export. An empty file name skips that artifact.
func (w *Writer) Publish(ctx context.Context, res *core.Result) error {
	if w.Dir != "" {
		if err := os.MkdirAll(w.Dir, 0755); err != nil {
			return fmt.Errorf("create export dir: %w", err)
		}
	}
	artifacts := []struct {
		name  string
		value interface{}
	}{
		{w.EnrichedFile, res.Enriched},
		{w.MissingFile, res.Missing.Missing},
		{w.LegacyFile, res.Legacy},
	}
	for _, a := range artifacts {
		if a.name == "" {
			continue
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		path := filepath.Join(w.Dir, a.name)
		if err := WriteJSONFile(path, a.value); err != nil {
			return err
		}
		logger.OrNop(w.Log).Info("artifact written", "path", path)
	}
	return nil
}

// Encode writes v as two-space indented JSON. Non-ASCII titles and
// characters such as '&' are written as-is.
func Encode(wr io.Writer, v interface{}) error {
	enc := json.NewEncoder(wr)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

// WriteJSONFile encodes v into a temp file next to path and renames it into
// place, so readers never see a partial artifact.
func WriteJSONFile(path string, v interface{}) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	tmpName := tmp.Name()
	defer func() {
		_ = tmp.Close()
		if tmpName != "" {
			_ = os.Remove(tmpName)
		}
	}()

	buf := bufio.NewWriter(tmp)
	if err := Encode(buf, v); err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	if err := buf.Flush(); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	_ = os.Chmod(tmpName, 0644)
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	tmpName = ""
	return nil
}
