package main

import (
	"fmt"
	"io"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/romain-durban/bsploader/internal/config"
	"github.com/romain-durban/bsploader/internal/mapfile"
	"github.com/romain-durban/bsploader/pkg/formats"
)

// app carries what every command needs.
type app struct {
	cfg *config.Config
	log *zap.Logger
	out io.Writer
}

// openMap opens and parses a map. The returned file stays open so raw lumps
// can still be read; callers must Close it.
func (a *app) openMap(path string) (*formats.BSP, *mapfile.File, error) {
	f, err := mapfile.Open(path, a.cfg.MaxDecompressedBytes())
	if err != nil {
		return nil, nil, err
	}

	a.log.Debug("opened map",
		zap.String("path", path),
		zap.Stringer("compression", f.Compression()),
		zap.Int64("size", f.Size()))

	bsp, err := formats.ParseBSP(f, formats.WithLogger(a.log.Named("bsp")))
	if err != nil {
		f.Close()
		return nil, nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	return bsp, f, nil
}

func (a *app) yamlOutput() bool {
	return a.cfg.Output.Format == config.FormatYAML
}

// writeYAML encodes v as a YAML document.
func (a *app) writeYAML(v any) error {
	enc := yaml.NewEncoder(a.out)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encoding yaml: %w", err)
	}
	return enc.Close()
}

// limitRecords applies the configured record limit.
func limitRecords[T any](records []T, limit int) []T {
	if limit > 0 && len(records) > limit {
		return records[:limit]
	}
	return records
}
