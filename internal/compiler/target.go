package compiler

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"
)

// OutputPath returns where the output for file goes: next to it, or in
// outDir when set, with the backend's extension.
func (c *Compiler) OutputPath(file, outDir string) string {
	base := strings.TrimSuffix(filepath.Base(file), filepath.Ext(file)) + c.backend.Extension()
	if outDir == "" {
		return filepath.Join(filepath.Dir(file), base)
	}
	return filepath.Join(outDir, base)
}

// BuildFile compiles file and writes the output to outPath. Nothing is
// written when compilation fails.
func (c *Compiler) BuildFile(ctx context.Context, file, outPath string) (*Result, error) {
	source, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", file, err)
	}
	res, err := c.Compile(ctx, file, source)
	if err != nil {
		return nil, err
	}
	if !res.OK() {
		return res, nil
	}

	if dir := filepath.Dir(outPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create output dir: %w", err)
		}
	}
	if err := os.WriteFile(outPath, []byte(res.Output), 0o644); err != nil {
		return nil, fmt.Errorf("failed to write %s: %w", outPath, err)
	}
	c.logger.Debug("wrote output", "file", file, "output", outPath, "cached", res.Cached)
	return res, nil
}

// BuildFiles builds every file into outDir (or next to its source),
// several at a time. Results are in the order of files.
func (c *Compiler) BuildFiles(ctx context.Context, files []string, outDir string) ([]*Result, error) {
	results := make([]*Result, len(files))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(c.cfg.WorkerCount())
	for i, file := range files {
		g.Go(func() error {
			res, err := c.BuildFile(ctx, file, c.OutputPath(file, outDir))
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
