// Package archive decodes the class files of jar and zip archives in
// parallel, one entry per goroutine.
package archive

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/skdltmxn/classfile-go/class"
	"github.com/skdltmxn/classfile-go/names"
)

// Result is the outcome of decoding one archive entry. Err is set when the
// entry is not a valid class file; Class is nil in that case.
type Result struct {
	Name  string
	Class *class.Class
	Err   error
}

// Scanner decodes archive entries. The zero value uses one worker and no
// logging.
type Scanner struct {
	Workers int
	Log     *zap.Logger
	Names   *names.Cache
}

// IsArchive reports whether name looks like a jar or zip file.
func IsArchive(name string) bool {
	switch strings.ToLower(path.Ext(name)) {
	case ".jar", ".zip", ".war":
		return true
	}
	return false
}

// ScanFile opens and scans the archive at name.
func (s *Scanner) ScanFile(ctx context.Context, name string) ([]Result, error) {
	zr, err := zip.OpenReader(name)
	if err != nil {
		return nil, fmt.Errorf("archive: cannot open %s: %w", name, err)
	}
	defer zr.Close()
	return s.Scan(ctx, &zr.Reader)
}

// Scan decodes every .class entry of zr. Results are returned in entry
// order. Decoding failures are reported per entry; read failures and
// cancellation abort the scan.
func (s *Scanner) Scan(ctx context.Context, zr *zip.Reader) ([]Result, error) {
	log := s.Log
	if log == nil {
		log = zap.NewNop()
	}

	var files []*zip.File
	for _, f := range zr.File {
		if !f.FileInfo().IsDir() && strings.HasSuffix(f.Name, ".class") {
			files = append(files, f)
		}
	}

	results := make([]Result, len(files))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(s.Workers, 1))
	for i, f := range files {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			data, err := readEntry(f)
			if err != nil {
				return err
			}
			res := Result{Name: f.Name}
			res.Class, res.Err = class.Parse(data, class.WithLogger(log), class.WithNameCache(s.Names))
			if res.Err != nil {
				log.Warn("skipping malformed class file",
					zap.String("entry", f.Name),
					zap.Error(res.Err))
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	log.Debug("scanned archive",
		zap.Int("entries", len(zr.File)),
		zap.Int("classes", len(files)))
	return results, nil
}

func readEntry(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("archive: cannot open entry %s: %w", f.Name, err)
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("archive: cannot read entry %s: %w", f.Name, err)
	}
	return data, nil
}
