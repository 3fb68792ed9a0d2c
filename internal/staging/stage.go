package staging

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// File is a discovered feed file: its name, the partition directory it sits
// under relative to the traversal root, its absolute path and last-modified
// time. The modified time travels with every row as provenance and drives
// curated deduplication.
type File struct {
	Name      string
	Partition string
	Path      string
	ModTime   time.Time
}

// Traverse walks dir recursively and returns every file with the given
// extension. A missing directory yields no files rather than an error, since
// a feed may simply be absent for a run.
func Traverse(dir, ext string) ([]File, error) {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return nil, nil
	}

	var files []File
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || filepath.Ext(path) != ext {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(dir, filepath.Dir(path))
		if err != nil {
			return err
		}
		if rel == "." {
			rel = ""
		}
		files = append(files, File{
			Name:      d.Name(),
			Partition: rel,
			Path:      path,
			ModTime:   info.ModTime(),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to traverse %s: %w", dir, err)
	}
	return files, nil
}

// UploadOptions mirror the staging contract: whether an existing staged file
// may be replaced and how many uploads run in parallel.
type UploadOptions struct {
	Overwrite bool
	Parallel  int
}

// Status of one upload.
const (
	StatusUploaded = "UPLOADED"
	StatusSkipped  = "SKIPPED"
	StatusFailed   = "FAILED"
)

// Result is the per-file outcome of an upload.
type Result struct {
	File   string
	Status string
	Err    error
}

// Uploader places a local feed file into a staged partition.
type Uploader interface {
	Put(ctx context.Context, file File, partition string, opts UploadOptions) Result
}

// LocalStage implements Uploader on a local directory tree, the stand-in for
// the warehouse's remote stage area.
type LocalStage struct {
	root string
	log  *zap.Logger
}

// NewLocalStage creates a stage rooted at the given directory.
func NewLocalStage(root string, log *zap.Logger) *LocalStage {
	return &LocalStage{root: root, log: log}
}

// Put copies the file into root/partition, preserving its modification time
// so downstream deduplication ranks rows the same way the feed did.
func (s *LocalStage) Put(ctx context.Context, file File, partition string, opts UploadOptions) Result {
	if err := ctx.Err(); err != nil {
		return Result{File: file.Name, Status: StatusFailed, Err: err}
	}

	destDir := filepath.Join(s.root, partition)
	dest := filepath.Join(destDir, file.Name)

	if !opts.Overwrite {
		if _, err := os.Stat(dest); err == nil {
			return Result{File: file.Name, Status: StatusSkipped}
		}
	}

	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return Result{File: file.Name, Status: StatusFailed, Err: err}
	}
	if err := copyFile(file.Path, dest); err != nil {
		return Result{File: file.Name, Status: StatusFailed, Err: err}
	}
	if err := os.Chtimes(dest, file.ModTime, file.ModTime); err != nil {
		return Result{File: file.Name, Status: StatusFailed, Err: err}
	}

	return Result{File: file.Name, Status: StatusUploaded}
}

// UploadAll uploads every file, opts.Parallel at a time. Failures are logged
// per file and do not stop the remaining uploads; the failed file is not
// retried.
func UploadAll(ctx context.Context, up Uploader, files []File, opts UploadOptions, log *zap.Logger) []Result {
	if opts.Parallel < 1 {
		opts.Parallel = 1
	}

	results := make([]Result, len(files))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Parallel)

	for i, file := range files {
		i, file := i, file
		g.Go(func() error {
			res := up.Put(ctx, file, file.Partition, opts)
			results[i] = res
			if res.Err != nil {
				log.Error("Error uploading file",
					zap.String("file", res.File),
					zap.Error(res.Err))
				return nil
			}
			log.Info("Uploaded file",
				zap.String("file", res.File),
				zap.String("status", res.Status))
			return nil
		})
	}

	// Workers never return errors; they record them per file instead.
	_ = g.Wait()
	return results
}

func copyFile(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Close()
}
