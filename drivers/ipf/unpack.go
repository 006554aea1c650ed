package ipf

import (
	"context"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

func relPath(s string) string {
	s = path.Clean("/" + strings.ReplaceAll(s, "\\", "/"))
	return filepath.FromSlash(strings.TrimPrefix(s, "/"))
}

// EntryFilePath maps an entry onto a path relative to an output directory.
// Stored names may use backslashes and may try to climb out with "..".
func EntryFilePath(e *Entry) string {
	return filepath.Join(relPath(e.Container()), relPath(e.Path()))
}

type UnpackStats struct {
	Extracted int64
	Failed    int64
}

// UnpackProgress is called once per entry from worker goroutines.
type UnpackProgress func(done, total int, e *Entry, err error)

// Unpack extracts every entry of the archive at archivePath into outDir.
// Entries are spread over workers, each owning its own archive handle.
// A failing entry is reported and counted; only setup failures abort.
func Unpack(ctx context.Context, archivePath, outDir string, workers int, progress UnpackProgress) (UnpackStats, error) {
	var stats UnpackStats

	af, err := OpenFile(archivePath)
	if err != nil {
		return stats, err
	}
	entries := af.Entries()
	af.Close()

	if workers <= 0 {
		workers = 1
	}

	jobs := make(chan int)
	var done int64

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer close(jobs)
		for i := range entries {
			select {
			case jobs <- i:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		return nil
	})

	for iWorker := 0; iWorker < workers; iWorker++ {
		g.Go(func() error {
			wf, err := OpenFile(archivePath)
			if err != nil {
				return err
			}
			defer wf.Close()

			for i := range jobs {
				// table order is identical for every handle
				e := wf.Entries()[i]
				err := extractTo(wf.Archive, e, outDir)
				if err != nil {
					atomic.AddInt64(&stats.Failed, 1)
				} else {
					atomic.AddInt64(&stats.Extracted, 1)
				}
				n := atomic.AddInt64(&done, 1)
				if progress != nil {
					progress(int(n), len(entries), e, err)
				}
			}
			return nil
		})
	}

	err = g.Wait()
	return stats, err
}

func extractTo(a *Archive, e *Entry, outDir string) error {
	data, err := a.Extract(e)
	if err != nil {
		return err
	}
	target := filepath.Join(outDir, EntryFilePath(e))
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return errors.Wrapf(err, "[ipf] mkdir for %q", e.Path())
	}
	if err := os.WriteFile(target, data, 0644); err != nil {
		return errors.Wrapf(err, "[ipf] write %q", target)
	}
	return nil
}
