package storage

import (
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"github.com/cyclopcam/logs"
	"github.com/cyclopcam/sweeplabel/pkg/iox"
	"golang.org/x/sync/errgroup"
)

const DefaultFetchWorkers = 8

// Fetcher mirrors a folder of remote videos into a local folder, and converts
// each one into the format that the player wants. Every step is skipped if its
// output already exists, so a fetch can be re-run after a partial failure.
type Fetcher struct {
	Log     logs.Log
	Store   Storage
	Workers int // Maximum concurrent downloads. If zero, DefaultFetchWorkers.

	// Convert transcodes src into dst. If nil, videos are not converted.
	Convert func(src, dst string) error
	// ConvertedName maps a downloaded filename to its converted filename
	ConvertedName func(filename string) string
}

type FetchResult struct {
	Objects    int
	Downloaded int
	Converted  int
}

// Fetch downloads every object directly inside the remote folder (objects in
// deeper folders are ignored) into localDir.
// A failure of one object doesn't stop the others. All failures are returned together.
func (f *Fetcher) Fetch(remoteFolder, localDir string) (*FetchResult, error) {
	prefix := strings.TrimSuffix(remoteFolder, "/") + "/"
	all, err := f.Store.List(prefix)
	if err != nil {
		return nil, fmt.Errorf("Failed to list %v: %w", prefix, err)
	}
	objects := []string{}
	for _, name := range all {
		if !strings.Contains(name[len(prefix):], "/") {
			objects = append(objects, name)
		}
	}
	if err := os.MkdirAll(localDir, 0755); err != nil {
		return nil, err
	}

	workers := f.Workers
	if workers <= 0 {
		workers = DefaultFetchWorkers
	}

	result := &FetchResult{Objects: len(objects)}
	var mu sync.Mutex
	var errs []error

	var g errgroup.Group
	g.SetLimit(workers)
	for _, obj := range objects {
		g.Go(func() error {
			downloaded, converted, err := f.fetchOne(obj, localDir)
			mu.Lock()
			defer mu.Unlock()
			if downloaded {
				result.Downloaded++
			}
			if converted {
				result.Converted++
			}
			if err != nil {
				f.Log.Errorf("Failed to fetch %v: %v", obj, err)
				errs = append(errs, fmt.Errorf("%v: %w", obj, err))
			}
			return nil
		})
	}
	g.Wait()

	f.Log.Infof("Fetched %v objects from %v (%v downloaded, %v converted, %v failed)", result.Objects, prefix, result.Downloaded, result.Converted, len(errs))
	return result, errors.Join(errs...)
}

func (f *Fetcher) fetchOne(obj, localDir string) (downloaded, converted bool, err error) {
	local := filepath.Join(localDir, path.Base(obj))
	if !iox.FileExists(local) {
		file, err := f.Store.ReadFile(obj)
		if err != nil {
			return false, false, err
		}
		err = iox.WriteStreamToFileAtomic(local, file.Reader)
		file.Reader.Close()
		if err != nil {
			return false, false, err
		}
		downloaded = true
	}

	if f.Convert == nil || f.ConvertedName == nil {
		return downloaded, false, nil
	}
	dst := f.ConvertedName(local)
	if dst == local || iox.FileExists(dst) {
		return downloaded, false, nil
	}
	// Convert into a temporary name with the same extension, so that an
	// interrupted conversion is redone on the next fetch.
	tmp := filepath.Join(filepath.Dir(dst), ".converting-"+filepath.Base(dst))
	if err := f.Convert(local, tmp); err != nil {
		os.Remove(tmp)
		return downloaded, false, err
	}
	if err := os.Rename(tmp, dst); err != nil {
		os.Remove(tmp)
		return downloaded, false, err
	}
	return downloaded, true, nil
}
