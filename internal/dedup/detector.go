package dedup

import (
	"context"
	"os"
	"runtime"
	"sort"
	"sync"

	"github.com/spf13/afero"

	"github.com/WinnyKing57/WinClean-sub000/internal/logger"
	"github.com/WinnyKing57/WinClean-sub000/internal/types"
)

// getMaxWorkers returns the optimal number of workers based on CPU cores
func getMaxWorkers(numCPU int) int {
	if numCPU > 16 {
		return 16
	}
	if numCPU < 4 {
		return 4
	}
	return numCPU
}

// Detector finds files with identical content below a root directory.
// Grouping is two-phase: candidates are bucketed by exact size first, and
// digests are computed only inside buckets holding at least two files.
type Detector struct {
	fs      afero.Fs
	cache   *HashCache
	workers int
}

// NewDetector creates a detector on the host filesystem. A non-positive
// worker count selects a default based on available CPU cores.
func NewDetector(workers int) *Detector {
	return NewDetectorWithFS(afero.NewOsFs(), workers)
}

// NewDetectorWithFS creates a detector on the given filesystem.
func NewDetectorWithFS(fsys afero.Fs, workers int) *Detector {
	if workers <= 0 {
		workers = getMaxWorkers(runtime.NumCPU())
	}
	return &Detector{
		fs:      fsys,
		cache:   NewHashCacheWithFS(fsys),
		workers: workers,
	}
}

// Cache returns the digest cache owned by this detector.
func (d *Detector) Cache() *HashCache {
	return d.cache
}

// FindDuplicates groups regular files under root by content digest and
// returns only groups with two or more members. Files smaller than minSize
// are excluded; a file of exactly minSize bytes is eligible. Zero-byte files
// are never candidates. Unreadable files are skipped, not fatal. On
// cancellation the groups found so far are returned together with the
// context error.
func (d *Detector) FindDuplicates(ctx context.Context, root string, minSize int64) (map[string]*types.DuplicateGroup, error) {
	buckets, err := d.sizeBuckets(ctx, root, minSize)
	if err != nil {
		return map[string]*types.DuplicateGroup{}, err
	}

	groups := d.hashBuckets(ctx, buckets)
	return groups, ctx.Err()
}

// sizeBuckets walks root and partitions candidate files by exact size.
// No file content is read in this phase.
func (d *Detector) sizeBuckets(ctx context.Context, root string, minSize int64) (map[int64][]string, error) {
	buckets := make(map[int64][]string)

	err := afero.Walk(d.fs, root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			logger.Debug("skipping unreadable entry", "path", path, "error", err)
			return nil
		}
		if cerr := ctx.Err(); cerr != nil {
			return cerr
		}
		if !info.Mode().IsRegular() {
			return nil
		}

		size := info.Size()
		if size == 0 || size < minSize {
			return nil
		}
		buckets[size] = append(buckets[size], path)
		return nil
	})

	return buckets, err
}

// hashBuckets digests every file in multi-member buckets using a bounded
// worker pool and groups paths whose digests collide.
func (d *Detector) hashBuckets(ctx context.Context, buckets map[int64][]string) map[string]*types.DuplicateGroup {
	type hashed struct {
		size   int64
		path   string
		digest string
	}

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		matches []hashed
	)

	sem := make(chan struct{}, d.workers)

dispatch:
	for size, paths := range buckets {
		if len(paths) < 2 {
			continue
		}
		for _, path := range paths {
			if ctx.Err() != nil {
				break dispatch
			}
			sem <- struct{}{}
			wg.Add(1)
			go func(size int64, path string) {
				defer wg.Done()
				defer func() { <-sem }()

				digest, err := d.cache.Digest(path)
				if err != nil {
					logger.Debug("skipping unhashable file", "path", path, "error", err)
					return
				}

				mu.Lock()
				matches = append(matches, hashed{size: size, path: path, digest: digest})
				mu.Unlock()
			}(size, path)
		}
	}
	wg.Wait()

	pathsByDigest := make(map[string][]string)
	sizeByDigest := make(map[string]int64)
	for _, m := range matches {
		pathsByDigest[m.digest] = append(pathsByDigest[m.digest], m.path)
		sizeByDigest[m.digest] = m.size
	}

	groups := make(map[string]*types.DuplicateGroup)
	for digest, paths := range pathsByDigest {
		if len(paths) < 2 {
			continue
		}
		// Sort for consistent member ordering
		sort.Strings(paths)
		groups[digest] = types.NewDuplicateGroup(digest, sizeByDigest[digest], paths)
	}
	return groups
}

// Report aggregates duplicate groups for display. Groups are ordered by
// wasted space descending, then by digest for a stable order.
func Report(groups map[string]*types.DuplicateGroup) types.DuplicateReport {
	report := types.DuplicateReport{Groups: make([]*types.DuplicateGroup, 0, len(groups))}

	for _, g := range groups {
		report.Groups = append(report.Groups, g)
		report.GroupCount++
		report.FileCount += len(g.Paths)
		report.WastedBytes += g.WastedBytes
	}

	sort.Slice(report.Groups, func(i, j int) bool {
		if report.Groups[i].WastedBytes != report.Groups[j].WastedBytes {
			return report.Groups[i].WastedBytes > report.Groups[j].WastedBytes
		}
		return report.Groups[i].Digest < report.Groups[j].Digest
	})

	if len(report.Groups) > 0 {
		report.LargestGroup = report.Groups[0]
	}
	return report
}
