// Package source resolves the monthly trip record files to local paths,
// fetching them from the remote source when they are not cached yet.
package source

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/golang/glog"
	"github.com/livepeer/trip-analyzer/metrics"
	"github.com/livepeer/trip-analyzer/trips"
	"golang.org/x/sync/singleflight"
)

var ErrSourceUnavailable = errors.New("source unavailable")

type (
	// Resolver returns a local path with the trip records of a month.
	Resolver interface {
		Resolve(ctx context.Context, ym trips.YearMonth) (string, error)
	}

	// Fetcher downloads the raw content of a source file by its name.
	Fetcher interface {
		Fetch(ctx context.Context, name string) ([]byte, error)
	}
)

func FileName(ym trips.YearMonth) string {
	return fmt.Sprintf("yellow_tripdata_%04d-%02d.csv", ym.Year, int(ym.Month))
}

// Cache is a Resolver backed by a local directory. Files missing from the
// directory are fetched once and stored under their conventional name.
type Cache struct {
	dir     string
	fetcher Fetcher
	group   singleflight.Group
}

func NewCache(dir string, fetcher Fetcher) *Cache {
	if dir == "" {
		dir = "."
	}
	return &Cache{dir: dir, fetcher: fetcher}
}

func (c *Cache) Dir() string {
	return c.dir
}

// Resolve returns the cached path of the month's file, downloading it first if
// needed. Concurrent resolves of the same month share a single download, which
// keeps going even if the caller that started it gives up.
func (c *Cache) Resolve(ctx context.Context, ym trips.YearMonth) (string, error) {
	name := FileName(ym)
	path := filepath.Join(c.dir, name)

	shared := context.WithoutCancel(ctx)
	resc := c.group.DoChan(name, func() (interface{}, error) {
		if info, err := os.Stat(path); err == nil && info.Mode().IsRegular() {
			glog.V(5).Infof("Source file already cached path=%q", path)
			metrics.SourceResolves.WithLabelValues("cached").Inc()
			return nil, nil
		}
		return nil, c.download(shared, name, path)
	})

	var err error
	select {
	case res := <-resc:
		err = res.Err
	case <-ctx.Done():
		err = ctx.Err()
	}
	if err != nil {
		metrics.SourceResolves.WithLabelValues("error").Inc()
		return "", err
	}
	return path, nil
}

func (c *Cache) download(ctx context.Context, name, path string) error {
	glog.Infof("Fetching source file name=%q", name)
	start := time.Now()
	data, err := c.fetcher.Fetch(ctx, name)
	if err != nil {
		return fmt.Errorf("error fetching %s: %w", name, err)
	}
	metrics.SourceFetchDuration.Observe(time.Since(start).Seconds())
	metrics.SourceFetchBytes.Add(float64(len(data)))

	if err := os.MkdirAll(c.dir, 0755); err != nil {
		return fmt.Errorf("error creating cache dir: %w", err)
	}
	tmp, err := os.CreateTemp(c.dir, name+".*.partial")
	if err != nil {
		return fmt.Errorf("error creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("error writing %s: %w", tmp.Name(), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("error closing %s: %w", tmp.Name(), err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("error storing %s: %w", path, err)
	}

	metrics.SourceResolves.WithLabelValues("fetched").Inc()
	glog.Infof("Stored source file path=%q bytes=%d took=%v", path, len(data), time.Since(start))
	return nil
}

// ResolveAll resolves every month in order and stops at the first failure.
func ResolveAll(ctx context.Context, r Resolver, months []trips.YearMonth) ([]string, error) {
	paths := make([]string, 0, len(months))
	for _, ym := range months {
		path, err := r.Resolve(ctx, ym)
		if err != nil {
			return nil, fmt.Errorf("error resolving month %s: %w", ym, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}
