// Package tdc loads public ADME task tables, from a local cache directory or
// from the dataverse file store, and wires them into a dataset registry.
package tdc

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Noofbiz/molprep/datasets"
)

// DefaultBaseURL serves raw dataverse files by numeric id.
const DefaultBaseURL = "https://dataverse.harvard.edu/api/access/datafile/"

var ErrUnknownTask = errors.New("tdc: unknown task")

// TaskInfo describes where a task lives and how its table is laid out.
type TaskInfo struct {
	// FileID is the dataverse file id of the tab-separated table.
	FileID  string
	Columns datasets.Columns
}

// KnownTasks maps lower-cased task names to their source files.
var KnownTasks = map[string]TaskInfo{
	"bbb_martins": {FileID: "4259566", Columns: datasets.DefaultColumns},
}

// Loader resolves task names to tables. The zero value reads and writes the
// cache in the current directory and downloads with http.DefaultClient.
type Loader struct {
	CacheDir string
	BaseURL  string
	Client   *http.Client
	Logger   *zap.Logger

	// Tasks extends KnownTasks. Keys are matched case-insensitively.
	Tasks map[string]TaskInfo
}

func (l *Loader) logger() *zap.Logger {
	if l.Logger == nil {
		return zap.NewNop()
	}
	return l.Logger
}

func (l *Loader) lookup(name string) (TaskInfo, bool) {
	key := strings.ToLower(name)
	for k, info := range l.Tasks {
		if strings.ToLower(k) == key {
			return info, true
		}
	}
	info, ok := KnownTasks[key]
	return info, ok
}

// Load returns the named task. See LoadContext.
func (l *Loader) Load(name string) (*Task, error) {
	return l.LoadContext(context.Background(), name)
}

// LoadContext returns the named task, reading <CacheDir>/<name>.tab (or
// .tsv/.csv) when present and downloading the table into the cache
// otherwise.
func (l *Loader) LoadContext(ctx context.Context, name string) (*Task, error) {
	info, known := l.lookup(name)
	cols := info.Columns
	if cols == (datasets.Columns{}) {
		cols = datasets.DefaultColumns
	}

	dir := l.CacheDir
	if dir == "" {
		dir = "."
	}

	if path, err := datasets.FindTable(dir, name); err == nil {
		l.logger().Debug("found cached table", zap.String("task", name), zap.String("path", path))
		return readTask(name, path, cols)
	}

	if !known {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTask, name)
	}

	path := filepath.Join(dir, strings.ToLower(name)+".tab")
	start := time.Now()
	n, err := l.download(ctx, info.FileID, path)
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", name, err)
	}
	l.logger().Info("downloaded task table",
		zap.String("task", name),
		zap.String("path", path),
		zap.Int64("bytes", n),
		zap.Duration("elapsed", time.Since(start)))

	return readTask(name, path, cols)
}

func readTask(name, path string, cols datasets.Columns) (*Task, error) {
	table, err := datasets.ReadTable(path, cols)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", name, err)
	}
	return &Task{Name: name, Path: path, Table: table}, nil
}

// download fetches fileID and writes it to path via a temp file in the same
// directory and a rename.
func (l *Loader) download(ctx context.Context, fileID, path string) (int64, error) {
	base := l.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	client := l.Client
	if client == nil {
		client = http.DefaultClient
	}

	url := strings.TrimSuffix(base, "/") + "/" + fileID
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, fmt.Errorf("build request: %w", err)
	}
	l.logger().Debug("requesting task table", zap.String("url", url))
	resp, err := client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("GET %s: unexpected status %s", url, resp.Status)
	}

	var n int64
	err = datasets.WriteFileAtomic(path, func(w io.Writer) error {
		var copyErr error
		n, copyErr = io.Copy(w, resp.Body)
		return copyErr
	})
	if err != nil {
		return 0, err
	}
	return n, nil
}
