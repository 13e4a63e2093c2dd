package content

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	naverrors "github.com/dgallion1/docnav/internal/errors"
	"github.com/dgallion1/docnav/internal/logfields"
	"github.com/dgallion1/docnav/internal/metrics"
	"github.com/dgallion1/docnav/internal/navigation"
	"github.com/dgallion1/docnav/internal/parser"
)

// FileFetcher reads {root}/{version}/{section}/{topic}[/{subTopic}] with the
// first extension from parser.Extensions that exists.
type FileFetcher struct {
	fsys     fs.FS
	root     string
	maxBytes int64
	opts     parser.Options
	rec      metrics.Recorder
	log      *slog.Logger
}

// NewFileFetcher serves documents below root.
func NewFileFetcher(root string, maxBytes int64, opts parser.Options, rec metrics.Recorder, log *slog.Logger) *FileFetcher {
	return NewFSFetcher(os.DirFS(root), root, maxBytes, opts, rec, log)
}

// NewFSFetcher serves documents from fsys. root is only used in messages.
func NewFSFetcher(fsys fs.FS, root string, maxBytes int64, opts parser.Options, rec metrics.Recorder, log *slog.Logger) *FileFetcher {
	if rec == nil {
		rec = metrics.NoopRecorder{}
	}
	if log == nil {
		log = slog.Default()
	}
	return &FileFetcher{fsys: fsys, root: root, maxBytes: maxBytes, opts: opts, rec: rec, log: log}
}

func (f *FileFetcher) Fetch(ctx context.Context, loc navigation.Locator) (*Document, error) {
	base := loc.Path()
	for _, ext := range parser.Extensions {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		name := base + ext
		if !fs.ValidPath(name) {
			return nil, naverrors.ContentNotFound(base)
		}
		info, err := fs.Stat(f.fsys, name)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			f.rec.IncContentFetch("file", metrics.ResultError)
			return nil, fmt.Errorf("stat %s: %w", name, err)
		}
		if info.IsDir() {
			continue
		}
		if f.maxBytes > 0 && info.Size() > f.maxBytes {
			f.rec.IncContentFetch("file", metrics.ResultError)
			return nil, fmt.Errorf("%s: %d bytes exceeds limit of %d", name, info.Size(), f.maxBytes)
		}
		data, err := fs.ReadFile(f.fsys, name)
		if err != nil {
			f.rec.IncContentFetch("file", metrics.ResultError)
			return nil, fmt.Errorf("read %s: %w", name, err)
		}

		doc, err := newDocument(loc, name, name, data, f.opts)
		if err != nil {
			f.rec.IncContentFetch("file", metrics.ResultError)
			return nil, err
		}
		if ext != ".md" {
			f.log.Debug("converted source", logfields.Path(name), "format", ext)
		}
		f.rec.IncContentFetch("file", metrics.ResultOK)
		return doc, nil
	}
	f.rec.IncContentFetch("file", string(naverrors.KindContentNotFound))
	return nil, naverrors.ContentNotFound(base)
}
