package export

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	pkgerrors "github.com/Abdullah-Arda-Gundogdu/tts-training-data-generator/pkg/errors"
	"github.com/Abdullah-Arda-Gundogdu/tts-training-data-generator/runtime/logger"
	metrics "github.com/Abdullah-Arda-Gundogdu/tts-training-data-generator/runtime/metrics/prometheus"
	"github.com/Abdullah-Arda-Gundogdu/tts-training-data-generator/runtime/persistence"
	"github.com/Abdullah-Arda-Gundogdu/tts-training-data-generator/runtime/synthesis"
)

const (
	timestampForm  = "20060102_150405"
	manifestPrefix = "metadata_"
	manifestExt    = ".csv"
	manifestPerm   = 0o640
	dirPerm        = 0o750

	formatBundle   = "bundle"
	formatManifest = "manifest"
	formatArchive  = "archive"
)

// ErrNoManifest is returned by LatestManifest when no full export exists yet.
var ErrNoManifest = errors.New("no manifest found, run a full export first")

// Packager builds bundles and manifests from the generated items of a store.
type Packager struct {
	store persistence.TrainingItemStore
	root  string
	now   func() time.Time
}

// Option configures a Packager.
type Option func(*Packager)

// WithClock overrides the clock used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(p *Packager) { p.now = now }
}

// NewPackager creates a Packager that writes manifests under outputRoot.
func NewPackager(store persistence.TrainingItemStore, outputRoot string, opts ...Option) *Packager {
	p := &Packager{store: store, root: outputRoot, now: time.Now}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// BundleSummary describes a written bundle.
type BundleSummary struct {
	Manifest Manifest
	// Missing counts items skipped because their audio file was gone.
	Missing int
}

// BundleFilename names the bundle of words: "<word>_<ts>.zip" for a single
// word, "training_data_<ts>.zip" otherwise.
func BundleFilename(words []string, now time.Time) string {
	ts := now.Format(timestampForm)
	if len(words) == 1 {
		return fmt.Sprintf("%s_%s.zip", synthesis.SanitizeFilename(words[0]), ts)
	}
	return fmt.Sprintf("training_data_%s.zip", ts)
}

// WriteBundle writes a zip of the generated audio of words to w. Files are
// renamed 1.wav … N.wav with the counter running across words, and
// metadata.csv lists "sentence|N.wav". Items whose audio is missing are
// skipped and not numbered.
func (p *Packager) WriteBundle(ctx context.Context, w io.Writer, words []string) (BundleSummary, error) {
	var sum BundleSummary
	if len(words) == 0 {
		return sum, pkgerrors.Validation(component, "WriteBundle", "no words selected")
	}
	ctx = logger.WithStage(ctx, "export")

	zw := zip.NewWriter(w)
	next := 1
	for _, word := range words {
		items, err := p.store.ExportCandidates(ctx, word)
		if err != nil {
			return sum, err
		}
		present := make([]persistence.TrainingItem, 0, len(items))
		for i := range items {
			if fileExists(items[i].AudioPath) {
				present = append(present, items[i])
				continue
			}
			sum.Missing++
			logger.WarnContext(ctx, "Audio file missing, skipping", "id", items[i].ID, "path", items[i].AudioPath)
		}

		m := BuildManifest(present, next)
		for _, e := range m.Entries {
			if err := ctx.Err(); err != nil {
				return sum, err
			}
			if err := p.addFile(zw, e.Item.AudioPath, e.Filename); err != nil {
				return sum, pkgerrors.New(component, "WriteBundle", err).WithKind(pkgerrors.KindFileSystem)
			}
		}
		next += m.Len()
		sum.Manifest.Append(m)
	}

	if sum.Manifest.Len() > 0 {
		if err := p.addBytes(zw, ManifestName, sum.Manifest.Bytes()); err != nil {
			return sum, pkgerrors.New(component, "WriteBundle", err).WithKind(pkgerrors.KindFileSystem)
		}
	}
	if err := zw.Close(); err != nil {
		return sum, pkgerrors.New(component, "WriteBundle", err).WithKind(pkgerrors.KindFileSystem)
	}

	metrics.RecordItemsExported(formatBundle, sum.Manifest.Len())
	logger.InfoContext(ctx, "Bundle written",
		"words", len(words), "files", sum.Manifest.Len(), "missing", sum.Missing)
	return sum, nil
}

// WriteAudioArchive writes a zip of every generated audio file under its
// "<word folder>/<file name>" path. It returns the number of files written.
func (p *Packager) WriteAudioArchive(ctx context.Context, w io.Writer) (int, error) {
	items, err := p.store.ExportCandidates(ctx, "")
	if err != nil {
		return 0, err
	}
	if len(items) == 0 {
		return 0, pkgerrors.Validation(component, "WriteAudioArchive", "no audio files to archive")
	}

	zw := zip.NewWriter(w)
	n := 0
	for i := range items {
		path := items[i].AudioPath
		if !fileExists(path) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return n, err
		}
		name := filepath.Base(filepath.Dir(path)) + "/" + filepath.Base(path)
		if err := p.addFile(zw, path, name); err != nil {
			return n, pkgerrors.New(component, "WriteAudioArchive", err).WithKind(pkgerrors.KindFileSystem)
		}
		n++
	}
	if err := zw.Close(); err != nil {
		return n, pkgerrors.New(component, "WriteAudioArchive", err).WithKind(pkgerrors.KindFileSystem)
	}
	metrics.RecordItemsExported(formatArchive, n)
	return n, nil
}

// FullExportResult describes a written manifest.
type FullExportResult struct {
	Path  string                     `json:"metadata_path"`
	Count int                        `json:"item_count"`
	Items []persistence.TrainingItem `json:"items"`
}

// FullExport writes metadata_<ts>.csv with one "audioPath|sentence" line per
// generated item of word (every word when empty) and marks the items exported.
// Exported items are not offered again.
func (p *Packager) FullExport(ctx context.Context, word string) (FullExportResult, error) {
	ctx = logger.WithStage(ctx, "export")
	items, err := p.store.ExportCandidates(ctx, strings.TrimSpace(word))
	if err != nil {
		return FullExportResult{}, err
	}
	if len(items) == 0 {
		return FullExportResult{}, pkgerrors.Validation(component, "FullExport", "no generated items to export")
	}

	var b strings.Builder
	ids := make([]int64, len(items))
	for i := range items {
		b.WriteString(FormatRecord(items[i].AudioPath, items[i].Sentence))
		b.WriteByte('\n')
		ids[i] = items[i].ID
	}

	path, err := p.writeManifest([]byte(b.String()))
	if err != nil {
		return FullExportResult{}, pkgerrors.New(component, "FullExport", err).WithKind(pkgerrors.KindFileSystem)
	}

	n, err := p.store.MarkExported(ctx, ids)
	if err != nil {
		return FullExportResult{Path: path}, err
	}
	metrics.RecordItemsExported(formatManifest, n)
	logger.InfoContext(ctx, "Exported items", "count", len(items), "path", path)
	return FullExportResult{Path: path, Count: len(items), Items: items}, nil
}

// LatestManifest returns the path of the newest full export manifest under root.
func LatestManifest(root string) (string, error) {
	matches, err := filepath.Glob(filepath.Join(root, manifestPrefix+"*"+manifestExt))
	if err != nil {
		return "", pkgerrors.New(component, "LatestManifest", err).WithKind(pkgerrors.KindFileSystem)
	}
	if len(matches) == 0 {
		return "", ErrNoManifest
	}
	sort.Strings(matches)
	return matches[len(matches)-1], nil
}

// writeManifest creates a new manifest file, adding a numeric suffix when an
// export in the same second already wrote one.
func (p *Packager) writeManifest(data []byte) (string, error) {
	if err := os.MkdirAll(p.root, dirPerm); err != nil {
		return "", err
	}
	base := manifestPrefix + p.now().Format(timestampForm)
	for i := 0; ; i++ {
		name := base + manifestExt
		if i > 0 {
			name = fmt.Sprintf("%s_%d%s", base, i, manifestExt)
		}
		path := filepath.Join(p.root, name)
		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, manifestPerm)
		if errors.Is(err, os.ErrExist) {
			continue
		}
		if err != nil {
			return "", err
		}
		_, err = f.Write(data)
		if closeErr := f.Close(); err == nil {
			err = closeErr
		}
		if err != nil {
			_ = os.Remove(path)
			return "", err
		}
		return path, nil
	}
}

func (p *Packager) addFile(zw *zip.Writer, src, name string) error {
	f, err := os.Open(src)
	if err != nil {
		return err
	}
	defer f.Close()

	dst, err := zw.CreateHeader(&zip.FileHeader{Name: name, Method: zip.Deflate, Modified: p.now()})
	if err != nil {
		return err
	}
	_, err = io.Copy(dst, f)
	return err
}

func (p *Packager) addBytes(zw *zip.Writer, name string, data []byte) error {
	dst, err := zw.CreateHeader(&zip.FileHeader{Name: name, Method: zip.Deflate, Modified: p.now()})
	if err != nil {
		return err
	}
	_, err = dst.Write(data)
	return err
}

func fileExists(path string) bool {
	if path == "" {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
