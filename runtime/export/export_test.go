package export

import (
	"archive/zip"
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/Abdullah-Arda-Gundogdu/tts-training-data-generator/pkg/errors"
	"github.com/Abdullah-Arda-Gundogdu/tts-training-data-generator/pkg/testutil"
	"github.com/Abdullah-Arda-Gundogdu/tts-training-data-generator/runtime/persistence"
	"github.com/Abdullah-Arda-Gundogdu/tts-training-data-generator/runtime/persistence/sqlite"
)

func TestEscapeField(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Su içtim.", "Su içtim."},
		{"a|b", `a\|b`},
		{`C:\audio`, `C:\\audio`},
		{"bir\nsatır", "bir satır"},
		{"bir\r\nsatır", "bir satır"},
		{"bir\rsatır", "bir satır"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, EscapeField(tt.in))
		})
	}
}

func TestParseManifestLine_ReversesEscaping(t *testing.T) {
	fields := []string{`Ali|Veli \ Deli`, "7.wav"}
	line := FormatRecord(fields...)
	assert.Equal(t, `Ali\|Veli \\ Deli|7.wav`, line)

	got, err := ParseManifestLine(line + "\n")
	require.NoError(t, err)
	assert.Equal(t, fields, got)
}

func TestParseManifestLine_Plain(t *testing.T) {
	got, err := ParseManifestLine("Köprüden geçtik.|1.wav")
	require.NoError(t, err)
	assert.Equal(t, []string{"Köprüden geçtik.", "1.wav"}, got)
}

func TestParseManifestLine_DanglingEscape(t *testing.T) {
	_, err := ParseManifestLine(`abc\`)
	require.Error(t, err)
	assert.ErrorIs(t, err, pkgerrors.ErrParse)
}

func TestBuildManifest_NumbersFromStart(t *testing.T) {
	items := []persistence.TrainingItem{
		{ID: 1, Sentence: " Birinci cümle. "},
		{ID: 2, Sentence: "İkinci|cümle."},
	}
	m := BuildManifest(items, 5)
	require.Equal(t, 2, m.Len())
	assert.Equal(t, "5.wav", m.Entries[0].Filename)
	assert.Equal(t, "6.wav", m.Entries[1].Filename)
	assert.Equal(t, []string{"Birinci cümle.|5.wav", `İkinci\|cümle.|6.wav`}, m.Lines)
	assert.Equal(t, "Birinci cümle.|5.wav\n"+`İkinci\|cümle.|6.wav`+"\n", string(m.Bytes()))
}

func TestBuildManifest_Empty(t *testing.T) {
	m := BuildManifest(nil, 1)
	assert.Equal(t, 0, m.Len())
	assert.Nil(t, m.Bytes())
}

func TestBundleFilename(t *testing.T) {
	now := testutil.Clock()
	assert.Equal(t, "su_20250314_150926.zip", BundleFilename([]string{"su"}, now))
	assert.Equal(t, "training_data_20250314_150926.zip", BundleFilename([]string{"su", "ev"}, now))
}

type fixture struct {
	store *sqlite.Store
	root  string
	pkg   *Packager
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store, err := sqlite.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	root := t.TempDir()
	return &fixture{store: store, root: root, pkg: NewPackager(store, root, WithClock(testutil.Clock))}
}

// add stores a generated item; when withFile is set its audio file is created
// with the sentence as content.
func (f *fixture) add(t *testing.T, word, sentence, file string, withFile bool) int64 {
	t.Helper()
	path := filepath.Join(f.root, word, file)
	if withFile {
		testutil.WriteFile(t, path, []byte(sentence))
	}
	id, err := f.store.AddItem(context.Background(), &persistence.TrainingItem{
		Word:      word,
		Sentence:  sentence,
		AudioPath: path,
		Status:    persistence.StatusGenerated,
	})
	require.NoError(t, err)
	return id
}

func readZip(t *testing.T, data []byte) map[string]string {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	out := make(map[string]string, len(zr.File))
	for _, zf := range zr.File {
		rc, err := zf.Open()
		require.NoError(t, err)
		b, err := io.ReadAll(rc)
		require.NoError(t, err)
		require.NoError(t, rc.Close())
		out[zf.Name] = string(b)
	}
	return out
}

func TestWriteBundle_RenumbersAcrossWords(t *testing.T) {
	f := newFixture(t)
	f.add(t, "su", "Su içtim.", "a.wav", true)
	f.add(t, "su", "Su aktı.", "b.wav", false)
	f.add(t, "su", "Su soğuk.", "c.wav", true)
	f.add(t, "ev", "Ev büyük.", "d.wav", true)

	var buf bytes.Buffer
	sum, err := f.pkg.WriteBundle(context.Background(), &buf, []string{"su", "ev"})
	require.NoError(t, err)
	assert.Equal(t, 3, sum.Manifest.Len())
	assert.Equal(t, 1, sum.Missing)

	files := readZip(t, buf.Bytes())
	assert.Len(t, files, 4)
	assert.Equal(t, "Su içtim.", files["1.wav"])
	assert.Equal(t, "Su soğuk.", files["2.wav"])
	assert.Equal(t, "Ev büyük.", files["3.wav"])
	assert.Equal(t, "Su içtim.|1.wav\nSu soğuk.|2.wav\nEv büyük.|3.wav\n", files[ManifestName])
}

func TestWriteBundle_ParsedManifestMatchesFiles(t *testing.T) {
	f := newFixture(t)
	f.add(t, "yol", "Yol|uzundu.", "a.wav", true)

	var buf bytes.Buffer
	_, err := f.pkg.WriteBundle(context.Background(), &buf, []string{"yol"})
	require.NoError(t, err)

	files := readZip(t, buf.Bytes())
	fields, err := ParseManifestLine(strings.TrimSpace(files[ManifestName]))
	require.NoError(t, err)
	require.Len(t, fields, 2)
	assert.Equal(t, "Yol|uzundu.", fields[0])
	assert.Equal(t, "Yol|uzundu.", files[fields[1]])
}

func TestWriteBundle_NoAudioOmitsManifest(t *testing.T) {
	f := newFixture(t)
	f.add(t, "su", "Su aktı.", "gone.wav", false)

	var buf bytes.Buffer
	sum, err := f.pkg.WriteBundle(context.Background(), &buf, []string{"su"})
	require.NoError(t, err)
	assert.Equal(t, 0, sum.Manifest.Len())
	assert.Empty(t, readZip(t, buf.Bytes()))
}

func TestWriteBundle_NoWords(t *testing.T) {
	f := newFixture(t)
	_, err := f.pkg.WriteBundle(context.Background(), io.Discard, nil)
	assert.ErrorIs(t, err, pkgerrors.ErrValidation)
}

func TestWriteBundle_DoesNotMarkExported(t *testing.T) {
	f := newFixture(t)
	f.add(t, "su", "Su içtim.", "a.wav", true)

	_, err := f.pkg.WriteBundle(context.Background(), io.Discard, []string{"su"})
	require.NoError(t, err)

	stats, err := f.store.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Generated)
	assert.Equal(t, 0, stats.Exported)
}

func TestFullExport_WritesManifestAndMarksExported(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id1 := f.add(t, "su", "Su içtim.", "a.wav", true)
	id2 := f.add(t, "ev", "Ev|büyük.", "b.wav", true)

	res, err := f.pkg.FullExport(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, 2, res.Count)
	assert.Equal(t, filepath.Join(f.root, "metadata_20250314_150926.csv"), res.Path)

	data, err := os.ReadFile(res.Path)
	require.NoError(t, err)
	want := filepath.Join(f.root, "ev", "b.wav") + `|Ev\|büyük.` + "\n" +
		filepath.Join(f.root, "su", "a.wav") + "|Su içtim.\n"
	assert.Equal(t, want, string(data))

	for _, id := range []int64{id1, id2} {
		item, err := f.store.GetItem(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, persistence.StatusExported, item.Status)
		assert.NotNil(t, item.ExportedAt)
	}

	_, err = f.pkg.FullExport(ctx, "")
	assert.ErrorIs(t, err, pkgerrors.ErrValidation)
}

func TestFullExport_FiltersByWord(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.add(t, "su", "Su içtim.", "a.wav", true)
	f.add(t, "ev", "Ev büyük.", "b.wav", true)

	res, err := f.pkg.FullExport(ctx, "su")
	require.NoError(t, err)
	assert.Equal(t, 1, res.Count)

	stats, err := f.store.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Generated)
	assert.Equal(t, 1, stats.Exported)
}

func TestFullExport_SameSecondGetsSuffix(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.add(t, "su", "Su içtim.", "a.wav", true)
	first, err := f.pkg.FullExport(ctx, "")
	require.NoError(t, err)

	f.add(t, "su", "Su aktı.", "b.wav", true)
	second, err := f.pkg.FullExport(ctx, "")
	require.NoError(t, err)

	assert.NotEqual(t, first.Path, second.Path)
	assert.Equal(t, filepath.Join(f.root, "metadata_20250314_150926_1.csv"), second.Path)

	latest, err := LatestManifest(f.root)
	require.NoError(t, err)
	assert.Equal(t, second.Path, latest)
}

func TestLatestManifest(t *testing.T) {
	root := t.TempDir()
	_, err := LatestManifest(root)
	assert.ErrorIs(t, err, ErrNoManifest)

	for _, name := range []string{"metadata_20240101_000000.csv", "metadata_20250101_000000.csv", "other.csv"} {
		require.NoError(t, os.WriteFile(filepath.Join(root, name), nil, 0o600))
	}
	latest, err := LatestManifest(root)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "metadata_20250101_000000.csv"), latest)
}

func TestWriteAudioArchive(t *testing.T) {
	f := newFixture(t)
	f.add(t, "su", "Su içtim.", "a.wav", true)
	f.add(t, "ev", "Ev büyük.", "a.wav", true)
	f.add(t, "ev", "Ev yok.", "gone.wav", false)

	var buf bytes.Buffer
	n, err := f.pkg.WriteAudioArchive(context.Background(), &buf)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	files := readZip(t, buf.Bytes())
	assert.Equal(t, "Su içtim.", files["su/a.wav"])
	assert.Equal(t, "Ev büyük.", files["ev/a.wav"])
}

func TestWriteAudioArchive_Empty(t *testing.T) {
	f := newFixture(t)
	_, err := f.pkg.WriteAudioArchive(context.Background(), io.Discard)
	assert.ErrorIs(t, err, pkgerrors.ErrValidation)
}
