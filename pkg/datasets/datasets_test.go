package datasets

import (
	"bytes"
	"context"
	"io/fs"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// withRows relaxes the expected row count so small fixtures pass the shape check.
func withRows(n int) Option { return func(o *options) { o.rows = n } }

func withBundle(fsys fs.FS) Option { return func(o *options) { o.bundle = fsys } }

func noBundle() Option { return withBundle(fstest.MapFS{}) }

func fixtureBundle(t *testing.T) fs.FS {
	t.Helper()
	raw, err := os.ReadFile(filepath.Join("testdata", BostonFile))
	require.NoError(t, err)
	return fstest.MapFS{"data/" + BostonFile: &fstest.MapFile{Data: raw}}
}

func TestReadCSVFixture(t *testing.T) {
	f, err := os.Open(filepath.Join("testdata", BostonFile))
	require.NoError(t, err)
	defer f.Close()

	b, err := ReadCSV(f)
	require.NoError(t, err)

	rows, cols := b.Shape()
	assert.Equal(t, 5, rows)
	assert.Equal(t, 13, cols)
	assert.Equal(t, BostonFeatureNames(), b.FeatureNames)
	assert.Equal(t, "MEDV", b.TargetName)
	assert.Equal(t, []float64{24, 21.6, 34.7, 33.4, 36.2}, b.Target)
	assert.Equal(t, 0.00632, b.Data[0][0])
	assert.Equal(t, 4.98, b.Data[0][12])
}

func TestReadCSVRejectsMalformedInput(t *testing.T) {
	cases := map[string]string{
		"empty":           "",
		"bad header":      "five,13\n",
		"short names":     "1,2\nA,B\n1,2,3\n",
		"short row":       "1,2\nA,B,Y\n1,2\n",
		"non numeric":     "1,2\nA,B,Y\n1,x,3\n",
		"count mismatch":  "2,2\nA,B,Y\n1,2,3\n",
		"bad target":      "1,2\nA,B,Y\n1,2,?\n",
		"zero features":   "1,0\nY\n3\n",
		"missing names":   "1,2\n",
		"negative sample": "-1,2\nA,B,Y\n",
	}
	for name, in := range cases {
		_, err := ReadCSV(strings.NewReader(in))
		assert.ErrorIs(t, err, ErrMalformed, name)
	}
}

func TestWriteCSVRoundTrip(t *testing.T) {
	in := &Bunch{
		Data:         [][]float64{{1.5, 2}, {3, 4.25}},
		Target:       []float64{10, 20.5},
		FeatureNames: []string{"A", "B"},
		TargetName:   "Y",
	}
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, in))
	assert.True(t, strings.HasPrefix(buf.String(), "2,2\nA,B,Y\n"))

	out, err := ReadCSV(&buf)
	require.NoError(t, err)
	assert.Equal(t, in.Data, out.Data)
	assert.Equal(t, in.Target, out.Target)
	assert.Equal(t, in.FeatureNames, out.FeatureNames)
	assert.Equal(t, in.TargetName, out.TargetName)
}

func TestWriteCSVRejectsRaggedRows(t *testing.T) {
	err := WriteCSV(&bytes.Buffer{}, &Bunch{
		Data:         [][]float64{{1, 2}, {3}},
		Target:       []float64{1, 2},
		FeatureNames: []string{"A", "B"},
	})
	assert.Error(t, err)

	err = WriteCSV(&bytes.Buffer{}, &Bunch{
		Data:         [][]float64{{1, 2}},
		Target:       []float64{1, 2},
		FeatureNames: []string{"A", "B"},
	})
	assert.Error(t, err)
}

func TestParseStatLib(t *testing.T) {
	f, err := os.Open(filepath.Join("testdata", "statlib_boston.txt"))
	require.NoError(t, err)
	defer f.Close()

	b, err := ParseStatLib(f)
	require.NoError(t, err)

	rows, cols := b.Shape()
	assert.Equal(t, 3, rows)
	assert.Equal(t, 13, cols)
	assert.Equal(t, []float64{24, 21.6, 34.7}, b.Target)
	assert.Equal(t, []float64{0.02729, 0, 7.07, 0, 0.469, 7.185, 61.1, 4.9671, 2, 242, 17.8, 392.83, 4.03}, b.Data[2])
	assert.Equal(t, "MEDV", b.TargetName)
}

func TestParseStatLibTruncated(t *testing.T) {
	preamble := strings.Repeat("text\n", statLibPreamble)
	_, err := ParseStatLib(strings.NewReader(preamble + " 1 2 3 4 5 6 7 8 9 10 11\n"))
	assert.ErrorIs(t, err, ErrMalformed)

	_, err = ParseStatLib(strings.NewReader(preamble + " 1 2 3\n"))
	assert.ErrorIs(t, err, ErrMalformed)

	_, err = ParseStatLib(strings.NewReader(preamble))
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestDataHomeResolution(t *testing.T) {
	t.Setenv(EnvDataHome, "/tmp/from-env")

	got, err := DataHome("/tmp/explicit/")
	require.NoError(t, err)
	assert.Equal(t, "/tmp/explicit", got)

	got, err = DataHome("")
	require.NoError(t, err)
	assert.Equal(t, "/tmp/from-env", got)

	t.Setenv(EnvDataHome, "")
	t.Setenv("HOME", "/home/analyst")
	got, err = DataHome("")
	require.NoError(t, err)
	assert.Equal(t, "/home/analyst/housing_data", got)

	got, err = DataHome("~/cache")
	require.NoError(t, err)
	assert.Equal(t, "/home/analyst/cache", got)
}

func TestLoadBostonFromDataHome(t *testing.T) {
	b, err := LoadBoston(WithDataHome("testdata"), WithDownload(false))
	require.NoError(t, err)
	assert.Len(t, b.Data, 5)
	assert.Equal(t, filepath.Join("testdata", BostonFile), b.Filename)
	assert.NotEmpty(t, b.Descr)
}

func TestLoadBostonMissingWithoutDownload(t *testing.T) {
	_, err := LoadBoston(WithDataHome(t.TempDir()), WithDownload(false), noBundle())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLoadBostonFallsBackToBundledCopy(t *testing.T) {
	home := t.TempDir()
	b, err := LoadBoston(WithDataHome(home), WithDownload(false), withBundle(fixtureBundle(t)), withRows(5))
	require.NoError(t, err)
	assert.Len(t, b.Data, 5)
	assert.Equal(t, "embedded:data/"+BostonFile, b.Filename)
	assert.NotEmpty(t, b.Descr)

	entries, err := os.ReadDir(home)
	require.NoError(t, err)
	assert.Empty(t, entries, "bundled loads do not populate the cache")
}

func TestLoadBostonRejectsShortBundledCopy(t *testing.T) {
	_, err := LoadBoston(WithDataHome(t.TempDir()), WithDownload(false), withBundle(fixtureBundle(t)))
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestBundledCopyIsComplete(t *testing.T) {
	if !HasBundledBoston() {
		t.Skip("no bundled copy; run go generate ./pkg/datasets")
	}
	b, err := LoadBoston(WithDataHome(t.TempDir()), WithDownload(false))
	require.NoError(t, err)
	rows, cols := b.Shape()
	assert.Equal(t, BostonRows, rows)
	assert.Equal(t, 13, cols)
}

func TestLoadBostonMalformedCache(t *testing.T) {
	home := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(home, BostonFile), []byte("1,2\nA,B,Y\n"), 0o644))

	_, err := LoadBoston(WithDataHome(home))
	assert.ErrorIs(t, err, ErrMalformed)
}

func statLibServer(t *testing.T, hits *atomic.Int32) *httptest.Server {
	t.Helper()
	body, err := os.ReadFile(filepath.Join("testdata", "statlib_boston.txt"))
	require.NoError(t, err)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = w.Write(body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestLoadBostonDownloadsOnceAndCaches(t *testing.T) {
	var hits atomic.Int32
	srv := statLibServer(t, &hits)
	home := filepath.Join(t.TempDir(), "nested", "home")

	opts := []Option{WithDataHome(home), WithSourceURL(srv.URL), WithHTTPClient(srv.Client()), noBundle(), withRows(3)}

	first, err := LoadBoston(opts...)
	require.NoError(t, err)
	assert.Len(t, first.Data, 3)
	assert.FileExists(t, filepath.Join(home, BostonFile))

	second, err := LoadBoston(opts...)
	require.NoError(t, err)
	assert.Equal(t, first.Data, second.Data)
	assert.Equal(t, first.Target, second.Target)
	assert.Equal(t, int32(1), hits.Load())
}

func TestDownloadBostonReplacesCache(t *testing.T) {
	var hits atomic.Int32
	srv := statLibServer(t, &hits)
	home := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(home, BostonFile), []byte("stale"), 0o644))

	path, err := DownloadBoston(context.Background(), WithDataHome(home), WithSourceURL(srv.URL), withRows(3))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, BostonFile), path)

	b, err := LoadBoston(WithDataHome(home), WithDownload(false))
	require.NoError(t, err)
	assert.Len(t, b.Data, 3)

	entries, err := os.ReadDir(home)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files must not be left behind")
}

func TestFetchPropagatesHTTPStatus(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	_, err := Fetch(context.Background(), srv.Client(), srv.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")

	_, err = LoadBoston(WithDataHome(t.TempDir()), WithSourceURL(srv.URL), noBundle())
	assert.Error(t, err)
}

func TestDownloadRejectsTruncatedBody(t *testing.T) {
	full, err := os.ReadFile(filepath.Join("testdata", "statlib_boston.txt"))
	require.NoError(t, err)
	lines := strings.SplitAfter(string(full), "\n")
	oneRecord := strings.Join(lines[:statLibPreamble+2], "")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(oneRecord))
	}))
	defer srv.Close()

	home := t.TempDir()
	_, err = LoadBoston(WithDataHome(home), WithSourceURL(srv.URL), noBundle(), withRows(3))
	assert.ErrorIs(t, err, ErrMalformed)
	assert.NoFileExists(t, filepath.Join(home, BostonFile))

	_, err = DownloadBoston(context.Background(), WithDataHome(home), WithSourceURL(srv.URL))
	assert.ErrorIs(t, err, ErrMalformed)
	entries, err := os.ReadDir(home)
	require.NoError(t, err)
	assert.Empty(t, entries)

	_, err = LoadBoston(WithDataHome(home), WithDownload(false), noBundle())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFetchHonoursContext(t *testing.T) {
	var hits atomic.Int32
	srv := statLibServer(t, &hits)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Fetch(ctx, srv.Client(), srv.URL)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestClearDataHome(t *testing.T) {
	home := filepath.Join(t.TempDir(), "cache")
	require.NoError(t, os.MkdirAll(home, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(home, BostonFile), nil, 0o644))

	require.NoError(t, ClearDataHome(home))
	assert.NoDirExists(t, home)
}

func TestLoaderFunc(t *testing.T) {
	var l Loader = LoaderFunc(func() (*Bunch, error) {
		return &Bunch{FeatureNames: []string{"A"}}, nil
	})
	b, err := l.Load()
	require.NoError(t, err)
	rows, cols := b.Shape()
	assert.Equal(t, 0, rows)
	assert.Equal(t, 1, cols)
}
