package datasets

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"path"
	"path/filepath"
	"slices"
	"time"

	"github.com/rs/zerolog/log"
)

// BostonFile is the name of the cached Boston CSV inside the data home.
const BostonFile = "boston_house_prices.csv"

// BostonRows is the number of census tracts in the published dataset.
const BostonRows = 506

// The bundled copy is written by `bostonhousing fetch` into data/ and
// compiled in. Until it exists, loads fall through to the download.
//
//go:generate go run bostonhousing/cmd/examples/BostonHousing --data-home data fetch
//go:embed data
var bundledData embed.FS

const bostonTargetName = "MEDV"

const bostonDescr = `Boston house prices dataset (Harrison & Rubinfeld, 1978).

506 census tracts of the Boston area, 13 numeric attributes and the median
value of owner-occupied homes (MEDV) in $1000s.

CRIM     per capita crime rate by town
ZN       proportion of residential land zoned for lots over 25,000 sq.ft.
INDUS    proportion of non-retail business acres per town
CHAS     Charles River dummy variable (1 if tract bounds river; 0 otherwise)
NOX      nitric oxides concentration (parts per 10 million)
RM       average number of rooms per dwelling
AGE      proportion of owner-occupied units built prior to 1940
DIS      weighted distances to five Boston employment centres
RAD      index of accessibility to radial highways
TAX      full-value property-tax rate per $10,000
PTRATIO  pupil-teacher ratio by town
B        1000(Bk - 0.63)^2 where Bk is the proportion of black residents by town
LSTAT    % lower status of the population
`

var bostonFeatureNames = [...]string{
	"CRIM", "ZN", "INDUS", "CHAS", "NOX", "RM", "AGE",
	"DIS", "RAD", "TAX", "PTRATIO", "B", "LSTAT",
}

// BostonFeatureNames returns the Boston column labels in dataset order.
func BostonFeatureNames() []string {
	return append([]string(nil), bostonFeatureNames[:]...)
}

type options struct {
	dataHome  string
	download  bool
	sourceURL string
	client    *http.Client
	timeout   time.Duration
	rows      int
	bundle    fs.FS
}

// Option configures the Boston loader.
type Option func(*options)

// WithDataHome sets the cache directory; empty means DataHome("").
func WithDataHome(path string) Option { return func(o *options) { o.dataHome = path } }

// WithDownload enables or disables fetching the dataset when no copy is found.
func WithDownload(enabled bool) Option { return func(o *options) { o.download = enabled } }

// WithSourceURL sets the StatLib address to download from.
func WithSourceURL(url string) Option { return func(o *options) { o.sourceURL = url } }

// WithHTTPClient sets the client used for downloads.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) { o.client = c }
}

// WithTimeout bounds a download started by Load.
func WithTimeout(d time.Duration) Option { return func(o *options) { o.timeout = d } }

func newOptions(opts []Option) options {
	o := options{
		download:  true,
		sourceURL: DefaultSourceURL,
		timeout:   30 * time.Second,
		rows:      BostonRows,
		bundle:    bundledData,
	}
	for _, fn := range opts {
		fn(&o)
	}
	return o
}

type bostonLoader struct {
	opts options
}

// Boston returns a Loader for the Boston housing dataset. Each Load reads
// the cached CSV from the data home. Without a cached copy it uses the copy
// compiled into the binary, and failing that downloads the dataset when
// downloading is enabled.
func Boston(opts ...Option) Loader {
	return bostonLoader{opts: newOptions(opts)}
}

// LoadBoston loads the Boston housing dataset.
func LoadBoston(opts ...Option) (*Bunch, error) {
	return Boston(opts...).Load()
}

// HasBundledBoston reports whether the binary carries its own copy of the
// dataset.
func HasBundledBoston() bool {
	_, err := fs.Stat(bundledData, path.Join("data", BostonFile))
	return err == nil
}

func (l bostonLoader) Load() (*Bunch, error) {
	home, err := DataHome(l.opts.dataHome)
	if err != nil {
		return nil, err
	}
	file := filepath.Join(home, BostonFile)

	b, err := readCSVFile(file)
	if err == nil {
		log.Debug().Str("path", file).Int("rows", len(b.Data)).Msg("dataset cache hit")
		b.Descr = bostonDescr
		return b, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	b, err = readBundled(l.opts)
	if err == nil {
		log.Debug().Int("rows", len(b.Data)).Msg("dataset loaded from bundled copy")
		return b, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	if !l.opts.download {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, file)
	}

	ctx, cancel := context.WithTimeout(context.Background(), l.opts.timeout)
	defer cancel()
	if _, err := download(ctx, l.opts, file); err != nil {
		return nil, err
	}
	if b, err = readCSVFile(file); err != nil {
		return nil, err
	}
	b.Descr = bostonDescr
	return b, nil
}

// readBundled returns fs.ErrNotExist when no copy is compiled in.
func readBundled(o options) (*Bunch, error) {
	if o.bundle == nil {
		return nil, fs.ErrNotExist
	}
	name := path.Join("data", BostonFile)
	raw, err := fs.ReadFile(o.bundle, name)
	if err != nil {
		return nil, err
	}
	b, err := ReadCSV(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("bundled %s: %w", name, err)
	}
	if err := checkBoston(b, o.rows); err != nil {
		return nil, fmt.Errorf("bundled %s: %w", name, err)
	}
	b.Filename = "embedded:" + name
	b.Descr = bostonDescr
	return b, nil
}

// checkBoston rejects anything that is not the full published table.
func checkBoston(b *Bunch, rows int) error {
	n, cols := b.Shape()
	switch {
	case n != rows:
		return fmt.Errorf("%w: got %d rows, want %d", ErrMalformed, n, rows)
	case cols != len(bostonFeatureNames):
		return fmt.Errorf("%w: got %d features, want %d", ErrMalformed, cols, len(bostonFeatureNames))
	case !slices.Equal(b.FeatureNames, bostonFeatureNames[:]):
		return fmt.Errorf("%w: unexpected feature names %v", ErrMalformed, b.FeatureNames)
	}
	return nil
}

// DownloadBoston fetches the dataset from its source and replaces the cached
// copy in the data home. It returns the path of the cached file.
func DownloadBoston(ctx context.Context, opts ...Option) (string, error) {
	o := newOptions(opts)
	home, err := DataHome(o.dataHome)
	if err != nil {
		return "", err
	}
	file := filepath.Join(home, BostonFile)
	if _, err := download(ctx, o, file); err != nil {
		return "", err
	}
	return file, nil
}

// download writes nothing unless the body parses into the full table.
func download(ctx context.Context, o options, file string) (*Bunch, error) {
	b, err := Fetch(ctx, o.client, o.sourceURL)
	if err != nil {
		return nil, err
	}
	if err := checkBoston(b, o.rows); err != nil {
		return nil, fmt.Errorf("download %s: %w", o.sourceURL, err)
	}
	if err := writeCSVFile(file, b); err != nil {
		return nil, err
	}
	log.Info().Str("path", file).Int("rows", len(b.Data)).Msg("dataset cached")
	b.Filename = file
	return b, nil
}
