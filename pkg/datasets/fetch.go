package datasets

import (
	"context"
	"fmt"
	"net/http"

	"github.com/rs/zerolog/log"
	"golang.org/x/net/context/ctxhttp"
)

// DefaultSourceURL is the StatLib copy of the Boston housing data.
const DefaultSourceURL = "http://lib.stat.cmu.edu/datasets/boston"

// Fetch downloads and parses the StatLib Boston file at url. A nil client
// uses http.DefaultClient.
func Fetch(ctx context.Context, client *http.Client, url string) (*Bunch, error) {
	log.Debug().Str("url", url).Msg("downloading dataset")

	resp, err := ctxhttp.Get(ctx, client, url)
	if err != nil {
		return nil, fmt.Errorf("datasets: fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("datasets: fetch %s: unexpected status %s", url, resp.Status)
	}

	b, err := ParseStatLib(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("datasets: fetch %s: %w", url, err)
	}
	log.Debug().Str("url", url).Int("rows", len(b.Data)).Msg("dataset downloaded")
	return b, nil
}
