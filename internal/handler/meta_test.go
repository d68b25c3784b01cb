package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/bizdir/admin-server/internal/errors"
	"github.com/bizdir/admin-server/internal/scraper"
)

type fakeImporter struct {
	got []string
	err error
}

func (f *fakeImporter) ImportMeta(ctx context.Context, urls []string) ([]scraper.Result, error) {
	f.got = urls
	if f.err != nil {
		return nil, f.err
	}
	results := make([]scraper.Result, len(urls))
	for i, u := range urls {
		results[i] = scraper.Result{URL: u}
	}
	results[len(results)-1].Error = "fetch failed"
	return results, nil
}

func TestMetaHandler_ImportMeta(t *testing.T) {
	t.Run("returns one result per url in order", func(t *testing.T) {
		importer := &fakeImporter{}
		h := NewMetaHandler(importer).Routes()

		rec := doRequest(t, h, "POST", "/importMeta", map[string]any{
			"urls": []string{"https://a.example", "https://b.example"},
		})

		require.Equal(t, http.StatusOK, rec.Code)
		results := decodeBody(t, rec)["results"].([]any)
		require.Len(t, results, 2)
		assert.Equal(t, "https://a.example", results[0].(map[string]any)["url"])
		assert.NotContains(t, results[0], "error")
		assert.Equal(t, "fetch failed", results[1].(map[string]any)["error"])
	})

	t.Run("batch validation errors are 400", func(t *testing.T) {
		importer := &fakeImporter{err: apperrors.InvalidInput("urls", "must be a non-empty array")}
		h := NewMetaHandler(importer).Routes()

		rec := doRequest(t, h, "POST", "/importMeta", map[string]any{"urls": []string{}})

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}
