package source

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"invoscan/internal/domain"
)

func TestFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		_, _ = w.Write([]byte("%PDF-1.7"))
	}))
	defer srv.Close()

	body, contentType, err := NewHTTPFetcher().Fetch(context.Background(), srv.URL+"/inv.pdf")
	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF-1.7"), body)
	assert.Equal(t, "application/pdf", contentType)
}

func TestFetchRejectsNonHTTP(t *testing.T) {
	for _, url := range []string{"", "ftp://x/y", "file:///etc/passwd", "gs://b/o"} {
		_, _, err := NewHTTPFetcher().Fetch(context.Background(), url)
		assert.ErrorIs(t, err, domain.ErrInvalidFileURL, "url %q", url)
	}
}

func TestFetchNon200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, _, err := NewHTTPFetcher().Fetch(context.Background(), srv.URL+"/gone.pdf")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}
