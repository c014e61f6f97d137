package sitemap

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const urlsetXML = `<?xml version="1.0" encoding="UTF-8"?>
<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">
  <url><loc>http://example.com/</loc></url>
  <url><loc>http://example.com/about</loc></url>
  <url><loc> http://example.com/contact </loc></url>
</urlset>`

func TestFetchURLSet(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/xml")
		fmt.Fprint(w, urlsetXML)
	}))
	t.Cleanup(srv.Close)

	f := New(Config{Timeout: 5 * time.Second}, zap.NewNop())
	urls, err := f.Fetch(context.Background(), srv.URL+"/sitemap.xml")

	require.NoError(t, err)
	assert.Equal(t, []string{
		"http://example.com/",
		"http://example.com/about",
		"http://example.com/contact",
	}, urls)
}

func TestFetchSitemapIndex(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	mux.HandleFunc("/sitemap.xml", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/xml")
		fmt.Fprintf(w, `<?xml version="1.0" encoding="UTF-8"?>
<sitemapindex xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">
  <sitemap><loc>%s/pages.xml</loc></sitemap>
  <sitemap><loc>%s/posts.xml</loc></sitemap>
</sitemapindex>`, srv.URL, srv.URL)
	})
	mux.HandleFunc("/pages.xml", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/xml")
		fmt.Fprint(w, `<urlset><url><loc>http://example.com/a</loc></url></urlset>`)
	})
	mux.HandleFunc("/posts.xml", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/xml")
		fmt.Fprint(w, `<urlset><url><loc>http://example.com/b</loc></url></urlset>`)
	})

	f := New(Config{Timeout: 5 * time.Second}, zap.NewNop())
	urls, err := f.Fetch(context.Background(), srv.URL+"/sitemap.xml")

	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"http://example.com/a", "http://example.com/b"}, urls)
}

func TestFetchErrorIsFatal(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	t.Cleanup(srv.Close)

	f := New(Config{Timeout: 5 * time.Second}, zap.NewNop())
	urls, err := f.Fetch(context.Background(), srv.URL+"/missing.xml")

	require.Error(t, err)
	assert.Nil(t, urls)
}

func TestFetchCanceled(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	t.Cleanup(srv.Close)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	f := New(Config{Timeout: 5 * time.Second}, zap.NewNop())
	_, err := f.Fetch(ctx, srv.URL+"/sitemap.xml")

	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
