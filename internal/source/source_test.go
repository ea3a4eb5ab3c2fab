package source_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"

	"github.com/KaramelBytes/candidash/internal/source"
)

const csvBody = "Candidate_ID,City\nC1,Cairo\n"

func fixedNow() time.Time { return time.UnixMilli(1700000000000) }

func fastOpts(proxy string) source.HTTPOptions {
	return source.HTTPOptions{
		RetryMaxAttempts: 3,
		RetryBaseDelay:   time.Millisecond,
		RetryMaxDelay:    5 * time.Millisecond,
		ProxyURL:         proxy,
		Now:              fixedNow,
	}
}

func TestHTTP_DirectWithCacheBuster(t *testing.T) {
	var gotQuery url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		_, _ = w.Write([]byte(csvBody))
	}))
	defer srv.Close()

	src := source.NewHTTP(srv.URL+"/pub?output=csv", fastOpts("-"))
	text, err := src.Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, csvBody, text)
	assert.Equal(t, "csv", gotQuery.Get("output"))
	assert.Equal(t, "1700000000000", gotQuery.Get("t"))
}

func TestHTTP_RetriesServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(csvBody))
	}))
	defer srv.Close()

	text, err := source.NewHTTP(srv.URL, fastOpts("-")).Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, csvBody, text)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestHTTP_HTMLFallsBackToProxy(t *testing.T) {
	var proxied string
	proxy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		proxied = r.URL.Query().Get("url")
		_, _ = w.Write([]byte(csvBody))
	}))
	defer proxy.Close()
	direct := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<!DOCTYPE html><html><body>Sign in</body></html>"))
	}))
	defer direct.Close()

	text, err := source.NewHTTP(direct.URL+"/sheet", fastOpts(proxy.URL+"/raw?url=")).Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, csvBody, text)
	assert.True(t, strings.HasPrefix(proxied, direct.URL+"/sheet?t="), "proxy should receive the cache-busted url, got %q", proxied)
}

func TestHTTP_BothFail(t *testing.T) {
	proxy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("   "))
	}))
	defer proxy.Close()
	direct := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer direct.Close()

	_, err := source.NewHTTP(direct.URL, fastOpts(proxy.URL+"/?url=")).Fetch(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, source.ErrUnavailable))
	assert.True(t, errors.Is(err, source.ErrEmptyProxy))

	var uerr *source.UnavailableError
	require.True(t, errors.As(err, &uerr))
	var serr *source.StatusError
	require.True(t, errors.As(uerr.Direct, &serr))
	assert.Equal(t, http.StatusNotFound, serr.StatusCode)
	assert.Contains(t, uerr.Reason(), "Proxy Reason")
}

func TestHTTP_NotFoundIsNotRetried(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := source.NewHTTP(srv.URL, fastOpts("-")).Fetch(context.Background())
	require.Error(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestSelect(t *testing.T) {
	src, err := source.Select("  A,B\n1,2 ", "https://example.com/x.csv", source.HTTPOptions{})
	require.NoError(t, err)
	assert.Equal(t, "Pasted CSV Data", src.Describe())

	src, err = source.Select("", "https://example.com/x.csv", source.HTTPOptions{})
	require.NoError(t, err)
	assert.IsType(t, &source.HTTP{}, src)

	_, err = source.Select(" ", "", source.HTTPOptions{})
	assert.ErrorIs(t, err, source.ErrNoSource)
}

func TestFile(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "c.csv")
	require.NoError(t, os.WriteFile(p, []byte(csvBody), 0o644))

	text, err := source.File{Path: p}.Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, csvBody, text)

	_, err = source.File{Path: filepath.Join(dir, "missing.csv")}.Fetch(context.Background())
	assert.ErrorIs(t, err, source.ErrUnavailable)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestValuesToCSV(t *testing.T) {
	got := source.ValuesToCSV([][]interface{}{
		{"Candidate ID", "City", "Expected Salary"},
		{"C1", "Cairo, EG", float64(12000)},
		{"C2", nil},
	})
	assert.Equal(t, "Candidate ID,City,Expected Salary\nC1,\"Cairo, EG\",12000\nC2,\n", got)
}

func TestSheets_Fetch(t *testing.T) {
	var path string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"range":"Sheet1!A1:B2","majorDimension":"ROWS","values":[["Candidate_ID","City"],["C1","Cairo"]]}`))
	}))
	defer srv.Close()

	ctx := context.Background()
	src, err := source.NewSheets(ctx, "sheet123", "Sheet1!A1:B2", "",
		option.WithEndpoint(srv.URL+"/"), option.WithHTTPClient(srv.Client()))
	require.NoError(t, err)
	text, err := src.Fetch(ctx)
	require.NoError(t, err)
	assert.Equal(t, csvBody, text)
	assert.Contains(t, path, "/v4/spreadsheets/sheet123/values/")
}

func TestNewSheets_RequiresKey(t *testing.T) {
	_, err := source.NewSheets(context.Background(), "id", "", "")
	assert.Error(t, err)
}
