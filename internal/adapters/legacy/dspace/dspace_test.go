package dspace_test

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pulibrary/pdc-describe-sub000/internal/adapters/legacy/dspace"
	"github.com/pulibrary/pdc-describe-sub000/internal/config"
	"github.com/pulibrary/pdc-describe-sub000/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func verifyNoLeaks(t *testing.T) {
	goleak.VerifyNone(t,
		goleak.IgnoreTopFunction("net/http.(*persistConn).readLoop"),
		goleak.IgnoreTopFunction("net/http.(*persistConn).writeLoop"),
		goleak.IgnoreTopFunction("internal/poll.runtime_pollWait"),
	)
}

func md5Hex(content string) string {
	sum := md5.Sum([]byte(content))
	return hex.EncodeToString(sum[:])
}

func newClient(t *testing.T, baseURL string) *dspace.Client {
	t.Helper()
	cfg := config.LegacyConfig{
		BaseURL:             baseURL + "/rest",
		RequestTimeout:      2 * time.Second,
		DownloadTimeout:     300 * time.Millisecond,
		DownloadConcurrency: 2,
		RetryMax:            0,
		StagingDir:          t.TempDir(),
		HandleCacheSize:     16,
	}
	discardLogger := slog.New(slog.NewTextHandler(io.Discard, nil))
	client, err := dspace.NewClient(cfg, discardLogger)
	require.NoError(t, err)
	return client
}

func TestClient_ListBitstreams(t *testing.T) {
	defer verifyNoLeaks(t)

	t.Run("Success and cached handle", func(t *testing.T) {
		// Arrange
		var handleCalls atomic.Int32
		mux := http.NewServeMux()
		mux.HandleFunc("/rest/handle/88435/dsp01abc", func(w http.ResponseWriter, r *http.Request) {
			handleCalls.Add(1)
			fmt.Fprint(w, `{"id": 42, "name": "item"}`)
		})
		mux.HandleFunc("/rest/items/42/bitstreams", func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `[
				{"name": "data.csv", "retrieveLink": "/rest/bitstreams/1/retrieve", "checkSum": {"checkSumAlgorithm": "MD5", "value": "abc"}},
				{"name": "notes.txt", "retrieveLink": "/rest/bitstreams/2/retrieve", "checkSum": {"checkSumAlgorithm": "SHA-1", "value": "def"}}
			]`)
		})
		server := httptest.NewServer(mux)
		defer server.Close()
		client := newClient(t, server.URL)

		// Act
		first, err := client.ListBitstreams(context.Background(), "ark:/88435/dsp01abc")
		require.NoError(t, err)
		second, err := client.ListBitstreams(context.Background(), "ark:/88435/dsp01abc")
		require.NoError(t, err)

		// Assert
		require.Len(t, first, 2)
		assert.Equal(t, first, second)
		assert.Equal(t, int32(1), handleCalls.Load())
		assert.Equal(t, int64(42), first[0].ItemID)
		assert.Equal(t, "data.csv", first[0].Name)
		assert.Equal(t, "abc", first[0].Checksum())
		assert.Equal(t, domain.UnverifiableChecksum, first[1].Checksum())
	})

	t.Run("Unmapped handle is empty", func(t *testing.T) {
		// Arrange
		server := httptest.NewServer(http.NotFoundHandler())
		defer server.Close()
		client := newClient(t, server.URL)

		// Act
		bitstreams, err := client.ListBitstreams(context.Background(), "ark:/88435/dsp01none")

		// Assert
		require.NoError(t, err)
		assert.Empty(t, bitstreams)
	})

	t.Run("Null handle body is empty", func(t *testing.T) {
		// Arrange
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `null`)
		}))
		defer server.Close()
		client := newClient(t, server.URL)

		// Act
		bitstreams, err := client.ListBitstreams(context.Background(), "ark:/88435/dsp01null")

		// Assert
		require.NoError(t, err)
		assert.Empty(t, bitstreams)
	})

	t.Run("Server error is source unavailable", func(t *testing.T) {
		// Arrange
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer server.Close()
		client := newClient(t, server.URL)

		// Act
		_, err := client.ListBitstreams(context.Background(), "ark:/88435/dsp01err")

		// Assert
		require.ErrorIs(t, err, domain.ErrSourceUnavailable)
	})
}

func TestClient_DownloadBitstreams(t *testing.T) {
	defer verifyNoLeaks(t)

	// Arrange
	var hungCalls, unverifiableCalls atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/rest/bitstreams/1/retrieve", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "good content")
	})
	mux.HandleFunc("/rest/bitstreams/2/retrieve", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "tampered content")
	})
	mux.HandleFunc("/rest/bitstreams/3/retrieve", func(w http.ResponseWriter, r *http.Request) {
		unverifiableCalls.Add(1)
		fmt.Fprint(w, "never fetched")
	})
	mux.HandleFunc("/rest/bitstreams/4/retrieve", func(w http.ResponseWriter, r *http.Request) {
		hungCalls.Add(1)
		<-r.Context().Done()
	})
	server := httptest.NewServer(mux)
	defer server.Close()
	client := newClient(t, server.URL)

	bitstreams := []domain.Bitstream{
		{ItemID: 7, Name: "good.txt", RetrieveLink: "/rest/bitstreams/1/retrieve", ChecksumAlgorithm: "MD5", ChecksumValue: md5Hex("good content")},
		{ItemID: 7, Name: "bad.txt", RetrieveLink: "/rest/bitstreams/2/retrieve", ChecksumAlgorithm: "MD5", ChecksumValue: md5Hex("original content")},
		{ItemID: 7, Name: "sha.txt", RetrieveLink: "/rest/bitstreams/3/retrieve", ChecksumAlgorithm: "SHA-1", ChecksumValue: "whatever"},
		{ItemID: 7, Name: "hung.txt", RetrieveLink: "/rest/bitstreams/4/retrieve", ChecksumAlgorithm: "MD5", ChecksumValue: md5Hex("x")},
	}

	// Act
	results := client.DownloadBitstreams(context.Background(), bitstreams)

	// Assert
	require.Len(t, results, 4)
	for i, result := range results {
		assert.Equal(t, i, result.Index)
	}

	require.True(t, results[0].OK())
	assert.Equal(t, md5Hex("good content"), results[0].Checksum)
	assert.Equal(t, int64(len("good content")), results[0].Size)
	assert.Equal(t, client.StagingPath(0, bitstreams[0]), results[0].Path)
	assert.Equal(t, "7", filepath.Base(filepath.Dir(filepath.Dir(results[0].Path))))
	content, err := os.ReadFile(results[0].Path)
	require.NoError(t, err)
	assert.Equal(t, "good content", string(content))

	assert.ErrorIs(t, results[1].Err, domain.ErrChecksumMismatch)
	assert.Empty(t, results[1].Path)
	_, err = os.Stat(client.StagingPath(1, bitstreams[1]))
	assert.True(t, os.IsNotExist(err))

	assert.ErrorIs(t, results[2].Err, domain.ErrUnverifiableDigest)
	assert.Equal(t, int32(0), unverifiableCalls.Load())

	assert.ErrorIs(t, results[3].Err, domain.ErrSourceUnavailable)
	assert.Equal(t, int32(1), hungCalls.Load())
}

func TestClient_DownloadBitstreams_SameBaseName(t *testing.T) {
	defer verifyNoLeaks(t)

	// Arrange
	original := strings.Repeat("A", 40)
	text := strings.Repeat("B", 64)
	slowWrite := func(body string) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			for i := 0; i < len(body); i += 8 {
				fmt.Fprint(w, body[i:i+8])
				w.(http.Flusher).Flush()
				time.Sleep(5 * time.Millisecond)
			}
		}
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/rest/bitstreams/11/retrieve", slowWrite(original))
	mux.HandleFunc("/rest/bitstreams/12/retrieve", slowWrite(text))
	server := httptest.NewServer(mux)
	defer server.Close()
	client := newClient(t, server.URL)

	bitstreams := []domain.Bitstream{
		{ItemID: 7, Name: "ORIGINAL/data.csv", RetrieveLink: "/rest/bitstreams/11/retrieve", ChecksumAlgorithm: "MD5", ChecksumValue: md5Hex(original)},
		{ItemID: 7, Name: "TEXT/data.csv", RetrieveLink: "/rest/bitstreams/12/retrieve", ChecksumAlgorithm: "MD5", ChecksumValue: md5Hex(text)},
	}

	// Act
	results := client.DownloadBitstreams(context.Background(), bitstreams)

	// Assert
	require.Len(t, results, 2)
	require.True(t, results[0].OK(), "first bitstream: %v", results[0].Err)
	require.True(t, results[1].OK(), "second bitstream: %v", results[1].Err)
	assert.NotEqual(t, results[0].Path, results[1].Path)
	assert.Equal(t, "data.csv", filepath.Base(results[0].Path))
	assert.Equal(t, "data.csv", filepath.Base(results[1].Path))

	for i, result := range results {
		content, err := os.ReadFile(result.Path)
		require.NoError(t, err)
		assert.Equal(t, bitstreams[i].ChecksumValue, md5Hex(string(content)))
		assert.Equal(t, int64(len(content)), result.Size)
	}
}

func TestClient_DownloadBitstreams_Overwrites(t *testing.T) {
	defer verifyNoLeaks(t)

	// Arrange
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "v2")
	}))
	defer server.Close()
	client := newClient(t, server.URL)
	bitstream := domain.Bitstream{ItemID: 1, Name: "dir/file.txt", RetrieveLink: "/rest/bitstreams/9/retrieve", ChecksumAlgorithm: "MD5", ChecksumValue: md5Hex("v2")}
	path := client.StagingPath(0, bitstream)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("stale and much longer"), 0o600))

	// Act
	results := client.DownloadBitstreams(context.Background(), []domain.Bitstream{bitstream})

	// Assert
	require.True(t, results[0].OK())
	assert.Equal(t, "file.txt", filepath.Base(results[0].Path))
	content, err := os.ReadFile(results[0].Path)
	require.NoError(t, err)
	assert.Equal(t, "v2", string(content))
}
