package tld

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func newTestManager(warningOnly bool, suffixes ...string) *Manager {
	tlds := make(map[string]struct{}, len(suffixes))
	for _, s := range suffixes {
		tlds[s] = struct{}{}
	}
	return &Manager{
		opts: Options{WarningOnly: warningOnly, CacheDays: DefaultCacheDays},
		tlds: tlds,
	}
}

func suffixListServer(t *testing.T, hits *int32, body string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits != nil {
			atomic.AddInt32(hits, 1)
		}
		w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server
}

const testSuffixList = `// test list
com
co.uk
uk
*.ck
!www.ck
`

func TestValidate(t *testing.T) {
	manager := newTestManager(false, "com", "co.uk", "uk", "*.ck", "!www.ck")

	testCases := []struct {
		name     string
		url      string
		expected string
	}{
		{
			name:     "simple com",
			url:      "https://example.com",
			expected: "example.com",
		},
		{
			name:     "subdomain is trimmed",
			url:      "https://mail.example.com/inbox",
			expected: "example.com",
		},
		{
			// Longer suffixes win over shorter ones: co.uk beats uk.
			name:     "multi-label suffix",
			url:      "https://mail.example.co.uk",
			expected: "example.co.uk",
		},
		{
			name:     "bare host without scheme",
			url:      "mail.example.co.uk",
			expected: "example.co.uk",
		},
		{
			name:     "wildcard rule",
			url:      "http://foo.bar.ck",
			expected: "foo.bar.ck",
		},
		{
			name:     "exception rule",
			url:      "http://www.ck",
			expected: "www.ck",
		},
		{
			name:     "uppercase host",
			url:      "https://Example.COM",
			expected: "example.com",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			suffix, err := manager.Validate(tc.url)
			assert.NoError(t, err)
			assert.Equal(t, tc.expected, suffix)
		})
	}
}

func TestValidateNoMatch(t *testing.T) {
	t.Run("strict mode raises", func(t *testing.T) {
		manager := newTestManager(false, "com")
		_, err := manager.Validate("https://example.invalid")
		var invalidErr *InvalidTLDError
		assert.ErrorAs(t, err, &invalidErr)
	})

	t.Run("warning-only returns empty match", func(t *testing.T) {
		manager := newTestManager(true, "com")
		suffix, err := manager.Validate("https://example.invalid")
		assert.NoError(t, err)
		assert.Empty(t, suffix)
	})

	t.Run("empty set errors regardless of warning-only", func(t *testing.T) {
		manager := newTestManager(true)
		_, err := manager.Validate("https://example.com")
		assert.ErrorIs(t, err, ErrEmptyTLDSet)
	})
}

func TestNewSharedInstance(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	server := suffixListServer(t, nil, testSuffixList)

	first, err := New(Options{CacheDir: t.TempDir(), SourceURL: server.URL})
	assert.NoError(t, err)
	assert.Equal(t, 5, first.Len())

	// Later constructions return the shared instance and ignore their
	// options.
	second, err := New(Options{CacheDir: t.TempDir(), ForceUpdate: true})
	assert.NoError(t, err)
	assert.Same(t, first, second)
}

func TestWarmCacheSkipsNetwork(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	var hits int32
	server := suffixListServer(t, &hits, testSuffixList)
	cacheDir := t.TempDir()

	first, err := New(Options{CacheDir: cacheDir, SourceURL: server.URL})
	assert.NoError(t, err)
	assert.EqualValues(t, 1, atomic.LoadInt32(&hits))

	firstSuffix, err := first.Validate("https://mail.example.co.uk")
	assert.NoError(t, err)

	Reset()
	second, err := New(Options{CacheDir: cacheDir, SourceURL: server.URL})
	assert.NoError(t, err)

	// The warm cache satisfies the second load without refetching, and
	// validation results are identical.
	assert.EqualValues(t, 1, atomic.LoadInt32(&hits))
	secondSuffix, err := second.Validate("https://mail.example.co.uk")
	assert.NoError(t, err)
	assert.Equal(t, firstSuffix, secondSuffix)
}

func TestStaleCacheIsRefreshed(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	var hits int32
	server := suffixListServer(t, &hits, testSuffixList)
	cacheDir := t.TempDir()
	cacheFile := filepath.Join(cacheDir, cacheFileName)

	data, err := json.Marshal(cacheData{TLDs: []string{"stale"}, UpdateTime: time.Now()})
	assert.NoError(t, err)
	assert.NoError(t, os.WriteFile(cacheFile, data, 0644))
	old := time.Now().Add(-40 * 24 * time.Hour)
	assert.NoError(t, os.Chtimes(cacheFile, old, old))

	manager, err := New(Options{CacheDir: cacheDir, SourceURL: server.URL})
	assert.NoError(t, err)
	assert.EqualValues(t, 1, atomic.LoadInt32(&hits))
	assert.Equal(t, 5, manager.Len())
}

func TestForceUpdateBypassesCache(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	var hits int32
	server := suffixListServer(t, &hits, testSuffixList)
	cacheDir := t.TempDir()

	data, _ := json.Marshal(cacheData{TLDs: []string{"cached"}, UpdateTime: time.Now()})
	assert.NoError(t, os.WriteFile(filepath.Join(cacheDir, cacheFileName), data, 0644))

	manager, err := New(Options{CacheDir: cacheDir, SourceURL: server.URL, ForceUpdate: true})
	assert.NoError(t, err)
	assert.EqualValues(t, 1, atomic.LoadInt32(&hits))
	_, err = manager.Validate("https://example.com")
	assert.NoError(t, err)
}

func TestMalformedCacheFallsThrough(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	var hits int32
	server := suffixListServer(t, &hits, testSuffixList)
	cacheDir := t.TempDir()
	assert.NoError(t, os.WriteFile(filepath.Join(cacheDir, cacheFileName), []byte("{not json"), 0644))

	manager, err := New(Options{CacheDir: cacheDir, SourceURL: server.URL})
	assert.NoError(t, err)
	assert.EqualValues(t, 1, atomic.LoadInt32(&hits))
	assert.Equal(t, 5, manager.Len())
}

func TestFallbackWhenSourceUnavailable(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(server.Close)

	manager, err := New(Options{CacheDir: t.TempDir(), SourceURL: server.URL})
	assert.NoError(t, err)

	// The bundled list steps in when cache and network both fail.
	assert.Greater(t, manager.Len(), 0)
	suffix, err := manager.Validate("https://mail.example.co.uk")
	assert.NoError(t, err)
	assert.Equal(t, "example.co.uk", suffix)
}

func TestCachePersistsAfterUpdate(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	server := suffixListServer(t, nil, testSuffixList)
	cacheDir := t.TempDir()

	_, err := New(Options{CacheDir: cacheDir, SourceURL: server.URL})
	assert.NoError(t, err)

	raw, err := os.ReadFile(filepath.Join(cacheDir, cacheFileName))
	assert.NoError(t, err)

	var data cacheData
	assert.NoError(t, json.Unmarshal(raw, &data))
	assert.Len(t, data.TLDs, 5)
	assert.False(t, data.UpdateTime.IsZero())
}
