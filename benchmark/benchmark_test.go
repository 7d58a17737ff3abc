package benchmark

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"runtime"
	"testing"
	"time"

	"github.com/docdyhr/httpcheck/internal/checker"
	"github.com/docdyhr/httpcheck/internal/runner"
)

// memStats holds memory statistics
type memStats struct {
	HeapAlloc    uint64
	TotalAlloc   uint64
	Mallocs      uint64
	NumGC        uint32
	PauseTotalNs uint64
}

// getMemStats returns current memory statistics
func getMemStats() memStats {
	var stats runtime.MemStats
	runtime.ReadMemStats(&stats)
	return memStats{
		HeapAlloc:    stats.HeapAlloc,
		TotalAlloc:   stats.TotalAlloc,
		Mallocs:      stats.Mallocs,
		NumGC:        stats.NumGC,
		PauseTotalNs: stats.PauseTotalNs,
	}
}

// printMemStats prints memory usage statistics
func printMemStats(b *testing.B, before, after memStats) {
	b.Logf("  Heap Alloc: %v -> %v", byteSize(before.HeapAlloc), byteSize(after.HeapAlloc))
	b.Logf("  Total Alloc: %v -> %v", byteSize(before.TotalAlloc), byteSize(after.TotalAlloc))
	b.Logf("  Mallocs: %v -> %v (%+d)", before.Mallocs, after.Mallocs, after.Mallocs-before.Mallocs)
	b.Logf("  GC Runs: %v -> %v", before.NumGC, after.NumGC)
	b.Logf("  GC Pause Total: %v -> %v",
		time.Duration(before.PauseTotalNs), time.Duration(after.PauseTotalNs))
}

// byteSize formats byte size to human-readable format
func byteSize(b uint64) string {
	const unit = 1024
	if b < unit {
		return fmt.Sprintf("%d B", b)
	}
	div, exp := uint64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.2f %cB", float64(b)/float64(div), "KMGTPE"[exp])
}

// createTestServer creates a test HTTP server that responds with the given
// status code after a delay
func createTestServer(statusCode int, responseDelay time.Duration) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(responseDelay)
		w.WriteHeader(statusCode)
		w.Write([]byte("OK"))
	}))
}

func createTestURLs(count int, server *httptest.Server) []string {
	urls := make([]string, count)
	for i := 0; i < count; i++ {
		urls[i] = server.URL
	}
	return urls
}

func benchmarkPolicy() checker.CheckPolicy {
	policy := checker.DefaultPolicy()
	policy.Timeout = 500 * time.Millisecond
	policy.Retries = 0
	return policy
}

// benchmarkRun measures a batch run over the given number of sites
func benchmarkRun(b *testing.B, siteCount int, mode runner.Mode) {
	server := createTestServer(200, 20*time.Millisecond)
	defer server.Close()

	urls := createTestURLs(siteCount, server)
	run := &runner.Runner{Policy: benchmarkPolicy(), Workers: runner.DefaultWorkers}

	beforeStats := getMemStats()
	startTime := time.Now()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		summary := run.Run(urls, mode)
		if summary.Successful != siteCount {
			b.Fatalf("expected %d successful checks, got %d", siteCount, summary.Successful)
		}
	}
	b.StopTimer()

	afterStats := getMemStats()
	elapsedTime := time.Since(startTime)

	b.Logf("Benchmark for %d sites in %s mode:", siteCount, mode)
	b.Logf("Total elapsed time: %v", elapsedTime)
	b.Logf("Memory usage:")
	printMemStats(b, beforeStats, afterStats)
}

// BenchmarkSerial10Sites benchmarks checking 10 sites one at a time
func BenchmarkSerial10Sites(b *testing.B) {
	benchmarkRun(b, 10, runner.Serial)
}

// BenchmarkParallel10Sites benchmarks checking 10 sites with the worker pool
func BenchmarkParallel10Sites(b *testing.B) {
	benchmarkRun(b, 10, runner.Parallel)
}

// BenchmarkParallel50Sites benchmarks checking 50 sites with the worker pool
func BenchmarkParallel50Sites(b *testing.B) {
	benchmarkRun(b, 50, runner.Parallel)
}

// BenchmarkParallel100Sites benchmarks checking 100 sites with the worker pool
func BenchmarkParallel100Sites(b *testing.B) {
	benchmarkRun(b, 100, runner.Parallel)
}
