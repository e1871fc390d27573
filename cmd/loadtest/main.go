// Command loadtest drives a running search service with two-keyword OR
// queries and reports throughput, latency percentiles and the share of
// queries that matched at least one document.
//
// Usage:
//
//	go run ./cmd/loadtest -url http://localhost:8080 -keywords apple,banana,cherry
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"os"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
)

type runConfig struct {
	baseURL     string
	concurrency int
	duration    time.Duration
	queries     []string
}

type stats struct {
	requests atomic.Int64
	failures atomic.Int64
	found    atomic.Int64

	mu        sync.Mutex
	latencies []time.Duration
	statuses  map[int]int64
}

func newStats() *stats {
	return &stats{
		latencies: make([]time.Duration, 0, 100000),
		statuses:  make(map[int]int64),
	}
}

func (s *stats) record(latency time.Duration, status int, found bool, err error) {
	s.requests.Add(1)
	if err != nil || status/100 != 2 {
		s.failures.Add(1)
	}
	if found {
		s.found.Add(1)
	}
	if err != nil {
		return
	}
	s.mu.Lock()
	s.latencies = append(s.latencies, latency)
	s.statuses[status]++
	s.mu.Unlock()
}

func main() {
	baseURL := flag.String("url", "http://localhost:8080", "base URL of the search service")
	concurrency := flag.Int("concurrency", 10, "number of concurrent workers")
	duration := flag.Duration("duration", 30*time.Second, "test duration")
	keywords := flag.String("keywords", "apple,banana,cherry,pie,red,search,index,keyword", "comma-separated keywords to pair into queries")
	flag.Parse()

	cfg := runConfig{
		baseURL:     strings.TrimRight(*baseURL, "/"),
		concurrency: *concurrency,
		duration:    *duration,
		queries:     pairQueries(strings.Split(*keywords, ",")),
	}
	if len(cfg.queries) == 0 {
		fmt.Fprintln(os.Stderr, "at least one keyword is required")
		os.Exit(2)
	}

	fmt.Println("=== Search Load Test ===")
	fmt.Printf("Target:      %s\n", cfg.baseURL)
	fmt.Printf("Concurrency: %d\n", cfg.concurrency)
	fmt.Printf("Duration:    %s\n", cfg.duration)
	fmt.Printf("Queries:     %d unique\n", len(cfg.queries))
	fmt.Println()

	s, err := run(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load test failed: %v\n", err)
		os.Exit(1)
	}
	report(s, cfg.duration)
}

// pairQueries builds "a or b" for every ordered pair of distinct keywords
// plus each keyword on its own.
func pairQueries(keywords []string) []string {
	var kws []string
	for _, k := range keywords {
		if k = strings.TrimSpace(k); k != "" {
			kws = append(kws, k)
		}
	}
	queries := make([]string, 0, len(kws)*len(kws))
	for i, a := range kws {
		queries = append(queries, a)
		for j, b := range kws {
			if i != j {
				queries = append(queries, a+" or "+b)
			}
		}
	}
	return queries
}

func run(cfg runConfig) (*stats, error) {
	s := newStats()
	client := &http.Client{
		Timeout: 10 * time.Second,
		Transport: &http.Transport{
			MaxIdleConns:        cfg.concurrency * 2,
			MaxIdleConnsPerHost: cfg.concurrency * 2,
			IdleConnTimeout:     90 * time.Second,
		},
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.duration)
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)
	for w := range cfg.concurrency {
		g.Go(func() error {
			for i := w; ctx.Err() == nil; i++ {
				query := cfg.queries[i%len(cfg.queries)]
				target := fmt.Sprintf("%s/api/v1/search?q=%s", cfg.baseURL, url.QueryEscape(query))
				req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
				if err != nil {
					return fmt.Errorf("creating request: %w", err)
				}
				start := time.Now()
				status, found, err := do(client, req)
				if ctx.Err() != nil {
					return nil
				}
				s.record(time.Since(start), status, found, err)
			}
			return nil
		})
	}
	return s, g.Wait()
}

func do(client *http.Client, req *http.Request) (int, bool, error) {
	resp, err := client.Do(req)
	if err != nil {
		return 0, false, err
	}
	defer resp.Body.Close()
	var body struct {
		Found bool `json:"found"`
	}
	if resp.StatusCode == http.StatusOK {
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			return resp.StatusCode, false, fmt.Errorf("decoding response: %w", err)
		}
	}
	return resp.StatusCode, body.Found, nil
}

func report(s *stats, duration time.Duration) {
	total := s.requests.Load()
	failures := s.failures.Load()

	fmt.Println("=== Results ===")
	fmt.Printf("Total Requests:  %d\n", total)
	fmt.Printf("Failures:        %d\n", failures)
	if total == 0 {
		fmt.Println()
		fmt.Println("WARNING: No requests completed. Is the service running?")
		os.Exit(1)
	}
	fmt.Printf("Failure Rate:    %.2f%%\n", float64(failures)/float64(total)*100)
	fmt.Printf("Matched:         %.2f%%\n", float64(s.found.Load())/float64(total)*100)
	fmt.Printf("Requests/sec:    %.2f\n", float64(total)/duration.Seconds())

	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.latencies) > 0 {
		slices.Sort(s.latencies)
		fmt.Println()
		fmt.Println("=== Latency ===")
		fmt.Printf("Min:    %s\n", s.latencies[0])
		fmt.Printf("P50:    %s\n", percentile(s.latencies, 50))
		fmt.Printf("P90:    %s\n", percentile(s.latencies, 90))
		fmt.Printf("P99:    %s\n", percentile(s.latencies, 99))
		fmt.Printf("Max:    %s\n", s.latencies[len(s.latencies)-1])
	}

	fmt.Println()
	fmt.Println("=== Status Codes ===")
	codes := make([]int, 0, len(s.statuses))
	for code := range s.statuses {
		codes = append(codes, code)
	}
	slices.Sort(codes)
	for _, code := range codes {
		fmt.Printf("  %d: %d\n", code, s.statuses[code])
	}
}

func percentile(sorted []time.Duration, p float64) time.Duration {
	idx := int(math.Ceil(p/100*float64(len(sorted)))) - 1
	return sorted[max(0, min(idx, len(sorted)-1))]
}
