package app

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/poyrazK/zonectl/internal/core/domain"
)

type benchOptions struct {
	target      string
	token       string
	count       int
	concurrency int
	zones       int
	zipfS       float64
	zipfV       float64
	timeout     time.Duration
}

type benchStats struct {
	Total     uint64
	Success   uint64
	Errors    uint64
	Latencies []time.Duration
	Duration  time.Duration
}

// Percentile returns the latency at p (0..1) of the successful requests.
func (s *benchStats) Percentile(p float64) time.Duration {
	if len(s.Latencies) == 0 {
		return 0
	}
	idx := int(float64(len(s.Latencies)) * p)
	if idx >= len(s.Latencies) {
		idx = len(s.Latencies) - 1
	}
	return s.Latencies[idx]
}

func newBenchCmd() *cobra.Command {
	opts := benchOptions{}
	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Load test a running zonectl API with concurrent add_record requests",
		Long: `bench spreads add_record requests over a set of zones picked with a Zipf
distribution, so a few hot zones see most of the traffic and contend for
their zone lock.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			stats, err := runBench(cmd.Context(), &http.Client{Timeout: opts.timeout}, opts)
			if err != nil {
				return err
			}
			printBenchReport(cmd.OutOrStdout(), stats, opts.concurrency)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.target, "target", "http://127.0.0.1:5000", "zonectl API base URL")
	f.StringVar(&opts.token, "token", "", "bearer token for the API")
	f.IntVarP(&opts.count, "count", "n", 1000, "total number of requests")
	f.IntVarP(&opts.concurrency, "concurrency", "c", 10, "number of concurrent workers")
	f.IntVar(&opts.zones, "zones", 20, "number of distinct zones")
	f.Float64Var(&opts.zipfS, "zipf-s", 1.1, "Zipf distribution constant (s > 1); higher means hotter zones")
	f.Float64Var(&opts.zipfV, "zipf-v", 1, "Zipf distribution constant (v >= 1)")
	f.DurationVar(&opts.timeout, "timeout", 10*time.Second, "per-request timeout")
	return cmd
}

func runBench(ctx context.Context, client *http.Client, opts benchOptions) (*benchStats, error) {
	if opts.concurrency <= 0 || opts.count <= 0 || opts.zones <= 0 {
		return nil, errors.New("count, concurrency and zones must be positive")
	}
	if opts.zipfS <= 1 || opts.zipfV < 1 {
		return nil, errors.New("zipf-s must be > 1 and zipf-v >= 1")
	}

	var (
		stats     benchStats
		latencies = make(chan time.Duration, opts.count)
		wg        sync.WaitGroup
		endpoint  = strings.TrimSuffix(opts.target, "/") + "/add_record"
	)

	start := time.Now()
	perWorker := opts.count / opts.concurrency
	for i := 0; i < opts.concurrency; i++ {
		n := perWorker
		if i < opts.count%opts.concurrency {
			n++
		}
		wg.Add(1)
		go func(workerID, n int) {
			defer wg.Done()
			r := rand.New(rand.NewSource(time.Now().UnixNano() + int64(workerID)))
			zipf := rand.NewZipf(r, opts.zipfS, opts.zipfV, uint64(opts.zones-1))

			for j := 0; j < n; j++ {
				if ctx.Err() != nil {
					return
				}
				req := domain.AddRecordRequest{
					Domain: fmt.Sprintf("bench-%d.test", zipf.Uint64()),
					Type:   domain.TypeA,
					Name:   fmt.Sprintf("w%d-%d", workerID, j),
					Value:  fmt.Sprintf("10.%d.%d.%d", workerID%256, (j/256)%256, j%256),
				}

				reqStart := time.Now()
				err := postJSON(ctx, client, endpoint, opts.token, req)
				atomic.AddUint64(&stats.Total, 1)
				if err != nil {
					atomic.AddUint64(&stats.Errors, 1)
					continue
				}
				atomic.AddUint64(&stats.Success, 1)
				latencies <- time.Since(reqStart)
			}
		}(i, n)
	}

	wg.Wait()
	stats.Duration = time.Since(start)
	close(latencies)

	for l := range latencies {
		stats.Latencies = append(stats.Latencies, l)
	}
	sort.Slice(stats.Latencies, func(i, j int) bool { return stats.Latencies[i] < stats.Latencies[j] })
	return &stats, nil
}

func postJSON(ctx context.Context, client *http.Client, url, token string, body interface{}) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return errors.Errorf("unexpected status %d", resp.StatusCode)
	}
	return nil
}

func printBenchReport(w io.Writer, stats *benchStats, concurrency int) {
	fmt.Fprintln(w, "============================================")
	fmt.Fprintln(w, "        ZONE MUTATION PERFORMANCE REPORT     ")
	fmt.Fprintln(w, "============================================")
	fmt.Fprintf(w, "Test Duration:    %v\n", stats.Duration)
	fmt.Fprintf(w, "Concurrency:      %d workers\n", concurrency)
	if stats.Duration > 0 {
		fmt.Fprintf(w, "Throughput:       %.2f mutations/sec\n", float64(stats.Success)/stats.Duration.Seconds())
	}

	fmt.Fprintln(w, "\n--- Request Statistics ---")
	fmt.Fprintf(w, "Total Attempted:  %d\n", stats.Total)
	fmt.Fprintf(w, "Successful:       %d\n", stats.Success)
	fmt.Fprintf(w, "Failed:           %d\n", stats.Errors)
	if stats.Total > 0 {
		fmt.Fprintf(w, "Reliability:      %.2f%%\n", float64(stats.Success)/float64(stats.Total)*100)
	}

	if len(stats.Latencies) > 0 {
		fmt.Fprintln(w, "\n--- Latency Percentiles ---")
		fmt.Fprintf(w, "P50 (Median):     %v\n", stats.Percentile(0.50))
		fmt.Fprintf(w, "P90:              %v\n", stats.Percentile(0.90))
		fmt.Fprintf(w, "P99:              %v\n", stats.Percentile(0.99))
		fmt.Fprintf(w, "Min:              %v\n", stats.Latencies[0])
		fmt.Fprintf(w, "Max:              %v\n", stats.Latencies[len(stats.Latencies)-1])
	}
	fmt.Fprintln(w, "============================================")
}
