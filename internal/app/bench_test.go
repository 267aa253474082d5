package app

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poyrazK/zonectl/internal/adapters/api"
	"github.com/poyrazK/zonectl/internal/adapters/registry"
	"github.com/poyrazK/zonectl/internal/adapters/reload"
	"github.com/poyrazK/zonectl/internal/adapters/repository"
	"github.com/poyrazK/zonectl/internal/adapters/zonefile"
	"github.com/poyrazK/zonectl/internal/config"
	"github.com/poyrazK/zonectl/internal/core/services"
	"github.com/poyrazK/zonectl/internal/testutil"
)

func TestRunBench_AgainstRealStore(t *testing.T) {
	dir := t.TempDir()
	svc := services.NewZoneService(
		zonefile.NewStore(config.Zone{
			Dir: dir, DeleteMatch: config.MatchSubstring, TTL: 86400, Hostmaster: "admin",
			Refresh: 3600, Retry: 1800, Expire: 604800, Minimum: 86400,
			Nameservers: []string{"192.168.1.10", "192.168.1.11"},
		}),
		registry.NewNamedConf(filepath.Join(dir, "named.conf")),
		reload.Nop{},
		&testutil.MockLookup{},
		repository.NopJournal{},
		nil,
	)
	srv := httptest.NewServer(api.NewAPIHandler(svc, []string{"bench-token-0123456789"}, nil).Handler())
	defer srv.Close()

	opts := benchOptions{target: srv.URL, token: "bench-token-0123456789", count: 60, concurrency: 6, zones: 4, zipfS: 1.5, zipfV: 1}
	stats, err := runBench(context.Background(), srv.Client(), opts)
	require.NoError(t, err)
	assert.Equal(t, uint64(60), stats.Total)
	assert.Equal(t, uint64(60), stats.Success)
	assert.Len(t, stats.Latencies, 60)

	lines := 0
	for i := 0; i < opts.zones; i++ {
		data, err := os.ReadFile(filepath.Join(dir, fmt.Sprintf("db.bench-%d.test", i)))
		if os.IsNotExist(err) {
			continue
		}
		require.NoError(t, err)
		lines += strings.Count(string(data), " IN A 10.")
	}
	assert.Equal(t, 60, lines, "every acknowledged request left exactly one line")

	var out bytes.Buffer
	printBenchReport(&out, stats, opts.concurrency)
	assert.Contains(t, out.String(), "Successful:       60")
	assert.Contains(t, out.String(), "P99:")
}

func TestRunBench_CountsFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	stats, err := runBench(context.Background(), &http.Client{Timeout: time.Second},
		benchOptions{target: srv.URL, count: 10, concurrency: 3, zones: 2, zipfS: 1.1, zipfV: 1})
	require.NoError(t, err)
	assert.Equal(t, uint64(10), stats.Errors)
	assert.Zero(t, stats.Percentile(0.5))
}

func TestRunBench_InvalidOptions(t *testing.T) {
	_, err := runBench(context.Background(), http.DefaultClient, benchOptions{count: 1, concurrency: 0, zones: 1, zipfS: 1.1, zipfV: 1})
	assert.Error(t, err)
	_, err = runBench(context.Background(), http.DefaultClient, benchOptions{count: 1, concurrency: 1, zones: 1, zipfS: 1, zipfV: 1})
	assert.Error(t, err)
}
