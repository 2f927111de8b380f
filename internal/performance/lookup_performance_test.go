package performance

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aeturrell/deploy-api/internal/config"
	"github.com/aeturrell/deploy-api/internal/dataprocessing"
	apierrors "github.com/aeturrell/deploy-api/internal/errors"
	"github.com/aeturrell/deploy-api/internal/services"
	handlers "github.com/aeturrell/deploy-api/internal/transport/http"
	"github.com/aeturrell/deploy-api/pkg/contracts/domain"
)

// Performance test configuration
const (
	Geographies = 400
	FirstYear   = 2010
	LastYear    = 2020
	MaxLatency  = 50 * time.Millisecond
)

var ConcurrencyLevels = []int{1, 10, 50, 100}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func geoCode(i int) string {
	return fmt.Sprintf("E%08d", i)
}

// syntheticDataset builds a full table: every geography, every month, every year
func syntheticDataset() *domain.TidyDataset {
	var obs []domain.Observation
	for year := FirstYear; year <= LastYear; year++ {
		for m := time.January; m <= time.December; m++ {
			for g := 0; g < Geographies; g++ {
				v := float32(g + int(m))
				obs = append(obs, domain.Observation{
					GeoCode:   geoCode(g),
					PlaceName: fmt.Sprintf("area %d", g),
					Month:     domain.MonthName(m),
					Year:      year,
					Deaths:    &v,
					Datetime:  dataprocessing.BusinessMonthEnd(year, m),
				})
			}
		}
	}
	return &domain.TidyDataset{Observations: obs}
}

func loadedService(tb testing.TB) *services.DeathsService {
	tb.Helper()
	svc := services.NewDeathsService(nil, nil, discardLogger())
	svc.Replace(syntheticDataset())
	return svc
}

func BenchmarkDeathsService_Lookup(b *testing.B) {
	svc := loadedService(b)
	ctx := context.Background()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		if _, err := svc.Lookup(ctx, FirstYear+i%11, geoCode(i%Geographies)); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkDeathsService_LookupParallel(b *testing.B) {
	svc := loadedService(b)
	ctx := context.Background()
	b.ResetTimer()

	b.RunParallel(func(pb *testing.PB) {
		i := 0
		for pb.Next() {
			if _, err := svc.Lookup(ctx, FirstYear+i%11, geoCode(i%Geographies)); err != nil {
				b.Fatal(err)
			}
			i++
		}
	})
}

func BenchmarkDeathsService_Replace(b *testing.B) {
	svc := services.NewDeathsService(nil, nil, discardLogger())
	dataset := syntheticDataset()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		svc.Replace(dataset)
	}
}

func BenchmarkDeathsService_Summary(b *testing.B) {
	svc := loadedService(b)
	ctx := context.Background()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		if _, err := svc.Summary(ctx, LastYear); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkNormalizer_Normalize(b *testing.B) {
	normalizer := dataprocessing.NewNormalizer(config.Default().Transform)

	raw := [][]string{
		{"Monthly deaths by area of usual residence"},
		{"Area code", "Area name", "Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"},
	}
	for g := 0; g < Geographies; g++ {
		row := []string{geoCode(g), fmt.Sprintf("Area %d", g)}
		for m := 0; m < 12; m++ {
			row = append(row, fmt.Sprintf("%d", g+m))
		}
		raw = append(raw, row)
	}
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		if _, err := normalizer.Normalize(raw, 2020); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkDeathsHandler_GetDeaths(b *testing.B) {
	logger := discardLogger()
	handler := handlers.NewDeathsHandler(loadedService(b), logger, apierrors.NewErrorHandler(logger, false))
	router := handler.Routes()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/year/2020/geo_code/"+geoCode(i%Geographies), nil))
		if w.Code != http.StatusOK {
			b.Fatalf("status %d", w.Code)
		}
	}
}

// TestConcurrentLookupLatency serves lookups while the table is swapped
// underneath and checks both correctness and tail latency
func TestConcurrentLookupLatency(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping load test in short mode")
	}

	logger := discardLogger()
	svc := loadedService(t)
	handler := handlers.NewDeathsHandler(svc, logger, apierrors.NewErrorHandler(logger, false))
	server := httptest.NewServer(handler.Routes())
	defer server.Close()

	dataset := syntheticDataset()

	for _, concurrency := range ConcurrencyLevels {
		t.Run(fmt.Sprintf("concurrency_%d", concurrency), func(t *testing.T) {
			const perWorker = 20

			var (
				wg        sync.WaitGroup
				mu        sync.Mutex
				latencies []time.Duration
				failures  atomic.Int64
			)

			stop := make(chan struct{})
			go func() {
				for {
					select {
					case <-stop:
						return
					default:
						svc.Replace(dataset)
						time.Sleep(time.Millisecond)
					}
				}
			}()

			for w := 0; w < concurrency; w++ {
				wg.Add(1)
				go func(w int) {
					defer wg.Done()
					for i := 0; i < perWorker; i++ {
						url := fmt.Sprintf("%s/year/%d/geo_code/%s", server.URL, FirstYear+i%11, geoCode((w+i)%Geographies))
						start := time.Now()
						resp, err := http.Get(url)
						elapsed := time.Since(start)
						if err != nil {
							failures.Add(1)
							continue
						}
						io.Copy(io.Discard, resp.Body)
						resp.Body.Close()
						if resp.StatusCode != http.StatusOK {
							failures.Add(1)
						}
						mu.Lock()
						latencies = append(latencies, elapsed)
						mu.Unlock()
					}
				}(w)
			}
			wg.Wait()
			close(stop)

			require.Zero(t, failures.Load())
			require.NotEmpty(t, latencies)

			sort.Slice(latencies, func(i, j int) bool { return latencies[i] < latencies[j] })
			p50 := latencies[len(latencies)/2]
			p99 := latencies[len(latencies)*99/100]
			t.Logf("requests=%d p50=%v p99=%v", len(latencies), p50, p99)
			assert.Less(t, p50, MaxLatency)
		})
	}
}
