package main

import (
	"fmt"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/kass/adi-polygon/pkg/models"
	"github.com/kass/adi-polygon/pkg/rtree"
)

// US letter in points
const (
	pageWidth  = 612.0
	pageHeight = 792.0
)

type benchConfig struct {
	regions int
	pages   int
	queries int
	workers int
	seed    int64
}

type benchResult struct {
	indexTime    time.Duration
	queryTime    time.Duration
	queries      int64
	totalResults int64
}

func newBenchCmd(opts *options, defaultWorkers int) *cobra.Command {
	cfg := benchConfig{}

	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Benchmark indexing and box queries on synthetic layouts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfg.workers < 1 || cfg.pages < 1 {
				return fmt.Errorf("workers and pages must be positive")
			}
			if cfg.regions < 0 || cfg.queries < 0 {
				return fmt.Errorf("regions and queries must not be negative")
			}
			res, err := runBench(cfg, opts.log)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Indexed %d regions in %v\n", cfg.regions, res.indexTime)
			fmt.Fprintf(out, "Total queries: %d\n", res.queries)
			fmt.Fprintf(out, "Total time: %v\n", res.queryTime)
			if res.queries > 0 {
				fmt.Fprintf(out, "Queries per second: %.0f\n", float64(res.queries)/res.queryTime.Seconds())
				fmt.Fprintf(out, "Average results per query: %.1f\n", float64(res.totalResults)/float64(res.queries))
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&cfg.regions, "regions", "r", 100000, "Number of regions to generate")
	cmd.Flags().IntVar(&cfg.pages, "pages", 100, "Number of pages to spread regions over")
	cmd.Flags().IntVarP(&cfg.queries, "queries", "q", 1000, "Number of queries to run")
	cmd.Flags().IntVarP(&cfg.workers, "workers", "w", defaultWorkers, "Number of worker goroutines")
	cmd.Flags().Int64Var(&cfg.seed, "seed", time.Now().UnixNano(), "Random seed")
	return cmd
}

// randomRegion returns a slightly skewed text-line shaped region
func randomRegion(r *rand.Rand, id string, page int) *models.Region {
	w := r.Float64()*300 + 20
	h := r.Float64()*30 + 8
	x := r.Float64() * (pageWidth - w)
	y := r.Float64() * (pageHeight - h)
	skew := r.NormFloat64()

	return &models.Region{
		ID:      id,
		Page:    page,
		Polygon: models.NewPolygon(x, y+skew, x+w, y-skew, x+w, y+h-skew, x, y+h+skew),
	}
}

func runBench(cfg benchConfig, log *logrus.Logger) (benchResult, error) {
	var res benchResult
	r := rand.New(rand.NewSource(cfg.seed))

	regions := make([]*models.Region, cfg.regions)
	for i := range regions {
		regions[i] = randomRegion(r, fmt.Sprintf("region_%d", i), i%cfg.pages)
	}

	index := rtree.NewPolygonIndex()
	start := time.Now()
	if err := index.IndexRegions(regions); err != nil {
		return res, fmt.Errorf("failed to index regions: %w", err)
	}
	res.indexTime = time.Since(start)

	type query struct {
		box  models.Box
		page int
	}
	queries := make([]query, cfg.queries)
	for i := range queries {
		size := r.Float64()*100 + 10
		x, y := r.Float64()*(pageWidth-size), r.Float64()*(pageHeight-size)
		queries[i] = query{
			box:  models.Box{MinX: x, MinY: y, MaxX: x + size, MaxY: y + size},
			page: r.Intn(cfg.pages),
		}
	}

	var totalResults atomic.Int64
	var queryCount atomic.Int64
	var wg sync.WaitGroup
	queriesPerWorker := cfg.queries / cfg.workers

	start = time.Now()
	for w := 0; w < cfg.workers; w++ {
		startIdx := w * queriesPerWorker
		endIdx := startIdx + queriesPerWorker
		if w == cfg.workers-1 {
			endIdx = cfg.queries
		}

		wg.Add(1)
		go func(workerID, start, end int) {
			defer wg.Done()

			localResults := 0
			for i := start; i < end; i++ {
				q := queries[i]
				results, err := index.QueryBox(q.box, q.page)
				if err != nil {
					log.Warnf("Worker %d: query error: %v", workerID, err)
					continue
				}
				localResults += len(results)
				queryCount.Add(1)
			}
			totalResults.Add(int64(localResults))
			log.Debugf("Worker %d finished %d queries", workerID, end-start)
		}(w, startIdx, endIdx)
	}
	wg.Wait()

	res.queryTime = time.Since(start)
	res.queries = queryCount.Load()
	res.totalResults = totalResults.Load()
	return res, nil
}
