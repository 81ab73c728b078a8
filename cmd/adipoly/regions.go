package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/cobra"

	"github.com/kass/adi-polygon/pkg/models"
	"github.com/kass/adi-polygon/pkg/postgis"
	"github.com/kass/adi-polygon/pkg/rtree"
)

// regionLine is one input record; pointers let the validator tell a missing
// polygon apart from one at the origin
type regionLine struct {
	ID      string          `json:"id" validate:"required"`
	Page    int             `json:"page" validate:"gte=0"`
	Polygon *models.Polygon `json:"polygon" validate:"required"`
}

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

var validate = newValidator()

func validationError(line int, err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return fmt.Errorf("line %d: field %s failed on %s", line, fe.Field(), fe.Tag())
	}
	return fmt.Errorf("line %d: %w", line, err)
}

// readRegions decodes one region per line, skipping blank lines
func readRegions(r io.Reader) ([]*models.Region, error) {
	var regions []*models.Region
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		var rec regionLine
		if err := json.Unmarshal([]byte(text), &rec); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if err := validate.Struct(rec); err != nil {
			return nil, validationError(line, err)
		}
		regions = append(regions, &models.Region{ID: rec.ID, Page: rec.Page, Polygon: *rec.Polygon})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read regions: %w", err)
	}
	return regions, nil
}

func readRegionsFile(cmd *cobra.Command, path string) ([]*models.Region, error) {
	if path == "-" {
		return readRegions(cmd.InOrStdin())
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open regions file: %w", err)
	}
	defer file.Close()
	return readRegions(file)
}

func newIndexCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "index <regions.jsonl>",
		Short: "Build a region index from JSON lines",
		Long: `Read one region per line, {"id": "...", "page": 1, "polygon": [x1,y1,...,x4,y4]},
and save an R-Tree index to the --file path. Use "-" to read stdin.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			regions, err := readRegionsFile(cmd, args[0])
			if err != nil {
				return err
			}

			start := time.Now()
			index := rtree.NewPolygonIndex()
			if err := index.IndexRegions(regions); err != nil {
				return fmt.Errorf("failed to index regions: %w", err)
			}
			opts.log.Infof("Indexed %d regions on %d pages in %v", index.Count(), len(index.Pages()), time.Since(start))

			if err := index.SaveToFile(opts.indexFile); err != nil {
				return fmt.Errorf("failed to save index: %w", err)
			}
			opts.log.Infof("Index saved to %s", opts.indexFile)
			return nil
		},
	}
}

func newQueryCmd(opts *options) *cobra.Command {
	var (
		box   models.Box
		pages []int
		limit int
	)

	cmd := &cobra.Command{
		Use:   "query",
		Short: "Find indexed regions overlapping a box",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			index := rtree.NewPolygonIndex()
			opts.log.Debugf("Loading index from %s", opts.indexFile)
			if err := index.LoadFromFile(opts.indexFile); err != nil {
				return fmt.Errorf("failed to load index: %w", err)
			}
			opts.log.Debugf("Index loaded with %d regions", index.Count())

			results, err := index.QueryBox(box, pages...)
			if err != nil {
				return fmt.Errorf("box query failed: %w", err)
			}
			opts.log.Infof("Box query found %d regions", len(results))

			if limit > 0 && len(results) > limit {
				opts.log.Infof("Showing first %d results (use --limit to see more)", limit)
				results = results[:limit]
			}
			if results == nil {
				results = []*models.Region{}
			}
			return writeJSON(cmd, results)
		},
	}

	cmd.Flags().Float64Var(&box.MinX, "min-x", 0, "Minimum x of the query box")
	cmd.Flags().Float64Var(&box.MinY, "min-y", 0, "Minimum y of the query box")
	cmd.Flags().Float64Var(&box.MaxX, "max-x", 0, "Maximum x of the query box")
	cmd.Flags().Float64Var(&box.MaxY, "max-y", 0, "Maximum y of the query box")
	cmd.Flags().IntSliceVarP(&pages, "page", "p", nil, "Restrict the search to these pages")
	cmd.Flags().IntVar(&limit, "limit", 100, "Maximum number of results to print, 0 for all")
	return cmd
}

func newStoreCmd(opts *options) *cobra.Command {
	var cfg postgis.Config

	cmd := &cobra.Command{
		Use:   "store <regions.jsonl>",
		Short: "Upsert regions into a PostGIS table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			regions, err := readRegionsFile(cmd, args[0])
			if err != nil {
				return err
			}

			store, err := postgis.NewStore(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			if err := store.InitSchema(); err != nil {
				return err
			}

			start := time.Now()
			if err := store.InsertRegions(regions); err != nil {
				return err
			}
			count, err := store.Count()
			if err != nil {
				return err
			}
			opts.log.Infof("Stored %d regions in %v, table now holds %d", len(regions), time.Since(start), count)
			return nil
		},
	}

	cmd.Flags().StringVar(&cfg.Host, "host", "localhost", "PostGIS host")
	cmd.Flags().IntVar(&cfg.Port, "port", 5432, "PostGIS port")
	cmd.Flags().StringVar(&cfg.User, "user", "postgres", "Database user")
	cmd.Flags().StringVar(&cfg.Password, "password", "postgres", "Database password")
	cmd.Flags().StringVar(&cfg.DBName, "dbname", "layout", "Database name")
	return cmd
}
