// Package postgis persists layout regions as PostGIS polygons so page
// regions can be queried from SQL alongside the in-memory index.
package postgis

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/kass/adi-polygon/pkg/models"
)

// Postgres error raised when CREATE EXTENSION cannot find the control file
const undefinedFile = "58P01"

// Config holds the connection settings
type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
}

// DSN renders the settings as a lib/pq connection string
func (c Config) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		c.Host, c.Port, c.User, c.Password, c.DBName)
}

type Store struct {
	db *sql.DB
}

// NewStore opens and verifies a PostGIS connection
func NewStore(cfg Config) (*Store, error) {
	db, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	return &Store{db: db}, nil
}

// InitSchema creates the regions table and its spatial index
func (s *Store) InitSchema() error {
	queries := []string{
		`CREATE EXTENSION IF NOT EXISTS postgis;`,

		`CREATE TABLE IF NOT EXISTS layout_regions (
			id TEXT PRIMARY KEY,
			page INTEGER NOT NULL,
			outline GEOMETRY(POLYGON) NOT NULL
		);`,

		`CREATE INDEX IF NOT EXISTS idx_layout_regions_outline
			ON layout_regions USING GIST(outline);`,
	}

	for _, query := range queries {
		if _, err := s.db.Exec(query); err != nil {
			var pqErr *pq.Error
			if errors.As(err, &pqErr) && pqErr.Code == undefinedFile {
				return fmt.Errorf("postgis extension is not installed on the server: %w", err)
			}
			return fmt.Errorf("failed to execute query '%s': %w", query, err)
		}
	}

	return nil
}

// The ring is closed by repeating the top-left corner ($3, $4).
const insertRegion = `
	INSERT INTO layout_regions (id, page, outline)
	VALUES ($1, $2, ST_MakePolygon(ST_MakeLine(ARRAY[
		ST_MakePoint($3, $4), ST_MakePoint($5, $6),
		ST_MakePoint($7, $8), ST_MakePoint($9, $10),
		ST_MakePoint($3, $4)
	])))
	ON CONFLICT (id) DO UPDATE SET page = EXCLUDED.page, outline = EXCLUDED.outline
`

// insertArgs lays out the statement parameters for one region in API corner order
func insertArgs(region *models.Region) []interface{} {
	args := []interface{}{region.ID, region.Page}
	for _, c := range region.Polygon.Coords() {
		args = append(args, c)
	}
	return args
}

// InsertRegions upserts regions in batches for better performance
func (s *Store) InsertRegions(regions []*models.Region) error {
	const batchSize = 10000

	stmt, err := s.db.Prepare(insertRegion)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	txStmt := tx.Stmt(stmt)

	for i, region := range regions {
		if region == nil {
			continue
		}
		if _, err := txStmt.Exec(insertArgs(region)...); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to insert region %s: %w", region.ID, err)
		}

		if (i+1)%batchSize == 0 {
			if err := tx.Commit(); err != nil {
				return fmt.Errorf("failed to commit batch: %w", err)
			}
			tx, err = s.db.Begin()
			if err != nil {
				return fmt.Errorf("failed to begin new transaction: %w", err)
			}
			txStmt = tx.Stmt(stmt)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit final batch: %w", err)
	}

	return nil
}

// QueryBox returns the regions whose outline envelope overlaps the box
func (s *Store) QueryBox(box models.Box) ([]*models.Region, error) {
	if !box.Valid() {
		return nil, fmt.Errorf("invalid bounding box: %+v", box)
	}

	query := `
		SELECT id, page,
			ST_X(ST_PointN(ring, 1)), ST_Y(ST_PointN(ring, 1)),
			ST_X(ST_PointN(ring, 2)), ST_Y(ST_PointN(ring, 2)),
			ST_X(ST_PointN(ring, 3)), ST_Y(ST_PointN(ring, 3)),
			ST_X(ST_PointN(ring, 4)), ST_Y(ST_PointN(ring, 4))
		FROM (
			SELECT id, page, ST_ExteriorRing(outline) AS ring
			FROM layout_regions
			WHERE outline && ST_MakeEnvelope($1, $2, $3, $4)
		) AS hits
		ORDER BY page, id
	`

	rows, err := s.db.Query(query, box.MinX, box.MinY, box.MaxX, box.MaxY)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	defer rows.Close()

	var results []*models.Region
	for rows.Next() {
		region := &models.Region{}
		coords := make([]float64, 8)
		dest := []interface{}{&region.ID, &region.Page}
		for i := range coords {
			dest = append(dest, &coords[i])
		}

		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		if region.Polygon, err = models.ParsePolygon(coords); err != nil {
			return nil, err
		}
		results = append(results, region)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return results, nil
}

// Count returns the number of stored regions
func (s *Store) Count() (int64, error) {
	var count int64
	err := s.db.QueryRow("SELECT COUNT(*) FROM layout_regions").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count regions: %w", err)
	}
	return count, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}
