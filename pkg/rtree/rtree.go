// Package rtree implements an R-Tree index over layout regions, partitioned
// by page so queries spanning several pages run in parallel.
package rtree

import (
	"fmt"
	"math"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/dhconnelly/rtreego"
	"github.com/kass/adi-polygon/pkg/models"
)

const (
	tolerance   = 1e-6
	minChildren = 25
	maxChildren = 50
	dimensions  = 2
)

// spatialRegion wraps a region to implement rtreego.Spatial interface
type spatialRegion struct {
	*models.Region
	page     int // tree the region was inserted into
	envelope models.Box
	rect     rtreego.Rect
}

func (sr *spatialRegion) Bounds() rtreego.Rect {
	return sr.rect
}

// PolygonIndex is a thread-safe R-Tree index of layout regions keyed by the
// envelope of their polygons
type PolygonIndex struct {
	// one tree per page
	partitions map[int]*rtreego.Rtree
	byID       map[string]*spatialRegion
	mu         sync.RWMutex
	itemCount  atomic.Int64
}

// NewPolygonIndex creates an empty index
func NewPolygonIndex() *PolygonIndex {
	return &PolygonIndex{
		partitions: make(map[int]*rtreego.Rtree),
		byID:       make(map[string]*spatialRegion),
	}
}

// widen moves lo down and hi up by at least pad and at least one ulp, so the
// interval grows even where pad is lost to rounding. Finite input stays finite.
func widen(lo, hi, pad float64) (float64, float64) {
	wlo, whi := lo-pad, hi+pad
	if wlo >= lo {
		wlo = math.Nextafter(lo, math.Inf(-1))
	}
	if whi <= hi {
		whi = math.Nextafter(hi, math.Inf(1))
	}
	if math.IsInf(wlo, -1) && !math.IsInf(lo, -1) {
		wlo = lo
	}
	if math.IsInf(whi, 1) && !math.IsInf(hi, 1) {
		whi = hi
	}
	return wlo, whi
}

func newSpatialRegion(region *models.Region) (*spatialRegion, error) {
	env := region.Envelope()
	for _, v := range []float64{env.MinX, env.MinY, env.MaxX, env.MaxY} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("region %s has non-finite coordinates", region.ID)
		}
	}

	// rtreego needs positive extent, a polygon collapsed to a line has none
	minPoint := rtreego.Point{env.MinX, env.MinY}
	maxPoint := rtreego.Point{env.MaxX, env.MaxY}
	for i := range minPoint {
		if maxPoint[i]-minPoint[i] < tolerance {
			minPoint[i], maxPoint[i] = widen(minPoint[i], maxPoint[i], tolerance/2)
		}
	}

	rect, err := rtreego.NewRectFromPoints(minPoint, maxPoint)
	if err != nil {
		return nil, fmt.Errorf("invalid envelope for region %s: %w", region.ID, err)
	}
	return &spatialRegion{Region: region, page: region.Page, envelope: env, rect: rect}, nil
}

// IndexRegions adds regions to the index, replacing any indexed region with
// the same ID (the last one wins within a batch). Nil regions are skipped;
// the batch is rejected as a whole if any region has non-finite coordinates.
func (idx *PolygonIndex) IndexRegions(regions []*models.Region) error {
	if len(regions) == 0 {
		return nil
	}

	latest := make(map[string]*spatialRegion, len(regions))
	for _, region := range regions {
		if region == nil {
			continue
		}
		sr, err := newSpatialRegion(region)
		if err != nil {
			return err
		}
		latest[region.ID] = sr
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	// Drop the regions being replaced, and pages left empty by them
	for id := range latest {
		old, ok := idx.byID[id]
		if !ok {
			continue
		}
		tree, ok := idx.partitions[old.page]
		if !ok {
			continue
		}
		tree.Delete(old)
		if tree.Size() == 0 {
			delete(idx.partitions, old.page)
		}
	}

	// Group regions by page
	byPage := make(map[int][]*spatialRegion)
	for id, sr := range latest {
		idx.byID[id] = sr
		byPage[sr.page] = append(byPage[sr.page], sr)
	}
	for page := range byPage {
		if _, ok := idx.partitions[page]; !ok {
			idx.partitions[page] = rtreego.NewTree(dimensions, minChildren, maxChildren)
		}
	}

	// Insert into pages in parallel, each tree is only touched by one goroutine
	var wg sync.WaitGroup
	for page, items := range byPage {
		wg.Add(1)
		go func(tree *rtreego.Rtree, items []*spatialRegion) {
			defer wg.Done()
			for _, item := range items {
				tree.Insert(item)
			}
		}(idx.partitions[page], items)
	}

	wg.Wait()
	idx.itemCount.Store(int64(len(idx.byID)))
	return nil
}

// QueryBox returns the regions whose envelope intersects the box. With no
// pages given every page is searched.
func (idx *PolygonIndex) QueryBox(box models.Box, pages ...int) ([]*models.Region, error) {
	if !box.Valid() {
		return nil, fmt.Errorf("invalid bounding box: %+v", box)
	}
	// rtreego ignores rectangles that only touch, pad so shared edges still match
	minX, maxX := widen(box.MinX, box.MaxX, tolerance)
	minY, maxY := widen(box.MinY, box.MaxY, tolerance)
	bounds, err := rtreego.NewRectFromPoints(rtreego.Point{minX, minY}, rtreego.Point{maxX, maxY})
	if err != nil {
		return nil, fmt.Errorf("invalid bounding box: %w", err)
	}

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	trees := idx.relevantPartitions(pages)
	resultsChan := make(chan []*models.Region, len(trees))

	for _, tree := range trees {
		go func(tree *rtreego.Rtree) {
			results := tree.SearchIntersect(bounds)

			// Drop hits that only matched through the padding
			regions := make([]*models.Region, 0, len(results))
			for _, result := range results {
				item, ok := result.(*spatialRegion)
				if !ok || !item.envelope.Intersects(box) {
					continue
				}
				regions = append(regions, item.Region)
			}
			resultsChan <- regions
		}(tree)
	}

	var allResults []*models.Region
	for i := 0; i < len(trees); i++ {
		allResults = append(allResults, <-resultsChan...)
	}
	sortRegions(allResults)

	return allResults, nil
}

// NearestNeighbors returns up to n regions on the page ordered by the
// distance from the point to their envelope
func (idx *PolygonIndex) NearestNeighbors(page int, p models.Point, n int) []*models.Region {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	tree, ok := idx.partitions[page]
	if !ok || n <= 0 {
		return nil
	}

	results := tree.NearestNeighbors(n, rtreego.Point{p.X(), p.Y()})
	regions := make([]*models.Region, 0, len(results))
	for _, result := range results {
		if item, ok := result.(*spatialRegion); ok {
			regions = append(regions, item.Region)
		}
	}
	return regions
}

// Count returns the number of indexed regions
func (idx *PolygonIndex) Count() int64 {
	return idx.itemCount.Load()
}

// Pages returns the indexed page numbers in ascending order
func (idx *PolygonIndex) Pages() []int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	pages := make([]int, 0, len(idx.partitions))
	for page := range idx.partitions {
		pages = append(pages, page)
	}
	sort.Ints(pages)
	return pages
}

// Clear removes all regions from the index
func (idx *PolygonIndex) Clear() {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	idx.partitions = make(map[int]*rtreego.Rtree)
	idx.byID = make(map[string]*spatialRegion)
	idx.itemCount.Store(0)
}

// relevantPartitions returns the trees for the requested pages, or all of them.
// Caller must hold the lock.
func (idx *PolygonIndex) relevantPartitions(pages []int) []*rtreego.Rtree {
	if len(pages) == 0 {
		trees := make([]*rtreego.Rtree, 0, len(idx.partitions))
		for _, tree := range idx.partitions {
			trees = append(trees, tree)
		}
		return trees
	}

	var trees []*rtreego.Rtree
	seen := make(map[int]bool, len(pages))
	for _, page := range pages {
		if tree, ok := idx.partitions[page]; ok && !seen[page] {
			seen[page] = true
			trees = append(trees, tree)
		}
	}
	return trees
}

// allRegions collects every indexed region. Caller must hold the lock.
func (idx *PolygonIndex) allRegions() []*models.Region {
	regions := make([]*models.Region, 0, len(idx.byID))
	for _, sr := range idx.byID {
		regions = append(regions, sr.Region)
	}
	sortRegions(regions)
	return regions
}

// sortRegions gives query results a stable page, then ID order
func sortRegions(regions []*models.Region) {
	sort.Slice(regions, func(i, j int) bool {
		if regions[i].Page != regions[j].Page {
			return regions[i].Page < regions[j].Page
		}
		return regions[i].ID < regions[j].ID
	})
}
