package rtree

import (
	"encoding/gob"
	"fmt"
	"os"

	"github.com/kass/adi-polygon/pkg/models"
)

// IndexData represents the serializable form of the polygon index
type IndexData struct {
	Regions []*models.Region `json:"regions"`
	Count   int64            `json:"count"`
}

// SaveToFile saves the index to a binary file
func (idx *PolygonIndex) SaveToFile(filename string) error {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	data := IndexData{
		Regions: idx.allRegions(),
		Count:   idx.itemCount.Load(),
	}

	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	encoder := gob.NewEncoder(file)
	if err := encoder.Encode(data); err != nil {
		return fmt.Errorf("failed to encode data: %w", err)
	}

	return nil
}

// LoadFromFile replaces the index contents with the regions stored in a binary file
func (idx *PolygonIndex) LoadFromFile(filename string) error {
	file, err := os.Open(filename)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	var data IndexData
	decoder := gob.NewDecoder(file)
	if err := decoder.Decode(&data); err != nil {
		return fmt.Errorf("failed to decode data: %w", err)
	}
	if int64(len(data.Regions)) != data.Count {
		return fmt.Errorf("corrupt index: header says %d regions, found %d", data.Count, len(data.Regions))
	}

	idx.Clear()
	if err := idx.IndexRegions(data.Regions); err != nil {
		return fmt.Errorf("failed to index regions: %w", err)
	}

	return nil
}
