package disk

import (
	_ "embed"
	"fmt"
	"io"
	"strings"

	"github.com/gocarina/gocsv"
)

// SizePreset names a predefined image size, the way disks.DiskGeometry names
// a predefined floppy geometry.
type SizePreset struct {
	Slug              string `csv:"slug"`
	Name              string `csv:"name"`
	BlockTableEntries uint   `csv:"block_table_entries"`
	Notes             string `csv:"notes"`
}

//go:embed presets.csv
var rawPresetsCSV string

var sizePresets map[string]SizePreset

// GetSizePreset looks up a predefined image size by slug, such as "tiny" or
// "small".
func GetSizePreset(slug string) (SizePreset, error) {
	preset, ok := sizePresets[slug]
	if !ok {
		return SizePreset{}, fmt.Errorf("no predefined image size exists with slug %q", slug)
	}
	return preset, nil
}

// ListSizePresetSlugs returns the slugs of every known preset, for CLI help
// text.
func ListSizePresetSlugs() []string {
	slugs := make([]string, 0, len(sizePresets))
	for slug := range sizePresets {
		slugs = append(slugs, slug)
	}
	return slugs
}

func init() {
	sizePresets = map[string]SizePreset{}
	reader := strings.NewReader(rawPresetsCSV)
	err := gocsv.UnmarshalToCallback(reader, func(row SizePreset) error {
		if _, exists := sizePresets[row.Slug]; exists {
			return fmt.Errorf("duplicate definition for image size preset %q", row.Slug)
		}
		sizePresets[row.Slug] = row
		return nil
	})
	if err != nil && err != io.EOF {
		panic(err)
	}
}
