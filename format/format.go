// Package format builds fresh, empty SFS images. It is explicitly outside
// the core (spec.md lists image creation as a Non-goal of the core itself),
// but the teacher ships an analogous formatting package alongside every
// driver (file_systems/unixv1/format.go, drivers/fat8/formattingdriver.go),
// so a sibling package exists here too. Nothing in blocktable, directory, or
// fileio imports this package.
package format

import (
	"fmt"

	"github.com/hashicorp/go-multierror"
	"github.com/noxer/bytewriter"

	"github.com/sfs-go/sfs/disk"
	"github.com/sfs-go/sfs/layout"
)

// Options configures a freshly formatted image. The on-disk layout itself
// (region offsets, block size, entry counts) is a compile-time constant of
// the format, per spec.md's data model, so Preset does not change the bytes
// produced; it only selects among the named size classes this module
// publishes, and Validate rejects any preset whose documented block count
// does not match the format's fixed BlockTableEntries.
type Options struct {
	// Preset is a slug into disk's size preset table, e.g. "medium".
	Preset string
}

// Validate reports every problem with opts at once, the way
// file_systems/unixv1/format.go's Format rejects an invalid stat.Files
// before touching the image, generalized here to aggregate multiple
// independent problems instead of stopping at the first.
func (o Options) Validate() error {
	var result *multierror.Error

	preset, err := disk.GetSizePreset(o.Preset)
	if err != nil {
		result = multierror.Append(result, err)
		return result.ErrorOrNil()
	}

	if preset.BlockTableEntries != layout.BlockTableEntries {
		result = multierror.Append(result, fmt.Errorf(
			"preset %q documents %d blocks but this build's fixed format has %d; "+
				"only a preset matching the compiled-in block count can be formatted",
			o.Preset, preset.BlockTableEntries, layout.BlockTableEntries,
		))
	}

	return result.ErrorOrNil()
}

// Format builds a complete, freshly formatted image: a root directory region
// with every slot free (empty name, first block BlockEmpty), a block table
// with every slot
// BlockEmpty, and a zeroed data region. It returns the full image as a byte
// slice; the caller is responsible for writing it to a disk.Device.
func Format(opts Options) ([]byte, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	image := make([]byte, layout.ImageSize)
	writer := bytewriter.New(image)

	// Root directory region: every slot free.
	freeEntry := layout.FreeEntry.Encode()
	for i := 0; i < layout.RootDirEntries; i++ {
		if _, err := writer.Write(freeEntry); err != nil {
			return nil, err
		}
	}

	// Block table region: every slot BlockEmpty.
	emptySlot := layout.EncodeBlockID(layout.BlockEmpty)
	for i := 0; i < layout.BlockTableEntries; i++ {
		if _, err := writer.Write(emptySlot); err != nil {
			return nil, err
		}
	}

	// Data region: left untouched. make() already zero-initializes image,
	// and the data region holds no format metadata, so there is nothing
	// for the writer to produce here.

	return image, nil
}
