// Command sfsutil creates and inspects SFS images, mirroring cmd/main.go's
// shape: a single urfave/cli/v2 app with a handful of subcommands, errors
// surfaced with a fatal log line.
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/sfs-go/sfs/attr"
	"github.com/sfs-go/sfs/disk"
	"github.com/sfs-go/sfs/format"
	"github.com/sfs-go/sfs/sfs"
)

func main() {
	app := cli.App{
		Usage: "Create and inspect SFS disk images",
		Commands: []*cli.Command{
			createCommand(),
			statCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatalf("fatal error: %s", err.Error())
	}
}

func createCommand() *cli.Command {
	return &cli.Command{
		Name:      "create",
		Usage:     "Format a fresh image file",
		ArgsUsage: "OUTPUT_FILE",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "preset",
				Usage: fmt.Sprintf("image size preset, one of: %v", disk.ListSizePresetSlugs()),
				Value: "medium",
			},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return cli.Exit("expected exactly one argument: OUTPUT_FILE", 1)
			}

			image, err := format.Format(format.Options{Preset: c.String("preset")})
			if err != nil {
				return err
			}

			return os.WriteFile(c.Args().Get(0), image, 0644)
		},
	}
}

func statCommand() *cli.Command {
	return &cli.Command{
		Name:      "stat",
		Usage:     "Print stats for a path inside an image",
		ArgsUsage: "IMAGE_FILE PATH",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "bitmap",
				Usage: "print the free/used block bitmap instead of a path's attributes",
			},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() != 2 {
				return cli.Exit("expected exactly two arguments: IMAGE_FILE PATH", 1)
			}

			f, err := os.OpenFile(c.Args().Get(0), os.O_RDWR, 0)
			if err != nil {
				return err
			}
			defer f.Close()

			info, err := f.Stat()
			if err != nil {
				return err
			}

			dev := disk.NewFileDevice(f, info.Size())
			fs := sfs.New(dev)

			if c.Bool("bitmap") {
				snap, err := fs.Statfs()
				if err != nil {
					return err
				}
				return printBitmap(snap)
			}

			st, err := fs.Getattr(c.Args().Get(1))
			if err != nil {
				return err
			}
			return printStat(st)
		},
	}
}

func printStat(st attr.Stat) error {
	fmt.Printf("mode=%s nlink=%d uid=%d gid=%d size=%d blocks=%d\n",
		st.ModeFlags, st.Nlink, st.Uid, st.Gid, st.Size, st.NumBlocks)
	return nil
}

func printBitmap(snap attr.Snapshot) error {
	fmt.Printf("total=%d free=%d used=%d\n", snap.Total, snap.Free, snap.Total-snap.Free)
	for i := 0; i < snap.Total; i++ {
		if snap.Bitmap.Get(i) {
			fmt.Print("1")
		} else {
			fmt.Print("0")
		}
	}
	fmt.Println()
	return nil
}
