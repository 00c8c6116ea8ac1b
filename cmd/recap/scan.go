package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"recap/internal/caption"
	"recap/internal/dataset"
	applog "recap/internal/log"
)

func newScanCmd(e *env) *cobra.Command {
	var missingOnly bool

	cmd := &cobra.Command{
		Use:   "scan <dataset-dir>",
		Short: "List the images of a dataset in navigation order",
		Long: `Scan walks the dataset folder the same way the editor does and prints every
image in the order Next/Previous visit them. Images that already have a
caption file are marked with "*".`,
		Example: `  recap scan ./photos
  recap scan --missing ./photos`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ds, err := dataset.Scan(args[0], e.scanOptions())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for i := range ds.Images {
				has := caption.Exists(ds.Images[i])
				if missingOnly && has {
					continue
				}
				mark := " "
				if has {
					mark = "*"
				}
				fmt.Fprintf(out, "%s %s\n", mark, ds.Rel(i))
			}
			captioned := ds.Count(caption.Exists)
			fmt.Fprintf(out, "%d images, %d captioned\n", ds.Len(), captioned)
			applog.WithDataset(applog.WithComponent("cli"), ds.Root).Debug("scan listed",
				slog.Int("images", ds.Len()), slog.Int("captioned", captioned))
			return nil
		},
	}

	cmd.Flags().BoolVar(&missingOnly, "missing", false, "Only list images without a caption")
	return cmd
}
