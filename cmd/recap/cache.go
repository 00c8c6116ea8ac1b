package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"recap/internal/storage"
)

func newCacheCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect or clear the gallery thumbnail cache",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "info",
		Short: "Show where the cache lives and how large it is",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := e.openCache(cmd.Context())
			if err != nil {
				return err
			}
			defer c.Close()
			n, err := c.Count(cmd.Context())
			if err != nil {
				return err
			}
			total, err := c.TotalBytes(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "path: %s\n", storage.CachePath(c.Dir()))
			fmt.Fprintf(out, "thumbnails: %d\n", n)
			fmt.Fprintf(out, "bytes: %d / %d\n", total, e.cfg.Cache.MaxBytes)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Delete the thumbnail cache",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := e.cfg.Cache.CacheDir()
			if err != nil {
				return err
			}
			if err := storage.RemoveCache(dir); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed %s\n", storage.CachePath(dir))
			return nil
		},
	})
	return cmd
}
