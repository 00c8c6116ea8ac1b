package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"recap/internal/config"
)

func newConfigCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or create the user configuration file",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration (file, defaults and environment merged)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if path, err := config.ConfigPath(); err == nil {
				fmt.Fprintf(cmd.OutOrStdout(), "# %s\n", path)
			}
			var doc yaml.Node
			if err := doc.Encode(e.cfg); err != nil {
				return err
			}
			markEnvOverrides(&doc)
			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			defer enc.Close()
			return enc.Encode(&doc)
		},
	})

	var force bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write the default configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.ConfigPath()
			if err != nil {
				return err
			}
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			} else if err != nil && !errors.Is(err, os.ErrNotExist) {
				return err
			}
			if err := config.Save(config.Defaults()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
			return nil
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing file")
	cmd.AddCommand(initCmd)
	return cmd
}

// markEnvOverrides adds a line comment to every "section.key" whose value
// comes from an environment variable.
func markEnvOverrides(doc *yaml.Node) {
	if doc.Kind != yaml.MappingNode {
		return
	}
	for i := 0; i+1 < len(doc.Content); i += 2 {
		section, fields := doc.Content[i].Value, doc.Content[i+1]
		if fields.Kind != yaml.MappingNode {
			continue
		}
		for j := 0; j+1 < len(fields.Content); j += 2 {
			if env, ok := config.EnvOverrideFor(section + "." + fields.Content[j].Value); ok {
				fields.Content[j+1].LineComment = "# overridden by " + env
			}
		}
	}
}
