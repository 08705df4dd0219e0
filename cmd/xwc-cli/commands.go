package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/vrsandeep/xwc-settings/internal/codec"
	"github.com/vrsandeep/xwc-settings/internal/settings"
	"github.com/vrsandeep/xwc-settings/internal/store"
	"gitlab.com/tozd/go/errors"
	"gopkg.in/yaml.v3"
)

var (
	keyColor   = color.New(color.FgCyan)
	okColor    = color.New(color.FgGreen)
	missColor  = color.New(color.FgYellow)
	valueColor = color.New(color.Faint)
)

func newDumpCmd() *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "dump",
		Short: "Print the whole settings tree",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer app.Close()
			return writeTree(cmd.OutOrStdout(), app.Settings().All(), format)
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "yaml", "output format: yaml or json")
	return cmd
}

// writeTree prints tree as YAML or indented JSON.
func writeTree(w io.Writer, tree settings.Branch, format string) error {
	switch format {
	case "yaml", "yml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(tree.Export()); err != nil {
			return errors.Errorf("encoding yaml: %w", err)
		}
		return enc.Close()
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(tree)
	}
	return errors.Errorf("unknown output format %q", format)
}

func newGetCmd() *cobra.Command {
	var def string
	cmd := &cobra.Command{
		Use:   "get <path>",
		Short: "Print the value stored at a dot path",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer app.Close()

			node, found := app.Settings().Lookup(args[0])
			if !found {
				if cmd.Flags().Changed("default") {
					fmt.Fprintln(cmd.OutOrStdout(), def)
					return nil
				}
				return errors.Errorf("%q is not set", args[0])
			}
			return writeNode(cmd.OutOrStdout(), node)
		},
	}
	cmd.Flags().StringVar(&def, "default", "", "value to print when the path is not set")
	return cmd
}

// writeNode prints a leaf on one line and a group as YAML.
func writeNode(w io.Writer, node settings.Node) error {
	switch n := node.(type) {
	case settings.Branch:
		return writeTree(w, n, "yaml")
	case settings.Leaf:
		if s, ok := n.Value.(string); ok {
			_, err := fmt.Fprintln(w, s)
			return err
		}
		out, err := json.Marshal(n.Value)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(out))
		return err
	}
	return nil
}

func newHasCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "has <path>",
		Short: "Report whether anything is stored at a dot path",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer app.Close()

			if app.Settings().Has(args[0]) {
				okColor.Fprintln(cmd.OutOrStdout(), "true")
				return nil
			}
			missColor.Fprintln(cmd.OutOrStdout(), "false")
			return nil
		},
	}
}

func newOptionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "options [pattern]",
		Short: "List raw options whose name matches a glob pattern",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer app.Close()

			pattern := ""
			if len(args) == 1 {
				pattern = args[0]
			}
			options, err := app.Options().ListOptions(cmd.Context(), pattern)
			if err != nil {
				return err
			}
			for _, o := range options {
				keyColor.Fprint(cmd.OutOrStdout(), o.Name)
				fmt.Fprint(cmd.OutOrStdout(), " ")
				valueColor.Fprintln(cmd.OutOrStdout(), o.Value)
			}
			return nil
		},
	}
}

func newImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file.yml>",
		Short: "Write options from a YAML file of option names and values",
		Long: `Import reads a YAML mapping of option names to values. Strings are
stored as they are; lists and mappings are encoded in the configured value
format. The settings tree is reloaded afterwards.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return errors.Errorf("reading %s: %w", args[0], err)
			}

			app, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer app.Close()

			names, err := importOptions(cmd.Context(), app.Options(), app.Format(), data)
			if err != nil {
				return err
			}
			if err := app.Settings().Reload(cmd.Context()); err != nil {
				return errors.Errorf("reloading settings: %w", err)
			}
			okColor.Fprintf(cmd.OutOrStdout(), "imported %d options\n", len(names))
			return nil
		},
	}
}

// importOptions encodes every entry of a YAML mapping and writes it to
// options in name order. It returns the names written.
func importOptions(ctx context.Context, options store.Options, format codec.Format, data []byte) ([]string, error) {
	var entries map[string]any
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, errors.Errorf("parsing yaml: %w", err)
	}

	names := make([]string, 0, len(entries))
	for name := range entries {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		value := entries[name]
		if value == nil {
			value = ""
		}
		encoded, err := format.Encode(value)
		if err != nil {
			return nil, errors.Errorf("encoding %q: %w", name, err)
		}
		if err := options.UpdateOption(ctx, name, encoded); err != nil {
			return nil, err
		}
	}
	return names, nil
}

func newDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <option>...",
		Short: "Delete raw options by name",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer app.Close()

			for _, name := range args {
				if err := app.Options().DeleteOption(cmd.Context(), name); err != nil {
					return err
				}
				missColor.Fprintf(cmd.OutOrStdout(), "deleted %s\n", name)
			}
			return nil
		},
	}
}
