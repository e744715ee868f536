package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/pcikit/pcikit/capture"
)

func init() {
	rootCmd.AddCommand(newLscapsCmd())
}

func newLscapsCmd() *cobra.Command {
	var conventionalOnly bool
	cmd := &cobra.Command{
		Use:   "lscaps <config>",
		Short: "List the capabilities of a configuration space dump",
		Long: `The lscaps command walks the conventional and extended capability
lists of a configuration space dump and prints one line per node.

Example:
  pcictl lscaps /sys/bus/pci/devices/0000:00:1f.2/config
  pcictl lscaps saved.config --conventional-only --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLscaps(args, conventionalOnly)
		},
	}
	cmd.Flags().
		BoolVar(&conventionalOnly, "conventional-only", false, "Skip the extended capability list")
	return cmd
}

// capEntry is the JSON shape of one listed capability.
type capEntry struct {
	Region  string `json:"region"`
	Pointer string `json:"pointer"`
	ID      string `json:"id"`
	Name    string `json:"name"`
	Version uint8  `json:"version,omitempty"`
	Error   string `json:"error,omitempty"`
}

func runLscaps(args []string, conventionalOnly bool) error {
	path := args[0]

	printVerbose("Opening dump: %s\n", path)

	cc, err := capture.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open dump: %w", err)
	}
	defer cc.Close()

	cs := cc.ConfigSpace()
	var entries []capEntry

	for it := cs.Capabilities(); ; {
		c, err := it.Next()
		if err == io.EOF {
			break
		}
		entry := capEntry{
			Region:  "conventional",
			Pointer: fmt.Sprintf("%#02x", c.Pointer),
			ID:      fmt.Sprintf("%#02x", uint8(c.ID)),
			Name:    c.ID.String(),
		}
		if err != nil {
			entry.Error = err.Error()
		}
		entries = append(entries, entry)
	}

	if !conventionalOnly {
		for it := cs.ExtendedCapabilities(); ; {
			c, err := it.Next()
			if err == io.EOF {
				break
			}
			entry := capEntry{
				Region:  "extended",
				Pointer: fmt.Sprintf("%#03x", c.Pointer),
				ID:      fmt.Sprintf("%#04x", uint16(c.ID)),
				Name:    c.ID.String(),
				Version: c.Version,
			}
			if err != nil {
				entry.Error = err.Error()
			}
			entries = append(entries, entry)
		}
	}

	if jsonOut {
		return printJSON(entries)
	}

	if len(entries) == 0 {
		printInfo("No capabilities\n")
		return nil
	}
	for _, e := range entries {
		line := fmt.Sprintf("  [%s] %s %s", e.Pointer, e.ID, e.Name)
		if e.Region == "extended" {
			line += fmt.Sprintf(" v%d", e.Version)
		}
		if e.Error != "" {
			line += " (truncated)"
		}
		printInfo("%s\n", line)
	}
	return nil
}
