package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/newtron-network/tnmigrate/pkg/cli"
	"github.com/newtron-network/tnmigrate/pkg/configtree"
	"github.com/newtron-network/tnmigrate/pkg/transform"
)

var transformCmd = &cobra.Command{
	Use:   "transform <config.xml>",
	Short: "Transform a saved Tn3 configuration offline",
	Long: `Apply the Tn3 to Tn4 rewrite rules to a configuration saved as XML
(for example the output of "show configuration | display xml") and print the
resulting vlans and interfaces subtrees. No device is contacted.

Examples:
  tnmigrate transform tn3-core-1.xml
  tnmigrate transform tn3-core-1.xml --json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		tree, err := configtree.Parse(string(data))
		if err != nil {
			return fmt.Errorf("parsing %s: %w", args[0], err)
		}
		res, err := transform.Transform(tree)
		if err != nil {
			return err
		}

		if jsonOutput {
			return json.NewEncoder(os.Stdout).Encode(struct {
				Vlans      string             `json:"vlans,omitempty"`
				Interfaces string             `json:"interfaces,omitempty"`
				Warnings   []string           `json:"warnings,omitempty"`
				Dropped    []string           `json:"dropped,omitempty"`
				Renamed    []transform.Rename `json:"renamed,omitempty"`
			}{
				Vlans:      configtree.Render(res.Vlans),
				Interfaces: configtree.Render(res.Interfaces),
				Warnings:   res.Warnings,
				Dropped:    res.Dropped,
				Renamed:    res.Renamed,
			})
		}

		for _, w := range res.Warnings {
			fmt.Fprintln(os.Stderr, cli.Yellow("W: "+w))
		}
		for _, name := range res.Dropped {
			fmt.Fprintln(os.Stderr, cli.Dim("dropped "+name))
		}
		for _, r := range res.Renamed {
			fmt.Fprintln(os.Stderr, cli.Dim("renamed "+r.From+" -> "+r.To))
		}
		fmt.Print(configtree.Render(res.Vlans))
		fmt.Print(configtree.Render(res.Interfaces))
		return nil
	},
}

func init() {
	transformCmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
}
