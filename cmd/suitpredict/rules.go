package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ShayCichocki/suitpredict/internal/rules"
)

var rulesExport bool

var rulesCmd = &cobra.Command{
	Use:   "rules [file]",
	Short: "Show or validate the static rule table",
	Long: `Print the static trigger → suit table used while learned mode is off.

Without arguments the configured rules.static_file is used, or the built-in
table when none is set. With a file argument that file is validated and
printed instead.

With --export the table is written as a YAML file that can be edited and
set as rules.static_file.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := ""
		if len(args) == 1 {
			path = args[0]
		} else {
			cfg, err := loadConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			path = cfg.Rules.StaticFile
		}

		table, err := rules.LoadFile(path)
		if err != nil {
			return err
		}

		if rulesExport {
			data, err := rules.Marshal(table)
			if err != nil {
				return fmt.Errorf("encode table: %w", err)
			}
			_, err = os.Stdout.Write(data)
			return err
		}

		source := path
		if source == "" {
			source = "built-in"
		}
		printStatus("✓", fmt.Sprintf("%d static rules (%s)", len(table), source), color.FgGreen)
		for _, e := range table.Entries() {
			fmt.Printf("  %-4s → %s\n", e.Trigger, e.Predict)
		}
		return nil
	},
}

func init() {
	rulesCmd.Flags().BoolVar(&rulesExport, "export", false, "Write the table as YAML")
}

// printStatus prints a status line with color
func printStatus(symbol, message string, colorAttr color.Attribute) {
	c := color.New(colorAttr)
	fmt.Printf("%s %s\n", c.Sprint(symbol), message)
}
