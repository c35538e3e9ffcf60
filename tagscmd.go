package main

import (
	"fmt"

	"ctagline/tags"

	"github.com/spf13/cobra"
)

var tagsLine int

var tagsCmd = &cobra.Command{
	Use:   "tags FILE",
	Short: "Generate tags for FILE and print them in line order",
	Long: `Runs the configured tag tool once on FILE, the same way the daemon
does, and prints one "LINE<TAB>NAME" row per tag. With --line it also
prints the symbol that encloses that line.`,
	Args: cobra.ExactArgs(1),
	RunE: runTags,
}

func init() {
	tagsCmd.Flags().IntVar(&tagsLine, "line", 0, "also print the symbol enclosing this line")
	rootCmd.AddCommand(tagsCmd)
}

func runTags(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	gen, err := newGenerator(cfg)
	if err != nil {
		return err
	}

	path := args[0]
	if err := gen.Check(path); err != nil {
		return err
	}
	list, _, err := gen.Run(cmd.Context(), path)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, r := range list.Records() {
		fmt.Fprintf(out, "%d\t%s\n", r.Line, r.Name)
	}
	if cmd.Flags().Changed("line") {
		fmt.Fprintf(out, "line %d: %s\n", tagsLine, tags.Lookup(list, tagsLine))
	}
	return nil
}
