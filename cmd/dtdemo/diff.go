package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/k4210/dtengine/dt"
	"github.com/k4210/dtengine/pkg/printer"
	"github.com/k4210/dtengine/pkg/types"
)

func init() {
	rootCmd.AddCommand(&cobra.Command{
		Use:   "diff",
		Short: "Diff two sample Actor revisions and print the resulting template",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDiff()
		},
	})
}

func runDiff() error {
	registry := dt.DefaultRegistry()

	lower := sampleActor()
	higher := sampleActor()
	higher.Health = 42
	higher.Tags["level"] = 13

	lowerDT, err := dt.Save(registry, actorStructID, &lower, types.SaveFlagsNone)
	if err != nil {
		return fmt.Errorf("save lower: %w", err)
	}
	higherDT, err := dt.Save(registry, actorStructID, &higher, types.SaveFlagsNone)
	if err != nil {
		return fmt.Errorf("save higher: %w", err)
	}

	diffDT, err := dt.Diff(registry, higherDT, lowerDT)
	if err != nil {
		return fmt.Errorf("diff: %w", err)
	}
	printVerbose("diff has %d tags (vs %d in the full higher template)\n", len(diffDT.Tags), len(higherDT.Tags))

	out, err := printer.New(registry).ToString(diffDT)
	if err != nil {
		return fmt.Errorf("dump: %w", err)
	}
	printInfo("%s\n", out)
	return nil
}
