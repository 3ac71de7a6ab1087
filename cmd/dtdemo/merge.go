package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/k4210/dtengine/dt"
	"github.com/k4210/dtengine/pkg/types"
)

func init() {
	rootCmd.AddCommand(&cobra.Command{
		Use:   "merge",
		Short: "Reconstruct a higher revision by merging a lower revision with its diff",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMerge()
		},
	})
}

func runMerge() error {
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

	lowerDT2, err := dt.Save(registry, actorStructID, &lower, types.SaveFlagsNone)
	if err != nil {
		return fmt.Errorf("re-save lower: %w", err)
	}
	mergedDT, err := dt.Merge(registry, lowerDT2, diffDT)
	if err != nil {
		return fmt.Errorf("merge: %w", err)
	}

	var reconstructed Actor
	if err := dt.Load(registry, mergedDT, &reconstructed); err != nil {
		return fmt.Errorf("load merged: %w", err)
	}
	printInfo("reconstructed: %+v\n", reconstructed)
	printInfo("expected:      %+v\n", higher)
	return nil
}
