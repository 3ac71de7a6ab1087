package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/k4210/dtengine/dt"
	"github.com/k4210/dtengine/pkg/printer"
	"github.com/k4210/dtengine/pkg/types"
)

var roundtripSkipDefaults bool

func init() {
	cmd := &cobra.Command{
		Use:   "roundtrip",
		Short: "Save a sample Actor, print its JSON dump, then load it back",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRoundtrip()
		},
	}
	cmd.Flags().BoolVar(&roundtripSkipDefaults, "skip-defaults", false, "Elide native-default fields on Save")
	rootCmd.AddCommand(cmd)
}

func runRoundtrip() error {
	registry := dt.DefaultRegistry()
	actor := sampleActor()

	flags := types.SaveFlagsNone
	if roundtripSkipDefaults {
		flags = types.SkipNativeDefaultValues
	}

	tpl, err := dt.Save(registry, actorStructID, &actor, flags)
	if err != nil {
		return fmt.Errorf("save: %w", err)
	}
	printVerbose("saved %d tags, %d bytes of payload\n", len(tpl.Tags), len(tpl.Data))

	out, err := printer.New(registry).ToString(tpl)
	if err != nil {
		return fmt.Errorf("dump: %w", err)
	}
	printInfo("%s\n", out)

	var loaded Actor
	if err := dt.Load(registry, tpl, &loaded); err != nil {
		return fmt.Errorf("load: %w", err)
	}
	printInfo("loaded: %+v\n", loaded)
	return nil
}
