package main

import (
	"github.com/spf13/cobra"

	"github.com/k4210/dtengine/dt"
)

func init() {
	rootCmd.AddCommand(&cobra.Command{
		Use:   "describe",
		Short: "Print the registered Actor structure's property vector",
		RunE: func(cmd *cobra.Command, args []string) error {
			structure, err := dt.DefaultRegistry().GetStructure(actorStructID)
			if err != nil {
				return err
			}
			printInfo("%s", structure.Dump())
			return nil
		},
	})
}
