package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Clarity-Digital-Twin/nedc-bench-sub000/internal/config"
)

func main() {
	root := &cobra.Command{
		Use:   "nedc-bench",
		Short: "Dual-pipeline EEG seizure scoring benchmark",
	}

	root.AddCommand(serveCmd())
	root.AddCommand(evaluateCmd())
	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(config.Version)
		},
	})

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
