package main

import (
	"github.com/spf13/cobra"

	"taskdeck/internal/tui"
)

var boardCmd = &cobra.Command{
	Use:   "board",
	Short: "Open the interactive task board",
	RunE:  runBoard,
}

func runBoard(cmd *cobra.Command, args []string) error {
	return withStore(func(c *configAndStore) error {
		return tui.Run(c.store)
	})
}
