package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"taskdeck/internal/store"
)

var importYes bool

var exportCmd = &cobra.Command{
	Use:   "export [file]",
	Short: "Write all tasks to a JSON file",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runExport,
}

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Replace all tasks with the contents of a JSON file",
	Args:  cobra.ExactArgs(1),
	RunE:  runImport,
}

func init() {
	importCmd.Flags().BoolVarP(&importYes, "yes", "y", false, "Skip the confirmation prompt")
}

func runExport(cmd *cobra.Command, args []string) error {
	return withStore(func(c *configAndStore) error {
		path := fmt.Sprintf("tasks-%s.json", c.store.Today())
		if len(args) > 0 {
			path = args[0]
		}
		data, err := c.store.ExportJSON()
		if err != nil {
			return err
		}
		if err := os.WriteFile(path, data, 0644); err != nil {
			return fmt.Errorf("write export: %w", err)
		}
		fmt.Printf("exported %d tasks to %s\n", len(c.store.List()), path)
		return nil
	})
}

func runImport(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read import: %w", err)
	}
	return withStore(func(c *configAndStore) error {
		if !importYes && !confirm(fmt.Sprintf("replace all %d tasks with %s?", len(c.store.List()), args[0])) {
			fmt.Println("import cancelled")
			return nil
		}
		n, err := c.store.ImportJSON(data)
		if err != nil {
			if errors.Is(err, store.ErrBadImport) {
				return fmt.Errorf("%s is not a task export (expected a JSON array)", args[0])
			}
			return err
		}
		fmt.Printf("imported %d tasks\n", n)
		return nil
	})
}
