package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"taskdeck/internal/config"
	"taskdeck/internal/extract"
	"taskdeck/internal/store"
	"taskdeck/internal/syncer"
)

var rootCmd = &cobra.Command{
	Use:   "taskdeck",
	Short: "taskdeck - local-first project task tracker",
	Long: `taskdeck tracks project tasks with status, progress and due dates.
Free-text notes are turned into structured tasks by a local language model,
and tasks can be pushed to an external spreadsheet or calendar.`,
	SilenceUsage: true,
}

var cfgPath string

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "Config file (default ~/.taskdeck/config.yaml)")

	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(captureCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(editCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(progressCmd)
	rootCmd.AddCommand(doneCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(boardCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	if cfgPath != "" {
		return config.LoadFrom(cfgPath)
	}
	return config.Load()
}

func openStore(cfg *config.Config) (*store.Store, error) {
	dbPath := cfg.DBPath
	if dbPath == "" {
		var err error
		dbPath, err = config.DefaultDBPath()
		if err != nil {
			return nil, err
		}
	}
	return store.New(dbPath)
}

// newDispatcher builds the webhook dispatcher, or returns nil when no
// endpoint is configured so callers can fall back.
func newDispatcher(cfg *config.Config, s *store.Store) (*syncer.Dispatcher, error) {
	if cfg.SyncEndpoint == "" {
		return nil, nil
	}
	transport, err := syncer.NewWebhookTransport(cfg.SyncEndpoint)
	if err != nil {
		return nil, err
	}
	return syncer.New(s, transport), nil
}

func newExtractor(cfg *config.Config) (extract.Extractor, error) {
	return extract.NewOllama(cfg.OllamaModel)
}

// resolveTask finds a task by task number first, then by id or id prefix.
func resolveTask(s *store.Store, ref string) (string, error) {
	var prefixMatch string
	for _, t := range s.List() {
		if t.TaskNumber == ref || t.ID == ref {
			return t.ID, nil
		}
		if strings.HasPrefix(t.ID, ref) {
			if prefixMatch != "" {
				return "", fmt.Errorf("task reference %q is ambiguous", ref)
			}
			prefixMatch = t.ID
		}
	}
	if prefixMatch != "" {
		return prefixMatch, nil
	}
	return "", fmt.Errorf("no task matches %q", ref)
}

// confirm asks a yes/no question on stdin.
func confirm(prompt string) bool {
	fmt.Printf("%s [y/N]: ", prompt)
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}
