package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"taskdeck/internal/gcal"
	"taskdeck/internal/models"
	"taskdeck/internal/syncer"
)

var syncAll bool

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Push tasks to the external spreadsheet or calendar",
}

var syncSheetCmd = &cobra.Command{
	Use:   "sheet [task...]",
	Short: "Push tasks to the spreadsheet",
	RunE:  runSyncSheet,
}

var syncCalendarCmd = &cobra.Command{
	Use:   "calendar <task>",
	Short: "Push one task to the calendar",
	Args:  cobra.ExactArgs(1),
	RunE:  runSyncCalendar,
}

func init() {
	syncCmd.AddCommand(syncSheetCmd, syncCalendarCmd)
	syncSheetCmd.Flags().BoolVar(&syncAll, "all", false, "Sync every task not yet sheet-synced")
}

func runSyncSheet(cmd *cobra.Command, args []string) error {
	if !syncAll && len(args) == 0 {
		return fmt.Errorf("give task references or --all")
	}
	return withStore(func(c *configAndStore) error {
		d, err := newDispatcher(c.cfg, c.store)
		if err != nil {
			return err
		}

		var ids []string
		for _, ref := range args {
			id, err := resolveTask(c.store, ref)
			if err != nil {
				return err
			}
			ids = append(ids, id)
		}

		if d == nil {
			// No endpoint configured: clipboard fallback.
			var tasks []models.Task
			if syncAll {
				tasks = c.store.List()
			} else {
				for _, id := range ids {
					t, err := c.store.Get(id)
					if err != nil {
						return err
					}
					tasks = append(tasks, t)
				}
			}
			if err := syncer.CopyRows(tasks); err != nil {
				return err
			}
			fmt.Printf("no sync endpoint configured; copied %d rows to the clipboard\n", len(tasks))
			if c.cfg.SheetURL != "" {
				fmt.Printf("paste them into %s\n", c.cfg.SheetURL)
			}
			return nil
		}

		if syncAll {
			n, err := d.SyncSheetAll(cmd.Context())
			if err != nil {
				return fmt.Errorf("sheet sync failed: %w", err)
			}
			fmt.Printf("synced %d tasks to the sheet\n", n)
			return nil
		}
		if err := d.SyncSheet(cmd.Context(), ids...); err != nil {
			return fmt.Errorf("sheet sync failed: %w", err)
		}
		fmt.Printf("synced %d tasks to the sheet\n", len(ids))
		return nil
	})
}

func runSyncCalendar(cmd *cobra.Command, args []string) error {
	return withStore(func(c *configAndStore) error {
		id, err := resolveTask(c.store, args[0])
		if err != nil {
			return err
		}
		task, err := c.store.Get(id)
		if err != nil {
			return err
		}

		switch c.cfg.CalendarMode {
		case "google":
			client, err := gcal.NewClient(cmd.Context(), c.cfg.Calendar)
			if err != nil {
				return err
			}
			event, err := client.CreateEvent(cmd.Context(), task)
			if err != nil {
				return fmt.Errorf("calendar sync failed: %w", err)
			}
			if _, err := c.store.MarkSynced(id, false, true); err != nil {
				return err
			}
			fmt.Printf("created calendar event for %s (%s)\n", task.TaskNumber, event.HtmlLink)
			return nil

		case "url":
			link, err := syncer.CalendarURL(task)
			if err != nil {
				return err
			}
			fmt.Printf("open this link to create the event:\n%s\n", link)
			return nil

		default:
			d, err := newDispatcher(c.cfg, c.store)
			if err != nil {
				return err
			}
			if d == nil {
				// Same fallback as calendar_mode "url".
				link, err := syncer.CalendarURL(task)
				if err != nil {
					return err
				}
				fmt.Printf("no sync endpoint configured; open this link to create the event:\n%s\n", link)
				return nil
			}
			if err := d.SyncCalendar(cmd.Context(), id); err != nil {
				return fmt.Errorf("calendar sync failed: %w", err)
			}
			fmt.Printf("synced %s to the calendar\n", task.TaskNumber)
			return nil
		}
	})
}
