package main

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"taskdeck/internal/config"
	"taskdeck/internal/engine"
	"taskdeck/internal/extract"
	"taskdeck/internal/models"
	"taskdeck/internal/store"
)

var (
	addAssignee string
	addAssigner string
	addSystem   string
	addCategory string
	addDue      string
	addPriority string
	addTags     []string

	listSearch   string
	listAssignee string
	listStatus   string
	listSort     string

	reportProgress int
	reportMessage  string

	deleteYes bool
)

var addCmd = &cobra.Command{
	Use:   "add <content>",
	Short: "Add a task with explicit fields",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runAdd,
}

var captureCmd = &cobra.Command{
	Use:   "capture <free text>",
	Short: "Extract a task from a free-text note via the local model",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runCapture,
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List tasks",
	RunE:  runList,
}

var showCmd = &cobra.Command{
	Use:   "show <task>",
	Short: "Show task details",
	Args:  cobra.ExactArgs(1),
	RunE:  runShow,
}

var editCmd = &cobra.Command{
	Use:   "edit <task> <field> <value>",
	Short: "Edit a field (content, notes, assignee, assigner, system, category, assignedDate, targetDate, priority, completedDate)",
	Args:  cobra.ExactArgs(3),
	RunE:  runEdit,
}

var statusCmd = &cobra.Command{
	Use:   "status <task> <not-started|in-progress|waiting|completed>",
	Short: "Change task status",
	Args:  cobra.ExactArgs(2),
	RunE:  runStatus,
}

var progressCmd = &cobra.Command{
	Use:   "progress <task> <0-100>",
	Short: "Set task progress",
	Args:  cobra.ExactArgs(2),
	RunE:  runProgress,
}

var doneCmd = &cobra.Command{
	Use:   "done <task>",
	Short: "Mark a task completed",
	Args:  cobra.ExactArgs(1),
	RunE:  runDone,
}

var reportCmd = &cobra.Command{
	Use:   "report <task>",
	Short: "Submit a progress report",
	Args:  cobra.ExactArgs(1),
	RunE:  runReport,
}

var deleteCmd = &cobra.Command{
	Use:   "delete <task>",
	Short: "Delete a task",
	Args:  cobra.ExactArgs(1),
	RunE:  runDelete,
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show per-assignee urgency statistics",
	RunE:  runStats,
}

func init() {
	addCmd.Flags().StringVar(&addAssignee, "assignee", "", "Assignee name")
	addCmd.Flags().StringVar(&addAssigner, "assigner", "", "Assigner name")
	addCmd.Flags().StringVar(&addSystem, "system", "", "System ("+strings.Join(models.DefaultSystems, "|")+")")
	addCmd.Flags().StringVar(&addCategory, "category", "", "Category ("+strings.Join(models.DefaultCategories, "|")+")")
	addCmd.Flags().StringVar(&addDue, "due", "", "Target date (YYYY-MM-DD)")
	addCmd.Flags().StringVar(&addPriority, "priority", "medium", "Priority (low|medium|high)")
	addCmd.Flags().StringSliceVar(&addTags, "tag", nil, "Tag (repeatable)")

	listCmd.Flags().StringVar(&listSearch, "search", "", "Free-text search")
	listCmd.Flags().StringVar(&listAssignee, "assignee", "", "Filter by assignee")
	listCmd.Flags().StringVar(&listStatus, "status", "", "Filter: unfinished or finished")
	listCmd.Flags().StringVar(&listSort, "sort", "", "Sort: date-asc or date-desc (default: newest number first)")

	reportCmd.Flags().IntVar(&reportProgress, "progress", -1, "Progress recorded with the report (required)")
	reportCmd.Flags().StringVar(&reportMessage, "message", "", "Report text")
	reportCmd.MarkFlagRequired("progress")

	deleteCmd.Flags().BoolVar(&deleteYes, "yes", false, "Skip the confirmation prompt")
}

func withStore(fn func(cfg *configAndStore) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	s, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer s.Close()
	return fn(&configAndStore{cfg: cfg, store: s})
}

type configAndStore struct {
	cfg   *config.Config
	store *store.Store
}

func runAdd(cmd *cobra.Command, args []string) error {
	return withStore(func(c *configAndStore) error {
		task, err := c.store.Create(models.Proposal{
			Content:    strings.Join(args, " "),
			System:     addSystem,
			Category:   addCategory,
			Assigner:   addAssigner,
			Assignee:   addAssignee,
			TargetDate: addDue,
			Priority:   models.Priority(addPriority),
			Tags:       addTags,
		})
		if err != nil {
			return err
		}
		fmt.Printf("created %s %s\n", task.TaskNumber, task.Content)
		return nil
	})
}

func runCapture(cmd *cobra.Command, args []string) error {
	return withStore(func(c *configAndStore) error {
		ex, err := newExtractor(c.cfg)
		if err != nil {
			return err
		}
		text := strings.Join(args, " ")
		today := c.store.Today()

		p, err := ex.Extract(cmd.Context(), text, today)
		if err != nil {
			if errors.Is(err, extract.ErrNoFields) {
				return fmt.Errorf("could not extract a task from that text; rephrase and retry")
			}
			return fmt.Errorf("extraction failed: %w", err)
		}
		task, err := c.store.Create(*p)
		if err != nil {
			return err
		}
		fmt.Printf("created %s %s\n", task.TaskNumber, task.Content)
		if task.Assignee != "" {
			fmt.Printf("  assignee: %s  target: %s  priority: %s\n", task.Assignee, task.TargetDate, task.Priority)
		}

		if p.ShouldSyncSheet {
			if d, derr := newDispatcher(c.cfg, c.store); derr == nil && d != nil {
				d.AutoSyncSheet(cmd.Context(), task.ID)
			}
		}
		return nil
	})
}

func runList(cmd *cobra.Command, args []string) error {
	return withStore(func(c *configAndStore) error {
		q := engine.Query{
			Search:   listSearch,
			Assignee: listAssignee,
			Status:   engine.StatusFilter(listStatus),
			Sort:     engine.SortOrder(listSort),
		}
		tasks := c.store.View(q)
		if len(tasks) == 0 {
			fmt.Println("no tasks")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "NUMBER\tSTATUS\tPROG\tASSIGNEE\tTARGET\tDUE\tCONTENT")
		for _, t := range tasks {
			due := ""
			switch c.store.DueStatusOf(t) {
			case models.DueOverdue:
				due = "OVERDUE"
			case models.DueSoon:
				due = "soon"
			}
			fmt.Fprintf(w, "%s\t%s\t%d%%\t%s\t%s\t%s\t%s\n",
				t.TaskNumber, t.Status.Label(), t.Progress, t.Assignee, t.TargetDate, due, t.Content)
		}
		w.Flush()

		sum := c.store.Summarize()
		if sum.OverdueCount > 0 || sum.DueSoonCount > 0 {
			fmt.Printf("\n%d overdue, %d due soon\n", sum.OverdueCount, sum.DueSoonCount)
		}
		return nil
	})
}

func runShow(cmd *cobra.Command, args []string) error {
	return withStore(func(c *configAndStore) error {
		id, err := resolveTask(c.store, args[0])
		if err != nil {
			return err
		}
		t, err := c.store.Get(id)
		if err != nil {
			return err
		}
		fmt.Printf("%s  %s\n", t.TaskNumber, t.Content)
		fmt.Printf("  id:        %s\n", t.ID)
		fmt.Printf("  status:    %s (%d%%)\n", t.Status.Label(), t.Progress)
		fmt.Printf("  assignee:  %s (from %s)\n", t.Assignee, t.Assigner)
		fmt.Printf("  system:    %s / %s\n", t.System, t.Category)
		fmt.Printf("  priority:  %s\n", t.Priority)
		fmt.Printf("  assigned:  %s  target: %s  completed: %s\n", t.AssignedDate, t.TargetDate, t.ActualCompletedDate)
		if len(t.Tags) > 0 {
			fmt.Printf("  tags:      %s\n", strings.Join(t.Tags, ", "))
		}
		if t.Notes != "" {
			fmt.Printf("  notes:     %s\n", t.Notes)
		}
		fmt.Printf("  synced:    sheet=%v calendar=%v\n", t.SyncedSheet, t.SyncedCalendar)
		if len(t.Reports) > 0 {
			fmt.Println("  reports:")
			for _, rep := range t.Reports {
				fmt.Printf("    %s  %3d%%  %s  %s\n", rep.Date, rep.Progress, rep.Reporter, rep.Content)
			}
		}
		return nil
	})
}

func runEdit(cmd *cobra.Command, args []string) error {
	return withStore(func(c *configAndStore) error {
		id, err := resolveTask(c.store, args[0])
		if err != nil {
			return err
		}
		var t models.Task
		if args[1] == "completedDate" {
			// Goes through the completion rules, not the plain field edit.
			t, err = c.store.SetCompletedDate(id, args[2])
		} else {
			t, err = c.store.EditField(id, args[1], args[2])
		}
		if err != nil {
			return err
		}
		fmt.Printf("updated %s %s\n", t.TaskNumber, args[1])
		return nil
	})
}

func runStatus(cmd *cobra.Command, args []string) error {
	return withStore(func(c *configAndStore) error {
		id, err := resolveTask(c.store, args[0])
		if err != nil {
			return err
		}
		t, err := c.store.SetStatus(id, models.TaskStatus(args[1]))
		if err != nil {
			return err
		}
		fmt.Printf("%s is now %s (%d%%)\n", t.TaskNumber, t.Status.Label(), t.Progress)
		return nil
	})
}

func runProgress(cmd *cobra.Command, args []string) error {
	return withStore(func(c *configAndStore) error {
		id, err := resolveTask(c.store, args[0])
		if err != nil {
			return err
		}
		var p int
		if _, err := fmt.Sscanf(args[1], "%d", &p); err != nil {
			return fmt.Errorf("progress must be a number: %w", err)
		}
		t, err := c.store.SetProgress(id, p)
		if err != nil {
			return err
		}
		fmt.Printf("%s progress %d%%, status %s\n", t.TaskNumber, t.Progress, t.Status.Label())
		return nil
	})
}

func runDone(cmd *cobra.Command, args []string) error {
	return withStore(func(c *configAndStore) error {
		id, err := resolveTask(c.store, args[0])
		if err != nil {
			return err
		}
		t, err := c.store.SetStatus(id, models.StatusCompleted)
		if err != nil {
			return err
		}
		fmt.Printf("%s completed on %s\n", t.TaskNumber, t.ActualCompletedDate)
		return nil
	})
}

func runReport(cmd *cobra.Command, args []string) error {
	return withStore(func(c *configAndStore) error {
		id, err := resolveTask(c.store, args[0])
		if err != nil {
			return err
		}
		t, err := c.store.SubmitReport(id, reportProgress, reportMessage)
		if err != nil {
			return err
		}
		fmt.Printf("%s reported %d%%, status %s\n", t.TaskNumber, reportProgress, t.Status.Label())
		return nil
	})
}

func runDelete(cmd *cobra.Command, args []string) error {
	return withStore(func(c *configAndStore) error {
		id, err := resolveTask(c.store, args[0])
		if err != nil {
			return err
		}
		t, err := c.store.Get(id)
		if err != nil {
			return err
		}
		if !deleteYes && !confirm(fmt.Sprintf("delete %s %q?", t.TaskNumber, t.Content)) {
			fmt.Println("aborted")
			return nil
		}
		if err := c.store.Delete(id); err != nil {
			return err
		}
		fmt.Printf("deleted %s\n", t.TaskNumber)
		return nil
	})
}

func runStats(cmd *cobra.Command, args []string) error {
	return withStore(func(c *configAndStore) error {
		sum := c.store.Summarize()
		fmt.Printf("overdue: %d   due soon: %d\n", sum.OverdueCount, sum.DueSoonCount)
		if len(sum.Assignees) == 0 {
			fmt.Println("nobody has urgent tasks")
			return nil
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ASSIGNEE\tOVERDUE\tDUE SOON\tOPEN")
		for _, st := range sum.Assignees {
			fmt.Fprintf(w, "%s\t%d\t%d\t%d\n", st.Assignee, st.Overdue, st.DueSoon, st.Total)
		}
		return w.Flush()
	})
}
