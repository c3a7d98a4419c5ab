package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/haritha1313/smartnotes/internal/config"
	"github.com/haritha1313/smartnotes/internal/localstore"
	"github.com/haritha1313/smartnotes/internal/note"
)

var (
	notesSearch   string
	notesCategory string
	notesJSON     bool
)

var notesCmd = &cobra.Command{
	Use:   "notes",
	Short: "View and manage locally stored notes",
}

var notesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List notes, newest first",
	RunE:  runNotesList,
}

var notesDeleteCmd = &cobra.Command{
	Use:   "delete [id]",
	Short: "Delete a note from the local store",
	Long: `Delete a note from the local store.

Deletion is local only: a copy already synced to the service or to
Notion stays there.`,
	Args: cobra.ExactArgs(1),
	RunE: runNotesDelete,
}

var notesStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show note counts per category",
	RunE:  runNotesStats,
}

var notesWatchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Reprint the note list whenever it changes",
	RunE:  runNotesWatch,
}

func init() {
	notesListCmd.Flags().StringVar(&notesSearch, "search", "", "substring filter over text, comment, url and title")
	notesListCmd.Flags().StringVar(&notesCategory, "category", "", "category filter")
	notesListCmd.Flags().BoolVar(&notesJSON, "json", false, "output as JSON")

	notesCmd.AddCommand(notesListCmd)
	notesCmd.AddCommand(notesDeleteCmd)
	notesCmd.AddCommand(notesStatsCmd)
	notesCmd.AddCommand(notesWatchCmd)
}

func openLocalStore() (*localstore.Store, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return localstore.New(cfg.Client.DataDir), nil
}

func runNotesList(cmd *cobra.Command, args []string) error {
	local, err := openLocalStore()
	if err != nil {
		return err
	}

	notes, err := local.List()
	if err != nil {
		return fmt.Errorf("failed to read notes: %w", err)
	}
	notes = filterNotes(notes, notesCategory, notesSearch)

	if notesJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(notes)
	}

	if len(notes) == 0 {
		fmt.Println("No notes.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tCATEGORY\tSYNC\tTEXT")
	for _, n := range notes {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", n.ID, n.Category, syncLabel(n), preview(n.Text, 60))
	}
	return w.Flush()
}

func filterNotes(notes []note.Note, category, search string) []note.Note {
	if category == "" && search == "" {
		return notes
	}
	search = strings.ToLower(search)

	var out []note.Note
	for _, n := range notes {
		if category != "" && !strings.EqualFold(n.Category, category) {
			continue
		}
		if search != "" {
			haystack := strings.ToLower(n.Text + " " + n.Comment + " " + n.URL + " " + n.Title)
			if !strings.Contains(haystack, search) {
				continue
			}
		}
		out = append(out, n)
	}
	return out
}

func syncLabel(n note.Note) string {
	if n.SyncStatus == "" {
		return note.SyncUnknown
	}
	return n.SyncStatus
}

func preview(s string, max int) string {
	s = strings.Join(strings.Fields(s), " ")
	if r := []rune(s); len(r) > max {
		return string(r[:max-3]) + "..."
	}
	return s
}

func runNotesDelete(cmd *cobra.Command, args []string) error {
	local, err := openLocalStore()
	if err != nil {
		return err
	}

	if err := local.Delete(args[0]); err != nil {
		return fmt.Errorf("failed to delete note: %w", err)
	}
	fmt.Printf("Deleted %s locally\n", args[0])
	return nil
}

func runNotesStats(cmd *cobra.Command, args []string) error {
	local, err := openLocalStore()
	if err != nil {
		return err
	}

	notes, err := local.List()
	if err != nil {
		return fmt.Errorf("failed to read notes: %w", err)
	}

	counts := make(map[string]int)
	for _, n := range notes {
		counts[n.Category]++
	}

	fmt.Printf("Total notes: %d\n", len(notes))
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	for category, count := range counts {
		fmt.Fprintf(w, "%s\t%d\n", category, count)
	}
	return w.Flush()
}

func runNotesWatch(cmd *cobra.Command, args []string) error {
	local, err := openLocalStore()
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	fmt.Println("Watching for changes (ctrl-c to stop)...")
	err = local.Watch(ctx, func() {
		if err := runNotesList(cmd, nil); err != nil {
			fmt.Fprintln(os.Stderr, err)
		}
	})
	if ctx.Err() != nil {
		return nil
	}
	return err
}
