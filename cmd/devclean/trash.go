package main

import (
	"fmt"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/fenilsonani/devclean/internal/platform"
	"github.com/fenilsonani/devclean/internal/trash"
)

var pruneOlderThan time.Duration

var trashCmd = &cobra.Command{
	Use:   "trash",
	Short: "Manage items devclean moved to the trash",
}

var trashListCmd = &cobra.Command{
	Use:   "list",
	Short: "List trashed items, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		backend, err := openTrash()
		if err != nil {
			return err
		}

		records := backend.Store().List()
		if len(records) == 0 {
			fmt.Println("Trash is empty.")
			return nil
		}

		fmt.Printf("%-14s  %-10s  %-16s  %s\n", "ID", "SIZE", "DELETED", "ORIGINAL PATH")
		var total int64
		for _, r := range records {
			fmt.Printf("%-14s  %-10s  %-16s  %s\n",
				r.ID,
				humanize.IBytes(uint64(r.SizeBytes)),
				humanize.Time(r.DeletedAt),
				r.OriginalPath)
			total += r.SizeBytes
		}
		fmt.Printf("\n%d items (%s). Restore with: devclean trash restore <id>\n",
			len(records), humanize.IBytes(uint64(total)))
		return nil
	},
}

var trashRestoreCmd = &cobra.Command{
	Use:   "restore <id>",
	Short: "Restore a trashed item to its original location",
	Long: `Restore moves a trashed item back to where it was deleted from. The ID may
be abbreviated to any unique prefix. Restore refuses to overwrite a path
that exists again.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		backend, err := openTrash()
		if err != nil {
			return err
		}
		record, err := backend.Restore(args[0])
		if err != nil {
			return err
		}
		fmt.Printf("Restored %s (%s)\n", record.OriginalPath, humanize.IBytes(uint64(record.SizeBytes)))
		return nil
	},
}

var trashPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Permanently delete trashed items",
	Long: `Prune permanently deletes items from the devclean trash. With --older-than
only items trashed before the cutoff go; without it the whole devclean
trash is emptied. Pruned items cannot be restored.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		backend, err := openTrash()
		if err != nil {
			return err
		}

		if !assumeYes {
			if !isTTY(os.Stdin) {
				return fmt.Errorf("trash prune without a terminal requires --yes")
			}
			scope := "all trashed items"
			if pruneOlderThan > 0 {
				scope = fmt.Sprintf("items trashed more than %s ago", pruneOlderThan)
			}
			if !promptYesNo(fmt.Sprintf("Permanently delete %s?", scope)) {
				fmt.Println("Cancelled.")
				return nil
			}
		}

		pruned, err := backend.Prune(pruneOlderThan)
		if err != nil {
			return err
		}
		if len(pruned) == 0 {
			fmt.Println("Nothing to prune.")
			return nil
		}
		var total int64
		for _, r := range pruned {
			total += r.SizeBytes
		}
		fmt.Printf("Pruned %d items (%s)\n", len(pruned), humanize.IBytes(uint64(total)))
		return nil
	},
}

func openTrash() (*trash.Backend, error) {
	info, err := platform.GetInfo()
	if err != nil {
		return nil, err
	}
	return trash.NewBackend(info)
}

func init() {
	trashPruneCmd.Flags().DurationVar(&pruneOlderThan, "older-than", 0, "only prune items older than this, e.g. 168h")
	trashPruneCmd.Flags().BoolVarP(&assumeYes, "yes", "y", false, "prune without asking for confirmation")
	trashCmd.AddCommand(trashListCmd, trashRestoreCmd, trashPruneCmd)
	rootCmd.AddCommand(trashCmd)
}
