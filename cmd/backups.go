package cmd

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/WinnyKing57/WinClean-sub000/internal/cli"
)

var backupsCmd = &cobra.Command{
	Use:   "backups",
	Short: "Manage the pre-removal backups",
	Long: `Backups lists, restores and prunes the copies the cleaning
engine takes before removing reversible targets.`,
}

var backupsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the stored backups",
	RunE:  runBackupsList,
}

var backupsRestoreCmd = &cobra.Command{
	Use:   "restore <name>",
	Short: "Put a backup back at its original path",
	Args:  cobra.ExactArgs(1),
	RunE:  runBackupsRestore,
}

var backupsPurgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Drop backups past the retention limits",
	RunE:  runBackupsPurge,
}

func init() {
	backupsCmd.AddCommand(backupsListCmd)
	backupsCmd.AddCommand(backupsRestoreCmd)
	backupsCmd.AddCommand(backupsPurgeCmd)
}

func runBackupsList(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	backups, err := newBackupManager(cfg).List()
	if err != nil {
		return fmt.Errorf("list backups: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), cli.FormatBackupList(backups))
	return nil
}

func runBackupsRestore(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := newBackupManager(cfg).Restore(args[0]); err != nil {
		return fmt.Errorf("restore %s: %w", args[0], err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Restored %s\n", args[0])
	return nil
}

func runBackupsPurge(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	removed, freed := newBackupManager(cfg).Purge()
	fmt.Fprintf(cmd.OutOrStdout(), "Purged %d backups, freed %s\n",
		removed, humanize.IBytes(uint64(freed)))
	return nil
}
