package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/codelens-dev/codelens/internal/cli"
	"github.com/codelens-dev/codelens/internal/config"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect and manage the user configuration file",
		Long: `Manage the global user configuration file shared by every project on
this machine (default search limits, database WAL mode, performance
tuning). Project-local .codelens.yaml and CODELENS_* environment
variables both take precedence over it; see "codelens config show".`,
	}

	cmd.AddCommand(newConfigPathCmd())
	cmd.AddCommand(newConfigShowCmd())
	cmd.AddCommand(newConfigBackupCmd())
	cmd.AddCommand(newConfigBackupsCmd())
	cmd.AddCommand(newConfigRestoreCmd())

	return cmd
}

func newConfigPathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the user configuration file path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), config.GetUserConfigPath())
			return nil
		},
	}
}

func newConfigShowCmd() *cobra.Command {
	var root string

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration (defaults + user + project + env)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runConfigShow(cmd, root)
		},
	}
	cmd.Flags().StringVar(&root, "root", ".", "Project directory")
	return cmd
}

func runConfigShow(cmd *cobra.Command, root string) error {
	projectRoot, err := config.FindProjectRoot(root)
	if err != nil {
		projectRoot = root
	}

	cfg, err := config.Load(projectRoot)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	fmt.Fprint(cmd.OutOrStdout(), string(data))
	return nil
}

func newConfigBackupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "backup",
		Short: "Snapshot the user configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runConfigBackup(cmd)
		},
	}
}

func runConfigBackup(cmd *cobra.Command) error {
	out := cli.New(cmd.OutOrStdout())

	backupPath, err := config.BackupUserConfig()
	if err != nil {
		return fmt.Errorf("back up user config: %w", err)
	}
	if backupPath == "" {
		out.Status("", "no user configuration file to back up")
		return nil
	}
	out.Successf("backed up user configuration to %s", backupPath)
	return nil
}

func newConfigBackupsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "backups",
		Short: "List backups of the user configuration file, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			backups, err := config.ListUserConfigBackups()
			if err != nil {
				return fmt.Errorf("list config backups: %w", err)
			}
			for _, path := range backups {
				fmt.Fprintln(cmd.OutOrStdout(), path)
			}
			return nil
		},
	}
}

func newConfigRestoreCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "restore <backup-path>",
		Short: "Restore the user configuration file from a backup",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			backupPath := args[0]
			if _, err := os.Stat(backupPath); err != nil {
				return fmt.Errorf("backup file not found: %w", err)
			}
			if err := config.RestoreUserConfig(backupPath); err != nil {
				return fmt.Errorf("restore user config: %w", err)
			}
			cli.New(cmd.OutOrStdout()).Successf("restored user configuration from %s", backupPath)
			return nil
		},
	}
}
