package cmd

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path/filepath"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

var cleanupDownloads bool

var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Remove local databases and logs",
	Long: `Remove both SQLite files and empty the logs directory so the next start
begins from a fresh schema. Downloaded files are kept unless --downloads is set.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(configPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		dirs := []string{cfg.Storage.LogsDir}
		if cleanupDownloads {
			dirs = append(dirs, cfg.Storage.DownloadsDir)
		}
		return cleanup(afero.NewOsFs(), cmd.OutOrStdout(),
			[]string{cfg.Database.UsersPath, cfg.Database.FilesPath}, dirs)
	},
}

// cleanup removes files and empties dirs. Missing paths are skipped.
func cleanup(fsys afero.Fs, out io.Writer, files, dirs []string) error {
	var errs []error
	for _, f := range files {
		// WAL companions left by SQLite
		for _, p := range []string{f, f + "-wal", f + "-shm"} {
			err := fsys.Remove(p)
			switch {
			case err == nil:
				fmt.Fprintf(out, "Removed: %s\n", p)
			case !errors.Is(err, fs.ErrNotExist):
				errs = append(errs, fmt.Errorf("remove %s: %w", p, err))
			}
		}
	}

	for _, dir := range dirs {
		entries, err := afero.ReadDir(fsys, dir)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("read %s: %w", dir, err))
			continue
		}
		for _, e := range entries {
			p := filepath.Join(dir, e.Name())
			if err := fsys.RemoveAll(p); err != nil {
				errs = append(errs, fmt.Errorf("failed to delete %s: %w", p, err))
				continue
			}
			fmt.Fprintf(out, "Removed: %s\n", p)
		}
	}

	if err := errors.Join(errs...); err != nil {
		return err
	}
	fmt.Fprintln(out, "Cleanup complete!")
	return nil
}

func init() {
	cleanupCmd.Flags().BoolVar(&cleanupDownloads, "downloads", false, "also empty the downloads directory")
}
