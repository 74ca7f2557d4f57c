package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/cottand/ovld/internal/config"
	"github.com/cottand/ovld/internal/log"
	"github.com/cottand/ovld/ovlerr"
	"github.com/cottand/ovld/unit"
	"github.com/spf13/cobra"
)

func addCommonFlags(c *cobra.Command) {
	c.Flags().StringP("log-level", "l", "", "log level (debug, info, warn, error), overrides "+config.FileName)
	c.Flags().IntP("jobs", "j", 0, "overload sets split in parallel, overrides "+config.FileName)
}

// loadTarget loads the unit at target, which is a directory of declaration files or a
// single one, together with the configuration next to it. Flags override the file.
func loadTarget(c *cobra.Command, target string) (*unit.Unit, config.Config, error) {
	target, err := filepath.Abs(target)
	if err != nil {
		return nil, config.Config{}, fmt.Errorf("could not get absolute path of target: %w", err)
	}
	stat, err := os.Stat(target)
	if err != nil {
		return nil, config.Config{}, fmt.Errorf("could not stat target: %w", err)
	}

	var folderFS fs.FS
	if stat.IsDir() {
		folderFS = os.DirFS(target)
	} else {
		folderFS = os.DirFS(filepath.Dir(target))
	}

	cfg, err := config.Load(folderFS)
	if err != nil {
		return nil, config.Config{}, err
	}
	if c.Flags().Changed("log-level") {
		cfg.LogLevel, _ = c.Flags().GetString("log-level")
	}
	if c.Flags().Changed("jobs") {
		cfg.Jobs, _ = c.Flags().GetInt("jobs")
	}
	level, err := cfg.Level()
	if err != nil {
		return nil, config.Config{}, err
	}
	log.SetLevel(level)

	var u *unit.Unit
	if stat.IsDir() {
		u, err = unit.Load(folderFS)
	} else {
		u, err = unit.LoadFiles(folderFS, filepath.Base(target))
	}
	if err != nil {
		return nil, config.Config{}, fmt.Errorf("could not load declarations: %w", err)
	}
	return u, cfg, nil
}

// isCompileError tells errors accumulated over overload sets apart from I/O and
// cancellation, which stop the command before any output
func isCompileError(err error) bool {
	var list *ovlerr.Errors
	return errors.As(err, &list)
}
