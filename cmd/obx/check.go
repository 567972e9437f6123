package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"obx/internal/diagfmt"
	"obx/internal/driver"
	"obx/internal/project"
)

var checkCmd = &cobra.Command{
	Use:   "check [files or directory]",
	Short: "Parse, resolve, and type-check modules",
	Long: `check runs the full front-end over the given *.obx files or over a
directory. With no arguments it reads obx.toml in the current
directory.`,
	RunE: runCheck,
}

func init() {
	checkCmd.Flags().Int("jobs", 0, "concurrent file reads (0 = number of CPUs)")
	checkCmd.Flags().Bool("no-stdlib", false, "do not preload the standard library modules")
}

func runCheck(cmd *cobra.Command, args []string) error {
	jobs, _ := cmd.Flags().GetInt("jobs")
	noStdlib, _ := cmd.Flags().GetBool("no-stdlib")
	maxDiags, _ := cmd.Flags().GetInt("max-diagnostics")

	d, err := driver.New(driver.Options{
		MaxDiagnostics: maxDiags,
		WithStdlib:     !noStdlib,
	})
	if err != nil {
		return err
	}

	var paths []string
	ctx := cmd.Context()
	switch {
	case len(args) == 0:
		manifest, err := project.Load(filepath.Join(".", "obx.toml"))
		if err != nil {
			return err
		}
		for _, p := range manifest.Preloads {
			data, err := os.ReadFile(p) // #nosec G304 -- manifest-listed path
			if err != nil {
				return err
			}
			name := filepath.Base(p)
			name = name[:len(name)-len(filepath.Ext(name))]
			if err := d.AddPreload(name, data); err != nil {
				return err
			}
		}
		paths, err = d.LoadFiles(ctx, manifest.Sources, jobs)
		if err != nil {
			return err
		}
	case len(args) == 1 && isDir(args[0]):
		paths, err = d.LoadDir(ctx, args[0], jobs)
		if err != nil {
			return err
		}
	default:
		paths, err = d.LoadFiles(ctx, args, jobs)
		if err != nil {
			return err
		}
	}

	res, err := d.ParseFiles(ctx, paths)
	if err != nil {
		return err
	}
	diagfmt.Write(os.Stdout, res.Bag, d.FileSet(), diagfmt.Options{
		Color:   colorEnabled(cmd),
		Context: true,
	})
	fmt.Println(diagfmt.Summary(res.Bag))
	if !res.OK {
		os.Exit(1)
	}
	return nil
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
