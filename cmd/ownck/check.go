package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"ownck/internal/diag"
	"ownck/internal/diagfmt"
	"ownck/internal/driver"
	"ownck/internal/project"
)

var checkCmd = &cobra.Command{
	Use:   "check [flags] <file.own.json|directory>",
	Short: "Verify ownership and borrow rules in a program file or directory",
	Long:  `Verify move, drop and borrow discipline in serialized program files or all *.own.json files within a directory`,
	Args:  cobra.ExactArgs(1),
	RunE:  runCheck,
}

func init() {
	checkCmd.Flags().String("format", "pretty", "output format (pretty|json|short)")
	checkCmd.Flags().Int("jobs", 0, "max parallel workers for directory processing (0=auto)")
	checkCmd.Flags().Bool("with-notes", false, "include diagnostic notes in output")
	checkCmd.Flags().Bool("fullpath", false, "emit absolute file paths in output")
	checkCmd.Flags().Bool("disk-cache", false, "enable persistent disk cache for check results")
	checkCmd.Flags().String("ui", "auto", "interactive progress for directories (auto|on|off)")
}

// checkSettings is the flag set merged with manifest defaults. Explicit flags
// win over ownck.toml, which wins over built-in defaults.
type checkSettings struct {
	format         string
	jobs           int
	maxDiagnostics int
	withNotes      bool
	fullPath       bool
	diskCache      bool
	showTimings    bool
	quiet          bool
	useColor       bool
	uiMode         uiMode
}

func resolveCheckSettings(cmd *cobra.Command, startDir string) (checkSettings, error) {
	var s checkSettings
	var err error

	if s.format, err = cmd.Flags().GetString("format"); err != nil {
		return s, fmt.Errorf("failed to get format flag: %w", err)
	}
	if s.jobs, err = cmd.Flags().GetInt("jobs"); err != nil {
		return s, fmt.Errorf("failed to get jobs flag: %w", err)
	}
	if s.withNotes, err = cmd.Flags().GetBool("with-notes"); err != nil {
		return s, fmt.Errorf("failed to get with-notes flag: %w", err)
	}
	if s.fullPath, err = cmd.Flags().GetBool("fullpath"); err != nil {
		return s, fmt.Errorf("failed to get fullpath flag: %w", err)
	}
	if s.diskCache, err = cmd.Flags().GetBool("disk-cache"); err != nil {
		return s, fmt.Errorf("failed to get disk-cache flag: %w", err)
	}
	if s.maxDiagnostics, err = cmd.Root().PersistentFlags().GetInt("max-diagnostics"); err != nil {
		return s, fmt.Errorf("failed to get max-diagnostics flag: %w", err)
	}
	if s.showTimings, err = cmd.Root().PersistentFlags().GetBool("timings"); err != nil {
		return s, fmt.Errorf("failed to get timings flag: %w", err)
	}
	if s.quiet, err = cmd.Root().PersistentFlags().GetBool("quiet"); err != nil {
		return s, fmt.Errorf("failed to get quiet flag: %w", err)
	}

	uiFlag, err := cmd.Flags().GetString("ui")
	if err != nil {
		return s, fmt.Errorf("failed to get ui flag: %w", err)
	}
	if s.uiMode, err = readUIMode(uiFlag); err != nil {
		return s, err
	}

	colorFlag, err := cmd.Root().PersistentFlags().GetString("color")
	if err != nil {
		return s, fmt.Errorf("failed to get color flag: %w", err)
	}
	s.useColor = colorFlag == "on" || (colorFlag == "auto" && isTerminal(os.Stdout))

	// Manifest values fill in what the command line left at defaults.
	manifest, ok, err := project.Load(startDir)
	if err != nil {
		return s, err
	}
	if ok {
		if !cmd.Flags().Changed("format") && manifest.Config.Check.Format != "" {
			s.format = manifest.Config.Check.Format
		}
		if !cmd.Flags().Changed("jobs") && manifest.Config.Check.Jobs > 0 {
			s.jobs = manifest.Config.Check.Jobs
		}
		if !cmd.Flags().Changed("disk-cache") && manifest.Config.Check.Cache {
			s.diskCache = true
		}
		if !cmd.Root().PersistentFlags().Changed("max-diagnostics") && manifest.Config.Check.MaxDiagnostics > 0 {
			s.maxDiagnostics = manifest.Config.Check.MaxDiagnostics
		}
	}

	switch s.format {
	case "pretty", "json", "short":
	default:
		return s, fmt.Errorf("unknown format: %s", s.format)
	}
	return s, nil
}

func runCheck(cmd *cobra.Command, args []string) error {
	path := args[0]

	st, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("failed to stat path: %w", err)
	}

	startDir := path
	if !st.IsDir() {
		startDir = filepath.Dir(path)
	}
	settings, err := resolveCheckSettings(cmd, startDir)
	if err != nil {
		return err
	}

	var results []driver.FileResult
	if st.IsDir() {
		results, err = runCheckDir(cmd, path, settings)
	} else {
		results = []driver.FileResult{*driver.CheckFileWithOptions(path, driver.CheckFileOptions{
			MaxDiagnostics: settings.maxDiagnostics,
			EnableTimings:  settings.showTimings,
		})}
	}
	if err != nil {
		return fmt.Errorf("check failed: %w", err)
	}

	if err := renderResults(os.Stdout, results, settings); err != nil {
		return err
	}
	if settings.showTimings && !settings.quiet {
		printTimings(os.Stderr, results)
	}

	for i := range results {
		if !results[i].Valid() {
			// Suppress cobra usage output on rule violations
			cmd.SilenceUsage = true
			cmd.SilenceErrors = true
			return fmt.Errorf("") // Silent error - diagnostics already printed
		}
	}
	return nil
}

func runCheckDir(cmd *cobra.Command, dir string, settings checkSettings) ([]driver.FileResult, error) {
	var cache *driver.DiskCache
	if settings.diskCache {
		var err error
		cache, err = driver.OpenDiskCache("ownck")
		if err != nil {
			return nil, fmt.Errorf("failed to open disk cache: %w", err)
		}
	}

	opts := driver.Options{
		Jobs:           settings.jobs,
		MaxDiagnostics: settings.maxDiagnostics,
		Cache:          cache,
		EnableTimings:  settings.showTimings,
	}

	// The TUI takes over stdout, so it only makes sense for human output on
	// a terminal.
	if settings.format == "pretty" && !settings.quiet && shouldUseTUI(settings.uiMode) {
		return runCheckDirWithUI(cmd, dir, opts)
	}
	return driver.CheckDir(cmd.Context(), dir, opts)
}

func renderResults(out *os.File, results []driver.FileResult, settings checkSettings) error {
	switch settings.format {
	case "short":
		var all []diag.Diagnostic
		for i := range results {
			r := &results[i]
			if r.Err != nil {
				all = append(all, r.ErrBag().Items()...)
				continue
			}
			for j := range r.Functions {
				all = append(all, r.Functions[j].Bag.Items()...)
			}
		}
		if output := diag.FormatShortDiagnostics(all, settings.withNotes); output != "" {
			fmt.Fprintln(out, output)
		}
	case "pretty":
		prettyOpts := diagfmt.PrettyOpts{
			Color:     settings.useColor,
			WithNotes: settings.withNotes,
			Listing:   true,
		}
		first := true
		for i := range results {
			r := &results[i]
			if r.Err == nil && r.Valid() && settings.quiet {
				continue
			}
			if !first {
				fmt.Fprintln(out)
			}
			first = false
			fmt.Fprintf(out, "== %s ==\n", displayPath(r.Path, settings.fullPath))
			if r.Err != nil {
				diagfmt.Pretty(out, filepath.Base(r.Path), nil, r.ErrBag(), prettyOpts)
				continue
			}
			for j := range r.Functions {
				fn := &r.Functions[j]
				if fn.Bag.Len() == 0 {
					continue
				}
				diagfmt.Pretty(out, fn.Name, fn.Program, fn.Bag, prettyOpts)
			}
			if r.Valid() {
				fmt.Fprintln(out, "ok")
			}
		}
	case "json":
		jsonOpts := diagfmt.JSONOpts{Indent: true, WithNotes: settings.withNotes}
		var functions []diagfmt.FunctionJSON
		for i := range results {
			r := &results[i]
			if r.Err != nil {
				functions = append(functions, diagfmt.FunctionOutput(displayPath(r.Path, settings.fullPath), nil, r.ErrBag(), jsonOpts))
				continue
			}
			for j := range r.Functions {
				fn := &r.Functions[j]
				functions = append(functions, diagfmt.FunctionOutput(fn.Name, fn.Program, fn.Bag, jsonOpts))
			}
		}
		if err := diagfmt.WriteJSON(out, functions, jsonOpts); err != nil {
			return fmt.Errorf("failed to encode diagnostics output: %w", err)
		}
	}
	return nil
}

func displayPath(path string, fullPath bool) string {
	if !fullPath {
		return path
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	return abs
}

func printTimings(out *os.File, results []driver.FileResult) {
	for i := range results {
		r := &results[i]
		if r.Timing == nil {
			continue
		}
		fmt.Fprintf(out, "%s: %.2f ms\n", r.Path, r.Timing.TotalMS)
		for _, p := range r.Timing.Phases {
			fmt.Fprintf(out, "  %-12s %7.2f ms", p.Name, p.DurationMS)
			if p.Note != "" {
				fmt.Fprintf(out, "  // %s", p.Note)
			}
			fmt.Fprintln(out)
		}
	}
}
