package main

import (
	"fmt"

	"github.com/bmharper/deskew"
	"github.com/bmharper/deskew/internal/config"
	"github.com/bmharper/deskew/internal/fetch"
	"github.com/bmharper/deskew/internal/report"
	"github.com/bmharper/textorient"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var rotateCmd = &cobra.Command{
	Use:   "rotate [flags] [file]...",
	Short: "Write straightened copies of analysed files",
	Long: `Read a results file written by "deskew analyse --csv" and write a straightened copy of
every file in it. When files are given, only those are rotated.`,
	Args: cobra.ArbitraryArgs,
	RunE: rotateFiles,
}

func init() {
	rootCmd.AddCommand(rotateCmd)

	rotateCmd.Flags().String("results", "results", "results file name, without extension")
	rotateCmd.Flags().StringP("out", "o", "out", "output directory")
	rotateCmd.Flags().Bool("upright", false, "also turn pages whose text is sideways or upside down")
	rotateCmd.Flags().BoolP("verbose", "v", false, "print detailed output")
}

func rotateFiles(cmd *cobra.Command, args []string) error {
	cfg := config.FromEnv()
	flags := cmd.Flags()
	verbose, _ := flags.GetBool("verbose")
	upright, _ := flags.GetBool("upright")
	outDir, _ := flags.GetString("out")
	results := cfg.Batch.Results
	if flags.Changed("results") {
		results, _ = flags.GetString("results")
	}

	if _, err := initLogging(cfg, verbose, false); err != nil {
		return err
	}

	all, err := report.Load(report.Filename(results))
	if err != nil {
		return err
	}
	set := deskew.NewResultSet(all)
	if len(args) != 0 {
		set = set.Filter(args)
	}
	if len(set.Files) == 0 {
		return fmt.Errorf("nothing to rotate in %v", report.Filename(results))
	}

	opts := deskew.RotateOptions{Log: log.Logger}
	if upright {
		if opts.Orient, err = textorient.NewOrient(); err != nil {
			return err
		}
	}
	applier, err := deskew.NewApplier(outDir, opts)
	if err != nil {
		return err
	}

	fetcher, err := fetch.New(log.Logger)
	if err != nil {
		return err
	}
	defer fetcher.Close()
	local := []deskew.Result{}
	for _, file := range set.Files {
		path, err := fetcher.Local(cmd.Context(), file)
		if err != nil {
			log.Error().Err(err).Msg("skipping")
			continue
		}
		for _, r := range set.Results(file) {
			r.Path = path
			local = append(local, r)
		}
	}

	failures := 0
	for step := range applier.Rotate(cmd.Context(), deskew.NewResultSet(local)) {
		unit := deskew.Unit{Path: step.Path, Page: step.Page}
		if step.Err != nil {
			failures++
			log.Error().Err(step.Err).Str("unit", unit.String()).Msg("rotate failed")
			continue
		}
		if verbose && step.Output != "" {
			fmt.Printf("%v -> %v\n", unit, step.Output)
		}
	}
	if cmd.Context().Err() != nil {
		fmt.Printf("Interrupted\n")
		return errAborted
	}
	if failures != 0 {
		log.Warn().Int("failures", failures).Msg("some files or pages were not rotated")
	}
	return nil
}
