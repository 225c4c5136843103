package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"chatd/internal/artifact"
	"chatd/internal/common/fsutil"
	"chatd/internal/config"
	"chatd/internal/device"
	"chatd/internal/engine"
)

func newCheckCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Check device capability and the model artifact without loading",
		Long: "check probes host memory against the configured thresholds and\n" +
			"verifies that the configured model artifact is present and readable.\n" +
			"The model is never loaded; a passing check costs no memory.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd, opts)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			problems := 0

			fmt.Fprintf(out, "engine: %s (llama backend built: %v)\n", cfg.Engine, engine.LlamaBuilt())
			if cfg.Engine == config.EngineLlama && !engine.LlamaBuilt() {
				fmt.Fprintln(out, "  !! this binary cannot load models; rebuild with -tags llama or use --engine mock")
				problems++
			}

			dev := device.New(cfg.MinMemoryMB, cfg.RecommendedMemoryMB)
			v := dev.Check()
			if v.Stat.TotalMB > 0 {
				fmt.Fprintf(out, "memory: %d MB total, %d MB available (floor %d MB, recommended %d MB)\n",
					v.Stat.TotalMB, v.Stat.AvailableMB, cfg.MinMemoryMB, cfg.RecommendedMemoryMB)
			} else {
				fmt.Fprintln(out, "memory: unknown (probe unavailable on this host)")
			}
			switch {
			case !v.Capable:
				fmt.Fprintf(out, "  !! %s\n", v.Warning)
				problems++
			case v.Warning != "":
				fmt.Fprintf(out, "  warning: %s\n", v.Warning)
			}
			if dev.LowMemory() {
				fmt.Fprintln(out, "  warning: host currently reports memory pressure")
			}

			store, err := artifact.NewStore(cfg.AssetsDir, cfg.DataDir)
			if err != nil {
				return err
			}
			src := store.SourcePath(cfg.Model)
			work, size, haveWork := store.Stat(cfg.Model)
			switch {
			case haveWork:
				fmt.Fprintf(out, "model: %s (%d bytes, working copy %s)\n", cfg.Model, size, work)
				if err := artifact.Validate(work, cfg.ExpectedSizeBytes); err != nil {
					fmt.Fprintf(out, "  !! working copy invalid: %v\n", err)
					problems++
				} else if format, err := artifact.Sniff(work); err == nil {
					fmt.Fprintf(out, "  format: %s\n", format)
				}
			case fsutil.PathExists(src):
				fmt.Fprintf(out, "model: %s (packaged at %s, copied on first initialize)\n", cfg.Model, src)
				if format, err := artifact.Sniff(src); err == nil {
					fmt.Fprintf(out, "  format: %s\n", format)
				}
			default:
				fmt.Fprintf(out, "model: %s\n  !! not found in %s\n", cfg.Model, store.AssetsDir())
				problems++
			}

			if problems > 0 {
				return fmt.Errorf("%d problem(s) found", problems)
			}
			fmt.Fprintln(out, "ok")
			return nil
		},
	}
}
