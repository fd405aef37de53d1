package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/canvaslayout/pkg/pipeline"
)

// renderCommand creates the render command for drawing laid-out workflows.
// It supports multiple output formats in one run (DOT, SVG, layout JSON).
func (c *CLI) renderCommand() *cobra.Command {
	var (
		output     string
		formatsStr string
		detailed   bool
		flags      layoutFlags
	)

	cmd := &cobra.Command{
		Use:   "render [workflow.json]",
		Short: "Render a laid-out workflow to DOT, SVG or JSON",
		Long: `Render a laid-out workflow to DOT, SVG or JSON.

The workflow is laid out first (see 'layout') and every block is pinned at
its computed position. SVG output is drawn by Graphviz.

With one format, -o names the output file ("-" for stdout). With several,
-o is a base path and each file gets the format as its extension.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := flags.options(cmd)
			if err != nil {
				return err
			}
			opts.Formats = parseFormats(formatsStr)
			opts.Detailed = detailed
			if err := pipeline.ValidateFormats(opts.Formats); err != nil {
				return err
			}
			return c.runRender(cmd.Context(), args[0], output, flags.noCache, opts)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "output format(s): svg (default), dot, json (comma-separated)")
	cmd.Flags().BoolVar(&detailed, "detailed", false, "draw containers and disabled blocks with distinct styles")
	flags.register(cmd)

	_ = cmd.RegisterFlagCompletionFunc("format", cobra.FixedCompletions(
		pipeline.ValidFormats, cobra.ShellCompDirectiveNoFileComp))

	return cmd
}

// runRender lays out and renders input, then writes one file per format.
func (c *CLI) runRender(ctx context.Context, input, output string, noCache bool, opts pipeline.Options) error {
	prog := newProgress(c.Logger)
	c.Logger.Infof("Rendering %s", input)

	doc, err := pipeline.Load(input)
	if err != nil {
		return fmt.Errorf("load workflow %s: %w", input, err)
	}

	runner, err := c.newRunner(noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	spinner := newSpinner(ctx, "Rendering...")
	spinner.Start()

	res, err := runner.Execute(ctx, doc, opts)
	if err != nil {
		spinner.StopWithError("Render failed")
		return fmt.Errorf("render: %w", err)
	}
	spinner.Stop()

	formats := res.Formats()
	if len(formats) == 1 && output == "-" {
		_, err := out.Write(res.Artifacts[formats[0]])
		return err
	}

	var paths []string
	for _, format := range formats {
		path := outputPath(input, output, format, len(formats) == 1)
		if err := os.WriteFile(path, res.Artifacts[format], 0o644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		c.Logger.Debugf("Wrote %s (%d bytes)", path, len(res.Artifacts[format]))
		paths = append(paths, path)
	}
	prog.done("Render complete")

	printSuccess("Rendered %s", strings.Join(formats, ", "))
	for _, p := range paths {
		printFile(p)
	}
	printStats(res.Stats.BlockCount, res.Stats.EdgeCount, res.CacheInfo.LayoutHit && res.CacheInfo.RenderHit)
	printLayoutWarnings(res)

	return nil
}

// outputPath returns the file for format. A single format may be written
// to output directly; otherwise output is a base path.
func outputPath(input, output, format string, single bool) string {
	if single && output != "" && filepath.Ext(output) != "" {
		return output
	}
	return basePath(output, input) + formatExt(format)
}

// formatExt keeps layout JSON from overwriting a .json input document.
func formatExt(format string) string {
	if format == pipeline.FormatJSON {
		return ".layout.json"
	}
	return "." + format
}

// basePath derives the base output path from the output and input file paths.
// If output is empty, it strips the extension from input. A known format
// extension on output is stripped too.
func basePath(output, input string) string {
	if output == "" {
		if input == "-" {
			return "workflow"
		}
		return strings.TrimSuffix(input, filepath.Ext(input))
	}
	ext := filepath.Ext(output)
	if slices.Contains(pipeline.ValidFormats, strings.TrimPrefix(ext, ".")) {
		return strings.TrimSuffix(output, ext)
	}
	return output
}
