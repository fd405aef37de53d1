package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/canvaslayout/pkg/graph"
	"github.com/matzehuels/canvaslayout/pkg/pipeline"
)

// layoutCommand creates the layout command for computing block positions.
func (c *CLI) layoutCommand() *cobra.Command {
	var (
		output string
		flags  layoutFlags
	)

	cmd := &cobra.Command{
		Use:   "layout [workflow.json]",
		Short: "Compute auto-layout positions for a workflow canvas",
		Long: `Compute auto-layout positions for a workflow canvas.

The layout command reads a workflow document (JSON or YAML, "-" for stdin)
and writes a layout.json file holding the position, layer and fitted
container size of every block. Nested blocks get positions relative to
their container.

Options resolve from defaults, then --config, then the document's own
"options" block, then any flag given on the command line.

Results are cached locally for faster subsequent runs.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := flags.options(cmd)
			if err != nil {
				return err
			}
			return c.runLayout(cmd.Context(), args[0], output, flags.noCache, opts)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", `output file (default: <input>.layout.json, "-" for stdout)`)
	flags.register(cmd)

	return cmd
}

// runLayout loads the document, computes the layout and writes it out.
func (c *CLI) runLayout(ctx context.Context, input, output string, noCache bool, opts pipeline.Options) error {
	doc, err := pipeline.Load(input)
	if err != nil {
		return fmt.Errorf("load workflow %s: %w", input, err)
	}

	runner, err := c.newRunner(noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	opts.Formats = []string{pipeline.FormatJSON}

	spinner := newSpinner(ctx, "Computing layout...")
	spinner.Start()

	res, err := runner.Execute(ctx, doc, opts)
	if err != nil {
		spinner.StopWithError("Layout failed")
		return fmt.Errorf("compute layout: %w", err)
	}
	spinner.Stop()

	outputPath := layoutOutputPath(input, output)
	if outputPath == "-" {
		return graph.WriteLayout(res.Layout, out)
	}
	if err := graph.WriteLayoutFile(res.Layout, outputPath); err != nil {
		return fmt.Errorf("write output %s: %w", outputPath, err)
	}

	printSuccess("Layout complete")
	printFile(outputPath)
	printStats(res.Stats.BlockCount, res.Stats.EdgeCount, res.CacheInfo.LayoutHit)
	printLayers(res.Layout)
	printLayoutWarnings(res)
	printNewline()
	printNextStep("Render", appName+" render "+input)

	return nil
}

// layoutOutputPath picks the layout file for input. Stdin input without an
// explicit output goes to stdout.
func layoutOutputPath(input, output string) string {
	switch {
	case output != "":
		return output
	case input == "-":
		return "-"
	}
	return strings.TrimSuffix(input, filepath.Ext(input)) + ".layout.json"
}

func printLayoutWarnings(res *pipeline.Result) {
	if len(res.Repaired) > 0 {
		printWarning("Moved %d blocks with a missing parent to the top level", len(res.Repaired))
		printDetail("%s", truncateList(res.Repaired, 6))
	}
	if n := len(res.DroppedEdges); n > 0 {
		edges := make([]string, n)
		for i, e := range res.DroppedEdges {
			edges[i] = e.Source + "->" + e.Target
		}
		printWarning("Ignored %d edges to blocks that do not exist", n)
		printDetail("%s", truncateList(edges, 6))
	}
	if len(res.Layout.Unresolved) > 0 {
		printWarning("%d blocks sit on a cycle and kept their order", len(res.Layout.Unresolved))
		printDetail("%s", truncateList(res.Layout.Unresolved, 6))
	}
}
