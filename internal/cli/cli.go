package cli

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/canvaslayout/pkg/buildinfo"
	"github.com/matzehuels/canvaslayout/pkg/cache"
	"github.com/matzehuels/canvaslayout/pkg/graph"
	"github.com/matzehuels/canvaslayout/pkg/pipeline"
)

// appName is the application name used for directories and display.
const appName = "canvaslayout"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
}

// New creates a CLI that logs to w at level.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "canvaslayout arranges workflow canvases into readable layers",
		Long:         `canvaslayout computes auto-layout positions for workflow canvases: blocks are layered along the flow direction, grouped by shared predecessors, and nested containers are fitted around their children.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.SetOut(out)

	root.AddCommand(c.layoutCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.animateCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// newRunner creates a pipeline runner for CLI use.
func (c *CLI) newRunner(noCache bool) (*pipeline.Runner, error) {
	cc, err := newCache(noCache)
	if err != nil {
		return nil, err
	}
	return pipeline.NewRunner(cc, nil, c.Logger), nil
}

func newCache(noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	dir, err := cacheDir()
	if err != nil {
		return cache.NewNullCache(), nil
	}
	return cache.NewFileCache(dir)
}

// cacheDir returns the cache directory using XDG standard (~/.cache/canvaslayout/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// layoutFlags are the layout options shared by layout, render and animate.
//
// Only flags the user actually set become overrides, so a document's own
// "options" block still applies for everything left on the command line.
type layoutFlags struct {
	config      string
	hSpacing    float64
	vSpacing    float64
	startX      float64
	startY      float64
	align       bool
	orientation string
	maxDepth    int
	noCache     bool
	refresh     bool
}

func (f *layoutFlags) register(cmd *cobra.Command) {
	d := pipeline.DefaultOptions()
	fl := cmd.Flags()
	fl.StringVarP(&f.config, "config", "c", "", "TOML file with pipeline options")
	fl.Float64Var(&f.hSpacing, "horizontal-spacing", d.Layout.HorizontalSpacing, "base gap along the x axis")
	fl.Float64Var(&f.vSpacing, "vertical-spacing", d.Layout.VerticalSpacing, "base gap along the y axis")
	fl.Float64Var(&f.startX, "start-x", d.Layout.StartX, "layout origin x")
	fl.Float64Var(&f.startY, "start-y", d.Layout.StartY, "layout origin y")
	fl.BoolVar(&f.align, "align-by-layer", d.Layout.AlignByLayer, "layered placement (false: input order)")
	fl.StringVar(&f.orientation, "orientation", string(d.Layout.HandleOrientation), "flow direction: auto, horizontal, vertical")
	fl.IntVar(&f.maxDepth, "max-depth", d.MaxDepth, "maximum container nesting depth")
	fl.BoolVar(&f.noCache, "no-cache", false, "disable caching")
	fl.BoolVar(&f.refresh, "refresh", false, "ignore cached results")

	_ = cmd.RegisterFlagCompletionFunc("orientation", cobra.FixedCompletions(
		[]string{"auto", "horizontal", "vertical"}, cobra.ShellCompDirectiveNoFileComp))
}

// options resolves defaults, the config file and explicitly set flags.
func (f *layoutFlags) options(cmd *cobra.Command) (pipeline.Options, error) {
	opts := pipeline.DefaultOptions()
	if f.config != "" {
		if err := pipeline.LoadConfig(f.config, &opts); err != nil {
			return opts, err
		}
	}

	fl := cmd.Flags()
	ov := &graph.Options{}
	if fl.Changed("horizontal-spacing") {
		ov.HorizontalSpacing = &f.hSpacing
	}
	if fl.Changed("vertical-spacing") {
		ov.VerticalSpacing = &f.vSpacing
	}
	if fl.Changed("start-x") {
		ov.StartX = &f.startX
	}
	if fl.Changed("start-y") {
		ov.StartY = &f.startY
	}
	if fl.Changed("align-by-layer") {
		ov.AlignByLayer = &f.align
	}
	if fl.Changed("orientation") {
		ov.HandleOrientation = strings.ToLower(f.orientation)
	}
	if fl.Changed("max-depth") {
		opts.MaxDepth = f.maxDepth
	}
	opts.Overrides = ov
	opts.Refresh = f.refresh
	return opts, nil
}

// parseFormats parses a comma-separated format string into a slice.
func parseFormats(s string) []string {
	if s == "" {
		return []string{pipeline.DefaultFormat}
	}
	return strings.Split(s, ",")
}
