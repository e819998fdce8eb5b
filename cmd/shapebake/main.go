// shapebake collapses modifier stacks of scene objects into static
// geometry while keeping their shape keys.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/Faultbox/shapebake/internal/bake"
	"github.com/Faultbox/shapebake/internal/config"
	"github.com/Faultbox/shapebake/internal/logger"
	"github.com/Faultbox/shapebake/internal/scene"
	"github.com/Faultbox/shapebake/pkg/formats"
	"github.com/Faultbox/shapebake/pkg/mesh"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "bake", "apply":
		cmdBake(args)
	case "inspect", "info":
		cmdInspect(args)
	case "config":
		cmdConfig(args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`shapebake - apply modifiers while keeping shape keys

Usage:
  shapebake <command> [options]

Commands:
  bake <scene.yaml>      Collapse the selected objects and write the result
  inspect <scene.yaml>   Show shape-key divergence and modifier classification
  config                 Print or write the default configuration

Bake options:
  -active <name>         Active object (overrides the scene document)
  -select <a,b,...>      Selected objects (overrides the scene document)
  -parallel <n>          Concurrent shape-key evaluations
  -skip <kinds>          Modifier kinds kept live (default armature)
  -no-merge              Keep one collapsed object per source
  -keep-source           Leave source objects visible
  -zstd                  Compress the output
  -o <path>              Output path (default <scene>_baked.yaml)

Config options:
  -o <path>              Write the default config to a file
  -save                  Write the default config to the user config directory

Examples:
  shapebake inspect character.yaml
  shapebake bake -parallel 4 character.yaml
  shapebake bake -active Body -select Body,Hair -o out.yaml.zst character.yaml`)
}

func fatal(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}

// setup loads configuration with the given flag overrides and starts
// logging. The caller must defer logger.Sync.
func setup(flags *config.Flags) *config.Config {
	cfg, err := config.Load(flags.Config, flags)
	if err != nil {
		fatal("config: %v", err)
	}
	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fatal("logger: %v", err)
	}
	logger.Sugar.Debugf("config: %+v", cfg)
	return cfg
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func cmdBake(args []string) {
	fs := flag.NewFlagSet("bake", flag.ExitOnError)
	flags := config.RegisterFlags(fs)
	active := fs.String("active", "", "Active object name")
	selected := fs.String("select", "", "Comma-separated selected object names")
	fs.Parse(args)

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: shapebake bake [options] <scene.yaml>")
		os.Exit(1)
	}
	input := fs.Arg(0)

	cfg := setup(flags)
	defer logger.Sync()

	doc, err := formats.ParseSceneFile(input)
	if err != nil {
		fatal("%v", err)
	}
	if *active != "" {
		doc.Active = *active
	}
	if *selected != "" {
		doc.Selected = splitList(*selected)
	}

	activeObj, err := doc.ActiveObject()
	if err != nil {
		fatal("%v", err)
	}
	selection, err := doc.SelectedObjects()
	if err != nil {
		fatal("%v", err)
	}

	policy, err := bake.PolicyFromConfig(cfg.Bake)
	if err != nil {
		fatal("%v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	s := scene.New()
	s.Add(doc.Objects...)

	res, err := bake.ApplyAndMerge(ctx, s, activeObj, selection, bake.Options{
		Policy:     policy,
		HideSource: cfg.Bake.HideSource,
		Merge:      cfg.Bake.Merge,
	})
	if err != nil {
		logger.Error("bake failed", zap.Error(err))
		fatal("%v", err)
	}

	for _, w := range res.Warnings {
		fmt.Fprintf(os.Stderr, "Warning: %s\n", w)
	}
	for src, keys := range res.Lost {
		fmt.Fprintf(os.Stderr, "Lost shape keys on %s: %s\n", src, strings.Join(keys, ", "))
	}

	doc.Objects = s.Objects()
	doc.Active = res.Reference.Name
	doc.Selected = nil
	for _, obj := range res.Collapsed {
		doc.Selected = append(doc.Selected, obj.Name)
	}

	output := cfg.IO.Output
	if output == "" {
		output = defaultOutput(input, cfg.IO.Compress)
	}
	if err := formats.WriteSceneFile(output, doc, cfg.IO.Compress); err != nil {
		fatal("%v", err)
	}
	logger.Info("bake written",
		zap.String("output", output),
		zap.Int("objects", len(res.Collapsed)),
		zap.Int("warnings", len(res.Warnings)),
	)

	for _, obj := range res.Collapsed {
		fmt.Printf("%-24s %6d vertices %3d shape keys %2d modifiers\n",
			obj.Name, obj.Data.VertexCount(), len(obj.Data.ShapeKeys), len(obj.Modifiers))
	}
	fmt.Printf("Written to %s\n", output)
}

// defaultOutput derives "<name>_baked.yaml" next to the input scene.
func defaultOutput(input string, compress bool) string {
	base := strings.TrimSuffix(input, formats.CompressedExt)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	out := base + "_baked.yaml"
	if compress {
		out += formats.CompressedExt
	}
	return out
}

func cmdInspect(args []string) {
	fs := flag.NewFlagSet("inspect", flag.ExitOnError)
	flags := config.RegisterFlags(fs)
	fs.Parse(args)

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: shapebake inspect [options] <scene.yaml>")
		os.Exit(1)
	}

	cfg := setup(flags)
	defer logger.Sync()

	doc, err := formats.ParseSceneFile(fs.Arg(0))
	if err != nil {
		fatal("%v", err)
	}
	policy, err := bake.PolicyFromConfig(cfg.Bake)
	if err != nil {
		fatal("%v", err)
	}

	fmt.Printf("Scene:    %s\n", fs.Arg(0))
	fmt.Printf("Objects:  %d\n", len(doc.Objects))
	fmt.Printf("Active:   %s\n", doc.Active)
	fmt.Printf("Selected: %s\n", strings.Join(doc.Selected, ", "))

	for _, obj := range doc.Objects {
		fmt.Println()
		if !obj.IsMesh() {
			fmt.Printf("%s (%s)\n", obj.Name, obj.Type)
			continue
		}
		printMesh(obj, policy)
	}
}

func printMesh(obj *mesh.Object, policy bake.Policy) {
	m := obj.Data
	fmt.Printf("%s (mesh %q, %d vertices, %d faces)\n", obj.Name, m.Name, m.VertexCount(), len(m.Faces))

	if m.HasShapeKeys() {
		fmt.Println("  Shape keys:")
		for _, d := range bake.DetectChanges(m) {
			status := "unchanged"
			if d.Diverges {
				status = fmt.Sprintf("%d vertices moved", d.Moved.GetCardinality())
			}
			fmt.Printf("    %-20s %s  %s\n", d.Name, d.Fingerprint.Short(), status)
		}
	}

	if len(obj.Modifiers) == 0 {
		return
	}
	cls := bake.Classify(obj, policy)
	fmt.Println("  Modifiers:")
	for _, e := range cls.Entries {
		fmt.Printf("    %-20s %-12s %s\n", e.Modifier.Name, e.Modifier.TypeName(), e.Class)
	}
	for _, w := range cls.Warnings {
		fmt.Printf("  Warning: %s\n", w.Message)
	}
}

func cmdConfig(args []string) {
	fs := flag.NewFlagSet("config", flag.ExitOnError)
	output := fs.String("o", "", "Write the default config to this path instead of stdout")
	save := fs.Bool("save", false, "Write the default config to the user config directory")
	fs.Parse(args)

	cfg := config.Default()
	if *save {
		if err := cfg.Save(); err != nil {
			fatal("%v", err)
		}
		fmt.Printf("Written to %s\n", config.DefaultPath())
		return
	}
	if *output != "" {
		if err := cfg.SaveTo(*output); err != nil {
			fatal("%v", err)
		}
		fmt.Printf("Written to %s\n", *output)
		return
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		fatal("%v", err)
	}
	os.Stdout.Write(data)
}
