package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/wippyai/bridge-runtime/boundary"
	"github.com/wippyai/bridge-runtime/future"
	"github.com/wippyai/bridge-runtime/gen"
	"github.com/wippyai/bridge-runtime/metadata"
	"github.com/wippyai/bridge-runtime/wazerohost"
)

func main() {
	var (
		metaFile    = flag.String("meta", "", "Path to metadata registry file (CBOR)")
		configFile  = flag.String("config", "", "Path to bridgegen.toml generation config")
		target      = flag.String("target", "c-header", "Emitter target ("+strings.Join(gen.Names(), ", ")+")")
		outFile     = flag.String("out", "", "Output file (default stdout)")
		list        = flag.Bool("list", false, "List exports and exit")
		interactive = flag.Bool("i", false, "Interactive export browser")
		verbose     = flag.Bool("verbose", false, "Debug logging to stderr")
	)
	flag.Parse()

	if *verbose {
		log, err := zap.NewDevelopment()
		if err == nil {
			future.SetLogger(log.Named("future"))
			boundary.SetLogger(log.Named("boundary"))
			wazerohost.SetLogger(log.Named("host"))
		}
	}

	if *metaFile == "" && *configFile == "" {
		fmt.Fprintln(os.Stderr, "Usage: bridgegen -meta <registry.cbor> [-target name] [-out file]")
		fmt.Fprintln(os.Stderr, "       bridgegen -meta <registry.cbor> -list")
		fmt.Fprintln(os.Stderr, "       bridgegen -meta <registry.cbor> -i  (interactive browser)")
		fmt.Fprintln(os.Stderr, "       bridgegen -config <bridgegen.toml>")
		os.Exit(1)
	}

	if err := run(*metaFile, *configFile, *target, *outFile, *list, *interactive); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(metaFile, configFile, target, outFile string, list, interactive bool) error {
	var cfg *Config
	if configFile != "" {
		var err error
		cfg, err = LoadConfig(configFile)
		if err != nil {
			return err
		}
		if metaFile == "" {
			metaFile = cfg.Meta
		}
	}

	reg, err := loadRegistry(metaFile)
	if err != nil {
		return err
	}

	if interactive {
		return runInteractive(metaFile, reg)
	}
	if list {
		printExports(reg)
		return nil
	}

	if cfg != nil && len(cfg.Emit) > 0 {
		return emitAll(cfg, reg)
	}
	return emitOne(reg, target, outFile)
}

func loadRegistry(path string) (*metadata.Registry, error) {
	if path == "" {
		return nil, fmt.Errorf("no metadata registry given (use -meta or the config's meta key)")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read registry: %w", err)
	}
	return metadata.UnmarshalRegistry(data)
}

func emitOne(reg *metadata.Registry, target, outFile string) error {
	e, err := gen.Lookup(target)
	if err != nil {
		return err
	}

	if outFile == "" {
		return e.Emit(os.Stdout, reg)
	}
	f, err := os.Create(outFile)
	if err != nil {
		return fmt.Errorf("create %s: %w", outFile, err)
	}
	defer f.Close()
	if err := e.Emit(f, reg); err != nil {
		return fmt.Errorf("emit %s: %w", target, err)
	}
	fmt.Printf("Wrote %s (%s)\n", outFile, target)
	return nil
}

func emitAll(cfg *Config, reg *metadata.Registry) error {
	for _, em := range cfg.Emit {
		e, err := gen.Lookup(em.Target)
		if err != nil {
			return err
		}
		name := em.File
		if name == "" {
			name = "bridge" + e.FileExt()
		}
		if err := emitOne(reg, em.Target, filepath.Join(cfg.OutDir, name)); err != nil {
			return err
		}
	}
	return nil
}

var (
	moduleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	exportStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	typeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	asyncStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFB86C"))
)

func printExports(reg *metadata.Registry) {
	module := ""
	for _, rec := range reg.Records {
		if rec.Module != module {
			module = rec.Module
			fmt.Println(moduleStyle.Render("module " + module))
		}
		fmt.Printf("  %s\n", formatRecord(rec))
	}
	if len(reg.Objects) > 0 {
		fmt.Println(moduleStyle.Render("objects"))
		for _, name := range reg.Objects {
			fmt.Printf("  %s\n", typeStyle.Render(name))
		}
	}
}

func formatRecord(rec metadata.Record) string {
	var params []string
	for i, p := range rec.Params {
		name := p.Name
		if name == "" {
			name = fmt.Sprintf("arg%d", i)
		}
		params = append(params, name+": "+typeStyle.Render(p.Type))
	}
	s := exportStyle.Render(rec.QualifiedName()) + "(" + strings.Join(params, ", ") + ")"
	if rec.Result != "" {
		s += " -> " + typeStyle.Render(rec.Result)
	}
	if rec.Throws != "" {
		s += " throws " + typeStyle.Render(rec.Throws)
	}
	if rec.Async {
		s += " " + asyncStyle.Render("[async]")
	}
	return s
}
