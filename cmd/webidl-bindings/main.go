package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"
	"golang.org/x/term"

	webidlbindings "github.com/wippyai/webidl-bindings"
	"github.com/wippyai/webidl-bindings/ast"
	"github.com/wippyai/webidl-bindings/binary"
	"github.com/wippyai/webidl-bindings/text"
	"github.com/wippyai/webidl-bindings/wasm"
)

type options struct {
	wasmFile    string
	outFile     string
	fromText    string
	maxDepth    int
	check       bool
	roundTrip   bool
	validate    bool
	strip       bool
	printText   bool
	interactive bool
	verbose     bool
}

func main() {
	var opts options
	flag.StringVar(&opts.wasmFile, "wasm", "", "Path to core wasm module")
	flag.StringVar(&opts.outFile, "out", "", "Write the module with a re-encoded section to this path")
	flag.IntVar(&opts.maxDepth, "max-depth", binary.DefaultMaxDepth, "Expression nesting limit when decoding (0 = unlimited)")
	flag.BoolVar(&opts.check, "check", false, "Report expressibility of every binding and exit")
	flag.BoolVar(&opts.roundTrip, "roundtrip", false, "Re-encode the section and compare with the original bytes")
	flag.BoolVar(&opts.validate, "validate", false, "Compile the module with wazero and check bound function signatures")
	flag.BoolVar(&opts.strip, "strip", false, "Remove the section (with -out)")
	flag.BoolVar(&opts.printText, "text", false, "Print the section in text form")
	flag.StringVar(&opts.fromText, "from-text", "", "Replace the section with one parsed from this text file (with -out)")
	flag.BoolVar(&opts.interactive, "i", false, "Interactive mode with TUI")
	flag.BoolVar(&opts.verbose, "v", false, "Verbose logging")
	flag.Parse()

	if opts.wasmFile == "" {
		fmt.Fprintln(os.Stderr, "Usage: webidl-bindings -wasm <file.wasm> [-check] [-roundtrip] [-validate]")
		fmt.Fprintln(os.Stderr, "       webidl-bindings -wasm <file.wasm> -out <file.wasm> [-strip | -from-text <file.wat>]")
		fmt.Fprintln(os.Stderr, "       webidl-bindings -wasm <file.wasm> -text")
		fmt.Fprintln(os.Stderr, "       webidl-bindings -wasm <file.wasm> -i  (interactive mode)")
		os.Exit(1)
	}

	logger := zap.NewNop()
	if opts.verbose {
		var err error
		if logger, err = zap.NewDevelopment(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}
	defer func() { _ = logger.Sync() }()
	binary.SetLogger(logger)

	if err := run(context.Background(), opts, logger, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, opts options, logger *zap.Logger, out io.Writer) error {
	data, err := os.ReadFile(opts.wasmFile)
	if err != nil {
		return fmt.Errorf("read file: %w", err)
	}

	m, err := wasm.ParseModule(data)
	if err != nil {
		return fmt.Errorf("parse module: %w", err)
	}
	logger.Debug("parsed module",
		zap.String("file", opts.wasmFile),
		zap.Int("types", len(m.Types)),
		zap.Int("funcs", m.NumFuncs()),
		zap.Int("sections", len(m.Sections)))

	if opts.strip {
		if opts.outFile == "" {
			return fmt.Errorf("-strip requires -out")
		}
		if !webidlbindings.RemoveFromModule(m) {
			fmt.Fprintf(out, "%s has no %s section\n", opts.wasmFile, webidlbindings.SectionName)
		}
		return writeModule(opts.outFile, m)
	}

	if opts.fromText != "" {
		if opts.outFile == "" {
			return fmt.Errorf("-from-text requires -out")
		}
		return replaceFromText(opts, m, logger)
	}

	s, ok, err := webidlbindings.FromModule(m, binary.WithMaxDepth(opts.maxDepth))
	if err != nil {
		return fmt.Errorf("decode %s section: %w", webidlbindings.SectionName, err)
	}
	if !ok {
		fmt.Fprintf(out, "%s has no %s section\n", opts.wasmFile, webidlbindings.SectionName)
		return nil
	}

	idx := webidlbindings.NewModuleIndex(m)
	r := buildReport(s, idx)

	if opts.interactive {
		return runInteractive(opts.wasmFile, r)
	}

	color := false
	if f, ok := out.(*os.File); ok {
		color = term.IsTerminal(int(f.Fd()))
	}

	if opts.check {
		printCheck(out, r, color)
		return nil
	}

	if opts.printText {
		return text.Print(out, s, idx)
	}

	printReport(out, opts.wasmFile, r, color)

	if opts.roundTrip {
		if err := roundTrip(m, s, idx); err != nil {
			return err
		}
		fmt.Fprintln(out, "\nround trip: ok")
	}

	if opts.validate {
		problems, err := validateModule(ctx, data, s, idx, logger)
		if err != nil {
			return fmt.Errorf("validate: %w", err)
		}
		for _, p := range problems {
			fmt.Fprintln(out, "validate:", p)
		}
		if len(problems) > 0 {
			return fmt.Errorf("%d bind(s) do not match the module", len(problems))
		}
		fmt.Fprintln(out, "validate: ok")
	}

	if opts.outFile != "" {
		webidlbindings.AddToModule(m, s)
		return writeModule(opts.outFile, m)
	}
	return nil
}

// replaceFromText parses opts.fromText against m and writes m with the
// result as its section.
func replaceFromText(opts options, m *wasm.Module, logger *zap.Logger) error {
	src, err := os.ReadFile(opts.fromText)
	if err != nil {
		return fmt.Errorf("read file: %w", err)
	}
	s, err := text.Parse(string(src), webidlbindings.NewModuleIndex(m))
	if err != nil {
		return fmt.Errorf("parse %s: %w", opts.fromText, err)
	}
	logger.Debug("parsed text section",
		zap.String("file", opts.fromText),
		zap.Int("types", s.Types.Len()),
		zap.Int("bindings", s.Bindings.Len()),
		zap.Int("binds", s.Binds.Len()))

	webidlbindings.AddToModule(m, s)
	return writeModule(opts.outFile, m)
}

func roundTrip(m *wasm.Module, s *ast.Section, idx *webidlbindings.ModuleIndex) error {
	original, _ := m.CustomSection(webidlbindings.SectionName)
	encoded := binary.EncodeBytes(s, idx)
	if !bytes.Equal(original, encoded) {
		return fmt.Errorf("round trip: re-encoded section differs (%d bytes, was %d)", len(encoded), len(original))
	}
	return nil
}

func writeModule(path string, m *wasm.Module) error {
	if err := os.WriteFile(path, m.Encode(), 0o644); err != nil {
		return fmt.Errorf("write module: %w", err)
	}
	return nil
}

func printReport(out io.Writer, filename string, r report, color bool) {
	render := func(style lipgloss.Style, s string) string {
		if !color {
			return s
		}
		return style.Render(s)
	}

	fmt.Fprintf(out, "%s %s\n", render(titleStyle, "Web IDL Bindings"), filename)
	groups := []struct {
		title string
		items []item
	}{
		{"Types", r.types},
		{"Bindings", r.bindings},
		{"Binds", r.binds},
	}
	for _, g := range groups {
		fmt.Fprintf(out, "\n%s (%d):\n", g.title, len(g.items))
		for _, it := range g.items {
			style := labelStyle
			if !it.ok {
				style = errorStyle
			}
			fmt.Fprintf(out, "  %s\n", render(style, it.label))
			for _, d := range it.detail {
				fmt.Fprintf(out, "      %s\n", render(detailStyle, d))
			}
		}
	}
}

// printCheck lists each binding with its expressibility verdict.
func printCheck(out io.Writer, r report, color bool) {
	inexpressible := 0
	for _, it := range r.bindings {
		verdict := it.detail[len(it.detail)-1]
		if !it.ok {
			inexpressible++
			if color {
				verdict = errorStyle.Render(verdict)
			}
		}
		fmt.Fprintf(out, "%s\n    %s\n", it.label, verdict)
	}
	fmt.Fprintf(out, "\n%d of %d bindings expressible with default coercions\n",
		len(r.bindings)-inexpressible, len(r.bindings))
}
