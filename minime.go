/*
  MiniMe: the command line front end of the interpreter.

  minime [flags] [file ...]

  Files are loaded in order; "-" or no file at all starts the REPL.
*/
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"

	"github.com/nukata/minime-in-go/scheme"
)

const (
	historyFile = ".minime_history"
	promptMain  = "1 ]=> "
	promptCont  = "... "
)

func usage(fs *flag.FlagSet) func() {
	return func() {
		fmt.Fprintf(fs.Output(), `MiniMe Scheme %s

Usage:
  minime [flags] [file ...]   Load each file; "-" starts the REPL.

Flags:
`, scheme.Version)
		fs.PrintDefaults()
	}
}

// Main runs the interpreter with the command line args and returns the
// exit status.
func Main(args []string) int {
	fs := flag.NewFlagSet("minime", flag.ContinueOnError)
	fs.Usage = usage(fs)
	heap := fs.Int("heap", scheme.DefaultHeapSize, "arena size in bytes")
	unchecked := fs.Bool("unchecked", false, "skip type checks in object accessors")
	emacs := fs.Bool("emacs", false, "talk to an Emacs inferior-scheme buffer")
	verbose := fs.Bool("v", false, "log at debug level")
	stats := fs.Bool("stats", false, "report heap and symbol table usage on exit")
	expr := fs.String("e", "", "evaluate `expr` and print its value")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	in := scheme.New(scheme.Config{
		HeapSize:  *heap,
		Unchecked: *unchecked,
		Logger:    logger,
	})
	if *stats {
		defer reportStats(in, logger)
	}

	files := fs.Args()
	if len(files) == 0 && *expr == "" {
		files = []string{"-"}
	}
	if *expr != "" {
		v, err := in.EvalString(*expr)
		if err != nil {
			fmt.Fprintln(os.Stderr, ";"+err.Error())
			return 1
		}
		scheme.NewConsole(in, "").Result(v)
	}
	for _, name := range files {
		if name == "-" {
			repl(in, *emacs)
			continue
		}
		file, err := os.Open(name)
		if err != nil {
			fmt.Fprintln(os.Stderr, ";"+err.Error())
			return 1
		}
		logger.Debug("loading", "file", name)
		_, err = in.ReadEvalLoop(file)
		file.Close()
		if err != nil {
			in.Output().Flush()
			fmt.Fprintln(os.Stderr, ";"+err.Error())
			return 1
		}
	}
	in.Output().Flush()
	return 0
}

func reportStats(in *scheme.Interp, logger *slog.Logger) {
	h, s := in.Heap(), in.SymbolStats()
	logger.Info("heap", "used", h.Used(), "remaining", h.Remaining(), "size", h.Size())
	logger.Info("symbols", "count", s.Symbols, "buckets", s.Buckets,
		"used", s.UsedBuckets, "longest", s.MaxChain)
	fmt.Fprintf(os.Stderr, ";heap: %d of %d bytes used\n", h.Used(), h.Size())
	fmt.Fprintf(os.Stderr, ";symbols: %d in %d of %d buckets, longest chain %d\n",
		s.Symbols, s.UsedBuckets, s.Buckets, s.MaxChain)
}

// repl runs the interactive loop. Line editing is used only on a
// terminal; otherwise the console front end reads standard input.
func repl(in *scheme.Interp, emacs bool) {
	switch {
	case emacs:
		cwd, _ := os.Getwd()
		in.ReadEvalPrintLoop(nil, scheme.NewEmacs(in, cwd))
	case isTerminal(os.Stdin):
		lineRepl(in)
	default:
		in.ReadEvalPrintLoop(nil, scheme.NewConsole(in, ""))
	}
}

func isTerminal(f *os.File) bool {
	fi, err := f.Stat()
	return err == nil && fi.Mode()&os.ModeCharDevice != 0
}

func lineRepl(in *scheme.Interp) {
	fmt.Printf("MiniMe Scheme %s\nCtrl+C cancels input, Ctrl+D exits.\n", scheme.Version)

	home, _ := os.UserHomeDir()
	histPath := filepath.Join(home, historyFile)

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	if f, err := os.Open(histPath); err == nil {
		ln.ReadHistory(f)
		f.Close()
	}
	defer func() {
		if f, err := os.Create(histPath); err == nil {
			ln.WriteHistory(f)
			f.Close()
		}
	}()

	console := scheme.NewConsole(in, "")
	for {
		src, data, ok, err := readData(ln, in)
		if !ok {
			fmt.Println()
			return
		}
		if strings.TrimSpace(src) == "" {
			continue
		}
		ln.AppendHistory(strings.ReplaceAll(src, "\n", " "))
		if err != nil {
			console.Error(err)
			continue
		}
		for _, x := range data {
			v, err := in.SafeEval(x, in.Global())
			if err != nil {
				in.Logger().Debug("evaluation failed", "error", err)
				console.Error(err)
				break
			}
			console.Result(v)
		}
	}
}

// readData reads lines until they hold complete data. It reports false
// at the end of input.
func readData(ln *liner.State, in *scheme.Interp) (string, []scheme.Value, bool, error) {
	var b strings.Builder
	for {
		prompt := promptMain
		if b.Len() > 0 {
			prompt = promptCont
		}
		line, err := ln.Prompt(prompt)
		if errors.Is(err, io.EOF) {
			return "", nil, false, nil
		}
		if err != nil { // liner.ErrPromptAborted
			return "", nil, true, nil
		}
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line)

		src := b.String()
		data, err := in.ReadAll(src)
		if err != nil && scheme.IsIncomplete(err) {
			continue
		}
		return src, data, true, err
	}
}

func main() {
	os.Exit(Main(os.Args[1:]))
}
