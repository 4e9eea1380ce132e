// Command pidview decodes PID raster files in a WebAssembly sandbox and
// shows them in the terminal or writes them as PNG.
//
//	pidview tree.pid                 render to the terminal
//	pidview -o tree.png tree.pid     write a PNG
//	pidview -i tree.pid              interactive viewer
package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/wippyai/pidview/engine"
	"github.com/wippyai/pidview/errors"
	"github.com/wippyai/pidview/present"
	"github.com/wippyai/pidview/session"
	"github.com/wippyai/pidview/source"
)

type options struct {
	output      string
	interactive bool
	info        bool
	verbose     bool
	pages       uint32
	cache       int
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := pflag.NewFlagSet("pidview", pflag.ContinueOnError)
	fs.SetOutput(stderr)

	var opts options
	fs.StringVarP(&opts.output, "output", "o", "", "write the decoded image to a PNG file")
	fs.BoolVarP(&opts.interactive, "interactive", "i", false, "open the interactive viewer")
	fs.BoolVar(&opts.info, "info", false, "print the file header and exit")
	fs.BoolVarP(&opts.verbose, "verbose", "v", false, "log decoder activity to stderr")
	fs.Uint32Var(&opts.pages, "memory-pages", engine.DefaultMemoryLimitPages, "guest memory limit in 64KiB pages")
	fs.IntVar(&opts.cache, "cache", 8, "number of decoded frames to cache (interactive mode)")
	fs.Usage = func() {
		fmt.Fprintln(stderr, "Usage: pidview [flags] FILE.pid")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		if err == pflag.ErrHelp {
			return 0
		}
		return 2
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return 2
	}
	path := fs.Arg(0)

	log := zap.NewNop()
	if opts.verbose {
		l, err := zap.NewDevelopment()
		if err == nil {
			log = l
		}
	}
	defer log.Sync()
	engine.SetLogger(log)

	errOut := color.New(color.FgRed)

	if opts.interactive {
		if err := runInteractive(path, opts, log); err != nil {
			errOut.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
		return 0
	}

	src, err := source.Open(path)
	if err != nil {
		errOut.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	if opts.info {
		return printInfo(stdout, stderr, src)
	}

	ctx := context.Background()
	dec, err := session.New(ctx, decoderConfig(opts, log, false))
	if err != nil {
		errOut.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	defer dec.Close(ctx)

	// PNG.Fail is silent; the terminal sink reports on stderr itself.
	var sink present.Sink
	if opts.output != "" {
		sink = present.NewPNG(opts.output)
	} else {
		t := present.NewTerminal(stdout)
		t.SetErrorOutput(stderr)
		sink = t
	}

	if err := dec.Load(ctx, src, sink); err != nil {
		if opts.output != "" {
			errOut.Fprintln(stderr, errors.UserMessage(err))
		}
		log.Debug("load failed", zap.Error(err))
		return 1
	}

	if opts.output != "" {
		color.New(color.FgGreen).Fprintf(stdout, "wrote %s\n", opts.output)
	}
	return 0
}

func decoderConfig(opts options, log *zap.Logger, interactive bool) session.Config {
	cfg := session.Config{
		Engine: &engine.Config{MemoryLimitPages: opts.pages},
		Logger: log,
	}
	if interactive {
		cfg.CacheEntries = opts.cache
	}
	return cfg
}

func printInfo(stdout, stderr io.Writer, src *source.Buffer) int {
	h, err := source.ReadHeader(src)
	if err != nil {
		color.New(color.FgRed).Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	label := color.New(color.FgCyan)
	label.Fprint(stdout, "file:        ")
	fmt.Fprintf(stdout, "%s (%d bytes)\n", src.Name(), src.Len())
	label.Fprint(stdout, "id:          ")
	fmt.Fprintln(stdout, h.ID)
	label.Fprint(stdout, "size:        ")
	fmt.Fprintf(stdout, "%dx%d\n", h.Width, h.Height)
	label.Fprint(stdout, "flags:       ")
	fmt.Fprintf(stdout, "0x%02x %s\n", uint32(h.Flags), h.Flags)
	label.Fprint(stdout, "compression: ")
	fmt.Fprintln(stdout, h.Flags.Compression())
	label.Fprint(stdout, "user values: ")
	fmt.Fprintln(stdout, h.UserValues)
	return 0
}
