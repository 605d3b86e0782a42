// formsplit splits stored multipart bodies (for example captured
// multipart/form-data uploads) into their parts.
//
// Every FILE is decoded into its own directory under --out, named after the
// file without its extension; inputs that would share a directory are
// rejected before anything is written. The directory holds one file per part, named
// from the part's filename or form name, and headers.txt with the header
// block of every part. Files are decoded concurrently, up to --jobs at once.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"github.com/mnightingale/rapidmultipart"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	var opts splitOptions
	var contentType string
	var jobs int
	var verbose bool

	flagSet := pflag.NewFlagSet("formsplit", pflag.ContinueOnError)
	flagSet.StringVar(&opts.boundary, "boundary", "", "multipart boundary token")
	flagSet.StringVar(&contentType, "content-type", "", "Content-Type header value to take the boundary and charset from")
	flagSet.StringVar(&opts.charset, "charset", "", "charset of part header lines (default utf-8)")
	flagSet.StringVarP(&opts.outDir, "out", "o", ".", "directory to write the parts to")
	flagSet.IntVarP(&jobs, "jobs", "j", runtime.NumCPU(), "number of files decoded at once")
	flagSet.IntVar(&opts.maxHeaderBytes, "max-header-bytes", 64*1024, "largest accepted header block per part")
	flagSet.BoolVarP(&verbose, "verbose", "v", false, "log every part")
	flagSet.BoolP("help", "h", false, "show help")

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			printHelp(flagSet)
			return nil
		}
		return err
	}
	if help, _ := flagSet.GetBool("help"); help {
		printHelp(flagSet)
		return nil
	}

	if contentType != "" {
		boundary, charset, err := rapidmultipart.ParseContentType(contentType)
		if err != nil {
			return err
		}
		if opts.boundary == "" {
			opts.boundary = boundary
		}
		if opts.charset == "" {
			opts.charset = charset
		}
	}
	if opts.boundary == "" {
		return errors.New("--boundary or --content-type is required")
	}

	files := flagSet.Args()
	if len(files) == 0 {
		return errors.New("no input files")
	}
	if err := checkOutputDirs(opts.outDir, files); err != nil {
		return err
	}

	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	opts.logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	group, ctx := errgroup.WithContext(ctx)
	group.SetLimit(max(jobs, 1))
	for _, path := range files {
		group.Go(func() error {
			return splitFile(ctx, path, opts)
		})
	}
	return group.Wait()
}

func printHelp(flagSet *pflag.FlagSet) {
	fmt.Fprintf(os.Stderr, `formsplit splits multipart bodies into one file per part.

Usage:
  formsplit --boundary TOKEN [flags] FILE...
  formsplit --content-type 'multipart/form-data; boundary=TOKEN' [flags] FILE...

Flags:
%s`, flagSet.FlagUsages())
}
