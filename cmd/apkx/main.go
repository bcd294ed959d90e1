// Command apkx lists and extracts .apk archives.
//
// Usage:
//
//	apkx [flags] ARCHIVE...
//
// Each archive is extracted under the -C directory. An archive argument
// may be a local path or an http(s) URL, which is read with range requests.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"text/tabwriter"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"

	"github.com/meigma/apk"
	apkhttp "github.com/meigma/apk/http"
)

type config struct {
	dir          string
	list         bool
	digest       bool
	workers      int
	keepGoing    bool
	skipExisting bool
	charset      string
	maxFiles     uint
	verbose      bool
	archives     []string
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run executes the command and returns the process exit status.
func run(args []string, stdout, stderr io.Writer) int {
	cfg, err := parseFlags(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	level := slog.LevelInfo
	if cfg.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	opts, err := archiveOptions(cfg, logger)
	if err != nil {
		logger.Error("invalid flags", "error", err)
		return 2
	}

	status := 0
	for _, name := range cfg.archives {
		if err := process(cfg, name, opts, stdout, logger); err != nil {
			logger.Error("failed", "archive", name, "error", err)
			status = 1
		}
	}
	return status
}

func parseFlags(args []string, stderr io.Writer) (config, error) {
	var cfg config
	fset := flag.NewFlagSet("apkx", flag.ContinueOnError)
	fset.SetOutput(stderr)
	fset.Usage = func() {
		fmt.Fprintln(stderr, "usage: apkx [flags] ARCHIVE...")
		fset.PrintDefaults()
	}
	fset.StringVar(&cfg.dir, "C", ".", "extract into `dir`")
	fset.BoolVar(&cfg.list, "l", false, "list entries instead of extracting")
	fset.BoolVar(&cfg.digest, "digest", false, "include sha256 digests in the listing")
	fset.IntVar(&cfg.workers, "j", 0, "extraction workers: <=1 serial")
	fset.BoolVar(&cfg.keepGoing, "k", false, "keep going past per-file failures")
	fset.BoolVar(&cfg.skipExisting, "skip-existing", false, "skip files that already exist")
	fset.StringVar(&cfg.charset, "charset", "", "path charset, e.g. windows-1252 (default strict UTF-8)")
	fset.UintVar(&cfg.maxFiles, "max-files", apk.DefaultMaxFiles, "maximum declared entry count")
	fset.BoolVar(&cfg.verbose, "v", false, "debug logging")
	if err := fset.Parse(args); err != nil {
		return cfg, err
	}
	cfg.archives = fset.Args()
	if len(cfg.archives) == 0 {
		fset.Usage()
		return cfg, errors.New("no archives")
	}
	return cfg, nil
}

// archiveOptions translates flags into archive options.
func archiveOptions(cfg config, logger *slog.Logger) ([]apk.Option, error) {
	if cfg.maxFiles > uint(^uint32(0)) {
		return nil, fmt.Errorf("max-files %d out of range", cfg.maxFiles)
	}
	opts := []apk.Option{
		apk.WithLogger(logger),
		apk.WithMaxFiles(uint32(cfg.maxFiles)),
	}
	enc, err := pathEncoding(cfg.charset)
	if err != nil {
		return nil, err
	}
	if enc != nil {
		opts = append(opts, apk.WithPathEncoding(enc))
	}
	return opts, nil
}

// pathEncoding resolves a charset label. UTF-8 maps to nil, which keeps
// strict validation.
func pathEncoding(label string) (encoding.Encoding, error) {
	if label == "" {
		return nil, nil
	}
	enc, err := htmlindex.Get(label)
	if err != nil {
		return nil, fmt.Errorf("charset %q: %w", label, err)
	}
	if name, _ := htmlindex.Name(enc); name == "utf-8" {
		return nil, nil
	}
	return enc, nil
}

// openArchive opens a local file or a remote URL.
func openArchive(name string, opts []apk.Option, logger *slog.Logger) (*apk.Archive, error) {
	if strings.HasPrefix(name, "http://") || strings.HasPrefix(name, "https://") {
		src, err := apkhttp.NewSource(name, apkhttp.WithLogger(logger), apkhttp.WithConditionalHeaders())
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		return apk.New(src, opts...)
	}
	return apk.Open(name, opts...)
}

func process(cfg config, name string, opts []apk.Option, stdout io.Writer, logger *slog.Logger) error {
	a, err := openArchive(name, opts, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	if cfg.list {
		return list(a, cfg.digest, stdout)
	}

	logger.Info("extracting", "archive", name, "files", a.Len(), "dest", cfg.dir)
	stats, err := a.ExtractAll(cfg.dir,
		apk.ExtractWithWorkers(cfg.workers),
		apk.ExtractWithContinueOnError(cfg.keepGoing),
		apk.ExtractWithSkipExisting(cfg.skipExisting),
	)
	logger.Info("done",
		"archive", name,
		"files", stats.FileCount,
		"bytes", stats.TotalBytes,
		"skipped", stats.Skipped,
		"failed", stats.Failed,
	)
	return err
}

func list(a *apk.Archive, withDigest bool, stdout io.Writer) error {
	tw := tabwriter.NewWriter(stdout, 0, 8, 2, ' ', 0)
	for entry := range a.Entries() {
		if !withDigest {
			fmt.Fprintf(tw, "%d\t%s\n", entry.DataSize, entry.Path)
			continue
		}
		dgst, err := a.Digest(entry.Path)
		if err != nil {
			return err
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\n", entry.DataSize, dgst, entry.Path)
	}
	return tw.Flush()
}
