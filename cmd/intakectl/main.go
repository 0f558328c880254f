package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"text/tabwriter"
	"time"

	"golang.org/x/term"

	"media-intake/internal/decode"
	"media-intake/internal/filesystem"
	"media-intake/internal/intake"
	"media-intake/internal/logging"
	"media-intake/internal/preview"
	"media-intake/internal/sizes"
	"media-intake/internal/store"
	"media-intake/internal/workers"
)

const (
	exitAccepted = 0
	exitRejected = 1
	exitError    = 2

	defaultTimeout     = 30 * time.Second
	defaultDatabaseDir = "./data"
)

type options struct {
	policy  intake.PolicyConfig
	preview preview.Config
	width   float64
	json    bool
	record  bool
	files   []string
}

// fileReport is one line of output.
type fileReport struct {
	Name     string            `json:"name"`
	Type     string            `json:"type"`
	Size     int64             `json:"size"`
	Accepted bool              `json:"accepted"`
	Kind     intake.ErrorKind  `json:"kind,omitempty"`
	Detail   string            `json:"detail,omitempty"`
	Preview  *preview.Geometry `json:"preview,omitempty"`
	Note     string            `json:"note,omitempty"`
}

type report struct {
	Policy  string       `json:"policy"`
	EventID string       `json:"eventId,omitempty"`
	Files   []fileReport `json:"files"`
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Fprintln(os.Stderr, "\nInterrupted, shutting down...")
		cancel()
	}()

	isTTY := term.IsTerminal(int(os.Stdout.Fd())) //nolint:gosec // file descriptors fit in int
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr, isTTY)
	cancel()
	os.Exit(code)
}

func parseFlags(args []string, stderr io.Writer) (*options, error) {
	opts := &options{preview: preview.DefaultConfig()}

	fs := flag.NewFlagSet("intakectl", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.policy.Accept, "accept", "", "accept list, e.g. \"image/*,.pdf\"")
	fs.StringVar(&opts.policy.MinFileSize, "min-size", "", "minimum file size, e.g. 1KB")
	fs.StringVar(&opts.policy.MaxFileSize, "max-size", "", "maximum file size, e.g. 5MB")
	fs.StringVar(&opts.policy.MaxTotalFileSize, "max-total", "", "maximum total size of the batch")
	single := fs.Bool("single", false, "accept only one file")
	fs.Float64Var(&opts.width, "width", 0, "container width previews are laid out in")
	fs.IntVar(&opts.preview.Height, "height", 0, "fixed preview height")
	fs.IntVar(&opts.preview.MinHeight, "min-height", opts.preview.MinHeight, "minimum preview height")
	fs.IntVar(&opts.preview.MaxHeight, "max-height", opts.preview.MaxHeight, "maximum preview height")
	fs.Float64Var(&opts.preview.Zoom, "zoom", opts.preview.Zoom, "preview zoom factor")
	fs.BoolVar(&opts.preview.Upscale, "upscale", false, "allow previews taller than the image")
	fs.StringVar(&opts.preview.AspectRatio, "aspect-ratio", "", "panel aspect ratio W:H")
	fs.StringVar(&opts.preview.Layout, "layout", opts.preview.Layout, "panel layout: integrated, compact or circle")
	fs.BoolVar(&opts.json, "json", false, "always print JSON")
	fs.BoolVar(&opts.record, "record", false, "store the batch in the ledger under DATABASE_DIR")
	fs.Usage = func() {
		fmt.Fprintln(stderr, "Usage: intakectl [flags] path...")
		fmt.Fprintln(stderr, "")
		fmt.Fprintln(stderr, "Flags:")
		fs.PrintDefaults()
		fmt.Fprintln(stderr, "")
		fmt.Fprintln(stderr, "Environment:")
		fmt.Fprintf(stderr, "  DATABASE_DIR - ledger directory for -record (default: %s)\n", defaultDatabaseDir)
	}

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	opts.policy.AllowMultiple = !*single
	opts.files = fs.Args()
	if len(opts.files) == 0 {
		fs.Usage()
		return nil, errors.New("no files given")
	}
	return opts, nil
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer, isTTY bool) int {
	opts, err := parseFlags(args, stderr)
	if err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			fmt.Fprintf(stderr, "Error: %v\n", err)
		}
		return exitError
	}

	policy, err := intake.NewPolicy(opts.policy)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitError
	}
	sizer, err := preview.NewSizer(opts.preview)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitError
	}

	files, err := readFiles(opts.files)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitError
	}

	engine := intake.NewEngine(nil, policy, intake.Callbacks{})
	defer engine.Close()
	res := engine.Submit(intake.Batch{Origin: intake.OriginCLI, Files: files})

	rep := report{Policy: policy.String()}
	if opts.record {
		id, err := record(ctx, policy, files, res)
		if err != nil {
			fmt.Fprintf(stderr, "Error: failed to record batch: %v\n", err)
			return exitError
		}
		rep.EventID = id
	}

	rep.Files, err = buildReports(ctx, sizer, opts.width, files, res)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitError
	}

	if opts.json || !isTTY {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(rep); err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return exitError
		}
	} else {
		printTable(stdout, rep)
	}

	if len(res.Rejected) > 0 {
		return exitRejected
	}
	return exitAccepted
}

func readFiles(paths []string) ([]intake.File, error) {
	cfg := filesystem.DefaultRetryConfig()

	expanded, err := filesystem.Expand(paths, cfg)
	if err != nil {
		return nil, err
	}

	files := make([]intake.File, 0, len(expanded))
	for _, path := range expanded {
		content, err := filesystem.ReadFile(path, cfg)
		if err != nil {
			return nil, err
		}
		files = append(files, intake.DetectFile(filepath.Base(path), "", content))
	}
	return files, nil
}

func record(ctx context.Context, policy *intake.Policy, files []intake.File, res intake.Result) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	databaseDir := os.Getenv("DATABASE_DIR")
	if databaseDir == "" {
		databaseDir = defaultDatabaseDir
	}
	if err := os.MkdirAll(databaseDir, 0o755); err != nil {
		return "", err
	}

	ledger, err := store.New(ctx, filepath.Join(databaseDir, "intake.db"))
	if err != nil {
		return "", err
	}
	defer func() {
		if err := ledger.Close(); err != nil {
			logging.Warn("failed to close ledger: %v", err)
		}
	}()

	ev, err := ledger.RecordEvent(ctx, intake.OriginCLI, policy.String(), files, res)
	if err != nil {
		return "", err
	}
	return ev.ID, nil
}

// buildReports lays the partition back out in input order and sizes the
// previews of accepted images.
func buildReports(ctx context.Context, sizer preview.Sizer, width float64, files []intake.File, res intake.Result) ([]fileReport, error) {
	decoder, err := decode.NewService(decode.Config{Workers: workers.ForDecode(len(res.Accepted))})
	if err != nil {
		return nil, err
	}
	defer decoder.Close()

	naturals := make([]<-chan preview.NaturalSize, len(res.Accepted))
	for i, f := range res.Accepted {
		if !sizer.Eligibility.Disallowed(f) {
			naturals[i] = preview.ResolveAsync(ctx, decoder, f)
		}
	}

	reports := make([]fileReport, 0, len(files))
	ai, ri := 0, 0
	for _, f := range files {
		r := fileReport{Name: f.Name, Type: f.Type, Size: f.Size}
		if ai < len(res.Accepted) && res.Accepted[ai].Name == f.Name && res.Accepted[ai].Size == f.Size {
			r.Accepted = true
			r.Preview, r.Note = previewFor(sizer, f, naturals[ai], width)
			ai++
		} else if ri < len(res.Errors) {
			r.Kind = res.Errors[ri].Kind
			r.Detail = res.Errors[ri].Detail
			ri++
		}
		reports = append(reports, r)
	}
	return reports, ctx.Err()
}

func previewFor(sizer preview.Sizer, f intake.File, natural <-chan preview.NaturalSize, width float64) (*preview.Geometry, string) {
	if natural == nil {
		return nil, sizer.Eligibility.Reason(f)
	}
	n := <-natural
	if n.State == preview.NaturalNone && n.Err != nil {
		return nil, n.Err.Error()
	}
	g, ok := sizer.Compute(f, n, width)
	if !ok {
		return nil, "pass -width or -height to size the preview"
	}
	return &g, ""
}

func printTable(w io.Writer, rep report) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "FILE\tTYPE\tSIZE\tRESULT\tPREVIEW")
	for _, f := range rep.Files {
		result := "accepted"
		if !f.Accepted {
			result = fmt.Sprintf("%s: %s", f.Kind, f.Detail)
		}
		pv := f.Note
		if f.Preview != nil {
			pv = fmt.Sprintf("%dpx (ratio %.3g)", f.Preview.Height, f.Preview.AspectRatio)
		}
		if pv == "" {
			pv = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", f.Name, f.Type, sizes.Format(f.Size), result, pv)
	}
	_ = tw.Flush()

	fmt.Fprintf(w, "\npolicy: %s\n", rep.Policy)
	if rep.EventID != "" {
		fmt.Fprintf(w, "recorded as %s\n", rep.EventID)
	}
}
