package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"

	"github.com/bytedance/sonic"

	"github.com/goliatone/go-formsubmit/internal/prompt"
	"github.com/goliatone/go-formsubmit/pkg/formstate"
	"github.com/goliatone/go-formsubmit/pkg/payload"
	"github.com/goliatone/go-formsubmit/pkg/schema"
)

// Exit codes.
const (
	exitOK       = 0
	exitRejected = 1
	exitFailure  = 2
)

type options struct {
	source      string
	operation   string
	data        string
	interactive bool
	multi       string
	trim        bool
	sanitize    bool
	attempts    int
}

func main() {
	ctx := context.Background()
	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr, prompt.NewSurveyDriver(os.Stderr)))
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer, driver prompt.Driver) int {
	flags := flag.NewFlagSet("formsubmit-cli", flag.ContinueOnError)
	flags.SetOutput(stderr)

	var opts options
	flags.StringVar(&opts.source, "schema", "", "form schema or OpenAPI document path or URL")
	flags.StringVar(&opts.operation, "operation", "", "operation ID or method:path inside an OpenAPI document")
	flags.StringVar(&opts.data, "data", "", "urlencoded submission, for example username=ada&password=secret")
	flags.BoolVar(&opts.interactive, "interactive", false, "prompt for every field instead of reading -data")
	flags.StringVar(&opts.multi, "multi", "", "comma separated fields that keep every submitted value")
	flags.BoolVar(&opts.trim, "trim", false, "trim surrounding whitespace from text values")
	flags.BoolVar(&opts.sanitize, "sanitize", false, "strip markup from text values")
	flags.IntVar(&opts.attempts, "attempts", 3, "interactive validation rounds before giving up")
	if err := flags.Parse(args); err != nil {
		return exitFailure
	}
	if opts.source == "" {
		fmt.Fprintln(stderr, "formsubmit-cli: -schema is required")
		return exitFailure
	}

	s, err := loadSchema(ctx, opts)
	if err != nil {
		fmt.Fprintf(stderr, "formsubmit-cli: %v\n", err)
		return exitFailure
	}

	var result payload.Result[map[string]any]
	if opts.interactive {
		result, err = prompt.Interactive[map[string]any](ctx, driver, formstate.New(nil), s, prompt.FieldsFor(s), opts.attempts)
	} else {
		result, err = decode(ctx, s, opts)
	}
	if err != nil {
		if errors.Is(err, prompt.ErrAborted) {
			fmt.Fprintln(stderr, "formsubmit-cli: aborted")
		} else {
			fmt.Fprintf(stderr, "formsubmit-cli: %v\n", err)
		}
		return exitFailure
	}

	var out any = result.Value
	code := exitOK
	if !result.OK {
		out, code = result.Report(), exitRejected
	}
	raw, err := sonic.ConfigStd.MarshalIndent(out, "", "  ")
	if err != nil {
		fmt.Fprintf(stderr, "formsubmit-cli: encode: %v\n", err)
		return exitFailure
	}
	fmt.Fprintln(stdout, string(raw))
	return code
}

func loadSchema(ctx context.Context, opts options) (*schema.Schema, error) {
	src := parseSource(opts.source)
	if opts.operation == "" {
		return schema.Load(ctx, src)
	}
	doc, err := schema.ReadDocument(ctx, src, nil)
	if err != nil {
		return nil, err
	}
	return schema.FromOpenAPI(ctx, doc, opts.operation)
}

func decode(ctx context.Context, s *schema.Schema, opts options) (payload.Result[map[string]any], error) {
	values, err := url.ParseQuery(opts.data)
	if err != nil {
		return payload.Result[map[string]any]{}, &payload.SourceReadError{Err: err}
	}

	var decodeOpts []payload.Option
	if opts.multi != "" {
		decodeOpts = append(decodeOpts, payload.WithMultiValue(strings.Split(opts.multi, ",")...))
	}
	if opts.trim {
		decodeOpts = append(decodeOpts, payload.WithTrimSpace())
	}
	if opts.sanitize {
		decodeOpts = append(decodeOpts, payload.WithStrictSanitizer())
	}
	return payload.Decode[map[string]any](ctx, s, payload.FromValues(values), decodeOpts...)
}

func parseSource(raw string) schema.Source {
	path := strings.TrimSpace(raw)
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return schema.SourceFromURL(path)
	}
	return schema.SourceFromFile(path)
}
