package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/goliatone/go-formsubmit/pkg/schema"
)

type violation struct {
	file string
	schema.Violation
}

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stderr))
}

func run(ctx context.Context, args []string, stderr io.Writer) int {
	flags := flag.NewFlagSet("formsubmit-lint", flag.ContinueOnError)
	flags.SetOutput(stderr)
	operation := flags.String("operation", "", "operation ID or method:path when the paths are OpenAPI documents")
	flags.Usage = func() {
		fmt.Fprintf(flags.Output(), "Usage: %s [-operation id] paths...\n", filepath.Base(os.Args[0]))
		fmt.Fprintf(flags.Output(), "\nLint form schemas for unsupported x-input and x-messages extensions.\n")
	}
	if err := flags.Parse(args); err != nil {
		return 2
	}
	paths := flags.Args()
	if len(paths) == 0 {
		flags.Usage()
		return 2
	}

	var violations []violation
	for _, path := range paths {
		s, err := load(ctx, path, *operation)
		if err != nil {
			fmt.Fprintf(stderr, "lint %s: %v\n", path, err)
			return 1
		}
		for _, v := range s.Lint() {
			violations = append(violations, violation{file: path, Violation: v})
		}
	}
	if len(violations) == 0 {
		return 0
	}

	sort.SliceStable(violations, func(i, j int) bool {
		return violations[i].file < violations[j].file
	})
	for _, v := range violations {
		fmt.Fprintf(stderr, "%s: %s\n", v.file, v.Violation)
	}
	return 1
}

func load(ctx context.Context, path, operation string) (*schema.Schema, error) {
	src := schema.SourceFromFile(path)
	if operation == "" {
		return schema.Load(ctx, src)
	}
	doc, err := schema.ReadDocument(ctx, src, nil)
	if err != nil {
		return nil, err
	}
	return schema.FromOpenAPI(ctx, doc, operation)
}
