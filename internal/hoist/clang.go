package hoist

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/roach88/offload/internal/device"
	"github.com/roach88/offload/internal/wrap"
)

// ClangFrontEnd reparses the buffer with clang and reads the JSON AST.
//
// The dump is filtered to declarations whose name contains the wrapper
// prefix. For each target FunctionDecl the DeclStmt children of its body
// are sliced out of the source by offset and rendered like ScanFrontEnd
// renders them.
type ClangFrontEnd struct {
	Compiler string
	Runner   device.Runner
}

type astNode struct {
	Kind  string    `json:"kind"`
	Name  string    `json:"name"`
	Range astRange  `json:"range"`
	Inner []astNode `json:"inner"`
}

type astRange struct {
	Begin astLoc `json:"begin"`
	End   astLoc `json:"end"`
}

type astLoc struct {
	Offset       *int    `json:"offset"`
	TokLen       int     `json:"tokLen"`
	SpellingLoc  *astLoc `json:"spellingLoc"`
	ExpansionLoc *astLoc `json:"expansionLoc"`
}

// resolve returns the file offset and token length of a location, looking
// through macro expansions.
func (l astLoc) resolve() (int, int, bool) {
	switch {
	case l.Offset != nil:
		return *l.Offset, l.TokLen, true
	case l.ExpansionLoc != nil:
		return l.ExpansionLoc.resolve()
	case l.SpellingLoc != nil:
		return l.SpellingLoc.resolve()
	}
	return 0, 0, false
}

var dumpHeader = regexp.MustCompile(`(?m)^Dumping [^\n]*:\r?\n`)

// Argv returns the syntax-only argument vector for req.
func (f ClangFrontEnd) Argv(req Request) []string {
	argv := []string{
		"-fsyntax-only",
		"-Xclang", "-ast-dump=json",
		"-Xclang", "-ast-dump-filter=" + wrap.Prefix,
	}
	argv = append(argv, req.Args...)
	for _, a := range req.Args {
		if a == req.Path {
			return argv
		}
	}
	return append(argv, req.Path)
}

func (f ClangFrontEnd) Extract(ctx context.Context, req Request) (map[string][]string, error) {
	var stdout, stderr bytes.Buffer
	err := f.Runner.Run(ctx, device.Command{
		Name:   f.Compiler,
		Args:   f.Argv(req),
		Stdout: &stdout,
		Stderr: &stderr,
	})
	if err != nil {
		return nil, fmt.Errorf("syntax check: %w", err)
	}
	return decodeDump(stdout.Bytes(), req.Source, req.Targets)
}

// decodeDump reads a filtered or unfiltered JSON AST dump.
func decodeDump(dump []byte, src string, targets []string) (map[string][]string, error) {
	want := make(map[string]bool, len(targets))
	for _, t := range targets {
		want[t] = true
	}

	out := make(map[string][]string)
	for _, chunk := range dumpHeader.Split(string(dump), -1) {
		if strings.TrimSpace(chunk) == "" {
			continue
		}
		var root astNode
		if err := json.Unmarshal([]byte(chunk), &root); err != nil {
			return nil, fmt.Errorf("decode ast dump: %w", err)
		}
		nodes := []astNode{root}
		if root.Kind == "TranslationUnitDecl" {
			nodes = root.Inner
		}
		for _, n := range nodes {
			if n.Kind != "FunctionDecl" || !want[n.Name] {
				continue
			}
			decls, err := bodyDecls(n, src)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", n.Name, err)
			}
			out[n.Name] = decls
		}
	}
	return out, nil
}

func bodyDecls(fn astNode, src string) ([]string, error) {
	decls := []string{}
	for _, body := range fn.Inner {
		if body.Kind != "CompoundStmt" {
			continue
		}
		for _, stmt := range body.Inner {
			if stmt.Kind != "DeclStmt" {
				continue
			}
			text, err := sliceRange(stmt.Range, src)
			if err != nil {
				return nil, err
			}
			toks, err := lex(text)
			if err != nil {
				return nil, err
			}
			if n := len(toks); n > 0 && toks[n-1].text == ";" {
				toks = toks[:n-1]
			}
			decls = append(decls, render(text, toks))
		}
	}
	return decls, nil
}

func sliceRange(r astRange, src string) (string, error) {
	begin, _, ok := r.Begin.resolve()
	if !ok {
		return "", fmt.Errorf("declaration without source offset")
	}
	end, tokLen, ok := r.End.resolve()
	if !ok {
		return "", fmt.Errorf("declaration without source offset")
	}
	end += tokLen
	if begin < 0 || end > len(src) || begin > end {
		return "", fmt.Errorf("declaration range %d..%d outside buffer", begin, end)
	}
	return src[begin:end], nil
}
