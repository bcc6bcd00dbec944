// Package profile compiles CUE toolchain profiles.
//
// A profile file holds a single `profile:` struct that is unified with the
// embedded #Profile schema. The schema is closed, so misspelled fields are
// rejected, and every field has a default.
package profile

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/offload/internal/ir"
)

//go:embed schema.cue
var schemaCUE string

// CompileError reports an invalid profile.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Compile parses src and returns the profile it describes.
// filename is used in error positions only.
func Compile(src []byte, filename string) (ir.Profile, error) {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return ir.Profile{}, fmt.Errorf("profile schema: %w", err)
	}

	v := ctx.CompileBytes(src, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return ir.Profile{}, formatCUEError(err)
	}

	pv := v.LookupPath(cue.ParsePath("profile"))
	if !pv.Exists() {
		return ir.Profile{}, &CompileError{
			Field:   "profile",
			Message: "profile is required",
			Pos:     v.Pos(),
		}
	}

	pv = schema.LookupPath(cue.ParsePath("#Profile")).Unify(pv)
	if err := pv.Validate(cue.Concrete(true)); err != nil {
		return ir.Profile{}, formatCUEError(err)
	}
	return decode(pv)
}

// Load reads and compiles the profile at path. A relative work_dir is
// resolved against the directory holding the file.
func Load(path string) (ir.Profile, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return ir.Profile{}, fmt.Errorf("load profile: %w", err)
	}
	p, err := Compile(src, path)
	if err != nil {
		return ir.Profile{}, err
	}
	if !filepath.IsAbs(p.WorkDir) {
		p.WorkDir = filepath.Join(filepath.Dir(path), p.WorkDir)
	}
	return p, nil
}

// Default returns the schema defaults.
func Default() ir.Profile {
	p, err := Compile([]byte("profile: {}"), "default.cue")
	if err != nil {
		panic(fmt.Sprintf("profile: embedded schema is invalid: %v", err))
	}
	return p
}

// Hash returns the content hash recorded in session journals.
func Hash(p ir.Profile) (string, error) {
	return ir.ProfileHash(p)
}

func decode(v cue.Value) (ir.Profile, error) {
	var p ir.Profile
	var err error

	fields := []struct {
		path string
		dst  *string
	}{
		{"compiler", &p.Compiler},
		{"frontend", &p.FrontEnd},
		{"layout", &p.Layout},
		{"work_dir", &p.WorkDir},
		{"files.buffer", &p.Files.Buffer},
		{"files.header", &p.Files.Header},
		{"files.artifact", &p.Files.Artifact},
	}
	for _, f := range fields {
		if *f.dst, err = stringAt(v, f.path); err != nil {
			return ir.Profile{}, err
		}
	}

	if p.DeviceFlags, err = stringsAt(v, "device_flags"); err != nil {
		return ir.Profile{}, err
	}
	if p.HostArgs, err = stringsAt(v, "host_args"); err != nil {
		return ir.Profile{}, err
	}
	return p, nil
}

func stringAt(v cue.Value, path string) (string, error) {
	fv, _ := v.LookupPath(cue.ParsePath(path)).Default()
	s, err := fv.String()
	if err != nil {
		return "", &CompileError{Field: path, Message: "must be a string", Pos: fv.Pos()}
	}
	return s, nil
}

func stringsAt(v cue.Value, path string) ([]string, error) {
	lv, _ := v.LookupPath(cue.ParsePath(path)).Default()
	iter, err := lv.List()
	if err != nil {
		return nil, formatCUEError(err)
	}
	out := []string{}
	for iter.Next() {
		s, err := iter.Value().String()
		if err != nil {
			return nil, &CompileError{Field: path, Message: "must be a list of strings", Pos: iter.Value().Pos()}
		}
		out = append(out, s)
	}
	return out, nil
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	first := errs[0]
	if positions := errors.Positions(first); len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: first.Error(),
			Pos:     positions[0],
		}
	}
	return err
}
