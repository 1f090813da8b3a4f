package driver

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"

	"fortio.org/safecast"
	"github.com/BurntSushi/toml"

	"formula/internal/contexts"
	"formula/internal/diag"
	"formula/internal/source"
	"formula/internal/types"
)

// ContentFile is one TOML file of formulas:
//
//	[formulas.hit]
//	context = "character"
//	expr = "self.hitpoints > 0 ? self.levels.Attack * 2 : 0"
//
//	[[formulas.hit.cases]]
//	want = 100
//	self = { stats = { hitpoints = 10 }, levels = { Attack = 50 } }
type ContentFile struct {
	Formulas map[string]FormulaDecl `toml:"formulas"`
}

// FormulaDecl is one formula entry.
type FormulaDecl struct {
	Context string `toml:"context"`
	Expr    string `toml:"expr"`
	// Expect is "ok" (default) or the code the formula must fail with, e.g. "SEM3004".
	Expect string `toml:"expect"`
	// Type pins the exact result type, e.g. to reject NumberOrBoolean.
	Type types.PrimaryType `toml:"type"`
	// Params are extra parameter names for params formulas.
	Params []string `toml:"params"`
	Cases  []Case   `toml:"cases"`
}

// Case is one evaluation with its expected result.
type Case struct {
	Name   string                 `toml:"name"`
	Want   any                    `toml:"want"`
	Params map[string]float64     `toml:"params"`
	Value  float64                `toml:"value"`
	Self   *contexts.Sheet        `toml:"self"`
	Target *contexts.Sheet        `toml:"target"`
	Effect *contexts.ActiveEffect `toml:"effect"`
}

// Arg builds the callable argument for kind.
func (c *Case) Arg(kind string) any {
	switch kind {
	case contexts.KindCharacter, contexts.KindCharacterCondition:
		return contexts.CharacterArgs{Self: sheetOrEmpty(c.Self), Target: sheetOrEmpty(c.Target)}
	case contexts.KindEffect:
		if c.Effect == nil {
			return &contexts.ActiveEffect{}
		}
		return c.Effect
	case contexts.KindParams:
		if c.Params == nil {
			return contexts.Params{}
		}
		return contexts.Params(c.Params)
	default:
		return c.Value
	}
}

// nil *Sheet в интерфейсе не равен nil, подставляем пустой лист
func sheetOrEmpty(s *contexts.Sheet) contexts.Character {
	if s == nil {
		return &contexts.Sheet{}
	}
	return s
}

// expectsFailure reports the code the declaration must fail with, if any.
func (d *FormulaDecl) expectsFailure() (string, bool) {
	e := strings.TrimSpace(d.Expect)
	if e == "" || strings.EqualFold(e, "ok") {
		return "", false
	}
	return strings.ToUpper(e), true
}

// LoadedContent is a decoded content file plus the source it came from.
type LoadedContent struct {
	File    *source.File
	Content ContentFile
	// Names lists formula names in file order.
	Names []string
}

// LoadContent reads path into fs and decodes it. Problems are reported to
// r; the result is nil when nothing usable was decoded.
func LoadContent(fs *source.FileSet, path string, r diag.Reporter) *LoadedContent {
	id, err := fs.Load(path)
	if err != nil {
		vid := fs.AddVirtual(path, nil)
		diag.ReportError(r, diag.IOReadFailure, source.Span{File: vid}, err.Error()).Emit()
		return nil
	}
	file := fs.Get(id)

	var cf ContentFile
	meta, err := toml.Decode(string(file.Content), &cf)
	if err != nil {
		diag.ReportError(r, diag.IOBadContentFile, tomlErrorSpan(file, err), "malformed content file: "+err.Error()).Emit()
		return nil
	}
	for _, key := range meta.Undecoded() {
		diag.ReportWarning(r, diag.IOBadContentFile, keySpan(file, key.String()),
			fmt.Sprintf("unknown key %q ignored", key.String())).Emit()
	}

	lc := &LoadedContent{File: file, Content: cf}
	for _, key := range meta.Keys() {
		if len(key) == 2 && key[0] == "formulas" {
			lc.Names = append(lc.Names, key[1])
		}
	}
	// formulas = { a = {...} } целиком inline: в Keys() имён нет
	var rest []string
	for name := range cf.Formulas {
		if !slices.Contains(lc.Names, name) {
			rest = append(rest, name)
		}
	}
	sort.Strings(rest)
	lc.Names = append(lc.Names, rest...)
	return lc
}

// DeclSpan locates the [formulas.<name>] header, or the file start.
func (lc *LoadedContent) DeclSpan(name string) source.Span {
	return keySpan(lc.File, "formulas."+name)
}

func keySpan(f *source.File, key string) source.Span {
	text := string(f.Content)
	for _, needle := range []string{"[" + key + "]", key, lastSegment(key)} {
		if needle == "" {
			continue
		}
		if i := strings.Index(text, needle); i >= 0 {
			return spanAt(f, i, len(needle))
		}
	}
	return source.Span{File: f.ID}
}

func lastSegment(key string) string {
	if i := strings.LastIndexByte(key, '.'); i >= 0 {
		return key[i+1:]
	}
	return ""
}

func tomlErrorSpan(f *source.File, err error) source.Span {
	var perr toml.ParseError
	if errors.As(err, &perr) {
		return spanAt(f, perr.Position.Start, max(perr.Position.Len, 1))
	}
	return source.Span{File: f.ID}
}

func spanAt(f *source.File, start, length int) source.Span {
	end := min(start+length, len(f.Content))
	s, err1 := safecast.Conv[uint32](start)
	e, err2 := safecast.Conv[uint32](end)
	if err1 != nil || err2 != nil || s > e {
		return source.Span{File: f.ID}
	}
	return source.Span{File: f.ID, Start: s, End: e}
}

// ListContentFiles expands paths into sorted content files: regular files
// are taken as given, directories are walked for *.toml except the manifest.
func ListContentFiles(paths ...string) ([]string, error) {
	seen := make(map[string]struct{})
	var files []string
	add := func(p string) {
		if _, ok := seen[p]; !ok {
			seen[p] = struct{}{}
			files = append(files, p)
		}
	}
	for _, root := range paths {
		info, err := os.Stat(root)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			add(root)
			continue
		}
		err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if path != root && strings.HasPrefix(d.Name(), ".") {
					return filepath.SkipDir
				}
				return nil
			}
			if filepath.Ext(path) == ".toml" && d.Name() != ManifestName {
				add(path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	sort.Strings(files)
	return files, nil
}
