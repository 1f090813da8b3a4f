package fuzztests

import (
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/BurntSushi/toml"
)

const (
	maxSeedBytes = 4 << 10
)

var builtinSeeds = []string{
	"",
	"1",
	"1 + 2 * 3 - 4 / 5 % 6 ^ 7",
	"self.hitpoints > 0 ? percent(self.levels.Attack, 50) : -1",
	"!(a && b) || c == true",
	"clamp(rand() * 10, 0, 5)",
	"1 +",
	"(1",
	"a..b",
	"1 2",
	"$",
	"=",
	"1.",
	".5",
}

func addCorpusSeeds(f *testing.F) {
	for _, s := range builtinSeeds {
		f.Add([]byte(s))
	}
	addTestdataSeeds(f)
}

// addTestdataSeeds берёт выражения из content-файлов в testdata.
func addTestdataSeeds(f *testing.F) {
	root := filepath.Join("..", "..", "testdata")
	if _, err := os.Stat(root); err != nil {
		return
	}
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil || d.IsDir() || filepath.Ext(path) != ".toml" {
			return nil
		}
		var doc struct {
			Formulas map[string]struct {
				Expr string `toml:"expr"`
			} `toml:"formulas"`
		}
		if _, err := toml.DecodeFile(path, &doc); err != nil {
			return nil
		}
		for _, fm := range doc.Formulas {
			f.Add(clampSeed([]byte(fm.Expr)))
		}
		return nil
	})
}

func clampSeed(src []byte) []byte {
	if len(src) <= maxSeedBytes {
		return append([]byte(nil), src...)
	}
	return append([]byte(nil), src[:maxSeedBytes]...)
}
