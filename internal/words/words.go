// internal/words/words.go
//
// Word source loading for the hangman environment.
//
// Sources (Load):
//   - ""                          → embedded default list (assets/words.txt)
//   - *.db, *.sqlite, *.sqlite3   → read-only SQLite table `words(word TEXT)`
//   - anything else               → newline-delimited text file, one word per line
//
// Normalization applied to every source:
//   • surrounding whitespace is trimmed and words are lowercased;
//   • blank lines and lines starting with '#' are skipped, so a trailing newline
//     never yields an empty candidate;
//   • entries containing anything but letters are dropped.
//
// An empty result, or a source that cannot be read, is reported as game.ErrConfig.

package words

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/DylanRuth/ml-hangman/assets"
	"github.com/DylanRuth/ml-hangman/internal/game"
)

// Load resolves src to a normalized, non-empty word list.
func Load(src string) ([]string, error) {
	var (
		list []string
		err  error
	)
	switch {
	case src == "":
		list, err = Parse(strings.NewReader(assets.Words))
	case isSQLite(src):
		list, err = LoadSQLite(src)
	default:
		list, err = LoadFile(src)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: word source %q: %w", game.ErrConfig, src, err)
	}
	if len(list) == 0 {
		return nil, fmt.Errorf("%w: word source %q has no usable words", game.ErrConfig, src)
	}
	return list, nil
}

// LoadFile reads one word per line from path.
func LoadFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Parse(f)
}

// Parse reads newline-delimited words from r.
func Parse(r io.Reader) ([]string, error) {
	var lines []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return Normalize(lines), nil
}

// Normalize lowercases and trims each entry and drops blanks, comments and
// entries that are not purely alphabetic. Order is preserved; duplicates are kept
// so a list can weight words by repetition.
func Normalize(lines []string) []string {
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		w := strings.ToLower(strings.TrimSpace(line))
		if w == "" || strings.HasPrefix(w, "#") || !isAlpha(w) {
			continue
		}
		out = append(out, w)
	}
	return out
}

// isAlpha reports whether s is made of letters only.
func isAlpha(s string) bool {
	for _, r := range s {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}

func isSQLite(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".db", ".sqlite", ".sqlite3":
		return true
	}
	return false
}
