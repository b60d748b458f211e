package codec

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"fintrack/internal/core"
)

const maxLineBytes = 1 << 20

// ReadLines splits r into lines. A trailing '\r' is dropped from each line.
func ReadLines(r io.Reader) ([]string, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	var lines []string
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	if err := sc.Err(); err != nil {
		return lines, fmt.Errorf("read lines: %w", err)
	}
	return lines, nil
}

// ReadFile returns the lines of the file at path.
func ReadFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadLines(f)
}

// Encode writes one formatted line per transaction.
func Encode(w io.Writer, ts []core.Transaction) error {
	bw := bufio.NewWriter(w)
	for _, t := range ts {
		if _, err := bw.WriteString(FormatLine(t) + "\n"); err != nil {
			return fmt.Errorf("write line: %w", err)
		}
	}
	return bw.Flush()
}

// WriteFile replaces the file at path with the formatted transactions. The
// lines go to a temporary file in the same directory that is renamed over
// path, so readers never see a partial file. An existing file keeps its mode.
func WriteFile(path string, ts []core.Transaction) error {
	mode := os.FileMode(0o644)
	if fi, err := os.Stat(path); err == nil {
		mode = fi.Mode().Perm()
	}

	f, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	tmp := f.Name()
	fail := func(err error) error {
		f.Close()
		os.Remove(tmp)
		return err
	}

	if err := Encode(f, ts); err != nil {
		return fail(fmt.Errorf("save %s: %w", path, err))
	}
	if err := f.Sync(); err != nil {
		return fail(fmt.Errorf("sync %s: %w", path, err))
	}
	if err := f.Chmod(mode); err != nil {
		return fail(fmt.Errorf("chmod %s: %w", path, err))
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("close %s: %w", path, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}
