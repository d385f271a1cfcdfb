package export

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fyrsmithlabs/branchsim/internal/simulation"
	"github.com/fyrsmithlabs/branchsim/internal/tree"
)

// Extension is appended to every exported file name.
const Extension = ".csv"

// ErrInvalidName is returned for file names that would leave the export
// directory.
var ErrInvalidName = errors.New("invalid export file name")

// DefaultSampleName is the suggested name for a sample file, "{n}-{m}-x{size}".
func DefaultSampleName(p tree.Params, size uint) string {
	return fmt.Sprintf("%d-%d-x%d", p.N, p.M, size)
}

// DefaultTreeName is the suggested name for a tree file,
// "{leaves}-{branches}-{nodes}-{generations}".
func DefaultTreeName(m tree.Measurements) string {
	return fmt.Sprintf("%d-%d-%d-%d", m.Leaves, m.Branches, m.Nodes, m.Generations)
}

// ChooseName returns the trimmed input, or fallback when input is blank.
func ChooseName(input, fallback string) string {
	if name := strings.TrimSpace(input); name != "" {
		return name
	}
	return fallback
}

// Path joins dir and name and appends the CSV extension.
func Path(dir, name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	if dir == "" {
		dir = "."
	}
	return filepath.Join(dir, name+Extension), nil
}

// SamplesToFile streams a fresh sample from eng into the file at path and
// returns the number of records written. A partially written file is
// removed.
func SamplesToFile(ctx context.Context, eng *simulation.Engine, s simulation.Settings, path string) (uint, error) {
	var written uint
	err := writeFile(path, func(f *os.File) error {
		sw, err := NewSampleWriter(f)
		if err != nil {
			return err
		}
		if err := eng.Records(ctx, s, sw.Write); err != nil {
			return err
		}
		written = sw.Count()
		return sw.Flush()
	})
	return written, err
}

// TreeToFile writes one tree to the file at path.
func TreeToFile(root *tree.Node, path string) error {
	return writeFile(path, func(f *os.File) error {
		return WriteTree(f, tree.Measure(root), tree.Encode(root))
	})
}

func writeFile(path string, fill func(*os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := fill(f); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return fmt.Errorf("failed to close %s: %w", path, err)
	}
	return nil
}
