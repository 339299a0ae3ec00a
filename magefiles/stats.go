package main

import (
	"bytes"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/mesh-intelligence/tripdeck/internal/seed"
)

// pkgSize is the Go line count of one package directory.
type pkgSize struct {
	prod, test int
}

// Stats prints Go line counts per package and a summary of the bundled trip
// dataset.
func Stats() error {
	sizes, err := goSizes(".")
	if err != nil {
		return err
	}
	ds, err := seed.Default()
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(w, "package\tprod\ttest\t")
	dirs := make([]string, 0, len(sizes))
	for dir := range sizes {
		dirs = append(dirs, dir)
	}
	sort.Strings(dirs)
	var total pkgSize
	for _, dir := range dirs {
		s := sizes[dir]
		total.prod += s.prod
		total.test += s.test
		fmt.Fprintf(w, "%s\t%d\t%d\t\n", dir, s.prod, s.test)
	}
	fmt.Fprintf(w, "total\t%d\t%d\t\n", total.prod, total.test)
	if err := w.Flush(); err != nil {
		return err
	}

	byType := make(map[string]int)
	for _, it := range ds.Items() {
		byType[string(it.Type)]++
	}
	types := make([]string, 0, len(byType))
	for t, n := range byType {
		types = append(types, fmt.Sprintf("%s=%d", t, n))
	}
	sort.Strings(types)
	c := ds.InitialChecklist()
	fmt.Printf("\ndataset %q: %d days, %d items (%s), %d expenses, %d to-do, %d packing\n",
		ds.Trip, len(ds.Days), len(ds.Items()), strings.Join(types, " "),
		len(ds.Expenses), len(c.Todo), len(c.Packing))
	return nil
}

// goSizes counts lines of the module's Go files per directory. Build tooling
// and the output directory are skipped.
func goSizes(root string) (map[string]pkgSize, error) {
	sizes := make(map[string]pkgSize)
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			name := d.Name()
			if path != root && (strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_") ||
				name == "vendor" || name == "magefiles" || path == binaryDir) {
				return filepath.SkipDir
			}
			return nil
		}
		if filepath.Ext(path) != ".go" {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		n := bytes.Count(data, []byte("\n"))
		s := sizes[filepath.Dir(path)]
		if strings.HasSuffix(path, "_test.go") {
			s.test += n
		} else {
			s.prod += n
		}
		sizes[filepath.Dir(path)] = s
		return nil
	})
	return sizes, err
}
