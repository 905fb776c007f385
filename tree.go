package main

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"b2go/internal/b2"
)

// fileTree is one level of the bucket's name hierarchy. B2 has no real
// directories; the hierarchy is implied by "/" separators in file names.
type fileTree struct {
	dirs  map[string]*fileTree
	files map[string]b2.File
}

func newFileTree() *fileTree {
	return &fileTree{
		dirs:  make(map[string]*fileTree),
		files: make(map[string]b2.File),
	}
}

// buildFileTree folds a flat file listing into a nested tree by splitting
// each name on "/".
func buildFileTree(files []b2.File) *fileTree {
	root := newFileTree()

	for _, f := range files {
		parts := strings.Split(f.Name, "/")
		node := root

		for _, dir := range parts[:len(parts)-1] {
			child, ok := node.dirs[dir]
			if !ok {
				child = newFileTree()
				node.dirs[dir] = child
			}

			node = child
		}

		node.files[parts[len(parts)-1]] = f
	}

	return root
}

// printFileTree renders files as an indented tree, directories first at
// each level, both sorted by name. With long set, each file line is
// prefixed by its size and upload date.
func printFileTree(w io.Writer, files []b2.File, long bool) {
	if long {
		fmt.Fprintf(w, "%8s   %-13s   %s\n", "Size", "Date Uploaded", "Name")
	}

	buildFileTree(files).render(w, long, 0)
}

func (t *fileTree) render(w io.Writer, long bool, depth int) {
	indent := strings.Repeat("  ", depth)

	for _, name := range sortedKeys(t.dirs) {
		if long {
			fmt.Fprintf(w, "%8s   %-13s   ", "", "")
		}

		fmt.Fprintf(w, "%s%s/\n", indent, name)
		t.dirs[name].render(w, long, depth+1)
	}

	for _, name := range sortedKeys(t.files) {
		if long {
			f := t.files[name]
			fmt.Fprintf(w, "%8s   %-13s   ", formatSize(f.ContentLength), formatTime(f.UploadTime()))
		}

		fmt.Fprintf(w, "%s%s\n", indent, name)
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	return keys
}
