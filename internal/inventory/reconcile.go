package inventory

import "slices"

// Unsent returns the full source paths of documents whose file name is in
// source but not in destination, ordered by file name.
func Unsent(source, destination *Inventory) []string {
	sent := destination.Basenames()

	names := make([]string, 0, source.Len())
	for name := range source.Basenames() {
		if _, ok := sent[name]; !ok {
			names = append(names, name)
		}
	}
	slices.Sort(names)

	paths := make([]string, 0, len(names))
	for _, name := range names {
		if path, ok := source.FullPath(name); ok {
			paths = append(paths, path)
		}
	}
	return paths
}
