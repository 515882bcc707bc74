package sitefile

import "strings"

// Path rules for generated files. Folders are stored in leading-slash form
// ("/", "/css/"... without a trailing slash except for root) and may never
// contain ".." segments. Filenames are single path components.
//
// Every entry point that accepts a path - the mutation executor, the
// out-of-band editor save, and the preview server - must normalize through
// these functions so the version log only ever contains one spelling per path.

// NormalizeFolder collapses a folder string to canonical form: ".." substrings
// stripped, backslashes rejected by the caller via ValidFilename on segments,
// a single leading slash, no trailing slash (root stays "/"). Empty input
// means root. Normalizing an already-normalized folder is a no-op.
func NormalizeFolder(folder string) string {
	folder = strings.TrimSpace(folder)
	folder = strings.ReplaceAll(folder, "\\", "/")
	folder = strings.ReplaceAll(folder, "..", "")

	// Collapse duplicate slashes left behind by stripping.
	for strings.Contains(folder, "//") {
		folder = strings.ReplaceAll(folder, "//", "/")
	}

	folder = strings.Trim(folder, "/")
	if folder == "" {
		return "/"
	}
	return "/" + folder
}

// ValidFilename reports whether a filename is a single, sane path component.
func ValidFilename(filename string) bool {
	if filename == "" || filename == "." || filename == ".." {
		return false
	}
	if strings.ContainsAny(filename, "/\\") {
		return false
	}
	return true
}

// SplitRequestPath resolves a raw request path ("/css/style.css") into a
// normalized (folder, filename) pair using the same rules as writes. The
// second return is false when the path has no usable filename.
func SplitRequestPath(path string) (string, string, bool) {
	path = strings.TrimSpace(path)
	path = strings.ReplaceAll(path, "\\", "/")
	path = strings.ReplaceAll(path, "..", "")

	idx := strings.LastIndex(path, "/")
	var folder, filename string
	if idx < 0 {
		folder, filename = "/", path
	} else {
		folder, filename = path[:idx], path[idx+1:]
	}

	if !ValidFilename(filename) {
		return "", "", false
	}

	return NormalizeFolder(folder), filename, true
}

// JoinPath renders a (folder, filename) pair for display: "/index.html",
// "/css/style.css".
func JoinPath(folder, filename string) string {
	if folder == "/" {
		return "/" + filename
	}
	return folder + "/" + filename
}
