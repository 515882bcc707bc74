package sitefile

import (
	"testing"
)

func TestNormalizeFolder(t *testing.T) {
	tests := []struct {
		name   string
		folder string
		want   string
	}{
		{name: "empty means root", folder: "", want: "/"},
		{name: "root stays root", folder: "/", want: "/"},
		{name: "missing leading slash", folder: "css", want: "/css"},
		{name: "trailing slash stripped", folder: "/css/", want: "/css"},
		{name: "backslashes converted", folder: "\\css\\vendor", want: "/css/vendor"},
		{name: "dotdot stripped", folder: "/../../etc", want: "/etc"},
		{name: "dotdot in middle", folder: "/css/../js", want: "/css/js"},
		{name: "duplicate slashes collapsed", folder: "//css///vendor", want: "/css/vendor"},
		{name: "whitespace trimmed", folder: "  /css  ", want: "/css"},
		{name: "only dotdot", folder: "..", want: "/"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeFolder(tt.folder)
			if got != tt.want {
				t.Errorf("NormalizeFolder(%q) = %q, want %q", tt.folder, got, tt.want)
			}
		})
	}
}

func TestNormalizeFolderIdempotent(t *testing.T) {
	inputs := []string{"", "/", "css", "/css/", "\\a\\b", "/../../etc", "//x//y//"}
	for _, in := range inputs {
		once := NormalizeFolder(in)
		twice := NormalizeFolder(once)
		if once != twice {
			t.Errorf("NormalizeFolder not idempotent for %q: first %q, second %q", in, once, twice)
		}
	}
}

func TestValidFilename(t *testing.T) {
	tests := []struct {
		filename string
		want     bool
	}{
		{"index.html", true},
		{"style.css", true},
		{".htaccess", true},
		{"", false},
		{".", false},
		{"..", false},
		{"a/b.html", false},
		{"a\\b.html", false},
	}

	for _, tt := range tests {
		if got := ValidFilename(tt.filename); got != tt.want {
			t.Errorf("ValidFilename(%q) = %v, want %v", tt.filename, got, tt.want)
		}
	}
}

func TestSplitRequestPath(t *testing.T) {
	tests := []struct {
		name         string
		path         string
		wantFolder   string
		wantFilename string
		wantOK       bool
	}{
		{name: "root file", path: "/index.html", wantFolder: "/", wantFilename: "index.html", wantOK: true},
		{name: "nested file", path: "/css/style.css", wantFolder: "/css", wantFilename: "style.css", wantOK: true},
		{name: "no leading slash", path: "about.html", wantFolder: "/", wantFilename: "about.html", wantOK: true},
		{name: "traversal stripped", path: "/../../etc/passwd", wantFolder: "/etc", wantFilename: "passwd", wantOK: true},
		{name: "trailing slash has no filename", path: "/css/", wantOK: false},
		{name: "empty", path: "", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			folder, filename, ok := SplitRequestPath(tt.path)
			if ok != tt.wantOK {
				t.Fatalf("SplitRequestPath(%q) ok = %v, want %v", tt.path, ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if folder != tt.wantFolder || filename != tt.wantFilename {
				t.Errorf("SplitRequestPath(%q) = (%q, %q), want (%q, %q)",
					tt.path, folder, filename, tt.wantFolder, tt.wantFilename)
			}
		})
	}
}

func TestJoinPath(t *testing.T) {
	if got := JoinPath("/", "index.html"); got != "/index.html" {
		t.Errorf("JoinPath root = %q, want /index.html", got)
	}
	if got := JoinPath("/css", "style.css"); got != "/css/style.css" {
		t.Errorf("JoinPath nested = %q, want /css/style.css", got)
	}
}
