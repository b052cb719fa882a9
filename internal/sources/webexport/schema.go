package webexport

// Entry is a single bookmark lifted from an export file.
type Entry struct {
	Title string `yaml:"title"`
	URL   string `yaml:"url"`
}

// SeedFile is the root structure for a YAML seed file.
//
// Example:
//
//	bookmarks:
//	  - title: Go Documentation
//	    url: https://go.dev/doc/
type SeedFile struct {
	Bookmarks []Entry `yaml:"bookmarks"`
}
