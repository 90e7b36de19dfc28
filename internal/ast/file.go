package ast

import "github.com/kahflane/naml/internal/source"

// File is one parsed source file's top-level item list (§6.2: modules
// map to files by convention).
type File struct {
	ID    source.FileID
	Items []Item
}
