package main

import (
	"fmt"

	"github.com/kahflane/naml/internal/diag"
	"github.com/kahflane/naml/internal/lexer"
	"github.com/kahflane/naml/internal/parser"
	"github.com/kahflane/naml/internal/source"
	"github.com/kahflane/naml/internal/token"
)

func main() {
	src := `
	fn risky() throws BoomException {
		throw BoomException { message: "boom" };
	}
	fn safe() {
		var r: int = risky() catch e { 0 } ?? -1;
	}
	`
	fs := source.NewFileSet()
	f := fs.AddFile("test.nm", src)
	bag := diag.NewBag(64)
	interner := source.NewInterner()
	toks := lexer.New(src, f.ID, interner, bag, lexer.Options{}).Tokenize()
	for _, tk := range toks {
		if tk.Kind == token.Invalid {
			fmt.Println("INVALID TOKEN at", tk.Span)
		}
	}
	file := parser.ParseFile(toks, f.ID, bag)
	_ = file
	for _, it := range bag.Items() {
		fmt.Printf("%+v\n", it)
	}
}
