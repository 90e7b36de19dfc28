package ast

import "github.com/kahflane/naml/internal/source"

// Item is the interface implemented by every top-level (or nested module)
// declaration.
type Item interface {
	itemNode()
	Span() source.Span
	ItemName() string
	IsPub() bool
}

type itemBase struct {
	span    source.Span
	Name    string
	Pub     bool
	Attrs   []Attr
	Doc     string // accumulated `///` doc comment text, if any
}

func (b itemBase) Span() source.Span         { return b.span }
func (b itemBase) ItemName() string          { return b.Name }
func (b itemBase) IsPub() bool               { return b.Pub }
func (b *itemBase) SetSpan(sp source.Span)   { b.span = sp }
func (b *itemBase) SetPub(pub bool)          { b.Pub = pub }
func (b *itemBase) SetAttrs(attrs []Attr)    { b.Attrs = attrs }
func (b *itemBase) SetDoc(doc string)        { b.Doc = doc }
func (itemBase) itemNode()                   {}

// Attr is one `#[...]` attribute attached to an item (§4.2: "Platform
// annotations (#[platforms(...)]) are attributes attached to items").
type Attr struct {
	Name string
	Args []string
	Span source.Span
}

// Platforms extracts the platform list of a `#[platforms(...)]`
// attribute, or (nil, false) if the item carries none.
func Platforms(attrs []Attr) ([]string, bool) {
	for _, a := range attrs {
		if a.Name == "platforms" {
			return a.Args, true
		}
	}
	return nil, false
}

type TypeParam struct {
	Name   string
	Bounds []string // required interface names
}

type Param struct {
	Name string
	Type TypeSyntax
}

// FnItem is a `fn name(...) -> T throws E { ... }` declaration, or a
// method when Receiver is non-empty (§4.2: "fn (self: Type) method(...)
// attaches a method to Type").
type FnItem struct {
	itemBase
	Receiver   string // receiver type name, "" for free functions
	TypeParams []TypeParam
	Params     []Param
	Ret        *TypeSyntax
	Throws     []TypeSyntax
	Body       *BlockStmt
	Extern     bool // declared with `extern fn`; Body is nil
}

type StructField struct {
	Name string
	Type TypeSyntax
}

type StructItem struct {
	itemBase
	TypeParams []TypeParam
	Fields     []StructField
}

type EnumVariant struct {
	Name    string
	Payload *TypeSyntax // nil if the variant carries no payload
}

type EnumItem struct {
	itemBase
	TypeParams []TypeParam
	Variants   []EnumVariant
}

// InterfaceItem declares a required method set (§3.3 symbol kind
// Interface).
type InterfaceItem struct {
	itemBase
	Methods []FnSignature
}

type FnSignature struct {
	Name   string
	Params []Param
	Ret    *TypeSyntax
	Throws []TypeSyntax
}

// ExceptionItem declares a throwable struct (§4.9).
type ExceptionItem struct {
	itemBase
	Fields []StructField
}

type ConstItem struct {
	itemBase
	Type  TypeSyntax
	Value Expr
}

type TypeAliasItem struct {
	itemBase
	TypeParams []TypeParam
	Target     TypeSyntax
}

// ImplementsItem records `implements Interface for Type { ... }`,
// binding a struct's method set to an interface (§4.3 interface
// satisfaction).
type ImplementsItem struct {
	itemBase
	Interface string
	Target    string
	Methods   []*FnItem
}

// ModItem declares a nested module: `mod foo;` resolves to foo.nm or
// foo/mod.nm (§6.2).
type ModItem struct {
	itemBase
}

// UseItem is an import: `use path::*`, `path::{a, b as c}`, or
// `path as alias` (§4.2).
type UseItem struct {
	itemBase
	Path    []string
	Wildcard bool
	Members []UseMember // empty for a plain or wildcard import
	Alias   string       // "" unless the whole path is aliased
}

type UseMember struct {
	Name  string
	Alias string // "" if not renamed
}
