package types

// Field is one member of a struct, in declared order (§3.1: "inline field
// storage in declared order, padded to natural alignment").
type Field struct {
	Name string
	Type TypeID
}

// StructInfo records a struct declaration's shape, keyed by DefID.
type StructInfo struct {
	Name       string
	Fields     []Field
	TypeParams []string
}

// Variant is one arm of an enum, with an optional payload type.
type Variant struct {
	Name    string
	Tag     uint16
	Payload TypeID // NoTypeID if the variant carries no payload
}

// EnumInfo records an enum declaration's shape (§3.1: "{ tag: u16,
// payload_bytes } sized to the largest variant").
type EnumInfo struct {
	Name       string
	Variants   []Variant
	TypeParams []string
}

// InterfaceInfo records an interface's required method signatures.
type InterfaceInfo struct {
	Name    string
	Methods []MethodSig
}

// MethodSig is one method signature required by an interface, or declared
// on a struct.
type MethodSig struct {
	Name   string
	Params []TypeID
	Ret    TypeID
	Throws []TypeID
}

// ExceptionInfo records an exception struct's shape — exceptions are
// heap-allocated structs with a distinct kind marker (§4.9).
type ExceptionInfo struct {
	Name   string
	Fields []Field
}

// Registry stores the nominal-declaration side tables the Interner's
// Named(def_id, ...) types reference, mirroring how the teacher's
// Interner keeps a parallel `structs []StructInfo` table keyed by the
// same DefID space as Types.
type Registry struct {
	structs    []StructInfo
	enums      []EnumInfo
	interfaces []InterfaceInfo
	exceptions []ExceptionInfo
}

func NewRegistry() *Registry {
	r := &Registry{}
	r.structs = append(r.structs, StructInfo{})
	r.enums = append(r.enums, EnumInfo{})
	r.interfaces = append(r.interfaces, InterfaceInfo{})
	r.exceptions = append(r.exceptions, ExceptionInfo{})
	return r
}

func (r *Registry) DefineStruct(info StructInfo) DefID {
	id := DefID(len(r.structs))
	r.structs = append(r.structs, info)
	return id
}

func (r *Registry) Struct(id DefID) StructInfo {
	if int(id) >= len(r.structs) {
		return StructInfo{}
	}
	return r.structs[id]
}

// ReserveStruct allocates a DefID before the struct's fields are known, so
// sibling declarations in the same module can refer to it before Pass A's
// second sweep fills in UpdateStruct (§4.3 Pass A: names before bodies).
func (r *Registry) ReserveStruct(name string) DefID {
	return r.DefineStruct(StructInfo{Name: name})
}

func (r *Registry) UpdateStruct(id DefID, info StructInfo) {
	if int(id) < len(r.structs) {
		r.structs[id] = info
	}
}

func (r *Registry) DefineEnum(info EnumInfo) DefID {
	id := DefID(len(r.enums))
	r.enums = append(r.enums, info)
	return id
}

func (r *Registry) Enum(id DefID) EnumInfo {
	if int(id) >= len(r.enums) {
		return EnumInfo{}
	}
	return r.enums[id]
}

func (r *Registry) ReserveEnum(name string) DefID {
	return r.DefineEnum(EnumInfo{Name: name})
}

func (r *Registry) UpdateEnum(id DefID, info EnumInfo) {
	if int(id) < len(r.enums) {
		r.enums[id] = info
	}
}

func (r *Registry) DefineInterface(info InterfaceInfo) DefID {
	id := DefID(len(r.interfaces))
	r.interfaces = append(r.interfaces, info)
	return id
}

func (r *Registry) Interface(id DefID) InterfaceInfo {
	if int(id) >= len(r.interfaces) {
		return InterfaceInfo{}
	}
	return r.interfaces[id]
}

func (r *Registry) ReserveInterface(name string) DefID {
	return r.DefineInterface(InterfaceInfo{Name: name})
}

func (r *Registry) UpdateInterface(id DefID, info InterfaceInfo) {
	if int(id) < len(r.interfaces) {
		r.interfaces[id] = info
	}
}

func (r *Registry) DefineException(info ExceptionInfo) DefID {
	id := DefID(len(r.exceptions))
	r.exceptions = append(r.exceptions, info)
	return id
}

func (r *Registry) Exception(id DefID) ExceptionInfo {
	if int(id) >= len(r.exceptions) {
		return ExceptionInfo{}
	}
	return r.exceptions[id]
}

func (r *Registry) ReserveException(name string) DefID {
	return r.DefineException(ExceptionInfo{Name: name})
}

func (r *Registry) UpdateException(id DefID, info ExceptionInfo) {
	if int(id) < len(r.exceptions) {
		r.exceptions[id] = info
	}
}

// StructType, EnumType, InterfaceType, and ExceptionType intern the
// nominal TypeID for a declaration registered in a Registry. Generic
// declarations pass args for monomorphization; non-generic ones pass nil.
func (in *Interner) StructType(def DefID, args []TypeID) TypeID {
	return in.Intern(Type{Kind: KindStruct, Def: def, Args: append([]TypeID(nil), args...)})
}

func (in *Interner) EnumType(def DefID, args []TypeID) TypeID {
	return in.Intern(Type{Kind: KindEnum, Def: def, Args: append([]TypeID(nil), args...)})
}

func (in *Interner) InterfaceType(def DefID) TypeID {
	return in.Intern(Type{Kind: KindInterface, Def: def})
}

func (in *Interner) ExceptionType(def DefID) TypeID {
	return in.Intern(Type{Kind: KindException, Def: def})
}
