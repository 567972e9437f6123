// Package preload handles predigested definition modules: standard
// library interfaces admitted into the module graph without source
// parsing. The wire form is a schema-versioned msgpack payload behind
// a fixed magic; Materialize turns a payload into a definition module
// in the code model.
package preload

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

// Magic prefixes every encoded payload.
const Magic = "OBXD"

// SchemaVersion is bumped whenever the payload layout changes.
const SchemaVersion uint16 = 1

// RefKind discriminates TypeRef variants.
type RefKind uint8

const (
	RefBase RefKind = iota
	RefNamed
	RefPointer
	RefArray
	RefRecord
	RefProc
)

// TypeRef is the serialized spelling of a type.
type TypeRef struct {
	Kind   RefKind
	Name   string // base-type name or declared type name
	Elem   *TypeRef
	Len    int64 // array length, 0 = open
	Base   string
	Fields []FieldDef
	Params []ParamDef
	Return *TypeRef
}

// FieldDef is one record field.
type FieldDef struct {
	Name     string
	Type     TypeRef
	ReadOnly bool
}

// ParamDef is one formal parameter.
type ParamDef struct {
	Name string
	Var  bool
	In   bool
	Type TypeRef
}

// ConstDef is one exported constant; exactly one value field is set.
type ConstDef struct {
	Name string
	Int  *int64
	Real *float64
	Bool *bool
	Str  *string
}

// TypeDef declares a named type.
type TypeDef struct {
	Name string
	Type TypeRef
}

// VarDef declares a module variable.
type VarDef struct {
	Name     string
	Type     TypeRef
	ReadOnly bool
}

// ProcDef declares a procedure; Type must be a RefProc.
type ProcDef struct {
	Name string
	Type TypeRef
}

// Payload is the predigested definition form of one module.
type Payload struct {
	Schema uint16
	Name   string
	Consts []ConstDef
	Types  []TypeDef
	Vars   []VarDef
	Procs  []ProcDef
}

var (
	// ErrBadMagic marks bytes that are not a definition payload.
	ErrBadMagic = errors.New("preload: not a definition payload")
	// ErrSchema marks a payload from an incompatible schema version.
	ErrSchema = errors.New("preload: unsupported payload schema")
)

// IsPayload sniffs the payload magic.
func IsPayload(b []byte) bool {
	return bytes.HasPrefix(b, []byte(Magic))
}

// Encode serializes a payload.
func Encode(p *Payload) ([]byte, error) {
	p.Schema = SchemaVersion
	var buf bytes.Buffer
	buf.WriteString(Magic)
	enc := msgpack.NewEncoder(&buf)
	if err := enc.Encode(p); err != nil {
		return nil, fmt.Errorf("preload: encode %s: %w", p.Name, err)
	}
	return buf.Bytes(), nil
}

// Decode deserializes a payload, validating magic and schema.
func Decode(b []byte) (*Payload, error) {
	if !IsPayload(b) {
		return nil, ErrBadMagic
	}
	var p Payload
	dec := msgpack.NewDecoder(bytes.NewReader(b[len(Magic):]))
	if err := dec.Decode(&p); err != nil {
		return nil, fmt.Errorf("preload: decode: %w", err)
	}
	if p.Schema != SchemaVersion {
		return nil, fmt.Errorf("%w: %d", ErrSchema, p.Schema)
	}
	return &p, nil
}
