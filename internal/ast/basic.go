package ast

// BasicKind enumerates the primitive base types.
type BasicKind uint8

const (
	BasicAny BasicKind = iota
	BasicNil
	BasicString
	BasicWString
	BasicBoolean
	BasicChar
	BasicWChar
	BasicByte
	BasicShortInt
	BasicInteger
	BasicLongInt
	BasicReal
	BasicLongReal
	BasicSet
	// BasicVoid types proper calls; it never appears in declarations.
	BasicVoid
)

var basicNames = [...]string{
	BasicAny:      "ANY",
	BasicNil:      "NIL",
	BasicString:   "STRING",
	BasicWString:  "WSTRING",
	BasicBoolean:  "BOOLEAN",
	BasicChar:     "CHAR",
	BasicWChar:    "WCHAR",
	BasicByte:     "BYTE",
	BasicShortInt: "SHORTINT",
	BasicInteger:  "INTEGER",
	BasicLongInt:  "LONGINT",
	BasicReal:     "REAL",
	BasicLongReal: "LONGREAL",
	BasicSet:      "SET",
	BasicVoid:     "VOID",
}

func (b BasicKind) String() string {
	if int(b) < len(basicNames) {
		return basicNames[b]
	}
	return "?"
}

// BaseType is a primitive type. One immutable singleton exists per
// kind; they are shared across modules and front-ends.
type BaseType struct {
	TypeNode
	BT BasicKind
}

func (b *BaseType) Deref() Type    { return b }
func (b *BaseType) Pretty() string { return b.BT.String() }

// MinVal and MaxVal return the ordinal bounds of integer kinds; zero
// values for everything else.
func (b *BaseType) MinVal() int64 {
	switch b.BT {
	case BasicByte:
		return 0
	case BasicShortInt:
		return -128
	case BasicInteger:
		return -2147483648
	case BasicLongInt:
		return -9223372036854775808
	}
	return 0
}

func (b *BaseType) MaxVal() int64 {
	switch b.BT {
	case BasicByte:
		return 255
	case BasicShortInt:
		return 127
	case BasicInteger:
		return 2147483647
	case BasicLongInt:
		return 9223372036854775807
	}
	return 0
}

func newBaseType(bt BasicKind) *BaseType {
	return &BaseType{TypeNode: TypeNode{Node: Node{NodeKind: KBaseType}}, BT: bt}
}

// Process-wide primitive singletons.
var (
	AnyType      = newBaseType(BasicAny)
	NilType      = newBaseType(BasicNil)
	StringType   = newBaseType(BasicString)
	WStringType  = newBaseType(BasicWString)
	BooleanType  = newBaseType(BasicBoolean)
	CharType     = newBaseType(BasicChar)
	WCharType    = newBaseType(BasicWChar)
	ByteType     = newBaseType(BasicByte)
	ShortIntType = newBaseType(BasicShortInt)
	IntegerType  = newBaseType(BasicInteger)
	LongIntType  = newBaseType(BasicLongInt)
	RealType     = newBaseType(BasicReal)
	LongRealType = newBaseType(BasicLongReal)
	SetType      = newBaseType(BasicSet)
)

// VoidType types calls of proper procedures.
var VoidType = newBaseType(BasicVoid)

// ErrorType marks nodes whose typing failed; checking continues with it
// so one pass can report many diagnostics.
var ErrorType = newBaseType(BasicAny)

// IsNumeric reports whether t is a numeric base type.
func IsNumeric(t Type) bool {
	b, ok := t.(*BaseType)
	return ok && b.BT >= BasicByte && b.BT <= BasicLongReal
}

// IsInteger reports whether t is an integer base type.
func IsInteger(t Type) bool {
	b, ok := t.(*BaseType)
	return ok && b.BT >= BasicByte && b.BT <= BasicLongInt
}

// IsReal reports whether t is REAL or LONGREAL.
func IsReal(t Type) bool {
	b, ok := t.(*BaseType)
	return ok && (b.BT == BasicReal || b.BT == BasicLongReal)
}

// IsBoolean reports whether t is BOOLEAN.
func IsBoolean(t Type) bool {
	b, ok := t.(*BaseType)
	return ok && b.BT == BasicBoolean
}

// IsSet reports whether t is SET.
func IsSet(t Type) bool {
	b, ok := t.(*BaseType)
	return ok && b.BT == BasicSet
}

// IsChar reports whether t is CHAR or WCHAR.
func IsChar(t Type) bool {
	b, ok := t.(*BaseType)
	return ok && (b.BT == BasicChar || b.BT == BasicWChar)
}

// IsString reports whether t is STRING or WSTRING.
func IsString(t Type) bool {
	b, ok := t.(*BaseType)
	return ok && (b.BT == BasicString || b.BT == BasicWString)
}

// IsCharArray reports whether t is an array of CHAR or WCHAR.
func IsCharArray(t Type) bool {
	a, ok := t.(*Array)
	if !ok || a.Elem == nil {
		return false
	}
	return IsChar(a.Elem.Deref())
}

// NumericRank orders the numeric kinds for promotion:
// BYTE < SHORTINT < INTEGER < LONGINT < REAL < LONGREAL.
func NumericRank(t Type) int {
	b, ok := t.(*BaseType)
	if !ok {
		return -1
	}
	switch b.BT {
	case BasicByte:
		return 0
	case BasicShortInt:
		return 1
	case BasicInteger:
		return 2
	case BasicLongInt:
		return 3
	case BasicReal:
		return 4
	case BasicLongReal:
		return 5
	}
	return -1
}
