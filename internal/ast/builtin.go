package ast

// BuiltInKind enumerates the compiler-intrinsic procedures.
type BuiltInKind uint8

const (
	BiAbs BuiltInKind = iota
	BiOdd
	BiLen
	BiLsl
	BiAsr
	BiRor
	BiFloor
	BiFlt
	BiOrd
	BiChr
	BiInc
	BiDec
	BiIncl
	BiExcl
	BiNew
	BiAssert
	BiMax
	BiMin
	BiShort
	BiLong
	BiHalt
	BiCopy
	BiSize
	BiEntier
	BiStrlen
	BiWchr
)

var builtInNames = [...]string{
	BiAbs:    "ABS",
	BiOdd:    "ODD",
	BiLen:    "LEN",
	BiLsl:    "LSL",
	BiAsr:    "ASR",
	BiRor:    "ROR",
	BiFloor:  "FLOOR",
	BiFlt:    "FLT",
	BiOrd:    "ORD",
	BiChr:    "CHR",
	BiInc:    "INC",
	BiDec:    "DEC",
	BiIncl:   "INCL",
	BiExcl:   "EXCL",
	BiNew:    "NEW",
	BiAssert: "ASSERT",
	BiMax:    "MAX",
	BiMin:    "MIN",
	BiShort:  "SHORT",
	BiLong:   "LONG",
	BiHalt:   "HALT",
	BiCopy:   "COPY",
	BiSize:   "SIZE",
	BiEntier: "ENTIER",
	BiStrlen: "STRLEN",
	BiWchr:   "WCHR",
}

func (b BuiltInKind) String() string {
	if int(b) < len(builtInNames) {
		return builtInNames[b]
	}
	return "?"
}

// BuiltIns lists every intrinsic, in declaration order.
func BuiltIns() []BuiltInKind {
	out := make([]BuiltInKind, 0, len(builtInNames))
	for i := range builtInNames {
		out = append(out, BuiltInKind(i)) // #nosec G115 -- small table
	}
	return out
}
