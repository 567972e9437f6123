package diag

import "fmt"

// Code identifies a diagnostic kind. The numeric value groups codes by
// phase; String returns the stable name hosts match on.
type Code uint16

const (
	UnknownCode Code = 0

	// Lexical
	LexUnexpectedChar     Code = 1001
	LexUnterminatedString Code = 1002
	LexUnterminatedComment Code = 1003
	LexBadNumber          Code = 1004
	LexBadCharCode        Code = 1005

	// Syntax
	SynUnexpectedToken Code = 2001
	SynExpectIdent     Code = 2002
	SynExpectToken     Code = 2003
	SynDuplicatePath   Code = 2004
	SynParseError      Code = 2005
	SynBadExportMark   Code = 2006

	// Module graph and scopes
	SemModuleCycle       Code = 3001
	SemGenericCycle      Code = 3002
	SemModuleNotFound    Code = 3003
	SemImportBroken      Code = 3004
	SemDuplicateName     Code = 3005
	SemUnresolvedIdent   Code = 3006
	SemReadonlyViolation Code = 3007
	SemNotExported       Code = 3008

	// Type resolver
	SemIllegalSelfRef     Code = 3101
	SemPointerBaseIllegal Code = 3102
	SemRecordBaseIllegal  Code = 3103
	SemArrayLenError      Code = 3104
	SemExtensionTooDeep   Code = 3105
	SemExtensionCycle     Code = 3106
	SemGenericArity       Code = 3107
	SemAnonRecordRebound  Code = 3108

	// Expressions and statements
	SemTypeMismatch       Code = 3201
	SemNotNumeric         Code = 3202
	SemNotBoolean         Code = 3203
	SemIntegerOnly        Code = 3204
	SemNotAProcedure      Code = 3205
	SemArityMismatch      Code = 3206
	SemNotAnArray         Code = 3207
	SemIndexNotInteger    Code = 3208
	SemInvalidGuard       Code = 3209
	SemRangeMisuse        Code = 3210
	SemAssignIncompatible Code = 3211
	SemInvalidLvalue      Code = 3212
	SemVarParamMismatch   Code = 3213
	SemNotComparable      Code = 3214
	SemConstNotConstant   Code = 3215
	SemConstOverflow      Code = 3216
	SemCaseLabelOverlap   Code = 3217
	SemExitOutsideLoop    Code = 3218
	SemForStepZero        Code = 3219
	SemForControlNotLocal Code = 3220
	SemForControlAssigned Code = 3221
	SemReturnMismatch     Code = 3222
	SemNotASet            Code = 3223
	SemSetElementRange    Code = 3224
	SemBuiltInMisuse      Code = 3225
	SemDerefNonPointer    Code = 3226
	SemSelectorBase       Code = 3227

	// Validator
	ValMissingReturn        Code = 4001
	ValOverrideSignature    Code = 4002
	ValOverrideVisibility   Code = 4003
	ValUnusedImport         Code = 4004
)

var codeNames = map[Code]string{
	UnknownCode: "unknown",

	LexUnexpectedChar:      "unexpected-char",
	LexUnterminatedString:  "unterminated-string",
	LexUnterminatedComment: "unterminated-comment",
	LexBadNumber:           "bad-number",
	LexBadCharCode:         "bad-char-code",

	SynUnexpectedToken: "unexpected-token",
	SynExpectIdent:     "expect-ident",
	SynExpectToken:     "expect-token",
	SynDuplicatePath:   "duplicate-path",
	SynParseError:      "parse-error",
	SynBadExportMark:   "bad-export-mark",

	SemModuleCycle:       "module-cycle",
	SemGenericCycle:      "generic-cycle",
	SemModuleNotFound:    "module-not-found",
	SemImportBroken:      "import-broken",
	SemDuplicateName:     "duplicate-name",
	SemUnresolvedIdent:   "unresolved-ident",
	SemReadonlyViolation: "readonly-violation",
	SemNotExported:       "not-exported",

	SemIllegalSelfRef:     "illegal-self-ref",
	SemPointerBaseIllegal: "pointer-base-illegal",
	SemRecordBaseIllegal:  "record-base-illegal",
	SemArrayLenError:      "array-length-error",
	SemExtensionTooDeep:   "extension-too-deep",
	SemExtensionCycle:     "extension-cycle",
	SemGenericArity:       "generic-arity",
	SemAnonRecordRebound:  "anonymous-record-rebound",

	SemTypeMismatch:       "type-mismatch",
	SemNotNumeric:         "not-numeric",
	SemNotBoolean:         "not-boolean",
	SemIntegerOnly:        "integer-only",
	SemNotAProcedure:      "not-a-procedure",
	SemArityMismatch:      "arity-mismatch",
	SemNotAnArray:         "not-an-array",
	SemIndexNotInteger:    "index-not-integer",
	SemInvalidGuard:       "invalid-guard",
	SemRangeMisuse:        "range-misuse",
	SemAssignIncompatible: "assign-incompatible",
	SemInvalidLvalue:      "invalid-lvalue",
	SemVarParamMismatch:   "var-param-mismatch",
	SemNotComparable:      "not-comparable",
	SemConstNotConstant:   "const-not-constant",
	SemConstOverflow:      "const-overflow",
	SemCaseLabelOverlap:   "case-label-overlap",
	SemExitOutsideLoop:    "exit-outside-loop",
	SemForStepZero:        "for-step-zero",
	SemForControlNotLocal: "for-control-not-local",
	SemForControlAssigned: "for-control-assigned",
	SemReturnMismatch:     "return-mismatch",
	SemNotASet:            "not-a-set",
	SemSetElementRange:    "set-element-range",
	SemBuiltInMisuse:      "builtin-misuse",
	SemDerefNonPointer:    "deref-non-pointer",
	SemSelectorBase:       "selector-base",

	ValMissingReturn:      "missing-return",
	ValOverrideSignature:  "override-signature-mismatch",
	ValOverrideVisibility: "override-visibility-narrow",
	ValUnusedImport:       "unused-import",
}

// String returns the stable name of the code.
func (c Code) String() string {
	if name, ok := codeNames[c]; ok {
		return name
	}
	return fmt.Sprintf("code-%d", uint16(c))
}
