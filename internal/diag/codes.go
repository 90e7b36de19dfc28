package diag

import "fmt"

// Code is a stable numeric diagnostic identifier, grouped by compiler
// stage in blocks of 1000 so a reader can tell a diagnostic's origin
// stage from its code alone.
type Code uint16

const (
	UnknownCode Code = 0

	// Lex: 1000s
	LexInfo                     Code = 1000
	LexUnknownChar              Code = 1001
	LexUnterminatedString       Code = 1002
	LexUnterminatedBlockComment Code = 1003
	LexBadNumber                Code = 1004
	LexTokenTooLong             Code = 1005
	LexInvalidEscape            Code = 1006

	// Parse: 2000s
	SynInfo             Code = 2000
	SynUnexpectedToken  Code = 2001
	SynUnclosedDelim    Code = 2002
	SynExpectSemicolon  Code = 2003
	SynMissingTypeAnnot Code = 2004
	SynForMissingIn     Code = 2005

	// Type-check: 3000s (§4.3 failure modes)
	TypeInfo              Code = 3000
	TypeUndeclaredSymbol   Code = 3001
	TypeMismatch           Code = 3002
	TypeMissingMethod      Code = 3003
	TypeUnsatisfiedBound   Code = 3004
	TypeThrowsNotDeclared  Code = 3005
	TypeGenericArityMismatch Code = 3006
	TypePlatformConflict   Code = 3007
	TypeOptionMisuse       Code = 3008
	TypeMissingEntrypoint  Code = 3009
	TypeDuplicateSymbol    Code = 3010
	TypeInvalidUse         Code = 3011

	// Lowering/codegen: 4000s (§4.5 failure modes, fatal)
	CodegenOutOfMemory         Code = 4001
	CodegenRelocationOverflow  Code = 4002
	CodegenUnknownHostSymbol   Code = 4003
	CodegenABIMismatch         Code = 4004
	CodegenUnresolvedGeneric   Code = 4005

	// Runtime faults: 5000s (§7)
	RuntimeUncaughtException Code = 5001
	RuntimeForceUnwrapNone   Code = 5002
	RuntimeIntegerOverflow   Code = 5003
	RuntimeIndexOutOfBounds  Code = 5004
	RuntimeSendOnClosed      Code = 5005
	RuntimeReleaseUnderflow  Code = 5006
	RuntimeStackOverflow     Code = 5007

	// Driver: 6000s (§6.4 exit code 3, "I/O or manifest error")
	DriverInfo           Code = 6000
	DriverIOError        Code = 6001
	DriverManifestError  Code = 6002
	DriverCacheError     Code = 6003
)

func (c Code) String() string {
	return fmt.Sprintf("E%04d", uint16(c))
}
