package svc

import "fmt"

// Result is a kernel error code. The value packs a description and the
// kernel's module number the way the ABI does, so codes here line up with
// what a real kernel would return.
type Result uint32

const (
	ResultNotImplemented   Result = 33<<9 | 1
	ResultInvalidAddress   Result = 102<<9 | 1
	ResultInvalidHandle    Result = 114<<9 | 1
	ResultInvalidEnumValue Result = 120<<9 | 1
	ResultSessionClosed    Result = 123<<9 | 1
	ResultInvalidState     Result = 125<<9 | 1
	ResultOutOfResource    Result = 132<<9 | 1
)

func (r Result) Error() string {
	return fmt.Sprintf("kernel result %#06x", uint32(r))
}
