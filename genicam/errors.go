package genicam

import "fmt"

// Code is a camera error code.  Zero means success.
type Code int

// The error codes shared by the node map and device layers.
const (
	ErrSuccess             Code = 0
	ErrNotInitialized      Code = 1
	ErrNotImplemented      Code = 2
	ErrNotReadable         Code = 3
	ErrNotWritable         Code = 4
	ErrOutOfRange          Code = 5
	ErrWrongType           Code = 6
	ErrBadEnumEntry        Code = 7
	ErrTimeout             Code = 8
	ErrAcquisitionActive   Code = 9
	ErrAcquisitionInactive Code = 10
	ErrBufferIncomplete    Code = 11
	ErrDuplicateNode       Code = 12
	ErrResourceInUse       Code = 13
)

// CodeNames maps error codes to their names.
var CodeNames = map[Code]string{
	ErrSuccess:             "SUCCESS",
	ErrNotInitialized:      "NOT_INITIALIZED",
	ErrNotImplemented:      "NOT_IMPLEMENTED",
	ErrNotReadable:         "NOT_READABLE",
	ErrNotWritable:         "NOT_WRITABLE",
	ErrOutOfRange:          "OUT_OF_RANGE",
	ErrWrongType:           "WRONG_TYPE",
	ErrBadEnumEntry:        "BAD_ENUM_ENTRY",
	ErrTimeout:             "TIMEOUT",
	ErrAcquisitionActive:   "ACQUISITION_ACTIVE",
	ErrAcquisitionInactive: "ACQUISITION_INACTIVE",
	ErrBufferIncomplete:    "BUFFER_INCOMPLETE",
	ErrDuplicateNode:       "DUPLICATE_NODE",
	ErrResourceInUse:       "RESOURCE_IN_USE",
}

func (c Code) Error() string {
	name, known := CodeNames[c]
	if !known {
		name = "UNKNOWN_ERROR_CODE"
	}
	return fmt.Sprintf("%d - %s", int(c), name)
}

// Error converts an error code to a Go error, nil on success.
func Error(code int) error {
	if code == int(ErrSuccess) {
		return nil
	}
	return Code(code)
}

// NodeNotFound is generated when a nonexistent node is queried.
type NodeNotFound struct {
	// Node is the name of the node
	Node string
}

func (e NodeNotFound) Error() string {
	return fmt.Sprintf("node %s not found in the node map", e.Node)
}

// NodeError is an error code bound to the node that produced it.
type NodeError struct {
	Node string
	Code Code
}

func (e NodeError) Error() string {
	return fmt.Sprintf("%s: %s", e.Node, e.Code.Error())
}

// Unwrap returns the underlying code so callers can match with errors.Is.
func (e NodeError) Unwrap() error {
	return e.Code
}

func nodeErr(name string, c Code) error {
	return NodeError{Node: name, Code: c}
}
