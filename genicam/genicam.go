/*Package genicam implements a generic camera feature model in the style of
the GenICam standard.  Cameras expose their configuration as a tree of typed
nodes (integer, float, boolean, string, enumeration, command, category) with
per-node access modes.  Client code discovers features by walking the tree or
querying a NodeMap by name, without compile-time knowledge of which features
a given device implements.

A device backend constructs nodes and wires their OnGet/OnSet hooks into its
own state.  Hooks run after validation, so a backend only sees values that
are in range, of the right type, and permitted by the node's access mode.

Nodes are not synchronized internally.  A backend that serves multiple
goroutines guards its state in its hooks; nodes without hooks should only be
mutated from one goroutine.
*/
package genicam

// NodeType tags the value type of a node.
type NodeType int

// The node types.  The string forms are the wire tags used by HTTP
// feature discovery and config files.
const (
	IntegerType NodeType = iota
	FloatType
	BooleanType
	StringType
	EnumerationType
	CommandType
	CategoryType
)

func (t NodeType) String() string {
	switch t {
	case IntegerType:
		return "int"
	case FloatType:
		return "float"
	case BooleanType:
		return "bool"
	case StringType:
		return "string"
	case EnumerationType:
		return "enum"
	case CommandType:
		return "command"
	case CategoryType:
		return "category"
	}
	return "unknown"
}

// AccessMode describes whether a node may be read or written.
type AccessMode int

// The access modes.
const (
	NotImplemented AccessMode = iota
	NotAvailable
	ReadOnly
	WriteOnly
	ReadWrite
)

// Readable returns true if the mode permits reads.
func (m AccessMode) Readable() bool {
	return m == ReadOnly || m == ReadWrite
}

// Writable returns true if the mode permits writes.
func (m AccessMode) Writable() bool {
	return m == WriteOnly || m == ReadWrite
}

func (m AccessMode) String() string {
	switch m {
	case NotImplemented:
		return "NI"
	case NotAvailable:
		return "NA"
	case ReadOnly:
		return "RO"
	case WriteOnly:
		return "WO"
	case ReadWrite:
		return "RW"
	}
	return "??"
}

// Node is a single feature in a camera's configuration tree.
type Node interface {
	// Name is the feature's programmatic name, e.g. "ExposureTime"
	Name() string

	// DisplayName is the feature's human-oriented name, e.g. "Exposure Time"
	DisplayName() string

	// Description is a sentence or two about what the feature does
	Description() string

	// Type is the node's value type
	Type() NodeType

	// Access is the node's access mode
	Access() AccessMode
}

// info carries the identity common to every node type.
type info struct {
	name        string
	displayName string
	description string
	access      AccessMode
}

func (i info) Name() string        { return i.name }
func (i info) DisplayName() string { return i.displayName }
func (i info) Description() string { return i.description }
func (i info) Access() AccessMode  { return i.access }
