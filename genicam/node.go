package genicam

import "fmt"

// Integer is an integer-valued node with an inclusive range and an increment.
type Integer struct {
	info
	min, max, inc int64
	value         int64

	// OnGet, if set, supplies the value on reads instead of stored state
	OnGet func() int64

	// OnSet, if set, runs after validation on writes; the value is only
	// stored if it returns nil
	OnSet func(int64) error
}

// NewInteger returns an integer node.  initial is not validated against the
// range; it is the device's power-on value.
func NewInteger(name string, mode AccessMode, initial, min, max, inc int64) *Integer {
	return &Integer{
		info:  info{name: name, displayName: name, access: mode},
		min:   min,
		max:   max,
		inc:   inc,
		value: initial,
	}
}

// Describe sets the display name and description.
func (n *Integer) Describe(displayName, description string) {
	n.displayName = displayName
	n.description = description
}

// Type returns IntegerType.
func (n *Integer) Type() NodeType { return IntegerType }

// Min returns the minimum settable value.
func (n *Integer) Min() int64 { return n.min }

// Max returns the maximum settable value.
func (n *Integer) Max() int64 { return n.max }

// Inc returns the increment; settable values are min + k*inc.
func (n *Integer) Inc() int64 { return n.inc }

// Value reads the node.
func (n *Integer) Value() (int64, error) {
	if !n.access.Readable() {
		return 0, nodeErr(n.name, ErrNotReadable)
	}
	if n.OnGet != nil {
		return n.OnGet(), nil
	}
	return n.value, nil
}

// SetValue writes the node, enforcing access mode, range, and increment.
func (n *Integer) SetValue(v int64) error {
	if !n.access.Writable() {
		return nodeErr(n.name, ErrNotWritable)
	}
	if v < n.min || v > n.max {
		return nodeErr(n.name, ErrOutOfRange)
	}
	if n.inc > 1 && (v-n.min)%n.inc != 0 {
		return nodeErr(n.name, ErrOutOfRange)
	}
	if n.OnSet != nil {
		if err := n.OnSet(v); err != nil {
			return err
		}
	}
	n.value = v
	return nil
}

// Float is a float-valued node with an inclusive range and a unit.
type Float struct {
	info
	min, max float64
	unit     string
	value    float64

	// OnGet, if set, supplies the value on reads instead of stored state
	OnGet func() float64

	// OnSet, if set, runs after validation on writes; the value is only
	// stored if it returns nil
	OnSet func(float64) error
}

// NewFloat returns a float node.
func NewFloat(name string, mode AccessMode, initial, min, max float64, unit string) *Float {
	return &Float{
		info:  info{name: name, displayName: name, access: mode},
		min:   min,
		max:   max,
		unit:  unit,
		value: initial,
	}
}

// Describe sets the display name and description.
func (n *Float) Describe(displayName, description string) {
	n.displayName = displayName
	n.description = description
}

// Type returns FloatType.
func (n *Float) Type() NodeType { return FloatType }

// Min returns the minimum settable value.
func (n *Float) Min() float64 { return n.min }

// Max returns the maximum settable value.
func (n *Float) Max() float64 { return n.max }

// Unit returns the unit of the value, e.g. "us" or "dB".  May be empty.
func (n *Float) Unit() string { return n.unit }

// Value reads the node.
func (n *Float) Value() (float64, error) {
	if !n.access.Readable() {
		return 0, nodeErr(n.name, ErrNotReadable)
	}
	if n.OnGet != nil {
		return n.OnGet(), nil
	}
	return n.value, nil
}

// SetValue writes the node, enforcing access mode and range.
func (n *Float) SetValue(v float64) error {
	if !n.access.Writable() {
		return nodeErr(n.name, ErrNotWritable)
	}
	if v < n.min || v > n.max {
		return nodeErr(n.name, ErrOutOfRange)
	}
	if n.OnSet != nil {
		if err := n.OnSet(v); err != nil {
			return err
		}
	}
	n.value = v
	return nil
}

// Boolean is a true/false node.
type Boolean struct {
	info
	value bool

	// OnGet, if set, supplies the value on reads instead of stored state
	OnGet func() bool

	// OnSet, if set, runs after validation on writes; the value is only
	// stored if it returns nil
	OnSet func(bool) error
}

// NewBoolean returns a boolean node.
func NewBoolean(name string, mode AccessMode, initial bool) *Boolean {
	return &Boolean{
		info:  info{name: name, displayName: name, access: mode},
		value: initial,
	}
}

// Describe sets the display name and description.
func (n *Boolean) Describe(displayName, description string) {
	n.displayName = displayName
	n.description = description
}

// Type returns BooleanType.
func (n *Boolean) Type() NodeType { return BooleanType }

// Value reads the node.
func (n *Boolean) Value() (bool, error) {
	if !n.access.Readable() {
		return false, nodeErr(n.name, ErrNotReadable)
	}
	if n.OnGet != nil {
		return n.OnGet(), nil
	}
	return n.value, nil
}

// SetValue writes the node.
func (n *Boolean) SetValue(v bool) error {
	if !n.access.Writable() {
		return nodeErr(n.name, ErrNotWritable)
	}
	if n.OnSet != nil {
		if err := n.OnSet(v); err != nil {
			return err
		}
	}
	n.value = v
	return nil
}

// String is a text-valued node.
type String struct {
	info
	maxLength int
	value     string

	// OnGet, if set, supplies the value on reads instead of stored state
	OnGet func() string

	// OnSet, if set, runs after validation on writes; the value is only
	// stored if it returns nil
	OnSet func(string) error
}

// NewString returns a string node.  maxLength <= 0 means unlimited.
func NewString(name string, mode AccessMode, initial string, maxLength int) *String {
	return &String{
		info:      info{name: name, displayName: name, access: mode},
		maxLength: maxLength,
		value:     initial,
	}
}

// Describe sets the display name and description.
func (n *String) Describe(displayName, description string) {
	n.displayName = displayName
	n.description = description
}

// Type returns StringType.
func (n *String) Type() NodeType { return StringType }

// MaxLength returns the maximum settable length in bytes, or 0 for unlimited.
func (n *String) MaxLength() int { return n.maxLength }

// Value reads the node.
func (n *String) Value() (string, error) {
	if !n.access.Readable() {
		return "", nodeErr(n.name, ErrNotReadable)
	}
	if n.OnGet != nil {
		return n.OnGet(), nil
	}
	return n.value, nil
}

// SetValue writes the node, enforcing access mode and length.
func (n *String) SetValue(v string) error {
	if !n.access.Writable() {
		return nodeErr(n.name, ErrNotWritable)
	}
	if n.maxLength > 0 && len(v) > n.maxLength {
		return nodeErr(n.name, ErrOutOfRange)
	}
	if n.OnSet != nil {
		if err := n.OnSet(v); err != nil {
			return err
		}
	}
	n.value = v
	return nil
}

// Enumeration is a node whose value is one of a fixed set of named entries.
type Enumeration struct {
	info
	entries []string
	index   int

	// OnSet, if set, runs after validation on writes; the value is only
	// stored if it returns nil
	OnSet func(string) error
}

// NewEnumeration returns an enumeration node.  It panics if initial is not
// among entries; entry sets are static, so this is a programming error.
func NewEnumeration(name string, mode AccessMode, initial string, entries ...string) *Enumeration {
	n := &Enumeration{
		info:    info{name: name, displayName: name, access: mode},
		entries: entries,
		index:   -1,
	}
	for i, e := range entries {
		if e == initial {
			n.index = i
			break
		}
	}
	if n.index == -1 {
		panic(fmt.Sprintf("genicam: enumeration %s initialized to %q, not among its entries", name, initial))
	}
	return n
}

// Describe sets the display name and description.
func (n *Enumeration) Describe(displayName, description string) {
	n.displayName = displayName
	n.description = description
}

// Type returns EnumerationType.
func (n *Enumeration) Type() NodeType { return EnumerationType }

// Entries returns a copy of the entry names in index order.
func (n *Enumeration) Entries() []string {
	out := make([]string, len(n.entries))
	copy(out, n.entries)
	return out
}

// Index reads the current entry's index.
func (n *Enumeration) Index() (int, error) {
	if !n.access.Readable() {
		return 0, nodeErr(n.name, ErrNotReadable)
	}
	return n.index, nil
}

// Value reads the current entry's name.
func (n *Enumeration) Value() (string, error) {
	if !n.access.Readable() {
		return "", nodeErr(n.name, ErrNotReadable)
	}
	return n.entries[n.index], nil
}

// SetValue selects an entry by name.
func (n *Enumeration) SetValue(v string) error {
	if !n.access.Writable() {
		return nodeErr(n.name, ErrNotWritable)
	}
	for i, e := range n.entries {
		if e == v {
			if n.OnSet != nil {
				if err := n.OnSet(v); err != nil {
					return err
				}
			}
			n.index = i
			return nil
		}
	}
	return nodeErr(n.name, ErrBadEnumEntry)
}

// SetIndex selects an entry by index.
func (n *Enumeration) SetIndex(i int) error {
	if i < 0 || i >= len(n.entries) {
		return nodeErr(n.name, ErrBadEnumEntry)
	}
	return n.SetValue(n.entries[i])
}

// Command is an executable node.
type Command struct {
	info
	done bool

	// OnExecute performs the command; Execute fails without it
	OnExecute func() error
}

// NewCommand returns a command node.
func NewCommand(name string, mode AccessMode) *Command {
	return &Command{
		info: info{name: name, displayName: name, access: mode},
		done: true,
	}
}

// Describe sets the display name and description.
func (n *Command) Describe(displayName, description string) {
	n.displayName = displayName
	n.description = description
}

// Type returns CommandType.
func (n *Command) Type() NodeType { return CommandType }

// Done reports whether the last execution has completed.  Commands here run
// synchronously, so this is false only inside OnExecute.
func (n *Command) Done() bool { return n.done }

// Execute runs the command.
func (n *Command) Execute() error {
	if !n.access.Writable() {
		return nodeErr(n.name, ErrNotWritable)
	}
	if n.OnExecute == nil {
		return nodeErr(n.name, ErrNotImplemented)
	}
	n.done = false
	err := n.OnExecute()
	n.done = true
	return err
}

// Category groups nodes in the feature tree.
type Category struct {
	info
	children []Node
}

// NewCategory returns a category containing the given nodes.
func NewCategory(name string, children ...Node) *Category {
	return &Category{
		info:     info{name: name, displayName: name, access: ReadOnly},
		children: children,
	}
}

// Describe sets the display name and description.
func (n *Category) Describe(displayName, description string) {
	n.displayName = displayName
	n.description = description
}

// Type returns CategoryType.
func (n *Category) Type() NodeType { return CategoryType }

// Features returns the category's direct children in order.
func (n *Category) Features() []Node {
	out := make([]Node, len(n.children))
	copy(out, n.children)
	return out
}

func (n *Category) add(children ...Node) {
	n.children = append(n.children, children...)
}
