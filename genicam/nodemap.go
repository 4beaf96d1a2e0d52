package genicam

import "sort"

// NodeMap is a registry of nodes organized into a category tree.
type NodeMap struct {
	root  *Category
	nodes map[string]Node
	order []string
}

// NewMap returns an empty node map with a Root category.
func NewMap() *NodeMap {
	return &NodeMap{
		root:  NewCategory("Root"),
		nodes: make(map[string]Node),
	}
}

// Add registers nodes under the named top-level category, creating the
// category on first use.  Nested categories passed as nodes are registered
// recursively.  Names must be unique across the whole map.
func (nm *NodeMap) Add(category string, nodes ...Node) error {
	cat, err := nm.category(category)
	if err != nil {
		return err
	}
	for _, n := range nodes {
		if err := nm.register(n); err != nil {
			return err
		}
		cat.add(n)
	}
	return nil
}

func (nm *NodeMap) category(name string) (*Category, error) {
	if existing, ok := nm.nodes[name]; ok {
		cat, isCat := existing.(*Category)
		if !isCat {
			return nil, nodeErr(name, ErrDuplicateNode)
		}
		return cat, nil
	}
	cat := NewCategory(name)
	nm.nodes[name] = cat
	nm.order = append(nm.order, name)
	nm.root.add(cat)
	return cat, nil
}

func (nm *NodeMap) register(n Node) error {
	if _, exists := nm.nodes[n.Name()]; exists {
		return nodeErr(n.Name(), ErrDuplicateNode)
	}
	nm.nodes[n.Name()] = n
	nm.order = append(nm.order, n.Name())
	if cat, ok := n.(*Category); ok {
		for _, child := range cat.children {
			if err := nm.register(child); err != nil {
				return err
			}
		}
	}
	return nil
}

// Root returns the root category.
func (nm *NodeMap) Root() *Category {
	return nm.root
}

// Get returns the node with the given name.
func (nm *NodeMap) Get(name string) (Node, error) {
	n, ok := nm.nodes[name]
	if !ok {
		return nil, NodeNotFound{Node: name}
	}
	return n, nil
}

// Names returns the registered node names, sorted.
func (nm *NodeMap) Names() []string {
	out := make([]string, 0, len(nm.nodes))
	for k := range nm.nodes {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Types maps feature names to their type tags ("int", "float", "bool",
// "string", "enum", "command").  Categories are structure, not features,
// and are omitted.
func (nm *NodeMap) Types() map[string]string {
	out := make(map[string]string, len(nm.nodes))
	for name, n := range nm.nodes {
		if n.Type() == CategoryType {
			continue
		}
		out[name] = n.Type().String()
	}
	return out
}

// Walk visits every node reachable from Root depth-first, passing the
// node's depth below Root (top-level categories are depth 0).
func (nm *NodeMap) Walk(fn func(depth int, n Node)) {
	var walk func(depth int, n Node)
	walk = func(depth int, n Node) {
		fn(depth, n)
		if cat, ok := n.(*Category); ok {
			for _, child := range cat.children {
				walk(depth+1, child)
			}
		}
	}
	for _, child := range nm.root.children {
		walk(0, child)
	}
}

// Int returns the named node as an Integer.
func (nm *NodeMap) Int(name string) (*Integer, error) {
	n, err := nm.Get(name)
	if err != nil {
		return nil, err
	}
	t, ok := n.(*Integer)
	if !ok {
		return nil, nodeErr(name, ErrWrongType)
	}
	return t, nil
}

// Float returns the named node as a Float.
func (nm *NodeMap) Float(name string) (*Float, error) {
	n, err := nm.Get(name)
	if err != nil {
		return nil, err
	}
	t, ok := n.(*Float)
	if !ok {
		return nil, nodeErr(name, ErrWrongType)
	}
	return t, nil
}

// Bool returns the named node as a Boolean.
func (nm *NodeMap) Bool(name string) (*Boolean, error) {
	n, err := nm.Get(name)
	if err != nil {
		return nil, err
	}
	t, ok := n.(*Boolean)
	if !ok {
		return nil, nodeErr(name, ErrWrongType)
	}
	return t, nil
}

// Str returns the named node as a String.
func (nm *NodeMap) Str(name string) (*String, error) {
	n, err := nm.Get(name)
	if err != nil {
		return nil, err
	}
	t, ok := n.(*String)
	if !ok {
		return nil, nodeErr(name, ErrWrongType)
	}
	return t, nil
}

// Enum returns the named node as an Enumeration.
func (nm *NodeMap) Enum(name string) (*Enumeration, error) {
	n, err := nm.Get(name)
	if err != nil {
		return nil, err
	}
	t, ok := n.(*Enumeration)
	if !ok {
		return nil, nodeErr(name, ErrWrongType)
	}
	return t, nil
}

// Cmd returns the named node as a Command.
func (nm *NodeMap) Cmd(name string) (*Command, error) {
	n, err := nm.Get(name)
	if err != nil {
		return nil, err
	}
	t, ok := n.(*Command)
	if !ok {
		return nil, nodeErr(name, ErrWrongType)
	}
	return t, nil
}

// GetInt reads the named integer node.
func (nm *NodeMap) GetInt(name string) (int64, error) {
	n, err := nm.Int(name)
	if err != nil {
		return 0, err
	}
	return n.Value()
}

// SetInt writes the named integer node.
func (nm *NodeMap) SetInt(name string, v int64) error {
	n, err := nm.Int(name)
	if err != nil {
		return err
	}
	return n.SetValue(v)
}

// GetFloat reads the named float node.
func (nm *NodeMap) GetFloat(name string) (float64, error) {
	n, err := nm.Float(name)
	if err != nil {
		return 0, err
	}
	return n.Value()
}

// SetFloat writes the named float node.
func (nm *NodeMap) SetFloat(name string, v float64) error {
	n, err := nm.Float(name)
	if err != nil {
		return err
	}
	return n.SetValue(v)
}

// GetBool reads the named boolean node.
func (nm *NodeMap) GetBool(name string) (bool, error) {
	n, err := nm.Bool(name)
	if err != nil {
		return false, err
	}
	return n.Value()
}

// SetBool writes the named boolean node.
func (nm *NodeMap) SetBool(name string, v bool) error {
	n, err := nm.Bool(name)
	if err != nil {
		return err
	}
	return n.SetValue(v)
}

// GetString reads the named string node.
func (nm *NodeMap) GetString(name string) (string, error) {
	n, err := nm.Str(name)
	if err != nil {
		return "", err
	}
	return n.Value()
}

// SetString writes the named string node.
func (nm *NodeMap) SetString(name string, v string) error {
	n, err := nm.Str(name)
	if err != nil {
		return err
	}
	return n.SetValue(v)
}

// GetEnum reads the named enumeration node's current entry.
func (nm *NodeMap) GetEnum(name string) (string, error) {
	n, err := nm.Enum(name)
	if err != nil {
		return "", err
	}
	return n.Value()
}

// SetEnum selects an entry on the named enumeration node.
func (nm *NodeMap) SetEnum(name, entry string) error {
	n, err := nm.Enum(name)
	if err != nil {
		return err
	}
	return n.SetValue(entry)
}

// Execute runs the named command node.
func (nm *NodeMap) Execute(name string) error {
	n, err := nm.Cmd(name)
	if err != nil {
		return err
	}
	return n.Execute()
}
