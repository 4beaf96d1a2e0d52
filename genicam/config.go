package genicam

import (
	"io"
	"io/ioutil"

	"gopkg.in/yaml.v2"
)

// streamable nodes are those carried by SaveConfig/LoadConfig: readable and
// writable value nodes.  Commands, categories, and one-way nodes are not.
func streamable(n Node) bool {
	switch n.Type() {
	case CommandType, CategoryType:
		return false
	}
	return n.Access().Readable() && n.Access().Writable()
}

// SaveConfig writes the values of all streamable nodes to w as YAML, in
// registration order.  The output round-trips through LoadConfig.
func (nm *NodeMap) SaveConfig(w io.Writer) error {
	doc := make(yaml.MapSlice, 0, len(nm.order))
	for _, name := range nm.order {
		n := nm.nodes[name]
		if !streamable(n) {
			continue
		}
		var (
			v   interface{}
			err error
		)
		switch t := n.(type) {
		case *Integer:
			v, err = t.Value()
		case *Float:
			v, err = t.Value()
		case *Boolean:
			v, err = t.Value()
		case *String:
			v, err = t.Value()
		case *Enumeration:
			v, err = t.Value()
		default:
			continue
		}
		if err != nil {
			return err
		}
		doc = append(doc, yaml.MapItem{Key: name, Value: v})
	}
	buf, err := yaml.Marshal(doc)
	if err != nil {
		return err
	}
	_, err = w.Write(buf)
	return err
}

// LoadConfig reads a YAML document written by SaveConfig and applies it.
// Values are applied in node registration order so that dependent features
// (e.g. offsets constrained by image size) are written after the features
// they depend on, regardless of file order.  Read-only nodes named in the
// file are skipped.  The first failed write aborts the load.
func (nm *NodeMap) LoadConfig(r io.Reader) error {
	buf, err := ioutil.ReadAll(r)
	if err != nil {
		return err
	}
	doc := yaml.MapSlice{}
	if err := yaml.Unmarshal(buf, &doc); err != nil {
		return err
	}
	values := make(map[string]interface{}, len(doc))
	for _, item := range doc {
		name, ok := item.Key.(string)
		if !ok {
			continue
		}
		if _, exists := nm.nodes[name]; !exists {
			return NodeNotFound{Node: name}
		}
		values[name] = item.Value
	}
	for _, name := range nm.order {
		v, present := values[name]
		if !present {
			continue
		}
		n := nm.nodes[name]
		if !n.Access().Writable() {
			continue
		}
		if err := applyValue(n, v); err != nil {
			return err
		}
	}
	return nil
}

func applyValue(n Node, v interface{}) error {
	switch t := n.(type) {
	case *Integer:
		switch x := v.(type) {
		case int:
			return t.SetValue(int64(x))
		case int64:
			return t.SetValue(x)
		}
	case *Float:
		switch x := v.(type) {
		case float64:
			return t.SetValue(x)
		case int:
			return t.SetValue(float64(x))
		}
	case *Boolean:
		if x, ok := v.(bool); ok {
			return t.SetValue(x)
		}
	case *String:
		if x, ok := v.(string); ok {
			return t.SetValue(x)
		}
	case *Enumeration:
		if x, ok := v.(string); ok {
			return t.SetValue(x)
		}
	}
	return nodeErr(n.Name(), ErrWrongType)
}
