// nodemap prints and edits a camera's feature tree.
package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/candelalabs/gencam/camera"
	"github.com/candelalabs/gencam/genicam"
)

var (
	get  = flag.String("get", "", "read one feature by name")
	set  = flag.String("set", "", "write one feature as name=value, or execute a command feature by name")
	save = flag.String("save", "", "save writable feature values to a YAML file")
	load = flag.String("load", "", "load feature values from a YAML file")
	tl   = flag.Bool("tl", false, "operate on the transport layer node map instead of the device's")
)

func valString(n genicam.Node) string {
	var v interface{}
	var err error
	switch nn := n.(type) {
	case *genicam.Integer:
		v, err = nn.Value()
	case *genicam.Float:
		f, ferr := nn.Value()
		if ferr == nil && nn.Unit() != "" {
			return fmt.Sprintf("%v %s", f, nn.Unit())
		}
		v, err = f, ferr
	case *genicam.Boolean:
		v, err = nn.Value()
	case *genicam.String:
		v, err = nn.Value()
	case *genicam.Enumeration:
		v, err = nn.Value()
	default:
		return ""
	}
	if err != nil {
		return "-"
	}
	return fmt.Sprint(v)
}

func printTree(nm *genicam.NodeMap) {
	nm.Walk(func(depth int, n genicam.Node) {
		indent := strings.Repeat("  ", depth)
		if n.Type() == genicam.CategoryType {
			fmt.Printf("%s%s\n", indent, n.Name())
			return
		}
		line := fmt.Sprintf("%s%s [%s %s]", indent, n.Name(), n.Type(), n.Access())
		if v := valString(n); v != "" {
			line += " = " + v
		}
		fmt.Println(line)
	})
}

func getFeature(nm *genicam.NodeMap, name string) error {
	n, err := nm.Get(name)
	if err != nil {
		return err
	}
	if n.Type() == genicam.CommandType {
		return fmt.Errorf("nodemap: %s is a command, not a value", name)
	}
	if e, ok := n.(*genicam.Enumeration); ok {
		v, err := e.Value()
		if err != nil {
			return err
		}
		fmt.Printf("%s (one of %s)\n", v, strings.Join(e.Entries(), ", "))
		return nil
	}
	fmt.Println(valString(n))
	return nil
}

func setFeature(nm *genicam.NodeMap, arg string) error {
	name := arg
	value := ""
	if i := strings.Index(arg, "="); i >= 0 {
		name, value = arg[:i], arg[i+1:]
	}
	n, err := nm.Get(name)
	if err != nil {
		return err
	}
	switch n.(type) {
	case *genicam.Integer:
		v, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return err
		}
		return nm.SetInt(name, v)
	case *genicam.Float:
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		return nm.SetFloat(name, v)
	case *genicam.Boolean:
		v, err := strconv.ParseBool(value)
		if err != nil {
			return err
		}
		return nm.SetBool(name, v)
	case *genicam.String:
		return nm.SetString(name, value)
	case *genicam.Enumeration:
		return nm.SetEnum(name, value)
	case *genicam.Command:
		return nm.Execute(name)
	}
	return fmt.Errorf("nodemap: %s cannot be set", name)
}

func run() error {
	camera.Register(camera.SimProvider{Configs: []camera.SimConfig{{Serial: "SIM-0001"}}})
	sys, err := camera.NewSystem()
	if err != nil {
		return err
	}
	c, err := sys.Open(0)
	if err != nil {
		return err
	}
	if err := c.Init(); err != nil {
		return err
	}
	defer c.Close()
	nm := c.NodeMap()
	if *tl {
		nm = c.TLNodeMap()
	}

	switch {
	case *get != "":
		return getFeature(nm, *get)
	case *set != "":
		return setFeature(nm, *set)
	case *save != "":
		f, err := os.Create(*save)
		if err != nil {
			return err
		}
		defer f.Close()
		return nm.SaveConfig(f)
	case *load != "":
		f, err := os.Open(*load)
		if err != nil {
			return err
		}
		defer f.Close()
		return nm.LoadConfig(f)
	}
	printTree(nm)
	return nil
}

func main() {
	flag.Parse()
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
