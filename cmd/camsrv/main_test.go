package main

import "testing"

func TestRecorderForDistinctPrefixes(t *testing.T) {
	r := recorder{Root: "/data", Prefix: "gencam", Ext: "fits", Enabled: true}
	a := recorderFor(r, "SIM-0001")
	b := recorderFor(r, "SIM-0002")
	if a.Prefix == b.Prefix {
		t.Fatalf("two cameras share recorder prefix %q", a.Prefix)
	}
	if a.Prefix != "gencam-SIM-0001" {
		t.Errorf("expected gencam-SIM-0001, got %s", a.Prefix)
	}
	if a.Root != "/data" || a.Ext != "fits" || !a.Enabled {
		t.Errorf("recorder settings not carried over: %+v", a)
	}
}

func TestRecorderForEmptyPrefix(t *testing.T) {
	got := recorderFor(recorder{Ext: "fits"}, "SIM-0001").Prefix
	if got != "SIM-0001" {
		t.Errorf("expected bare serial prefix, got %s", got)
	}
}
