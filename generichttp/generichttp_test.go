package generichttp_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/candelalabs/gencam/generichttp"
	"github.com/go-chi/chi"
)

func TestSubMuxSanitize(t *testing.T) {
	cases := []struct {
		in, out string
	}{
		{"camera", "/camera"},
		{"/camera", "/camera"},
		{"/camera/", "/camera"},
		{"camera//", "/camera"},
		{"/", "/"},
	}
	for _, c := range cases {
		if got := generichttp.SubMuxSanitize(c.in); got != c.out {
			t.Errorf("SubMuxSanitize(%q): expected %q, got %q", c.in, c.out, got)
		}
	}
}

func TestRouteTableEndpoints(t *testing.T) {
	nop := func(w http.ResponseWriter, r *http.Request) {}
	rt := generichttp.RouteTable{
		generichttp.MethodPath{Method: http.MethodPost, Path: "/b"}: nop,
		generichttp.MethodPath{Method: http.MethodGet, Path: "/a"}:  nop,
	}
	got := rt.Endpoints()
	expected := []string{"GET /a", "POST /b"}
	if !reflect.DeepEqual(got, expected) {
		t.Errorf("expected %v, got %v", expected, got)
	}
}

func TestBindAndFactories(t *testing.T) {
	val := 0.0
	rt := generichttp.RouteTable{
		generichttp.MethodPath{Method: http.MethodGet, Path: "/v"}: generichttp.GetFloat(func() (float64, error) {
			return val, nil
		}),
		generichttp.MethodPath{Method: http.MethodPost, Path: "/v"}: generichttp.SetFloat(func(f float64) error {
			val = f
			return nil
		}),
	}
	mux := chi.NewRouter()
	rt.Bind(mux)
	srv := httptest.NewServer(mux)
	defer srv.Close()

	body, _ := json.Marshal(generichttp.FloatT{F64: 2.5})
	resp, err := http.Post(srv.URL+"/v", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if val != 2.5 {
		t.Errorf("expected 2.5 stored, got %g", val)
	}

	resp, err = http.Get(srv.URL + "/v")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected application/json, got %q", ct)
	}
	var f generichttp.FloatT
	if err := json.NewDecoder(resp.Body).Decode(&f); err != nil {
		t.Fatalf("decode: %v", err)
	}
	resp.Body.Close()
	if f.F64 != 2.5 {
		t.Errorf("expected 2.5, got %g", f.F64)
	}
}
