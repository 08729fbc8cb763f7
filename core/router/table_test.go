package router

import (
	"errors"
	"reflect"
	"testing"

	"github.com/searchktools/tcp-dispatch/core/http"
)

func textHandler(body string) http.HandlerFunc {
	return func(req *http.Request) (*http.Response, error) {
		return http.Text(200, body), nil
	}
}

func call(t *testing.T, h http.HandlerFunc) string {
	t.Helper()
	resp, err := h(&http.Request{})
	if err != nil {
		t.Fatalf("Unexpected handler error: %v", err)
	}
	return string(resp.Body)
}

// TestTableExactMatch tests static exact matching
func TestTableExactMatch(t *testing.T) {
	table := NewTable()
	table.Add("GET", "/", textHandler("root"))
	table.Add("GET", "/hello", textHandler("hello"))
	table.Add("GET", "/hello/world", textHandler("world"))

	tests := []struct {
		method      string
		path        string
		shouldMatch bool
	}{
		{"GET", "/", true},
		{"GET", "/hello", true},
		{"GET", "/hello/world", true},
		{"GET", "/hello/", false},
		{"GET", "/Hello", false},
		{"GET", "/notfound", false},
		{"POST", "/hello", false},
	}

	for _, tt := range tests {
		_, ok := table.Find(tt.method, tt.path)
		if ok != tt.shouldMatch {
			t.Errorf("%s %s: expected match=%v, got match=%v", tt.method, tt.path, tt.shouldMatch, ok)
		}
	}
}

// TestTableReplace tests that a second registration wins
func TestTableReplace(t *testing.T) {
	table := NewTable()
	table.Add("GET", "/x", textHandler("first"))
	table.Add("GET", "/x", textHandler("second"))

	h, ok := table.Find("GET", "/x")
	if !ok {
		t.Fatal("Expected route to match")
	}
	if got := call(t, h); got != "second" {
		t.Errorf("Expected second handler, got %s", got)
	}
	if table.Len() != 1 {
		t.Errorf("Expected 1 route, got %d", table.Len())
	}
}

// TestTableMethodKey tests GET and POST on one path stay separate
func TestTableMethodKey(t *testing.T) {
	table := NewTable()
	table.Add("get", "/item", textHandler("get"))
	table.Add("POST", "/item", textHandler("post"))

	h, _ := table.Find("GET", "/item")
	if got := call(t, h); got != "get" {
		t.Errorf("Expected get handler, got %s", got)
	}
	h, _ = table.Find("POST", "/item")
	if got := call(t, h); got != "post" {
		t.Errorf("Expected post handler, got %s", got)
	}

	if got := table.Allowed("/item"); !reflect.DeepEqual(got, []string{"GET", "POST"}) {
		t.Errorf("Expected [GET POST], got %v", got)
	}
	if got := table.Allowed("/none"); got != nil {
		t.Errorf("Expected nil, got %v", got)
	}
}

func TestTableSeal(t *testing.T) {
	table := NewTable()
	if err := table.Add("GET", "/a", textHandler("a")); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	table.Seal()
	if !table.Sealed() {
		t.Error("Expected table to be sealed")
	}
	if err := table.Add("GET", "/b", textHandler("b")); !errors.Is(err, ErrSealed) {
		t.Errorf("Expected ErrSealed, got %v", err)
	}
	if _, ok := table.Find("GET", "/a"); !ok {
		t.Error("Expected existing route to survive sealing")
	}
}

func TestTableAddInvalid(t *testing.T) {
	table := NewTable()
	if err := table.Add("GET", "/a", nil); err == nil {
		t.Error("Expected error for nil handler")
	}
	if err := table.Add("GET", "a", textHandler("a")); err == nil {
		t.Error("Expected error for relative path")
	}
	if table.Len() != 0 {
		t.Errorf("Expected empty table, got %d routes", table.Len())
	}
}

func BenchmarkTableFind(b *testing.B) {
	table := NewTable()
	table.Add("GET", "/api/users", textHandler("u"))
	table.Add("GET", "/api/posts", textHandler("p"))

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		table.Find("GET", "/api/users")
	}
}
