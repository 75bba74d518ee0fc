package index

import (
	"context"
	"reflect"
	"strings"
	"testing"
)

func TestWindows(t *testing.T) {
	body := []string{"aaaa", "bb", "cccccc", "d"}

	got := Windows(body, 5)
	want := [][]string{
		{"aaaa", "bb"},
		{"bb", "cccccc"},
		{"cccccc"},
		{"d"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Windows = %v, want %v", got, want)
	}
}

func TestWindows_Empty(t *testing.T) {
	if got := Windows(nil, 500); len(got) != 0 {
		t.Errorf("expected no windows, got %v", got)
	}
}

func TestBestWindow(t *testing.T) {
	body := []string{
		strings.Repeat("filler ", 10),
		"bbolt is an embedded key value store",
		strings.Repeat("padding ", 10),
		"nothing relevant here",
	}

	got, err := BestWindow(context.Background(), "bbolt", body, 40)
	if err != nil {
		t.Fatalf("BestWindow: %v", err)
	}
	if len(got) == 0 || got[0] != body[1] {
		t.Errorf("expected window starting at the matching line, got %v", got)
	}
}

func TestBestWindow_NoMatch(t *testing.T) {
	got, err := BestWindow(context.Background(), "absent", []string{"alpha", "beta"}, 500)
	if err != nil {
		t.Fatalf("BestWindow: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil, got %v", got)
	}
}

func TestBestWindow_EmptyBody(t *testing.T) {
	got, err := BestWindow(context.Background(), "x", nil, 500)
	if err != nil || got != nil {
		t.Errorf("expected nil, nil; got %v, %v", got, err)
	}
}
