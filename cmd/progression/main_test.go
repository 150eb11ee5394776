package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/server"
)

func TestServe_StopsOnCancel(t *testing.T) {
	s := server.NewMCPServer("progression-test", "test")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := serve(ctx, s, strings.NewReader(""), &bytes.Buffer{}); err != nil {
		t.Fatalf("serve after cancel: %v", err)
	}
}

func TestServe_StopsOnClosedInput(t *testing.T) {
	s := server.NewMCPServer("progression-test", "test")

	if err := serve(context.Background(), s, strings.NewReader(""), &bytes.Buffer{}); err != nil {
		t.Fatalf("serve on closed stdin: %v", err)
	}
}
