package vars

import (
	"bytes"
	"strings"
	"testing"
)

func TestFprint(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	Fprint(&buf)

	out := buf.String()
	if !strings.HasPrefix(out, "tiled2godot "+Version) || !strings.HasSuffix(out, "\n") {
		t.Fatalf("unexpected version line %q", out)
	}
}
