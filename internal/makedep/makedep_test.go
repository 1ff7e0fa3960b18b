package makedep

import (
	"bytes"
	"testing"
)

func TestWrite(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, "out.o", []string{"a.bin", "b.o"}); err != nil {
		t.Fatalf("Write: %v", err)
	}

	want := "out.o: \\\n  a.bin \\\n  b.o \n\n" +
		"a.bin:\n\n" +
		"b.o:\n\n"
	if got := buf.String(); got != want {
		t.Errorf("got:\n%q\nwant:\n%q", got, want)
	}
}

func TestWrite_NoDeps(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, "out.o", nil); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if got, want := buf.String(), "out.o: \n\n"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}
