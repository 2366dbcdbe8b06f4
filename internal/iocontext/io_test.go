package iocontext

import (
	"bytes"
	"context"
	"os"
	"strings"
	"testing"
)

func TestDefaultIO(t *testing.T) {
	streams := DefaultIO()
	if streams.Out != os.Stdout {
		t.Error("Out should default to os.Stdout")
	}
	if streams.ErrOut != os.Stderr {
		t.Error("ErrOut should default to os.Stderr")
	}
	if streams.In != os.Stdin {
		t.Error("In should default to os.Stdin")
	}
}

func TestWithIOAndGetIO(t *testing.T) {
	out := new(bytes.Buffer)
	errOut := new(bytes.Buffer)
	in := strings.NewReader("input")

	ctx := WithIO(context.Background(), &IO{Out: out, ErrOut: errOut, In: in})

	got := GetIO(ctx)
	if got.Out != out {
		t.Error("GetIO should return the attached Out writer")
	}
	if got.ErrOut != errOut {
		t.Error("GetIO should return the attached ErrOut writer")
	}
	if got.In != in {
		t.Error("GetIO should return the attached In reader")
	}
}

func TestGetIO_DefaultsWhenMissing(t *testing.T) {
	got := GetIO(context.Background())
	if got.Out != os.Stdout {
		t.Error("GetIO should fall back to process streams")
	}
}

func TestGetIO_DefaultsWhenNil(t *testing.T) {
	ctx := WithIO(context.Background(), nil)
	got := GetIO(ctx)
	if got == nil || got.Out != os.Stdout {
		t.Error("GetIO should fall back to process streams for nil IO")
	}
}
