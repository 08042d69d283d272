package framegraph

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestArenaBudgetWarnsOncePerFrame(t *testing.T) {
	orig := Logger()
	t.Cleanup(func() { SetLogger(orig) })

	var buf bytes.Buffer
	SetLogger(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelWarn})))

	fg := New(newRecordingAllocator(), WithArenaBudget(1))
	frame := func() {
		for range 8 {
			AddPass(fg, "p", func(b *Builder, _ *struct{}) {
				b.CreateTexture("T", smallTexture)
			}, nil)
		}
	}

	frame()
	if n := strings.Count(buf.String(), "arena budget exceeded"); n != 1 {
		t.Fatalf("warnings after first frame = %d, want 1\n%s", n, buf.String())
	}

	fg.Reset()
	frame()
	if n := strings.Count(buf.String(), "arena budget exceeded"); n != 2 {
		t.Errorf("warnings after second frame = %d, want 2", n)
	}
}

func TestArenaWithinBudgetIsSilent(t *testing.T) {
	orig := Logger()
	t.Cleanup(func() { SetLogger(orig) })

	var buf bytes.Buffer
	SetLogger(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelWarn})))

	fg := New(newRecordingAllocator())
	AddPass(fg, "p", func(b *Builder, _ *struct{}) {
		b.CreateTexture("T", smallTexture)
	}, nil)
	if buf.Len() != 0 {
		t.Errorf("unexpected log output: %s", buf.String())
	}
}

func TestArenaResetKeepsCapacity(t *testing.T) {
	fg := New(newRecordingAllocator())
	for range 32 {
		AddPass(fg, "p", func(b *Builder, _ *struct{}) {
			b.CreateTexture("T", smallTexture)
		}, nil)
	}
	passCap := cap(fg.arena.passes)
	nodeCap := cap(fg.arena.nodes)

	fg.Reset()
	if len(fg.arena.passes) != 0 || len(fg.arena.nodes) != 0 || len(fg.arena.resources) != 0 {
		t.Fatal("Reset left records behind")
	}
	if cap(fg.arena.passes) != passCap || cap(fg.arena.nodes) != nodeCap {
		t.Error("Reset released arena storage")
	}
	if fg.arena.used != 0 {
		t.Errorf("used = %d, want 0", fg.arena.used)
	}
}
