package upload

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/selkies-project/selkies/internal/protocol"
)

type fakeAux struct {
	created   bool
	rejectNew bool
	sent      [][]byte
	closed    bool
}

func (f *fakeAux) CreateAuxDataChannel() bool {
	if f.rejectNew {
		return false
	}
	f.created = true
	return true
}
func (f *fakeAux) WaitForAuxChannelOpen(ctx context.Context) error { return nil }
func (f *fakeAux) SendAuxChannelData(data []byte) error {
	cp := make([]byte, len(data))
	copy(cp, data)
	f.sent = append(f.sent, cp)
	return nil
}
func (f *fakeAux) IsAuxBufferNearThreshold() bool                  { return false }
func (f *fakeAux) AwaitAuxBufferToDrain(ctx context.Context)       {}
func (f *fakeAux) CloseAuxDataChannel()                            { f.closed = true }

type fakePrimary struct {
	lines []string
}

func (f *fakePrimary) SendDataChannelMessage(text string) error {
	f.lines = append(f.lines, text)
	return nil
}

func TestUploadPathsSingleFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "hello.txt")
	if err := os.WriteFile(path, []byte("hello world"), 0o644); err != nil {
		t.Fatalf("write temp file: %v", err)
	}

	aux := &fakeAux{}
	primary := &fakePrimary{}
	p := New(aux, primary)

	events := make(chan Event, 16)
	if err := p.UploadPaths(context.Background(), []string{path}, events); err != nil {
		t.Fatalf("upload: %v", err)
	}
	close(events)

	var kinds []EventKind
	for e := range events {
		kinds = append(kinds, e.Kind)
	}
	if len(kinds) < 2 || kinds[0] != EventStart || kinds[len(kinds)-1] != EventComplete {
		t.Fatalf("unexpected event sequence: %+v", kinds)
	}

	if len(primary.lines) != 2 {
		t.Fatalf("expected start+end primary messages, got %v", primary.lines)
	}
	if !aux.closed {
		t.Error("expected aux channel closed after batch")
	}

	_, got, err := protocol.DecodeChunk(aux.sent[0])
	if err != nil {
		t.Fatalf("decode chunk: %v", err)
	}
	if string(got) != "hello world" {
		t.Errorf("got %q", got)
	}
}

func TestUploadPathsRejectsWhenAlreadyInProgress(t *testing.T) {
	aux := &fakeAux{rejectNew: true}
	primary := &fakePrimary{}
	p := New(aux, primary)

	events := make(chan Event, 4)
	err := p.UploadPaths(context.Background(), []string{"irrelevant"}, events)
	if err != ErrUploadInProgress {
		t.Fatalf("expected ErrUploadInProgress, got %v", err)
	}
	close(events)

	ev := <-events
	if ev.Kind != EventRejected {
		t.Errorf("expected rejected event, got %+v", ev)
	}
}

func TestUploadPathsEmptyFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "empty.txt")
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatalf("write temp file: %v", err)
	}

	aux := &fakeAux{}
	primary := &fakePrimary{}
	p := New(aux, primary)

	events := make(chan Event, 16)
	if err := p.UploadPaths(context.Background(), []string{path}, events); err != nil {
		t.Fatalf("upload: %v", err)
	}
	if len(aux.sent) != 0 {
		t.Errorf("expected no chunks sent for an empty file, got %d", len(aux.sent))
	}
}

func TestUploadPathsDirectoryWalksDepthFirst(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "sub"), 0o755); err != nil {
		t.Fatal(err)
	}
	_ = os.WriteFile(filepath.Join(dir, "a.txt"), []byte("a"), 0o644)
	_ = os.WriteFile(filepath.Join(dir, "sub", "b.txt"), []byte("b"), 0o644)

	aux := &fakeAux{}
	primary := &fakePrimary{}
	p := New(aux, primary)

	events := make(chan Event, 32)
	if err := p.UploadPaths(context.Background(), []string{dir}, events); err != nil {
		t.Fatalf("upload: %v", err)
	}
	close(events)

	var starts []string
	for e := range events {
		if e.Kind == EventStart {
			starts = append(starts, e.Path)
		}
	}
	if len(starts) != 2 {
		t.Fatalf("expected 2 files uploaded, got %v", starts)
	}
	base := filepath.Base(dir)
	if starts[0] != base+"/a.txt" || starts[1] != base+"/sub/b.txt" {
		t.Errorf("expected depth-first order [a.txt sub/b.txt], got %v", starts)
	}
}
