// Package upload implements the File Upload Pipeline (spec.md §4.F): a
// depth-first directory walk feeding a chunked, back-pressured sender
// over the auxiliary data channel, grounded almost directly on
// BioHazard786-Warpdrop's transfer.SingleChannelFileSender.SendChunks —
// the same WaitForWindow/WaitForDrain back-pressure discipline, adapted
// to the raw prefix-byte chunk framing instead of a msgpack envelope.
package upload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/selkies-project/selkies/internal/protocol"
)

// ErrUploadInProgress is returned when a batch is requested while
// another is still running, mirroring the "at most one aux channel"
// invariant (spec.md §3).
var ErrUploadInProgress = errors.New("upload: please let the ongoing upload complete")

// backoffDelay is the pause inserted after a chunk send when the aux
// buffer is near its high-water mark (spec.md §4.F step 4).
const backoffDelay = 50 * time.Millisecond

// AuxChannel is the subset of the Transport Manager's auxiliary-channel
// contract (spec.md §4.B) the upload pipeline drives.
type AuxChannel interface {
	CreateAuxDataChannel() bool
	WaitForAuxChannelOpen(ctx context.Context) error
	SendAuxChannelData(data []byte) error
	IsAuxBufferNearThreshold() bool
	AwaitAuxBufferToDrain(ctx context.Context)
	CloseAuxDataChannel()
}

// PrimarySender is the subset of the primary channel used to announce
// upload framing messages (FILE_UPLOAD_START/END/ERROR).
type PrimarySender interface {
	SendDataChannelMessage(text string) error
}

// Pipeline orchestrates one upload batch at a time against a Transport
// Manager's channels.
type Pipeline struct {
	aux     AuxChannel
	primary PrimarySender
}

func New(aux AuxChannel, primary PrimarySender) *Pipeline {
	return &Pipeline{aux: aux, primary: primary}
}

// UploadPaths walks each given path (file or directory) depth-first and
// uploads every discovered file sequentially, one at a time, over a
// single auxiliary channel for the whole batch. Events are pushed to
// out as the batch progresses; out is never closed by this call.
func (p *Pipeline) UploadPaths(ctx context.Context, paths []string, out chan<- Event) error {
	batchID := uuid.NewString()

	if !p.aux.CreateAuxDataChannel() {
		out <- Event{Kind: EventRejected, BatchID: batchID, Message: ErrUploadInProgress.Error()}
		return ErrUploadInProgress
	}
	defer p.aux.CloseAuxDataChannel()

	if err := p.aux.WaitForAuxChannelOpen(ctx); err != nil {
		out <- Event{Kind: EventError, BatchID: batchID, Message: err.Error()}
		return err
	}

	var entries []Entry
	for _, root := range paths {
		found, err := Walk(root)
		if err != nil {
			out <- Event{Kind: EventError, BatchID: batchID, Path: root, Message: err.Error()}
			return err
		}
		entries = append(entries, found...)
	}

	for _, e := range entries {
		if err := p.uploadOne(ctx, batchID, e, out); err != nil {
			return err
		}
	}
	return nil
}

func (p *Pipeline) uploadOne(ctx context.Context, batchID string, e Entry, out chan<- Event) error {
	f, err := os.Open(e.DiskPath)
	if err != nil {
		return p.fail(batchID, e, out, err)
	}
	defer f.Close()

	out <- Event{Kind: EventStart, BatchID: batchID, Path: e.WirePath, FileSize: e.Size}
	if err := p.primary.SendDataChannelMessage(protocol.EncodeFileUploadStart(e.WirePath, e.Size)); err != nil {
		return p.fail(batchID, e, out, err)
	}

	controller := NewChunkSizeController()
	buf := make([]byte, MaxChunkSize)
	var offset int64

	for {
		select {
		case <-ctx.Done():
			return p.fail(batchID, e, out, ctx.Err())
		default:
		}

		n, readErr := f.Read(buf[:controller.GetChunkSize()])
		if n > 0 {
			frame, encErr := protocol.EncodeChunk(buf[:n])
			if encErr != nil {
				return p.fail(batchID, e, out, encErr)
			}
			if sendErr := p.aux.SendAuxChannelData(frame); sendErr != nil {
				return p.fail(batchID, e, out, sendErr)
			}
			offset += int64(n)
			controller.RecordBytesTransferred(int64(n))
			out <- Event{Kind: EventProgress, BatchID: batchID, Path: e.WirePath, FileSize: e.Size, Offset: offset}

			if p.aux.IsAuxBufferNearThreshold() {
				time.Sleep(backoffDelay)
			}
		}

		if readErr != nil {
			if readErr == io.EOF {
				p.aux.AwaitAuxBufferToDrain(ctx)
				if err := p.primary.SendDataChannelMessage(protocol.EncodeFileUploadEnd(e.WirePath)); err != nil {
					return p.fail(batchID, e, out, err)
				}
				out <- Event{Kind: EventComplete, BatchID: batchID, Path: e.WirePath, FileSize: e.Size, Offset: offset}
				return nil
			}
			return p.fail(batchID, e, out, readErr)
		}
	}
}

func (p *Pipeline) fail(batchID string, e Entry, out chan<- Event, err error) error {
	reason := err.Error()
	_ = p.primary.SendDataChannelMessage(protocol.EncodeFileUploadError(e.WirePath, reason))
	out <- Event{Kind: EventError, BatchID: batchID, Path: e.WirePath, Message: reason}
	return fmt.Errorf("upload %s: %w", e.WirePath, err)
}
