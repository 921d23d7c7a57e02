package main

import (
	"context"
	"net/url"
	"testing"
	"time"

	"github.com/selkies-project/selkies/internal/logger"
	"github.com/selkies-project/selkies/internal/session"
	"github.com/selkies-project/selkies/internal/settings/memstore"
)

func newTestSessionForUpload(t *testing.T) *session.Session {
	t.Helper()
	return session.New(logger.New(false), memstore.New(), session.Config{
		Namespace:    "test_ns",
		SignalingURL: url.URL{Scheme: "ws", Host: "127.0.0.1:0", Path: "/signaling/"},
		WindowSize:   func() (int, int) { return 1280, 720 },
	})
}

func TestRenderUploadProgressReturnsNilOnComplete(t *testing.T) {
	s := newTestSessionForUpload(t)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	go func() {
		s.DashboardEvents <- session.DashboardEvent{Type: session.EventFileUpload, UploadStatus: "start", UploadFileName: "a.txt", UploadFileSize: 10}
		s.DashboardEvents <- session.DashboardEvent{Type: session.EventFileUpload, UploadStatus: "progress", UploadFileName: "a.txt", UploadProgress: 5}
		s.DashboardEvents <- session.DashboardEvent{Type: session.EventFileUpload, UploadStatus: "complete", UploadFileName: "a.txt", UploadProgress: 10}
	}()

	if err := renderUploadProgress(ctx, s); err != nil {
		t.Fatalf("renderUploadProgress: %v", err)
	}
}

func TestRenderUploadProgressReturnsErrorOnRejection(t *testing.T) {
	s := newTestSessionForUpload(t)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	go func() {
		s.DashboardEvents <- session.DashboardEvent{Type: session.EventFileUpload, UploadStatus: "warning", UploadFileName: "_N/A_", UploadMessage: "please let the ongoing upload complete"}
	}()

	if err := renderUploadProgress(ctx, s); err == nil {
		t.Fatal("expected an error for a rejected upload")
	}
}

func TestRenderUploadProgressIgnoresUnrelatedEvents(t *testing.T) {
	s := newTestSessionForUpload(t)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	go func() {
		s.DashboardEvents <- session.DashboardEvent{Type: session.EventClipboardContentUpdate, ClipboardText: "hi"}
		s.DashboardEvents <- session.DashboardEvent{Type: session.EventFileUpload, UploadStatus: "start", UploadFileName: "b.txt", UploadFileSize: 1}
		s.DashboardEvents <- session.DashboardEvent{Type: session.EventFileUpload, UploadStatus: "complete", UploadFileName: "b.txt", UploadProgress: 1}
	}()

	if err := renderUploadProgress(ctx, s); err != nil {
		t.Fatalf("renderUploadProgress: %v", err)
	}
}
