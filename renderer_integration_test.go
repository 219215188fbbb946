//go:build integration

package site2pdf

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestRodRenderer_Render_Integration(t *testing.T) {
	t.Parallel()

	srv := serveSite(t)

	t.Run("page renders to PDF", func(t *testing.T) {
		t.Parallel()

		r := acquireRenderer(t)
		data, err := r.Render(context.Background(), srv.URL+"/cap0.html", nil)
		if err != nil {
			t.Fatalf("Render() error: %v", err)
		}
		assertValidPDF(t, data)
	})

	t.Run("letter paper with margins", func(t *testing.T) {
		t.Parallel()

		r := acquireRenderer(t)
		opts := &PDFOptions{PageSize: PageSizeLetter, MarginTopMM: 20, MarginBottomMM: 20, MarginLeftMM: 15, MarginRightMM: 15}
		data, err := r.Render(context.Background(), srv.URL+"/", opts)
		if err != nil {
			t.Fatalf("Render() error: %v", err)
		}
		assertValidPDF(t, data)
	})

	t.Run("one renderer prints many pages", func(t *testing.T) {
		t.Parallel()

		r := acquireRenderer(t)
		for i := 0; i < 20; i++ {
			data, err := r.Render(context.Background(), srv.URL+"/cap1.html", nil)
			if err != nil {
				t.Fatalf("Render() #%d error: %v", i+1, err)
			}
			assertValidPDF(t, data)
		}
	})

	t.Run("unreachable host is a page load error", func(t *testing.T) {
		t.Parallel()

		r := acquireRenderer(t)
		_, err := r.Render(context.Background(), "http://127.0.0.1:1/nothing.html", nil)
		if !errors.Is(err, ErrPageLoad) {
			t.Errorf("Render() error = %v, want ErrPageLoad", err)
		}
	})

	t.Run("expired context", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
		defer cancel()
		time.Sleep(time.Millisecond)

		r := acquireRenderer(t)
		if _, err := r.Render(ctx, srv.URL+"/", nil); err == nil {
			t.Error("Render() with expired context expected error")
		}
	})
}
