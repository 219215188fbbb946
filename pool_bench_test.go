//go:build bench

package site2pdf

import (
	"context"
	"fmt"
	"sync"
	"testing"
)

// BenchmarkResolvePoolSize benchmarks pool size calculation.
func BenchmarkResolvePoolSize(b *testing.B) {
	for _, w := range []int{0, 1, 2, 4, 8} {
		name := fmt.Sprintf("%d", w)
		if w == 0 {
			name = "auto"
		}
		b.Run(name, func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				_ = ResolvePoolSize(w)
			}
		})
	}
}

// BenchmarkRendererPoolAcquireRelease benchmarks the acquire/release cycle
// with mock renderers, so no browser is started.
func BenchmarkRendererPoolAcquireRelease(b *testing.B) {
	ctx := context.Background()

	for _, size := range []int{1, 2, 4, 8} {
		b.Run(fmt.Sprintf("size_%d", size), func(b *testing.B) {
			pool := NewRendererPool(size, newRenderRecorder().factory())
			// Pre-warm so every slot is created before timing.
			held := make([]Renderer, size)
			for i := range held {
				held[i], _ = pool.Acquire(ctx)
			}
			for _, r := range held {
				pool.Release(r)
			}

			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				r, err := pool.Acquire(ctx)
				if err != nil {
					b.Fatal(err)
				}
				pool.Release(r)
			}
			b.StopTimer()
			_ = pool.Close()
		})
	}
}

// BenchmarkRendererPoolContention has more goroutines than renderers.
func BenchmarkRendererPoolContention(b *testing.B) {
	ctx := context.Background()
	const poolSize = 4

	for _, g := range []int{4, 8, 16, 32} {
		b.Run(fmt.Sprintf("goroutines_%d", g), func(b *testing.B) {
			pool := NewRendererPool(poolSize, newRenderRecorder().factory())

			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				var wg sync.WaitGroup
				for j := 0; j < g; j++ {
					wg.Add(1)
					go func() {
						defer wg.Done()
						r, err := pool.Acquire(ctx)
						if err != nil {
							return
						}
						pool.Release(r)
					}()
				}
				wg.Wait()
			}
			b.StopTimer()
			_ = pool.Close()
		})
	}
}
