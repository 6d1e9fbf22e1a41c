package fs

import (
	"context"
	"errors"
	"io"
	"os"
)

// ErrSourceChanged is returned when the source file changes during a copy.
var ErrSourceChanged = errors.New("source changed during copy")

// copyWithRetry copies src to dst with retry and source-change detection.
// It aborts if the source file changes mid-copy.
func copyWithRetry(ctx context.Context, f FS, src, dst string, progress ProgressFunc) error {
	orig, err := f.Stat(src)
	if err != nil {
		return err
	}

	return retry(ctx, "copy", func() error {
		now, err := f.Stat(src)
		if err != nil {
			return err
		}

		if sourceChanged(orig, now) {
			return ErrSourceChanged
		}

		return copyOnce(ctx, src, dst, orig.Size, progress)
	})
}

func sourceChanged(orig, now FileInfo) bool {
	if now.Inode != 0 && orig.Inode != 0 && now.Inode != orig.Inode {
		return true
	}
	if now.MTime.After(orig.MTime) {
		return true
	}
	if now.Size != orig.Size {
		return true
	}
	return false
}

func copyOnce(ctx context.Context, src, dst string, total int64, progress ProgressFunc) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer func() {
		_ = out.Close()
	}()

	w := &progressWriter{ctx: ctx, w: out, total: total, fn: progress}
	if _, err := io.Copy(w, in); err != nil {
		return err
	}

	return out.Sync()
}

// progressWriter reports written bytes and stops writing once ctx is done.
type progressWriter struct {
	ctx   context.Context
	w     io.Writer
	done  int64
	total int64
	fn    ProgressFunc
}

func (p *progressWriter) Write(b []byte) (int, error) {
	if err := p.ctx.Err(); err != nil {
		return 0, err
	}

	n, err := p.w.Write(b)
	p.done += int64(n)
	if p.fn != nil {
		p.fn(p.done, p.total)
	}
	return n, err
}
