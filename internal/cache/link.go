package cache

import (
	"errors"
	"io"
	"os"

	"golang.org/x/sys/unix"
)

// Link hard-links src at dst, falling back to a byte copy when the two
// paths live on different filesystems (EXDEV) — routine when a cache
// volume and a serving volume are mounted separately. Any other error is
// returned as-is; it's a genuine I/O failure worth surfacing.
func Link(src, dst string) error {
	err := os.Link(src, dst)
	if err == nil {
		return nil
	}
	if !errors.Is(err, unix.EXDEV) {
		return err
	}
	return copyFile(src, dst)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
