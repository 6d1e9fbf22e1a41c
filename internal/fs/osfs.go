package fs

import (
	"context"
	"os"
	"path/filepath"
)

// OSFS is the FS backed by the local OS filesystem.
// Platform-specific details (such as inode extraction) are handled in build-tagged files.
type OSFS struct{}

func New() *OSFS {
	return &OSFS{}
}

func (o *OSFS) Stat(path string) (FileInfo, error) {
	st, err := os.Stat(path)
	if err != nil {
		return FileInfo{}, err
	}

	return fromOS(path, st), nil
}

func (o *OSFS) ReadDir(path string) ([]FileInfo, error) {
	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, err
	}

	infos := make([]FileInfo, 0, len(entries))
	for _, ent := range entries {
		st, err := ent.Info()
		if err != nil {
			// removed between listing and stat
			continue
		}
		infos = append(infos, fromOS(filepath.Join(path, ent.Name()), st))
	}
	return infos, nil
}

func (o *OSFS) MkdirAll(path string) error {
	return os.MkdirAll(path, 0o755)
}

func (o *OSFS) RemoveAll(path string) error {
	return os.RemoveAll(path)
}

func (o *OSFS) CopyFile(ctx context.Context, src, dst string, progress ProgressFunc) error {
	return copyWithRetry(ctx, o, src, dst, progress)
}

func (o *OSFS) Rename(ctx context.Context, oldPath, newPath string) error {
	return renameWithRetry(ctx, oldPath, newPath)
}

func fromOS(path string, st os.FileInfo) FileInfo {
	return FileInfo{
		Path:  path,
		Size:  st.Size(),
		MTime: st.ModTime(),
		Inode: inodeOf(st),
		IsDir: st.IsDir(),
	}
}
