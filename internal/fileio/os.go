package fileio

import "os"

// OS is the FS backed by the operating system.
type OS struct{}

type osFile struct {
	*os.File
}

func (f osFile) Size() (int64, error) {
	info, err := f.File.Stat()
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

func (OS) Open(path string) (File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	return osFile{f}, nil
}

func (OS) OpenWritable(path string) (File, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, err
	}
	return osFile{f}, nil
}

func (OS) CreateTemp(dir, pattern string) (File, error) {
	f, err := os.CreateTemp(dir, pattern)
	if err != nil {
		return nil, err
	}
	return osFile{f}, nil
}

func (OS) Rename(oldPath, newPath string) error {
	return os.Rename(oldPath, newPath)
}

func (OS) Remove(path string) error {
	return os.Remove(path)
}

func (OS) Stat(path string) (Info, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Info{}, err
	}
	return Info{
		Size:    info.Size(),
		ModTime: info.ModTime(),
		Mode:    info.Mode(),
		IsDir:   info.IsDir(),
	}, nil
}

func (OS) Chmod(path string, mode os.FileMode) error {
	return os.Chmod(path, mode)
}

func (OS) Writable(path string) bool {
	return writable(path)
}
