package buffer

// Snapshot is a frozen view of a Buffer's effective bytes. It is safe to
// read from another goroutine while the buffer keeps being edited.
type Snapshot struct {
	view     pieceView
	revision uint64
}

func (s *Snapshot) Len() int64 {
	return s.view.length()
}

// Revision is the buffer revision the snapshot was taken at.
func (s *Snapshot) Revision() uint64 {
	return s.revision
}

func (s *Snapshot) ReadAt(offset int64, n int) ([]byte, error) {
	w, err := s.view.resolve(offset, n)
	return w.Data, err
}

func (s *Snapshot) Window(offset int64, n int) (Window, error) {
	return s.view.resolve(offset, n)
}
