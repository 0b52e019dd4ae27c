package segments

import (
	"errors"
	"fmt"

	"framecut/internal/media"
)

var (
	// ErrInvalidRange rejects confirming a range that spans fewer than two
	// frames.
	ErrInvalidRange = errors.New("segments: range must span at least two frames")
	// ErrOverlappingRange rejects confirming a range that intersects an
	// already confirmed one.
	ErrOverlappingRange = errors.New("segments: range overlaps a confirmed range")
	// ErrNoOpenRange is returned by ConfirmRange when nothing is selected.
	ErrNoOpenRange = errors.New("segments: no open range to confirm")
	// ErrFrameOutOfRange rejects selecting a frame outside the file.
	ErrFrameOutOfRange = errors.New("segments: frame out of range")
	// ErrNoSuchRange is returned by RemoveRange for a bad index.
	ErrNoSuchRange = errors.New("segments: no range at index")
)

// Editor tracks the open and confirmed frame ranges for one task.
type Editor struct {
	frameCount int
	open       *media.Range
	confirmed  []media.Range
}

// NewEditor builds an editor for a file with the given frame count.
func NewEditor(frameCount int) *Editor {
	return &Editor{frameCount: frameCount}
}

// SelectFrame begins a new open range at n, or grows the current open range
// to include n. The open range never shrinks.
func (e *Editor) SelectFrame(n int) error {
	if n < 0 || n >= e.frameCount {
		return fmt.Errorf("%w: frame %d of %d", ErrFrameOutOfRange, n, e.frameCount)
	}
	if e.open == nil {
		e.open = &media.Range{Start: n, End: n}
		return nil
	}
	if n < e.open.Start {
		e.open.Start = n
	}
	if n > e.open.End {
		e.open.End = n
	}
	return nil
}

// ConfirmRange validates the open range and appends it to the confirmed
// set. On any error the editor is left unchanged so the user can widen or
// abandon the selection. Ranges are inclusive, so confirmed ranges never
// share a frame, not even a boundary one; adjacent ranges are allowed and
// kept separate.
func (e *Editor) ConfirmRange() error {
	if e.open == nil {
		return ErrNoOpenRange
	}
	if e.open.Start >= e.open.End {
		return fmt.Errorf("%w: [%d, %d]", ErrInvalidRange, e.open.Start, e.open.End)
	}
	for _, confirmed := range e.confirmed {
		if e.open.Start <= confirmed.End && confirmed.Start <= e.open.End {
			return fmt.Errorf("%w: [%d, %d] intersects [%d, %d]",
				ErrOverlappingRange, e.open.Start, e.open.End, confirmed.Start, confirmed.End)
		}
	}
	e.confirmed = append(e.confirmed, *e.open)
	e.open = nil
	return nil
}

// AbandonOpenRange discards the open range without confirming it.
func (e *Editor) AbandonOpenRange() {
	e.open = nil
}

// RemoveRange deletes the confirmed range at position i.
func (e *Editor) RemoveRange(i int) error {
	if i < 0 || i >= len(e.confirmed) {
		return fmt.Errorf("%w: %d of %d", ErrNoSuchRange, i, len(e.confirmed))
	}
	e.confirmed = append(e.confirmed[:i], e.confirmed[i+1:]...)
	return nil
}

// OpenRange returns the current open range, if any.
func (e *Editor) OpenRange() (media.Range, bool) {
	if e.open == nil {
		return media.Range{}, false
	}
	return *e.open, true
}

// Confirmed returns a copy of the confirmed ranges in confirmation order.
func (e *Editor) Confirmed() []media.Range {
	out := make([]media.Range, len(e.confirmed))
	copy(out, e.confirmed)
	return out
}

// IsFrameCovered reports whether a confirmed range includes frame n.
func (e *Editor) IsFrameCovered(n int) bool {
	_, _, ok := e.RangeContaining(n)
	return ok
}

// RangeContaining returns the first confirmed range including frame n along
// with its position.
func (e *Editor) RangeContaining(n int) (media.Range, int, bool) {
	for i, confirmed := range e.confirmed {
		if n >= confirmed.Start && n <= confirmed.End {
			return confirmed, i, true
		}
	}
	return media.Range{}, 0, false
}

// FrameCount returns the frame count the editor was built for.
func (e *Editor) FrameCount() int {
	return e.frameCount
}
