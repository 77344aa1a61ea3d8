package replay

import (
	"bufio"
	"encoding/binary"
	"io"
	"os"
	"slices"

	"github.com/golang/geo/r3"
	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"go.uber.org/multierr"

	"go.viam.com/bodypaint/kinect"
)

// Writer appends ticks to a recording.
type Writer struct {
	id     uuid.UUID
	enc    *zstd.Encoder
	buf    *bufio.Writer
	closer io.Closer
	ticks  int64
}

// NewWriter writes the recording header to w and returns a Writer for the ticks.
func NewWriter(w io.Writer) (*Writer, error) {
	id := uuid.New()
	if _, err := io.WriteString(w, magic); err != nil {
		return nil, errors.Wrap(err, "could not write recording header")
	}
	if _, err := w.Write(id[:]); err != nil {
		return nil, errors.Wrap(err, "could not write recording header")
	}
	enc, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		return nil, errors.Wrap(err, "could not create encoder")
	}
	return &Writer{id: id, enc: enc, buf: bufio.NewWriter(enc)}, nil
}

// ID returns the id stored in the recording header.
func (w *Writer) ID() uuid.UUID {
	return w.id
}

// CreateFile creates a recording at path.
func CreateFile(path string) (*Writer, error) {
	//nolint:gosec
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	w, err := NewWriter(f)
	if err != nil {
		return nil, multierr.Combine(err, f.Close())
	}
	w.closer = f
	return w, nil
}

// Ticks returns the number of ticks written so far.
func (w *Writer) Ticks() int64 {
	return w.ticks
}

// RecordTick acquires whatever frames src has ready and writes them as one tick.
func (w *Writer) RecordTick(src kinect.Source) error {
	color, _ := src.TryGetColorFrame()
	depth, _ := src.TryGetDepthFrame()
	return w.WriteTick(color, depth, src.TryGetSkeletonFrame())
}

// WriteTick writes one tick. Nil frames and empty skeleton lists are left out.
func (w *Writer) WriteTick(color *kinect.ColorFrame, depth *kinect.DepthFrame, skeletons []kinect.Skeleton) error {
	if color != nil {
		if err := w.writeColor(color); err != nil {
			return err
		}
	}
	if depth != nil {
		if err := w.writeDepth(depth); err != nil {
			return err
		}
	}
	if len(skeletons) > 0 {
		if err := w.writeSkeletons(skeletons); err != nil {
			return err
		}
	}
	if err := w.buf.WriteByte(byte(kindEndOfTick)); err != nil {
		return err
	}
	w.ticks++
	return nil
}

func (w *Writer) put(data interface{}) error {
	return binary.Write(w.buf, binary.LittleEndian, data)
}

func (w *Writer) writeColor(f *kinect.ColorFrame) error {
	b := f.Image.Bounds()
	if b.Dx() > maxDimension || b.Dy() > maxDimension {
		return errors.Errorf("color frame %v too large to record", b.Size())
	}
	if err := w.buf.WriteByte(byte(kindColor)); err != nil {
		return err
	}
	if err := w.put(struct {
		FrameNumber   int64
		Width, Height uint32
	}{f.FrameNumber, uint32(b.Dx()), uint32(b.Dy())}); err != nil {
		return err
	}
	row := make([]byte, 3*b.Dx())
	for y := b.Min.Y; y < b.Max.Y; y++ {
		off := f.Image.PixOffset(b.Min.X, y)
		for x := 0; x < b.Dx(); x++ {
			copy(row[3*x:3*x+3], f.Image.Pix[off+4*x:off+4*x+3])
		}
		if _, err := w.buf.Write(row); err != nil {
			return err
		}
	}
	return nil
}

func (w *Writer) writeDepth(f *kinect.DepthFrame) error {
	if err := f.Validate(); err != nil {
		return err
	}
	if f.Width > maxDimension || f.Height > maxDimension {
		return errors.Errorf("depth frame %v too large to record", f.Size())
	}
	if err := w.buf.WriteByte(byte(kindDepth)); err != nil {
		return err
	}
	if err := w.put([2]uint32{uint32(f.Width), uint32(f.Height)}); err != nil {
		return err
	}
	if err := w.put(f.Depth); err != nil {
		return err
	}
	_, err := w.buf.Write(f.Player)
	return err
}

func (w *Writer) writeSkeletons(skeletons []kinect.Skeleton) error {
	if len(skeletons) > maxSkeletons {
		return errors.Errorf("cannot record %d skeletons", len(skeletons))
	}
	if err := w.buf.WriteByte(byte(kindSkeletons)); err != nil {
		return err
	}
	if err := w.put(uint32(len(skeletons))); err != nil {
		return err
	}
	for _, s := range skeletons {
		if len(s.Joints) > maxJoints {
			return errors.Errorf("cannot record %d joints", len(s.Joints))
		}
		if err := w.put(struct {
			TrackingID int32
			Player     uint8
			State      uint8
			Position   [3]float64
			NumJoints  uint8
		}{int32(s.TrackingID), s.PlayerIndex, uint8(s.State), vec(s.Position), uint8(len(s.Joints))}); err != nil {
			return err
		}
		// joints in type order so recordings are byte for byte reproducible
		joints := lo.Keys(s.Joints)
		slices.Sort(joints)
		for _, jt := range joints {
			if jt < 0 || jt >= maxJoints {
				return errors.Errorf("cannot record joint %d", jt)
			}
			if err := w.put(struct {
				Type     uint8
				Position [3]float64
			}{uint8(jt), vec(s.Joints[jt])}); err != nil {
				return err
			}
		}
	}
	return nil
}

func vec(v r3.Vector) [3]float64 {
	return [3]float64{v.X, v.Y, v.Z}
}

// Close flushes the recording and closes the underlying file, if the Writer opened it.
func (w *Writer) Close() error {
	err := w.buf.Flush()
	err = multierr.Combine(err, w.enc.Close())
	if w.closer != nil {
		err = multierr.Combine(err, w.closer.Close())
	}
	return err
}
