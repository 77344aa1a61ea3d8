package replay

import (
	"bufio"
	"encoding/binary"
	"image"
	"io"
	"os"
	"sync"

	"github.com/golang/geo/r3"
	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"
	"go.uber.org/multierr"

	"go.viam.com/bodypaint/kinect"
)

// Source plays a recording back as a kinect.Sensor. Each Advance loads the next recorded tick; once the
// recording is exhausted the source reports itself disconnected.
type Source struct {
	kinect.CoordinateMapper

	id     uuid.UUID
	mu     sync.Mutex
	dec    *zstd.Decoder
	r      *bufio.Reader
	closer io.Closer
	status kinect.Status
	ticks  int64
	chosen int

	color     *kinect.ColorFrame
	depth     *kinect.DepthFrame
	skeletons []kinect.Skeleton
}

// Open checks the recording header and returns a source reading ticks from r. Recordings carry no
// calibration, so the mapper of the recording sensor must be supplied.
func Open(r io.Reader, mapper kinect.CoordinateMapper) (*Source, error) {
	header := make([]byte, len(magic))
	if _, err := io.ReadFull(r, header); err != nil {
		return nil, badRecording("could not read header: %v", err)
	}
	if string(header) != magic {
		return nil, badRecording("unexpected header %q", header)
	}
	var id uuid.UUID
	if _, err := io.ReadFull(r, id[:]); err != nil {
		return nil, badRecording("could not read recording id: %v", err)
	}
	dec, err := zstd.NewReader(r, zstd.WithDecoderConcurrency(1))
	if err != nil {
		return nil, badRecording("could not start decoding: %v", err)
	}
	return &Source{CoordinateMapper: mapper, id: id, dec: dec, r: bufio.NewReader(dec)}, nil
}

// ID returns the id the recording was written with.
func (s *Source) ID() uuid.UUID {
	return s.id
}

// OpenFile opens the recording at path.
func OpenFile(path string, mapper kinect.CoordinateMapper) (*Source, error) {
	//nolint:gosec
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	s, err := Open(f, mapper)
	if err != nil {
		return nil, multierr.Combine(err, f.Close())
	}
	s.closer = f
	return s, nil
}

// Advance loads the next tick, replacing any frames that were not acquired. At the end of the recording
// the source becomes disconnected and Advance returns nil. A malformed recording also disconnects the
// source and returns an error wrapping ErrBadRecording.
func (s *Source) Advance() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status == kinect.Disconnected {
		return nil
	}
	s.color, s.depth, s.skeletons = nil, nil, nil
	err := s.readTick()
	if err == io.EOF {
		s.status = kinect.Disconnected
		return nil
	}
	if err != nil {
		s.status = kinect.Disconnected
		s.color, s.depth, s.skeletons = nil, nil, nil
		return err
	}
	s.ticks++
	return nil
}

// readTick returns io.EOF only when the recording ends cleanly between ticks.
func (s *Source) readTick() error {
	for records := 0; ; records++ {
		kind, err := s.r.ReadByte()
		if err != nil {
			if err == io.EOF && records == 0 {
				return io.EOF
			}
			return badRecording("tick %d: %v", s.ticks, unexpected(err))
		}
		switch recordKind(kind) {
		case kindColor:
			s.color, err = s.readColor()
		case kindDepth:
			s.depth, err = s.readDepth()
		case kindSkeletons:
			s.skeletons, err = s.readSkeletons()
		case kindEndOfTick:
			return nil
		default:
			err = badRecording("tick %d: unknown record kind %d", s.ticks, kind)
		}
		if err != nil {
			return err
		}
	}
}

func unexpected(err error) error {
	if err == io.EOF {
		return io.ErrUnexpectedEOF
	}
	return err
}

func (s *Source) get(data interface{}) error {
	if err := binary.Read(s.r, binary.LittleEndian, data); err != nil {
		return badRecording("tick %d: %v", s.ticks, unexpected(err))
	}
	return nil
}

func checkDims(width, height uint32) error {
	if width == 0 || height == 0 || width > maxDimension || height > maxDimension {
		return badRecording("invalid frame size %dx%d", width, height)
	}
	return nil
}

func (s *Source) readColor() (*kinect.ColorFrame, error) {
	var header struct {
		FrameNumber   int64
		Width, Height uint32
	}
	if err := s.get(&header); err != nil {
		return nil, err
	}
	if err := checkDims(header.Width, header.Height); err != nil {
		return nil, err
	}
	w, h := int(header.Width), int(header.Height)
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	row := make([]byte, 3*w)
	for y := 0; y < h; y++ {
		if _, err := io.ReadFull(s.r, row); err != nil {
			return nil, badRecording("tick %d: color row %d: %v", s.ticks, y, unexpected(err))
		}
		off := img.PixOffset(0, y)
		for x := 0; x < w; x++ {
			copy(img.Pix[off+4*x:off+4*x+3], row[3*x:3*x+3])
			img.Pix[off+4*x+3] = 0xff
		}
	}
	return &kinect.ColorFrame{Image: img, FrameNumber: header.FrameNumber}, nil
}

func (s *Source) readDepth() (*kinect.DepthFrame, error) {
	var dims [2]uint32
	if err := s.get(&dims); err != nil {
		return nil, err
	}
	if err := checkDims(dims[0], dims[1]); err != nil {
		return nil, err
	}
	f := kinect.NewDepthFrame(int(dims[0]), int(dims[1]))
	if err := s.get(f.Depth); err != nil {
		return nil, err
	}
	if _, err := io.ReadFull(s.r, f.Player); err != nil {
		return nil, badRecording("tick %d: player labels: %v", s.ticks, unexpected(err))
	}
	return f, nil
}

func (s *Source) readSkeletons() ([]kinect.Skeleton, error) {
	var count uint32
	if err := s.get(&count); err != nil {
		return nil, err
	}
	if count > maxSkeletons {
		return nil, badRecording("tick %d: %d skeletons", s.ticks, count)
	}
	skeletons := make([]kinect.Skeleton, 0, count)
	for i := uint32(0); i < count; i++ {
		var header struct {
			TrackingID int32
			Player     uint8
			State      uint8
			Position   [3]float64
			NumJoints  uint8
		}
		if err := s.get(&header); err != nil {
			return nil, err
		}
		if header.NumJoints > maxJoints {
			return nil, badRecording("tick %d: %d joints", s.ticks, header.NumJoints)
		}
		if kinect.TrackingState(header.State) > kinect.Tracked {
			return nil, badRecording("tick %d: unknown tracking state %d", s.ticks, header.State)
		}
		sk := kinect.Skeleton{
			TrackingID:  int(header.TrackingID),
			PlayerIndex: header.Player,
			State:       kinect.TrackingState(header.State),
			Position:    r3.Vector{X: header.Position[0], Y: header.Position[1], Z: header.Position[2]},
		}
		if header.NumJoints > 0 {
			sk.Joints = make(map[kinect.JointType]r3.Vector, header.NumJoints)
		}
		for j := uint8(0); j < header.NumJoints; j++ {
			var joint struct {
				Type     uint8
				Position [3]float64
			}
			if err := s.get(&joint); err != nil {
				return nil, err
			}
			sk.Joints[kinect.JointType(joint.Type)] = r3.Vector{X: joint.Position[0], Y: joint.Position[1], Z: joint.Position[2]}
		}
		skeletons = append(skeletons, sk)
	}
	return skeletons, nil
}

// Ticks returns the number of ticks replayed so far.
func (s *Source) Ticks() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ticks
}

// TryGetColorFrame implements kinect.Source.
func (s *Source) TryGetColorFrame() (*kinect.ColorFrame, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f := s.color
	s.color = nil
	return f, f != nil
}

// TryGetDepthFrame implements kinect.Source.
func (s *Source) TryGetDepthFrame() (*kinect.DepthFrame, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f := s.depth
	s.depth = nil
	return f, f != nil
}

// TryGetSkeletonFrame implements kinect.Source.
func (s *Source) TryGetSkeletonFrame() []kinect.Skeleton {
	s.mu.Lock()
	defer s.mu.Unlock()
	sk := s.skeletons
	s.skeletons = nil
	return sk
}

// ChooseTrackedSkeleton is remembered but has no effect on a recording.
func (s *Source) ChooseTrackedSkeleton(trackingID int) {
	s.mu.Lock()
	s.chosen = trackingID
	s.mu.Unlock()
}

// Chosen returns the tracking id most recently passed to ChooseTrackedSkeleton.
func (s *Source) Chosen() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.chosen
}

// Status implements kinect.Sensor.
func (s *Source) Status() kinect.Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Close releases the decoder and the file, if the source opened it.
func (s *Source) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = kinect.Disconnected
	s.dec.Close()
	if s.closer != nil {
		return s.closer.Close()
	}
	return nil
}
