package replay

import (
	"bytes"
	"encoding/binary"
	"image"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"
	"go.viam.com/test"

	"go.viam.com/bodypaint/kinect"
	"go.viam.com/bodypaint/kinect/fake"
)

func newFake(t *testing.T) *fake.Sensor {
	t.Helper()
	opts := fake.DefaultOptions()
	opts.DepthSize.X, opts.DepthSize.Y = 80, 60
	opts.ColorSize.X, opts.ColorSize.Y = 160, 120
	opts.Script = []fake.Pose{fake.Absent, fake.Paint, fake.Pick}
	opts.DropColorEvery = 3
	opts.Bystander = true
	s, err := fake.NewSensor(opts)
	test.That(t, err, test.ShouldBeNil)
	return s
}

func TestRoundTrip(t *testing.T) {
	src := newFake(t)
	var buf bytes.Buffer
	w, err := NewWriter(&buf)
	test.That(t, err, test.ShouldBeNil)

	type tick struct {
		color     *kinect.ColorFrame
		depth     *kinect.DepthFrame
		skeletons []kinect.Skeleton
	}
	var want []tick
	for i := 0; i < 4; i++ {
		test.That(t, src.Advance(), test.ShouldBeNil)
		color, _ := src.TryGetColorFrame()
		depth, _ := src.TryGetDepthFrame()
		skeletons := src.TryGetSkeletonFrame()
		test.That(t, w.WriteTick(color, depth, skeletons), test.ShouldBeNil)
		want = append(want, tick{color, depth, skeletons})
	}
	test.That(t, w.Ticks(), test.ShouldEqual, 4)
	test.That(t, w.Close(), test.ShouldBeNil)
	test.That(t, bytes.HasPrefix(buf.Bytes(), []byte(magic)), test.ShouldBeTrue)

	r, err := Open(&buf, src)
	test.That(t, err, test.ShouldBeNil)
	defer func() {
		test.That(t, r.Close(), test.ShouldBeNil)
	}()
	test.That(t, r.ID(), test.ShouldResemble, w.ID())
	test.That(t, r.ID(), test.ShouldNotResemble, uuid.Nil)

	for i, expected := range want {
		test.That(t, r.Advance(), test.ShouldBeNil)
		test.That(t, r.Status(), test.ShouldEqual, kinect.Connected)

		color, ok := r.TryGetColorFrame()
		test.That(t, ok, test.ShouldEqual, expected.color != nil)
		if expected.color != nil {
			test.That(t, color.FrameNumber, test.ShouldEqual, expected.color.FrameNumber)
			test.That(t, color.Image.Pix, test.ShouldResemble, expected.color.Image.Pix)
		}
		depth, ok := r.TryGetDepthFrame()
		test.That(t, ok, test.ShouldBeTrue)
		test.That(t, depth, test.ShouldResemble, expected.depth)

		skeletons := r.TryGetSkeletonFrame()
		test.That(t, skeletons, test.ShouldResemble, expected.skeletons)
		test.That(t, r.Ticks(), test.ShouldEqual, int64(i+1))
	}

	test.That(t, r.Advance(), test.ShouldBeNil)
	test.That(t, r.Status(), test.ShouldEqual, kinect.Disconnected)
	_, ok := r.TryGetDepthFrame()
	test.That(t, ok, test.ShouldBeFalse)

	r.ChooseTrackedSkeleton(3)
	test.That(t, r.Chosen(), test.ShouldEqual, 3)
	// the mapper is passed through
	test.That(t, r.MapDepthPointToColorPoint(depthCenter(), 2000), test.ShouldResemble, src.MapDepthPointToColorPoint(depthCenter(), 2000))
}

func TestRecordTickAndFiles(t *testing.T) {
	src := newFake(t)
	path := filepath.Join(t.TempDir(), "session.bprec")
	w, err := CreateFile(path)
	test.That(t, err, test.ShouldBeNil)
	for i := 0; i < 3; i++ {
		test.That(t, src.Advance(), test.ShouldBeNil)
		test.That(t, w.RecordTick(src), test.ShouldBeNil)
	}
	test.That(t, w.Close(), test.ShouldBeNil)

	r, err := OpenFile(path, src)
	test.That(t, err, test.ShouldBeNil)
	n := 0
	for r.Status() == kinect.Connected {
		test.That(t, r.Advance(), test.ShouldBeNil)
		if _, ok := r.TryGetDepthFrame(); ok {
			n++
		}
	}
	test.That(t, n, test.ShouldEqual, 3)
	test.That(t, r.Close(), test.ShouldBeNil)

	_, err = OpenFile(filepath.Join(t.TempDir(), "missing"), src)
	test.That(t, err, test.ShouldNotBeNil)
}

func depthCenter() image.Point {
	return image.Point{40, 30}
}

// compressed builds a recording whose decompressed body is raw.
func compressed(t *testing.T, raw []byte) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	buf.WriteString(magic)
	buf.Write(make([]byte, 16))
	enc, err := zstd.NewWriter(&buf)
	test.That(t, err, test.ShouldBeNil)
	_, err = enc.Write(raw)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, enc.Close(), test.ShouldBeNil)
	return &buf
}

func TestCorruptRecordings(t *testing.T) {
	mapper := fake.NewMapper(image.Point{80, 60})

	_, err := Open(bytes.NewReader(nil), mapper)
	test.That(t, err, test.ShouldWrap, ErrBadRecording)

	_, err = Open(bytes.NewBufferString("NOTREC1234"), mapper)
	test.That(t, err, test.ShouldWrap, ErrBadRecording)

	_, err = Open(bytes.NewBufferString(magic+"short"), mapper)
	test.That(t, err, test.ShouldWrap, ErrBadRecording)

	le := binary.LittleEndian
	cases := map[string][]byte{
		"unknown record": {9},
		"oversized depth": le.AppendUint32(le.AppendUint32([]byte{byte(kindDepth)}, 100000), 2),
		"truncated depth": le.AppendUint32(le.AppendUint32([]byte{byte(kindDepth)}, 4), 4),
		"missing end of tick": {byte(kindSkeletons), 0, 0, 0, 0},
		"too many skeletons":  le.AppendUint32([]byte{byte(kindSkeletons)}, 1000),
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			r, err := Open(compressed(t, raw), mapper)
			test.That(t, err, test.ShouldBeNil)
			err = r.Advance()
			test.That(t, err, test.ShouldWrap, ErrBadRecording)
			test.That(t, r.Status(), test.ShouldEqual, kinect.Disconnected)
			test.That(t, r.Advance(), test.ShouldBeNil)
			test.That(t, r.Close(), test.ShouldBeNil)
		})
	}

	r, err := Open(bytes.NewBufferString(magic+string(make([]byte, 16))+"garbage, not zstd"), mapper)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, r.Advance(), test.ShouldWrap, ErrBadRecording)
	test.That(t, r.Close(), test.ShouldBeNil)
}
