// Package recorder encodes presented frames into a video file with ffmpeg.
package recorder

import (
	"context"
	"fmt"
	"image"
	"io"
	"os/exec"
	"sync"

	"github.com/pkg/errors"
	ffmpeg "github.com/u2takey/ffmpeg-go"
	"go.uber.org/multierr"
	goutils "go.viam.com/utils"

	"go.viam.com/bodypaint/logging"
)

// Recorder is a surface that pipes raw RGBA frames into an ffmpeg process.
type Recorder struct {
	path   string
	size   image.Point
	logger logging.Logger

	mu      sync.Mutex
	pw      *io.PipeWriter
	row     []byte
	frames  int
	closed  bool
	cancel  func()
	done    chan struct{}
	ffmpegE error
}

// New starts ffmpeg writing an H.264 video of the given frame size to path.
func New(path string, size image.Point, fps int, logger logging.Logger) (*Recorder, error) {
	if size.X <= 0 || size.Y <= 0 || size.X%2 != 0 || size.Y%2 != 0 {
		return nil, errors.Errorf("video size must be positive and even, got %v", size)
	}
	if fps <= 0 {
		return nil, errors.Errorf("frame rate must be positive, got %d", fps)
	}
	// make sure ffmpeg is in the path before doing anything else
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	pr, pw := io.Pipe()
	r := &Recorder{
		path:   path,
		size:   size,
		logger: logger,
		pw:     pw,
		row:    make([]byte, 4*size.X),
		cancel: cancel,
		done:   make(chan struct{}),
	}

	stream := ffmpeg.Input("pipe:", InputArgs(size, fps)).
		Output(path, OutputArgs()).
		OverWriteOutput().
		WithInput(pr)
	stream.Context = ctx

	goutils.PanicCapturingGoWithCallback(func() {
		defer close(r.done)
		err := stream.Run()
		if err != nil {
			err = errors.Wrapf(err, "ffmpeg failed writing %s", path)
		}
		// unblock writers before taking the lock they hold
		pr.CloseWithError(multierr.Combine(err, io.ErrClosedPipe))
		r.mu.Lock()
		r.ffmpegE = err
		r.mu.Unlock()
	}, func(err interface{}) {
		logger.Errorw("ffmpeg runner panicked", "error", err)
	})
	logger.Infow("recording video", "path", path, "size", size, "fps", fps)
	return r, nil
}

// InputArgs describes the raw frames written on ffmpeg's stdin.
func InputArgs(size image.Point, fps int) ffmpeg.KwArgs {
	return ffmpeg.KwArgs{
		"format":    "rawvideo",
		"pix_fmt":   "rgba",
		"s":         fmt.Sprintf("%dx%d", size.X, size.Y),
		"framerate": fps,
	}
}

// OutputArgs describes the encoded video.
func OutputArgs() ffmpeg.KwArgs {
	return ffmpeg.KwArgs{
		"vcodec":  "libx264",
		"pix_fmt": "yuv420p",
	}
}

// Size implements composite.Surface.
func (r *Recorder) Size() image.Point {
	return r.size
}

// Update implements composite.Surface by writing one frame to ffmpeg.
func (r *Recorder) Update(pix []byte, stride int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return errors.New("recorder is closed")
	}
	if r.ffmpegE != nil {
		return r.ffmpegE
	}
	rowBytes := len(r.row)
	if stride < rowBytes || len(pix) < (r.size.Y-1)*stride+rowBytes {
		return errors.Errorf("frame buffer of %d bytes with stride %d is too small for %v", len(pix), stride, r.size)
	}
	for y := 0; y < r.size.Y; y++ {
		copy(r.row, pix[y*stride:y*stride+rowBytes])
		if _, err := r.pw.Write(r.row); err != nil {
			return errors.Wrap(err, "cannot write frame to ffmpeg")
		}
	}
	r.frames++
	return nil
}

// Frames returns the number of frames written.
func (r *Recorder) Frames() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.frames
}

// Close finishes the video and waits for ffmpeg to exit.
func (r *Recorder) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	r.mu.Unlock()

	err := r.pw.Close()
	<-r.done
	r.cancel()

	r.mu.Lock()
	defer r.mu.Unlock()
	r.logger.Infow("finished recording", "path", r.path, "frames", r.frames)
	return multierr.Combine(err, r.ffmpegE)
}
