// Package pipeline drives frames from a sensor through fusion, skeleton selection, the painting engine
// and the compositor, one frame at a time.
package pipeline

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/montanaflynn/stats"
	"github.com/pkg/errors"
	"go.uber.org/atomic"
	"go.uber.org/multierr"
	goutils "go.viam.com/utils"
	"golang.org/x/sync/errgroup"

	"go.viam.com/bodypaint/composite"
	"go.viam.com/bodypaint/config"
	"go.viam.com/bodypaint/fusion"
	"go.viam.com/bodypaint/kinect"
	"go.viam.com/bodypaint/logging"
	"go.viam.com/bodypaint/paint"
	"go.viam.com/bodypaint/tracking"
)

// Params configures a Driver.
type Params struct {
	Sensor kinect.Sensor
	Config *config.Config
	// ConfigPath, if set, is watched for changes while Run is active.
	ConfigPath string
	Surfaces   []composite.Surface
	Clock      clock.Clock
	Logger     logging.Logger
}

// Driver owns a painting session and feeds it one frame per tick. Frames that arrive while the previous
// one is still being processed are dropped.
type Driver struct {
	sensor     kinect.Sensor
	session    *paint.Session
	engine     *paint.Engine
	fuser      *fusion.Fuser
	compositor *composite.Compositor
	surfaces   []composite.Surface
	clock      clock.Clock
	logger     logging.Logger
	configPath string

	// inFlight is held for the duration of a step.
	inFlight sync.Mutex
	samples  stats.Float64Data

	mu      sync.Mutex
	pending *config.Config
	last    paint.FrameResult
	closed  bool

	frame    atomic.Int64
	dropped  atomic.Int64
	interval atomic.Duration
	workers  sync.WaitGroup
}

// NewDriver returns a driver for a new painting session.
func NewDriver(params Params) (*Driver, error) {
	if params.Sensor == nil {
		return nil, errors.New("a sensor is required")
	}
	if params.Config == nil {
		return nil, errors.New("a config is required")
	}
	if err := params.Config.Validate("config"); err != nil {
		return nil, err
	}
	if params.Logger == nil {
		params.Logger = logging.NewLogger("bodypaint")
	}
	if params.Clock == nil {
		params.Clock = clock.New()
	}
	cfg := params.Config.Copy()
	d := &Driver{
		sensor:     params.Sensor,
		session:    paint.NewSession(cfg),
		engine:     paint.NewEngine(params.Sensor, params.Logger.Sublogger("paint")),
		fuser:      fusion.NewFuser(cfg, params.Logger.Sublogger("fusion")),
		compositor: composite.NewCompositor(cfg.Compositor.ShowDebug, params.Logger.Sublogger("composite")),
		surfaces:   params.Surfaces,
		clock:      params.Clock,
		logger:     params.Logger,
		configPath: params.ConfigPath,
	}
	d.interval.Store(cfg.FrameInterval)
	return d, nil
}

// Session returns the painting session. It must not be used while frames are being processed.
func (d *Driver) Session() *paint.Session {
	return d.session
}

// Compositor returns the compositor holding the last presented frame.
func (d *Driver) Compositor() *composite.Compositor {
	return d.compositor
}

// Dropped returns the number of frames dropped because a previous frame was still in flight.
func (d *Driver) Dropped() int64 {
	return d.dropped.Load()
}

// Last returns the result of the last processed frame.
func (d *Driver) Last() paint.FrameResult {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.last
}

// QueueConfig schedules cfg to take effect at the start of the next frame. A later call replaces an
// earlier one that has not been applied yet.
func (d *Driver) QueueConfig(cfg *config.Config) {
	d.mu.Lock()
	d.pending = cfg
	d.mu.Unlock()
}

func (d *Driver) applyPendingConfig() {
	d.mu.Lock()
	cfg := d.pending
	d.pending = nil
	d.mu.Unlock()
	if cfg == nil {
		return
	}
	if err := d.session.SetConfig(cfg); err != nil {
		d.logger.Warnw("not applying config", "error", err)
		return
	}
	d.fuser = fusion.NewFuser(cfg, d.logger.Sublogger("fusion"))
	d.compositor.SetShowDebug(cfg.Compositor.ShowDebug)
	d.interval.Store(cfg.FrameInterval)
	d.logger.Infow("applied new config", "frame", d.Frame())
}

// Step processes one frame. It returns false without doing anything if another step is in flight, the
// context is done or the sensor is disconnected.
func (d *Driver) Step(ctx context.Context) (paint.FrameResult, bool) {
	if ctx.Err() != nil {
		return paint.FrameResult{}, false
	}
	if !d.inFlight.TryLock() {
		d.dropped.Inc()
		d.logger.Debugw("dropping frame, previous frame still in flight", "frame", d.Frame())
		return paint.FrameResult{}, false
	}
	defer d.inFlight.Unlock()

	d.applyPendingConfig()
	if d.sensor.Status() == kinect.Disconnected {
		return paint.FrameResult{}, false
	}
	if adv, ok := d.sensor.(kinect.Advancer); ok {
		if err := adv.Advance(); err != nil {
			d.logger.Errorw("cannot advance sensor", "error", err)
		}
	}
	start := d.clock.Now()

	colorFrame, _ := d.sensor.TryGetColorFrame()
	depthFrame, _ := d.sensor.TryGetDepthFrame()
	skeletons := d.sensor.TryGetSkeletonFrame()

	frame := d.frame.Load()
	in := paint.FrameInput{
		Fused:       d.fuser.Fuse(colorFrame, depthFrame),
		FrameNumber: frame,
	}
	if sk, ok := tracking.Select(skeletons, d.sensor); ok {
		in.Skeleton = &sk
	}
	res := d.engine.ProcessFrame(d.session, in)
	if err := d.compositor.Present(res.Display, res.Debug, d.surfaces...); err != nil {
		d.logger.Errorw("cannot present frame", "frame", frame, "error", err)
	}
	if res.Erased {
		d.logger.Infow("canvas erased", "frame", frame)
	}
	if res.Picked {
		d.logger.Infow("picked brush color", "frame", frame, "color", res.BrushColor.Hex())
	}

	d.mu.Lock()
	d.last = res
	d.mu.Unlock()
	d.frame.Inc()
	d.recordLatency(d.clock.Since(start))
	return res, true
}

// Frame returns the number of frames processed so far.
func (d *Driver) Frame() int64 {
	return d.frame.Load()
}

func (d *Driver) recordLatency(took time.Duration) {
	d.samples = append(d.samples, float64(took)/float64(time.Millisecond))
	every := d.session.Config().StatsEvery
	if every <= 0 || len(d.samples) < every {
		return
	}
	mean, err := stats.Mean(d.samples)
	if err != nil {
		d.logger.Debugw("cannot summarize frame latency", "error", err)
	}
	p95, err := stats.Percentile(d.samples, 95)
	if err != nil {
		d.logger.Debugw("cannot summarize frame latency", "error", err)
	}
	d.logger.Infow("frame latency",
		"frames", d.Frame(),
		"mean_ms", mean,
		"p95_ms", p95,
		"dropped", d.Dropped(),
	)
	d.samples = d.samples[:0]
}

// Run steps the pipeline every frame interval until ctx is done or the sensor disconnects, in which case
// it returns kinect.ErrSensorDisconnected and the compositor keeps the last frame. Each tick starts a
// step in the background, so a slow frame causes the following ticks to be dropped. When a config path
// was given its changes are applied at frame boundaries.
func (d *Driver) Run(ctx context.Context) error {
	current := d.session.Config()
	errs, ctx := errgroup.WithContext(ctx)
	errs.Go(func() error {
		return d.tickLoop(ctx)
	})
	if d.configPath != "" {
		errs.Go(func() error {
			return config.Watch(ctx, d.configPath, current, d.logger.Sublogger("config"), d.QueueConfig)
		})
	}
	return errs.Wait()
}

func (d *Driver) tickLoop(ctx context.Context) error {
	defer d.workers.Wait()
	interval := d.interval.Load()
	ticker := d.clock.Ticker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
		if d.sensor.Status() == kinect.Disconnected {
			d.logger.Warnw("sensor disconnected, holding last frame", "frames", d.Frame())
			return kinect.ErrSensorDisconnected
		}
		if !d.startWorker() {
			d.logger.Debug("driver closed, stopping ticks")
			return nil
		}
		goutils.PanicCapturingGo(func() {
			defer d.workers.Done()
			d.Step(ctx)
		})

		if next := d.interval.Load(); next != interval && next > 0 {
			interval = next
			ticker.Reset(interval)
		}
	}
}

// startWorker registers a step with the worker group unless the driver is closed.
func (d *Driver) startWorker() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return false
	}
	d.workers.Add(1)
	return true
}

// Close stops new steps from starting, waits for in-flight frames, then closes every surface and the
// sensor that can be closed. It is safe to call while Run is still active.
func (d *Driver) Close() error {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()
	d.workers.Wait()
	var err error
	for _, s := range d.surfaces {
		if c, ok := s.(io.Closer); ok {
			err = multierr.Combine(err, c.Close())
		}
	}
	if c, ok := d.sensor.(io.Closer); ok {
		err = multierr.Combine(err, c.Close())
	}
	return err
}
