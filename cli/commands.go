package cli

import (
	"fmt"
	"io"
	"math"
	"os"
	"os/signal"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/docker/go-units"
	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"go.uber.org/multierr"

	"go.viam.com/bodypaint/calibration"
	"go.viam.com/bodypaint/composite"
	"go.viam.com/bodypaint/config"
	"go.viam.com/bodypaint/kinect"
	"go.viam.com/bodypaint/kinect/fake"
	"go.viam.com/bodypaint/kinect/replay"
	"go.viam.com/bodypaint/logging"
	"go.viam.com/bodypaint/pipeline"
	"go.viam.com/bodypaint/recorder"
	"go.viam.com/bodypaint/rimage"
)

// state is filled in by the app's Before hook.
type state struct {
	logger     logging.Logger
	cfg        *config.Config
	configPath string
	logFile    io.Closer
}

func (st *state) fakeSensor(c *cli.Context) (*fake.Sensor, error) {
	if c.Int(flagFrames) <= 0 {
		return nil, errors.Errorf("--%s must be positive", flagFrames)
	}
	if c.Int(flagPhaseFrames) <= 0 {
		return nil, errors.Errorf("--%s must be positive", flagPhaseFrames)
	}
	opts := fake.DefaultOptions()
	opts.DepthSize = st.cfg.DepthSize()
	opts.ColorSize = st.cfg.ColorSize()
	opts.Script = fake.ScriptedSession(c.Int(flagPhaseFrames))
	opts.Bystander = c.Bool(flagBystander)
	return fake.NewSensor(opts)
}

func (st *state) surfaces(c *cli.Context) ([]composite.Surface, error) {
	var surfaces []composite.Surface
	if dir := c.Path(flagOut); dir != "" {
		s, err := composite.NewFileSurface(dir, c.String(flagFrameFormat), st.cfg.ColorSize())
		if err != nil {
			return nil, err
		}
		surfaces = append(surfaces, s)
	}
	if path := c.Path(flagVideo); path != "" {
		fps := int(math.Round(float64(time.Second) / float64(st.cfg.FrameInterval)))
		r, err := recorder.New(path, st.cfg.ColorSize(), max(fps, 1), st.logger.Sublogger("recorder"))
		if err != nil {
			return nil, err
		}
		surfaces = append(surfaces, r)
	}
	return surfaces, nil
}

func (st *state) newDriver(c *cli.Context, sensor kinect.Sensor, clk clock.Clock) (*pipeline.Driver, error) {
	surfaces, err := st.surfaces(c)
	if err != nil {
		return nil, err
	}
	return pipeline.NewDriver(pipeline.Params{
		Sensor:     sensor,
		Config:     st.cfg,
		ConfigPath: st.configPath,
		Surfaces:   surfaces,
		Clock:      clk,
		Logger:     st.logger,
	})
}

// finish closes the driver and saves the canvas if asked to.
func (st *state) finish(c *cli.Context, d *pipeline.Driver) error {
	err := d.Close()
	if path := c.Path(flagCanvas); path != "" {
		err = multierr.Combine(err, rimage.WriteImageToFile(path, d.Session().Canvas()))
	}
	last := d.Last()
	st.logger.Infow("session finished", "frames", d.Frame(), "dropped", d.Dropped())
	summary := color.New(color.FgGreen, color.Bold)
	if err != nil {
		summary = color.New(color.FgRed, color.Bold)
	}
	summary.Fprintf(c.App.Writer, "processed %d frames, dropped %d, final state %s, brush %s\n",
		d.Frame(), d.Dropped(), last.State, d.Session().BrushColor().Hex())
	return err
}

func (st *state) simulateAction(c *cli.Context) error {
	sensor, err := st.fakeSensor(c)
	if err != nil {
		return err
	}
	// frames are stepped as fast as they can be processed
	d, err := st.newDriver(c, sensor, clock.New())
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt)
	defer stop()
	for i := 0; i < c.Int(flagFrames) && ctx.Err() == nil; i++ {
		d.Step(ctx)
	}
	return st.finish(c, d)
}

func (st *state) recordAction(c *cli.Context) error {
	sensor, err := st.fakeSensor(c)
	if err != nil {
		return err
	}
	path := c.Path(flagOut)
	w, err := replay.CreateFile(path)
	if err != nil {
		return err
	}
	for i := 0; i < c.Int(flagFrames); i++ {
		if err := sensor.Advance(); err != nil {
			return multierr.Combine(err, w.Close())
		}
		if err := w.RecordTick(sensor); err != nil {
			return multierr.Combine(err, w.Close())
		}
	}
	if err := w.Close(); err != nil {
		return err
	}
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "recorded %d ticks to %s (%s, id %s)\n",
		w.Ticks(), path, units.HumanSize(float64(info.Size())), w.ID())
	return nil
}

func (st *state) replayAction(c *cli.Context) error {
	// recordings come from the synthetic sensor, so its mapper applies
	src, err := replay.OpenFile(c.Path(flagIn), fake.NewMapper(st.cfg.DepthSize()))
	if err != nil {
		return err
	}
	st.logger.Infow("replaying recording", "path", c.Path(flagIn), "id", src.ID().String())
	d, err := st.newDriver(c, src, clock.New())
	if err != nil {
		return multierr.Combine(err, src.Close())
	}
	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt)
	defer stop()
	if err := d.Run(ctx); err != nil && !errors.Is(err, kinect.ErrSensorDisconnected) {
		return multierr.Combine(err, st.finish(c, d))
	}
	return st.finish(c, d)
}

func (st *state) calibrateAction(c *cli.Context) error {
	mapper := fake.NewMapper(st.cfg.DepthSize())
	h, err := calibration.ComputeHomography(mapper, st.cfg.DepthSize(), st.cfg.ColorSize(), st.cfg.Calibration)
	if err != nil {
		return err
	}
	src, dst := calibration.Correspondences(mapper, st.cfg.DepthSize(), st.cfg.ColorSize(), st.cfg.Calibration)
	fmt.Fprintf(c.App.Writer, "homography (depth %v -> color %v, %d samples at %d mm):\n",
		st.cfg.DepthSize(), st.cfg.ColorSize(), len(src), st.cfg.Calibration.NominalDepthMM)

	t := table.NewWriter()
	t.SetOutputMirror(c.App.Writer)
	t.AppendHeader(table.Row{"", "x", "y", "w"})
	for row, name := range []string{"x'", "y'", "w'"} {
		t.AppendRow(table.Row{
			name,
			fmt.Sprintf("%.6f", h.At(row, 0)),
			fmt.Sprintf("%.6f", h.At(row, 1)),
			fmt.Sprintf("%.6f", h.At(row, 2)),
		})
	}
	t.Render()
	fmt.Fprintf(c.App.Writer, "max reprojection error: %.4f px\n", calibration.ReprojectionError(h, src, dst))
	return nil
}

func schemaAction(c *cli.Context) error {
	schema, err := config.Schema()
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(c.App.Writer, string(schema))
	return err
}
