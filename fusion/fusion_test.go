package fusion

import (
	"image"
	"image/color"
	"testing"

	"go.viam.com/test"

	"go.viam.com/bodypaint/config"
	"go.viam.com/bodypaint/kinect"
	"go.viam.com/bodypaint/logging"
	"go.viam.com/bodypaint/rimage"
)

func smallConfig() *config.Config {
	cfg := config.Default()
	cfg.DepthWidth, cfg.DepthHeight = 4, 3
	cfg.ColorWidth, cfg.ColorHeight = 8, 6
	cfg.MaxDepthMM = 4000
	return cfg
}

func TestFuseColor(t *testing.T) {
	f := NewFuser(smallConfig(), logging.NewTestLogger(t))

	img := rimage.SolidImage(8, 6, rimage.Blue)
	out := f.Fuse(&kinect.ColorFrame{Image: img}, nil)
	test.That(t, out.Depth, test.ShouldBeNil)
	test.That(t, out.Color, test.ShouldEqual, img)

	big := rimage.SolidImage(16, 12, rimage.Blue)
	out = f.Fuse(&kinect.ColorFrame{Image: big}, nil)
	test.That(t, out.Color.Bounds().Size(), test.ShouldResemble, image.Point{8, 6})
	test.That(t, out.Color.NRGBAAt(3, 3), test.ShouldResemble, color.NRGBA{0, 0, 255, 255})

	out = f.Fuse(nil, nil)
	test.That(t, out.Color, test.ShouldBeNil)
	test.That(t, out.Depth, test.ShouldBeNil)
}

func TestFuseEmptyColor(t *testing.T) {
	logger, logs := logging.NewObservedTestLogger(t)
	f := NewFuser(smallConfig(), logger)

	empty := image.NewNRGBA(image.Rect(0, 0, 0, 0))
	out := f.Fuse(&kinect.ColorFrame{Image: empty, FrameNumber: 4}, nil)
	test.That(t, out.Color, test.ShouldBeNil)
	test.That(t, logs.FilterMessage("dropping empty color frame").Len(), test.ShouldEqual, 1)

	out = f.Fuse(&kinect.ColorFrame{Image: image.NewNRGBA(image.Rect(3, 3, 3, 9))}, nil)
	test.That(t, out.Color, test.ShouldBeNil)
}

func TestFuseDepth(t *testing.T) {
	logger, logs := logging.NewObservedTestLogger(t)
	f := NewFuser(smallConfig(), logger)

	df := kinect.NewDepthFrame(4, 3)
	df.Depth[0] = 5000
	df.Depth[1] = 1200
	df.Player[1] = 2
	df.Player[5] = 2
	df.Depth[5] = 1300
	df.Player[6] = 1

	out := f.Fuse(nil, df)
	test.That(t, out.Color, test.ShouldBeNil)
	test.That(t, out.Depth, test.ShouldNotBeNil)
	test.That(t, out.Depth.Size(), test.ShouldResemble, image.Point{4, 3})
	test.That(t, out.Depth.Depth.GetDepth(0, 0), test.ShouldEqual, rimage.Depth(4000))
	test.That(t, f.MaxDepth(), test.ShouldEqual, rimage.Depth(4000))

	mask := out.Depth.PlayerMask(2)
	test.That(t, rimage.MaskCount(mask), test.ShouldEqual, 2)
	test.That(t, mask.GrayAt(1, 0).Y, test.ShouldEqual, uint8(rimage.MaskOn))
	test.That(t, mask.GrayAt(1, 1).Y, test.ShouldEqual, uint8(rimage.MaskOn))

	pd := out.Depth.PlayerDepth(mask)
	test.That(t, pd.GetDepth(1, 0), test.ShouldEqual, rimage.Depth(1200))
	test.That(t, pd.GetDepth(1, 1), test.ShouldEqual, rimage.Depth(1300))
	test.That(t, pd.GetDepth(0, 0), test.ShouldEqual, rimage.Depth(0))

	test.That(t, out.Depth.Visualize(f.MaxDepth()).Bounds().Size(), test.ShouldResemble, image.Point{4, 3})

	wrong := kinect.NewDepthFrame(8, 6)
	out = f.Fuse(nil, wrong)
	test.That(t, out.Depth, test.ShouldBeNil)
	test.That(t, logs.FilterMessage("dropping depth frame with unexpected size").Len(), test.ShouldEqual, 1)

	// repeated warnings are throttled
	broken := kinect.NewDepthFrame(4, 3)
	broken.Player = broken.Player[:2]
	out = f.Fuse(nil, broken)
	test.That(t, out.Depth, test.ShouldBeNil)
	out = f.Fuse(nil, wrong)
	test.That(t, out.Depth, test.ShouldBeNil)
	test.That(t, logs.FilterMessage("dropping depth frame with unexpected size").Len(), test.ShouldEqual, 1)
	test.That(t, logs.FilterMessage("dropping malformed depth frame").Len(), test.ShouldEqual, 0)

	fresh := NewFuser(smallConfig(), logger)
	test.That(t, fresh.Fuse(nil, broken).Depth, test.ShouldBeNil)
	test.That(t, logs.FilterMessage("dropping malformed depth frame").Len(), test.ShouldEqual, 1)
}
