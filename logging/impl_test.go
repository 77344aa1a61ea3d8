package logging

import (
	"testing"

	"go.uber.org/zap/zapcore"
	"go.viam.com/test"
)

func TestObservedLevels(t *testing.T) {
	logger, logs := NewObservedTestLogger(t)
	logger.Debug("debug")
	logger.Infow("frame", "number", 7)
	test.That(t, logs.Len(), test.ShouldEqual, 2)

	logger.SetLevel(WARN)
	test.That(t, logger.GetLevel(), test.ShouldEqual, WARN)
	logger.Info("dropped")
	logger.Warnf("calibration failed %d times", 2)
	test.That(t, logs.Len(), test.ShouldEqual, 3)

	entries := logs.TakeAll()
	test.That(t, entries[1].Message, test.ShouldEqual, "frame")
	test.That(t, entries[1].ContextMap()["number"], test.ShouldEqual, int64(7))
	test.That(t, entries[2].Level, test.ShouldEqual, zapcore.WarnLevel)
	test.That(t, entries[2].Message, test.ShouldEqual, "calibration failed 2 times")
}

func TestSublogger(t *testing.T) {
	logger, logs := NewObservedTestLogger(t)
	sub := logger.Sublogger("paint").Sublogger("picker")
	sub.Info("picked")
	test.That(t, logs.Len(), test.ShouldEqual, 1)
	test.That(t, logs.All()[0].LoggerName, test.ShouldEqual, "paint.picker")

	// subloggers own their level
	sub.SetLevel(ERROR)
	sub.Warn("quiet")
	logger.Warn("loud")
	test.That(t, logs.Len(), test.ShouldEqual, 2)
}

func TestLevelFromString(t *testing.T) {
	for in, want := range map[string]Level{"debug": DEBUG, "INFO": INFO, "Warning": WARN, "error": ERROR} {
		level, err := LevelFromString(in)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, level, test.ShouldEqual, want)
		test.That(t, level.AsZap().CapitalString(), test.ShouldNotBeEmpty)
	}
	_, err := LevelFromString("loud")
	test.That(t, err, test.ShouldNotBeNil)
}

func TestGlobal(t *testing.T) {
	prev := Global()
	defer ReplaceGlobal(prev)

	logger := NewBlankLogger("blank")
	ReplaceGlobal(logger)
	test.That(t, Global(), test.ShouldEqual, logger)
	Global().Error("discarded")
	test.That(t, Global().Sync(), test.ShouldBeNil)
}
