// Package cli contains the bodypaint command line application.
package cli

import (
	"io"

	"github.com/urfave/cli/v2"

	"go.viam.com/bodypaint/config"
	"go.viam.com/bodypaint/logging"
)

const (
	// Flags.
	generalFlagConfig  = "config"
	generalFlagDebug   = "debug"
	generalFlagLogFile = "log-file"

	flagFrames      = "frames"
	flagPhaseFrames = "phase-frames"
	flagOut         = "out"
	flagIn          = "in"
	flagVideo       = "video"
	flagCanvas      = "canvas"
	flagBystander   = "bystander"
	flagFrameFormat = "frame-format"
)

var outputFlags = []cli.Flag{
	&cli.PathFlag{
		Name:  flagOut,
		Usage: "write every displayed frame as an image into `DIR`",
	},
	&cli.StringFlag{
		Name:  flagFrameFormat,
		Usage: "image format of the frames written by --out (png, ppm or qoi)",
		Value: "png",
	},
	&cli.PathFlag{
		Name:  flagVideo,
		Usage: "encode the displayed frames into the video `FILE` (requires ffmpeg)",
	},
	&cli.PathFlag{
		Name:  flagCanvas,
		Usage: "save the final paint canvas to the PNG `FILE`",
	},
}

var scriptFlags = []cli.Flag{
	&cli.IntFlag{
		Name:  flagFrames,
		Usage: "number of frames to produce",
		Value: 210,
	},
	&cli.IntFlag{
		Name:  flagPhaseFrames,
		Usage: "frames spent in each phase of the scripted session",
		Value: 30,
	},
	&cli.BoolFlag{
		Name:  flagBystander,
		Usage: "add a second, farther person to the scene",
	},
}

// NewApp returns the bodypaint application writing its output to out.
func NewApp(out io.Writer) *cli.App {
	var st state
	return &cli.App{
		Name:            "bodypaint",
		Usage:           "paint with your body in front of a depth sensor",
		HideHelpCommand: true,
		Writer:          out,
		ErrWriter:       out,
		Flags: []cli.Flag{
			&cli.PathFlag{
				Name:    generalFlagConfig,
				Aliases: []string{"c"},
				Usage:   "load configuration from `FILE`",
			},
			&cli.BoolFlag{
				Name:    generalFlagDebug,
				Aliases: []string{"vvv"},
				Usage:   "enable debug logging",
			},
			&cli.PathFlag{
				Name:  generalFlagLogFile,
				Usage: "also write JSON logs to the rotated `FILE`",
			},
		},
		Before: func(c *cli.Context) error {
			level := logging.INFO
			if c.Bool(generalFlagDebug) {
				level = logging.DEBUG
			}
			if path := c.Path(generalFlagLogFile); path != "" {
				st.logger, st.logFile = logging.NewFileLogger("bodypaint", path, level)
			} else {
				st.logger = logging.NewLogger("bodypaint")
				st.logger.SetLevel(level)
			}
			logging.ReplaceGlobal(st.logger)

			st.configPath = c.Path(generalFlagConfig)
			if st.configPath == "" {
				st.cfg = config.Default()
				return nil
			}
			cfg, err := config.Read(st.configPath)
			if err != nil {
				return err
			}
			st.cfg = cfg
			return nil
		},
		After: func(c *cli.Context) error {
			if st.logFile == nil {
				return nil
			}
			return st.logFile.Close()
		},
		Commands: []*cli.Command{
			{
				Name:        "simulate",
				Usage:       "run a scripted session of the synthetic sensor through the painting pipeline",
				Description: "The session idles, paints, picks a color, paints again, erases and leaves.",
				Flags:       append(append([]cli.Flag{}, scriptFlags...), outputFlags...),
				Action:      st.simulateAction,
			},
			{
				Name:  "record",
				Usage: "record a scripted session of the synthetic sensor",
				Flags: append(append([]cli.Flag{}, scriptFlags...), &cli.PathFlag{
					Name:     flagOut,
					Usage:    "write the recording to `FILE`",
					Required: true,
				}),
				Action: st.recordAction,
			},
			{
				Name:  "replay",
				Usage: "run a recording through the painting pipeline in real time",
				Flags: append([]cli.Flag{
					&cli.PathFlag{
						Name:     flagIn,
						Usage:    "read the recording from `FILE`",
						Required: true,
					},
				}, outputFlags...),
				Action: st.replayAction,
			},
			{
				Name:   "calibrate",
				Usage:  "estimate and print the depth to color homography of the synthetic sensor",
				Action: st.calibrateAction,
			},
			{
				Name:   "schema",
				Usage:  "print the JSON schema of the configuration file",
				Action: schemaAction,
			},
		},
	}
}
