package main

import (
	"io"
	"time"

	"github.com/urfave/cli"
)

const (
	flagConfig   = "config"
	flagStrategy = "strategy"
	flagLogLevel = "log-level"
	flagCount    = "count"
	flagPeriod   = "period"
	flagPeriod1  = "period1"
	flagPeriod2  = "period2"

	envConfig   = "RXLOOP_CONFIG"
	envStrategy = "RXLOOP_STRATEGY"
	envLogLevel = "RXLOOP_LOG_LEVEL"
)

func newApp(stdout, stderr io.Writer) *cli.App {
	app := cli.NewApp()
	app.Name = "rxloop"
	app.HelpName = "rxloop"
	app.Usage = "run reactive pipelines on an event loop"
	app.UsageText = "rxloop <command> [arguments...]"
	app.Writer = stdout
	app.ErrWriter = stderr
	app.HideVersion = true
	app.Commands = []cli.Command{
		{
			Name:   "interval",
			Usage:  "filter and map a periodic source, observed on the event loop",
			Action: intervalAction,
			Flags: append(commonFlags(),
				cli.DurationFlag{
					Name:  flagPeriod,
					Usage: "interval between ticks",
					Value: defaultPeriod,
				},
			),
		},
		{
			Name:   "merge",
			Usage:  "merge two sources, ticking on worker goroutines, observed on the event loop",
			Action: mergeAction,
			Flags: append(commonFlags(),
				cli.DurationFlag{
					Name:  flagPeriod1,
					Usage: "interval between ticks of the first source",
					Value: defaultPeriod1,
				},
				cli.DurationFlag{
					Name:  flagPeriod2,
					Usage: "interval between ticks of the second source",
					Value: defaultPeriod2,
				},
			),
		},
	}
	return app
}

func commonFlags() []cli.Flag {
	return []cli.Flag{
		cli.StringFlag{
			Name:   flagConfig + ", c",
			Usage:  "YAML config file, overridden by any flags",
			EnvVar: envConfig,
		},
		cli.StringFlag{
			Name:   flagStrategy,
			Usage:  "how wakeups are marshaled to the event loop (invoke, self-check)",
			Value:  defaultStrategy,
			EnvVar: envStrategy,
		},
		cli.StringFlag{
			Name:   flagLogLevel,
			Usage:  "log level (disabled, err, warning, info, debug, trace, ...)",
			Value:  defaultLogLevel,
			EnvVar: envLogLevel,
		},
		cli.IntFlag{
			Name:  flagCount + ", n",
			Usage: "number of values to observe",
			Value: defaultCount,
		},
	}
}

func intervalAction(c *cli.Context) error {
	cfg, err := resolveConfig(c)
	if err != nil {
		return err
	}
	return runInterval(c.App.Writer, c.App.ErrWriter, cfg)
}

func mergeAction(c *cli.Context) error {
	cfg, err := resolveConfig(c)
	if err != nil {
		return err
	}
	return runMerge(c.App.Writer, c.App.ErrWriter, cfg)
}

// runTimeout bounds a demo run, in case the pipeline stalls.
func runTimeout(cfg config, period time.Duration) time.Duration {
	return time.Duration(cfg.Count+10)*period + 5*time.Second
}
