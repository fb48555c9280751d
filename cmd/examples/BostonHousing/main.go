package main

import (
	"fmt"
	"os"

	"bostonhousing/internal/config"
	"bostonhousing/internal/logging"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli"
)

const (
	binaryName = "bostonhousing"
	version    = "0.1.0"

	optionConfig      = "config"
	optionConfigShort = "c"

	optionDataHome = "data-home"
	optionOffline  = "offline"
	optionLogLevel = "log-level"

	optionModel    = "model"
	optionFeatures = "features"
	optionLog      = "log"
	optionCurve    = "curve"
)

func main() {
	logging.ConfigureRuntime()

	app := cli.NewApp()
	app.Name = binaryName
	app.Usage = "Explore the Boston housing data and predict client house prices"
	app.Version = version

	r := &runner{}

	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  optionConfig + ", " + optionConfigShort,
			Usage: "TOML configuration file",
		},
		cli.StringFlag{
			Name:   optionDataHome,
			Usage:  "directory holding the cached dataset",
			EnvVar: "HOUSING_DATA",
		},
		cli.BoolFlag{
			Name:  optionOffline,
			Usage: "never download the dataset",
		},
		cli.StringFlag{
			Name:  optionLogLevel,
			Usage: "trace, debug, info, warn, error or disabled",
		},
	}

	modelFlag := cli.StringFlag{
		Name:  optionModel + ", m",
		Value: "tree",
		Usage: "model to fit: tree, knn, linear (least squares) or sgd (gradient descent)",
	}
	featuresFlag := cli.StringFlag{
		Name:  optionFeatures + ", f",
		Usage: "comma-separated feature names to keep, e.g. RM,LSTAT,PTRATIO",
	}
	logFlag := cli.StringFlag{
		Name:  optionLog,
		Usage: "comma-separated skewed features to replace with log(1+x), e.g. CRIM,LSTAT",
	}

	app.Commands = []cli.Command{
		{
			Name:   "fetch",
			Usage:  "Download the dataset into the data home",
			Action: r.fetch,
		},
		{
			Name:   "describe",
			Usage:  "Print price statistics and feature correlations",
			Action: r.describe,
		},
		{
			Name:   "fit",
			Usage:  "Select hyperparameters by cross-validation and report test scores",
			Action: r.fit,
			Flags: []cli.Flag{
				modelFlag,
				featuresFlag,
				logFlag,
				cli.BoolFlag{
					Name:  optionCurve,
					Usage: "also print the learning curve of the selected model",
				},
			},
		},
		{
			Name:   "predict",
			Usage:  "Predict the selling price of the sample client",
			Action: r.predict,
			Flags:  []cli.Flag{modelFlag, featuresFlag, logFlag},
		},
	}

	app.Before = func(c *cli.Context) error {
		cfg := config.Default()
		if path := c.GlobalString(optionConfig); path != "" {
			loaded, err := config.Load(path)
			if err != nil {
				return err
			}
			cfg = loaded
		}
		if c.GlobalIsSet(optionDataHome) {
			cfg.DataHome = c.GlobalString(optionDataHome)
		}
		if c.GlobalBool(optionOffline) {
			cfg.Download = false
		}
		// flag, then environment, then config file
		level := cfg.LogLevel
		if _, ok := logging.ParseLevel(os.Getenv(logging.EnvLogLevel)); ok {
			level = ""
		}
		if c.GlobalIsSet(optionLogLevel) {
			level = c.GlobalString(optionLogLevel)
		}
		if level != "" && !logging.SetLevel(level) {
			return fmt.Errorf("unknown log level %q", level)
		}
		r.cfg = cfg
		return nil
	}

	if err := app.Run(os.Args); err != nil {
		log.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}
