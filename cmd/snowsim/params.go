// Copyright (C) 2023-2026, Frost Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"flag"
	"fmt"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/frostlabs/snowgo/snow/consensus/snowball"
	"github.com/frostlabs/snowgo/utils/logging"
)

const (
	configFileKey = "config-file"
	logLevelKey   = "log-level"

	numNodesKey     = "num-nodes"
	numColorsKey    = "num-colors"
	numByzantineKey = "num-byzantine"
	seedKey         = "seed"
	maxRoundsKey    = "max-rounds"

	kKey                 = "k"
	alphaKey             = "alpha"
	betaVirtuousKey      = "beta-virtuous"
	betaRogueKey         = "beta-rogue"
	concurrentRepollsKey = "concurrent-repolls"
)

// Config describes a single simulated network run.
type Config struct {
	Params       snowball.Parameters
	NumNodes     int
	NumColors    int
	NumByzantine int
	Seed         uint64
	MaxRounds    int
	LogLevel     logging.Level
}

func buildFlagSet() *flag.FlagSet {
	fs := flag.NewFlagSet("snowsim", flag.ContinueOnError)

	fs.String(configFileKey, "", "Specifies a config file")
	fs.String(logLevelKey, "info", "The log level. Should be one of {verbo, debug, info, warn, error, fatal, off}")

	fs.Int(numNodesKey, 100, "Number of correct nodes in the simulated network")
	fs.Int(numColorsKey, 10, "Number of conflicting choices to decide between")
	fs.Int(numByzantineKey, 0, "Number of byzantine nodes in the simulated network")
	fs.Uint64(seedKey, 0, "Seed for the random number generator. If 0, the current time is used")
	fs.Int(maxRoundsKey, 100000, "Maximum number of polls before the run is considered stalled")

	fs.Int(kKey, snowball.DefaultParameters.K, "Sample size for each poll")
	fs.Int(alphaKey, snowball.DefaultParameters.Alpha, "Quorum size for a poll to be successful")
	fs.Int(betaVirtuousKey, snowball.DefaultParameters.BetaVirtuous, "Confidence threshold for virtuous decisions")
	fs.Int(betaRogueKey, snowball.DefaultParameters.BetaRogue, "Confidence threshold for rogue decisions")
	fs.Int(concurrentRepollsKey, snowball.DefaultParameters.ConcurrentRepolls, "Number of outstanding polls to maintain")

	return fs
}

// getViper parses the command line flags, merges in the optional config file,
// and returns the resulting viper environment.
func getViper(args []string) (*viper.Viper, error) {
	v := viper.New()

	fs := buildFlagSet()
	pfs := pflag.NewFlagSet("snowsim", pflag.ContinueOnError)
	pfs.AddGoFlagSet(fs)
	if err := pfs.Parse(args); err != nil {
		return nil, err
	}
	if err := v.BindPFlags(pfs); err != nil {
		return nil, err
	}

	if configFile := v.GetString(configFileKey); configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("couldn't read config file: %w", err)
		}
	}
	return v, nil
}

func getConfig(args []string) (Config, error) {
	v, err := getViper(args)
	if err != nil {
		return Config{}, err
	}

	logLevel, err := logging.ToLevel(v.GetString(logLevelKey))
	if err != nil {
		return Config{}, err
	}

	config := Config{
		Params: snowball.Parameters{
			K:                     v.GetInt(kKey),
			Alpha:                 v.GetInt(alphaKey),
			BetaVirtuous:          v.GetInt(betaVirtuousKey),
			BetaRogue:             v.GetInt(betaRogueKey),
			ConcurrentRepolls:     v.GetInt(concurrentRepollsKey),
			OptimalProcessing:     snowball.DefaultParameters.OptimalProcessing,
			MaxOutstandingItems:   snowball.DefaultParameters.MaxOutstandingItems,
			MaxItemProcessingTime: snowball.DefaultParameters.MaxItemProcessingTime,
		},
		NumNodes:     v.GetInt(numNodesKey),
		NumColors:    v.GetInt(numColorsKey),
		NumByzantine: v.GetInt(numByzantineKey),
		Seed:         v.GetUint64(seedKey),
		MaxRounds:    v.GetInt(maxRoundsKey),
		LogLevel:     logLevel,
	}
	if config.Seed == 0 {
		config.Seed = uint64(time.Now().UnixNano())
	}

	if err := config.Params.Verify(); err != nil {
		return Config{}, err
	}
	switch {
	case config.NumNodes <= 0:
		return Config{}, fmt.Errorf("%s must be positive", numNodesKey)
	case config.NumColors <= 0:
		return Config{}, fmt.Errorf("%s must be positive", numColorsKey)
	case config.NumByzantine < 0:
		return Config{}, fmt.Errorf("%s must not be negative", numByzantineKey)
	case config.MaxRounds <= 0:
		return Config{}, fmt.Errorf("%s must be positive", maxRoundsKey)
	case config.NumNodes+config.NumByzantine < config.Params.K:
		return Config{}, fmt.Errorf("the network must contain at least k = %d nodes", config.Params.K)
	}
	return config, nil
}
