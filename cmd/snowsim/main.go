// Copyright (C) 2023-2026, Frost Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// snowsim runs a simulated network of snowball instances and reports how many
// polls it takes the network to reach agreement.
package main

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/mathext/prng"

	"github.com/frostlabs/snowgo/snow/consensus/snowball"
	"github.com/frostlabs/snowgo/utils/logging"
)

func main() {
	config, err := getConfig(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "couldn't load config: %s\n", err)
		os.Exit(1)
	}

	log := logging.NewDefaultLogger("snowsim", config.LogLevel)
	defer log.Stop()

	if err := run(config, log); err != nil {
		log.Fatal("simulation failed",
			zap.Error(err),
		)
		log.Stop()
		os.Exit(1)
	}
}

func run(config Config, log logging.Logger) error {
	source := prng.NewMT19937()
	source.Seed(config.Seed)

	log.Info("starting simulation",
		zap.Int("numNodes", config.NumNodes),
		zap.Int("numByzantine", config.NumByzantine),
		zap.Int("numColors", config.NumColors),
		zap.Uint64("seed", config.Seed),
		zap.Int("k", config.Params.K),
		zap.Int("alpha", config.Params.Alpha),
		zap.Int("betaVirtuous", config.Params.BetaVirtuous),
		zap.Int("betaRogue", config.Params.BetaRogue),
	)

	n := newNetwork(config.Params, config.NumColors, source)
	factory := snowball.TreeFactory{}
	for i := 0; i < config.NumNodes; i++ {
		n.addNode(factory.New())
	}
	for i := 0; i < config.NumByzantine; i++ {
		n.addNode(&byzantine{})
	}

	rounds := 0
	for !n.finalized() {
		if rounds >= config.MaxRounds {
			return fmt.Errorf("network failed to converge after %d rounds", rounds)
		}
		n.round()
		rounds++

		if n.disagreement() {
			return fmt.Errorf("network disagreement after %d rounds", rounds)
		}
	}

	log.Info("network finalized",
		zap.Int("rounds", rounds),
	)
	return nil
}
