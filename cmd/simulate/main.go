// Command simulate runs a synthetic benchmark network through the trust
// pipeline and prints the resulting leaderboard next to each entity's
// ground-truth behavior profile.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"gopkg.in/yaml.v3"

	"github.com/peerbench/peerbench/internal/simulation"
)

func main() {
	var (
		configPath = flag.String("config", "", "Path to a YAML simulation config (defaults apply when empty)")
		seed       = flag.Int64("seed", 0, "Override the random seed (0 keeps the config's seed)")
		rounds     = flag.Int("rounds", 0, "Override the number of rounds (0 keeps the config's rounds)")
		prompts    = flag.Int("prompts", 0, "Override the prompt set size (0 keeps the config's size)")
	)
	flag.Parse()

	cfg := simulation.DefaultConfig()
	if *configPath != "" {
		f, err := os.Open(*configPath)
		if err != nil {
			log.Fatalf("Failed to open config: %v", err)
		}
		dec := yaml.NewDecoder(f)
		dec.KnownFields(true)
		if err := dec.Decode(&cfg); err != nil && err != io.EOF {
			f.Close()
			log.Fatalf("Failed to parse config: %v", err)
		}
		f.Close()
	}
	if *seed != 0 {
		cfg.Seed = *seed
	}
	if *rounds != 0 {
		cfg.Rounds = *rounds
	}
	if *prompts != 0 {
		cfg.PromptSetSize = *prompts
	}

	harness, err := simulation.NewHarness(cfg)
	if err != nil {
		log.Fatalf("Invalid simulation config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	result, err := harness.Run(ctx)
	if err != nil {
		log.Fatalf("Simulation failed: %v", err)
	}

	fmt.Printf("Simulation %s\n", result.RunID)
	fmt.Printf("- Seed: %d, prompts: %d, rounds: %d\n", cfg.Seed, cfg.PromptSetSize, cfg.Rounds)
	fmt.Printf("- Submissions: %d accepted, %d duplicates, %d rejected\n\n",
		result.Accepted, result.Duplicates, result.Rejected)

	fmt.Printf("%-4s %-28s %-8s %-9s %-8s %s\n",
		"Rank", "Entity", "Score", "Coverage", "Samples", "Profile")
	for _, e := range result.Entries {
		fmt.Printf("%-4d %-28s %-8.4f %-9.2f %-8d %s\n",
			e.Rank, e.EntityID, e.WeightedMeanScore, e.Coverage, e.SampleCount,
			result.GroundTruth[e.EntityID])
	}

	gated := 0
	for entity := range result.GroundTruth {
		found := false
		for _, e := range result.Entries {
			if e.EntityID == entity {
				found = true
				break
			}
		}
		if !found {
			gated++
			fmt.Printf("-    %-28s excluded by coverage gate (%s)\n",
				entity, result.GroundTruth[entity])
		}
	}
	if gated == 0 {
		fmt.Printf("\nAll entities passed the coverage gate.\n")
	}
}
