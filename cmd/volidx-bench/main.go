// volidx-bench measures lookup latency for the four volatileindex variants
// against a synthetic dataset with configurable duplicate-key fan-out and
// key-derivation failure rate.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/natefinch/atomic"
	flag "github.com/spf13/pflag"
	"github.com/tailscale/hujson"

	"github.com/calvinalkan/volatileindex"
)

// Config holds all benchmark configuration. A JSONC file passed via
// -config overrides these fields before CLI flags are applied, mirroring
// the ambient config file's override precedence.
type Config struct {
	Elements    int     `json:"elements"`
	DistinctKeys int    `json:"distinct_keys"`
	FailureRate float64 `json:"failure_rate"`
	Iterations  int     `json:"iterations"`
	Seed        int64   `json:"seed"`
	Out         string  `json:"out"`
}

func defaultConfig() Config {
	return Config{
		Elements:     100_000,
		DistinctKeys: 1_000,
		FailureRate:  0.01,
		Iterations:   200,
		Seed:         1,
		Out:          "report.json",
	}
}

type record struct {
	id  int
	key int
}

var errBadKey = fmt.Errorf("key derivation refused")

// VariantReport holds the measured timings for one index variant.
type VariantReport struct {
	Variant       string        `json:"variant"`
	BuildDuration time.Duration `json:"build_duration_ns"`
	Len           int           `json:"len"`
	KeyCount      int           `json:"key_count"`
	PresentMean   time.Duration `json:"present_lookup_mean_ns"`
	AbsentMean    time.Duration `json:"absent_lookup_mean_ns"`
}

// Report is the full JSON report written to disk.
type Report struct {
	Config    Config          `json:"config"`
	Timestamp string          `json:"timestamp"`
	Variants  []VariantReport `json:"variants"`
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg := defaultConfig()

	var configPath string

	flag.StringVar(&configPath, "config", "", "path to a JSONC config file to load before flags are applied")
	flag.IntVar(&cfg.Elements, "elements", cfg.Elements, "number of synthetic source elements")
	flag.IntVar(&cfg.DistinctKeys, "distinct-keys", cfg.DistinctKeys, "number of distinct keys elements are drawn from")
	flag.Float64Var(&cfg.FailureRate, "failure-rate", cfg.FailureRate, "fraction of elements whose key derivation fails")
	flag.IntVar(&cfg.Iterations, "iterations", cfg.Iterations, "lookups measured per probe kind")
	flag.Int64Var(&cfg.Seed, "seed", cfg.Seed, "PRNG seed for dataset generation")
	flag.StringVar(&cfg.Out, "out", cfg.Out, "path to write the JSON report")

	flag.Usage = func() {
		fmt.Fprint(os.Stderr, "Usage: volidx-bench [flags]\n\n")
		fmt.Fprint(os.Stderr, "Times lookups against all four volatileindex variants over a shared synthetic dataset.\n\n")
		fmt.Fprint(os.Stderr, "Flags:\n")
		flag.PrintDefaults()
	}

	flag.Parse()

	if configPath != "" {
		fileCfg, err := loadConfigFile(configPath, cfg)
		if err != nil {
			return err
		}

		cfg = fileCfg

		// Re-apply the command-line flags so they take precedence over the file.
		flag.Parse()
	}

	rnd := rand.New(rand.NewSource(cfg.Seed))
	source := genSource(rnd, cfg)

	variants := []string{"relaxed", "strict", "partly", "slowgroup"}

	report := Report{Config: cfg, Timestamp: time.Now().UTC().Format(time.RFC3339)}

	for _, v := range variants {
		vr, err := benchVariant(v, source, cfg)
		if err != nil {
			return fmt.Errorf("benchmarking %s: %w", v, err)
		}

		report.Variants = append(report.Variants, vr)
	}

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling report: %w", err)
	}

	err = atomic.WriteFile(cfg.Out, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("writing report: %w", err)
	}

	fmt.Fprintf(os.Stderr, "wrote %s\n", cfg.Out)

	return nil
}

func loadConfigFile(path string, base Config) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading config: %w", err)
	}

	standardized, err := hujson.Standardize(data)
	if err != nil {
		return Config{}, fmt.Errorf("invalid JSONC: %w", err)
	}

	cfg := base

	if err := json.Unmarshal(standardized, &cfg); err != nil {
		return Config{}, fmt.Errorf("invalid JSON: %w", err)
	}

	return cfg, nil
}

func genSource(rnd *rand.Rand, cfg Config) []record {
	source := make([]record, cfg.Elements)
	for i := range source {
		source[i] = record{id: i, key: rnd.Intn(cfg.DistinctKeys)}
	}

	return source
}

func keySelector(cfg Config) func(record) (int, error) {
	// Deterministic on key value alone so repeated probes observe the same
	// failure/success outcome a naive nested scan would.
	threshold := int(cfg.FailureRate * float64(cfg.DistinctKeys))

	return func(r record) (int, error) {
		if r.key < threshold {
			return 0, fmt.Errorf("record %d: %w", r.id, errBadKey)
		}

		return r.key, nil
	}
}

func benchVariant(name string, source []record, cfg Config) (VariantReport, error) {
	sel := keySelector(cfg)

	var (
		vr  VariantReport
		err error
	)

	vr.Variant = name

	start := time.Now()

	var lookupPresent, lookupAbsent func() time.Duration

	switch name {
	case "relaxed":
		var idx *volatileindex.RelaxedIndex[record, int]

		idx, err = volatileindex.BuildRelaxed(source, sel)
		if err != nil {
			return vr, err
		}

		vr.Len, vr.KeyCount = idx.Len(), idx.KeyCount()
		lookupPresent = timeLookups(cfg.Iterations, func() { drainRelaxed(idx, cfg.DistinctKeys/2) })
		lookupAbsent = timeLookups(cfg.Iterations, func() { drainRelaxed(idx, cfg.DistinctKeys*10) })

	case "strict":
		var idx *volatileindex.StrictIndex[record, int]

		idx, err = volatileindex.BuildStrict(source, sel, false)
		if err != nil {
			return vr, err
		}

		vr.Len, vr.KeyCount = idx.Len(), idx.KeyCount()
		lookupPresent = timeLookups(cfg.Iterations, func() { drainStrict(idx, cfg.DistinctKeys/2) })
		lookupAbsent = timeLookups(cfg.Iterations, func() { drainStrict(idx, cfg.DistinctKeys*10) })

	case "partly":
		var idx *volatileindex.PartlyRelaxedIndex[record, int]

		idx, err = volatileindex.BuildPartlyRelaxed(source, sel)
		if err != nil {
			return vr, err
		}

		vr.Len, vr.KeyCount = idx.Len(), idx.KeyCount()
		lookupPresent = timeLookups(cfg.Iterations, func() { drainPartly(idx, cfg.DistinctKeys/2) })
		lookupAbsent = timeLookups(cfg.Iterations, func() { drainPartly(idx, cfg.DistinctKeys*10) })

	case "slowgroup":
		var idx *volatileindex.SlowGroupIndex[record, int]

		idx, err = volatileindex.BuildSlowGroup(source, sel, nil)
		if err != nil {
			return vr, err
		}

		vr.Len, vr.KeyCount = idx.Len(), idx.KeyCount()
		lookupPresent = timeLookups(cfg.Iterations, func() { drainSlowGroup(idx, cfg.DistinctKeys/2) })
		lookupAbsent = timeLookups(cfg.Iterations, func() { drainSlowGroup(idx, cfg.DistinctKeys*10) })

	default:
		return vr, fmt.Errorf("unknown variant %q", name)
	}

	vr.BuildDuration = time.Since(start)
	vr.PresentMean = lookupPresent()
	vr.AbsentMean = lookupAbsent()

	return vr, nil
}

func timeLookups(iterations int, do func()) func() time.Duration {
	return func() time.Duration {
		start := time.Now()

		for i := 0; i < iterations; i++ {
			do()
		}

		if iterations == 0 {
			return 0
		}

		return time.Since(start) / time.Duration(iterations)
	}
}

func drainRelaxed(idx *volatileindex.RelaxedIndex[record, int], key int) {
	for range idx.Lookup(func() (int, error) { return key, nil }).Seq {
	}
}

func drainStrict(idx *volatileindex.StrictIndex[record, int], key int) {
	l := idx.Lookup(func() (int, error) { return key, nil }, false, false)
	for range l.Seq {
	}
}

func drainPartly(idx *volatileindex.PartlyRelaxedIndex[record, int], key int) {
	l := idx.Lookup(func() (int, error) { return key, nil }, false, nil)
	for range l.Seq {
	}
}

func drainSlowGroup(idx *volatileindex.SlowGroupIndex[record, int], key int) {
	l := idx.Lookup(func() (int, error) { return key, nil })
	for range l.Seq {
	}
}
