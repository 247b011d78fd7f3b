// Command gendata writes a synthetic measurement CSV for the metropolis
// stations: one row per station per day, each variable a bounded random walk.
//
// Usage:
//
//	go run ./cmd/gendata -start 2025-01-01 -end 2025-01-31 -out data/measurements.csv
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"
)

const dateLayout = "2006-01-02"

func main() {
	if err := run(os.Args[1:]); err != nil {
		log.Fatal(err)
	}
}

func run(args []string) error {
	fs := flag.NewFlagSet("gendata", flag.ContinueOnError)
	startFlag := fs.String("start", "2025-01-01", "first date (YYYY-MM-DD)")
	endFlag := fs.String("end", "2025-01-31", "last date, inclusive (YYYY-MM-DD)")
	out := fs.String("out", "data/measurements.csv", "output CSV path")
	seed := fs.Int64("seed", 0, "random seed; 0 picks one from the clock")
	list := fs.Bool("list", false, "print the stations and exit")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *list {
		for i, c := range cities {
			fmt.Printf("%2d. %-20s (%.4f, %.4f)\n", i+1, c.name, c.lat, c.lon)
		}
		return nil
	}

	start, err := time.Parse(dateLayout, *startFlag)
	if err != nil {
		return fmt.Errorf("invalid -start: %w", err)
	}
	end, err := time.Parse(dateLayout, *endFlag)
	if err != nil {
		return fmt.Errorf("invalid -end: %w", err)
	}
	if start.After(end) {
		return fmt.Errorf("-start %s is after -end %s", *startFlag, *endFlag)
	}
	if *seed == 0 {
		*seed = time.Now().UnixNano()
	}

	if dir := filepath.Dir(*out); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}
	f, err := os.Create(*out)
	if err != nil {
		return fmt.Errorf("create %s: %w", *out, err)
	}
	defer f.Close()

	rows, err := newGenerator(*seed).write(f, start, end)
	if err != nil {
		return fmt.Errorf("write %s: %w", *out, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", *out, err)
	}

	days := int(end.Sub(start).Hours()/24) + 1
	log.Printf("%s to %s: %d days, %d stations, %d rows -> %s", *startFlag, *endFlag, days, len(cities), rows, *out)
	return nil
}
