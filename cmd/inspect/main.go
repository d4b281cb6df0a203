// Command inspect summarizes a local GHCN-Daily .dly file: per-element
// record counts, the covered date range, and how many values are missing or
// quality-flagged. Useful for eyeballing a cached download before a run.
//
// Usage:
//
//	go run ./cmd/inspect -file cache/USW00013743.dly
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/couchcryptid/ghcn-climatology/internal/domain"
)

type elementSummary struct {
	lines   int
	present int
	missing int
}

func main() {
	file := flag.String("file", "", "path to a .dly file")
	flag.Parse()

	if *file == "" {
		flag.Usage()
		os.Exit(1)
	}

	if code := run(*file); code != 0 {
		os.Exit(code)
	}
}

func run(path string) int {
	f, err := os.Open(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, "open:", err)
		return 1
	}
	defer f.Close()

	summaries := make(map[domain.Element]*elementSummary)
	var first, last time.Time
	malformed := 0

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 512), 1024*1024)
	for scanner.Scan() {
		rec, err := domain.ParseLine(scanner.Text())
		if err != nil {
			malformed++
			continue
		}

		sum, ok := summaries[rec.Element]
		if !ok {
			sum = &elementSummary{}
			summaries[rec.Element] = sum
		}
		sum.lines++

		for i, dv := range rec.Days {
			if !dv.Present {
				continue
			}
			if dv.Missing() {
				sum.missing++
				continue
			}
			sum.present++
			d := domain.Date(rec.Year, time.Month(rec.Month), i+1)
			if first.IsZero() || d.Before(first) {
				first = d
			}
			if d.After(last) {
				last = d
			}
		}
	}
	if err := scanner.Err(); err != nil {
		fmt.Fprintln(os.Stderr, "read:", err)
		return 1
	}

	elements := make([]string, 0, len(summaries))
	for el := range summaries {
		elements = append(elements, string(el))
	}
	sort.Strings(elements)

	fmt.Printf("%s\n", path)
	if !first.IsZero() {
		fmt.Printf("covers %s to %s\n", first.Format("2006-01-02"), last.Format("2006-01-02"))
	}
	if malformed > 0 {
		fmt.Printf("malformed lines: %d\n", malformed)
	}
	fmt.Printf("%-8s %8s %10s %10s\n", "element", "lines", "present", "missing")
	for _, el := range elements {
		sum := summaries[domain.Element(el)]
		known := ""
		if !domain.Elements[domain.Element(el)] {
			known = "  (ignored by pipeline)"
		}
		fmt.Printf("%-8s %8d %10d %10d%s\n", el, sum.lines, sum.present, sum.missing, known)
	}
	return 0
}
