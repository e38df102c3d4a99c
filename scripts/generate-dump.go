//go:build ignore

// Package main generates a synthetic MediaWiki XML dump for benchmarking builds.
// Usage: go run scripts/generate-dump.go -pages 50000 -output testdata/bench.xml.gz
//
// A .gz output is gzip-compressed; anything else is written as plain XML.
// Roughly -talk of the pages are namespaced and -short of the bodies fall
// below the default min_body_length, so every filter gets exercised.
package main

import (
	"bufio"
	"compress/gzip"
	"encoding/xml"
	"flag"
	"fmt"
	"io"
	"math/rand"
	"os"
	"strings"
)

var (
	numPages  = flag.Int("pages", 10000, "Number of pages to generate")
	output    = flag.String("output", "testdata/bench.xml", "Output file (.xml or .xml.gz)")
	seed      = flag.Int64("seed", 42, "Random seed for reproducibility")
	talkRatio = flag.Float64("talk", 0.15, "Fraction of namespaced pages")
	stubRatio = flag.Float64("short", 0.30, "Fraction of stub bodies")
)

var (
	namespaces = []string{"Talk", "User", "Category", "Template", "Wikipedia", "File"}
	adjectives = []string{"Northern", "Ancient", "Great", "Little", "Upper", "Lower", "New", "Old"}
	nouns      = []string{"River", "Valley", "Mountain", "Harbor", "Forest", "Bridge", "Castle", "Lake"}
	words      = []string{
		"the", "of", "and", "history", "region", "population", "century", "built",
		"located", "north", "south", "known", "river", "town", "church", "trade",
		"war", "period", "district", "founded", "culture", "language", "economy",
	}
)

func main() {
	flag.Parse()
	rng := rand.New(rand.NewSource(*seed))

	f, err := os.Create(*output)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating %s: %v\n", *output, err)
		os.Exit(1)
	}
	defer f.Close()

	var w io.Writer = f
	if strings.HasSuffix(*output, ".gz") {
		gz := gzip.NewWriter(f)
		defer gz.Close()
		w = gz
	}
	bw := bufio.NewWriter(w)
	defer bw.Flush()

	fmt.Printf("Generating %d pages in %s...\n", *numPages, *output)

	fmt.Fprintln(bw, `<?xml version="1.0" encoding="UTF-8"?>`)
	fmt.Fprintln(bw, `<mediawiki xml:lang="en"><siteinfo><sitename>Synthetic</sitename></siteinfo>`)
	for i := 0; i < *numPages; i++ {
		title := fmt.Sprintf("%s %s %d", pick(rng, adjectives), pick(rng, nouns), i)
		ns := 0
		if rng.Float64() < *talkRatio {
			title = pick(rng, namespaces) + ":" + title
			ns = 1
		}
		n := 800 + rng.Intn(1200)
		if rng.Float64() < *stubRatio {
			n = 20 + rng.Intn(200)
		}
		fmt.Fprintf(bw, "<page><title>%s</title><ns>%d</ns><id>%d</id><revision><id>%d</id><text xml:space=\"preserve\">",
			escape(title), ns, i+1, 1_000_000+i)
		bw.WriteString(escape(body(rng, n)))
		bw.WriteString("</text></revision></page>\n")
	}
	fmt.Fprintln(bw, "</mediawiki>")

	fmt.Printf("Generated %d pages successfully.\n", *numPages)
}

func pick(rng *rand.Rand, pool []string) string {
	return pool[rng.Intn(len(pool))]
}

func body(rng *rand.Rand, n int) string {
	var sb strings.Builder
	for i := 0; i < n; i++ {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(pick(rng, words))
	}
	return sb.String()
}

func escape(s string) string {
	var sb strings.Builder
	_ = xml.EscapeText(&sb, []byte(s))
	return sb.String()
}
