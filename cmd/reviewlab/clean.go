package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/hazyhaar/reviewlab/pkg/dataset"
)

func cmdClean(args []string) {
	fs := flag.NewFlagSet("clean", flag.ExitOnError)
	cfgPath := fs.String("config", "config.yaml", "path to config file")
	file := fs.String("file", "", "delimited file to read (default: the configured dataset)")
	column := fs.String("column", "", "text column to clean (default: first column)")
	stem := fs.Bool("stem", false, "apply Snowball stemming")
	keepStopwords := fs.Bool("keep-stopwords", false, "do not remove stopwords")
	minLen := fs.Int("min-len", -1, "minimum token length (default: from config)")
	fs.Parse(args)

	a := newApp(*cfgPath)
	defer a.close()

	s := a.sessions.Open()
	defer a.sessions.Close(s.ID)

	if *file != "" {
		f, err := os.Open(*file)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		ds, err := dataset.Parse(f, a.parseOptions())
		f.Close()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %s: %v\n", *file, err)
			os.Exit(1)
		}
		s.SetDataset(ds)
	} else if !s.EnsureDatasetLoaded() {
		fmt.Fprintf(os.Stderr, "Error: no dataset at %s (use --file)\n", a.cfg.DatasetPath)
		os.Exit(1)
	}

	ds := s.Dataset()
	col := *column
	if col == "" {
		if len(ds.Header) == 0 {
			fmt.Fprintln(os.Stderr, "Error: dataset has no columns")
			os.Exit(1)
		}
		col = ds.Header[0]
	}
	s.SetColumns(col, "")
	texts, err := ds.Column(col)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	opts := a.cfg.Cleaner
	opts.UseStemming = opts.UseStemming || *stem
	opts.RemoveStopwords = opts.RemoveStopwords && !*keepStopwords
	if *minLen >= 0 {
		opts.MinWordLen = *minLen
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	c := a.cleaner(opts)
	cleaned := c.FitTransform(ctx, texts)
	if st := c.Status(); st.Degraded() {
		a.logger.Warn("cleaner degraded", "stopwords", st.Stopwords, "stemmer", st.Stemmer)
	}

	w := bufio.NewWriter(os.Stdout)
	defer w.Flush()
	for _, line := range cleaned {
		fmt.Fprintln(w, line)
	}
	a.logger.Info("cleaned", "rows", len(cleaned), "column", col, "stopwords", c.Status().Stopwords.String())
}
