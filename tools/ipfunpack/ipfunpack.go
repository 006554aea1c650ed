package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/toslib/tos_browser/config"
	"github.com/toslib/tos_browser/drivers/ipf"
)

func main() {
	var archive, outDir, cfgPath, encoding string
	var workers int
	var quiet bool
	flag.StringVar(&archive, "ipf", "", "Archive to unpack")
	flag.StringVar(&outDir, "out", "", "Output directory (default: <out_dir from config>/<archive name>)")
	flag.IntVar(&workers, "workers", 0, "Extraction workers (default: from config)")
	flag.StringVar(&cfgPath, "config", "", "Yaml settings file")
	flag.StringVar(&encoding, "encoding", "", "Override encoding of names stored in archive")
	flag.BoolVar(&quiet, "q", false, "Only report failures")
	flag.Parse()
	log.SetPrefix("[ipfunpack] ")

	if archive == "" {
		flag.PrintDefaults()
		return
	}

	c, err := config.Load(cfgPath)
	if err != nil {
		log.Fatal(err)
	}
	if encoding != "" {
		c.Encoding = encoding
	}
	if workers > 0 {
		c.Workers = workers
	}
	if err := c.Apply(); err != nil {
		log.Fatal(err)
	}

	if outDir == "" {
		name := filepath.Base(archive)
		outDir = filepath.Join(c.OutDir, strings.TrimSuffix(name, filepath.Ext(name)))
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	log.Printf("Unpacking %s into %s with %d workers", archive, outDir, c.Workers)
	stats, err := ipf.Unpack(ctx, archive, outDir, c.Workers, func(done, total int, e *ipf.Entry, err error) {
		if err != nil {
			log.Printf("[%d/%d] FAILED %s: %v", done, total, ipf.EntryFilePath(e), err)
		} else if !quiet {
			log.Printf("[%d/%d] %s", done, total, ipf.EntryFilePath(e))
		}
	})
	if err != nil {
		log.Fatal(err)
	}
	log.Printf("Done: %d extracted, %d failed", stats.Extracted, stats.Failed)
	if stats.Failed != 0 {
		os.Exit(2)
	}
}
