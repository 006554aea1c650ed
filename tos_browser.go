package main

import (
	"flag"
	"log"
	"os"

	"github.com/toslib/tos_browser/config"
	"github.com/toslib/tos_browser/vfs"
	"github.com/toslib/tos_browser/web"

	_ "github.com/toslib/tos_browser/pack/txt"
	_ "github.com/toslib/tos_browser/pack/xac"
)

func main() {
	var addr, dir, cfgPath, encoding, webPath string
	flag.StringVar(&addr, "i", "", "Address of server (default: from config, :8000)")
	flag.StringVar(&dir, "dir", "", "Path to game data folder with ipf archives")
	flag.StringVar(&cfgPath, "config", "", "Yaml settings file")
	flag.StringVar(&encoding, "encoding", "", "Encoding of names stored in archives")
	flag.StringVar(&webPath, "web", "", "Folder with static browser page")
	flag.Parse()

	c, err := config.Load(cfgPath)
	if err != nil {
		log.Fatal(err)
	}
	if addr != "" {
		c.Addr = addr
	}
	if dir != "" {
		c.DataDir = dir
	}
	if encoding != "" {
		c.Encoding = encoding
	}
	if err := c.Apply(); err != nil {
		log.Fatal(err)
	}

	if c.DataDir == "" {
		flag.PrintDefaults()
		os.Exit(1)
	}

	d := vfs.NewDirectoryDriver(c.DataDir)
	if err := web.StartServer(c, d, webPath); err != nil {
		log.Fatal(err)
	}
}
