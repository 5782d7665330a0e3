/*
This is an example application that uses the engine package to render a
textured quad through the core frame loop.
*/
package main

import (
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/prismengine/prism/engine"
	"github.com/prismengine/prism/testbed"
)

func main() {
	configPath := flag.String("config", "prism.toml", "path to the application configuration file")
	flag.Parse()

	tb := testbed.NewTestGame()

	eng, err := engine.New(*configPath, tb)
	if err != nil {
		panic(err)
	}

	if err := eng.Initialize(); err != nil {
		panic(err)
	}

	// signal channel to capture system calls
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT, syscall.SIGQUIT)

	go func() {
		<-sigCh
		_ = eng.Shutdown()
	}()

	if err := eng.Run(); err != nil {
		panic(err)
	}

	if err := eng.Shutdown(); err != nil {
		panic(err)
	}
}
