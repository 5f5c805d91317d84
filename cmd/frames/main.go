// Command frames inspects the call stack of its own goroutine with the frames
// library and serves the same views over HTTP.
package main

import (
	"os"

	"github.com/charmbracelet/log"

	"github.com/iocgo/frames/container"
)

func main() {
	c := container.New()
	if err := Injects(c); err != nil {
		log.Fatal("inject failed", "err", err)
	}

	if err := c.Run(); err != nil {
		log.Error(err)
		os.Exit(1)
	}
}
