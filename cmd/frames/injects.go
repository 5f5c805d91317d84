package main

import (
	"github.com/gin-gonic/gin"

	"github.com/iocgo/frames/cobra"
	"github.com/iocgo/frames/cobra/scan"
	"github.com/iocgo/frames/container"
	"github.com/iocgo/frames/env"
)

const rootConfig = `{
	"Use": "frames",
	"Short": "Inspect call stack frames",
	"Long": "frames walks the call stack of the running goroutine with the native or the traceback parsing backend.",
	"PreRunE": "Pre"
}`

// Injects registers the beans of the command line: the environment, the gin
// engine, every subcommand and the root command run by scan.
func Injects(c *container.Container) error {
	container.ProvideBean[*env.Environment](c, "env", env.New)

	container.ProvideBean[*gin.Engine](c, "engine", func() (*gin.Engine, error) {
		return NewEngine(), nil
	})

	container.ProvideBean[cobra.ICobra](c, "detectCobra", func() (cobra.ICobra, error) {
		return cobra.ICobraWrapper(detectCommand{}, `{"Use": "detect", "Short": "Report the supported backend", "RunE": "Run"}`), nil
	})

	container.ProvideBean[cobra.ICobra](c, "traceCobra", func() (cobra.ICobra, error) {
		return cobra.ICobraWrapper(&traceCommand{}, `{"Use": "trace", "Short": "Print the current call stack", "RunE": "Run"}`), nil
	})

	container.ProvideBean[cobra.ICobra](c, "locateCobra", func() (cobra.ICobra, error) {
		return cobra.ICobraWrapper(&locateCommand{}, `{"Use": "locate <function>", "Short": "Find the nearest caller whose function contains the argument", "RunE": "Run", "Args": 1}`), nil
	})

	container.ProvideBean[cobra.ICobra](c, "serveCobra", func() (cobra.ICobra, error) {
		e, err := container.InvokeBean[*env.Environment](c, "env")
		if err != nil {
			return nil, err
		}
		engine, err := container.InvokeBean[*gin.Engine](c, "engine")
		if err != nil {
			return nil, err
		}
		return cobra.ICobraWrapper(&serveCommand{env: e, engine: engine}, `{"Use": "serve", "Short": "Serve frame views over HTTP", "RunE": "Run"}`), nil
	})

	container.ProvideBean[cobra.ICobra](c, scan.RootCobra, func() (cobra.ICobra, error) {
		e, err := container.InvokeBean[*env.Environment](c, "env")
		if err != nil {
			return nil, err
		}

		var children []cobra.ICobra
		for _, name := range []string{"detectCobra", "traceCobra", "locateCobra", "serveCobra"} {
			child, err := container.InvokeBean[cobra.ICobra](c, name)
			if err != nil {
				return nil, err
			}
			children = append(children, child)
		}
		return cobra.ICobraWrapper(&rootCommand{env: e}, rootConfig, children...), nil
	})

	return scan.Injects(c)
}
