// Package scan wires the root command into a container: the command bean named
// "rootCobra" is executed by an initializer that runs last.
package scan

import (
	"github.com/iocgo/frames/cobra"
	"github.com/iocgo/frames/container"
)

const RootCobra = "rootCobra"

func Injects(c *container.Container) (_ error) {
	container.ProvideBean[container.Initializer](c, "cobraInitializer", func() (i container.Initializer, err error) {
		i = CobraInitialized()
		return
	})
	return
}

func CobraInitialized() container.Initializer {
	return container.InitializedWrapper(1000, func(c *container.Container) (err error) {
		root, err := container.InvokeBean[cobra.ICobra](c, RootCobra)
		if err != nil {
			return
		}
		return root.Command().Execute()
	})
}
