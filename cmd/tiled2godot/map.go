package main

import (
	"github.com/woozymasta/tiled2godot/internal/export"
	"github.com/woozymasta/tiled2godot/internal/tiled"
)

type mapCmd struct {
	Args struct {
		Input  string `positional-arg-name:"IN" required:"true" description:"Input Tiled map (.tmj, .tmx, .json or .yaml)"`
		Output string `positional-arg-name:"OUT" description:"Output scene (default: input with .tscn extension)"`
	} `positional-args:"true"`

	CommonOptions
}

// Execute exports the map and every tileset embedded in it.
func (c *mapCmd) Execute(_ []string) error {
	out := c.Args.Output
	if out == "" {
		out = replaceExt(c.Args.Input, ".tscn")
	}

	env, err := c.setup(out)
	if err != nil {
		return err
	}
	defer env.close()

	m, err := tiled.LoadMap(c.Args.Input)
	if err != nil {
		return err
	}

	res, err := export.New(env.project, env.opts, env.log).Map(m, out)
	if err != nil {
		return err
	}

	return env.finish(res)
}
