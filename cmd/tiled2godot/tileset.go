package main

import (
	"github.com/woozymasta/tiled2godot/internal/export"
	"github.com/woozymasta/tiled2godot/internal/tiled"
)

type tilesetCmd struct {
	Args struct {
		Input  string `positional-arg-name:"IN" required:"true" description:"Input Tiled tileset (.tsj, .tsx, .json or .yaml)"`
		Output string `positional-arg-name:"OUT" description:"Output TileSet (default: input with .tres extension)"`
	} `positional-args:"true"`

	CommonOptions
}

// Execute exports the tileset.
func (c *tilesetCmd) Execute(_ []string) error {
	out := c.Args.Output
	if out == "" {
		out = replaceExt(c.Args.Input, ".tres")
	}

	env, err := c.setup(out)
	if err != nil {
		return err
	}
	defer env.close()

	ts, err := tiled.LoadTileset(c.Args.Input)
	if err != nil {
		return err
	}

	res, err := export.New(env.project, env.opts, env.log).Tileset(ts, out)
	if err != nil {
		return err
	}

	return env.finish(res)
}
