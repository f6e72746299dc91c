// Command tiled2godot converts Tiled maps and tilesets into Godot 4 scenes
// and TileSet resources.
package main

import (
	"os"

	"github.com/jessevdk/go-flags"

	"github.com/woozymasta/tiled2godot/internal/config"
	"github.com/woozymasta/tiled2godot/internal/vars"
)

type rootCmd struct {
	Version versionCmd `command:"version" description:"Show version information"`
	Map     mapCmd     `command:"map" description:"Export a Tiled map (.tmj, .tmx) as a Godot scene (.tscn)"`
	Tileset tilesetCmd `command:"tileset" description:"Export a Tiled tileset (.tsj, .tsx) as a Godot TileSet (.tres)"`
	Config  configCmd  `command:"config" description:"Print the default configuration"`
}

func main() {
	var root rootCmd
	parser := flags.NewParser(&root, flags.Default)
	if _, err := parser.Parse(); err != nil {
		if fe, ok := err.(*flags.Error); ok && fe.Type == flags.ErrHelp {
			return
		}
		os.Exit(1)
	}
}

type versionCmd struct{}

// Execute prints the version information.
func (c *versionCmd) Execute(_ []string) error {
	vars.Print()
	return nil
}

type configCmd struct {
	Args struct {
		Output string `positional-arg-name:"OUT" description:"Output config file (default: stdout)"`
	} `positional-args:"true"`
}

// Execute writes the built-in configuration.
func (c *configCmd) Execute(_ []string) error {
	if c.Args.Output == "" {
		_, err := os.Stdout.Write(config.Dump())
		return err
	}

	return writeAtomic(c.Args.Output, config.Dump())
}
