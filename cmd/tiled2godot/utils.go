package main

import (
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/woozymasta/tiled2godot/internal/config"
	"github.com/woozymasta/tiled2godot/internal/export"
	"github.com/woozymasta/tiled2godot/internal/gdhead"
)

// CommonOptions are the options shared by the export commands.
type CommonOptions struct {
	Config  string `short:"c" long:"config" description:"Configuration file (yaml)"`
	Root    string `short:"r" long:"root" description:"Godot project root (default: search upwards for project.godot)"`
	Verbose bool   `short:"v" long:"verbose" description:"Debug logging"`
}

// environment is everything an export command needs.
type environment struct {
	project *gdhead.Project
	log     *zap.Logger
	opts    export.Options
}

// setup loads the configuration, builds the logger and locates the project
// that will hold out.
func (o *CommonOptions) setup(out string) (*environment, error) {
	cfg, err := config.Load(o.Config)
	if err != nil {
		return nil, err
	}
	if o.Verbose {
		cfg.Logging.ConsoleLogger.Level = "debug"
	}

	root := o.Root
	if root == "" {
		root = cfg.Project.Root
	}

	var project *gdhead.Project
	if root != "" {
		project, err = gdhead.Open(root)
	} else {
		project, err = gdhead.Find(filepath.Dir(out))
	}
	if err != nil {
		return nil, err
	}

	env := &environment{
		project: project,
		log:     cfg.Logging.Prepare(),
		opts:    exportOptions(cfg),
	}
	env.log.Debug("Project located", zap.String("root", project.Root))

	return env, nil
}

// exportOptions maps the configuration onto exporter options.
func exportOptions(cfg *config.Config) export.Options {
	return export.Options{
		ObjectType:     cfg.Map.ObjectType,
		TilesetDir:     cfg.Output.TilesetDir,
		Format:         cfg.Output.Format,
		CollisionLayer: cfg.Tileset.CollisionLayer,
		CollisionMask:  cfg.Tileset.CollisionMask,
		EmitUID:        cfg.Output.EmitUID,
		SkipHidden:     cfg.Map.SkipHidden,
		SkipBlankTiles: cfg.Tileset.SkipBlankTiles,
	}
}

// finish reports diagnostics and writes every document of res.
func (env *environment) finish(res *export.Result) error {
	if res.Diagnostics != nil {
		problems := multierr.Errors(res.Diagnostics)
		for _, err := range problems {
			env.log.Debug("Diagnostic", zap.Error(err))
		}
		env.log.Warn("Export finished with problems", zap.Int("count", len(problems)))
	}

	for _, doc := range res.Documents {
		if err := writeAtomic(doc.Path, doc.Data); err != nil {
			return err
		}
		env.log.Info("Written", zap.String("path", doc.Path), zap.String("res", "res://"+doc.ResPath))
	}

	return nil
}

// close flushes the logger.
func (env *environment) close() {
	_ = env.log.Sync()
}

// writeAtomic writes data to a temporary file next to path and renames it
// into place.
func writeAtomic(path string, data []byte) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp.Name())
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		return multierr.Append(err, tmp.Close())
	}
	if err = tmp.Chmod(0o644); err != nil {
		return multierr.Append(err, tmp.Close())
	}
	if err = tmp.Close(); err != nil {
		return err
	}

	return os.Rename(tmp.Name(), path)
}

// replaceExt swaps the extension of path.
func replaceExt(path, ext string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + ext
}
