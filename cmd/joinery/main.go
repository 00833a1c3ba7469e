// Command joinery evaluates a joinery script, solves the beam-pair
// topologies, builds the declared joints, and exports the machining
// parameter records as JSON. It can optionally tessellate the machined
// beams to triangle meshes.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/alecthomas/kong"
	"github.com/rs/zerolog"

	"github.com/chazu/joinery/pkg/engine"
	"github.com/chazu/joinery/pkg/fabrication"
	"github.com/chazu/joinery/pkg/joints"
	"github.com/chazu/joinery/pkg/kernel"
	"github.com/chazu/joinery/pkg/kernel/sdfx"
	"github.com/chazu/joinery/pkg/model"
)

var cli struct {
	Verbose bool `short:"v" help:"Enable debug logging."`

	Build struct {
		Script     string `arg:"" help:"Joinery script to evaluate." type:"existingfile"`
		Tolerances string `short:"t" help:"TOML file overriding solver tolerances." type:"existingfile"`
		Output     string `short:"o" help:"Output JSON file (default stdout)."`
		MeshDir    string `short:"m" help:"Directory to write per-beam mesh JSON files."`
		Pretty     bool   `short:"p" help:"Indent the JSON output."`
	} `cmd:"" help:"Evaluate a script, build its joints, and export machining records."`

	Check struct {
		Script string `arg:"" help:"Joinery script to evaluate." type:"existingfile"`
	} `cmd:"" help:"Evaluate a script and report errors without building joints."`
}

func main() {
	ctx := kong.Parse(&cli,
		kong.Name("joinery"),
		kong.Description("Timber joint topology classifier and joint geometry engine."))

	level := zerolog.InfoLevel
	if cli.Verbose {
		level = zerolog.DebugLevel
	}
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(level).
		With().Timestamp().Logger()

	var err error
	switch ctx.Command() {
	case "build <script>":
		err = runBuild(log)
	case "check <script>":
		err = runCheck(log)
	default:
		err = fmt.Errorf("unknown command %q", ctx.Command())
	}
	if err != nil {
		log.Error().Err(err).Msg("failed")
		os.Exit(1)
	}
}

// output is the top-level JSON document written by the build command.
type output struct {
	Beams   []*model.Beam        `json:"beams"`
	Records []fabrication.Record `json:"records"`
}

func runBuild(log zerolog.Logger) error {
	design, err := evaluateScript(log, cli.Build.Script)
	if err != nil {
		return err
	}

	solver := joints.NewConnectionSolver()
	if cli.Build.Tolerances != "" {
		if err := loadTolerances(cli.Build.Tolerances, &solver.Tol); err != nil {
			return fmt.Errorf("tolerances: %w", err)
		}
		log.Debug().Str("file", cli.Build.Tolerances).Msg("tolerance overrides loaded")
	}

	built, err := design.BuildJoints(solver)
	if err != nil {
		return fmt.Errorf("build joints: %w", err)
	}
	log.Info().
		Int("beams", len(design.Assembly.Beams())).
		Int("joints", len(built)).
		Msg("joints built")

	records, err := fabrication.NewExporter().ExportAll(built)
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}
	log.Info().Int("records", len(records)).Msg("machining records exported")

	doc := output{Beams: design.Assembly.Beams(), Records: records}
	if err := writeJSON(cli.Build.Output, doc, cli.Build.Pretty); err != nil {
		return err
	}

	if cli.Build.MeshDir != "" {
		if err := writeMeshes(log, design.Assembly, cli.Build.MeshDir); err != nil {
			return fmt.Errorf("meshes: %w", err)
		}
	}
	return nil
}

func runCheck(log zerolog.Logger) error {
	design, err := evaluateScript(log, cli.Check.Script)
	if err != nil {
		return err
	}
	log.Info().
		Int("beams", len(design.Assembly.Beams())).
		Int("rules", len(design.Rules)).
		Msg("script ok")
	return nil
}

// evaluateScript reads and evaluates one script file, reporting eval
// errors with their line numbers.
func evaluateScript(log zerolog.Logger, path string) (*engine.Design, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	design, evalErrs, err := engine.NewEngine().Evaluate(string(src))
	if err != nil {
		return nil, fmt.Errorf("evaluate: %w", err)
	}
	if len(evalErrs) > 0 {
		for _, e := range evalErrs {
			log.Error().Int("line", e.Line).Msg(e.Message)
		}
		return nil, fmt.Errorf("%d error(s) in %s", len(evalErrs), path)
	}
	return design, nil
}

// loadTolerances applies a partial TOML override onto tol. Keys absent
// from the file keep their defaults.
func loadTolerances(path string, tol *joints.Tolerances) error {
	meta, err := toml.DecodeFile(path, tol)
	if err != nil {
		return err
	}
	if undec := meta.Undecoded(); len(undec) > 0 {
		return fmt.Errorf("unknown key %q", undec[0].String())
	}
	return nil
}

// writeMeshes machines every beam's blank through the SDF kernel and
// writes one mesh JSON file per beam.
func writeMeshes(log zerolog.Logger, asm *model.Assembly, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	k := sdfx.New()
	for _, b := range asm.Beams() {
		s, err := kernel.ApplyFeatures(k, b)
		if err != nil {
			return err
		}
		mesh, err := k.ToMesh(s)
		if err != nil {
			return fmt.Errorf("beam %d: %w", b.Key, err)
		}
		mesh.BeamKey = b.Key
		path := filepath.Join(dir, fmt.Sprintf("beam_%d.json", b.Key))
		if err := writeJSON(path, mesh, false); err != nil {
			return err
		}
		log.Debug().
			Int("beam", b.Key).
			Int("triangles", mesh.TriangleCount()).
			Str("path", path).
			Msg("mesh written")
	}
	return nil
}

func writeJSON(path string, v any, pretty bool) error {
	var f *os.File
	if path == "" {
		f = os.Stdout
	} else {
		var err error
		f, err = os.Create(path)
		if err != nil {
			return err
		}
		defer f.Close()
	}
	enc := json.NewEncoder(f)
	if pretty {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(v)
}
