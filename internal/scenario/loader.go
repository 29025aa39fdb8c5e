package scenario

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/gocty"

	"github.com/WeslleyMarcelo14/HeatDiffusion/internal/ctxlog"
	"github.com/WeslleyMarcelo14/HeatDiffusion/internal/engine"
)

// fileRoot decodes the top-level blocks of one scenario file.
type fileRoot struct {
	Simulations []*simulationBlock `hcl:"simulation,block"`
}

// simulationBlock is the raw HCL shape of one simulation. Optional numeric
// attributes stay as expressions so absence and explicit null both fall
// through to the engine defaults.
type simulationBlock struct {
	Name   string `hcl:"name,label"`
	Engine string `hcl:"engine"`

	Width      int `hcl:"width"`
	Height     int `hcl:"height"`
	Iterations int `hcl:"iterations"`

	Workers       hcl.Expression `hcl:"workers,optional"`
	InitialTemp   hcl.Expression `hcl:"initial_temp,optional"`
	BoundaryTemp  hcl.Expression `hcl:"boundary_temp,optional"`
	Threshold     hcl.Expression `hcl:"threshold,optional"`
	CheckInterval hcl.Expression `hcl:"check_interval,optional"`
	Port          hcl.Expression `hcl:"port,optional"`
	LocalWorkers  hcl.Expression `hcl:"workers_local,optional"`
}

// Loader reads scenario files.
type Loader struct{}

// NewLoader returns a scenario loader.
func NewLoader() *Loader { return &Loader{} }

// Load parses every scenario file under path (a single .hcl file or a
// directory walked for them) and returns the resolved runs in file order.
func (l *Loader) Load(ctx context.Context, path string) ([]Run, error) {
	logger := ctxlog.From(ctx)

	files, err := findScenarioFiles(path)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no .hcl scenario files under %s", path)
	}
	logger.Debug("Discovered scenario files.", "count", len(files))

	parser := hclparse.NewParser()
	var runs []Run
	for _, file := range files {
		hclFile, diags := parser.ParseHCLFile(file)
		if diags.HasErrors() {
			return nil, fmt.Errorf("parsing %s: %w", file, diags)
		}

		var root fileRoot
		if diags := gohcl.DecodeBody(hclFile.Body, nil, &root); diags.HasErrors() {
			return nil, fmt.Errorf("decoding %s: %w", file, diags)
		}

		for _, block := range root.Simulations {
			run, err := resolveRun(block)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", file, err)
			}
			runs = append(runs, run)
		}
	}

	logger.Debug("Scenario loading complete.", "runs", len(runs))
	return runs, nil
}

// resolveRun applies defaults and evaluates the optional attributes of one
// block into a validated Run.
func resolveRun(block *simulationBlock) (Run, error) {
	p := engine.NewParams(block.Width, block.Height, block.Iterations, 1)
	p.CheckInterval = defaultCheckInterval(block.Engine)

	var err error
	if p.Workers, err = intAttr(block.Workers, p.Workers); err != nil {
		return Run{}, fmt.Errorf("simulation %q: workers: %w", block.Name, err)
	}
	if p.InitialTemp, err = floatAttr(block.InitialTemp, p.InitialTemp); err != nil {
		return Run{}, fmt.Errorf("simulation %q: initial_temp: %w", block.Name, err)
	}
	if p.BoundaryTemp, err = floatAttr(block.BoundaryTemp, p.BoundaryTemp); err != nil {
		return Run{}, fmt.Errorf("simulation %q: boundary_temp: %w", block.Name, err)
	}
	if p.Threshold, err = floatAttr(block.Threshold, p.Threshold); err != nil {
		return Run{}, fmt.Errorf("simulation %q: threshold: %w", block.Name, err)
	}
	if p.CheckInterval, err = intAttr(block.CheckInterval, p.CheckInterval); err != nil {
		return Run{}, fmt.Errorf("simulation %q: check_interval: %w", block.Name, err)
	}

	run := Run{Name: block.Name, Engine: block.Engine, Params: p}
	if run.Port, err = intAttr(block.Port, DefaultPort); err != nil {
		return Run{}, fmt.Errorf("simulation %q: port: %w", block.Name, err)
	}
	if run.LocalWorkers, err = boolAttr(block.LocalWorkers, false); err != nil {
		return Run{}, fmt.Errorf("simulation %q: workers_local: %w", block.Name, err)
	}

	if err := run.Validate(); err != nil {
		return Run{}, err
	}
	return run, nil
}

// attrValue evaluates an optional attribute expression to a cty value of the
// wanted type. The second return is false when the attribute was absent or
// null, meaning the caller's default stands.
func attrValue(expr hcl.Expression, want cty.Type) (cty.Value, bool, error) {
	if expr == nil {
		return cty.NilVal, false, nil
	}
	v, diags := expr.Value(nil)
	if diags.HasErrors() {
		return cty.NilVal, false, diags
	}
	if v.IsNull() {
		return cty.NilVal, false, nil
	}
	v, err := convert.Convert(v, want)
	if err != nil {
		return cty.NilVal, false, err
	}
	return v, true, nil
}

func intAttr(expr hcl.Expression, def int) (int, error) {
	v, ok, err := attrValue(expr, cty.Number)
	if err != nil || !ok {
		return def, err
	}
	var out int
	if err := gocty.FromCtyValue(v, &out); err != nil {
		return def, err
	}
	return out, nil
}

func floatAttr(expr hcl.Expression, def float64) (float64, error) {
	v, ok, err := attrValue(expr, cty.Number)
	if err != nil || !ok {
		return def, err
	}
	var out float64
	if err := gocty.FromCtyValue(v, &out); err != nil {
		return def, err
	}
	return out, nil
}

func boolAttr(expr hcl.Expression, def bool) (bool, error) {
	v, ok, err := attrValue(expr, cty.Bool)
	if err != nil || !ok {
		return def, err
	}
	return v.True(), nil
}

// findScenarioFiles accepts a single file or walks a directory for .hcl
// files, returned in a stable order.
func findScenarioFiles(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("accessing scenario path: %w", err)
	}
	if !info.IsDir() {
		return []string{path}, nil
	}

	var files []string
	err = filepath.WalkDir(path, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && filepath.Ext(p) == ".hcl" {
			files = append(files, p)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}
