package conversion

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// Artifacts are the files a toolchain produced for one IFC file.
type Artifacts struct {
	GeometryPath string
	MetadataPath string
}

// Toolchain turns an IFC file into viewer artifacts inside workDir.
type Toolchain interface {
	Convert(ctx context.Context, ifcPath, workDir string) (Artifacts, error)
}

// Runner executes an external command and returns its combined output.
type Runner func(ctx context.Context, name string, args ...string) ([]byte, error)

func execRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

// CommandToolchain drives the external converters: IfcConvert for IFC to
// GLB, xeokit-convert for GLB to XKT and xeokit-metadata for the object tree.
type CommandToolchain struct {
	IfcConvertBin  string
	XKTConvertBin  string
	XKTMetadataBin string
	// StepTimeout bounds each external command. Zero means no extra bound.
	StepTimeout time.Duration
	Run         Runner
}

func NewCommandToolchain(ifcConvert, xktConvert, xktMetadata string, stepTimeout time.Duration) *CommandToolchain {
	return &CommandToolchain{
		IfcConvertBin:  ifcConvert,
		XKTConvertBin:  xktConvert,
		XKTMetadataBin: xktMetadata,
		StepTimeout:    stepTimeout,
		Run:            execRunner,
	}
}

func (t *CommandToolchain) Convert(ctx context.Context, ifcPath, workDir string) (Artifacts, error) {
	base := strings.TrimSuffix(filepath.Base(ifcPath), filepath.Ext(ifcPath))
	glbPath := filepath.Join(workDir, base+".glb")
	artifacts := Artifacts{
		GeometryPath: filepath.Join(workDir, base+".xkt"),
		MetadataPath: filepath.Join(workDir, base+".json"),
	}

	steps := []struct {
		name string
		bin  string
		args []string
		out  string
	}{
		{"ifcconvert", t.IfcConvertBin, []string{"-y", ifcPath, glbPath}, glbPath},
		{"xeokit-convert", t.XKTConvertBin, []string{"-s", glbPath, "-o", artifacts.GeometryPath}, artifacts.GeometryPath},
		{"xeokit-metadata", t.XKTMetadataBin, []string{ifcPath, artifacts.MetadataPath}, artifacts.MetadataPath},
	}
	for _, step := range steps {
		if err := t.runStep(ctx, step.name, step.bin, step.args, step.out); err != nil {
			return Artifacts{}, err
		}
	}
	return artifacts, nil
}

func (t *CommandToolchain) runStep(ctx context.Context, name, bin string, args []string, out string) error {
	if t.StepTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.StepTimeout)
		defer cancel()
	}
	run := t.Run
	if run == nil {
		run = execRunner
	}
	output, err := run(ctx, bin, args...)
	if err != nil {
		return fmt.Errorf("%s failed: %w: %s", name, err, truncate(string(output), 512))
	}
	info, err := os.Stat(out)
	if err != nil || info.Size() == 0 {
		return fmt.Errorf("%s produced no output at %s", name, out)
	}
	return nil
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
