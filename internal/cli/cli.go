// Package cli wires argument parsing to the hashing pipeline.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/alexflint/go-arg"

	"github.com/ocltools/clsum/internal/batch"
	"github.com/ocltools/clsum/internal/compute"
	"github.com/ocltools/clsum/internal/config"
	"github.com/ocltools/clsum/internal/report"
	"github.com/ocltools/clsum/internal/ui"
	"github.com/ocltools/clsum/internal/version"
)

type args struct {
	Path      string `arg:"positional" placeholder:"DIR" help:"directory containing the files to hash"`
	List      bool   `arg:"-l,--list" help:"list available compute devices and exit"`
	Device    *int   `arg:"-d,--device" placeholder:"ID" help:"select a compute device by ID"`
	Output    string `arg:"-o,--output" placeholder:"PATH" help:"report output path"`
	Recursive bool   `arg:"-r,--recursive" help:"scan directories recursively"`
	Batch     int    `arg:"-b,--batch" default:"1" placeholder:"N" help:"files hashed per kernel launch"`
}

func (args) Version() string { return "clsum " + version.Version }

func (args) Description() string { return "Batch SHA-1 hashing of files on a compute device" }

// Run executes the command line and returns the process exit code.
func Run() int {
	var a args
	arg.MustParse(&a)

	if a.List {
		return listDevices()
	}
	if a.Path == "" {
		ui.Fail("path to the target directory is required")
		return 1
	}
	return run(a)
}

func listDevices() int {
	catalog, err := compute.Enumerate()
	if err != nil {
		ui.Fail("%v", err)
		return 1
	}
	for _, d := range catalog.Devices() {
		fmt.Printf("Device ID: %d, Name: %s, Type: %s\n", d.Index, d.Name, d.Class)
	}
	return 0
}

func run(a args) int {
	cfg := config.Load()

	cwd, err := os.Getwd()
	if err != nil {
		ui.Fail("resolving working directory: %v", err)
		return 1
	}

	// Pre-flight: target directory, output path, then device resolution
	// inside Run — all before any file content is read or hashed.
	info, err := os.Stat(a.Path)
	if err != nil {
		ui.Fail("target directory: %v", err)
		return 1
	}
	if !info.IsDir() {
		ui.Fail("%s is not a directory", a.Path)
		return 1
	}

	outPath, err := report.ResolvePath(a.Output, cwd)
	if err != nil {
		ui.Fail("%v", err)
		return 1
	}

	summary, err := batch.Run(context.Background(), batch.Options{
		Dir:            a.Path,
		Recursive:      a.Recursive,
		DeviceOverride: a.Device,
		Policy:         policyFromConfig(cfg),
		BatchSize:      a.Batch,
		Timeout:        cfg.Timeout(batch.DefaultTimeout),
	})
	if err != nil {
		ui.Fail("%v", err)
		return 1
	}

	ui.Info("found %d files to process", summary.Found())
	for _, f := range summary.Failures {
		ui.Warn("%s: %v", f.Path, f.Err)
	}

	entries := make([]report.Entry, len(summary.Results))
	for i, r := range summary.Results {
		entries[i] = report.Entry{Path: r.Path, Hash: r.Hex}
	}
	if err := report.Write(outPath, entries); err != nil {
		ui.Fail("%v", err)
		return 1
	}

	ui.Success("hashed %d files on %s, report written to %s",
		len(summary.Results), ui.Bold(summary.Device.Name), outPath)
	if n := len(summary.Failures); n > 0 {
		ui.Warn("%d files failed; see messages above", n)
	}
	ui.Info("total time: %.2fs", summary.Elapsed.Seconds())
	return 0
}

func policyFromConfig(cfg *config.Config) compute.Policy {
	if len(cfg.VendorPriority) == 0 {
		return compute.DefaultPolicy()
	}
	return compute.Policy{VendorPriority: cfg.VendorPriority}
}
