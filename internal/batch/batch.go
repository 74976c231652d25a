// Package batch orchestrates a hashing run: device selection, file
// enumeration, kernel dispatch and result aggregation.
package batch

import (
	"context"
	"encoding/hex"
	"fmt"
	"os"
	"time"

	"github.com/ocltools/clsum/internal/compute"
	"github.com/ocltools/clsum/internal/scan"
)

// DefaultTimeout bounds the blocking wait on a single kernel launch. A
// hung driver fails that launch instead of stalling the whole batch.
const DefaultTimeout = 60 * time.Second

// Options configures one hashing run.
type Options struct {
	Dir            string
	Recursive      bool
	DeviceOverride *int
	Policy         compute.Policy
	BatchSize      int           // files per kernel launch; <=1 means one at a time
	Timeout        time.Duration // per-launch deadline; 0 means DefaultTimeout
}

// Result is one successfully hashed file.
type Result struct {
	Path   string
	Digest [compute.DigestSize]byte
	Hex    string
}

// Failure records a file that could not be hashed, with its cause.
type Failure struct {
	Path string
	Err  error
}

// Summary aggregates the outcome of a run.
type Summary struct {
	Device   compute.Device
	Results  []Result
	Failures []Failure
	Elapsed  time.Duration
}

// Found is the number of files the run attempted to hash.
func (s *Summary) Found() int { return len(s.Results) + len(s.Failures) }

// Run hashes every readable regular file under opts.Dir on the selected
// device. Device resolution happens before any file is read, so a bad
// override or absent accelerator fails the run cheaply. Per-file read and
// dispatch failures are collected in the summary and never abort the
// batch; only configuration errors (device, directory) do.
func Run(ctx context.Context, opts Options) (*Summary, error) {
	catalog, err := compute.Enumerate()
	if err != nil {
		return nil, err
	}
	device, err := catalog.Select(opts.DeviceOverride, opts.Policy)
	if err != nil {
		return nil, err
	}
	session, err := catalog.Open(device)
	if err != nil {
		return nil, fmt.Errorf("opening device %q: %w", device.Name, err)
	}
	defer session.Close()

	files, err := scan.Files(opts.Dir, opts.Recursive)
	if err != nil {
		return nil, err
	}

	size := opts.BatchSize
	if size < 1 {
		size = 1
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	start := time.Now()
	summary := &Summary{Device: device}
	for len(files) > 0 {
		n := size
		if n > len(files) {
			n = len(files)
		}
		results, failures := dispatchGroup(ctx, session, files[:n], timeout)
		summary.Results = append(summary.Results, results...)
		summary.Failures = append(summary.Failures, failures...)
		files = files[n:]
	}
	summary.Elapsed = time.Since(start)
	return summary, nil
}

// dispatchGroup reads the group's files into one packed host buffer and
// hashes them in a single launch, one work-item per file. The buffer is
// dropped when the group is done, so host memory is bounded by one group
// rather than the whole corpus. Every digest is correlated to its path by
// span index, never by completion order.
func dispatchGroup(ctx context.Context, session compute.Session, paths []string, timeout time.Duration) ([]Result, []Failure) {
	var (
		packed   []byte
		spans    []compute.Span
		included []string
		failures []Failure
	)
	for _, p := range paths {
		content, err := os.ReadFile(p)
		if err != nil {
			failures = append(failures, Failure{Path: p, Err: fmt.Errorf("reading file: %w", err)})
			continue
		}
		spans = append(spans, compute.Span{
			Offset: uint64(len(packed)),
			Length: uint64(len(content)),
		})
		packed = append(packed, content...)
		included = append(included, p)
	}
	if len(included) == 0 {
		return nil, failures
	}

	dctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	digests, err := session.Dispatch(dctx, packed, spans)
	if err != nil {
		// A failed launch poisons only its own files; the batch goes on.
		for _, p := range included {
			failures = append(failures, Failure{Path: p, Err: fmt.Errorf("kernel dispatch: %w", err)})
		}
		return nil, failures
	}

	results := make([]Result, len(included))
	for i, p := range included {
		results[i] = Result{
			Path:   p,
			Digest: digests[i],
			Hex:    hex.EncodeToString(digests[i][:]),
		}
	}
	return results, failures
}
