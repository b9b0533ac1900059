// Package main provides the kernels CLI.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/born-ml/kernels/backend/cpu"
	"github.com/born-ml/kernels/backend/webgpu"
	"github.com/born-ml/kernels/kernel"
)

const version = "v0.1.0-dev"

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		usage(stdout)
		return 0
	}

	var err error
	switch args[0] {
	case "version":
		fmt.Fprintf(stdout, "kernels %s\n", version)
	case "devices":
		devices(stdout)
	case "run":
		err = runDemo(args[1:], stdout, stderr)
	case "help", "-h", "--help":
		usage(stdout)
	default:
		fmt.Fprintf(stderr, "unknown command %q\n\n", args[0])
		usage(stderr)
		return 2
	}
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}
	return 0
}

func usage(w io.Writer) {
	fmt.Fprintf(w, "kernels %s - portable data-parallel kernels for Go\n\n", version)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  version    Show version")
	fmt.Fprintln(w, "  devices    Show host features and accelerator availability")
	fmt.Fprintln(w, "  run        Launch the demo kernel (see run -h)")
}

func devices(w io.Writer) {
	fmt.Fprintf(w, "CPU: %s\n", cpu.DetectHost())
	if webgpu.IsAvailable() {
		gpu, err := webgpu.New()
		if err == nil {
			fmt.Fprintf(w, "GPU: %s\n", gpu.Name())
			_ = gpu.Close()
			return
		}
	}
	fmt.Fprintln(w, "GPU: unavailable")
}

// iotaWGSL mirrors the Go body of the demo kernel.
const iotaWGSL = `@group(0) @binding(0) var<storage, read_write> out: array<f32>;
{{launch_params}}

@compute @workgroup_size({{workgroup_size}})
fn main(@builtin(global_invocation_id) gid: vec3<u32>) {
    let nd = launch.ndrange.xyz;
    if (launch.bounds_check != 0u && any(gid >= nd)) {
        return;
    }
    let i = (gid.z * nd.y + gid.y) * nd.x + gid.x;
    out[i] = f32(i);
}
`

var iotaKernel = kernel.New("iota", func(c kernel.Context, args ...any) {
	out := args[0].([]float32)
	i := c.GlobalLinear()
	out[i] = float32(i)
}, kernel.WithSource(kernel.GPU, iotaWGSL))

func runDemo(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	fs.SetOutput(stderr)
	ndrangeFlag := fs.String("ndrange", "1024", "comma-separated ndrange extents")
	workgroupFlag := fs.String("workgroup", "64", "comma-separated workgroup extents")
	deviceFlag := fs.String("device", "cpu", "cpu or gpu")
	workers := fs.Int("workers", 0, "host worker goroutines (0 = GOMAXPROCS)")
	verbose := fs.Bool("v", false, "debug logging")
	if err := fs.Parse(args); err != nil {
		return err
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	ndrange, err := parseSize(*ndrangeFlag)
	if err != nil {
		return fmt.Errorf("-ndrange: %w", err)
	}
	workgroup, err := parseSize(*workgroupFlag)
	if err != nil {
		return fmt.Errorf("-workgroup: %w", err)
	}

	var device kernel.Device
	switch strings.ToLower(*deviceFlag) {
	case "cpu":
		cfg := cpu.DefaultConfig()
		cfg.Logger = logger
		if *workers > 0 {
			cfg.Parallel.NumWorkers = *workers
		}
		host := cpu.NewWithConfig(cfg)
		defer host.Close()
		kernel.Register(host)
		device = kernel.CPU
	case "gpu":
		cfg := webgpu.DefaultConfig()
		cfg.Logger = logger
		gpu, err := webgpu.NewWithConfig(cfg)
		if err != nil {
			return err
		}
		defer gpu.Close()
		kernel.Register(gpu)
		device = kernel.GPU
	default:
		return fmt.Errorf("-device: unknown device %q", *deviceFlag)
	}

	d, err := kernel.Specialize(iotaKernel, device)
	if err != nil {
		return err
	}
	geom := kernel.Geometry{NDRange: ndrange, Workgroup: workgroup}
	part, err := d.Partition(geom)
	if err != nil {
		return err
	}
	logger.Info("partitioned",
		"ndrange", part.Space.NDRange(),
		"workgroup", part.Space.GroupSize(),
		"blocks", part.Space.Blocks(),
		"bounds_check", part.Dynamic)

	out := make([]float32, ndrange.NumElements())
	ev, err := d.Launch(geom, out)
	if err != nil {
		return err
	}
	if err := ev.Wait(); err != nil {
		return err
	}

	var sum float64
	for _, v := range out {
		sum += float64(v)
	}
	n := float64(len(out))
	fmt.Fprintf(stdout, "device=%s ndrange=%v workgroup=%v blocks=%v bounds_check=%t\n",
		device, part.Space.NDRange(), part.Space.GroupSize(), part.Space.Blocks(), part.Dynamic)
	fmt.Fprintf(stdout, "checksum=%.0f expected=%.0f\n", sum, n*(n-1)/2)
	if sum != n*(n-1)/2 {
		return errors.New("checksum mismatch")
	}
	return nil
}

// parseSize parses "128,64" into a Size.
func parseSize(s string) (kernel.Size, error) {
	fields := strings.Split(s, ",")
	if len(fields) > kernel.MaxRank {
		return kernel.Size{}, fmt.Errorf("rank %d exceeds %d", len(fields), kernel.MaxRank)
	}
	ext := make([]int, len(fields))
	for i, f := range fields {
		v, err := strconv.Atoi(strings.TrimSpace(f))
		if err != nil {
			return kernel.Size{}, fmt.Errorf("extent %q: %w", f, err)
		}
		ext[i] = v
	}
	return kernel.Dims(ext...), nil
}
