// Command vgputool exercises the autotuner and a one-shot matrix
// multiply from the command line.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"runtime"

	"github.com/spacewink/vgpu"
)

func main() {
	var (
		force   = flag.Bool("force", false, "force a fresh autotuner sweep")
		reset   = flag.Bool("reset", false, "discard the cached tuner config and exit")
		size    = flag.Int("size", 0, "run a size x size x size matmul after tuning (0 to skip)")
		verbose = flag.Bool("v", false, "verbose output")
	)
	flag.Parse()

	tuner := vgpu.GetTuner()

	if *reset {
		if err := tuner.Reset(); err != nil {
			log.Fatalf("reset: %v", err)
		}
		fmt.Println("tuner config reset")
		return
	}

	if *verbose {
		fmt.Printf("GOARCH: %s, %d CPUs\n", runtime.GOARCH, runtime.NumCPU())
		fmt.Println(vgpu.CPUInfo())
		cache := tuner.CacheSizesReport()
		fmt.Printf("cache: L1=%dKB L2=%dKB L3=%dKB\n", cache.L1/1024, cache.L2/1024, cache.L3/1024)
	}

	cfg, err := tuner.Tune(*force)
	if err != nil {
		log.Fatalf("tune: %v", err)
	}
	fmt.Printf("tile config: MC=%d KC=%d NC=%d\n", cfg.MC, cfg.KC, cfg.NC)

	if *size > 0 {
		a := make([]float32, *size**size)
		b := make([]float32, *size**size)
		for i := range a {
			a[i] = 1
			b[i] = 1
		}
		c, err := vgpu.Matmul(*size, *size, *size, a, b)
		if err != nil {
			log.Fatalf("matmul: %v", err)
		}
		fmt.Printf("matmul %dx%dx%d done, C[0][0]=%v\n", *size, *size, *size, c[0])
	}

	os.Exit(0)
}
