package main

import (
	"net/http"
	_ "net/http/pprof"
	"os"
	"runtime"
	"runtime/pprof"
	"time"

	"github.com/rawbytedev/pickle"
	flag "github.com/spf13/pflag"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type record struct {
	Name    string
	Display string `pickle:"string16"`
	Size    uint64
	IsDir   bool
	Mode    uint32
	Blob    []byte
	Weight  float64
}

func main() {
	var (
		iterations int
		memProfile string
		pprofAddr  string
		hold       time.Duration
		unsafeStr  bool
		verbose    bool
	)
	flag.IntVarP(&iterations, "iterations", "n", 10000, "encode/decode round trips to run")
	flag.StringVarP(&memProfile, "memprofile", "m", "mem.prof", "heap profile output path")
	flag.StringVar(&pprofAddr, "pprof", "localhost:6060", "address for the pprof HTTP server, empty to disable")
	flag.DurationVar(&hold, "hold", 0, "keep the pprof server up this long after the run")
	flag.BoolVar(&unsafeStr, "unsafe-strings", false, "read strings without copying")
	flag.BoolVar(&verbose, "verbose", false, "debug logging")
	flag.Parse()

	al := zap.NewAtomicLevelAt(zap.InfoLevel)
	if verbose {
		al.SetLevel(zap.DebugLevel)
	}
	ec := zap.NewDevelopmentEncoderConfig()
	logger := zap.New(zapcore.NewCore(zapcore.NewConsoleEncoder(ec), zapcore.Lock(os.Stderr), al))
	defer func() { _ = logger.Sync() }()
	log := logger.Sugar()

	if pprofAddr != "" {
		go func() {
			log.Warn(http.ListenAndServe(pprofAddr, nil))
		}()
	}

	f, err := os.Create(memProfile)
	if err != nil {
		log.Fatalf("Failed to create profile: %v", err)
	}
	defer f.Close()
	runtime.MemProfileRate = 1

	z := record{
		Name: "azerty", Display: "女の子.txt", Size: 1 << 33, IsDir: false,
		Mode: 0o644, Blob: []byte("hello world"), Weight: 153.5,
	}
	c := pickle.NewCodec(pickle.Options{UnsafeStrings: unsafeStr})
	start := time.Now()
	var bytesOut int
	for i := 0; i < iterations; i++ {
		data, err := c.Marshal(z)
		if err != nil {
			log.Fatalf("Encode failed: %v", err)
		}
		bytesOut += len(data)
		res := &record{}
		if err := c.Unmarshal(data, res); err != nil {
			log.Fatalf("Decode failed: %v", err)
		}
		log.Debugw("round trip", "i", i, "size", len(data))
	}
	log.Infow("done", "iterations", iterations, "bytes", bytesOut, "elapsed", time.Since(start))

	if err := pprof.WriteHeapProfile(f); err != nil {
		log.Fatalf("Failed to write heap profile: %v", err)
	}
	if hold > 0 {
		time.Sleep(hold)
	}
}
