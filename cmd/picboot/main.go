// Command picboot programs a PIC18 through its serial bootloader.
//
// Usage:
//
//	picboot [options] firmware.hex
//
// Hold the device in reset, start picboot, release reset, then press a key
// once the bootloader has locked onto the baud rate.
package main

import (
	"context"
	"encoding/hex"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"

	"github.com/picboot/go-picboot/bootloader"
	"github.com/picboot/go-picboot/ihex"
	"github.com/picboot/go-picboot/internal/devsim"
	"github.com/picboot/go-picboot/transport"
)

type options struct {
	port     string
	baud     int
	loopback bool
	ceiling  string
	config   string
	dump     string
	plan     bool
	simulate bool
	coalesce bool
	list     bool
	verbose  bool
}

func main() {
	var o options
	flag.StringVar(&o.port, "p", defaultPort(), "serial port")
	flag.IntVar(&o.baud, "b", 115200, "baud rate")
	flag.BoolVar(&o.loopback, "loopback", true, "adapter echoes transmitted bytes")
	flag.StringVar(&o.ceiling, "ceiling", "0x7C00", "first address reserved for the bootloader")
	flag.StringVar(&o.config, "config", "", "configuration bytes sent with finish, in hex")
	flag.StringVar(&o.dump, "dump", "", "write the image that would be sent to this Intel HEX file")
	flag.BoolVar(&o.plan, "plan", false, "print the erase and write plan and exit")
	flag.BoolVar(&o.simulate, "simulate", false, "program a simulated device instead of a serial port")
	flag.BoolVar(&o.coalesce, "coalesce", false, "merge touching erase blocks")
	flag.BoolVar(&o.list, "list", false, "list serial ports and exit")
	flag.BoolVar(&o.verbose, "v", false, "verbose logging")
	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, "picboot [options] firmware.hex")
		flag.PrintDefaults()
		os.Exit(1)
	}
	flag.Parse()

	logger := newLogger(o.verbose)

	if o.list {
		ports, err := transport.ListPorts()
		if err != nil {
			logger.Error("list ports failed", "error", err)
			os.Exit(1)
		}
		for _, p := range ports {
			fmt.Println(p)
		}
		return
	}

	if flag.NArg() != 1 {
		flag.Usage()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, flag.Arg(0), o, logger); err != nil {
		logger.Error("programming failed", "error", err)
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, path string, o options, logger *logrusLogger) error {
	fw, err := ihex.Load(path)
	if err != nil {
		return err
	}
	logger.Info("image loaded", "file", path, "regions", len(fw.Regions), "bytes", fw.Size())

	ceiling, err := strconv.ParseUint(o.ceiling, 0, 32)
	if err != nil {
		return fmt.Errorf("invalid -ceiling %q: %w", o.ceiling, err)
	}
	finishConfig, err := hex.DecodeString(strings.ReplaceAll(o.config, " ", ""))
	if err != nil {
		return fmt.Errorf("invalid -config %q: %w", o.config, err)
	}

	opts := []bootloader.Option{
		bootloader.WithLogger(logger),
		bootloader.WithMemoryCeiling(uint32(ceiling)),
		bootloader.WithLoopback(o.loopback),
		bootloader.WithCoalescedErase(o.coalesce),
		bootloader.WithProgressCallback(progressLogger(logger)),
	}
	if len(finishConfig) > 0 {
		opts = append(opts, bootloader.WithFinishConfig(finishConfig))
	}

	var device io.ReadWriter
	var sim *devsim.Device
	if o.simulate || o.plan || o.dump != "" {
		sim = devsim.New(o.loopback)
		device = sim
		opts = append(opts, bootloader.WithPacer(bootloader.NoPacing{}), bootloader.WithPostFrameDelay(0))
	}

	if o.plan || o.dump != "" {
		plan := bootloader.New(device, opts...).Plan(fw.Regions)
		if o.dump != "" {
			if err := dumpImage(o.dump, plan.Regions); err != nil {
				return err
			}
			logger.Info("image written", "file", o.dump)
		}
		if o.plan {
			printPlan(os.Stdout, plan)
		}
		return nil
	}

	ready := func() bool { return true }
	if !o.simulate {
		cfg := transport.DefaultConfig()
		cfg.BaudRate = o.baud
		port, err := transport.Open(o.port, cfg)
		if err != nil {
			return err
		}
		defer port.Close()
		device = port

		console, err := transport.OpenConsole()
		if err != nil {
			return fmt.Errorf("waiting for the operator needs a terminal on stdin: %w", err)
		}
		defer console.Close()
		ready = console.KeyPressed

		fmt.Fprintln(os.Stderr, "Release reset, then press any key...")
	}

	syncCfg := transport.DefaultSyncConfig()
	syncCfg.Loopback = o.loopback
	if o.simulate {
		syncCfg.Settle = 0
	}
	if err := transport.Synchronize(ctx, device, ready, syncCfg); err != nil {
		return fmt.Errorf("synchronize: %w", err)
	}
	logger.Info("bootloader synchronized", "port", o.port, "baud", o.baud)

	if err := bootloader.New(device, opts...).Program(ctx, fw); err != nil {
		return err
	}

	if sim != nil {
		for _, e := range sim.Errors {
			logger.Error("simulated device rejected data", "error", e)
		}
		if len(sim.Errors) > 0 {
			return fmt.Errorf("simulated device reported %d errors", len(sim.Errors))
		}
		logger.Info("simulated device finished", "commands", len(sim.Commands), "finished", sim.Finished)
	}
	return nil
}

func progressLogger(logger *logrusLogger) bootloader.ProgressCallback {
	last := bootloader.StateIdle
	return func(p bootloader.Progress) {
		if p.Phase != last {
			logger.Info(p.Phase.String(), "runs", p.TotalRuns)
			last = p.Phase
			return
		}
		logger.Debug("progress",
			"run", p.CurrentRun,
			"of", p.TotalRuns,
			"percent", fmt.Sprintf("%.1f", p.Percentage),
			"bytes", p.BytesWritten,
		)
	}
}

func printPlan(w io.Writer, plan *bootloader.Plan) {
	fmt.Fprintf(w, "regions: %d\n", len(plan.Regions))
	for _, r := range plan.Regions {
		fmt.Fprintf(w, "  0x%06X-0x%06X %6d bytes\n", r.Address, r.End(), r.Len())
	}
	fmt.Fprintf(w, "erase: %d blocks\n", len(plan.Erase))
	for _, b := range plan.Erase {
		fmt.Fprintf(w, "  0x%04X x%d\n", b.Address, b.Pages)
	}
	fmt.Fprintf(w, "write: %d runs, %d bytes\n", len(plan.Writes), plan.Bytes())
	for _, run := range plan.Writes {
		fmt.Fprintf(w, "  0x%04X %3d bytes\n", run.Offset, len(run.Data))
	}
}

func dumpImage(path string, regions []ihex.Region) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := ihex.WriteHex(f, regions, ihex.DefaultLineLength); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func defaultPort() string {
	if p := os.Getenv("PICBOOT_PORT"); p != "" {
		return p
	}
	return "/dev/ttyUSB0"
}
