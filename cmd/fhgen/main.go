// Command fhgen deterministically generates a 5G fronthaul downlink
// Ethernet byte stream (O-RAN U-Plane over eCPRI over Ethernet) from a
// key=value configuration file, and can plan or re-verify a run without
// touching a live network.
package main

import (
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"flag"
	"fmt"
	"os"
	"time"

	"example.com/fhgen/internal/capacity"
	"example.com/fhgen/internal/common"
	"example.com/fhgen/internal/fhconfig"
	"example.com/fhgen/internal/hexout"
	"example.com/fhgen/internal/iqpool"
	"example.com/fhgen/internal/manifest"
	"example.com/fhgen/internal/report"
	"example.com/fhgen/internal/stream"
	"example.com/fhgen/internal/validate"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

// defaultConfigPath and defaultOutPath are the conventional file names
// used when generate is invoked with no flags.
const (
	defaultConfigPath = "second_milestone.txt"
	defaultOutPath    = "packets.txt"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		return
	}
	switch os.Args[1] {
	case "generate":
		generateCmd(os.Args[2:])
	case "plan":
		planCmd(os.Args[2:])
	case "verify":
		verifyCmd(os.Args[2:])
	default:
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Printf(`fhgen %s (built %s) <command> [options]

Commands:
  generate  --config <file> --out <file> [--seed N] [--metrics] [--progress]
            [--manifest <file>] [--sign-key <pem> --sign-cert <pem> --jws-out <file>]
  plan      --config <file>
  verify    --stream <file> --config <file> [--report <pdf>] [--manifest <file>]

Every command also accepts --settings <yaml> (default %s) for operator
defaults: configPath, outPath, and rotating-log options.
`, version, buildDate, defaultSettingsPath)
}

// settingsFor parses the shared --settings flag from fs after fs.Parse has
// run, loads the file, and activates log rotation.
func settingsFor(fs *flag.FlagSet, settingsPath string) settings {
	explicit := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "settings" {
			explicit = true
		}
	})
	s, err := applySettings(settingsPath, explicit)
	if err != nil {
		fmt.Println("load settings:", err)
		os.Exit(2)
	}
	return s
}

func derivePlan(cfg fhconfig.Config) (capacity.Plan, error) {
	return capacity.Derive(capacity.Config{
		LineRateGbps:  cfg.LineRateGbps,
		CaptureSizeMs: cfg.CaptureSizeMs,
		ScsKHz:        cfg.ScsKHz,
		MaxNrb:        cfg.MaxNrb,
		NrbPerPacket:  cfg.NrbPerPacket,
	})
}

func loadPool(cfg fhconfig.Config, plan capacity.Plan, seed int64, hasSeed bool) (iqpool.Pool, error) {
	switch cfg.PayloadType {
	case fhconfig.PayloadFixed:
		return iqpool.LoadFixed(cfg.IQSampleSourcePath)
	case fhconfig.PayloadRandom:
		n := int(plan.TotalIQSamples())
		var src = iqpool.NewEntropySource()
		if hasSeed {
			src = iqpool.NewSeededSource(seed)
		}
		return iqpool.GenerateRandom(n, src)
	default:
		return iqpool.Pool{}, fmt.Errorf("%w: %q", iqpool.ErrInvalidPayloadType, cfg.PayloadType)
	}
}

func generateCmd(args []string) {
	fs := flag.NewFlagSet("generate", flag.ExitOnError)
	settingsPath := fs.String("settings", defaultSettingsPath, "operator settings YAML")
	configPath := fs.String("config", "", "configuration file")
	outPath := fs.String("out", "", "hex-text output file")
	seed := fs.Int64("seed", 0, "seed for deterministic random-mode IQ generation")
	hasSeedFlag := fs.Bool("deterministic-random", false, "use --seed instead of entropy for random-mode IQ generation")
	metricsFlag := fs.Bool("metrics", false, "print generation throughput metrics")
	progressFlag := fs.Bool("progress", false, "display generation progress updates")
	manifestPath := fs.String("manifest", "", "write an integrity manifest to this path")
	signKeyPath := fs.String("sign-key", "", "PEM RSA private key to sign the manifest")
	signCertPath := fs.String("sign-cert", "", "PEM certificate identifying the signer, printed for operator confirmation")
	jwsOutPath := fs.String("jws-out", "", "also write the JWS signature to this file, separate from --manifest")
	fs.Parse(args)
	st := settingsFor(fs, *settingsPath)
	seeded := *hasSeedFlag
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "seed" {
			seeded = true
		}
	})
	cfgPath := firstNonEmpty(*configPath, st.ConfigPath, defaultConfigPath)
	outFile := firstNonEmpty(*outPath, st.OutPath, defaultOutPath)

	cfg, err := fhconfig.Load(cfgPath)
	if err != nil {
		fmt.Println("load config:", err)
		os.Exit(2)
	}
	plan, err := derivePlan(cfg)
	if err != nil {
		fmt.Println("derive plan:", err)
		os.Exit(2)
	}
	pool, err := loadPool(cfg, plan, *seed, seeded)
	if err != nil {
		fmt.Println("load iq pool:", err)
		os.Exit(2)
	}

	var metrics *common.Metrics
	if *metricsFlag || *progressFlag {
		metrics = common.NewMetrics()
		metrics.SetTotalBytes(plan.TotalBytes)
	}

	params := stream.Params{
		DestMAC:          cfg.DestMAC,
		SrcMAC:           cfg.SrcMAC,
		MinIFGsPerPacket: cfg.MinIFGsPerPacket,
		MaxPacketSize:    int(cfg.MaxPacketSize),
		Pool:             pool,
		Metrics:          metrics,
	}

	common.Logf("generate: config=%s total_bytes=%d total_packets=%d", cfgPath, plan.TotalBytes, plan.TotalPackets)
	if metrics != nil {
		metrics.Start()
	}
	var stopProgress func()
	if metrics != nil && *progressFlag {
		stopProgress = common.StartProgressPrinter(os.Stderr, metrics, 500*time.Millisecond)
	}
	out, err := stream.Generate(plan, params)
	if stopProgress != nil {
		stopProgress()
	}
	if metrics != nil {
		metrics.Stop()
	}
	if err != nil {
		fmt.Println("generate:", err)
		os.Exit(2)
	}

	if err := hexout.WriteToFile(outFile, out); err != nil {
		fmt.Println("write output:", err)
		os.Exit(2)
	}
	common.Logf("generate: wrote %d octets to %s", len(out), outFile)
	fmt.Println("Wrote", outFile)

	if metrics != nil && *metricsFlag {
		snap := metrics.Snapshot()
		fmt.Printf("Metrics: duration=%s frames=%d frame_octets=%s ifg_octets=%s utilization=%.1f%% throughput=%.2f MiB/s\n",
			snap.Duration.Round(10*time.Millisecond),
			snap.Frames,
			common.FormatBytes(snap.FrameBytes),
			common.FormatBytes(snap.IFGBytes),
			snap.LineUtilization()*100,
			snap.ThroughputBytesPerSecond()/(1024*1024),
		)
	}

	if *manifestPath != "" {
		m, err := manifest.Build([]string{outFile}, time.Now())
		if err != nil {
			fmt.Println("build manifest:", err)
			os.Exit(2)
		}
		if *signKeyPath != "" {
			keyBytes, err := os.ReadFile(*signKeyPath)
			if err != nil {
				fmt.Println("read sign key:", err)
				os.Exit(2)
			}
			if err := m.Sign(keyBytes); err != nil {
				fmt.Println("sign manifest:", err)
				os.Exit(2)
			}
			if *signCertPath != "" {
				if subject, err := certSubject(*signCertPath); err != nil {
					fmt.Println("read sign cert:", err)
				} else {
					fmt.Println("Signer:", subject)
				}
			}
			if *jwsOutPath != "" {
				jwsBytes, err := json.MarshalIndent(m.Signature, "", "  ")
				if err != nil {
					fmt.Println("marshal signature:", err)
					os.Exit(2)
				}
				if err := os.WriteFile(*jwsOutPath, jwsBytes, 0644); err != nil {
					fmt.Println("write jws:", err)
					os.Exit(2)
				}
				fmt.Println("Wrote", *jwsOutPath)
			}
		}
		if err := m.Save(*manifestPath); err != nil {
			fmt.Println("write manifest:", err)
			os.Exit(2)
		}
		fmt.Println("Wrote", *manifestPath)
	}
}

// certSubject reads a PEM certificate and returns its subject, purely for
// printing a human-readable confirmation of who signed a manifest.
func certSubject(path string) (string, error) {
	certBytes, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	block, _ := pem.Decode(certBytes)
	if block == nil {
		return "", fmt.Errorf("no PEM block found in %s", path)
	}
	cert, err := x509.ParseCertificate(block.Bytes)
	if err != nil {
		return "", err
	}
	return cert.Subject.String(), nil
}

func planCmd(args []string) {
	fs := flag.NewFlagSet("plan", flag.ExitOnError)
	settingsPath := fs.String("settings", defaultSettingsPath, "operator settings YAML")
	configPath := fs.String("config", "", "configuration file")
	fs.Parse(args)
	st := settingsFor(fs, *settingsPath)

	cfg, err := fhconfig.Load(firstNonEmpty(*configPath, st.ConfigPath, defaultConfigPath))
	if err != nil {
		fmt.Println("load config:", err)
		os.Exit(2)
	}
	plan, err := derivePlan(cfg)
	if err != nil {
		fmt.Println("derive plan:", err)
		os.Exit(2)
	}
	fmt.Printf("total_bytes=%d\n", plan.TotalBytes)
	fmt.Printf("total_packets=%d\n", plan.TotalPackets)
	fmt.Printf("packets_per_frame=%d packets_per_subframe=%d packets_per_slot=%d packets_per_symbol=%d\n",
		plan.PacketsPerFrame, plan.PacketsPerSubframe, plan.PacketsPerSlot, plan.PacketsPerSymbol)
	fmt.Printf("iq_samples_per_packet=%d max_nrb=%d nrb_per_packet=%d\n",
		plan.IQSamplesPerPacket, plan.MaxNrb, plan.NrbPerPacket)
}

func verifyCmd(args []string) {
	fs := flag.NewFlagSet("verify", flag.ExitOnError)
	settingsPath := fs.String("settings", defaultSettingsPath, "operator settings YAML")
	streamPath := fs.String("stream", "", "hex-text stream file to verify")
	configPath := fs.String("config", "", "configuration file the stream was generated from")
	reportPath := fs.String("report", "", "write an acceptance PDF report to this path")
	manifestPath := fs.String("manifest", "", "manifest file whose hash is embedded in the PDF report's QR code")
	fs.Parse(args)
	st := settingsFor(fs, *settingsPath)

	if *streamPath == "" {
		fmt.Println("required: --stream")
		os.Exit(2)
	}

	cfg, err := fhconfig.Load(firstNonEmpty(*configPath, st.ConfigPath, defaultConfigPath))
	if err != nil {
		fmt.Println("load config:", err)
		os.Exit(2)
	}
	plan, err := derivePlan(cfg)
	if err != nil {
		fmt.Println("derive plan:", err)
		os.Exit(2)
	}

	raw, err := os.ReadFile(*streamPath)
	if err != nil {
		fmt.Println("read stream:", err)
		os.Exit(2)
	}
	streamBytes, err := hexout.Decode(raw)
	if err != nil {
		fmt.Println("decode stream:", err)
		os.Exit(2)
	}

	rep := validate.Run(validate.Input{
		Stream:           streamBytes,
		Plan:             plan,
		MinIFGsPerPacket: cfg.MinIFGsPerPacket,
		MaxPacketSize:    int(cfg.MaxPacketSize),
	})
	fmt.Printf("PASS=%v, errors=%d, warnings=%d, findings=%d\n",
		rep.Summary.Pass, rep.Summary.Errors, rep.Summary.Warnings, rep.Summary.Total)
	for _, f := range rep.Findings {
		fmt.Printf("  [%s] %s: %s\n", f.Severity, f.RuleID, f.Message)
	}

	if *reportPath != "" {
		var hash string
		if *manifestPath != "" {
			m, err := manifest.Load(*manifestPath)
			if err != nil {
				fmt.Println("load manifest:", err)
				os.Exit(2)
			}
			hash = m.PrimaryHash()
		}
		if err := report.SaveAcceptancePDF(rep, hash, *reportPath); err != nil {
			fmt.Println("write report:", err)
			os.Exit(2)
		}
		fmt.Println("Wrote", *reportPath)
	}

	if !rep.Summary.Pass {
		os.Exit(1)
	}
}
