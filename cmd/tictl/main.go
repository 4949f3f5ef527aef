package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"example.com/tigate/internal/common"
	"example.com/tigate/internal/report"
	"example.com/tigate/internal/rules"
	"example.com/tigate/internal/teleinfo"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		return
	}
	cmd := os.Args[1]
	switch cmd {
	case "decode":
		decodeCmd(os.Args[2:])
	case "validate":
		validateCmd(os.Args[2:])
	case "report":
		reportCmd(os.Args[2:])
	case "tags":
		tagsCmd(os.Args[2:])
	case "version":
		fmt.Printf("tictl %s (built %s)\n", version, buildDate)
	default:
		usage()
	}
}

func usage() {
	fmt.Printf(`tictl %s (built %s) <command> [options]

Commands:
  decode    --in <capture> [--frame <n>]
  validate  --in <capture> [--rules <rulepack.json>] [--out <diagnostics.jsonl>] [--acceptance <validation.json>] [--metrics] [--progress]
  report    --validation <validation.json> --pdf <report.pdf>
  tags      [--mode legacy|standard]
  version
`, version, buildDate)
}

func decodeCapture(path string, metrics *common.Metrics) ([]*teleinfo.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var records []*teleinfo.Record
	var leftover []byte
	for {
		rest, rec, err := teleinfo.Decode(f, leftover)
		leftover = rest
		if rec != nil {
			if metrics != nil {
				metrics.AddFrame(0, rec.Valid)
			}
			records = append(records, rec)
		}
		if err != nil {
			if errors.Is(err, teleinfo.ErrParse) {
				if metrics != nil {
					metrics.IncParseError()
				}
				continue
			}
			return records, nil
		}
	}
}

func decodeCmd(args []string) {
	fs := flag.NewFlagSet("decode", flag.ExitOnError)
	in := fs.String("in", "", "capture file")
	frame := fs.Int("frame", -1, "print a single frame by index")
	fs.Parse(args)

	if *in == "" {
		fmt.Println("required: --in")
		os.Exit(1)
	}
	records, err := decodeCapture(*in, nil)
	if err != nil {
		fmt.Println("decode:", err)
		os.Exit(1)
	}
	if len(records) == 0 {
		fmt.Println("no frames decoded")
		os.Exit(1)
	}
	if *frame >= 0 {
		if *frame >= len(records) {
			fmt.Printf("frame %d out of range (%d decoded)\n", *frame, len(records))
			os.Exit(1)
		}
		printRecord(records[*frame], *frame)
		return
	}
	for i, rec := range records {
		printRecord(rec, i)
		fmt.Println()
	}
	fmt.Printf("%d frames decoded\n", len(records))
}

func printRecord(rec *teleinfo.Record, index int) {
	fmt.Printf("frame %d: mode=%s valid=%v type=%s meter=%s index=%s\n",
		index, rec.Mode, rec.Valid, rec.MessageType(), rec.MeterType(), rec.CurrentIndex())
	w := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
	fmt.Fprintln(w, "TAG\tVALUE\tHORODATE")
	for _, ti := range teleinfo.Tags() {
		f, ok := rec.Value(ti.Tag)
		if !ok {
			continue
		}
		hd := ""
		if f.Horodate != nil {
			hd = f.Horodate.Time.Format("2006-01-02 15:04:05")
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", f.Tag, f.Value, hd)
	}
	w.Flush()
}

func validateCmd(args []string) {
	fs := flag.NewFlagSet("validate", flag.ExitOnError)
	in := fs.String("in", "", "capture file")
	rulesPath := fs.String("rules", "", "rulepack.json")
	outDiag := fs.String("out", "diagnostics.jsonl", "diagnostics output")
	outAcc := fs.String("acceptance", "validation.json", "validation json")
	metricsFlag := fs.Bool("metrics", false, "print decoding throughput metrics")
	progressFlag := fs.Bool("progress", false, "display decoding progress updates")
	fs.Parse(args)

	if *in == "" {
		fmt.Println("required: --in")
		os.Exit(1)
	}

	var metrics *common.Metrics
	if *metricsFlag || *progressFlag {
		metrics = common.NewMetrics()
		if info, err := os.Stat(*in); err == nil {
			metrics.SetTotalBytes(info.Size())
		}
		metrics.Start()
	}
	var stopProgress func()
	if *progressFlag {
		stopProgress = common.StartProgressPrinter(os.Stderr, metrics, time.Second)
	}

	rp := rules.DefaultRulePack()
	if *rulesPath != "" {
		loaded, err := rules.LoadRulePack(*rulesPath)
		if err != nil {
			fmt.Println("load rulepack:", err)
			os.Exit(1)
		}
		rp = loaded
	}

	records, err := decodeCapture(*in, metrics)
	if stopProgress != nil {
		stopProgress()
	}
	if err != nil {
		fmt.Println("decode:", err)
		os.Exit(1)
	}
	if len(records) == 0 {
		fmt.Println("no frames decoded")
		os.Exit(1)
	}

	engine := rules.NewEngine(rp)
	engine.RegisterBuiltins()
	if _, err := engine.Eval(&rules.Context{Source: *in, Records: records}); err != nil {
		fmt.Println("evaluate rules:", err)
		os.Exit(1)
	}
	if err := engine.WriteDiagnosticsNDJSON(*outDiag); err != nil {
		fmt.Println("write diagnostics:", err)
		os.Exit(1)
	}

	hash, size, err := common.Sha256OfFile(*in)
	if err != nil {
		fmt.Println("hash capture:", err)
		os.Exit(1)
	}
	v := report.Validation{
		Source:     *in,
		SourceHash: hash,
		SourceSize: size,
		Frames:     len(records),
		Report:     engine.MakeAcceptance(),
	}
	if err := report.SaveValidationJSON(v, *outAcc); err != nil {
		fmt.Println("write validation:", err)
		os.Exit(1)
	}

	if metrics != nil {
		metrics.Stop()
	}
	fmt.Printf("%d frames, %d findings (%d errors, %d warnings), pass=%v\n",
		len(records), v.Report.Summary.Total, v.Report.Summary.Errors,
		v.Report.Summary.Warnings, v.Report.Summary.Pass)
	if *metricsFlag {
		snap := metrics.Snapshot()
		fmt.Printf("decoded %s in %s (%.1f frames/s, %d parse errors)\n",
			common.FormatBytes(snap.TotalBytes), snap.Duration.Round(time.Millisecond),
			snap.FramesPerSecond(), snap.ParseErrors)
	}
	if !v.Report.Summary.Pass {
		os.Exit(3)
	}
}

func reportCmd(args []string) {
	fs := flag.NewFlagSet("report", flag.ExitOnError)
	validationPath := fs.String("validation", "", "validation.json from a validate run")
	pdfPath := fs.String("pdf", "report.pdf", "PDF output")
	fs.Parse(args)

	if *validationPath == "" {
		fmt.Println("required: --validation")
		os.Exit(1)
	}
	v, err := report.LoadValidationJSON(*validationPath)
	if err != nil {
		fmt.Println("load validation:", err)
		os.Exit(1)
	}
	if err := report.SaveValidationPDF(v, *pdfPath); err != nil {
		fmt.Println("write pdf:", err)
		os.Exit(1)
	}
	fmt.Println("wrote", *pdfPath)
}

func tagsCmd(args []string) {
	fs := flag.NewFlagSet("tags", flag.ExitOnError)
	modeFilter := fs.String("mode", "", "filter by mode (legacy|standard)")
	fs.Parse(args)

	var filter *teleinfo.Mode
	if *modeFilter != "" {
		var m teleinfo.Mode
		if err := m.UnmarshalText([]byte(*modeFilter)); err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		filter = &m
	}
	w := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
	fmt.Fprintln(w, "TAG\tMODE\tHORODATE")
	for _, ti := range teleinfo.Tags() {
		if filter != nil && ti.Mode != *filter {
			continue
		}
		hd := ""
		if ti.Horodate {
			hd = "yes"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", ti.Tag, ti.Mode, hd)
	}
	w.Flush()
}
