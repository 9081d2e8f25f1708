package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/hako/durafmt"
	"github.com/remeh/sizedwaitgroup"

	"github.com/cbegin/abcscore-go"
	"github.com/cbegin/abcscore-go/internal/diag"
	"github.com/cbegin/abcscore-go/internal/score"
)

var shortUnits, _ = durafmt.DefaultUnitsCoder.Decode("y:yrs,wk:wks,d:d,h:h,m:m,s:s,ms:ms,us:us")

type job struct {
	name   string
	data   []byte
	result *abcscore.Result
	err    error
	took   time.Duration
}

func main() {
	var (
		asJSON  = flag.Bool("json", false, "write the scores as JSON instead of a summary")
		jobs    = flag.Int("jobs", runtime.NumCPU(), "number of files compiled in parallel")
		debug   = flag.Bool("debug", false, "log timing for every file")
		inline  = flag.String("abc", "", "inline ABC text instead of files")
		charset = flag.String("charset", "", "charset for files that are not UTF-8 and name none")
		strict  = flag.Bool("strict", false, "exit with status 1 when any error diagnostic is reported")
	)
	flag.Parse()
	setupLogging(*debug)

	inputs, err := resolveInputs(flag.Args(), *inline)
	if err != nil {
		logError("%v", err)
		os.Exit(2)
	}

	compiler := abcscore.NewCompiler(abcscore.WithCharset(*charset))
	wg := sizedwaitgroup.New(max(*jobs, 1))
	for _, j := range inputs {
		wg.Add()
		go func(j *job) {
			defer wg.Done()
			start := time.Now()
			j.result, j.err = compiler.CompileBytes(j.data)
			j.took = time.Since(start)
			logDebug("%s: %s in %s", j.name, humanize.Bytes(uint64(len(j.data))), j.took)
		}(j)
	}
	wg.Wait()

	failed := false
	for _, j := range inputs {
		if j.err != nil {
			logError("%s: %v", j.name, j.err)
			failed = true
			continue
		}
		for _, d := range j.result.Diagnostics {
			logDiagnostic(j.name, d)
			if d.Severity == diag.SeverityError && *strict {
				failed = true
			}
		}
		if *asJSON {
			if err := writeJSON(j); err != nil {
				logError("%s: %v", j.name, err)
				failed = true
			}
			continue
		}
		printSummary(compiler, j)
	}
	if failed {
		os.Exit(1)
	}
}

func resolveInputs(paths []string, inline string) ([]*job, error) {
	if strings.TrimSpace(inline) != "" {
		return []*job{{name: "<abc>", data: []byte(inline)}}, nil
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("usage: abc2score [flags] file.abc ...")
	}
	var out []*job
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, err
		}
		out = append(out, &job{name: p, data: data})
	}
	return out, nil
}

func writeJSON(j *job) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(struct {
		File        string            `json:"file"`
		Tunes       any               `json:"tunes"`
		Diagnostics []diag.Diagnostic `json:"diagnostics"`
	}{j.name, j.result.Tunes, j.result.Diagnostics})
}

func printSummary(c *abcscore.Compiler, j *job) {
	fmt.Printf("%s: %s, %d tune(s), %d diagnostic(s)\n", j.name,
		humanize.Bytes(uint64(len(j.data))), len(j.result.Tunes), len(j.result.Diagnostics))
	for _, t := range j.result.Tunes {
		elements := 0
		t.Lanes(func(_, _, _ int, lane score.Lane) { elements += len(lane) })
		tl := c.Timeline(t)
		title := t.Metadata.Title
		if title == "" {
			title = "(untitled)"
		}
		fmt.Printf("  X:%d %s: %d system(s), %d staff(s), %d voice(s), %d measure(s), %s element(s), %s\n",
			t.Metadata.Reference, strings.SplitN(title, "\n", 2)[0], t.LineCount, t.StaffCount, t.VoiceCount,
			t.Measures, humanize.Comma(int64(elements)), durafmt.Parse(tl.Duration()).LimitFirstN(2).Format(shortUnits))
	}
}
