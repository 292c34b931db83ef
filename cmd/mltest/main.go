// mltest runs the end-to-end program suite: every .ml file under the test
// directory is compiled and executed twice, once optimized and once not, and
// both runs are checked against the expectations declared in the file's
// header comments:
//
//	// inputs: 3 7
//	// expect: 17 0 1
//	// expect-error: division by zero
//
// Passing results are cached by content hash so unchanged programs are
// skipped on the next run.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/google/go-cmp/cmp"

	"github.com/minilab/mlc/pkg/compile"
	"github.com/minilab/mlc/pkg/config"
	"github.com/minilab/mlc/pkg/vm"
)

type expectation struct {
	inputs    []int64
	outputs   []int64
	errSubstr string
}

func main() {
	var (
		dir       = flag.String("dir", "testdata", "directory containing .ml test programs")
		cachePath = flag.String("cache", ".mltest-cache", "path of the pass-result cache")
		force     = flag.Bool("force", false, "ignore the cache and rerun everything")
		verbose   = flag.Bool("v", false, "print every test, not just failures")
	)
	flag.Parse()

	files, err := filepath.Glob(filepath.Join(*dir, "*.ml"))
	if err != nil || len(files) == 0 {
		fmt.Fprintf(os.Stderr, "mltest: no .ml files under %s\n", *dir)
		os.Exit(2)
	}
	sort.Strings(files)

	cache := loadCache(*cachePath)
	passed, failed, skipped := 0, 0, 0

	for _, file := range files {
		content, err := os.ReadFile(file)
		if err != nil {
			fmt.Fprintf(os.Stderr, "mltest: %v\n", err)
			os.Exit(2)
		}
		hash := fmt.Sprintf("%016x", xxhash.Sum64(content))
		name := filepath.Base(file)

		if !*force && cache[name] == hash {
			skipped++
			if *verbose {
				fmt.Printf("SKIP %s (cached)\n", name)
			}
			continue
		}

		if msg := runOne(name, string(content)); msg != "" {
			failed++
			delete(cache, name)
			fmt.Printf("FAIL %s\n%s", name, indent(msg))
			continue
		}
		passed++
		cache[name] = hash
		if *verbose {
			fmt.Printf("PASS %s\n", name)
		}
	}

	saveCache(*cachePath, cache)
	fmt.Printf("%d passed, %d failed, %d skipped\n", passed, failed, skipped)
	if failed > 0 {
		os.Exit(1)
	}
}

// runOne compiles and executes the program with and without optimization and
// checks both against the declared expectation. Returns "" on success.
func runOne(name, source string) string {
	exp := parseExpectation(source)

	optOut, optErr := execute(name, source, true, exp.inputs)
	plainOut, plainErr := execute(name, source, false, exp.inputs)

	if exp.errSubstr != "" {
		for variant, err := range map[string]error{"optimized": optErr, "unoptimized": plainErr} {
			if err == nil {
				return fmt.Sprintf("%s run: expected error containing %q, got success\n", variant, exp.errSubstr)
			}
			if !strings.Contains(err.Error(), exp.errSubstr) {
				return fmt.Sprintf("%s run: error %q does not contain %q\n", variant, err, exp.errSubstr)
			}
		}
		return ""
	}

	if optErr != nil {
		return fmt.Sprintf("optimized run failed: %v\n", optErr)
	}
	if plainErr != nil {
		return fmt.Sprintf("unoptimized run failed: %v\n", plainErr)
	}
	if diff := cmp.Diff(plainOut, optOut); diff != "" {
		return fmt.Sprintf("optimized and unoptimized outputs disagree (-plain +opt):\n%s", diff)
	}
	if diff := cmp.Diff(exp.outputs, optOut); diff != "" {
		return fmt.Sprintf("output mismatch (-want +got):\n%s", diff)
	}
	return ""
}

func execute(name, source string, optimize bool, inputs []int64) ([]int64, error) {
	cfg := config.NewConfig()
	cfg.SetOptimize(optimize)
	artifacts, err := compile.Compile(name, source, cfg)
	if err != nil {
		return nil, err
	}
	result, err := vm.New(artifacts.Machine, vm.WithInputs(inputs)).Run()
	if err != nil {
		return nil, err
	}
	if result.Outputs == nil {
		return []int64{}, nil
	}
	return result.Outputs, nil
}

func parseExpectation(source string) expectation {
	exp := expectation{outputs: []int64{}}
	for _, line := range strings.Split(source, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(line, "// inputs:"):
			exp.inputs = parseInts(strings.TrimPrefix(line, "// inputs:"))
		case strings.HasPrefix(line, "// expect:"):
			exp.outputs = append(exp.outputs, parseInts(strings.TrimPrefix(line, "// expect:"))...)
		case strings.HasPrefix(line, "// expect-error:"):
			exp.errSubstr = strings.TrimSpace(strings.TrimPrefix(line, "// expect-error:"))
		}
	}
	return exp
}

func parseInts(s string) []int64 {
	var out []int64
	for _, field := range strings.Fields(s) {
		if v, err := strconv.ParseInt(field, 10, 64); err == nil {
			out = append(out, v)
		}
	}
	if out == nil {
		return []int64{}
	}
	return out
}

func loadCache(path string) map[string]string {
	cache := make(map[string]string)
	f, err := os.Open(path)
	if err != nil {
		return cache
	}
	defer f.Close()
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		parts := strings.Fields(scanner.Text())
		if len(parts) == 2 {
			cache[parts[1]] = parts[0]
		}
	}
	return cache
}

func saveCache(path string, cache map[string]string) {
	names := make([]string, 0, len(cache))
	for name := range cache {
		names = append(names, name)
	}
	sort.Strings(names)
	var sb strings.Builder
	for _, name := range names {
		fmt.Fprintf(&sb, "%s %s\n", cache[name], name)
	}
	os.WriteFile(path, []byte(sb.String()), 0o644)
}

func indent(s string) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	for i, line := range lines {
		lines[i] = "    " + line
	}
	return strings.Join(lines, "\n") + "\n"
}
