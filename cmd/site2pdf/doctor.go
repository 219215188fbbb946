package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/go-rod/rod/lib/launcher"
	flag "github.com/spf13/pflag"

	"github.com/alnah/go-site2pdf/internal/hints"
)

// doctorResult holds all diagnostic information.
type doctorResult struct {
	Status   string     `json:"status"` // "ready", "warnings", "errors"
	Chrome   chromeInfo `json:"chrome"`
	Env      envInfo    `json:"environment"`
	System   systemInfo `json:"system"`
	Warnings []string   `json:"warnings,omitempty"`
	Errors   []string   `json:"errors,omitempty"`
}

// chromeInfo holds Chrome/Chromium detection results.
type chromeInfo struct {
	Found   bool   `json:"found"`
	Path    string `json:"path,omitempty"`
	Version string `json:"version,omitempty"`
	Sandbox bool   `json:"sandbox"`
}

// envInfo holds environment detection results.
type envInfo struct {
	OS            string `json:"os"`
	Arch          string `json:"arch"`
	Container     bool   `json:"container"`
	ContainerHint string `json:"container_hint,omitempty"`
	CI            bool   `json:"ci"`
	NoSandbox     string `json:"rod_no_sandbox"`
	BrowserBin    string `json:"rod_browser_bin"`
}

// systemInfo holds system check results.
type systemInfo struct {
	WorkDir         string `json:"work_dir"`
	WorkDirWritable bool   `json:"work_dir_writable"`
}

// doctorInput carries the configured values doctor checks against.
type doctorInput struct {
	browserBin string
	noSandbox  bool
	workDir    string
}

// runDoctorCmd executes the doctor command and returns an exit code.
// Exit codes: 0 = OK (including warnings), 1 = errors found.
func runDoctorCmd(args []string, env *Environment) int {
	fs := flag.NewFlagSet("doctor", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	var common commonFlags
	jsonOutput := fs.Bool("json", false, "print the result as JSON")
	fs.StringVarP(&common.config, "config", "c", "", "config file name or path")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return runHelp([]string{"doctor"}, env)
		}
		printError(env.Stderr, fmt.Errorf("%w: %v", ErrUsage, err))
		return ExitUsage
	}

	cfg, err := resolveConfig(common, env)
	if err != nil {
		printError(env.Stderr, err)
		return exitCodeFor(err)
	}

	result := runDoctor(doctorInput{
		browserBin: cfg.Render.BrowserBin,
		noSandbox:  cfg.Render.NoSandbox,
		workDir:    cfg.Output.WorkDir,
	})

	if *jsonOutput {
		enc := json.NewEncoder(env.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(result)
	} else {
		printDoctorResult(env.Stdout, result)
	}

	if result.Status == "errors" {
		return ExitGeneral
	}
	return ExitSuccess
}

// runDoctor performs all diagnostic checks.
func runDoctor(in doctorInput) *doctorResult {
	result := &doctorResult{
		Status: "ready",
		Env: envInfo{
			OS:         runtime.GOOS,
			Arch:       runtime.GOARCH,
			NoSandbox:  os.Getenv("ROD_NO_SANDBOX"),
			BrowserBin: os.Getenv("ROD_BROWSER_BIN"),
		},
	}

	checkChrome(result, in)
	checkEnvironment(result, in)
	checkWorkDir(result, in.workDir)

	if len(result.Errors) > 0 {
		result.Status = "errors"
	} else if len(result.Warnings) > 0 {
		result.Status = "warnings"
	}

	return result
}

// checkChrome detects Chrome/Chromium installation. A configured binary
// wins over ROD_BROWSER_BIN, which wins over rod's lookup.
func checkChrome(result *doctorResult, in doctorInput) {
	chromePath := in.browserBin
	if chromePath == "" {
		chromePath = result.Env.BrowserBin
	}

	if chromePath == "" {
		var found bool
		chromePath, found = launcher.LookPath()
		if !found {
			result.Errors = append(result.Errors,
				"Chrome/Chromium not found. Install Chrome or set ROD_BROWSER_BIN")
			return
		}
	}

	if _, err := os.Stat(chromePath); err != nil {
		result.Errors = append(result.Errors,
			fmt.Sprintf("Chrome not found at %s", chromePath))
		return
	}

	result.Chrome.Found = true
	result.Chrome.Path = chromePath

	// #nosec G204 -- the binary is the user's own configured browser
	out, err := exec.Command(chromePath, "--version").Output()
	if err == nil {
		result.Chrome.Version = strings.TrimSpace(string(out))
	} else {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("Could not get Chrome version: %v", err))
	}

	result.Chrome.Sandbox = result.Env.NoSandbox != "1" && !in.noSandbox
}

// checkEnvironment detects container and CI environments.
func checkEnvironment(result *doctorResult, in doctorInput) {
	result.Env.Container, result.Env.ContainerHint = isContainer()
	result.Env.CI = hints.InCI()

	if (result.Env.Container || result.Env.CI) && result.Env.NoSandbox != "1" && !in.noSandbox {
		result.Warnings = append(result.Warnings,
			"Container/CI detected but the sandbox is on. Set ROD_NO_SANDBOX=1 or render.noSandbox")
	}
}

// isContainer detects if running in a container environment.
// Returns (isContainer, hint) where hint indicates which signal was detected.
func isContainer() (bool, string) {
	if os.Getenv("SITE2PDF_CONTAINER") == "1" {
		return true, "SITE2PDF_CONTAINER=1"
	}
	if hints.IsInContainer() {
		return true, "/.dockerenv"
	}
	if v := os.Getenv("container"); v != "" {
		return true, "container=" + v
	}
	if os.Getenv("KUBERNETES_SERVICE_HOST") != "" {
		return true, "KUBERNETES_SERVICE_HOST"
	}
	return false, ""
}

// checkWorkDir verifies that partial PDFs can be written. A missing work dir
// is checked through its closest existing parent, without creating it.
func checkWorkDir(result *doctorResult, dir string) {
	result.System.WorkDir = dir

	probe := dir
	for {
		info, err := os.Stat(probe)
		if err == nil {
			if !info.IsDir() {
				result.Errors = append(result.Errors, fmt.Sprintf("Work directory %s is not a directory", probe))
				return
			}
			break
		}
		parent := filepath.Dir(probe)
		if parent == probe {
			break
		}
		probe = parent
	}

	f, err := os.CreateTemp(probe, ".site2pdf-doctor-*")
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Work directory not writable: %s", probe))
		return
	}
	name := f.Name()
	_ = f.Close()
	_ = os.Remove(name)
	result.System.WorkDirWritable = true
}

// printDoctorResult outputs human-readable diagnostic results.
func printDoctorResult(w io.Writer, r *doctorResult) {
	ok := colorSuccess("[OK]")
	bad := colorError("[ERROR]")

	fmt.Fprintln(w, colorBold("site2pdf doctor"))
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Chrome/Chromium")
	if r.Chrome.Found {
		fmt.Fprintf(w, "  %s Found at %s\n", ok, r.Chrome.Path)
		if r.Chrome.Version != "" {
			fmt.Fprintf(w, "  %s Version: %s\n", ok, r.Chrome.Version)
		}
		if r.Chrome.Sandbox {
			fmt.Fprintf(w, "  %s Sandbox: enabled\n", ok)
		} else {
			fmt.Fprintf(w, "  %s Sandbox: disabled\n", ok)
		}
	} else {
		fmt.Fprintf(w, "  %s Not found\n", bad)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Environment")
	fmt.Fprintf(w, "  %s Platform: %s/%s\n", ok, r.Env.OS, r.Env.Arch)
	if r.Env.Container {
		fmt.Fprintf(w, "  %s Container: detected (%s)\n", ok, r.Env.ContainerHint)
	}
	if r.Env.CI {
		fmt.Fprintf(w, "  %s CI: detected\n", ok)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "System")
	if r.System.WorkDirWritable {
		fmt.Fprintf(w, "  %s Work directory: %s writable\n", ok, r.System.WorkDir)
	} else {
		fmt.Fprintf(w, "  %s Work directory: %s not writable\n", bad, r.System.WorkDir)
	}
	fmt.Fprintln(w)

	if len(r.Warnings) > 0 {
		fmt.Fprintln(w, "Warnings:")
		for _, warn := range r.Warnings {
			fmt.Fprintf(w, "  %s %s\n", colorWarn("[WARN]"), warn)
		}
		fmt.Fprintln(w)
	}

	if len(r.Errors) > 0 {
		fmt.Fprintln(w, "Errors:")
		for _, err := range r.Errors {
			fmt.Fprintf(w, "  %s %s\n", bad, err)
		}
		fmt.Fprintln(w)
	}

	switch r.Status {
	case "ready":
		fmt.Fprintln(w, "Status: Ready to build")
	case "warnings":
		fmt.Fprintln(w, "Status: Ready with warnings")
	case "errors":
		fmt.Fprintln(w, "Status: Not ready (see errors above)")
	}
}
