package main

import (
	"fmt"
	"io"
)

// printUsage prints the main usage message.
func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: site2pdf [command] [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  build      Crawl the site and write one PDF (default)")
	fmt.Fprintln(w, "  map        Crawl the site and print the page order")
	fmt.Fprintln(w, "  doctor     Check Chrome and the environment")
	fmt.Fprintln(w, "  version    Show version information")
	fmt.Fprintln(w, "  completion Generate shell completion script")
	fmt.Fprintln(w, "  help       Show help for a command")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Run 'site2pdf help <command>' for details on a specific command.")
}

func printCommonUsage(w io.Writer) {
	fmt.Fprintln(w, "Output Control:")
	fmt.Fprintln(w, "  -c, --config <name>       Config file name or path")
	fmt.Fprintln(w, "  -q, --quiet               Only show errors")
	fmt.Fprintln(w, "  -v, --verbose             Log every page")
	fmt.Fprintln(w, "      --log-json            Write logs as JSON")
}

func printCrawlUsage(w io.Writer) {
	fmt.Fprintln(w, "Crawl:")
	fmt.Fprintln(w, "      --max-pages <n>       Stop admitting pages after n (0 = unlimited)")
	fmt.Fprintln(w, "      --delay <d>           Pause between page fetches")
	fmt.Fprintln(w, "      --user-agent <s>      Crawler User-Agent header")
	fmt.Fprintln(w, "      --robots              Obey robots.txt")
}

// printBuildUsage prints usage for the build command.
func printBuildUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: site2pdf build [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Crawl the configured site, render every page with Chrome and merge")
	fmt.Fprintln(w, "the pages into one PDF. Pages that fail are skipped and reported.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Output:")
	fmt.Fprintln(w, "  -o, --output <path>       Final PDF path")
	fmt.Fprintln(w, "      --work-dir <dir>      Partial PDFs and manifest directory")
	fmt.Fprintln(w, "      --contents            Prepend a contents page")
	fmt.Fprintln(w, "      --no-outline          Do not add PDF bookmarks")
	fmt.Fprintln(w, "      --no-manifest         Do not write manifest.yaml")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Render:")
	fmt.Fprintln(w, "  -w, --workers <n>         Parallel browsers (0 = auto)")
	fmt.Fprintln(w, "  -t, --timeout <d>         Per-page render timeout (e.g., 30s, 2m)")
	fmt.Fprintln(w, "      --retries <n>         Retries for pages that time out")
	fmt.Fprintln(w, "  -p, --page-size <s>       Page size: a4, letter, legal")
	fmt.Fprintln(w, "      --no-sandbox          Disable the Chrome sandbox")
	fmt.Fprintln(w)
	printCrawlUsage(w)
	fmt.Fprintln(w)
	printCommonUsage(w)
}

// printMapUsage prints usage for the map command.
func printMapUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: site2pdf map [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Crawl the configured site and print pages in document order.")
	fmt.Fprintln(w, "Nothing is rendered.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "      --limit <n>           Pages to print (default 40, 0 = all)")
	fmt.Fprintln(w)
	printCrawlUsage(w)
	fmt.Fprintln(w)
	printCommonUsage(w)
}

// runHelp prints help for a specific command.
func runHelp(args []string, env *Environment) int {
	if len(args) == 0 {
		printUsage(env.Stdout)
		return ExitSuccess
	}

	switch args[0] {
	case "build":
		printBuildUsage(env.Stdout)
	case "map":
		printMapUsage(env.Stdout)
	case "doctor":
		fmt.Fprintln(env.Stdout, "Usage: site2pdf doctor [--json]")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Check that Chrome can be found and the work directory is writable.")
	case "version":
		fmt.Fprintln(env.Stdout, "Usage: site2pdf version")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Show version information.")
	case "completion":
		printCompletionUsage(env.Stdout)
	case "help":
		fmt.Fprintln(env.Stdout, "Usage: site2pdf help [command]")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Show help for a command.")
	default:
		fmt.Fprintf(env.Stderr, "unknown command: %s\n", args[0])
		printUsage(env.Stderr)
		return ExitUsage
	}
	return ExitSuccess
}
