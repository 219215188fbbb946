package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	flag "github.com/spf13/pflag"
)

// Shell is a shell completion scripts can be generated for.
type Shell string

// Supported shells.
const (
	ShellBash Shell = "bash"
	ShellZsh  Shell = "zsh"
	ShellFish Shell = "fish"
)

// ErrUnsupportedShell is returned when an unknown shell is requested.
var ErrUnsupportedShell = errors.New("unsupported shell")

// flagDef describes a flag for completion purposes.
type flagDef struct {
	Long   string
	Short  string
	Desc   string
	Bool   bool
	Values []string // enum values
	Glob   string   // file pattern
	Dir    bool
}

// commandDef describes a command for completion.
type commandDef struct {
	Name  string
	Desc  string
	Flags []flagDef
}

// completionMeta holds hints pflag cannot express.
type completionMeta struct {
	Values []string
	Glob   string
	Dir    bool
}

var flagCompletionMeta = map[string]completionMeta{
	"page-size": {Values: []string{"a4", "letter", "legal"}},
	"config":    {Glob: "*.yaml"},
	"output":    {Glob: "*.pdf"},
	"work-dir":  {Dir: true},
}

// extractFlags reads flag definitions from fs, enriched with
// flagCompletionMeta.
func extractFlags(fs *flag.FlagSet) []flagDef {
	var flags []flagDef
	fs.VisitAll(func(f *flag.Flag) {
		fd := flagDef{
			Long:  f.Name,
			Short: f.Shorthand,
			Desc:  f.Usage,
			Bool:  f.Value.Type() == "bool",
		}
		if meta, ok := flagCompletionMeta[f.Name]; ok {
			fd.Values, fd.Glob, fd.Dir = meta.Values, meta.Glob, meta.Dir
		}
		flags = append(flags, fd)
	})
	return flags
}

// getCommands returns the command registry. Flags come from the same flag
// sets the commands parse with.
func getCommands() []commandDef {
	return []commandDef{
		{Name: "build", Desc: "Crawl the site and write one PDF", Flags: extractFlags(newBuildFlagSet(&buildFlags{}))},
		{Name: "map", Desc: "Crawl the site and print the page order", Flags: extractFlags(newMapFlagSet(&mapFlags{}))},
		{Name: "doctor", Desc: "Check Chrome and the environment", Flags: []flagDef{
			{Long: "json", Desc: "print results as JSON", Bool: true},
			{Long: "config", Short: "c", Desc: "config file name or path", Glob: "*.yaml"},
		}},
		{Name: "version", Desc: "Show version information"},
		{Name: "help", Desc: "Show help for a command"},
		{Name: "completion", Desc: "Generate shell completion script"},
	}
}

// GenerateCompletion writes the completion script for shell to w.
func GenerateCompletion(w io.Writer, shell Shell) error {
	cmds := getCommands()
	switch shell {
	case ShellBash:
		return generateBash(w, cmds)
	case ShellZsh:
		return generateZsh(w, cmds)
	case ShellFish:
		return generateFish(w, cmds)
	default:
		return fmt.Errorf("%w: %q (supported: bash, zsh, fish)", ErrUnsupportedShell, shell)
	}
}

func commandNames(cmds []commandDef) string {
	names := make([]string, len(cmds))
	for i, c := range cmds {
		names[i] = c.Name
	}
	return strings.Join(names, " ")
}

func generateBash(w io.Writer, cmds []commandDef) error {
	var b strings.Builder
	b.WriteString("# bash completion for site2pdf\n")
	b.WriteString("_site2pdf() {\n")
	b.WriteString("    local cur prev cmd\n")
	b.WriteString("    cur=\"${COMP_WORDS[COMP_CWORD]}\"\n")
	b.WriteString("    prev=\"${COMP_WORDS[COMP_CWORD-1]}\"\n")
	b.WriteString("    cmd=\"${COMP_WORDS[1]}\"\n\n")
	fmt.Fprintf(&b, "    if [[ $COMP_CWORD -eq 1 && \"$cur\" != -* ]]; then\n        COMPREPLY=($(compgen -W \"%s\" -- \"$cur\"))\n        return\n    fi\n\n", commandNames(cmds))

	// Value completion for the previous flag.
	b.WriteString("    case \"$prev\" in\n")
	seen := map[string]bool{}
	for _, c := range cmds {
		for _, f := range c.Flags {
			if seen[f.Long] || f.Bool {
				continue
			}
			seen[f.Long] = true
			pattern := "--" + f.Long
			if f.Short != "" {
				pattern += "|-" + f.Short
			}
			switch {
			case len(f.Values) > 0:
				fmt.Fprintf(&b, "        %s) COMPREPLY=($(compgen -W \"%s\" -- \"$cur\")); return ;;\n", pattern, strings.Join(f.Values, " "))
			case f.Dir:
				fmt.Fprintf(&b, "        %s) COMPREPLY=($(compgen -d -- \"$cur\")); return ;;\n", pattern)
			case f.Glob != "":
				fmt.Fprintf(&b, "        %s) COMPREPLY=($(compgen -f -X '!%s' -- \"$cur\") $(compgen -d -- \"$cur\")); return ;;\n", pattern, f.Glob)
			default:
				fmt.Fprintf(&b, "        %s) return ;;\n", pattern)
			}
		}
	}
	b.WriteString("    esac\n\n")

	b.WriteString("    case \"$cmd\" in\n")
	for _, c := range cmds {
		if len(c.Flags) == 0 {
			continue
		}
		fmt.Fprintf(&b, "        %s) COMPREPLY=($(compgen -W \"%s\" -- \"$cur\")) ;;\n", c.Name, flagWords(c.Flags))
	}
	// Bare flags run build.
	fmt.Fprintf(&b, "        -*) COMPREPLY=($(compgen -W \"%s\" -- \"$cur\")) ;;\n", flagWords(cmds[0].Flags))
	b.WriteString("        completion|help) COMPREPLY=($(compgen -W \"bash zsh fish " + commandNames(cmds) + "\" -- \"$cur\")) ;;\n")
	b.WriteString("    esac\n")
	b.WriteString("}\n")
	b.WriteString("complete -F _site2pdf site2pdf\n")

	_, err := io.WriteString(w, b.String())
	return err
}

func flagWords(flags []flagDef) string {
	words := make([]string, 0, 2*len(flags))
	for _, f := range flags {
		words = append(words, "--"+f.Long)
		if f.Short != "" {
			words = append(words, "-"+f.Short)
		}
	}
	return strings.Join(words, " ")
}

func generateZsh(w io.Writer, cmds []commandDef) error {
	var b strings.Builder
	b.WriteString("#compdef site2pdf\n\n")
	b.WriteString("_site2pdf() {\n")
	b.WriteString("    local -a commands\n")
	b.WriteString("    commands=(\n")
	for _, c := range cmds {
		fmt.Fprintf(&b, "        '%s:%s'\n", c.Name, zshEscape(c.Desc))
	}
	b.WriteString("    )\n\n")
	b.WriteString("    if (( CURRENT == 2 )); then\n")
	b.WriteString("        _describe 'command' commands\n")
	b.WriteString("        return\n")
	b.WriteString("    fi\n\n")
	b.WriteString("    case \"${words[2]}\" in\n")
	for _, c := range cmds {
		if len(c.Flags) == 0 {
			continue
		}
		fmt.Fprintf(&b, "        %s)\n            _arguments \\\n", c.Name)
		for i, f := range c.Flags {
			sep := " \\"
			if i == len(c.Flags)-1 {
				sep = ""
			}
			fmt.Fprintf(&b, "                %s%s\n", zshSpec(f), sep)
		}
		b.WriteString("            ;;\n")
	}
	b.WriteString("    esac\n")
	b.WriteString("}\n\n")
	b.WriteString("_site2pdf \"$@\"\n")

	_, err := io.WriteString(w, b.String())
	return err
}

func zshSpec(f flagDef) string {
	action := ""
	if !f.Bool {
		switch {
		case len(f.Values) > 0:
			action = fmt.Sprintf(":%s:(%s)", f.Long, strings.Join(f.Values, " "))
		case f.Dir:
			action = ":directory:_directories"
		case f.Glob != "":
			action = fmt.Sprintf(":file:_files -g \"%s\"", f.Glob)
		default:
			action = ":" + f.Long + ":"
		}
	}
	desc := "[" + zshEscape(f.Desc) + "]"
	if f.Short != "" {
		return fmt.Sprintf("'(-%s --%s)'{-%s,--%s}'%s%s'", f.Short, f.Long, f.Short, f.Long, desc, action)
	}
	return fmt.Sprintf("'--%s%s%s'", f.Long, desc, action)
}

// zshEscape makes s safe inside single quotes and _arguments brackets.
func zshEscape(s string) string {
	r := strings.NewReplacer("'", "'\\''", "[", "\\[", "]", "\\]", ":", "\\:")
	return r.Replace(s)
}

func generateFish(w io.Writer, cmds []commandDef) error {
	var b strings.Builder
	b.WriteString("# fish completion for site2pdf\n")
	b.WriteString("complete -c site2pdf -f\n")
	names := commandNames(cmds)
	for _, c := range cmds {
		fmt.Fprintf(&b, "complete -c site2pdf -n 'not __fish_seen_subcommand_from %s' -a %s -d '%s'\n", names, c.Name, fishEscape(c.Desc))
	}
	for _, c := range cmds {
		for _, f := range c.Flags {
			line := fmt.Sprintf("complete -c site2pdf -n '__fish_seen_subcommand_from %s' -l %s", c.Name, f.Long)
			if f.Short != "" {
				line += " -s " + f.Short
			}
			switch {
			case f.Bool:
			case len(f.Values) > 0:
				line += fmt.Sprintf(" -x -a '%s'", strings.Join(f.Values, " "))
			case f.Dir:
				line += " -x -a '(__fish_complete_directories)'"
			case f.Glob != "":
				line += " -r -F"
			default:
				line += " -x"
			}
			fmt.Fprintf(&b, "%s -d '%s'\n", line, fishEscape(f.Desc))
		}
	}
	fmt.Fprintf(&b, "complete -c site2pdf -n '__fish_seen_subcommand_from completion' -a 'bash zsh fish'\n")

	_, err := io.WriteString(w, b.String())
	return err
}

func fishEscape(s string) string {
	return strings.ReplaceAll(s, "'", "\\'")
}

// runCompletion handles the completion command.
func runCompletion(args []string, env *Environment) error {
	if len(args) == 0 {
		printCompletionUsage(env.Stdout)
		return nil
	}
	if err := GenerateCompletion(env.Stdout, Shell(args[0])); err != nil {
		return fmt.Errorf("%w: %v", ErrUsage, err)
	}
	return nil
}

// printCompletionUsage prints help for the completion command.
func printCompletionUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: site2pdf completion <shell>")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Generate a shell completion script (bash, zsh or fish).")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Installation:")
	fmt.Fprintln(w, "  Bash:  eval \"$(site2pdf completion bash)\"          # in ~/.bashrc")
	fmt.Fprintln(w, "  Zsh:   eval \"$(site2pdf completion zsh)\"           # in ~/.zshrc, before compinit")
	fmt.Fprintln(w, "  Fish:  site2pdf completion fish > ~/.config/fish/completions/site2pdf.fish")
}
