// Package cli is a small flag and application framework: long/short flags,
// repeatable list flags, grouped -F/-W style toggles, and help output wrapped
// to the terminal width.
package cli

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/term"
)

type Value interface {
	String() string
	Set(string) error
	Get() any
}

type stringValue struct{ p *string }

func (v *stringValue) Set(s string) error { *v.p = s; return nil }
func (v *stringValue) String() string     { return *v.p }
func (v *stringValue) Get() any           { return *v.p }

type boolValue struct{ p *bool }

func (v *boolValue) Set(s string) error {
	val, err := strconv.ParseBool(s)
	if err != nil && s != "" {
		return fmt.Errorf("invalid boolean value '%s': %w", s, err)
	}
	*v.p = val || s == ""
	return nil
}
func (v *boolValue) String() string { return strconv.FormatBool(*v.p) }
func (v *boolValue) Get() any       { return *v.p }

type listValue struct{ p *[]string }

func (v *listValue) Set(s string) error { *v.p = append(*v.p, s); return nil }
func (v *listValue) String() string     { return strings.Join(*v.p, ", ") }
func (v *listValue) Get() any           { return *v.p }

type intListValue struct{ p *[]int64 }

func (v *intListValue) Set(s string) error {
	for _, field := range strings.Fields(s) {
		n, err := strconv.ParseInt(field, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid integer value '%s'", field)
		}
		*v.p = append(*v.p, n)
	}
	return nil
}
func (v *intListValue) String() string {
	parts := make([]string, len(*v.p))
	for i, n := range *v.p {
		parts[i] = strconv.FormatInt(n, 10)
	}
	return strings.Join(parts, " ")
}
func (v *intListValue) Get() any { return *v.p }

type Flag struct {
	Name         string
	Shorthand    string
	Usage        string
	Value        Value
	DefValue     string
	ExpectedType string
}

type FlagGroup struct {
	Name        string
	Description string
	Flags       []FlagGroupEntry
	GroupType   string
}

type FlagGroupEntry struct {
	Name     string
	Prefix   string
	Usage    string
	Enabled  *bool
	Disabled *bool
}

type FlagSet struct {
	name       string
	flags      map[string]*Flag
	shorthands map[string]*Flag
	args       []string
	flagGroups []FlagGroup
}

func NewFlagSet(name string) *FlagSet {
	return &FlagSet{
		name:       name,
		flags:      make(map[string]*Flag),
		shorthands: make(map[string]*Flag),
	}
}

func (f *FlagSet) Args() []string { return f.args }

func (f *FlagSet) String(p *string, name, shorthand, value, usage, expectedType string) {
	*p = value
	f.Var(&stringValue{p}, name, shorthand, usage, value, expectedType)
}

func (f *FlagSet) Bool(p *bool, name, shorthand string, value bool, usage string) {
	*p = value
	f.Var(&boolValue{p}, name, shorthand, usage, strconv.FormatBool(value), "")
}

func (f *FlagSet) List(p *[]string, name, shorthand string, usage, expectedType string) {
	*p = []string{}
	f.Var(&listValue{p}, name, shorthand, usage, "[]", expectedType)
}

// Ints registers a repeatable integer list flag. A single occurrence may
// carry several whitespace-separated values ("--inputs '3 7'") and the flag
// may be repeated ("--inputs 3 --inputs 7").
func (f *FlagSet) Ints(p *[]int64, name, shorthand string, usage, expectedType string) {
	*p = []int64{}
	f.Var(&intListValue{p}, name, shorthand, usage, "[]", expectedType)
}

func (f *FlagSet) DefineGroupFlags(entries []FlagGroupEntry) {
	for i := range entries {
		if entries[i].Enabled != nil {
			f.Bool(entries[i].Enabled, entries[i].Prefix+entries[i].Name, "", *entries[i].Enabled, entries[i].Usage)
		}
		if entries[i].Disabled != nil {
			disableUsage := "Disable '" + entries[i].Name + "'"
			f.Bool(entries[i].Disabled, entries[i].Prefix+"no-"+entries[i].Name, "", *entries[i].Disabled, disableUsage)
		}
	}
}

func (f *FlagSet) AddFlagGroup(name, description, groupType string, entries []FlagGroupEntry) {
	f.DefineGroupFlags(entries)
	f.flagGroups = append(f.flagGroups, FlagGroup{
		Name:        name,
		Description: description,
		Flags:       entries,
		GroupType:   groupType,
	})
}

func (f *FlagSet) Var(value Value, name, shorthand, usage, defValue, expectedType string) {
	if name == "" {
		panic("flag name cannot be empty")
	}
	flag := &Flag{Name: name, Shorthand: shorthand, Usage: usage, Value: value, DefValue: defValue, ExpectedType: expectedType}
	if _, ok := f.flags[name]; ok {
		panic(fmt.Sprintf("flag redefined: %s", name))
	}
	f.flags[name] = flag
	if shorthand != "" {
		if _, ok := f.shorthands[shorthand]; ok {
			panic(fmt.Sprintf("shorthand flag redefined: %s", shorthand))
		}
		f.shorthands[shorthand] = flag
	}
}

func (f *FlagSet) Lookup(name string) *Flag { return f.flags[name] }

func (f *FlagSet) Parse(arguments []string) error {
	f.args = []string{}
	for i := 0; i < len(arguments); i++ {
		arg := arguments[i]
		if len(arg) < 2 || arg[0] != '-' {
			f.args = append(f.args, arg)
			continue
		}
		if arg == "--" {
			f.args = append(f.args, arguments[i+1:]...)
			break
		}
		var name string
		if strings.HasPrefix(arg, "--") {
			name = arg[2:]
		} else {
			name = arg[1:]
		}
		if eq := strings.IndexByte(name, '='); eq >= 0 {
			flag, ok := f.resolve(name[:eq])
			if !ok {
				return fmt.Errorf("unknown flag: %s", arg)
			}
			if err := flag.Value.Set(name[eq+1:]); err != nil {
				return err
			}
			continue
		}
		flag, ok := f.resolve(name)
		if !ok {
			return fmt.Errorf("unknown flag: %s", arg)
		}
		if _, isBool := flag.Value.(*boolValue); isBool {
			if err := flag.Value.Set(""); err != nil {
				return err
			}
			continue
		}
		// Non-boolean flags consume the following argument. An integer list
		// keeps consuming as long as the next argument parses as an integer,
		// so "--inputs 3 7 prog.ml" stops before the file name.
		if i+1 >= len(arguments) {
			return fmt.Errorf("flag needs an argument: %s", arg)
		}
		i++
		if err := flag.Value.Set(arguments[i]); err != nil {
			return err
		}
		if _, isInts := flag.Value.(*intListValue); isInts {
			for i+1 < len(arguments) && looksLikeInt(arguments[i+1]) {
				i++
				if err := flag.Value.Set(arguments[i]); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func looksLikeInt(s string) bool {
	_, err := strconv.ParseInt(s, 10, 64)
	return err == nil
}

func (f *FlagSet) resolve(name string) (*Flag, bool) {
	if flag, ok := f.flags[name]; ok {
		return flag, true
	}
	if flag, ok := f.shorthands[name]; ok {
		return flag, true
	}
	return nil, false
}

type App struct {
	Name        string
	Synopsis    string
	Description string
	FlagSet     *FlagSet
	Action      func(args []string) error
}

func NewApp(name string) *App {
	return &App{Name: name, FlagSet: NewFlagSet(name)}
}

func (a *App) Run(arguments []string) error {
	help := false
	a.FlagSet.Bool(&help, "help", "h", false, "Display this information")

	if err := a.FlagSet.Parse(arguments); err != nil {
		fmt.Fprintln(os.Stderr, err)
		a.PrintHelp(os.Stderr)
		return err
	}
	if help {
		a.PrintHelp(os.Stdout)
		return nil
	}
	if a.Action != nil {
		return a.Action(a.FlagSet.Args())
	}
	return nil
}

func (a *App) PrintHelp(w *os.File) {
	var sb strings.Builder
	termWidth := terminalWidth()

	fmt.Fprintf(&sb, "Usage: %s %s\n", a.Name, a.Synopsis)
	if a.Description != "" {
		sb.WriteString("\n")
		for _, line := range wrapText(a.Description, termWidth-4) {
			fmt.Fprintf(&sb, "    %s\n", line)
		}
	}

	var optionFlags []*Flag
	for _, flag := range a.FlagSet.flags {
		if a.isGroupFlag(flag.Name) {
			continue
		}
		optionFlags = append(optionFlags, flag)
	}
	sort.Slice(optionFlags, func(i, j int) bool { return optionFlags[i].Name < optionFlags[j].Name })

	maxWidth := 0
	for _, flag := range optionFlags {
		if w := len(formatFlagString(flag)); w > maxWidth {
			maxWidth = w
		}
	}
	for _, group := range a.FlagSet.flagGroups {
		for _, entry := range group.Flags {
			if w := len("-" + entry.Prefix + "no-" + entry.Name); w > maxWidth {
				maxWidth = w
			}
		}
	}

	if len(optionFlags) > 0 {
		sb.WriteString("\nOptions\n")
		for _, flag := range optionFlags {
			writeEntry(&sb, formatFlagString(flag), flag.Usage, maxWidth, termWidth)
		}
	}

	for _, group := range a.FlagSet.flagGroups {
		fmt.Fprintf(&sb, "\n%s\n", group.Name)
		for _, line := range wrapText(group.Description, termWidth-4) {
			fmt.Fprintf(&sb, "    %s\n", line)
		}
		for _, entry := range group.Flags {
			writeEntry(&sb, "-"+entry.Prefix+"[no-]"+entry.Name, entry.Usage, maxWidth, termWidth)
		}
	}
	fmt.Fprint(w, sb.String())
}

func (a *App) isGroupFlag(flagName string) bool {
	for _, group := range a.FlagSet.flagGroups {
		for _, entry := range group.Flags {
			if flagName == entry.Prefix+entry.Name || flagName == entry.Prefix+"no-"+entry.Name {
				return true
			}
		}
	}
	return false
}

func formatFlagString(flag *Flag) string {
	var sb strings.Builder
	_, isBool := flag.Value.(*boolValue)
	if flag.Shorthand != "" {
		fmt.Fprintf(&sb, "-%s, ", flag.Shorthand)
	}
	fmt.Fprintf(&sb, "--%s", flag.Name)
	if !isBool && flag.ExpectedType != "" {
		fmt.Fprintf(&sb, " <%s>", flag.ExpectedType)
	}
	return sb.String()
}

func writeEntry(sb *strings.Builder, left, usage string, leftWidth, termWidth int) {
	usageWidth := termWidth - leftWidth - 7
	if usageWidth < 10 {
		usageWidth = 10
	}
	lines := wrapText(usage, usageWidth)
	if len(lines) == 0 {
		lines = []string{""}
	}
	fmt.Fprintf(sb, "    %-*s %s\n", leftWidth, left, lines[0])
	for _, line := range lines[1:] {
		fmt.Fprintf(sb, "    %-*s %s\n", leftWidth, "", line)
	}
}

func terminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width < 20 {
		return 80
	}
	return width
}

func wrapText(text string, maxWidth int) []string {
	if maxWidth <= 0 {
		return []string{text}
	}
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	var lines []string
	var current strings.Builder
	currentLen := 0

	for _, word := range words {
		if currentLen+len(word)+1 > maxWidth && currentLen > 0 {
			lines = append(lines, current.String())
			current.Reset()
			currentLen = 0
		}
		if currentLen > 0 {
			current.WriteString(" ")
			currentLen++
		}
		current.WriteString(word)
		currentLen += len(word)
	}
	if current.Len() > 0 {
		lines = append(lines, current.String())
	}
	return lines
}
