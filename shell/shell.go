// Package shell is the readline-based interactive shell, adapted from
// the teacher's shell.go REPL (smartSplit/shellCompleter/commandList
// dispatch table) onto the engine's single-mount cd/ls/get/put/info/
// mount command set instead of the teacher's disk-dupe-report verbs.
package shell

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/chzyer/readline"
	"github.com/google/uuid"

	"github.com/eightbit-archive/diskimg"
	"github.com/eightbit-archive/diskimg/fs"
	"github.com/eightbit-archive/diskimg/internal/loggy"
)

// Shell holds the one mounted image a REPL session works against; unlike
// the teacher's MAXVOL slot array this engine exposes a single active
// mount, matching spec.md §6's single-volume CLI surface.
type Shell struct {
	di     *diskimg.DiskImage
	driver fs.FilesystemDriver
	path   string // image path, for the prompt and re-save messages
}

type command struct {
	name        string
	description string
	minArgs     int
	maxArgs     int
	run         func(s *Shell, args []string) int
	needsMount  bool
	help        []string
}

var commandList map[string]*command

func init() {
	commandList = map[string]*command{
		"mount": {name: "mount", description: "Mount a disk image", minArgs: 1, maxArgs: 1,
			run: cmdMount, help: []string{"mount <diskfile>", "", "Opens a disk image and makes it the active mount."}},
		"info": {name: "info", description: "Show information about the mounted disk", minArgs: 0, maxArgs: 0,
			run: cmdInfo, needsMount: true, help: []string{"info", "", "Display geometry and filesystem for the mounted image."}},
		"ls": {name: "ls", description: "List catalog entries on the mounted disk", minArgs: 0, maxArgs: 1,
			run: cmdLs, needsMount: true, help: []string{"ls [pattern]", "", "List files on the mounted disk."}},
		"cd": {name: "cd", description: "Change local working directory", minArgs: 0, maxArgs: 1,
			run: cmdCd, help: []string{"cd [path]", "", "Change the local directory used by get/put."}},
		"get": {name: "get", description: "Extract a file from the mounted disk", minArgs: 1, maxArgs: 2,
			run: cmdGet, needsMount: true, help: []string{"get <pattern> [localdir]", "", "Extract matching files to the local directory."}},
		"put": {name: "put", description: "Write a local file to the mounted disk", minArgs: 1, maxArgs: 1,
			run: cmdPut, needsMount: true, help: []string{"put <localfile>", "", "Write a local file onto the mounted disk."}},
		"help": {name: "help", description: "Show this help", minArgs: 0, maxArgs: 1, run: cmdHelp},
		"quit": {name: "quit", description: "Leave the shell", minArgs: 0, maxArgs: 0, run: cmdQuit},
	}
}

func smartSplit(line string) (string, []string) {
	var out []string
	var inqq, lastEscape bool
	var chunk string

	add := func() {
		if chunk != "" {
			out = append(out, chunk)
			chunk = ""
		}
	}

	for _, ch := range line {
		switch {
		case ch == '"':
			inqq = !inqq
			add()
		case ch == ' ':
			if inqq || lastEscape {
				chunk += string(ch)
			} else {
				add()
			}
			lastEscape = false
		case ch == '\\' && !inqq:
			lastEscape = true
		default:
			chunk += string(ch)
		}
	}
	add()

	if len(out) == 0 {
		return "", out
	}
	return out[0], out[1:]
}

func (s *Shell) prompt() string {
	if s.di == nil {
		return "diskimg:<no mount>> "
	}
	return fmt.Sprintf("diskimg:%s> ", filepath.Base(s.path))
}

// Run starts the REPL. historyPath is where readline persists command
// history; initialPath, if non-empty, is mounted before the first
// prompt.
func Run(historyPath, initialPath string) error {
	s := &Shell{}
	if initialPath != "" {
		if r := cmdMount(s, []string{initialPath}); r != 0 {
			return diskimg.New(diskimg.ErrInvalidArg, "failed to mount %s", initialPath)
		}
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:                 s.prompt(),
		HistoryFile:            historyPath,
		DisableAutoSaveHistory: false,
	})
	if err != nil {
		return diskimg.Wrap(diskimg.ErrGeneric, err, "readline init")
	}
	defer rl.Close()

	for {
		line, err := rl.Readline()
		if err != nil {
			break
		}
		r := s.process(line)
		if r == 999 {
			break
		}
		rl.SetPrompt(s.prompt())
	}

	if s.di != nil {
		return s.di.Close()
	}
	return nil
}

func (s *Shell) process(line string) int {
	line = strings.TrimSpace(line)
	verb, args := smartSplit(line)
	if verb == "" {
		return 0
	}
	verb = strings.ToLower(verb)
	cmd, ok := commandList[verb]
	if !ok {
		fmt.Fprintf(os.Stderr, "unrecognized command: %s\n", verb)
		return -1
	}
	if len(args) < cmd.minArgs || (cmd.maxArgs >= 0 && len(args) > cmd.maxArgs) {
		fmt.Fprintf(os.Stderr, "%s takes %d-%d arguments\n", verb, cmd.minArgs, cmd.maxArgs)
		return -1
	}
	if cmd.needsMount && s.di == nil {
		fmt.Fprintf(os.Stderr, "%s requires a mounted disk\n", verb)
		return -1
	}
	return cmd.run(s, args)
}

func cmdMount(s *Shell, args []string) int {
	progress := func(session uuid.UUID, message string, count int) diskimg.Signal {
		loggy.GetSession(session).Logf("%s (%d)", message, count)
		return diskimg.SignalContinue
	}
	di, err := diskimg.OpenPath(args[0], false, progress)
	if err != nil {
		fmt.Fprintf(os.Stderr, "mount failed: %v\n", err)
		return -1
	}
	probe, err := fs.ProbeOrGeneric(di, diskimg.OrderDOS)
	if err != nil {
		di.Close()
		fmt.Fprintf(os.Stderr, "probe failed: %v\n", err)
		return -1
	}
	if s.di != nil {
		s.di.Close()
	}
	s.di = di
	s.driver = probe.Driver
	s.path = args[0]
	loggy.GetSession(di.Session()).Logf("mounted %s as %s", args[0], probe.Driver.Format())
	fmt.Printf("mounted %s (%s)\n", args[0], probe.Driver.Format())
	return 0
}

func cmdInfo(s *Shell, args []string) int {
	fmt.Printf("path        : %s\n", s.path)
	fmt.Printf("file format : %s\n", s.di.FileFormat())
	fmt.Printf("order       : %s\n", s.di.Order())
	fmt.Printf("filesystem  : %s\n", s.driver.Format())
	fmt.Printf("volume name : %s\n", s.driver.VolumeName())
	fmt.Printf("tracks      : %d, sectors/trk: %d, blocks: %d\n", s.di.NumTracks(), s.di.NumSectors(), s.di.NumBlocks())
	return 0
}

func cmdLs(s *Shell, args []string) int {
	pattern := "*"
	if len(args) > 0 {
		pattern = args[0]
	}
	entries, err := s.driver.List(pattern)
	if err != nil {
		fmt.Fprintf(os.Stderr, "list failed: %v\n", err)
		return -1
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	fmt.Printf("%-30s %-6s %8s\n", "NAME", "TYPE", "BYTES")
	for _, e := range entries {
		fmt.Printf("%-30s %-6s %8d\n", e.Name, e.TypeName, e.SizeBytes)
	}
	return 0
}

func cmdCd(s *Shell, args []string) int {
	if len(args) > 0 {
		if err := os.Chdir(args[0]); err != nil {
			fmt.Fprintf(os.Stderr, "cd failed: %v\n", err)
			return -1
		}
	}
	wd, _ := os.Getwd()
	fmt.Println("local directory is now", wd)
	return 0
}

func cmdGet(s *Shell, args []string) int {
	pattern := args[0]
	destDir := "."
	if len(args) > 1 {
		destDir = args[1]
	}
	entries, err := s.driver.List(pattern)
	if err != nil {
		fmt.Fprintf(os.Stderr, "list failed: %v\n", err)
		return -1
	}
	if len(entries) == 0 {
		fmt.Fprintf(os.Stderr, "no files matched %q\n", pattern)
		return -1
	}
	for _, e := range entries {
		data, err := s.driver.ReadFile(e)
		if err != nil {
			fmt.Fprintf(os.Stderr, "read %s failed: %v\n", e.Name, err)
			continue
		}
		out := filepath.Join(destDir, e.Name)
		if err := os.WriteFile(out, data, 0644); err != nil {
			fmt.Fprintf(os.Stderr, "write %s failed: %v\n", out, err)
			continue
		}
		fmt.Println("extracted", e.Name, "->", out)
	}
	return 0
}

func cmdPut(s *Shell, args []string) int {
	data, err := os.ReadFile(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "read %s failed: %v\n", args[0], err)
		return -1
	}
	name := strings.ToUpper(filepath.Base(args[0]))
	if err := s.driver.WriteFile(name, data); err != nil {
		fmt.Fprintf(os.Stderr, "put failed: %v\n", err)
		return -1
	}
	if err := s.di.Flush(); err != nil {
		fmt.Fprintf(os.Stderr, "flush failed: %v\n", err)
		return -1
	}
	fmt.Println("wrote", name)
	return 0
}

func cmdHelp(s *Shell, args []string) int {
	if len(args) == 0 {
		names := make([]string, 0, len(commandList))
		for k := range commandList {
			names = append(names, k)
		}
		sort.Strings(names)
		for _, k := range names {
			fmt.Printf("%-8s %s\n", k, commandList[k].description)
		}
		return 0
	}
	cmd, ok := commandList[strings.ToLower(args[0])]
	if !ok || cmd.help == nil {
		fmt.Fprintf(os.Stderr, "no help for %s\n", args[0])
		return -1
	}
	for _, l := range cmd.help {
		fmt.Println(l)
	}
	return 0
}

func cmdQuit(s *Shell, args []string) int { return 999 }
