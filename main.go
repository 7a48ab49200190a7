package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/op/go-logging"

	"github.com/arnasjozonis/huffman-encode/engine"
)

const progName = "huffman-encode"

var Commands = [...]string{"compress", "decompress", "help"}

var leveledLogBackend logging.LeveledBackend

func startLogging() {
	backend := logging.NewLogBackend(os.Stderr, progName+": ", 0)
	formatSpec := "%{level:8s} %{module:-24s} | %{message}"
	formatter := logging.MustStringFormatter(formatSpec)
	formatted := logging.NewBackendFormatter(backend, formatter)
	leveled := logging.AddModuleLevel(formatted)
	leveled.SetLevel(logging.WARNING, "")
	logging.SetBackend(leveled)
	leveledLogBackend = leveled
}

func main() {
	startLogging()

	application := os.Args[0]
	flag.CommandLine = flag.NewFlagSet(application, flag.ExitOnError)
	compressCmd := flag.Bool(Commands[0], false, "Compress file(s)")
	decompressCmd := flag.Bool(Commands[1], false, "Decompress file(s)")
	helpCmd := flag.Bool(Commands[2], false, "Help")
	flag.CommandLine.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage of %s:\n", application)
		fmt.Fprintf(os.Stderr, "Valid commands include:\n\t%s\n", strings.Join(Commands[:], ", "))
		fmt.Fprintf(os.Stderr, "Flag:\n")
		flag.PrintDefaults()
	}

	if len(os.Args) == 1 {
		fmt.Println("Please provide commands")
		os.Exit(1)
	}
	commandArgs, rest := splitCommands(os.Args[1:])
	flag.CommandLine.Parse(commandArgs)
	if *helpCmd {
		flag.CommandLine.Usage()
		return
	}
	commandsSelected := countTrue([]bool{*compressCmd, *decompressCmd})
	if commandsSelected > 1 {
		fmt.Println("Specify a single command")
		os.Exit(1)
	} else if commandsSelected == 0 {
		fmt.Println("No command is selected. Compression by default")
		cmdTrue := true
		compressCmd = &cmdTrue
	}

	commandName := Commands[0]
	if *decompressCmd {
		commandName = Commands[1]
	}
	fs := flag.NewFlagSet(commandName, flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage of %s --%s [OPTIONS] <file(s)>\n", application, commandName)
		fmt.Fprintf(os.Stderr, "Files may be separated by commas.\n")
		fmt.Fprintf(os.Stderr, "Flag:\n")
		fs.PrintDefaults()
	}
	defaults := engine.DefaultOptions()
	wordLen := fs.Int("wordlen", defaults.WordLen, "Word length in bits, 1 to 16 (compression only)")
	deleteAfter := fs.Bool("delete", false, "Delete input file(s) after success")
	outputFileExtension := fs.String("outfileext", defaults.Extension, "File extension used for the compressed file")
	progress := fs.Bool("progress", false, "Show a progress bar")
	debug := fs.Bool("debug", false, "Log the chosen code of every word")
	verbose := fs.Bool("verbose", false, "Log progress messages")
	fs.Parse(rest)

	if *debug {
		leveledLogBackend.SetLevel(logging.DEBUG, "")
	} else if *verbose {
		leveledLogBackend.SetLevel(logging.INFO, "")
	}

	if fs.NArg() == 0 {
		fmt.Printf("No file provided for %s\n", commandName)
		fs.Usage()
		os.Exit(1)
	}
	var files []string
	for _, arg := range fs.Args() {
		files = append(files, strings.Split(arg, ",")...)
	}
	trimSpace(files)
	for _, f := range files {
		if _, err := os.Stat(f); os.IsNotExist(err) {
			fmt.Printf("Could not open the provided file %s\n", f)
			os.Exit(1)
		}
	}

	opts := engine.Options{
		WordLen:   *wordLen,
		Extension: *outputFileExtension,
		Delete:    *deleteAfter,
		Progress:  *progress,
	}
	var (
		reports []engine.Report
		err     error
	)
	if *compressCmd {
		fmt.Println("Compressing...")
		reports, err = engine.CompressFiles(files, opts)
	} else {
		fmt.Println("Decompressing...")
		reports, err = engine.DecompressFiles(files, opts)
	}
	for _, r := range reports {
		engine.PrintReport(os.Stdout, r)
	}
	if err != nil {
		color.New(color.FgRed).Fprintf(os.Stderr, "%s failed: %v\n", commandName, err)
		os.Exit(1)
	}
}

// splitCommands separates the leading command flags from the options and
// files that follow them.
func splitCommands(args []string) ([]string, []string) {
	set := make(map[string]struct{}, len(Commands))
	for _, c := range Commands {
		set["--"+c] = struct{}{}
		set["-"+c] = struct{}{}
	}
	i := 0
	for ; i < len(args); i++ {
		if _, ok := set[args[i]]; !ok {
			break
		}
	}
	return args[:i], args[i:]
}

func countTrue(commands []bool) int {
	count := 0
	for _, c := range commands {
		if c {
			count++
		}
	}
	return count
}

func trimSpace(s []string) {
	for i := range s {
		s[i] = strings.TrimSpace(s[i])
	}
}
