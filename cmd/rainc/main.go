// cmd/rainc/main.go
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/dustin/go-humanize"

	"rain/internal/ast"
	"rain"
)

const version = "0.1.0"

var commandAliases = map[string]string{
	"p": "parse",
	"t": "tree",
	"b": "build",
}

func main() {
	args := os.Args[1:]
	if len(args) == 0 {
		showUsage()
		return
	}

	cmd := args[0]
	if alias, ok := commandAliases[cmd]; ok {
		cmd = alias
	}

	switch cmd {
	case "--help", "-h", "help":
		showUsage()
	case "--version", "-v", "version":
		fmt.Println("rainc " + version)
	case "parse":
		if err := parseCommand(args[1:]); err != nil {
			log.Fatalf("Error: %v", err)
		}
	case "tree":
		if err := treeCommand(args[1:]); err != nil {
			log.Fatalf("Error: %v", err)
		}
	case "build":
		if err := buildCommand(args[1:]); err != nil {
			log.Fatalf("Error: %v", err)
		}
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", args[0])
		showUsage()
		os.Exit(1)
	}
}

func showUsage() {
	fmt.Println(`rainc - Rain expression compiler front-end

Usage:
  rainc parse <file>                  print each source's diagnostics, if any
  rainc tree <file>                   print the parse tree (supplemental debug view)
  rainc build [-opmeta file] [-json] <file>
                                       print the compiled StateConfig: a raw
                                       binary dump by default, or JSON with
                                       -json; -opmeta loads a documentation
                                       overlay before compiling

Aliases: p=parse, t=tree, b=build`)
}

func parseCommand(args []string) error {
	text, err := readInput(args)
	if err != nil {
		return err
	}
	tree := rain.GetParseTree(text, nil, "")
	msgs := rain.Diagnostics(tree)
	if len(msgs) == 0 {
		fmt.Println("no errors")
		return nil
	}
	for _, m := range msgs {
		fmt.Println(m)
	}
	return nil
}

func treeCommand(args []string) error {
	text, err := readInput(args)
	if err != nil {
		return err
	}
	tree := rain.GetParseTree(text, nil, "")
	for i, se := range tree.SubExprs {
		fmt.Printf("source %d [%d:%d]:\n", i, se.SourceSpan.Start, se.SourceSpan.End)
		for _, n := range se.RootNodes {
			printNode(n, 1)
		}
	}
	return nil
}

func printNode(n ast.Node, depth int) {
	indent := strings.Repeat("  ", depth)
	switch v := n.(type) {
	case *ast.Value:
		fmt.Printf("%svalue %q [%d:%d]\n", indent, v.Text, v.At.Start, v.At.End)
	case *ast.Err:
		fmt.Printf("%serror %q [%d:%d]\n", indent, v.Message, v.At.Start, v.At.End)
	case *ast.Op:
		fmt.Printf("%sop %s operand=%d output=%d [%d:%d]\n", indent, v.Name, v.Operand, v.OutputArity, v.FullSpan.Start, v.FullSpan.End)
		for _, p := range v.Parameters {
			printNode(p, depth+1)
		}
	}
}

func buildCommand(args []string) error {
	opmetaPath, jsonOutput, rest, err := parseBuildFlags(args)
	if err != nil {
		return err
	}
	text, err := readInput(rest)
	if err != nil {
		return err
	}

	registry := rain.Default()
	if opmetaPath != "" {
		data, err := os.ReadFile(opmetaPath)
		if err != nil {
			return fmt.Errorf("reading -opmeta file: %w", err)
		}
		if err := rain.ApplyOpmetaOverlay(registry, data); err != nil {
			return fmt.Errorf("applying -opmeta overlay: %w", err)
		}
	}

	_, cfg := rain.Parse(text, registry, "")

	totalBytes := 0
	for _, s := range cfg.Sources {
		totalBytes += len(s)
	}
	fmt.Fprintf(os.Stderr, "%d constants, %d sources, %s of bytecode\n",
		len(cfg.Constants), len(cfg.Sources), humanize.Bytes(uint64(totalBytes)))

	if jsonOutput {
		return printBuildJSON(os.Stdout, cfg)
	}
	return writeRawBinary(os.Stdout, cfg)
}

// parseBuildFlags extracts build's -opmeta and -json flags from args,
// returning the remaining positional arguments (the input file).
func parseBuildFlags(args []string) (opmetaPath string, jsonOutput bool, rest []string, err error) {
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "-opmeta":
			if i+1 >= len(args) {
				return "", false, nil, fmt.Errorf("-opmeta requires a file argument")
			}
			opmetaPath = args[i+1]
			i++
		case "-json":
			jsonOutput = true
		default:
			rest = append(rest, args[i])
		}
	}
	return opmetaPath, jsonOutput, rest, nil
}

func printBuildJSON(w io.Writer, cfg rain.StateConfig) error {
	out := struct {
		Constants []string `json:"constants"`
		Sources   []string `json:"sources"`
	}{}
	for _, c := range cfg.Constants {
		out.Constants = append(out.Constants, c.Hex())
	}
	for _, s := range cfg.Sources {
		out.Sources = append(out.Sources, fmt.Sprintf("%x", s))
	}
	enc, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(enc))
	return err
}

// writeRawBinary is build's default output: the constant pool as
// packed 32-byte big-endian words, followed by each source's packed
// instruction buffer in order, source 0 first (spec §3, §6).
func writeRawBinary(w io.Writer, cfg rain.StateConfig) error {
	for _, c := range cfg.Constants {
		b := c.Bytes32()
		if _, err := w.Write(b[:]); err != nil {
			return err
		}
	}
	for _, s := range cfg.Sources {
		if _, err := w.Write(s); err != nil {
			return err
		}
	}
	return nil
}

func readInput(args []string) (string, error) {
	if len(args) == 0 {
		return "", fmt.Errorf("expected a file argument")
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return "", err
	}
	return string(data), nil
}
