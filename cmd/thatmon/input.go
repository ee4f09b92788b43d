package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
	"golang.org/x/term"
)

const consolePrompt = "thatmon> "

// lineInput 是控制台读取命令行的来源
// lineInput is where the console reads command lines from
type lineInput interface {
	ReadLine() (string, error)
	// Writer 返回与行编辑器协调的输出 / Writer returns output that cooperates with the line editor
	Writer() io.Writer
	Close() error
}

// idSource returns completion candidates for the argument of a console
// command ("use", "task", "subtask").
type idSource func(command string) []string

// pipeInput reads newline-separated commands from a non-terminal stdin. It
// prints no prompt so scripted output stays clean.
type pipeInput struct {
	scanner *bufio.Scanner
	out     io.Writer
}

func newPipeInput(in io.Reader, out io.Writer) *pipeInput {
	s := bufio.NewScanner(in)
	s.Buffer(make([]byte, 0, 64*1024), 1<<20)
	return &pipeInput{scanner: s, out: out}
}

func (p *pipeInput) ReadLine() (string, error) {
	for p.scanner.Scan() {
		line := strings.TrimSpace(p.scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		return line, nil
	}
	if err := p.scanner.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}

func (p *pipeInput) Writer() io.Writer { return p.out }

func (p *pipeInput) Close() error { return nil }

type readlineInput struct {
	instance *readline.Instance
}

func newReadlineInput(historyPath string, ids idSource) (*readlineInput, error) {
	if historyPath != "" {
		if err := os.MkdirAll(filepath.Dir(historyPath), 0o755); err != nil {
			return nil, fmt.Errorf("create history dir: %w", err)
		}
	}
	instance, err := readline.NewEx(&readline.Config{
		Prompt:            consolePrompt,
		HistoryFile:       historyPath,
		HistorySearchFold: true,
		AutoComplete:      consoleCompleter(ids),
	})
	if err != nil {
		return nil, err
	}
	return &readlineInput{instance: instance}, nil
}

func (r *readlineInput) ReadLine() (string, error) {
	return r.instance.Readline()
}

func (r *readlineInput) Writer() io.Writer { return r.instance.Stdout() }

func (r *readlineInput) Close() error {
	if r == nil || r.instance == nil {
		return nil
	}
	return r.instance.Close()
}

// newLineInput 终端使用 readline，管道输入退回到逐行读取
// newLineInput uses readline on a terminal and plain line reads otherwise
func newLineInput(historyPath string, ids idSource) (lineInput, error) {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return newPipeInput(os.Stdin, os.Stdout), nil
	}
	in, err := newReadlineInput(historyPath, ids)
	if err != nil {
		return newPipeInput(os.Stdin, os.Stdout), err
	}
	return in, nil
}

// consoleCompleter completes command names, and ids for the commands that
// take one.
func consoleCompleter(ids idSource) *readline.PrefixCompleter {
	items := make([]readline.PrefixCompleterInterface, 0, len(consoleCommands))
	for _, c := range consoleCommands {
		name, arg, _ := strings.Cut(c.usage, " ")
		if ids != nil && strings.HasSuffix(arg, "id>") {
			items = append(items, readline.PcItem(name, readline.PcItemDynamic(func(string) []string {
				return ids(name)
			})))
			continue
		}
		items = append(items, readline.PcItem(name))
	}
	return readline.NewPrefixCompleter(items...)
}
