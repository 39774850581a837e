//go:build ignore

// Command mock-agent simulates a game agent for integration tests.
// It reads lines from stdin and answers on stdout.
//
// Environment variables control behavior:
//
//	MOCK_AGENT_MODE=echo      : answer every line with the same line
//	MOCK_AGENT_MODE=silent    : read lines, never answer
//	MOCK_AGENT_MODE=late      : answer "late:<line>" after MOCK_AGENT_DELAY (default 300ms)
//	MOCK_AGENT_MODE=exit      : exit immediately without output
//	MOCK_AGENT_MODE=crash     : exit with status 3 after reading one line
//	MOCK_AGENT_MODE=role      : answer every line with the last command-line argument
//	MOCK_AGENT_MODE=script    : answer with MOCK_AGENT_SCRIPT entries (comma separated), then go silent
//	MOCK_AGENT_MODE=stubborn  : like silent, but ignore SIGTERM
//	MOCK_AGENT_MODE=burst     : answer every line twice
//
// MOCK_AGENT_PAD=n appends n "x" characters to every scripted answer.
//
// Every mode writes "mock-agent: <line>" to stderr for each line read.
package main

import (
	"bufio"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"
)

func main() {
	mode := os.Getenv("MOCK_AGENT_MODE")
	delay := 300 * time.Millisecond
	if v := os.Getenv("MOCK_AGENT_DELAY"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			delay = d
		}
	}
	var script []string
	if v := os.Getenv("MOCK_AGENT_SCRIPT"); v != "" {
		script = strings.Split(v, ",")
	}
	if n, err := strconv.Atoi(os.Getenv("MOCK_AGENT_PAD")); err == nil && n > 0 {
		pad := strings.Repeat("x", n)
		for i := range script {
			script[i] += pad
		}
	}

	switch mode {
	case "exit":
		return
	case "stubborn":
		signal.Ignore(syscall.SIGTERM)
	}

	out := bufio.NewWriter(os.Stdout)
	say := func(line string) {
		fmt.Fprintln(out, line)
		out.Flush()
	}

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := scanner.Text()
		fmt.Fprintf(os.Stderr, "mock-agent: %s\n", line)

		switch mode {
		case "echo":
			say(line)
		case "late":
			time.Sleep(delay)
			say("late:" + line)
		case "crash":
			os.Exit(3)
		case "role":
			say(os.Args[len(os.Args)-1])
		case "script":
			if len(script) > 0 {
				say(script[0])
				script = script[1:]
			}
		case "burst":
			say(line)
			say(line)
		}
	}

	if mode == "stubborn" {
		// Outlive stdin closure so only SIGKILL ends us.
		time.Sleep(time.Hour)
	}
}
