/*
 * axp264ibox - Interactive inspection console.
 *
 * Copyright 2024, Richard Cornwell
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in
 * all copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 */

// Package console provides a small liner-backed REPL for inspecting a
// running Ibox core: ROB occupancy, predictor tables, Icache state.
package console

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/peterh/liner"
)

// Inspector is the subset of ibox.CPU the console needs. Defined here,
// not in package ibox, so the console stays a leaf dependency.
type Inspector interface {
	ROBSummary() string
	PredictorSummary() string
	ICacheSummary() string
}

var commands = []string{"rob", "pred", "icache", "help", "quit"}

// Run starts the REPL. It returns when the user quits or aborts input
// (Ctrl-D/Ctrl-C).
func Run(cpu Inspector) {
	line := liner.NewLiner()
	defer line.Close()

	line.SetCtrlCAborts(true)
	line.SetCompleter(func(prefix string) []string {
		var out []string
		for _, c := range commands {
			if strings.HasPrefix(c, prefix) {
				out = append(out, c)
			}
		}
		return out
	})

	for {
		cmd, err := line.Prompt("ibox> ")
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) {
				return
			}
			slog.Error("console read failed", "error", err)
			return
		}

		line.AppendHistory(cmd)
		switch strings.TrimSpace(cmd) {
		case "rob":
			fmt.Println(cpu.ROBSummary())
		case "pred":
			fmt.Println(cpu.PredictorSummary())
		case "icache":
			fmt.Println(cpu.ICacheSummary())
		case "help":
			fmt.Println("commands: rob, pred, icache, quit")
		case "quit", "exit":
			return
		case "":
			// ignore blank lines
		default:
			fmt.Println("unknown command: " + cmd)
		}
	}
}
