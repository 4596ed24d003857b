/*
 * axp264ibox - Main process.
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

package main

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	getopt "github.com/pborman/getopt/v2"

	"github.com/belanger/axp264ibox/boxes/cbox"
	"github.com/belanger/axp264ibox/boxes/ebox"
	"github.com/belanger/axp264ibox/boxes/fbox"
	"github.com/belanger/axp264ibox/boxes/mbox"
	config "github.com/belanger/axp264ibox/config/config"
	"github.com/belanger/axp264ibox/console"
	"github.com/belanger/axp264ibox/ibox"
	"github.com/belanger/axp264ibox/util/debug"
	logger "github.com/belanger/axp264ibox/util/logger"
)

var Logger *slog.Logger

func main() {
	optConfig := getopt.StringLong("config", 'c', "axp264ibox.cfg", "Configuration file")
	optLogFile := getopt.StringLong("log", 'l', "", "Log file")
	optInteractive := getopt.BoolLong("interactive", 'i', "Start the inspection console")
	optDebug := getopt.BoolLong("debug", 'd', "Mirror every log record to stderr")
	optHelp := getopt.BoolLong("help", 'h', "Help")
	getopt.Parse()

	if *optHelp {
		getopt.Usage()
		os.Exit(0)
	}

	var file *os.File
	if *optLogFile != "" {
		file, _ = os.Create(*optLogFile)
	}
	programLevel := new(slog.LevelVar)
	programLevel.Set(slog.LevelDebug)
	Logger = slog.New(logger.NewHandler(file, &slog.HandlerOptions{Level: programLevel, AddSource: false}, *optDebug))
	slog.SetDefault(Logger)

	Logger.Info("axp264ibox started")

	cpuCfg := config.Defaults()
	if _, err := os.Stat(*optConfig); err == nil {
		if err := config.Load(*optConfig, &cpuCfg); err != nil {
			Logger.Error(err.Error())
			os.Exit(1)
		}
	} else {
		Logger.Info("no configuration file found, using defaults", "path", *optConfig)
	}

	if cpuCfg.DebugFile != "" {
		dbgFile, err := os.Create(cpuCfg.DebugFile)
		if err != nil {
			Logger.Error(err.Error())
			os.Exit(1)
		}
		defer dbgFile.Close()
		debug.SetFile(dbgFile)
	}
	debug.SetMask(cpuCfg.DebugMask)

	major := ibox.EV6
	if cpuCfg.MajorType != 0 {
		major = ibox.EV56MajorType
	}

	driverCfg := ibox.Config{
		InflightMax:   cpuCfg.InflightMax,
		IQLen:         cpuCfg.IQLen,
		FQLen:         cpuCfg.FQLen,
		IntPhysical:   cpuCfg.IntPhysical,
		FloatPhysical: cpuCfg.FloatPhysical,
		ITBEntries:    32,
		MajorType:     major,
	}

	cpu := ibox.NewCPU(Logger, driverCfg, nil, nil)
	mb := mbox.New(8, 8, cpu.SignalIBox)
	cb := cbox.New(cpu.ICache, cpu.SignalIBox)
	cpu.Mbox = mb
	cpu.Cbox = cb

	if cpuCfg.TraceFile != "" {
		runPredictorTrace(cpuCfg.TraceFile)
	}

	cpu.Start()
	go runEbox(cpu)
	go runFbox(cpu)
	go runRetire(cpu)
	Logger.Info("Ibox running")

	if *optInteractive {
		console.Run(cpu)
		Logger.Info("Shutting down Ibox")
		cpu.Stop()
		return
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	Logger.Info("Shutting down Ibox")
	cpu.Stop()
	Logger.Info("Ibox stopped")
}

// runEbox drains the integer issue queue and runs each instruction
// through the Ebox completion stub, signalling the Ibox so any
// back-pressured dispatch can resume (spec.md §5's eBoxCondition).
func runEbox(cpu *ibox.CPU) {
	q := cpu.Queues
	for {
		q.EboxMu.Lock()
		for q.IQ.Len() == 0 {
			select {
			case <-cpu.Done():
				q.EboxMu.Unlock()
				return
			default:
			}
			q.EboxCond.Wait()
		}
		ready := q.IQ.PopAll()
		q.EboxMu.Unlock()

		for _, inst := range ready {
			ebox.Execute(inst, cpu.Regs)
		}
		cpu.SignalIBox()
	}
}

// runFbox mirrors runEbox for the floating-point issue queue
// (spec.md §5's fBoxCondition).
func runFbox(cpu *ibox.CPU) {
	q := cpu.Queues
	for {
		q.FboxMu.Lock()
		for q.FQ.Len() == 0 {
			select {
			case <-cpu.Done():
				q.FboxMu.Unlock()
				return
			default:
			}
			q.FboxCond.Wait()
		}
		ready := q.FQ.PopAll()
		q.FboxMu.Unlock()

		for _, inst := range ready {
			fbox.Execute(inst, cpu.Regs)
		}
		cpu.SignalIBox()
	}
}

// runRetire periodically sweeps the ROB for completed instructions,
// standing in for the retirement-triggering cadence spec.md §4.E
// leaves to the surrounding system.
func runRetire(cpu *ibox.CPU) {
	ticker := time.NewTicker(time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-cpu.Done():
			return
		case <-ticker.C:
			if retired := cpu.Retire(); len(retired) > 0 {
				cpu.SignalIBox()
			}
		}
	}
}

func runPredictorTrace(path string) {
	f, err := os.Open(path)
	if err != nil {
		Logger.Error("failed to open trace file", "path", path, "error", err)
		return
	}
	defer f.Close()

	entries, err := ibox.ReadTrace(f)
	if err != nil {
		Logger.Error("failed to parse trace file", "path", path, "error", err)
		return
	}

	result := ibox.ReplayTrace(ibox.NewPredictor(), entries)
	Logger.Info("predictor trace replay complete",
		"file", path,
		"instructions", result.Instructions,
		"accuracy", result.Accuracy(),
		"localCorrect", result.LocalCorrect,
		"globalCorrect", result.GlobalCorrect,
		"choiceUsed", result.ChoiceUsed,
		"choiceCorrect", result.ChoiceCorrect)
}
