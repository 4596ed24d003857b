/*
 * axp264ibox - Configuration file parser
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

// Package config parses the Ibox core's text configuration file: one
// "key = value" setting per line, blank lines and '#' comments ignored.
package config

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"unicode"
)

// CPU holds every configurable Ibox-core knob. Start from Defaults();
// Load overrides only the settings a file names, and a setting given
// as zero stays zero.
type CPU struct {
	MajorType     int    // 0 = EV6/21264 PAL PC layout, 1 = 21164 layout.
	InflightMax   int    // ROB / VPC ring depth (AXP_INFLIGHT_MAX).
	IQLen         int    // Integer issue queue depth.
	FQLen         int    // Floating issue queue depth.
	IntFreeList   int    // AXP_I_FREELIST_SIZE.
	FloatFreeList int    // AXP_F_FREELIST_SIZE.
	IntPhysical   int    // Physical integer register count.
	FloatPhysical int    // Physical floating register count.
	TraceFile     string // Optional (vpc,taken) trace for predictor replay.
	DebugFile     string // Optional debug trace output file.
	DebugMask     int    // Bitmask of util/debug subsystems to trace.
}

// Defaults returns the reference AXP_21264 sizing used throughout
// spec.md's data model (32 architectural + 8 PAL-shadow integer
// registers, 32 architectural floating registers).
func Defaults() CPU {
	return CPU{
		MajorType:     0,
		InflightMax:   128,
		IQLen:         20,
		FQLen:         15,
		IntPhysical:   80,
		FloatPhysical: 72,
		IntFreeList:   80 - (32 + 8),
		FloatFreeList: 72 - 32,
	}
}

// current line being scanned.
type optionLine struct {
	line string
	pos  int
}

// Load reads a configuration file and merges its settings onto the
// supplied defaults.
func Load(name string, cpu *CPU) error {
	file, err := os.Open(name)
	if err != nil {
		return err
	}
	defer file.Close()

	reader := bufio.NewReader(file)
	lineNumber := 0
	for {
		raw, err := reader.ReadString('\n')
		lineNumber++
		if len(raw) == 0 && err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return err
		}
		line := &optionLine{line: raw}
		if parseErr := line.apply(cpu, lineNumber); parseErr != nil {
			return parseErr
		}
	}
	return nil
}

func (l *optionLine) apply(cpu *CPU, lineNumber int) error {
	l.skipSpace()
	if l.isEOL() {
		return nil
	}

	key := l.scanIdent()
	if key == "" {
		return fmt.Errorf("invalid configuration line %d", lineNumber)
	}
	l.skipSpace()
	if l.isEOL() || l.line[l.pos] != '=' {
		return fmt.Errorf("missing '=' after %q, line %d", key, lineNumber)
	}
	l.pos++
	l.skipSpace()
	value := strings.TrimRight(l.line[l.pos:], " \t\r\n")

	return setField(cpu, strings.ToLower(key), value, lineNumber)
}

func setField(cpu *CPU, key, value string, lineNumber int) error {
	intVal := func() (int, error) {
		n, err := strconv.Atoi(value)
		if err != nil {
			return 0, fmt.Errorf("line %d: %q is not an integer: %w", lineNumber, key, err)
		}
		return n, nil
	}

	switch key {
	case "majortype":
		n, err := intVal()
		if err != nil {
			return err
		}
		cpu.MajorType = n
	case "inflightmax":
		n, err := intVal()
		if err != nil {
			return err
		}
		cpu.InflightMax = n
	case "iqlen":
		n, err := intVal()
		if err != nil {
			return err
		}
		cpu.IQLen = n
	case "fqlen":
		n, err := intVal()
		if err != nil {
			return err
		}
		cpu.FQLen = n
	case "intfreelist":
		n, err := intVal()
		if err != nil {
			return err
		}
		cpu.IntFreeList = n
	case "floatfreelist":
		n, err := intVal()
		if err != nil {
			return err
		}
		cpu.FloatFreeList = n
	case "intphysical":
		n, err := intVal()
		if err != nil {
			return err
		}
		cpu.IntPhysical = n
	case "floatphysical":
		n, err := intVal()
		if err != nil {
			return err
		}
		cpu.FloatPhysical = n
	case "tracefile":
		cpu.TraceFile = value
	case "debugfile":
		cpu.DebugFile = value
	case "debugmask":
		n, err := strconv.ParseInt(value, 0, 64)
		if err != nil {
			return fmt.Errorf("line %d: debugmask not numeric: %w", lineNumber, err)
		}
		cpu.DebugMask = int(n)
	default:
		return fmt.Errorf("line %d: unknown setting %q", lineNumber, key)
	}
	return nil
}

func (l *optionLine) skipSpace() {
	for l.pos < len(l.line) && unicode.IsSpace(rune(l.line[l.pos])) {
		l.pos++
	}
}

func (l *optionLine) isEOL() bool {
	if l.pos >= len(l.line) {
		return true
	}
	return l.line[l.pos] == '#'
}

func (l *optionLine) scanIdent() string {
	start := l.pos
	for l.pos < len(l.line) {
		by := rune(l.line[l.pos])
		if unicode.IsLetter(by) || unicode.IsNumber(by) {
			l.pos++
			continue
		}
		break
	}
	return l.line[start:l.pos]
}
