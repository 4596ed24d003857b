/*
 * axp264ibox - Log debug data to a file
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

package debug

import (
	"fmt"
	"os"
)

// Subsystem masks, ORed into the active mask to select which trace
// classes are written.
const (
	Ibox    = 1 << iota // Fetch/dispatch/retire driver loop.
	Predict             // Tournament predictor lookup and training.
	Rename              // Decode, register rename, free-list traffic.
	Retire              // ROB retirement sweep.
	ICache              // Icache/ITB hit, miss, way-miss, fill.
	Event               // Exception/event intake.
)

var (
	logFile *os.File
	mask    int
)

// SetFile directs subsequent Debugf output at a file. A nil file
// disables trace output.
func SetFile(f *os.File) {
	logFile = f
}

// SetMask sets which subsystem traces are active.
func SetMask(m int) {
	mask = m
}

// Debugf writes a trace line for the given subsystem, if enabled.
func Debugf(subsystem int, format string, a ...interface{}) {
	if logFile == nil || (mask&subsystem) == 0 {
		return
	}
	fmt.Fprintf(logFile, format+"\n", a...)
}
