/*
 * MIT License
 *
 * Copyright (c) 2026 Nguyen Thanh Phuong
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 */

package writer

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
)

// Overwrite policy names accepted by PolicyFor.
const (
	ModeAuto   = "auto"
	ModePrompt = "prompt"
	ModeAlways = "always"
	ModeNever  = "never"
)

// DefaultAffirmatives are the answers accepted by a Prompt.
var DefaultAffirmatives = []string{"y", "yes"}

// ConfirmPolicy decides whether an existing file may be overwritten.
type ConfirmPolicy interface {
	Confirm(path string) (bool, error)
}

// AlwaysOverwrite accepts every overwrite.
type AlwaysOverwrite struct{}

// Confirm always returns true.
func (AlwaysOverwrite) Confirm(string) (bool, error) { return true, nil }

// NeverOverwrite declines every overwrite.
type NeverOverwrite struct{}

// Confirm always returns false.
func (NeverOverwrite) Confirm(string) (bool, error) { return false, nil }

// Prompt asks the operator on out and reads one line from in per question.
type Prompt struct {
	mu     sync.Mutex
	in     *bufio.Reader
	out    io.Writer
	accept map[string]bool
}

// NewPrompt creates a Prompt that accepts DefaultAffirmatives plus extra
// answers (for example the locale variants "s" and "si"). Matching is
// case-insensitive and ignores surrounding whitespace.
func NewPrompt(in io.Reader, out io.Writer, extra ...string) *Prompt {
	accept := make(map[string]bool, len(DefaultAffirmatives)+len(extra))
	for _, a := range DefaultAffirmatives {
		accept[a] = true
	}
	for _, a := range extra {
		if a = strings.ToLower(strings.TrimSpace(a)); a != "" {
			accept[a] = true
		}
	}

	return &Prompt{
		in:     bufio.NewReader(in),
		out:    out,
		accept: accept,
	}
}

// Confirm prints the question and returns true for an affirmative answer.
// Empty input, end of input and any other answer decline.
func (p *Prompt) Confirm(path string) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, err := fmt.Fprintf(p.out, "File %s already exists. Overwrite? [y/N]: ", path); err != nil {
		return false, fmt.Errorf("failed to write prompt: %w", err)
	}

	line, err := p.in.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, fmt.Errorf("failed to read answer: %w", err)
	}
	if errors.Is(err, io.EOF) {
		// Keep the terminal tidy when input ends without a newline.
		fmt.Fprintln(p.out)
	}

	return p.accept[strings.ToLower(strings.TrimSpace(line))], nil
}

// PolicyFor builds the policy named by mode. ModeAuto prompts when
// interactive is true and declines otherwise.
func PolicyFor(mode string, in io.Reader, out io.Writer, interactive bool, extra []string) (ConfirmPolicy, error) {
	switch strings.ToLower(mode) {
	case ModeAlways:
		return AlwaysOverwrite{}, nil
	case ModeNever:
		return NeverOverwrite{}, nil
	case ModePrompt:
		return NewPrompt(in, out, extra...), nil
	case ModeAuto, "":
		if interactive {
			return NewPrompt(in, out, extra...), nil
		}
		return NeverOverwrite{}, nil
	default:
		return nil, fmt.Errorf("unknown overwrite mode %q (must be auto, prompt, always or never)", mode)
	}
}
