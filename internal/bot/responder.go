/**
 * Copyright 2025-present Coinbase Global, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package bot produces the scripted replies of the chat assistant.
package bot

import (
	"fmt"
	"math"
	"math/rand"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"
)

const (
	DivisionByZeroReply = "Division by zero is undefined. Try another divisor."
	NegativeRootReply   = "The square root of a negative number is not a real number."
)

// Fillers are returned for anything that is not a recognised calculation
var Fillers = []string{
	"Great question! Let's talk it through.",
	"Interesting, tell me more!",
	"I think it depends on the context.",
	"I have a few ideas about that.",
	"That is a really important topic to think about.",
}

// Responder turns a user message into a bot reply
type Responder interface {
	Respond(input string) string
}

const number = `(-?\d+(?:[.,]\d+)?)`

var (
	percentPattern    = regexp.MustCompile(`(?i)` + number + `\s*%\s*of\s*` + number)
	sqrtPattern       = regexp.MustCompile(`(?i)(?:sqrt\s*\(\s*` + number + `\s*\)|√\s*` + number + `|square\s+root\s+of\s+` + number + `)`)
	arithmeticPattern = regexp.MustCompile(number + `\s*([-+*/^])\s*` + number)
)

type Scripted struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewScripted returns a responder picking fillers from src. A nil source is
// seeded from the clock.
func NewScripted(src rand.Source) *Scripted {
	if src == nil {
		src = rand.NewSource(time.Now().UnixNano())
	}
	return &Scripted{rng: rand.New(src)}
}

func (s *Scripted) Respond(input string) string {
	text := strings.TrimSpace(input)

	if m := percentPattern.FindStringSubmatch(text); m != nil {
		p, x := parseNumber(m[1]), parseNumber(m[2])
		return fmt.Sprintf("%s%% of %s = %s", formatNumber(p), formatNumber(x), formatNumber(p*x/100))
	}

	if m := sqrtPattern.FindStringSubmatch(text); m != nil {
		x := parseNumber(firstNonEmpty(m[1:]...))
		if x < 0 {
			return NegativeRootReply
		}
		return fmt.Sprintf("√%s = %s", formatNumber(x), formatNumber(math.Sqrt(x)))
	}

	if m := arithmeticPattern.FindStringSubmatch(text); m != nil {
		a, op, b := parseNumber(m[1]), m[2], parseNumber(m[3])
		result, ok := evaluate(a, op, b)
		if !ok {
			return DivisionByZeroReply
		}
		return fmt.Sprintf("%s %s %s = %s", formatNumber(a), op, formatNumber(b), formatNumber(result))
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return Fillers[s.rng.Intn(len(Fillers))]
}

func evaluate(a float64, op string, b float64) (float64, bool) {
	switch op {
	case "+":
		return a + b, true
	case "-":
		return a - b, true
	case "*":
		return a * b, true
	case "/":
		if b == 0 {
			return 0, false
		}
		return a / b, true
	case "^":
		return math.Pow(a, b), true
	}
	return 0, false
}

func parseNumber(s string) float64 {
	v, err := strconv.ParseFloat(strings.Replace(s, ",", ".", 1), 64)
	if err != nil {
		return 0
	}
	return v
}

// formatNumber drops float noise past ten decimals and trailing zeros
func formatNumber(v float64) string {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return strconv.FormatFloat(v, 'g', -1, 64)
	}
	rounded := math.Round(v*1e10) / 1e10
	if rounded == 0 {
		rounded = 0
	}
	return strconv.FormatFloat(rounded, 'f', -1, 64)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
