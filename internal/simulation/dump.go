package simulation

import (
	"bufio"
	"regexp"
	"strconv"
	"strings"
)

// maxLineSize bounds one console line; dumped arrays can be long.
const maxLineSize = 4 * 1024 * 1024

var dumpLine = regexp.MustCompile(`^(Main[\w.\[\]]*)\s*=\s*(.*?);?\s*$`)

// Value is one dumped variable: a numeric array (scalars have one element)
// or a string.
type Value struct {
	Numbers []float64
	Text    string
	IsText  bool
}

// ConsoleOutput is the parsed console output of one simulator run.
type ConsoleOutput struct {
	Values map[string]Value
	// Errors holds every line reporting a model or macro error, verbatim.
	Errors []string
}

// Failed reports whether the run printed any error line.
func (c ConsoleOutput) Failed() bool { return len(c.Errors) > 0 }

// ParseConsole extracts dumped variables and error lines from the simulator
// console output. Dumps have the form "Main.Path = value;" where value is a
// number, a quoted string or a brace-delimited, possibly nested, array. A
// dump may continue over several lines until its terminating semicolon.
func ParseConsole(text string) ConsoleOutput {
	out := ConsoleOutput{Values: make(map[string]Value)}

	sc := bufio.NewScanner(strings.NewReader(text))
	sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	var pending strings.Builder
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if strings.Contains(line, "ERROR(") {
			out.Errors = append(out.Errors, line)
			continue
		}
		if isDumpStart(line) {
			// A new dump abandons an unterminated one.
			pending.Reset()
		}
		if pending.Len() > 0 {
			pending.WriteString(" ")
			pending.WriteString(line)
			if !dumpComplete(pending.String()) {
				continue
			}
			line = pending.String()
			pending.Reset()
		} else if isDumpStart(line) && !dumpComplete(line) {
			pending.WriteString(line)
			continue
		}

		m := dumpLine.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		out.Values[m[1]] = parseValue(m[2])
	}
	return out
}

func isDumpStart(line string) bool {
	return strings.HasPrefix(line, "Main") && strings.Contains(line, "=")
}

// dumpComplete reports whether a dump has a value and balanced braces.
func dumpComplete(line string) bool {
	_, value, _ := strings.Cut(line, "=")
	value = strings.TrimSuffix(strings.TrimSpace(value), ";")
	if strings.TrimSpace(value) == "" {
		return false
	}
	return strings.Count(value, "{") <= strings.Count(value, "}")
}

func parseValue(raw string) Value {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, `"`) {
		if s, err := strconv.Unquote(raw); err == nil {
			return Value{Text: s, IsText: true}
		}
		return Value{Text: strings.Trim(raw, `"`), IsText: true}
	}

	fields := strings.FieldsFunc(raw, func(r rune) bool {
		return r == '{' || r == '}' || r == ',' || r == ' ' || r == '\t'
	})
	nums := make([]float64, 0, len(fields))
	for _, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return Value{Text: raw, IsText: true}
		}
		nums = append(nums, v)
	}
	return Value{Numbers: nums}
}

// Numbers returns the numeric array dumped for name.
func (c ConsoleOutput) Numbers(name string) ([]float64, bool) {
	v, ok := c.Values[name]
	if !ok || v.IsText {
		return nil, false
	}
	return v.Numbers, true
}

// Text returns the string dumped for name, or "" when it was not dumped.
func (c ConsoleOutput) Text(name string) string {
	v, ok := c.Values[name]
	if !ok {
		return ""
	}
	if v.IsText {
		return v.Text
	}
	return formatArray(v.Numbers...)
}
