// Package config loads a cavity assembly from a declarative build file.
//
// Build files are INI-style text: `[type name]` section headers, `key =
// value` entries, `#` comments. Entities are declared by name and
// referenced by name in coupling, pairing and reservoir sections; the
// builder resolves names to arena indices before the assembly is
// constructed. Parameter values may be numeric literals or random
// expressions (uniform, normal) drawn from an explicit seedable
// generator.
package config

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// Section is one `[type name]` block with its key/value entries. Sections
// keep file order: entity creation order, and therefore the state-vector
// layout, follows the order of declaration.
type Section struct {
	Type   string
	Name   string
	Values map[string]string
}

// Heading reconstructs the section header without brackets.
func (s *Section) Heading() string {
	if s.Name == "" {
		return s.Type
	}
	return s.Type + " " + s.Name
}

// Get returns the raw value for key, or def when absent.
func (s *Section) Get(key, def string) string {
	if v, ok := s.Values[key]; ok {
		return v
	}
	return def
}

// GetBool interprets true/1/yes (any case) as true.
func (s *Section) GetBool(key string, def bool) bool {
	v, ok := s.Values[key]
	if !ok {
		return def
	}
	switch strings.ToLower(v) {
	case "true", "1", "yes":
		return true
	default:
		return false
	}
}

// Parse reads a build file into its ordered section list.
func Parse(r io.Reader) ([]*Section, error) {
	var sections []*Section
	var current *Section

	scanner := bufio.NewScanner(r)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Text()

		if i := strings.IndexByte(line, '#'); i >= 0 {
			line = line[:i]
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "[") {
			if !strings.HasSuffix(line, "]") {
				return nil, fmt.Errorf("config: line %d: malformed section header: %s", lineNum, line)
			}
			heading := strings.TrimSpace(line[1 : len(line)-1])
			typ, name := heading, ""
			if i := strings.IndexByte(heading, ' '); i >= 0 {
				typ = heading[:i]
				name = strings.TrimSpace(heading[i+1:])
			}
			current = &Section{Type: typ, Name: name, Values: make(map[string]string)}
			sections = append(sections, current)
			continue
		}

		eq := strings.IndexByte(line, '=')
		if eq < 0 {
			return nil, fmt.Errorf("config: line %d: expected key = value, got: %s", lineNum, line)
		}
		if current == nil {
			return nil, fmt.Errorf("config: line %d: entry outside any section", lineNum)
		}
		key := strings.TrimSpace(line[:eq])
		value := strings.TrimSpace(line[eq+1:])
		current.Values[key] = value
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return sections, nil
}

// ParseFile reads and parses the build file at path.
func ParseFile(path string) ([]*Section, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Parse(f)
}
