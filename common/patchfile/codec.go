// Package patchfile reads and writes the line-oriented text files that
// describe a patch: the object list handed to the builder and the dependency
// list handed to the installer.
//
// Object list lines:
//
//	script <path>
//	<schema> <name> <type>
//	<schema> <name> function ( <arg1> <arg2> ... )
//
// Dependency list lines are always <schema> <name> <type>, functions included.
package patchfile

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/lyzr/dbpatcher/common/models"
)

var (
	// ErrParse is returned when a line matches none of the known shapes
	ErrParse = errors.New("malformed patch file line")

	// ErrEncode is returned when an element cannot be written in a form that parses back
	ErrEncode = errors.New("element cannot be encoded")
)

const (
	scriptToken   = "script"
	functionToken = "function"
	openParen     = "("
	closeParen    = ")"
)

// shape recognises one kind of line from its tokens
type shape func(tokens []string) (models.Element, bool)

// Shapes are tried in order. Plain objects come before functions so that a
// line like "s f table" can never be read as anything else.
var (
	objectListShapes     = []shape{plainObjectShape(objectTypes), scriptShape, functionShape}
	dependencyListShapes = []shape{plainObjectShape(dependencyTypes)}

	objectTypes = map[models.ObjectType]bool{
		models.TypeTable:    true,
		models.TypeSequence: true,
		models.TypeView:     true,
		models.TypeTrigger:  true,
		models.TypeIndex:    true,
	}
	dependencyTypes = map[models.ObjectType]bool{
		models.TypeTable:    true,
		models.TypeSequence: true,
		models.TypeView:     true,
		models.TypeTrigger:  true,
		models.TypeIndex:    true,
		models.TypeFunction: true,
	}
)

// tokenize splits a line on spaces, dropping empty tokens and a trailing CR
func tokenize(line string) []string {
	line = strings.TrimSuffix(line, "\r")

	parts := strings.Split(line, " ")
	tokens := parts[:0]
	for _, p := range parts {
		if p != "" {
			tokens = append(tokens, p)
		}
	}
	return tokens
}

func plainObjectShape(allowed map[models.ObjectType]bool) shape {
	return func(tokens []string) (models.Element, bool) {
		if len(tokens) != 3 {
			return models.Element{}, false
		}
		typ := models.ObjectType(tokens[2])
		if !allowed[typ] {
			return models.Element{}, false
		}
		return models.NewElement(typ, tokens[0], tokens[1], nil), true
	}
}

func scriptShape(tokens []string) (models.Element, bool) {
	if len(tokens) != 2 || tokens[0] != scriptToken {
		return models.Element{}, false
	}
	return models.NewElement(models.TypeScript, "", tokens[1], nil), true
}

func functionShape(tokens []string) (models.Element, bool) {
	// schema name function ( ... )
	if len(tokens) < 5 {
		return models.Element{}, false
	}
	if tokens[2] != functionToken || tokens[3] != openParen || tokens[len(tokens)-1] != closeParen {
		return models.Element{}, false
	}

	params := tokens[4 : len(tokens)-1]
	for _, p := range params {
		if strings.ContainsAny(p, ",()") {
			return models.Element{}, false
		}
	}

	return models.NewElement(models.TypeFunction, tokens[0], tokens[1], params), true
}

// ParseObjectLine parses a single object-list line
func ParseObjectLine(line string) (models.Element, error) {
	return parseLine(line, objectListShapes)
}

// ParseDependencyLine parses a single dependency-list line
func ParseDependencyLine(line string) (models.Element, error) {
	return parseLine(line, dependencyListShapes)
}

func parseLine(line string, shapes []shape) (models.Element, error) {
	tokens := tokenize(line)
	for _, match := range shapes {
		if e, ok := match(tokens); ok {
			return e, nil
		}
	}
	return models.Element{}, fmt.Errorf("%w: %q", ErrParse, line)
}

// ParseObjectList reads an object list. Blank lines are skipped; any other
// unrecognised line fails the whole list.
func ParseObjectList(r io.Reader) (*models.PatchList, error) {
	return parseList(r, objectListShapes)
}

// ParseDependencyList reads a dependency list with the same rules as ParseObjectList
func ParseDependencyList(r io.Reader) (*models.PatchList, error) {
	return parseList(r, dependencyListShapes)
}

func parseList(r io.Reader, shapes []shape) (*models.PatchList, error) {
	list := &models.PatchList{}
	scanner := bufio.NewScanner(r)
	lineNo := 0

	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if strings.TrimSuffix(line, "\r") == "" {
			continue
		}

		e, err := parseLine(line, shapes)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		list.Append(e)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read patch file: %w", err)
	}

	return list, nil
}

// EncodeObjectLine formats an element as an object-list line, without terminator
func EncodeObjectLine(e models.Element) (string, error) {
	if err := checkTokens(e); err != nil {
		return "", err
	}

	switch e.Type() {
	case models.TypeScript:
		return scriptToken + " " + e.Name(), nil
	case models.TypeFunction:
		return e.Schema() + " " + e.Name() + " " + functionToken + " " + ParametersString(e.Parameters()), nil
	default:
		return e.Schema() + " " + e.Name() + " " + string(e.Type()), nil
	}
}

// EncodeDependencyLine formats an element as a dependency-list line, without terminator
func EncodeDependencyLine(e models.Element) (string, error) {
	if !dependencyTypes[e.Type()] {
		return "", fmt.Errorf("%w: %s cannot be a dependency", ErrEncode, e.Type())
	}
	if err := checkTokens(e); err != nil {
		return "", err
	}
	return e.Schema() + " " + e.Name() + " " + string(e.Type()), nil
}

// ParametersString formats function parameters as "( a b )", or "( )" when empty
func ParametersString(parameters []string) string {
	var b strings.Builder
	b.WriteString("( ")
	for _, p := range parameters {
		b.WriteString(p)
		b.WriteString(" ")
	}
	b.WriteString(")")
	return b.String()
}

// EncodeObjectList formats every element of the list, one terminated line each
func EncodeObjectList(list *models.PatchList) ([]byte, error) {
	return encodeList(list, EncodeObjectLine)
}

// EncodeDependencyList formats every element of the list as a dependency line
func EncodeDependencyList(list *models.PatchList) ([]byte, error) {
	return encodeList(list, EncodeDependencyLine)
}

func encodeList(list *models.PatchList, encode func(models.Element) (string, error)) ([]byte, error) {
	var b strings.Builder
	for i, e := range list.Elements() {
		line, err := encode(e)
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	return []byte(b.String()), nil
}

// checkTokens rejects elements whose fields would not survive a round trip
func checkTokens(e models.Element) error {
	if !e.Type().IsValid() {
		return fmt.Errorf("%w: unknown type %q", ErrEncode, e.Type())
	}
	if e.Type().IsSchemaObject() {
		if err := checkToken("schema", e.Schema()); err != nil {
			return err
		}
	}
	if err := checkToken("name", e.Name()); err != nil {
		return err
	}
	if e.Type() == models.TypeFunction {
		for _, p := range e.Parameters() {
			if err := checkToken("parameter", p); err != nil {
				return err
			}
			if strings.ContainsAny(p, ",()") {
				return fmt.Errorf("%w: parameter %q", ErrEncode, p)
			}
		}
	}
	return nil
}

func checkToken(field, value string) error {
	if value == "" {
		return fmt.Errorf("%w: empty %s", ErrEncode, field)
	}
	if strings.ContainsAny(value, " \t\r\n") {
		return fmt.Errorf("%w: %s %q contains whitespace", ErrEncode, field, value)
	}
	return nil
}
