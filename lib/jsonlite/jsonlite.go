// Copyright 2026 The Mavenport Authors
// SPDX-License-Identifier: Apache-2.0

// Package jsonlite extracts named fields from JSON documents with a
// deliberately constrained grammar:
//
//	value ::= object | array-of-string | boolean | string
//
// That is all the Portal publisher API responses use, and all this
// package knows. Numbers, null, and nested non-string arrays fail
// loudly instead of being coerced. Strings may be delimited by single
// or double quotes (the opening quote picks the closing one), and a
// backslash escapes the following character; extracted string content
// is returned with its escapes intact.
//
// Decode failures report the 1-based line and column of the break
// point, the field being extracted, and the full document, so a
// malformed service response can be diagnosed from the error alone.
package jsonlite

import (
	"fmt"
	"sort"
	"strings"
)

// Kind discriminates the variants a Value can hold.
type Kind int

const (
	// KindString is a quoted string value.
	KindString Kind = iota
	// KindBool is a true/false literal.
	KindBool
	// KindStrings is an array whose elements are all strings.
	KindStrings
	// KindObject is an object whose field values are Values.
	KindObject
)

// Value is the sum-typed result of a field extraction. Exactly one of
// the payload fields is meaningful, selected by Kind. Callers must
// switch on Kind and handle the shape they expect.
type Value struct {
	Kind    Kind
	Str     string
	Bool    bool
	Strings []string
	Object  map[string]Value
}

// String renders the value for diagnostic messages. Object fields are
// sorted for stable output.
func (v Value) String() string {
	switch v.Kind {
	case KindString:
		return v.Str
	case KindBool:
		if v.Bool {
			return "true"
		}
		return "false"
	case KindStrings:
		return "[" + strings.Join(v.Strings, ", ") + "]"
	case KindObject:
		names := make([]string, 0, len(v.Object))
		for name := range v.Object {
			names = append(names, name)
		}
		sort.Strings(names)
		parts := make([]string, 0, len(names))
		for _, name := range names {
			parts = append(parts, name+": "+v.Object[name].String())
		}
		return "{" + strings.Join(parts, ", ") + "}"
	default:
		return fmt.Sprintf("unknown(%d)", v.Kind)
	}
}

// DecodeError reports a malformed document. Line and Column are
// 1-based and locate the exact break point.
type DecodeError struct {
	Field  string
	Line   int
	Column int
	Reason string
	Doc    string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("jsonlite: field %q: %s at line:%d, column:%d in document:\n%s",
		e.Field, e.Reason, e.Line, e.Column, e.Doc)
}

// Extract finds the named field in the document and decodes the value
// that follows it. The field name is located as a quoted token
// (single or double quotes), optionally followed by whitespace and a
// colon before the value.
func Extract(doc, field string) (Value, error) {
	pos := strings.Index(doc, "'"+field+"'")
	if pos < 0 {
		pos = strings.Index(doc, `"`+field+`"`)
	}
	if pos < 0 {
		return Value{}, fmt.Errorf("jsonlite: field %q not found in document:\n%s", field, doc)
	}

	d := &decoder{doc: doc, field: field, pos: pos + len(field) + 2}
	d.skipFieldSeparator()
	value, err := d.decodeValue()
	if err != nil {
		return Value{}, err
	}
	return value, nil
}

// ExtractString is Extract constrained to a string-valued field.
func ExtractString(doc, field string) (string, error) {
	value, err := Extract(doc, field)
	if err != nil {
		return "", err
	}
	if value.Kind != KindString {
		return "", fmt.Errorf("jsonlite: field %q is not a string value", field)
	}
	return value.Str, nil
}

// decoder is a recursive-descent scanner over the constrained grammar.
// pos is a byte offset into doc; errors translate it to line/column.
type decoder struct {
	doc   string
	field string
	pos   int
}

func (d *decoder) errorAt(reason string) error {
	line := 1 + strings.Count(d.doc[:d.pos], "\n")
	lastNewline := strings.LastIndexByte(d.doc[:d.pos], '\n')
	column := d.pos - lastNewline
	if lastNewline < 0 {
		column = d.pos + 1
	}
	return &DecodeError{
		Field:  d.field,
		Line:   line,
		Column: column,
		Reason: reason,
		Doc:    d.doc,
	}
}

func (d *decoder) skipSpace() {
	for d.pos < len(d.doc) && isSpace(d.doc[d.pos]) {
		d.pos++
	}
}

// skipFieldSeparator consumes the optional whitespace and colon
// between a field name and its value.
func (d *decoder) skipFieldSeparator() {
	for d.pos < len(d.doc) && (isSpace(d.doc[d.pos]) || d.doc[d.pos] == ':') {
		d.pos++
	}
}

// decodeValue dispatches on the first significant character.
func (d *decoder) decodeValue() (Value, error) {
	d.skipSpace()
	if d.pos >= len(d.doc) {
		return Value{}, d.errorAt("unexpected end of document, expected a value")
	}

	switch c := d.doc[d.pos]; c {
	case '{':
		return d.decodeObject()
	case '[':
		return d.decodeStrings()
	case 't', 'f':
		return d.decodeBool()
	case '\'', '"':
		text, err := d.decodeString()
		if err != nil {
			return Value{}, err
		}
		return Value{Kind: KindString, Str: text}, nil
	default:
		return Value{}, d.errorAt(fmt.Sprintf("unsupported value starting with %q (numbers and null are not handled)", c))
	}
}

// decodeString scans a quoted string starting at the current position.
// The opening quote determines the closing quote. A backslash escapes
// the next character; escapes are preserved in the returned content.
func (d *decoder) decodeString() (string, error) {
	quote := d.doc[d.pos]
	d.pos++

	var content strings.Builder
	escaped := false
	for d.pos < len(d.doc) {
		c := d.doc[d.pos]
		if !escaped && c == quote {
			d.pos++
			return content.String(), nil
		}
		escaped = !escaped && c == '\\'
		content.WriteByte(c)
		d.pos++
	}
	return "", d.errorAt("unterminated string")
}

func (d *decoder) decodeBool() (Value, error) {
	switch {
	case strings.HasPrefix(d.doc[d.pos:], "true"):
		d.pos += len("true")
		return Value{Kind: KindBool, Bool: true}, nil
	case strings.HasPrefix(d.doc[d.pos:], "false"):
		d.pos += len("false")
		return Value{Kind: KindBool, Bool: false}, nil
	default:
		return Value{}, d.errorAt("invalid literal, expected true or false")
	}
}

// decodeStrings scans an array whose elements must all be strings.
func (d *decoder) decodeStrings() (Value, error) {
	d.pos++ // consume '['
	elements := []string{}

	d.skipSpace()
	if d.pos < len(d.doc) && d.doc[d.pos] == ']' {
		d.pos++
		return Value{Kind: KindStrings, Strings: elements}, nil
	}

	for {
		d.skipSpace()
		if d.pos >= len(d.doc) {
			return Value{}, d.errorAt("unterminated array")
		}
		if c := d.doc[d.pos]; c != '\'' && c != '"' {
			return Value{}, d.errorAt(fmt.Sprintf("array element starting with %q is not a string", c))
		}
		element, err := d.decodeString()
		if err != nil {
			return Value{}, err
		}
		elements = append(elements, element)

		d.skipSpace()
		if d.pos >= len(d.doc) {
			return Value{}, d.errorAt("unterminated array")
		}
		switch d.doc[d.pos] {
		case ',':
			d.pos++
		case ']':
			d.pos++
			return Value{Kind: KindStrings, Strings: elements}, nil
		default:
			return Value{}, d.errorAt("expected ',' or ']' in array")
		}
	}
}

// decodeObject scans an object whose field values are constrained
// Values.
func (d *decoder) decodeObject() (Value, error) {
	d.pos++ // consume '{'
	fields := map[string]Value{}

	d.skipSpace()
	if d.pos < len(d.doc) && d.doc[d.pos] == '}' {
		d.pos++
		return Value{Kind: KindObject, Object: fields}, nil
	}

	for {
		d.skipSpace()
		if d.pos >= len(d.doc) {
			return Value{}, d.errorAt("unterminated object")
		}
		if c := d.doc[d.pos]; c != '\'' && c != '"' {
			return Value{}, d.errorAt("object field name is not quoted")
		}
		name, err := d.decodeString()
		if err != nil {
			return Value{}, err
		}

		d.skipFieldSeparator()
		value, err := d.decodeValue()
		if err != nil {
			return Value{}, err
		}
		fields[name] = value

		d.skipSpace()
		if d.pos >= len(d.doc) {
			return Value{}, d.errorAt("unterminated object")
		}
		switch d.doc[d.pos] {
		case ',':
			d.pos++
		case '}':
			d.pos++
			return Value{Kind: KindObject, Object: fields}, nil
		default:
			return Value{}, d.errorAt("expected ',' or '}' in object")
		}
	}
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}
