// Package convert turns molecule line notation into graph objects.
//
// A Converter is built for a (source, destination) format pair and is applied
// to one representation at a time. The destination format doubles as the
// provenance tag stored with assembled datasets.
package convert

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Noofbiz/molprep/smiles"
)

var (
	// ErrConversion wraps any failure to convert a single representation.
	ErrConversion = errors.New("convert: conversion failed")

	// ErrUnsupportedFormat is returned by NewConverter for unknown formats.
	ErrUnsupportedFormat = errors.New("convert: unsupported format")
)

// Source formats.
const (
	FormatSMILES = "smiles"
)

// Destination formats, also used as provenance tags.
const (
	FormatGonum  = "gonum"
	FormatTensor = "tensor"
)

// Converter maps one representation to one graph.
type Converter interface {
	Convert(representation string) (any, error)
	// Source names the graph format produced.
	Source() string
}

// MolConverter converts SMILES strings into one of the supported graph formats.
type MolConverter struct {
	src, dst string
	build    func(*smiles.Molecule) any
}

// NewConverter returns a converter from src to dst. Format names are
// case-insensitive; src must be "SMILES" and dst one of "gonum" or "tensor".
func NewConverter(src, dst string) (*MolConverter, error) {
	s := strings.ToLower(strings.TrimSpace(src))
	d := strings.ToLower(strings.TrimSpace(dst))
	if s != FormatSMILES {
		return nil, fmt.Errorf("%w: source %q", ErrUnsupportedFormat, src)
	}

	c := &MolConverter{src: s, dst: d}
	switch d {
	case FormatGonum:
		c.build = func(m *smiles.Molecule) any { return NewMolGraph(m) }
	case FormatTensor:
		c.build = func(m *smiles.Molecule) any { return NewTensorGraph(m) }
	default:
		return nil, fmt.Errorf("%w: destination %q", ErrUnsupportedFormat, dst)
	}
	return c, nil
}

// Convert parses representation and builds the destination graph.
func (c *MolConverter) Convert(representation string) (any, error) {
	m, err := smiles.Parse(representation)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %w", ErrConversion, representation, err)
	}
	return c.build(m), nil
}

// Source returns the destination format name.
func (c *MolConverter) Source() string { return c.dst }

// Format returns the (source, destination) pair.
func (c *MolConverter) Format() (src, dst string) { return c.src, c.dst }

// Func adapts a plain function to the Converter interface.
type Func struct {
	Tag string
	Fn  func(string) (any, error)
}

// Convert calls f.Fn, wrapping failures in ErrConversion.
func (f Func) Convert(representation string) (any, error) {
	g, err := f.Fn(representation)
	if err != nil {
		if errors.Is(err, ErrConversion) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %q: %w", ErrConversion, representation, err)
	}
	return g, nil
}

// Source returns f.Tag.
func (f Func) Source() string { return f.Tag }
