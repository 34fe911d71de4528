// Package wrangle turns x86 instruction definition files into a single
// ragel grammar document for the decoder or the validator.
package wrangle

import (
	"errors"
	"io"
	"strings"

	"github.com/apparentlymart/x86-meta/grammar"
	"github.com/sirupsen/logrus"
)

var ErrNoInstructions = errors.New("no instructions selected")

// Options controls how a grammar document is generated.
type Options struct {
	Mode    grammar.Mode
	Bitness grammar.Bitness

	// ReverseOperands numbers operands starting from the last one, which
	// is the order the decoder prints them in.
	ReverseOperands bool

	// Filter is an optional glob pattern over instruction names. Only
	// matching instructions are emitted.
	Filter string

	Logger logrus.FieldLogger
}

func (o Options) logger() logrus.FieldLogger {
	if o.Logger != nil {
		return o.Logger
	}
	l := logrus.New()
	l.Out = io.Discard
	return l
}

// Generate builds the grammar document for the given definition files.
func Generate(opts Options, files ...string) (string, error) {
	var buf strings.Builder
	if err := GenerateTo(&buf, opts, files...); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// GenerateTo builds the grammar document for the given definition files
// and writes it to w. Nothing is written if generation fails.
func GenerateTo(w io.Writer, opts Options, files ...string) error {
	doc, err := Build(opts, files...)
	if err != nil {
		return err
	}
	return doc.WriteGrammar(w)
}
