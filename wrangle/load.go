package wrangle

import (
	"fmt"
	"io"
	"os"

	"github.com/apparentlymart/x86-meta/grammar"
	"github.com/apparentlymart/x86-meta/variants"
	"github.com/apparentlymart/x86-meta/x86def"
	"github.com/sirupsen/logrus"
)

// Build loads, expands and emits every selected record of the given
// definition files.
func Build(opts Options, files ...string) (*Document, error) {
	sel, err := newSelector(opts)
	if err != nil {
		return nil, err
	}

	doc := &Document{
		Options: opts,
		Files:   files,
		Names:   NewNameRegistry(),
	}
	for _, filename := range files {
		if err := doc.loadFile(filename, sel); err != nil {
			return nil, err
		}
	}

	if len(doc.Blocks) == 0 {
		return nil, ErrNoInstructions
	}
	return doc, nil
}

func (d *Document) loadFile(filename string, sel *selector) error {
	f, err := os.Open(filename)
	if err != nil {
		return fmt.Errorf("failed to load instruction definitions: %w", err)
	}
	defer f.Close()

	return d.load(filename, f, sel)
}

func (d *Document) load(filename string, r io.Reader, sel *selector) error {
	log := d.Options.logger().WithField("file", filename)

	records, err := x86def.ReadRecords(r)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", filename, err)
	}

	stats := &FileStats{File: filename, Records: len(records)}
	for _, rec := range records {
		block, err := d.buildBlock(filename, rec, sel)
		if err != nil {
			return &RecordError{
				File:   filename,
				Line:   rec.Line,
				Record: rec.Text,
				Err:    err,
			}
		}
		if block == nil {
			log.WithField("line", rec.Line).Debugf("skipping %q", rec.Text)
			continue
		}

		if err := d.Names.Register(block.Instruction.Name); err != nil {
			return &RecordError{
				File:   filename,
				Line:   rec.Line,
				Record: rec.Text,
				Err:    err,
			}
		}

		stats.Selected++
		stats.Variants += len(block.Variants)
		stats.Bytes += len(block.String())
		d.Blocks = append(d.Blocks, block)
	}
	d.Stats = append(d.Stats, stats)

	log.WithFields(logrus.Fields{
		"records":  stats.Records,
		"selected": stats.Selected,
		"variants": stats.Variants,
	}).Info("loaded instruction definitions")

	return nil
}

// buildBlock returns nil without an error if the record is not selected
// for this document.
func (d *Document) buildBlock(filename string, rec x86def.Record, sel *selector) (*Block, error) {
	inst, err := x86def.ParseInstruction(rec.Text)
	if err != nil {
		return nil, err
	}
	if err := x86def.CollectPrefixes(inst); err != nil {
		return nil, err
	}
	if !sel.Selects(inst) {
		return nil, nil
	}

	bitness := int(d.Options.Bitness)
	vs, err := variants.Expand(bitness, inst)
	if err != nil {
		return nil, err
	}

	block := &Block{
		File:        filename,
		Record:      rec,
		Instruction: inst,
		Variants:    vs,
		Grammar:     make([]string, len(vs)),
	}
	for i, v := range vs {
		block.Grammar[i], err = grammar.Emit(d.Options.Mode, bitness, v, d.Options.ReverseOperands)
		if err != nil {
			return nil, err
		}
	}
	return block, nil
}
