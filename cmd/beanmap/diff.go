package main

import (
	"fmt"
	"strings"

	"github.com/scott-cotton/cli"
	diffpatch "github.com/sergi/go-diff/diffmatchpatch"

	"github.com/signadot/beanmap/encode"
	"github.com/signadot/beanmap/format"
	"github.com/signadot/beanmap/ir"
)

func diff(cfg *DiffConfig, cc *cli.Context, args []string) error {
	args, err := cfg.Diff.Parse(cc, args)
	if err != nil {
		return err
	}
	if len(args) != 2 {
		return fmt.Errorf("%w: diff requires 2 args, got %v", cli.ErrUsage, args)
	}
	var texts [2]string
	for i, arg := range args {
		y, err := getObjFile(cc, arg, cfg.inFormat())
		if err != nil {
			return fmt.Errorf("error decoding %s: %w", arg, err)
		}
		texts[i], err = canonText(y)
		if err != nil {
			return err
		}
	}
	out, differs := lineDiff(texts[0], texts[1])
	if !differs {
		return nil
	}
	if _, err := cc.Out.Write([]byte(out)); err != nil {
		return err
	}
	return cli.ExitCodeErr(1)
}

// canonText renders a document as indented json with type tags first.
func canonText(y *ir.Node) (string, error) {
	y = y.Clone()
	ir.HoistTags(y)
	d, err := encode.EncodeBytes(y, encode.EncodeFormat(format.JSONFormat), encode.EncodeIndent("  "))
	if err != nil {
		return "", err
	}
	return string(d), nil
}

// lineDiff returns a unified-style listing of the lines of a and b.
func lineDiff(a, b string) (string, bool) {
	dmp := diffpatch.New()
	ra, rb, lines := dmp.DiffLinesToRunes(a, b)
	diffs := dmp.DiffCharsToLines(dmp.DiffMainRunes(ra, rb, false), lines)
	var sb strings.Builder
	differs := false
	for _, d := range diffs {
		prefix := " "
		switch d.Type {
		case diffpatch.DiffDelete:
			prefix = "-"
			differs = true
		case diffpatch.DiffInsert:
			prefix = "+"
			differs = true
		}
		for _, line := range strings.SplitAfter(d.Text, "\n") {
			if line == "" {
				continue
			}
			sb.WriteString(prefix + line)
			if !strings.HasSuffix(line, "\n") {
				sb.WriteString("\n")
			}
		}
	}
	return sb.String(), differs
}
