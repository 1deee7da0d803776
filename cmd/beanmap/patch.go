package main

import (
	"fmt"

	jsonpatch "github.com/evanphx/json-patch"
	"github.com/scott-cotton/cli"

	"github.com/signadot/beanmap/encode"
	"github.com/signadot/beanmap/format"
	"github.com/signadot/beanmap/ir"
	"github.com/signadot/beanmap/parse"
)

func patch(cfg *PatchConfig, cc *cli.Context, args []string) error {
	args, err := cfg.PatchCmd.Parse(cc, args)
	if err != nil {
		return err
	}
	if cfg.Patch == "" {
		return fmt.Errorf("%w: patch requires -p patchfile", cli.ErrUsage)
	}
	d, err := readFile(cc, cfg.Patch)
	if err != nil {
		return err
	}
	ops, err := jsonpatch.DecodePatch(d)
	if err != nil {
		return fmt.Errorf("%w: patch %s: %w", cli.ErrUsage, cfg.Patch, err)
	}
	n := 0
	return eachDoc(cfg.MainConfig, cc, args, func(_ string, _ int, doc *ir.Node) error {
		res, err := applyPatch(ops, doc)
		if err != nil {
			return err
		}
		n++
		return writeDoc(cfg.MainConfig, cc, res, n == 1)
	})
}

func applyPatch(ops jsonpatch.Patch, doc *ir.Node) (*ir.Node, error) {
	d, err := encode.EncodeBytes(doc, encode.EncodeFormat(format.JSONFormat))
	if err != nil {
		return nil, err
	}
	out, err := ops.Apply(d)
	if err != nil {
		return nil, err
	}
	return parse.Parse(out)
}
