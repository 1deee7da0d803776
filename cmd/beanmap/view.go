package main

import (
	"github.com/scott-cotton/cli"

	"github.com/signadot/beanmap/ir"
)

func view(cfg *ViewConfig, cc *cli.Context, args []string) error {
	args, err := cfg.View.Parse(cc, args)
	if err != nil {
		return err
	}
	n := 0
	return eachDoc(cfg.MainConfig, cc, args, func(_ string, _ int, doc *ir.Node) error {
		n++
		return writeDoc(cfg.MainConfig, cc, doc, n == 1)
	})
}
