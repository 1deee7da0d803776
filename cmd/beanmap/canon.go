package main

import (
	"fmt"

	"github.com/scott-cotton/cli"
	"go.uber.org/zap"

	"github.com/signadot/beanmap/ir"
)

func canon(cfg *CanonConfig, cc *cli.Context, args []string) error {
	args, err := cfg.Canon.Parse(cc, args)
	if err != nil {
		return err
	}
	misplaced := 0
	n := 0
	err = eachDoc(cfg.MainConfig, cc, args, func(file string, i int, doc *ir.Node) error {
		if cfg.Check {
			for _, site := range ir.Tags(doc) {
				if site.First {
					continue
				}
				misplaced++
				fmt.Fprintf(cc.Out, "%s:%d:%s\t%s\n", file, i, site.Path, site.Tag)
			}
			return nil
		}
		if moved := ir.HoistTags(doc); moved > 0 {
			cfg.log.Info("hoisted type tags", zap.String("file", file), zap.Int("document", i), zap.Int("objects", moved))
		}
		n++
		return writeDoc(cfg.MainConfig, cc, doc, n == 1)
	})
	if err != nil {
		return err
	}
	if misplaced > 0 {
		return cli.ExitCodeErr(1)
	}
	return nil
}
