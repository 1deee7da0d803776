package main

import (
	"fmt"

	"github.com/goccy/go-yaml"
	"github.com/scott-cotton/cli"
	"go.uber.org/zap"

	"github.com/signadot/beanmap/ir"
)

func tags(cfg *TagsConfig, cc *cli.Context, args []string) error {
	args, err := cfg.Tags.Parse(cc, args)
	if err != nil {
		return err
	}
	if cfg.Aliases == "" {
		return eachDoc(cfg.MainConfig, cc, args, func(file string, i int, doc *ir.Node) error {
			for _, site := range ir.Tags(doc) {
				fmt.Fprintf(cc.Out, "%s:%d:%s\t%s\n", file, i, site.Path, site.Tag)
			}
			return nil
		})
	}
	aliases, err := loadAliases(cc, cfg.Aliases)
	if err != nil {
		return err
	}
	n := 0
	return eachDoc(cfg.MainConfig, cc, args, func(file string, i int, doc *ir.Node) error {
		changed := ir.Retag(doc, func(tag string) (string, bool) {
			nt, ok := aliases[tag]
			return nt, ok
		})
		cfg.log.Debug("retagged", zap.String("file", file), zap.Int("document", i), zap.Int("tags", changed))
		n++
		return writeDoc(cfg.MainConfig, cc, doc, n == 1)
	})
}

// loadAliases reads a yaml mapping from old tags to new tags.
func loadAliases(cc *cli.Context, path string) (map[string]string, error) {
	d, err := readFile(cc, path)
	if err != nil {
		return nil, err
	}
	res := map[string]string{}
	if err := yaml.Unmarshal(d, &res); err != nil {
		return nil, fmt.Errorf("%w: aliases %s: %w", cli.ErrUsage, path, err)
	}
	return res, nil
}
