package main

import (
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/scott-cotton/cli"

	"github.com/signadot/beanmap/ir"
)

func eval(cfg *EvalConfig, cc *cli.Context, args []string) error {
	args, err := cfg.Eval.Parse(cc, args)
	if err != nil {
		return err
	}
	if cfg.Expr == "" {
		return fmt.Errorf("%w: eval requires -e expr", cli.ErrUsage)
	}
	n := 0
	return eachDoc(cfg.MainConfig, cc, args, func(_ string, _ int, doc *ir.Node) error {
		var v any
		if err := cfg.mapper.FromIR(doc, &v); err != nil {
			return err
		}
		env := map[string]any{"doc": v}
		prg, err := expr.Compile(cfg.Expr, append(exprOpts(), expr.Env(env))...)
		if err != nil {
			return fmt.Errorf("%w: %w", cli.ErrUsage, err)
		}
		res, err := expr.Run(prg, env)
		if err != nil {
			return err
		}
		out, err := cfg.mapper.ToIR(res)
		if err != nil {
			return err
		}
		n++
		return writeDoc(cfg.MainConfig, cc, out, n == 1)
	})
}

func exprOpts() []expr.Option {
	return []expr.Option{
		expr.Function("tagof", func(params ...any) (any, error) {
			m, ok := params[0].(map[string]any)
			if !ok {
				return "", nil
			}
			tag, _ := m[ir.TypeTagKey].(string)
			return tag, nil
		},
			new(func(any) string)),
	}
}
