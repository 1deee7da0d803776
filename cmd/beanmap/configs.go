package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/scott-cotton/cli"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/signadot/beanmap/beans"
	"github.com/signadot/beanmap/encode"
	"github.com/signadot/beanmap/format"
	"github.com/signadot/beanmap/parse"
)

type MainConfig struct {
	Color   bool   `cli:"name=color desc='encode with color'"`
	Indent  bool   `cli:"name=indent desc='indent json output'"`
	Level   string `cli:"name=log desc='log level: debug, info, warn, error'"`
	LogJSON bool   `cli:"name=logjson desc='log in json'"`

	J bool `cli:"name=j aliases=json desc='do i/o in json'"`
	Y bool `cli:"name=y aliases=yaml desc='do i/o in yaml'"`
	M bool `cli:"name=m aliases=msgpack desc='do i/o in msgpack'"`

	InFormat, OutFormat *format.Format

	Out      string
	CloseOut func() error

	Main *cli.Command

	log    *zap.Logger
	mapper *beans.Mapper
}

func (cfg *MainConfig) fmtFunc(fps ...**format.Format) cli.FuncOpt {
	return cli.FuncOpt(func(_ *cli.Context, v string) (any, error) {
		f, err := format.ParseFormat(v)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", cli.ErrUsage, err)
		}
		for _, fp := range fps {
			*fp = &f
		}
		return f, nil
	})
}

// setup builds the logger and the mapper shared by the subcommands.
func (cfg *MainConfig) setup() error {
	log, err := setupLogger(cfg.Level, cfg.LogJSON)
	if err != nil {
		return err
	}
	cfg.log = log
	m, err := beans.NewMapper(beans.WithLogger(log))
	if err != nil {
		return err
	}
	cfg.mapper = m
	return nil
}

// setupLogger builds a console (or json) logger writing to stderr.
func setupLogger(lvl string, asJSON bool) (*zap.Logger, error) {
	level := zap.NewAtomicLevel()
	switch strings.ToLower(lvl) {
	case "debug":
		level.SetLevel(zap.DebugLevel)
	case "info":
		level.SetLevel(zap.InfoLevel)
	case "", "warn", "warning":
		level.SetLevel(zap.WarnLevel)
	case "error":
		level.SetLevel(zap.ErrorLevel)
	default:
		return nil, fmt.Errorf("%w: unknown log level %q", cli.ErrUsage, lvl)
	}
	encCfg := zap.NewDevelopmentEncoderConfig()
	encCfg.TimeKey = ""
	var enc zapcore.Encoder
	if asJSON {
		enc = zapcore.NewJSONEncoder(encCfg)
	} else {
		enc = zapcore.NewConsoleEncoder(encCfg)
	}
	core := zapcore.NewCore(enc, zapcore.Lock(os.Stderr), level)
	return zap.New(core), nil
}

func (cfg *MainConfig) inFormat() format.Format {
	var fmat format.Format
	switch {
	case cfg.Y:
		fmat = format.YAMLFormat
	case cfg.M:
		fmat = format.MsgpackFormat
	case cfg.J:
		fmat = format.JSONFormat
	}
	if cfg.InFormat != nil {
		fmat = *cfg.InFormat
	}
	return fmat
}

func (cfg *MainConfig) outFormat() format.Format {
	fmat := cfg.inFormat()
	if cfg.OutFormat != nil {
		fmat = *cfg.OutFormat
	}
	return fmat
}

func (cfg *MainConfig) parseOpts() []parse.ParseOption {
	return []parse.ParseOption{parse.ParseFormat(cfg.inFormat())}
}

func (cfg *MainConfig) encOpts(w io.Writer) []encode.EncodeOption {
	res := []encode.EncodeOption{
		encode.EncodeFormat(cfg.outFormat()),
	}
	if cfg.Indent {
		res = append(res, encode.EncodeIndent("  "))
	}
	if !cfg.outFormat().IsJSON() {
		return res
	}
	if cfg.Color {
		res = append(res, encode.EncodeColors(encode.NewColors()))
		return res
	}
	colorsSet := false
	for _, opt := range cfg.Main.Opts {
		if opt.Name != "color" {
			continue
		}
		colorsSet = opt.Value != nil
		break
	}
	if colorsSet {
		return res
	}
	f, ok := w.(*os.File)
	if !ok {
		return res
	}
	if isatty.IsTerminal(f.Fd()) {
		res = append(res, encode.EncodeColors(encode.NewColors()))
	}
	return res
}

type ViewConfig struct {
	*MainConfig

	View *cli.Command
}

type CanonConfig struct {
	*MainConfig
	Check bool `cli:"name=check desc='only report objects whose tag is not first'"`

	Canon *cli.Command
}

type TagsConfig struct {
	*MainConfig
	Aliases string `cli:"name=aliases desc='yaml file mapping old tags to new tags'"`

	Tags *cli.Command
}

type EvalConfig struct {
	*MainConfig
	Expr string `cli:"name=e desc='expression to evaluate'"`

	Eval *cli.Command
}

type DiffConfig struct {
	*MainConfig

	Diff *cli.Command
}

type PatchConfig struct {
	*MainConfig
	Patch string `cli:"name=p desc='json patch file'"`

	PatchCmd *cli.Command
}
