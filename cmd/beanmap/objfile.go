package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/scott-cotton/cli"

	"github.com/signadot/beanmap/encode"
	"github.com/signadot/beanmap/format"
	"github.com/signadot/beanmap/ir"
	"github.com/signadot/beanmap/parse"
	"github.com/signadot/beanmap/stream"
)

func readFile(cc *cli.Context, path string) ([]byte, error) {
	var r io.Reader
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	} else {
		r = cc.In
	}
	d, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("error reading %q: %w", path, err)
	}
	return d, nil
}

func getObjFile(cc *cli.Context, path string, f format.Format) (*ir.Node, error) {
	d, err := readFile(cc, path)
	if err != nil {
		return nil, err
	}
	return parse.Parse(d, parse.ParseFormat(f))
}

// getDocs reads every document of a file: whitespace separated values
// in json, "---" separated documents in yaml.
func getDocs(cc *cli.Context, path string, f format.Format) ([]*ir.Node, error) {
	d, err := readFile(cc, path)
	if err != nil {
		return nil, err
	}
	return splitDocs(d, f)
}

func splitDocs(d []byte, f format.Format) ([]*ir.Node, error) {
	var res []*ir.Node
	switch f {
	case format.JSONFormat:
		dec := stream.NewDecoder(bytes.NewReader(d))
		for {
			if _, err := dec.PeekEvent(); err != nil {
				if errors.Is(err, io.EOF) {
					return res, nil
				}
				return nil, err
			}
			node, err := stream.ReadNode(dec)
			if err != nil {
				return nil, fmt.Errorf("document %d: %w", len(res), err)
			}
			res = append(res, node)
		}
	case format.YAMLFormat:
		for i, doc := range bytes.Split(d, []byte("\n---\n")) {
			if len(bytes.TrimSpace(doc)) == 0 {
				continue
			}
			node, err := parse.Parse(doc, parse.ParseFormat(f))
			if err != nil {
				return nil, fmt.Errorf("document %d: %w", i, err)
			}
			res = append(res, node)
		}
		return res, nil
	default:
		node, err := parse.Parse(d, parse.ParseFormat(f))
		if err != nil {
			return nil, err
		}
		return []*ir.Node{node}, nil
	}
}

// eachDoc calls f on every document of the named files, or of standard
// input when there are none.
func eachDoc(cfg *MainConfig, cc *cli.Context, files []string, f func(file string, i int, doc *ir.Node) error) error {
	if len(files) == 0 {
		files = []string{"-"}
	}
	for _, file := range files {
		docs, err := getDocs(cc, file, cfg.inFormat())
		if err != nil {
			return fmt.Errorf("error decoding %s: %w", file, err)
		}
		for i, doc := range docs {
			if err := f(file, i, doc); err != nil {
				return fmt.Errorf("error processing %s: %w", file, err)
			}
		}
	}
	return nil
}

// writeDoc encodes one output document, separating yaml documents.
func writeDoc(cfg *MainConfig, cc *cli.Context, node *ir.Node, first bool) error {
	w := cc.Out
	if !first && cfg.outFormat() == format.YAMLFormat {
		if _, err := w.Write([]byte("---\n")); err != nil {
			return err
		}
	}
	if err := encode.Encode(node, w, cfg.encOpts(w)...); err != nil {
		return fmt.Errorf("error encoding result: %w", err)
	}
	return nil
}
