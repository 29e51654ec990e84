// Package main is an interactive demo: it wires hydra instances onto
// a tcell terminal host. Definitions come from a Lua script or a
// JSON/YAML/TOML file; without one a built-in scroll hydra is used.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gdamore/tcell/v2"

	"github.com/dshills/hydra"
	"github.com/dshills/hydra/config"
	"github.com/dshills/hydra/head"
	"github.com/dshills/hydra/host"
	"github.com/dshills/hydra/key"
	"github.com/dshills/hydra/layer"
	"github.com/dshills/hydra/logging"
	"github.com/dshills/hydra/luaconf"
)

func main() {
	os.Exit(run())
}

func run() int {
	var defPath string
	var debug bool
	flag.StringVar(&defPath, "defs", "", "Path to a definition file (.lua, .json, .yaml, .toml)")
	flag.BoolVar(&debug, "debug", false, "Log transitions to hydra-demo.log")
	flag.Parse()

	log := logging.Null()
	if debug {
		f, err := os.Create("hydra-demo.log")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
		defer f.Close()
		log = logging.New(f, logging.LevelDebug)
	}

	term, err := host.NewTerminal("n", log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to create terminal: %v\n", err)
		return 1
	}

	cfgs, cleanup, err := loadDefinitions(defPath, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	defer cleanup()

	var instances []*hydra.Instance
	for _, cfg := range cfgs {
		inst, err := hydra.New(cfg, term.Host())
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: instance %q: %v\n", cfg.Name, err)
			return 1
		}
		instances = append(instances, inst)
	}
	defer func() {
		for _, inst := range instances {
			_ = inst.Destroy()
		}
	}()

	var typed []string
	term.OnKey = func(ev key.Event) {
		typed = append(typed, ev.String())
		if len(typed) > 40 {
			typed = typed[len(typed)-40:]
		}
	}
	term.OnDraw = func(screen tcell.Screen) {
		drawHelp(screen, instances, typed)
	}

	// Ctrl-q quits.
	err = term.Router().Bind("n", key.MustParseSequence("<C-q>"), "demo/quit",
		term.Stop, layer.BindOptions{Desc: "quit", Nowait: true})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	if err := term.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

// loadDefinitions resolves the instance configs and a cleanup hook
// that must run after the instances are destroyed.
func loadDefinitions(path string, log *logging.Logger) ([]hydra.Config, func(), error) {
	noop := func() {}
	if path == "" {
		return []hydra.Config{builtinScroll()}, noop, nil
	}

	if strings.EqualFold(filepath.Ext(path), ".lua") {
		loader := luaconf.NewLoader(log)
		cfgs, err := loader.LoadFile(path)
		if err != nil {
			loader.Close()
			return nil, noop, err
		}
		return cfgs, loader.Close, nil
	}

	defs, err := config.LoadFile(path)
	if err != nil {
		return nil, noop, err
	}
	cfgs := make([]hydra.Config, 0, len(defs))
	for _, def := range defs {
		cfg, err := def.Config()
		if err != nil {
			return nil, noop, err
		}
		cfgs = append(cfgs, cfg)
	}
	return cfgs, noop, nil
}

func builtinScroll() hydra.Config {
	exit := true
	return hydra.Config{
		Name:        "scroll",
		Body:        "<leader>a",
		ForeignKeys: head.ForeignWarn,
		Heads: []head.Spec{
			{Lhs: "j", Action: head.Keys("j"), Options: head.Options{Desc: head.DescText("down")}},
			{Lhs: "k", Action: head.Keys("k"), Options: head.Options{Desc: head.DescText("up")}},
			{Lhs: "G", Action: head.Keys("G"), Options: head.Options{Desc: head.DescText("bottom")}},
			{Lhs: "gg", Action: head.Keys("gg"), Options: head.Options{Desc: head.DescText("top")}},
			{Lhs: "q", Options: head.Options{Exit: &exit, Desc: head.DescText("quit")}},
		},
	}
}

func drawHelp(screen tcell.Screen, instances []*hydra.Instance, typed []string) {
	style := tcell.StyleDefault
	row := 1
	put := func(text string) {
		for col, r := range text {
			screen.SetContent(2+col, row, r, nil, style)
		}
		row++
	}

	put("hydra demo")
	put("")
	for _, inst := range instances {
		state := ""
		if inst.Active() {
			state = "  [active]"
		}
		put(fmt.Sprintf("%-12s %s%s", inst.Name(), inst.Color(), state))
	}
	put("")
	put("press a body prefix to enter a mode, <C-q> to quit")
	put("")
	if len(typed) > 0 {
		put("passed through: " + strings.Join(typed, " "))
	}
}
