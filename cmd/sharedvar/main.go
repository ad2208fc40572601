package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/ergochat/readline"
	"github.com/pkg/errors"

	sharedvar "github.com/YagoMello/shared-var"
	"github.com/YagoMello/shared-var/safe"
)

var completer = readline.NewPrefixCompleter(
	readline.PcItem("help"),

	readline.PcItem("new",
		readline.PcItem("int"),
		readline.PcItem("float"),
		readline.PcItem("string"),
		readline.PcItem("bool"),
	),
	readline.PcItem("get"),
	readline.PcItem("set"),
	readline.PcItem("copy"),

	readline.PcItem("bind"),
	readline.PcItem("unbind"),
	readline.PcItem("unbindall"),
	readline.PcItem("remove"),
	readline.PcItem("isolate"),

	readline.PcItem("list"),
	readline.PcItem("stats"),
	readline.PcItem("snap"),
	readline.PcItem("snaps"),
	readline.PcItem("restore"),

	readline.PcItem("exit"),
	readline.PcItem("quit"),
)

func filterInput(r rune) (rune, bool) {
	switch r {
	// block CtrlZ feature
	case readline.CharCtrlZ:
		return r, false
	}
	return r, true
}

const usage = `commands:
  new <int|float|string|bool> <key> [value]   create a variable
  get <key>                                   print one variable
  set <key> <value>                           assign a value
  copy <src> <dest>                           copy value (not links)
  bind <a> <b>                                share one backing
  unbind <a> <b>                              split the pair
  unbindall                                   split every variable
  remove <key>                                delete a variable
  isolate <key>                               break all links, keep the var
  list                                        dump the whole map
  stats                                       engine counters
  snap                                        take a value snapshot
  snaps                                       list retained snapshots
  restore [id]                                restore a snapshot (default: latest)
  exit | quit
`

// CLI around one thread-safe string-keyed map.
type CLI struct {
	store   *safe.Map[string]
	history *sharedvar.History[string]
	rl      *readline.Instance
}

func NewCLI() (*CLI, error) {
	history, err := sharedvar.NewHistory[string](16)
	if err != nil {
		return nil, err
	}
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "◌ ",
		HistoryFile:     ".sharedvar_cmd_log.txt",
		AutoComplete:    completer,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",

		HistorySearchFold:   true,
		FuncFilterInputRune: filterInput,
	})
	if err != nil {
		return nil, err
	}
	rl.CaptureExitSignal()
	return &CLI{
		store:   safe.NewMap[string](),
		history: history,
		rl:      rl,
	}, nil
}

func (cli *CLI) Close() {
	if cli.rl != nil {
		_ = cli.rl.Close()
		cli.rl = nil
	}
}

var errExit = errors.New("exit")

func (cli *CLI) Step() error {
	line, err := cli.rl.Readline()
	if err == readline.ErrInterrupt && len(line) != 0 {
		return nil
	}
	if err != nil {
		return errExit
	}

	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}
	cmd, args := fields[0], fields[1:]

	err = cli.run(cmd, args)
	if err == errExit {
		return err
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
	}
	return nil
}

func (cli *CLI) run(cmd string, args []string) error {
	switch cmd {
	case "help":
		fmt.Print(usage)
		return nil
	case "exit", "quit":
		return errExit

	case "new":
		if len(args) < 2 {
			return errors.New("usage: new <type> <key> [value]")
		}
		value := ""
		if len(args) > 2 {
			value = args[2]
		}
		return cli.create(args[0], args[1], value)

	case "get":
		if len(args) != 1 {
			return errors.New("usage: get <key>")
		}
		found := false
		cli.store.ReadLocked(func(m *sharedvar.Map[string]) {
			found = sharedvar.DumpVar(os.Stdout, m, args[0])
		})
		if !found {
			return errors.Errorf("no var %q", args[0])
		}
		return nil

	case "set":
		if len(args) != 2 {
			return errors.New("usage: set <key> <value>")
		}
		return cli.set(args[0], args[1])

	case "copy":
		if len(args) != 2 {
			return errors.New("usage: copy <src> <dest>")
		}
		return errors.Wrap(safe.Copy(cli.store, args[0], args[1], false), "copy")

	case "bind":
		if len(args) != 2 {
			return errors.New("usage: bind <a> <b>")
		}
		res := safe.Bind(cli.store, args[0], args[1])
		fmt.Println(res)
		return nil

	case "unbind":
		if len(args) != 2 {
			return errors.New("usage: unbind <a> <b>")
		}
		safe.Unbind(cli.store, args[0], args[1])
		return nil

	case "unbindall":
		safe.UnbindAll(cli.store)
		return nil

	case "remove":
		if len(args) != 1 {
			return errors.New("usage: remove <key>")
		}
		safe.Remove(cli.store, args[0])
		return nil

	case "isolate":
		if len(args) != 1 {
			return errors.New("usage: isolate <key>")
		}
		safe.Isolate(cli.store, args[0])
		return nil

	case "list":
		cli.store.Dump(os.Stdout, "")
		return nil

	case "stats":
		s := cli.store.StatsSnapshot()
		fmt.Printf("vars=%d groups=%d links=%d observers=%d\n",
			s.Vars, s.Groups, s.LinkEntries, s.Observers)
		fmt.Printf("creates=%d binds=%d merges=%d unbinds=%d removes=%d rehomes=%d\n",
			s.Creates, s.Binds, s.Merges, s.Unbinds, s.Removes, s.Rehomes)
		return nil

	case "snap":
		snap := safe.TakeSnapshot(cli.store)
		cli.history.Put(snap)
		fmt.Println(snap.ID)
		return nil

	case "snaps":
		for _, id := range cli.history.IDs() {
			if snap, ok := cli.history.Get(id); ok {
				fmt.Printf("%s  %s  %d vars\n", snap.ID, snap.TakenAt.Format("15:04:05"), snap.Len())
			}
		}
		return nil

	case "restore":
		var snap *sharedvar.Snapshot[string]
		var ok bool
		if len(args) == 0 {
			snap, ok = cli.history.Latest()
		} else {
			snap, ok = cli.history.Get(args[0])
		}
		if !ok {
			return errors.New("no such snapshot")
		}
		safe.RestoreSnapshot(cli.store, snap, false)
		return nil

	default:
		return errors.Errorf("unknown command %q, try help", cmd)
	}
}

func (cli *CLI) create(typ, key, value string) error {
	switch typ {
	case "int":
		v := int64(0)
		if value != "" {
			parsed, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return errors.Wrap(err, "bad int")
			}
			v = parsed
		}
		return errors.Wrap(safe.Create(cli.store, key, v, false), "create")
	case "float":
		v := float64(0)
		if value != "" {
			parsed, err := strconv.ParseFloat(value, 64)
			if err != nil {
				return errors.Wrap(err, "bad float")
			}
			v = parsed
		}
		return errors.Wrap(safe.Create(cli.store, key, v, false), "create")
	case "string":
		return errors.Wrap(safe.Create(cli.store, key, value, false), "create")
	case "bool":
		v := false
		if value != "" {
			parsed, err := strconv.ParseBool(value)
			if err != nil {
				return errors.Wrap(err, "bad bool")
			}
			v = parsed
		}
		return errors.Wrap(safe.Create(cli.store, key, v, false), "create")
	default:
		return errors.Errorf("unknown type %q", typ)
	}
}

// set parses value according to the variable's stored type, then assigns.
func (cli *CLI) set(key, value string) error {
	var err error
	cli.store.WriteLocked(func(m *sharedvar.Map[string]) {
		rec, ok := m.Find(key)
		if !ok {
			err = errors.Errorf("no var %q", key)
			return
		}
		switch rec.Type().Kind().String() {
		case "int64":
			var v int64
			v, err = strconv.ParseInt(value, 10, 64)
			if err == nil {
				sharedvar.Set(m, key, v)
			}
		case "float64":
			var v float64
			v, err = strconv.ParseFloat(value, 64)
			if err == nil {
				sharedvar.Set(m, key, v)
			}
		case "string":
			sharedvar.Set(m, key, value)
		case "bool":
			var v bool
			v, err = strconv.ParseBool(value)
			if err == nil {
				sharedvar.Set(m, key, v)
			}
		default:
			err = errors.Errorf("cannot set vars of type %s", rec.Type())
		}
	})
	return errors.Wrap(err, "set")
}

func main() {
	cli, err := NewCLI()
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
	defer cli.Close()

	fmt.Println("shared-var repl, try help")
	for {
		if err := cli.Step(); err != nil {
			if err == errExit || err == io.EOF {
				return
			}
			fmt.Fprintln(os.Stderr, "error:", err)
			return
		}
	}
}
