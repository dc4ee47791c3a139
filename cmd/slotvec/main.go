// Command slotvec keeps a list of strings in a file-backed slot store.
//
// Usage:
//
//	slotvec [flags] push VALUE...
//	slotvec [flags] pop
//	slotvec [flags] get INDEX
//	slotvec [flags] len
//	slotvec [flags] list [-reverse]
//	slotvec [flags] dump [-head N]
//	slotvec [flags] compact
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"

	"github.com/mvaleed/slotvec/internal/collections"
	"github.com/mvaleed/slotvec/internal/lazy"
	"github.com/mvaleed/slotvec/internal/storage"
)

const dirEnv = "SLOTVEC_DIR"

type list = collections.Vec[lazy.Packed[string], *lazy.Packed[string]]

func main() {
	err := run(os.Args[1:], os.Stdout, os.Stderr)
	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "slotvec:", err)
		os.Exit(1)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("slotvec", flag.ContinueOnError)
	fs.SetOutput(stderr)

	defaultDir := os.Getenv(dirEnv)
	if defaultDir == "" {
		defaultDir = "slotvec-data"
	}
	dir := fs.String("dir", defaultDir, "store directory (default from $"+dirEnv+")")
	durability := fs.String("durability", "os", "append durability: async, os or disk")
	segmentBytes := fs.Int64("segment-bytes", storage.DefaultMaxSegmentBytes, "rotate segments at this size")
	verbose := fs.Bool("v", false, "debug logging")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return errors.New("missing command")
	}

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	d, err := storage.ParseDurability(*durability)
	if err != nil {
		return err
	}

	cmd, cmdArgs := fs.Arg(0), fs.Args()[1:]
	opts := []storage.Option{
		storage.WithDurability(d),
		storage.WithMaxSegmentBytes(*segmentBytes),
		storage.WithLogger(logger),
	}
	readOnly := false
	switch cmd {
	case "get", "len", "list", "dump":
		readOnly = true
		opts = append(opts, storage.WithReadOnly())
	}

	store, err := storage.Open(*dir, opts...)
	if readOnly && errors.Is(err, os.ErrNotExist) {
		// Nothing was ever pushed: read an empty list without creating the store.
		logger.Debug("no store yet", slog.String("dir", *dir))
		return dispatch(storage.NewMemStore(), cmd, cmdArgs, stdout, logger)
	}
	if err != nil {
		return err
	}

	cmdErr := dispatch(store, cmd, cmdArgs, stdout, logger)
	return errors.Join(cmdErr, store.Close())
}

func dispatch(store storage.Store, cmd string, args []string, stdout io.Writer, logger *slog.Logger) error {
	switch cmd {
	case "dump":
		var paths []string
		if fs, ok := store.(*storage.FileStore); ok {
			paths = fs.SegmentPaths()
		}
		return dump(paths, args, stdout)
	case "compact":
		fs, ok := store.(*storage.FileStore)
		if !ok {
			return errors.New("compact needs a file store")
		}
		return fs.Compact()
	}

	root := storage.Key{}
	l, err := load(store, root)
	if err != nil {
		return err
	}

	switch cmd {
	case "push":
		for _, value := range args {
			if err := l.Push(lazy.Pack(value)); err != nil {
				return err
			}
		}
		logger.Debug("pushed", slog.Int("values", len(args)), slog.Int("dirty", l.Dirty()))
		return save(store, root, l)

	case "pop":
		value, ok, err := l.Pop()
		if err != nil {
			return err
		}
		if !ok {
			return errors.New("list is empty")
		}
		fmt.Fprintln(stdout, value.Value)
		return save(store, root, l)

	case "get":
		if len(args) != 1 {
			return errors.New("usage: get INDEX")
		}
		index, err := strconv.ParseUint(args[0], 10, 32)
		if err != nil {
			return fmt.Errorf("invalid index %q: %w", args[0], err)
		}
		value, ok, err := l.Get(uint32(index))
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("index %d out of range, length is %d", index, l.Len())
		}
		fmt.Fprintln(stdout, value.Value)
		return nil

	case "len":
		fmt.Fprintln(stdout, l.Len())
		return nil

	case "list":
		return printList(l, args, stdout)
	}
	return fmt.Errorf("unknown command %q", cmd)
}

// load pulls the list rooted at root. A store that never held one yields an
// empty list.
func load(store storage.Store, root storage.Key) (*list, error) {
	l, err := lazy.Pull[list](storage.NewCursor(store, root))
	if errors.Is(err, storage.ErrSlotNotFound) {
		return collections.NewVec[lazy.Packed[string], *lazy.Packed[string]](), nil
	}
	return l, err
}

func save(store storage.Store, root storage.Key, l *list) error {
	return l.PushForward(storage.NewCursor(store, root))
}

func printList(l *list, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	reverse := fs.Bool("reverse", false, "print the last element first")
	if err := fs.Parse(args); err != nil {
		return err
	}

	it := l.Iter()
	seq := it.All()
	if *reverse {
		seq = it.Backward()
	}
	for value := range seq {
		fmt.Fprintln(stdout, value.Value)
	}
	return it.Err()
}

func dump(paths, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("dump", flag.ContinueOnError)
	head := fs.Int("head", 0, "records per segment, 0 for all")
	if err := fs.Parse(args); err != nil {
		return err
	}

	for _, path := range paths {
		fmt.Fprintf(stdout, "== %s\n", path)
		if err := storage.DumpSegment(stdout, path, *head); err != nil {
			return err
		}
	}
	return nil
}
