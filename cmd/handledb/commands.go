package main

import (
	"context"
	"fmt"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/sxwebdev/handledb"
)

var commands = []struct {
	name, short, long string
	data              any
}{
	{"get", "Print a value", "Print the value stored under key.", &getCommand{}},
	{"put", "Store a value", "Store value under key, creating the database if needed.", &putCommand{}},
	{"delete", "Remove a key", "Remove key from the database.", &deleteCommand{}},
	{"scan", "List entries", "List entries in key order, optionally only those under a prefix.", &scanCommand{}},
	{"merge", "Merge a database", "Copy every entry of another database into this one.", &mergeCommand{}},
	{"compact", "Compact the database", "Compact the whole keyspace.", &compactCommand{}},
	{"stat", "Print engine statistics", "Print the engine's internal statistics.", &statCommand{}},
	{"destroy", "Delete the database", "Delete all persisted state of the database.", &destroyCommand{}},
	{"readfile", "Print part of a file", "Print length bytes of a file starting at offset.", &readFileCommand{}},
}

type getCommand struct {
	Args struct {
		Key string `positional-arg-name:"key"`
	} `positional-args:"yes" required:"yes"`
}

func (c *getCommand) Execute(_ []string) error {
	key, err := decode(c.Args.Key)
	if err != nil {
		return err
	}
	db, err := openDB(false)
	if err != nil {
		return err
	}
	defer db.Close()

	value, ok, err := db.GetBuf(key)
	if err != nil {
		return err
	}
	if !ok {
		return errors.Newf("key %q not found", c.Args.Key)
	}
	fmt.Println(encode(value))
	return nil
}

type putCommand struct {
	Args struct {
		Key   string `positional-arg-name:"key"`
		Value string `positional-arg-name:"value"`
	} `positional-args:"yes" required:"yes"`
}

func (c *putCommand) Execute(_ []string) error {
	key, err := decode(c.Args.Key)
	if err != nil {
		return err
	}
	value, err := decode(c.Args.Value)
	if err != nil {
		return err
	}
	db, err := openDB(true)
	if err != nil {
		return err
	}
	defer db.Close()

	return db.Put(key, value)
}

type deleteCommand struct {
	Args struct {
		Key string `positional-arg-name:"key"`
	} `positional-args:"yes" required:"yes"`
}

func (c *deleteCommand) Execute(_ []string) error {
	key, err := decode(c.Args.Key)
	if err != nil {
		return err
	}
	db, err := openDB(false)
	if err != nil {
		return err
	}
	defer db.Close()

	return db.Delete(key)
}

type scanCommand struct {
	Prefix string `short:"p" long:"prefix" description:"Only list keys starting with prefix"`
	Limit  int    `short:"n" long:"limit" description:"Stop after this many entries (0 for all)"`
}

func (c *scanCommand) Execute(_ []string) error {
	prefix, err := decode(c.Prefix)
	if err != nil {
		return err
	}
	db, err := openDB(false)
	if err != nil {
		return err
	}
	defer db.Close()

	it, err := db.NewIterator()
	if err != nil {
		return err
	}
	defer it.Close()

	if err := it.Seek(prefix); err != nil {
		return err
	}
	limit := handledb.UpperBound(prefix)
	for n := 0; c.Limit == 0 || n < c.Limit; n++ {
		ok, err := it.Valid()
		if err != nil {
			return err
		}
		if !ok {
			break
		}
		if limit != nil {
			cmp, err := it.CompareKey(limit)
			if err != nil {
				return err
			}
			if cmp >= 0 {
				break
			}
		}
		key, err := it.KeyBuf()
		if err != nil {
			return err
		}
		value, err := it.ValueBuf()
		if err != nil {
			return err
		}
		fmt.Printf("%s\t%s\n", encode(key), encode(value))
		if err := it.Next(); err != nil {
			return err
		}
	}
	return nil
}

type mergeCommand struct {
	Atomic bool `long:"atomic" description:"Apply the whole merge as one batch"`
	Args   struct {
		Source string `positional-arg-name:"source"`
	} `positional-args:"yes" required:"yes"`
}

func (c *mergeCommand) Execute(_ []string) error {
	db, err := openDB(true)
	if err != nil {
		return err
	}
	defer db.Close()

	src, err := handledb.Open(c.Args.Source, false, false)
	if err != nil {
		return err
	}
	defer src.Close()

	return db.Merge(src, c.Atomic)
}

type compactCommand struct{}

func (c *compactCommand) Execute(_ []string) error {
	db, err := openDB(false)
	if err != nil {
		return err
	}
	defer db.Close()

	return db.Compact(context.Background(), nil, nil)
}

type statCommand struct{}

func (c *statCommand) Execute(_ []string) error {
	db, err := openDB(false)
	if err != nil {
		return err
	}
	defer db.Close()

	stat, err := db.Stat()
	if err != nil {
		return err
	}
	fmt.Println(stat)
	return nil
}

type destroyCommand struct{}

func (c *destroyCommand) Execute(_ []string) error {
	if err := installEngine(); err != nil {
		return err
	}
	return handledb.DestroyDB(cfg.DB, false)
}

type readFileCommand struct {
	Offset int64 `long:"offset" description:"Byte offset to start reading at"`
	Length int64 `long:"length" description:"Number of bytes to read" default:"4096"`
	Args   struct {
		Path string `positional-arg-name:"path"`
	} `positional-args:"yes" required:"yes"`
}

func (c *readFileCommand) Execute(_ []string) error {
	buf, err := handledb.ReadFileToBuffer(c.Args.Path, c.Offset, c.Length)
	if err != nil {
		return err
	}
	_, err = os.Stdout.Write(buf)
	return err
}
