package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/nickyhof/StructDB"
	"github.com/nickyhof/StructDB/backup"
	"github.com/nickyhof/StructDB/core"
	"github.com/nickyhof/StructDB/db"
	"github.com/nickyhof/StructDB/mem"
	"github.com/nickyhof/StructDB/sqldb"
)

const (
	ErrorColor   = "\033[31m" // Red
	SuccessColor = "\033[32m" // Green
	PromptColor  = "\033[36m" // Cyan
	ResetColor   = "\033[0m"
	BoldColor    = "\033[1m"
)

// Version is set at build time via -ldflags
var Version = "dev"

// Task is the record type the CLI manages.
type Task struct {
	ID      int64     `db:"id,pk"`
	Title   string    `db:"title"`
	Done    bool      `db:"done"`
	Created time.Time `db:"created"`
}

// Note attaches free-form text to a task.
type Note struct {
	ID     int64          `db:"id,pk"`
	TaskId core.Ref[Task] `db:"task_id"`
	Body   string         `db:"body"`
}

func main() {
	dbPath := flag.String("db", "", "DuckDB database file, empty for in-memory")
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}

	var backend db.Backend
	if *dbPath == "" {
		backend = mem.New()
	} else {
		engine, err := sqldb.OpenDuckDB(*dbPath)
		if err != nil {
			fail("open %s: %v", *dbPath, err)
		}
		defer engine.Close()
		backend = engine
	}

	store := StructDB.Open(backend)
	if err := StructDB.CreateTableIfMissing[Task](store); err != nil {
		fail("setup: %v", err)
	}
	if err := StructDB.CreateTableIfMissing[Note](store); err != nil {
		fail("setup: %v", err)
	}

	switch args[0] {
	case "add":
		cmdAdd(store, args[1:])
	case "list":
		cmdList(store, args[1:])
	case "done":
		cmdDone(store, args[1:])
	case "rm":
		cmdRemove(store, args[1:])
	case "note":
		cmdNote(store, args[1:])
	case "notes":
		cmdNotes(store, args[1:])
	case "export":
		cmdExport(store, args[1:])
	case "import":
		cmdImport(store, args[1:])
	case "version":
		fmt.Printf("structdb version %s\n", Version)
	case "help":
		printUsage()
	default:
		fail("unknown command: %s (try help)", args[0])
	}
}

func cmdAdd(store *StructDB.Store, args []string) {
	if len(args) == 0 {
		fail("usage: add <title>")
	}
	task := Task{Title: strings.Join(args, " "), Created: time.Now().UTC()}
	key, err := StructDB.Insert(store, &task)
	if err != nil {
		fail("add: %v", err)
	}
	fmt.Printf("%s✓ Added task %d%s\n", SuccessColor, key, ResetColor)
}

func cmdList(store *StructDB.Store, args []string) {
	// Done=false is the zero value, so an example cannot express "open
	// only"; filter while printing instead.
	openOnly := len(args) > 0 && args[0] == "open"

	count := 0
	for task, err := range StructDB.Match(store, Task{}) {
		if err != nil {
			fail("list: %v", err)
		}
		if openOnly && task.Done {
			continue
		}
		mark := " "
		if task.Done {
			mark = "x"
		}
		fmt.Printf("  %3d [%s] %s\n", task.ID, mark, task.Title)
		count++
	}
	if count == 0 {
		fmt.Println("No tasks")
	}
}

func cmdDone(store *StructDB.Store, args []string) {
	task := mustGetTask(store, args)
	task.Done = true
	if _, err := StructDB.Update(store, task); err != nil {
		fail("done: %v", err)
	}
	fmt.Printf("%s✓ Done: %s%s\n", SuccessColor, task.Title, ResetColor)
}

func cmdRemove(store *StructDB.Store, args []string) {
	task := mustGetTask(store, args)
	if _, err := StructDB.Delete(store, task); err != nil {
		fail("rm: %v", err)
	}
	fmt.Printf("%s✓ Removed: %s%s\n", SuccessColor, task.Title, ResetColor)
}

func cmdNote(store *StructDB.Store, args []string) {
	if len(args) < 2 {
		fail("usage: note <task id> <text>")
	}
	task := mustGetTask(store, args[:1])
	note := Note{
		TaskId: core.NewRef[Task](task.ID),
		Body:   strings.Join(args[1:], " "),
	}
	if _, err := StructDB.Insert(store, &note); err != nil {
		fail("note: %v", err)
	}
	fmt.Printf("%s✓ Noted on task %d%s\n", SuccessColor, task.ID, ResetColor)
}

func cmdNotes(store *StructDB.Store, args []string) {
	example := Note{}
	if len(args) > 0 {
		id := mustParseID(args[0])
		example.TaskId = core.NewRef[Task](id)
	}

	count := 0
	for note, err := range StructDB.Match(store, example) {
		if err != nil {
			fail("notes: %v", err)
		}
		title := "?"
		if task, ok, err := note.TaskId.Resolve(); err == nil && ok {
			title = task.Title
		}
		fmt.Printf("  %3d (%s%s%s) %s\n", note.ID, PromptColor, title, ResetColor, note.Body)
		count++
	}
	if count == 0 {
		fmt.Println("No notes")
	}
}

func cmdExport(store *StructDB.Store, args []string) {
	if len(args) == 0 {
		fail("usage: export <destination>")
	}
	err := backup.Export(store.Backend(), store.Registry(), args[0], nil, Task{}, Note{})
	if err != nil {
		fail("export: %v", err)
	}
	fmt.Printf("%s✓ Exported to %s%s\n", SuccessColor, args[0], ResetColor)
}

func cmdImport(store *StructDB.Store, args []string) {
	if len(args) == 0 {
		fail("usage: import <source>")
	}
	err := backup.Import(store.Backend(), store.Registry(), args[0], nil, Task{}, Note{})
	if err != nil {
		fail("import: %v", err)
	}
	fmt.Printf("%s✓ Imported from %s%s\n", SuccessColor, args[0], ResetColor)
}

func mustGetTask(store *StructDB.Store, args []string) *Task {
	if len(args) == 0 {
		fail("usage: <command> <task id>")
	}
	id := mustParseID(args[0])
	task, ok, err := StructDB.Get[Task](store, id)
	if err != nil {
		fail("lookup: %v", err)
	}
	if !ok {
		fail("no task with id %d", id)
	}
	return task
}

func mustParseID(arg string) int64 {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		fail("invalid id: %s", arg)
	}
	return id
}

func fail(format string, args ...any) {
	fmt.Printf("%s✗ %s%s\n", ErrorColor, fmt.Sprintf(format, args...), ResetColor)
	os.Exit(1)
}

func printUsage() {
	fmt.Printf("%s%sStructDB v%s%s\n", BoldColor, PromptColor, Version, ResetColor)
	fmt.Println()
	fmt.Println("Usage: structdb [-db file.duckdb] <command> [args]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  add <title>           Add a task")
	fmt.Println("  list [open]           List tasks, optionally only open ones")
	fmt.Println("  done <id>             Mark a task done")
	fmt.Println("  rm <id>               Remove a task")
	fmt.Println("  note <id> <text>      Attach a note to a task")
	fmt.Println("  notes [id]            List notes, optionally for one task")
	fmt.Println("  export <destination>  Write all records as JSON lines (file, s3:// or http://)")
	fmt.Println("  import <source>       Replay an exported snapshot")
	fmt.Println("  version               Show version info")
}
