package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"actuarialhub/internal/config"
	"actuarialhub/internal/database"
	"actuarialhub/internal/service"
)

const usage = `Actuarial Hub backup tool

Usage:
  backup export [-output FILE]         write every table to a JSON snapshot
  backup import -input FILE [-clear]   restore a snapshot in one transaction
  backup counts                        print the row count of each table

FILE may be "-" for stdout or stdin. The database is selected with
DATABASE_TYPE (sqlite, postgres, mysql), DB_PATH and DATABASE_URL.
`

var errCancelled = errors.New("import cancelled")

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	if err := run(os.Args[1], os.Args[2:]); err != nil {
		if errors.Is(err, errCancelled) {
			log.Println("Import cancelled")
			return
		}
		log.Fatalf("%s failed: %v", os.Args[1], err)
	}
}

func run(command string, args []string) error {
	flags := flag.NewFlagSet(command, flag.ExitOnError)
	output := flags.String("output", "", "snapshot to write (default backup_YYYYMMDD_HHMMSS.json)")
	input := flags.String("input", "", "snapshot to restore")
	clearFirst := flags.Bool("clear", false, "delete existing rows before restoring")
	yes := flags.Bool("yes", false, "skip the -clear confirmation prompt")

	switch command {
	case "export", "import", "counts":
	default:
		fmt.Fprint(os.Stderr, usage)
		return fmt.Errorf("unknown command %q", command)
	}
	flags.Parse(args)

	backups, closeDB, err := openBackupService()
	if err != nil {
		return err
	}
	defer closeDB()

	switch command {
	case "export":
		return exportSnapshot(backups, *output)
	case "import":
		if *input == "" {
			flags.Usage()
			return errors.New("-input is required")
		}
		if *clearFirst && !*yes && !confirm("This deletes all existing data. Type 'yes' to continue: ") {
			return errCancelled
		}
		return importSnapshot(backups, *input, *clearFirst)
	default:
		return printCounts(backups, os.Stdout)
	}
}

// openBackupService connects and migrates so snapshots always match the
// current schema
func openBackupService() (*service.BackupService, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	db, err := database.InitializeWithConfig(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	if err := db.RunMigrations(cfg.MigrationsPath); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return service.NewBackupService(db), func() { db.Close() }, nil
}

func exportSnapshot(backups *service.BackupService, path string) error {
	if path == "-" {
		return backups.ExportToWriter(os.Stdout)
	}
	if path == "" {
		path = "backup_" + time.Now().Format("20060102_150405") + ".json"
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}

	if err := backups.Export(path); err != nil {
		return err
	}
	if info, err := os.Stat(path); err == nil {
		log.Printf("Wrote %s (%.2f MB)", path, float64(info.Size())/(1<<20))
	}
	return nil
}

func importSnapshot(backups *service.BackupService, path string, clearFirst bool) error {
	if path == "-" {
		return backups.ImportFromReader(os.Stdin, clearFirst)
	}
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("cannot read snapshot: %w", err)
	}
	return backups.Import(path, clearFirst)
}

func printCounts(backups *service.BackupService, w io.Writer) error {
	counts, err := backups.TableCounts()
	if err != nil {
		return err
	}
	tables := make([]string, 0, len(counts))
	for table := range counts {
		tables = append(tables, table)
	}
	sort.Strings(tables)
	for _, table := range tables {
		fmt.Fprintf(w, "%-22s %d\n", table, counts[table])
	}
	return nil
}

func confirm(prompt string) bool {
	fmt.Fprint(os.Stderr, prompt)
	answer, _ := bufio.NewReader(os.Stdin).ReadString('\n')
	return strings.TrimSpace(answer) == "yes"
}
