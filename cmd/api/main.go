package main

import (
	"fmt"
	"os"

	"github.com/PauloHFS/hcportal/internal/cmd"
	"github.com/PauloHFS/hcportal/web/static/assets"
	_ "github.com/mattn/go-sqlite3"
)

type command struct {
	name, usage string
	run         func()
}

var commands = []command{
	{"server", "Start the web server and job worker (default)", func() { cmd.RunServer(assets.FS) }},
	{"migrate", "Run database migrations", cmd.RunMigrate},
	{"seed", "Run migrations and seed demo users and shifts", cmd.RunSeed},
	{"create-user", "Create a user (args: <email> <password> [professional|admin])", cmd.RunCreateUser},
}

func main() {
	name := "server"
	if len(os.Args) > 1 {
		name = os.Args[1]
	}
	if name == "help" || name == "-h" || name == "--help" {
		usage()
		return
	}

	for _, c := range commands {
		if c.name == name {
			c.run()
			return
		}
	}

	fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", name)
	usage()
	os.Exit(1)
}

func usage() {
	fmt.Println("hcportal - professional portal")
	fmt.Println("Usage: ./hcportal [command] [args]")
	fmt.Println("\nAvailable commands:")
	for _, c := range commands {
		fmt.Printf("  %-12s %s\n", c.name, c.usage)
	}
	fmt.Printf("  %-12s %s\n", "help", "Show this help message")
}
