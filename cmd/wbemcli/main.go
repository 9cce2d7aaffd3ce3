// Command wbemcli is a small WBEM client for poking at a CIM server.
//
// It connects to a CIMOM, runs one operation, and prints the result, one
// object per line.
//
// Usage:
//
//	wbemcli [flags] enumerate <class>     list instances of a class
//	wbemcli [flags] names <class>         list instance paths of a class
//	wbemcli [flags] class <class>         show a class definition
//	wbemcli [flags] classnames [<class>]  list class names
//	wbemcli [flags] query <wql>           run a WQL query
//
// Connection settings come from a YAML config file (-config) with flag
// overrides; the password may also be supplied via WBEMCLI_PASSWORD.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/smnsjas/go-wbem/connection"
	"github.com/smnsjas/go-wbem/objects"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "wbemcli: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		cfgPath   string
		server    string
		namespace string
		username  string
		password  string
		timeout   time.Duration
		logLevel  string
	)
	flag.StringVar(&cfgPath, "config", "", "Path to YAML config file")
	flag.StringVar(&server, "server", "", "Server URL, e.g. https://cimom:5989 (overrides config)")
	flag.StringVar(&namespace, "namespace", "", "CIM namespace (overrides config)")
	flag.StringVar(&username, "user", "", "Username for basic auth (overrides config)")
	flag.StringVar(&password, "password", "", "Password for basic auth (overrides config and WBEMCLI_PASSWORD)")
	flag.DurationVar(&timeout, "timeout", 0, "Operation timeout (overrides config)")
	flag.StringVar(&logLevel, "log.level", "warn", "Log level: debug, info, warn, error")
	flag.Parse()

	logger, err := buildLogger(logLevel)
	if err != nil {
		return err
	}

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		return err
	}
	cfg.override(server, namespace, username, password, timeout)
	if err := cfg.validate(); err != nil {
		return err
	}

	conn, err := connection.New(cfg.Server,
		connection.WithNamespace(cfg.Namespace),
		connection.WithBasicAuth(cfg.Username, cfg.Password),
		connection.WithLogger(logger))
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	args := flag.Args()
	if len(args) == 0 {
		return fmt.Errorf("missing command (enumerate|names|class|classnames|query)")
	}
	switch cmd, rest := args[0], args[1:]; cmd {
	case "enumerate":
		return enumerateCmd(ctx, conn, rest)
	case "names":
		return namesCmd(ctx, conn, rest)
	case "class":
		return classCmd(ctx, conn, rest)
	case "classnames":
		return classNamesCmd(ctx, conn, rest)
	case "query":
		return queryCmd(ctx, conn, rest)
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func buildLogger(level string) (*slog.Logger, error) {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "info":
		lvl = slog.LevelInfo
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		return nil, fmt.Errorf("unknown log level %q (expected debug|info|warn|error)", level)
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})), nil
}

func enumerateCmd(ctx context.Context, conn *connection.Connection, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: enumerate <class>")
	}
	instances, err := conn.EnumerateInstances(ctx, args[0])
	if err != nil {
		return err
	}
	for _, inst := range instances {
		printInstance(inst)
	}
	return nil
}

func namesCmd(ctx context.Context, conn *connection.Connection, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: names <class>")
	}
	names, err := conn.EnumerateInstanceNames(ctx, args[0])
	if err != nil {
		return err
	}
	for _, name := range names {
		fmt.Println(name.String())
	}
	return nil
}

func classCmd(ctx context.Context, conn *connection.Connection, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: class <class>")
	}
	cls, err := conn.GetClass(ctx, args[0], connection.WithIncludeQualifiers(true))
	if err != nil {
		return err
	}
	if cls.SuperClass != "" {
		fmt.Printf("class %s : %s\n", cls.ClassName, cls.SuperClass)
	} else {
		fmt.Printf("class %s\n", cls.ClassName)
	}
	cls.Properties.Each(func(name string, p *objects.CIMProperty) bool {
		fmt.Printf("  %s %s\n", p.Type, name)
		return true
	})
	cls.Methods.Each(func(name string, m *objects.CIMMethod) bool {
		fmt.Printf("  %s %s(%d parameters)\n", m.ReturnType, name, m.Parameters.Len())
		return true
	})
	return nil
}

func classNamesCmd(ctx context.Context, conn *connection.Connection, args []string) error {
	root := ""
	if len(args) > 0 {
		root = args[0]
	}
	names, err := conn.EnumerateClassNames(ctx, root)
	if err != nil {
		return err
	}
	for _, name := range names {
		fmt.Println(name)
	}
	return nil
}

func queryCmd(ctx context.Context, conn *connection.Connection, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: query <wql>")
	}
	instances, err := conn.ExecQuery(ctx, "WQL", args[0])
	if err != nil {
		return err
	}
	for _, inst := range instances {
		printInstance(inst)
	}
	return nil
}

func printInstance(inst *objects.CIMInstance) {
	if inst.Path != nil {
		fmt.Println(inst.Path.String())
	} else {
		fmt.Println(inst.ClassName)
	}
	inst.Properties.Each(func(name string, p *objects.CIMProperty) bool {
		if p.Value == nil {
			fmt.Printf("  %s = NULL\n", name)
			return true
		}
		fmt.Printf("  %s = %v\n", name, p.Value)
		return true
	})
}
