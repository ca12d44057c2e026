// Command mcp-client is an interactive REPL for any MCP server, tuned for
// neron-mcp's tools.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/pflag"

	"neron/internal/logger"
	"neron/internal/logger/console"
)

func main() {
	debug := pflag.BoolP("debug", "d", false, "debug logging")
	pflag.Parse()
	args := pflag.Args()

	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "Usage: mcp-client <server-command> [<args>]")
		fmt.Fprintln(os.Stderr, "Example: mcp-client neron-mcp --demo")
		os.Exit(2)
	}

	log := logger.New(console.NewConsoleLogger(console.ConsoleLoggerParams{Debug: *debug, Prefix: "mcp-client"}))
	ctx := context.Background()

	cmd := exec.Command(args[0], args[1:]...)
	cmd.Stderr = os.Stderr
	transport := &mcp.CommandTransport{Command: cmd}

	client := mcp.NewClient(&mcp.Implementation{
		Name:    "neron-client",
		Version: "1.0.0",
	}, nil)

	session, err := client.Connect(ctx, transport, nil)
	if err != nil {
		log.Error("failed to connect", "err", err)
		os.Exit(1)
	}
	defer session.Close()

	fmt.Println("Connected to neron MCP server!")
	fmt.Println("Available commands:")
	fmt.Println("  /tools                - List available tools")
	fmt.Println("  /list [type]          - List entities by type")
	fmt.Println("  /node <name>          - Show a node with its relations")
	fmt.Println("  /check                - Run dataset checks")
	fmt.Println("  /search <text> [n]    - Search entities")
	fmt.Println("  /transform [theme]    - Renderer payload for a theme")
	fmt.Println("  /graph <cypher>       - Execute a read-only Cypher query")
	fmt.Println("  /exit                 - Exit the client")
	fmt.Println("  <question>            - Ask a question about the graph")
	fmt.Println()

	r := repl{ctx: ctx, session: session, log: log}
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		if input == "/exit" {
			fmt.Println("Goodbye!")
			return
		}
		r.dispatch(input)
	}

	if err := scanner.Err(); err != nil {
		log.Error("scanner error", "err", err)
	}
}

type repl struct {
	ctx     context.Context
	session *mcp.ClientSession
	log     *logger.Logger
}

func (r repl) dispatch(input string) {
	parts := strings.Fields(input)
	rest := strings.TrimSpace(strings.TrimPrefix(input, parts[0]))

	switch parts[0] {
	case "/tools":
		r.listTools()
	case "/list":
		args := map[string]any{}
		if rest != "" {
			args["type"] = rest
		}
		r.callTool("list_entities", args)
	case "/node":
		r.callTool("get_node_details", map[string]any{"name": rest})
	case "/check":
		r.callTool("check_dataset", map[string]any{})
	case "/search":
		args := map[string]any{"text": rest}
		if len(parts) > 2 {
			if n, err := strconv.Atoi(parts[len(parts)-1]); err == nil {
				args["text"] = strings.Join(parts[1:len(parts)-1], " ")
				args["limit"] = n
			}
		}
		r.callTool("search_entities", args)
	case "/transform":
		args := map[string]any{}
		if rest != "" {
			args["theme"] = rest
		}
		r.callTool("transform_graph", args)
	case "/graph":
		r.callTool("query_graph", map[string]any{"cypher": rest})
	default:
		r.callTool("ask_graph", map[string]any{"question": input})
	}
}

func (r repl) listTools() {
	fmt.Println("Available Tools:")
	for tool, err := range r.session.Tools(r.ctx, nil) {
		if err != nil {
			r.log.Error("listing tools", "err", err)
			return
		}
		fmt.Printf("  - %s: %s\n", tool.Name, tool.Description)
	}
	fmt.Println()
}

func (r repl) callTool(toolName string, args map[string]any) {
	result, err := r.session.CallTool(r.ctx, &mcp.CallToolParams{
		Name:      toolName,
		Arguments: args,
	})
	if err != nil {
		r.log.Error("calling tool", "tool", toolName, "err", err)
		return
	}
	printResult(result)
}

func printResult(result *mcp.CallToolResult) {
	if result.IsError {
		fmt.Printf("❌ Error: ")
	} else {
		fmt.Printf("✅ Result: ")
	}

	for _, content := range result.Content {
		switch v := content.(type) {
		case *mcp.TextContent:
			fmt.Println(prettyJSON(v.Text))
		default:
			jsonData, err := json.MarshalIndent(content, "", "  ")
			if err != nil {
				fmt.Printf("%+v\n", content)
			} else {
				fmt.Println(string(jsonData))
			}
		}
	}
	fmt.Println()
}

// prettyJSON indents text when it is a JSON document and returns it unchanged
// otherwise.
func prettyJSON(text string) string {
	var v any
	if err := json.Unmarshal([]byte(text), &v); err != nil {
		return text
	}
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return text
	}
	return string(out)
}
