// Package cli provides a direct command-line interface to the git tools,
// bypassing the MCP server entirely. Tools are invoked in-process via the
// registry, so no server or network round-trip is needed.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/sammcj/mcp-git-ops/internal/registry"
	"github.com/sammcj/mcp-git-ops/internal/tools"
	"github.com/sirupsen/logrus"
)

// Runner executes CLI commands against the tool registry.
type Runner struct {
	logger *logrus.Logger
	cache  *sync.Map
	out    io.Writer
}

// NewRunner creates a Runner writing to out.
func NewRunner(logger *logrus.Logger, cache *sync.Map, out io.Writer) *Runner {
	return &Runner{logger: logger, cache: cache, out: out}
}

// ListTools prints all registered tools with their descriptions.
func (r *Runner) ListTools() error {
	registered := registry.GetTools()

	names := make([]string, 0, len(registered))
	for name := range registered {
		names = append(names, name)
	}
	sort.Strings(names)

	nameColour := color.New(color.FgCyan, color.Bold)

	w := tabwriter.NewWriter(r.out, 0, 0, 2, ' ', 0)
	for _, name := range names {
		desc := firstLine(registered[name].Definition().Description)
		fmt.Fprintf(w, "%s\t%s\n", nameColour.Sprint(name), desc)
	}
	return w.Flush()
}

// HelpTool prints the parameters and usage information for a single tool.
func (r *Runner) HelpTool(name string) error {
	tool, ok := registry.GetTool(name)
	if !ok {
		return fmt.Errorf("unknown tool: %s (run 'mcp-git-ops cli list' to see available tools)", name)
	}

	def := tool.Definition()

	fmt.Fprintf(r.out, "Tool: %s\n\n%s\n\n", def.Name, def.Description)

	props := def.InputSchema.Properties
	if len(props) == 0 {
		fmt.Fprintln(r.out, "No parameters.")
		return nil
	}

	required := make(map[string]bool, len(def.InputSchema.Required))
	for _, name := range def.InputSchema.Required {
		required[name] = true
	}

	paramNames := make([]string, 0, len(props))
	for name := range props {
		paramNames = append(paramNames, name)
	}
	sort.Strings(paramNames)

	requiredColour := color.New(color.FgYellow)

	fmt.Fprintln(r.out, "Parameters:")
	w := tabwriter.NewWriter(r.out, 0, 0, 2, ' ', 0)
	for _, paramName := range paramNames {
		prop, ok := props[paramName].(map[string]any)
		if !ok {
			continue
		}
		propType, _ := prop["type"].(string)
		propDesc, _ := prop["description"].(string)

		marker := ""
		if required[paramName] {
			marker = requiredColour.Sprint(" (required)")
		}
		fmt.Fprintf(w, "  --%s\t%s\t%s%s\n", paramName, propType, firstLine(propDesc), marker)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if provider, ok := tool.(tools.ExtendedHelpProvider); ok {
		r.printExtendedHelp(provider.ProvideExtendedInfo())
	}
	return nil
}

// printExtendedHelp renders the optional examples and troubleshooting block.
func (r *Runner) printExtendedHelp(help *tools.ExtendedHelp) {
	if help == nil {
		return
	}

	headingColour := color.New(color.Bold)

	if len(help.Examples) > 0 {
		fmt.Fprintf(r.out, "\n%s\n", headingColour.Sprint("Examples:"))
		for _, example := range help.Examples {
			argsJSON, err := json.Marshal(example.Arguments)
			if err != nil {
				continue
			}
			fmt.Fprintf(r.out, "  %s\n    %s\n", example.Description, string(argsJSON))
		}
	}

	if len(help.Troubleshooting) > 0 {
		fmt.Fprintf(r.out, "\n%s\n", headingColour.Sprint("Troubleshooting:"))
		for _, tip := range help.Troubleshooting {
			fmt.Fprintf(r.out, "  %s\n    %s\n", tip.Problem, tip.Solution)
		}
	}
}

// RunTool executes a tool by name. args can be a single JSON object string,
// --key=value flags, or --flag for boolean true.
func (r *Runner) RunTool(ctx context.Context, name string, args []string) error {
	tool, ok := registry.GetTool(name)
	if !ok {
		return fmt.Errorf("unknown tool: %s (run 'mcp-git-ops cli list' to see available tools)", name)
	}

	params, err := parseArgs(args, tool.Definition())
	if err != nil {
		return fmt.Errorf("argument error: %w", err)
	}

	result, err := tool.Execute(ctx, r.logger, r.cache, params)
	if err != nil {
		return fmt.Errorf("tool error: %w", err)
	}

	return r.renderResult(result)
}

// renderResult prints the text payload of a tool result.
func (r *Runner) renderResult(result *mcp.CallToolResult) error {
	for _, content := range result.Content {
		if text, ok := mcp.AsTextContent(content); ok {
			fmt.Fprintln(r.out, text.Text)
		}
	}
	return nil
}

// parseArgs converts CLI arguments into the argument map a tool expects,
// using the tool's schema to coerce boolean parameters.
func parseArgs(args []string, def mcp.Tool) (map[string]any, error) {
	params := make(map[string]any)
	boolParams := booleanParams(def)

	for _, arg := range args {
		if strings.HasPrefix(arg, "{") {
			var obj map[string]any
			if err := json.Unmarshal([]byte(arg), &obj); err != nil {
				return nil, fmt.Errorf("invalid JSON argument: %w", err)
			}
			// Flags given earlier take precedence over JSON values.
			for k, v := range obj {
				if _, exists := params[k]; !exists {
					params[k] = v
				}
			}
			continue
		}

		if !strings.HasPrefix(arg, "--") {
			return nil, fmt.Errorf("unexpected argument: %s (use --key=value flags or pass a JSON object)", arg)
		}

		key, value, hasValue := strings.Cut(strings.TrimPrefix(arg, "--"), "=")
		switch {
		case !hasValue:
			// Bare flag means boolean true.
			params[key] = true
		case boolParams[key]:
			params[key] = value == "true" || value == "1"
		default:
			params[key] = value
		}
	}

	return params, nil
}

// booleanParams maps parameter names declared as booleans in the schema.
func booleanParams(def mcp.Tool) map[string]bool {
	result := make(map[string]bool)
	for name, prop := range def.InputSchema.Properties {
		if propMap, ok := prop.(map[string]any); ok {
			if propType, _ := propMap["type"].(string); propType == "boolean" {
				result[name] = true
			}
		}
	}
	return result
}

// firstLine returns the first line of a possibly multi-line description.
func firstLine(s string) string {
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		return s[:idx]
	}
	return s
}
