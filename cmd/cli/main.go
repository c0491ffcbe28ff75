package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"strings"
	"text/tabwriter"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "ask":
		handleAsk(args)
	case "commit":
		handleCommit(args)
	case "audit":
		handleAudit(args)
	case "units":
		handleUnits(args)
	case "grid":
		handleGrid(args)
	case "help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

// handleAsk sends a free-text command. Write proposals are shown with
// their summary and can be confirmed interactively.
func handleAsk(args []string) {
	fs := flag.NewFlagSet("ask", flag.ExitOnError)
	site := fs.String("site", "", "site code")
	department := fs.String("department", "", "department the command applies to by default")
	year := fs.Int("year", 0, "default plan year")
	yes := fs.Bool("yes", false, "commit proposals without asking")

	fs.Parse(args)

	command := strings.TrimSpace(strings.Join(fs.Args(), " "))
	if command == "" {
		fmt.Println("Usage: rosterpilot ask [flags] <command text>")
		fs.PrintDefaults()
		return
	}

	payload := map[string]any{
		"command": command,
		"context": map[string]any{
			"site":       *site,
			"department": *department,
			"year":       *year,
		},
	}
	result, status, err := postJSON("/assistant/query", payload)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	if status != http.StatusOK {
		fmt.Printf("✗ %v\n", result["error"])
		return
	}

	switch result["type"] {
	case "clarification":
		fmt.Printf("? %v\n", result["question"])
	case "result":
		fmt.Println("✓ Ergebnis:")
		printJSON(result["data"])
	case "proposal":
		fmt.Printf("Vorschlag: %v\n", result["summary"])
		token, _ := result["token"].(string)
		if token == "" {
			fmt.Println("✗ missing token in response")
			return
		}
		if !*yes && !confirm("Ausführen? [j/N] ") {
			fmt.Println("Abgebrochen.")
			return
		}
		commitToken(token, *site)
	default:
		printJSON(result)
	}
}

func handleCommit(args []string) {
	fs := flag.NewFlagSet("commit", flag.ExitOnError)
	token := fs.String("token", "", "proposal token")
	site := fs.String("site", "", "site code")

	fs.Parse(args)

	if *token == "" {
		fmt.Println("Error: token is required")
		fs.PrintDefaults()
		return
	}
	commitToken(*token, *site)
}

func commitToken(token, site string) {
	payload := map[string]any{
		"token":   token,
		"context": map[string]any{"site": site},
	}
	result, status, err := postJSON("/assistant/commit", payload)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	if status != http.StatusOK {
		fmt.Printf("✗ %v\n", result["error"])
		return
	}
	fmt.Printf("✓ %v\n", result["summary"])
	printJSON(result["result"])
}

func handleAudit(args []string) {
	fs := flag.NewFlagSet("audit", flag.ExitOnError)
	site := fs.String("site", "", "filter by site")
	limit := fs.Int("limit", 20, "number of entries")

	fs.Parse(args)

	result, status, err := getJSON(fmt.Sprintf("/audit?site=%s&limit=%d", *site, *limit))
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	if status != http.StatusOK {
		fmt.Printf("✗ %v\n", result["error"])
		return
	}

	entries, _ := result["entries"].([]any)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TIME\tSITE\tACTION\tSTATUS\tCOMMAND")
	for _, raw := range entries {
		e, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		fmt.Fprintf(w, "%v\t%v\t%v\t%v\t%v\n",
			e["createdAt"], e["site"], e["action"], e["status"], e["command"])
	}
	w.Flush()
}

func handleUnits(args []string) {
	fs := flag.NewFlagSet("units", flag.ExitOnError)
	site := fs.String("site", "", "filter by site")

	fs.Parse(args)

	result, status, err := getJSON("/org-units?site=" + *site)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	if status != http.StatusOK {
		fmt.Printf("✗ %v\n", result["error"])
		return
	}

	units, _ := result["units"].([]any)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "CODE\tSITE\tTYPE\tNAME")
	for _, raw := range units {
		u, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		fmt.Fprintf(w, "%v\t%v\t%v\t%v\n", u["code"], u["siteCode"], u["unitType"], u["name"])
	}
	w.Flush()
}

func handleGrid(args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: rosterpilot grid <list|rollover>")
		return
	}

	switch args[0] {
	case "list":
		listGrid(args[1:])
	case "rollover":
		rolloverGrid(args[1:])
	default:
		fmt.Printf("unknown grid command: %s\n", args[0])
	}
}

func listGrid(args []string) {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	unit := fs.String("unit", "", "org unit code")
	year := fs.Int("year", 0, "plan year")

	fs.Parse(args)

	if *unit == "" || *year == 0 {
		fmt.Println("Error: unit and year are required")
		fs.PrintDefaults()
		return
	}

	result, status, err := getJSON(fmt.Sprintf("/roster/list?unit=%s&year=%d", *unit, *year))
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	if status != http.StatusOK {
		fmt.Printf("✗ %v\n", result["error"])
		return
	}

	rows, _ := result["rows"].([]any)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PNR\tNAME\tJAN\tFEB\tMÄR\tAPR\tMAI\tJUN\tJUL\tAUG\tSEP\tOKT\tNOV\tDEZ")
	for _, raw := range rows {
		row, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		fmt.Fprintf(w, "%v\t%v", row["personalNumber"], row["name"])
		if values, ok := row["values"].([]any); ok {
			for _, v := range values {
				fmt.Fprintf(w, "\t%v", v)
			}
		}
		fmt.Fprintln(w)
	}
	w.Flush()
}

func rolloverGrid(args []string) {
	fs := flag.NewFlagSet("rollover", flag.ExitOnError)
	unit := fs.String("unit", "", "org unit code")
	fromYear := fs.Int("from", 0, "source year")
	toYear := fs.Int("to", 0, "target year")
	mode := fs.String("mode", "fill", "fill or overwrite")
	employees := fs.String("employees", "", "comma-separated employee IDs")

	fs.Parse(args)

	if *unit == "" || *fromYear == 0 || *toYear == 0 || *employees == "" {
		fmt.Println("Error: unit, from, to, and employees are required")
		fs.PrintDefaults()
		return
	}

	payload := map[string]any{
		"unit":        *unit,
		"fromYear":    *fromYear,
		"toYear":      *toYear,
		"mode":        *mode,
		"employeeIds": strings.Split(*employees, ","),
		"updatedBy":   "cli",
	}
	result, status, err := postJSON("/roster/rollover", payload)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	if status != http.StatusOK {
		fmt.Printf("✗ %v\n", result["error"])
		return
	}
	fmt.Printf("✓ %v Zellen übernommen\n", result["copiedCells"])
}

func postJSON(path string, payload any) (map[string]any, int, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, 0, err
	}
	resp, err := http.Post(getAPIURL()+path, "application/json", bytes.NewReader(data))
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	var result map[string]any
	json.NewDecoder(resp.Body).Decode(&result)
	return result, resp.StatusCode, nil
}

func getJSON(path string) (map[string]any, int, error) {
	resp, err := http.Get(getAPIURL() + path)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	var result map[string]any
	json.NewDecoder(resp.Body).Decode(&result)
	return result, resp.StatusCode, nil
}

func printJSON(v any) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Printf("%v\n", v)
		return
	}
	fmt.Println(string(data))
}

func confirm(prompt string) bool {
	fmt.Print(prompt)
	reader := bufio.NewReader(os.Stdin)
	answer, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "j" || answer == "ja" || answer == "y" || answer == "yes"
}

func getAPIURL() string {
	if url := os.Getenv("ROSTERPILOT_API"); url != "" {
		return url
	}
	return "http://localhost:8080/api"
}

func printUsage() {
	fmt.Println(`RosterPilot CLI

Usage:
  rosterpilot ask [flags] <command text>   interpret a command, confirm writes
  rosterpilot commit -token <token>        apply a previously issued proposal
  rosterpilot audit [-site X] [-limit N]   show the recent audit trail
  rosterpilot units [-site X]              list org units
  rosterpilot grid list -unit X -year N    show a unit's yearly plan
  rosterpilot grid rollover ...            copy a plan year forward
  rosterpilot help                         show this help

Environment:
  ROSTERPILOT_API   API base URL (default http://localhost:8080/api)`)
}
