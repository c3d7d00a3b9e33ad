package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v6"
)

var classes = []string{"read", "write", "ddl", "function", "role", "misc", "backup", "connect", "error", "system"}

var objectTypes = []string{"table", "index", "sequence", "toastvalue", "view", "matview", "composite_type", "foreign_table", "function"}

var commandTags = []string{"SELECT", "INSERT", "UPDATE", "DELETE", "CREATE TABLE", "DROP TABLE", "ALTER ROLE", "COPY", "TRUNCATE TABLE"}

var operators = []string{"=", "!="}

func parseFlags(args []string) (int, string) {
	fs := flag.NewFlagSet("policy_gen", flag.ContinueOnError)
	numRules := fs.Int("rules", 100, "Number of rules to generate")
	outputFile := fs.String("output", "generated_pgaudit.conf", "Output file name")
	fs.Parse(args)
	return *numRules, *outputFile
}

// pick returns n distinct entries of list.
func pick(list []string, n int) []string {
	shuffled := append([]string(nil), list...)
	gofakeit.ShuffleStrings(shuffled)
	if n > len(shuffled) {
		n = len(shuffled)
	}
	return shuffled[:n]
}

func quoted(values []string) string {
	return "'" + strings.Join(values, ", ") + "'"
}

func identifiers(n int, gen func() string) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = strings.ToLower(strings.ReplaceAll(gen(), "'", ""))
	}
	return out
}

func generateTimestamps() string {
	n := gofakeit.Number(1, 3)
	ranges := make([]string, 0, n)
	for i := 0; i < n; i++ {
		begin := gofakeit.Number(0, 22)
		end := gofakeit.Number(begin+1, 23)
		ranges = append(ranges, fmt.Sprintf("%02d:%02d:00-%02d:%02d:00", begin, gofakeit.Number(0, 59), end, gofakeit.Number(0, 59)))
	}
	return quoted(ranges)
}

func generateField(name string) string {
	switch name {
	case "timestamp":
		return generateTimestamps()
	case "class":
		return quoted(pick(classes, gofakeit.Number(1, 3)))
	case "object_type":
		return quoted(pick(objectTypes, gofakeit.Number(1, 3)))
	case "command_tag":
		return quoted(pick(commandTags, gofakeit.Number(1, 2)))
	case "remote_host":
		return quoted(identifiers(gofakeit.Number(1, 2), gofakeit.IPv4Address))
	case "audit_role":
		return quoted(identifiers(gofakeit.Number(1, 2), gofakeit.Username))
	case "object_name":
		return quoted(identifiers(gofakeit.Number(1, 2), func() string { return "public." + gofakeit.Word() }))
	default:
		return quoted(identifiers(gofakeit.Number(1, 3), gofakeit.Word))
	}
}

var ruleFields = []string{"timestamp", "database", "audit_role", "class", "command_tag", "object_type", "object_name", "application_name", "remote_host"}

func generateRule(index int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "[rule-%d]\n", index)
	if gofakeit.Bool() {
		fmt.Fprintf(&b, "format = '%%t %%u %%d %%a'\n")
	}
	for _, field := range pick(ruleFields, gofakeit.Number(1, len(ruleFields))) {
		fmt.Fprintf(&b, "%s %s %s\n", field, gofakeit.RandomString(operators), generateField(field))
	}
	return b.String()
}

func generatePolicy(numRules int) string {
	var b strings.Builder
	b.WriteString("[output]\n")
	fmt.Fprintf(&b, "logger = '%s'\n", gofakeit.RandomString([]string{"serverlog", "syslog"}))
	fmt.Fprintf(&b, "facility = 'local%d'\n", gofakeit.Number(0, 7))
	fmt.Fprintf(&b, "ident = '%s'\n", strings.ToLower(gofakeit.Word()))
	b.WriteString("\n[option]\n")
	fmt.Fprintf(&b, "role = '%s'\n", strings.ToLower(gofakeit.Username()))
	fmt.Fprintf(&b, "log_catalog = %s\n", gofakeit.RandomString([]string{"on", "off"}))
	fmt.Fprintf(&b, "log_parameter = %s\n", gofakeit.RandomString([]string{"on", "off"}))
	fmt.Fprintf(&b, "log_level = '%s'\n", gofakeit.RandomString([]string{"debug", "info", "notice", "warning", "log"}))

	for i := 1; i <= numRules; i++ {
		b.WriteString("\n")
		b.WriteString(generateRule(i))
	}
	return b.String()
}

func main() {
	numRules, outputFile := parseFlags(os.Args[1:])

	gofakeit.Seed(time.Now().UnixNano())

	if err := os.WriteFile(outputFile, []byte(generatePolicy(numRules)), 0o644); err != nil {
		fmt.Printf("Error writing file: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Generated audit policy with %d rules. Saved to %s\n", numRules, outputFile)
}
