// Command krishictl administers a KrishiAI database: migrations, accounts,
// stored Gemini keys and mandi price snapshots.
package main

import "os"

func main() {
	os.Exit(run(os.Args[1:], os.Stdout))
}
