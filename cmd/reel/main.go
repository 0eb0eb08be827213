// Command reel is the news narration pipeline CLI.
//
// Usage:
//
//	reel run              One full cycle: fetch, select, generate, persist
//	reel watch            Run a cycle every update_interval until interrupted
//	reel fetch            Fetch and select stories; save the selection
//	reel script           Generate a script from the last saved selection
//	reel search <query>   Full-text search over stored scripts
//	reel stats            Pipeline and store statistics
//	reel purge            Evict expired fingerprints, prune old scripts
package main

import (
	"fmt"
	"os"
)

const usage = `reel — news narration pipeline

Usage:
  reel <command> [flags]

Commands:
  run         One full cycle: fetch stories, select, generate a script, persist
  watch       Run a cycle every update_interval until interrupted
  fetch       Fetch and select stories; save the selection for 'reel script'
  script      Generate a script from the last saved selection
  search      Full-text search over stored scripts
  stats       Pipeline and store statistics
  purge       Evict expired fingerprints, prune old scripts

Flags (every command):
  -config     Path to the YAML config file (default newsreel.yaml)
  -debug      Verbose logging; keeps raw provider responses on failures

Environment:
  DEEPSEEK_API_KEY    DeepSeek API key
  GEMINI_API_KEY      Gemini API key (GOOGLE_API_KEY also honored)
  OPENAI_API_KEY      OpenAI API key
  ANTHROPIC_API_KEY   Claude API key
  OLLAMA_HOST         Ollama server (default http://localhost:11434)

Run 'reel <command> -h' for command-specific help.
`

func main() {
	if len(os.Args) < 2 {
		fmt.Print(usage)
		os.Exit(0)
	}

	cmd := os.Args[1]
	// Strip the program name + subcommand so flag sets see only their flags
	os.Args = os.Args[1:]

	switch cmd {
	case "run":
		runRun()
	case "watch":
		runWatch()
	case "fetch":
		runFetch()
	case "script":
		runScript()
	case "search":
		runSearch()
	case "stats":
		runStats()
	case "purge":
		runPurge()
	case "-h", "--help", "help":
		fmt.Print(usage)
	default:
		fmt.Fprintf(os.Stderr, "reel: unknown command %q\n\n", cmd)
		fmt.Print(usage)
		os.Exit(1)
	}
}
