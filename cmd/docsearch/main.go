package main

import (
	"github.com/kailas-cloud/docsearch/internal/command"
)

func main() {
	command.Main("docsearch", "Crawl, index and search documentation sites",
		command.NewEngineCommand(),
		command.NewWebCommand(),
		command.NewCrawlCommand(),
		command.NewIngestCommand(),
	)
}
