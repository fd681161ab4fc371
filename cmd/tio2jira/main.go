package main

import (
	"os"

	"github.com/Mainfreight/integration-jira-cloud/internal/cli"
)

func main() {
	os.Exit(cli.Run())
}
