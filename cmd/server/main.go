package main

import (
	"github.com/Raghavvram/KnowledgeBaseUsingGraphsRelation/internal/server"
	"github.com/Raghavvram/KnowledgeBaseUsingGraphsRelation/internal/util"
	"github.com/Raghavvram/KnowledgeBaseUsingGraphsRelation/pkg/logger"
	"github.com/Raghavvram/KnowledgeBaseUsingGraphsRelation/pkg/logger/console"

	_ "github.com/lib/pq"
)

func main() {
	util.LoadEnv()

	debug := util.GetEnvBool("DEBUG", false)

	consoleLogger := console.NewConsoleLogger(console.ConsoleLoggerParams{
		Debug: debug,
	})
	logger.Init(consoleLogger)

	server.Init()
}
