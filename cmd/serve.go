/**************************************************************************************************
** Serve command implementation. Runs the HTTP server until interrupted.
**************************************************************************************************/

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/majorfi/photo-stamp/pkg/batch"
	"github.com/majorfi/photo-stamp/pkg/render"
	"github.com/majorfi/photo-stamp/pkg/server"
)

func runServe(cmd *cobra.Command, args []string) {
	logger := loadEnv()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if apiKey == "" {
		logger.Warn("API_KEY is not set, the server accepts unauthenticated requests")
	}
	if err := server.New(newProcessor(logger), logger, apiKey).Run(ctx, listenAddr); err != nil {
		logger.Fatal(err)
	}
}

/**************************************************************************************************
** newProcessor builds the local processor from the configured font file and font timeout.
**************************************************************************************************/
func newProcessor(logger *logrus.Logger) *batch.Processor {
	processor := batch.NewProcessor(render.New(logger, fontFile), logger)
	processor.FontTimeout = time.Duration(fontTimeout) * time.Second
	return processor
}
