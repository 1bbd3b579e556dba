/**************************************************************************************************
** Main entry point for the photo-stamp CLI. This tool writes a date, a time and an address on a
** batch of photos, the time of each photo being derived from a set of time ranges.
**************************************************************************************************/

package main

import (
	"os"

	"github.com/spf13/cobra"
)

/**************************************************************************************************
** Application entry point. Builds the command tree and reports a failed execution through the
** exit code.
**************************************************************************************************/
func main() {
	if err := CreateRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

/**************************************************************************************************
** CreateRootCommand sets up the CLI command structure using Cobra, including all available
** commands and their associated flags.
**
** @return *cobra.Command - Root command, running the watermarking of a batch
**************************************************************************************************/
func CreateRootCommand() *cobra.Command {
	var rootCmd = &cobra.Command{
		Use:   "photo-stamp [images...]",
		Short: "Photo Stamp CLI",
		Long: "Watermark a batch of photos with a date, a computed time and an address, and write them to a zip archive.\n" +
			"Images are taken from the arguments, or from the job file when no argument is given.",
		Args: cobra.ArbitraryArgs,
		Run:  runStamp,
	}

	var previewCmd = &cobra.Command{
		Use:   "preview [images...]",
		Short: "Show the time assigned to every image",
		Long:  "Resolve the time ranges of the job and print the range, position and label of every image without processing anything.",
		Args:  cobra.ArbitraryArgs,
		Run:   runPreview,
	}

	var serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		Long:  "Serve the preview and watermark endpoints so a browser or a remote CLI can process batches.",
		Args:  cobra.NoArgs,
		Run:   runServe,
	}

	var initCmd = &cobra.Command{
		Use:   "init [path]",
		Short: "Write a sample job file",
		Long:  "Write a sample job file to start from. Defaults to the --job path and never overwrites an existing file.",
		Args:  cobra.MaximumNArgs(1),
		Run:   runInit,
	}

	bindFlags(rootCmd)

	rootCmd.AddCommand(previewCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(initCmd)
	return rootCmd
}

/**************************************************************************************************
** bindFlags registers the persistent flags, each one backed by a configuration variable and an
** environment variable of the same meaning.
**************************************************************************************************/
func bindFlags(rootCmd *cobra.Command) {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&jobFile, "job", "", "Job file, YAML or JSON (or set JOB_FILE env var)")
	flags.StringVarP(&output, "output", "o", "", "Archive path, defaults to the job's archive name (or set OUTPUT env var)")
	flags.StringVar(&position, "position", "", "Watermark corner: top-left, top-right, bottom-left, bottom-right (or set POSITION env var)")
	flags.StringVar(&fontSize, "font-size", "", "Font size: small, medium, large (or set FONT_SIZE env var)")
	flags.StringVar(&textColor, "text-color", "", "Text color: white, black or #rrggbb (or set TEXT_COLOR env var)")
	flags.StringVar(&bold, "bold", "", "Use the bold face, true or false (or set BOLD env var)")
	flags.StringVar(&border, "border", "", "Draw an outline around the text, true or false (or set BORDER env var)")
	flags.StringVar(&borderWidth, "border-width", "", "Outline width: thin, medium, thick (or set BORDER_WIDTH env var)")
	flags.StringVar(&borderColor, "border-color", "", "Outline color: white, black or #rrggbb (or set BORDER_COLOR env var)")
	flags.StringVar(&fontFile, "font-file", "", "TrueType/OpenType font replacing the embedded one (or set FONT_FILE env var)")
	flags.IntVar(&fontTimeout, "font-timeout", 0, "Seconds to wait for the font before processing anyway (or set FONT_TIMEOUT env var)")
	flags.BoolVar(&keepNames, "keep-names", false, "Name archive entries after the source files (or set KEEP_NAMES=true)")
	flags.StringVar(&remoteURL, "remote-url", "", "Process on a photo-stamp server instead of locally (or set REMOTE_URL env var)")
	flags.StringVar(&apiKey, "api-key", "", "Shared secret between the server and its clients (or set API_KEY env var)")
	flags.StringVar(&listenAddr, "listen-addr", "", "Address the server listens on (or set LISTEN_ADDR env var)")
	flags.StringVar(&logLevel, "log-level", "", "Log level (or set LOG_LEVEL env var)")
	flags.StringVar(&logFormat, "log-format", "", "Log format: text or json (or set LOG_FORMAT env var)")
	flags.BoolVar(&dryRun, "dry-run", false, "Print the preview instead of processing (or set DRY_RUN=true)")
}
