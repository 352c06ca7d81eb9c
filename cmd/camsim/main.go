package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	pflag "github.com/spf13/pflag"
)

type options struct {
	url      string
	file     string
	fileType string
	token    string
	interval time.Duration
	timeout  time.Duration
	count    int
	verbose  bool
}

func main() {
	opts := options{
		url:      "http://localhost:3000",
		interval: 200 * time.Millisecond,
		timeout:  5 * time.Second,
	}

	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	root := &cobra.Command{
		Use:   "camsim",
		Short: "Simulate the rover camera by uploading frames to the relay",
		Example: "  camsim --url http://localhost:3000 --file frame.jpg\n" +
			"  camsim --interval 100ms --count 50",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.interval <= 0 {
				return fmt.Errorf("interval must be positive")
			}
			if opts.verbose {
				log.SetLevel(logrus.DebugLevel)
			}

			source := FrameSource(SyntheticFrame)
			if opts.file != "" {
				data, err := os.ReadFile(opts.file)
				if err != nil {
					return fmt.Errorf("read frame: %w", err)
				}
				source = StaticFrame(data, opts.fileType)
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			// Build set of changed flags for the startup log
			changed := logrus.Fields{}
			cmd.Flags().Visit(func(f *pflag.Flag) { changed[f.Name] = f.Value.String() })
			log.WithFields(changed).WithField("url", opts.url).Info("Starting camera simulator")

			u := NewUploader(opts.url, opts.token, opts.timeout)
			sent, err := Run(ctx, u, source, opts.interval, opts.count, log)
			log.WithField("sent", sent).Info("Camera simulator stopped")
			return err
		},
	}

	root.Flags().StringVar(&opts.url, "url", opts.url, "base URL of the relay")
	root.Flags().StringVar(&opts.file, "file", "", "JPEG or PNG file to upload (default: synthetic frames)")
	root.Flags().StringVar(&opts.fileType, "content-type", "", "content type of --file (default: detected from the file)")
	root.Flags().StringVar(&opts.token, "token", "", "upload token, when the relay requires one")
	root.Flags().DurationVar(&opts.interval, "interval", opts.interval, "time between uploads")
	root.Flags().DurationVar(&opts.timeout, "timeout", opts.timeout, "HTTP timeout per upload")
	root.Flags().IntVar(&opts.count, "count", 0, "number of frames to send (0 = until interrupted)")
	root.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "debug logging")

	if err := root.Execute(); err != nil {
		log.WithError(err).Error("camsim")
		os.Exit(1)
	}
}
