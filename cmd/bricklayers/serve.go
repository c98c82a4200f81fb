package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"bricklayers-go/pkg/brick"
	"bricklayers-go/pkg/log"
	"bricklayers-go/pkg/metrics"
	"bricklayers-go/pkg/status"
)

func newServeCmd() *cobra.Command {
	var flags engineFlags
	var addr string
	var outputPath string
	var lineDelay time.Duration

	cmd := &cobra.Command{
		Use:   "serve <toolpath.gcode>",
		Short: "Stream a toolpath through the engine while serving status over HTTP",
		Long:  "serve loads a toolpath, replays it through the move interceptor, and exposes /status, /metrics, and a /ws snapshot stream while the replay runs. Useful for watching transform progress from a dashboard.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.load(cmd)
			if err != nil {
				return err
			}

			var out io.Writer = io.Discard
			if outputPath != "" {
				f, err := os.Create(outputPath)
				if err != nil {
					return fmt.Errorf("create output: %w", err)
				}
				defer f.Close()
				out = f
			}

			reg := metrics.NewRegistry()
			engine := brick.New(cfg, nil)
			engine.AttachMetrics(reg)
			if err := engine.Load(args[0]); err != nil {
				return err
			}
			if err := engine.Enable(); err != nil {
				return err
			}

			srv := status.New(status.DefaultConfig(addr), engine, reg)
			errCh := make(chan error, 1)
			go func() { errCh <- srv.Start() }()

			streamDone := make(chan error, 1)
			go func() {
				streamDone <- replayStream(cmd.Context(), engine, args[0], out, lineDelay)
			}()

			var streamErr error
			select {
			case streamErr = <-streamDone:
				st := engine.Status()
				log.Info("replay finished: %d of %d moves transformed", st.MovesTransformed, st.MovesTotal)
				// Keep serving status until interrupted.
				<-cmd.Context().Done()
			case <-cmd.Context().Done():
			case streamErr = <-errCh:
			}

			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(ctx); err != nil {
				return err
			}
			return streamErr
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVar(&addr, "addr", ":7130", "status server listen address")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "write the transformed toolpath to a file")
	cmd.Flags().DurationVar(&lineDelay, "line-delay", 0, "pause between replayed lines (simulates print pacing)")
	return cmd
}

// replayStream feeds the toolpath through the interceptor with an
// optional pacing delay so the status stream shows live progress.
func replayStream(ctx context.Context, engine *brick.Engine, path string, out io.Writer, delay time.Duration) error {
	if delay <= 0 {
		return transformStream(engine, path, out)
	}

	in, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open toolpath: %w", err)
	}
	defer in.Close()

	w := bufio.NewWriter(out)
	defer w.Flush()

	ticker := time.NewTicker(delay)
	defer ticker.Stop()

	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		if _, err := fmt.Fprintln(w, interceptLine(engine, scanner.Text())); err != nil {
			return err
		}
		select {
		case <-ticker.C:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return scanner.Err()
}

func newStatusCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Query a running serve instance for its status snapshot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			url := fmt.Sprintf("http://%s/status", addr)
			client := &http.Client{Timeout: 5 * time.Second}
			resp, err := client.Get(url)
			if err != nil {
				return fmt.Errorf("query %s: %w", url, err)
			}
			defer resp.Body.Close()

			var snapshot map[string]any
			if err := json.NewDecoder(resp.Body).Decode(&snapshot); err != nil {
				return fmt.Errorf("decode status: %w", err)
			}

			keys := make([]string, 0, len(snapshot))
			for k := range snapshot {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %v\n", k, snapshot[k])
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "localhost:7130", "serve instance address")
	return cmd
}
