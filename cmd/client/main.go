package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log"
	"net"

	"roomchat/internal/models"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	addr    string
	raw     bool
	noColor bool
)

var rootCmd = &cobra.Command{
	Use:   "roomchat-client",
	Short: "Line client for the roomchat server",
	Long: `Connects to a roomchat server, sends every stdin line to it and prints
the events it sends back.

Type /help once connected to list the available commands.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if noColor {
			color.NoColor = true
		}
		return run(cmd.InOrStdin(), cmd.OutOrStdout())
	},
	SilenceUsage: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("Error: %v", err)
	}
}

func init() {
	rootCmd.Flags().StringVar(&addr, "addr", "localhost:7878", "Server TCP address")
	rootCmd.Flags().BoolVar(&raw, "raw", false, "Print server events as raw JSON lines")
	rootCmd.Flags().BoolVar(&noColor, "no-color", false, "Disable colored output")
}

func run(in io.Reader, out io.Writer) error {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", addr, err)
	}
	defer conn.Close()

	done := make(chan error, 1)
	go func() {
		done <- printEvents(conn, out)
	}()

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	for {
		select {
		case err := <-done:
			return err
		case line, ok := <-lines:
			if !ok {
				lines = nil
				line = "/quit"
			}
			if _, err := io.WriteString(conn, line+"\n"); err != nil {
				return fmt.Errorf("failed to send: %w", err)
			}
		}
	}
}

// printEvents prints server events until the server disconnects us.
func printEvents(r io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16<<20)

	for scanner.Scan() {
		line := scanner.Bytes()
		if raw {
			fmt.Fprintln(out, string(line))
		}

		event, err := models.ParseServerEvent(line)
		if err != nil {
			fmt.Fprintln(out, color.RedString("unreadable event: %v", err))
			continue
		}
		if !raw {
			fmt.Fprintln(out, formatEvent(event))
		}
		if event.Type == models.EventDisconnect {
			return nil
		}
	}
	if err := scanner.Err(); err != nil && !errors.Is(err, net.ErrClosed) {
		return err
	}
	fmt.Fprintln(out, color.YellowString("connection closed by server"))
	return nil
}
