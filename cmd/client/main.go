// bordrail-client is a line oriented console for the BordRail booking
// protocol.  Each input line is sent as one frame; the end marker is added
// when missing.  Server output is copied to stdout as it arrives.
//
// Usage:
//
//	bordrail-client HOST PORT
package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"strings"
	"time"

	"github.com/spf13/pflag"

	"github.com/iliyamo/bordrail/internal/protocol"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var timeout time.Duration
	flagSet := pflag.NewFlagSet("bordrail-client", pflag.ContinueOnError)
	flagSet.DurationVar(&timeout, "timeout", 5*time.Second, "connect timeout")
	flagSet.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: bordrail-client [flags] HOST PORT\n\nFlags:\n%s", flagSet.FlagUsages())
	}
	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}
	args := flagSet.Args()
	if len(args) != 2 {
		flagSet.Usage()
		return errors.New("HOST and PORT are required")
	}

	addr := net.JoinHostPort(args[0], args[1])
	fmt.Printf("Attempting connection to %s\n", addr)
	conn, err := net.DialTimeout("tcp", addr, timeout)
	if err != nil {
		return err
	}
	defer conn.Close()
	fmt.Printf("Connected to: %s\n\n", conn.RemoteAddr())

	done := make(chan error, 1)
	go func() {
		_, err := io.Copy(os.Stdout, conn)
		done <- err
	}()

	in := bufio.NewScanner(os.Stdin)
	for in.Scan() {
		line := strings.TrimSpace(in.Text())
		if line == "" {
			continue
		}
		if _, err := conn.Write(frame(line)); err != nil {
			return fmt.Errorf("send: %w", err)
		}
		if strings.HasPrefix(line, protocol.CmdTerm) {
			break
		}
	}
	if err := in.Err(); err != nil {
		return err
	}
	if tcp, ok := conn.(*net.TCPConn); ok {
		tcp.CloseWrite()
	}

	err = <-done
	fmt.Println("\nClosing connection.")
	if err != nil && !errors.Is(err, net.ErrClosed) {
		return err
	}
	return nil
}

// frame terminates line with the end marker unless it already ends with
// one.
func frame(line string) []byte {
	if strings.HasSuffix(line, string(protocol.EndMarker)) {
		return []byte(line)
	}
	return []byte(line + string(protocol.EndMarker))
}
