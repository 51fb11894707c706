package cli

import (
	"bufio"
	"context"
	"io"
	"strings"
)

// Run reads commands from in until exit, EOF or ctx cancellation.
func (h *Handler) Run(ctx context.Context, in io.Reader) error {
	scanner := bufio.NewScanner(in)
	h.printf("> ")
	for scanner.Scan() {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if !h.Dispatch(ctx, scanner.Text()) {
			return nil
		}
		h.printf("> ")
	}
	return scanner.Err()
}

// Dispatch executes one command line and reports whether the loop should
// continue.
func (h *Handler) Dispatch(ctx context.Context, line string) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return true
	}

	cmd, args := strings.ToLower(fields[0]), fields[1:]
	switch cmd {
	case "exit", "quit":
		return false
	case "help":
		h.HandleHelp()
	case "upload":
		h.HandleUpload(ctx, args)
	case "get":
		h.HandleGet(ctx, args)
	case "list":
		h.HandleList(ctx, args)
	case "validate":
		h.HandleValidate(ctx, args)
	case "customs":
		h.HandleCustoms(ctx, args)
	case "pay":
		h.HandlePay(ctx, args)
	case "shipping":
		h.HandleShipping(ctx, args)
	case "schedule":
		h.HandleSchedule(ctx, args)
	case "complete":
		h.HandleComplete(ctx, args)
	case "release":
		h.HandleRelease(ctx, args)
	case "logs":
		h.HandleLogs(ctx, args)
	default:
		h.println("Unknown command. Type 'help' for available commands")
	}
	return true
}
