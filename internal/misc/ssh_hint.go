package misc

import (
	"fmt"
	"io"
	"os"
	"strings"
)

// IsRemoteSession reports whether the process runs inside an SSH session, in which
// case a browser on the user's machine cannot reach the loopback callback directly.
// A nil lookup uses os.LookupEnv.
func IsRemoteSession(lookup func(string) (string, bool)) bool {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	for _, key := range []string{"SSH_CONNECTION", "SSH_CLIENT", "SSH_TTY"} {
		if value, ok := lookup(key); ok && strings.TrimSpace(value) != "" {
			return true
		}
	}
	return false
}

// sshServerAddress returns the server side address from SSH_CONNECTION
// ("client_ip client_port server_ip server_port"), or a placeholder.
func sshServerAddress(lookup func(string) (string, bool)) string {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	if value, ok := lookup("SSH_CONNECTION"); ok {
		fields := strings.Fields(value)
		if len(fields) == 4 {
			return fields[2]
		}
	}
	return "<server>"
}

// PrintSSHTunnelInstructions writes the port-forwarding command that lets a browser on
// the user's local machine reach the callback server on port.
func PrintSSHTunnelInstructions(w io.Writer, port int, lookup func(string) (string, bool)) {
	address := sshServerAddress(lookup)
	border := strings.Repeat("=", 80)
	_, _ = fmt.Fprintln(w, "To authenticate from a remote machine, an SSH tunnel may be required.")
	_, _ = fmt.Fprintln(w, border)
	_, _ = fmt.Fprintln(w, "  Run the following command on your local machine (NOT the server):")
	_, _ = fmt.Fprintln(w)
	_, _ = fmt.Fprintf(w, "  ssh -L %d:127.0.0.1:%d <user>@%s\n", port, port, address)
	_, _ = fmt.Fprintln(w, border)
}
