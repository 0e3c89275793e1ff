package cli

import (
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

// maxPortProbes bounds the search for a free port.
const maxPortProbes = 100

func RunServe(cmd *cobra.Command, args []string) error {
	rootPath, err := projectRoot(args)
	if err != nil {
		return err
	}
	startPort, err := cmd.Flags().GetInt("port")
	if err != nil {
		return err
	}

	genDir := filepath.Join(docsRoot(rootPath), "gen")
	if _, err := os.Stat(genDir); err != nil {
		return fmt.Errorf("documentation not found at %s, run ade document first", genDir)
	}

	listener, port, err := listenOnFreePort(startPort)
	if err != nil {
		return err
	}

	fmt.Printf("serving documentation at http://localhost:%d\n", port)
	fmt.Printf("source: %s\n", genDir)
	fmt.Println("press Ctrl+C to stop")

	return http.Serve(listener, http.FileServer(http.Dir(genDir)))
}

// listenOnFreePort tries successive ports starting at startPort.
func listenOnFreePort(startPort int) (net.Listener, int, error) {
	for port := startPort; port < startPort+maxPortProbes; port++ {
		listener, err := net.Listen("tcp", fmt.Sprintf("localhost:%d", port))
		if err == nil {
			return listener, port, nil
		}
	}
	return nil, 0, fmt.Errorf("no free port in %d-%d", startPort, startPort+maxPortProbes-1)
}
