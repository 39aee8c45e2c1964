package cmd

import (
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// readInput loads a document from a file path, from an https URL, or from
// stdin when the name is "-".
func readInput(name string) ([]byte, error) {
	if name == "-" {
		data, err := io.ReadAll(os.Stdin)
		return data, errors.Wrap(err, "failed to read from stdin")
	}

	if strings.HasPrefix(name, "https://") {
		client := http.Client{
			Timeout: time.Second * 10,
		}
		resp, err := client.Get(name)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to get a file %q", name)
		}
		data, err := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		return data, errors.Wrap(err, "failed to read body")
	}

	data, err := os.ReadFile(name)
	return data, errors.Wrapf(err, "failed to read file %q", name)
}
