package main

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/pelletier/go-toml/v2"
	"github.com/radiomap/viewer/client"
	"github.com/segmentio/encoding/json"
	"gopkg.in/yaml.v3"
)

// loadDeployment reads the devices to deploy from a file. The format is picked
// from the file extension and defaults to JSON. An empty file name returns the
// default deployment.
func loadDeployment(filename string) (*client.Deployment, error) {
	if filename == "" {
		d := client.DefaultDeployment()
		return &d, nil
	}

	b, err := os.ReadFile(filename)
	if err != nil {
		return nil, errors.New("error reading deployment file").
			WithTag("file_name", filename).
			Wrap(err)
	}

	var unmarshal func([]byte, any) error
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".yaml", ".yml":
		unmarshal = yaml.Unmarshal
	case ".toml":
		unmarshal = toml.Unmarshal
	default:
		unmarshal = json.Unmarshal
	}

	var d client.Deployment
	if err := unmarshal(b, &d); err != nil {
		return nil, errors.New("error decoding deployment file").
			WithTag("file_name", filename).
			Wrap(err)
	}
	return &d, nil
}
