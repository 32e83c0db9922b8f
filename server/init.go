package server

import (
	"errors"
	"fmt"
	"os"
)

var ErrConfigExists = errors.New("config file already exists")

const sampleConfig = `endpoint: /graphql
service_name: graphql-composer
port: 8080
timeout_duration: 5s
enable_hang_over_request_header: true
add_entities_resolvers: true
log_level: info
log_format: json
retry:
  attempts: 3
  timeout: 5s
opentelemetry:
  tracing:
    enable: false
subgraphs:
  - name: artists
    host: http://localhost:4001
    entities:
      Artist:
        pkey: id
        resolver:
          name: artists
          args:
            - arg: where.id.in
              key: id
        many:
          - type: Song
            as: songs
            fkey: singerId
            subgraph: songs
            resolver:
              name: getSongsByArtists
              args:
                - arg: ids
                  key: id
  - name: songs
    host: http://localhost:4002
    entities:
      Song:
        pkey: id
        fkeys:
          - type: Artist
            field: singerId
            pkey: id
            as: singer
            subgraph: artists
            resolver:
              name: artists
              args:
                - arg: where.id.in
                  key: id
              partial_results:
                id: singerId
`

// Init writes a sample config to path. An existing file is left untouched.
func Init(path string) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return fmt.Errorf("%w: %s", ErrConfigExists, path)
		}
		return err
	}
	defer f.Close()

	if _, err := f.WriteString(sampleConfig); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
