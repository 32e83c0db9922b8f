package gateway_test

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/n9te9/go-graphql-composer/composer"
	"github.com/n9te9/go-graphql-composer/federation/transport"
	"github.com/n9te9/go-graphql-composer/gateway"
	"github.com/rs/zerolog"
)

func TestParseOption(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		want    *gateway.GatewayOption
		wantErr error
	}{
		{
			name: "defaults",
			src:  `service_name: composer`,
			want: &gateway.GatewayOption{
				Endpoint:        "/graphql",
				ServiceName:     "composer",
				Port:            8080,
				TimeoutDuration: "5s",
				LogLevel:        "info",
				LogFormat:       "json",
			},
		},
		{
			name: "explicit values",
			src: `
endpoint: /query
port: 9000
timeout_duration: 1s
enable_hang_over_request_header: true
add_entities_resolvers: true
max_depth: 4
log_level: debug
log_format: console
retry:
  attempts: 5
  timeout: 2s
opentelemetry:
  tracing:
    enable: true
    endpoint: localhost:4318
`,
			want: &gateway.GatewayOption{
				Endpoint:                    "/query",
				ServiceName:                 "graphql-composer",
				Port:                        9000,
				TimeoutDuration:             "1s",
				EnableHangOverRequestHeader: true,
				AddEntitiesResolvers:        true,
				MaxDepth:                    4,
				LogLevel:                    "debug",
				LogFormat:                   "console",
				Retry:                       transport.RetryOption{Attempts: 5, Timeout: "2s"},
				Opentelemetry: gateway.OpentelemetrySetting{
					TracingSetting: gateway.OpentelemetryTracingSetting{Enable: true, Endpoint: "localhost:4318"},
				},
			},
		},
		{
			name:    "invalid timeout",
			src:     `timeout_duration: soon`,
			wantErr: gateway.ErrInvalidConfig,
		},
		{
			name:    "invalid log level",
			src:     `log_level: loud`,
			wantErr: gateway.ErrInvalidConfig,
		},
		{
			name:    "malformed yaml",
			src:     "port: [1, 2",
			wantErr: gateway.ErrInvalidConfig,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := gateway.ParseOption([]byte(tt.src))
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if diff := cmp.Diff(got, tt.want); diff != "" {
				t.Errorf("option mismatch (-got +want):\n%s", diff)
			}
		})
	}
}

func TestGatewayOption_ComposerOptions(t *testing.T) {
	src := `
query_type_name: Root
add_entities_resolvers: true
subgraphs:
  - name: artists-subgraph
    host: http://artists:4000
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
            subgraph: songs-subgraph
            resolver:
              name: getSongsByArtists
  - name: songs-subgraph
    host: http://songs:4000
    graphql_endpoint: /query
    entities:
      Song:
        pkey: id
        fkeys:
          - type: Artist
            field: singerId
            pkey: id
            as: singer
            subgraph: artists-subgraph
            resolver:
              name: artists
              partial_results:
                id: singerId
`
	opt, err := gateway.ParseOption([]byte(src))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got := opt.ComposerOptions(zerolog.Nop(), nil)
	if got.QueryTypeName != "Root" || !got.AddEntitiesResolvers {
		t.Errorf("unexpected root options: %q %v", got.QueryTypeName, got.AddEntitiesResolvers)
	}
	if got.OnSubGraphError != nil {
		t.Error("expected the default subgraph error handling")
	}

	want := []composer.SubGraphOption{
		{
			Name:   "artists-subgraph",
			Server: composer.ServerOption{Host: "http://artists:4000"},
			Entities: map[string]composer.EntityOption{
				"Artist": {
					PKey: "id",
					Resolver: &composer.ResolverOption{
						Name:        "artists",
						ArgsAdapter: composer.TemplateArgsAdapter{{Arg: "where.id.in", Key: "id"}},
					},
					Many: []composer.ManyOption{
						{
							Type:     "Song",
							As:       "songs",
							FKey:     "singerId",
							SubGraph: "songs-subgraph",
							Resolver: &composer.ResolverOption{Name: "getSongsByArtists"},
						},
					},
				},
			},
		},
		{
			Name:   "songs-subgraph",
			Server: composer.ServerOption{Host: "http://songs:4000", GraphQLEndpoint: "/query"},
			Entities: map[string]composer.EntityOption{
				"Song": {
					PKey: "id",
					FKeys: []composer.ForeignKeyOption{
						{
							Type:     "Artist",
							Field:    "singerId",
							PKey:     "id",
							As:       "singer",
							SubGraph: "artists-subgraph",
							Resolver: &composer.ResolverOption{
								Name:           "artists",
								PartialResults: composer.FieldsRowsFilter{"id": "singerId"},
							},
						},
					},
				},
			},
		},
	}
	if diff := cmp.Diff(got.SubGraphs, want); diff != "" {
		t.Errorf("subgraphs mismatch (-got +want):\n%s", diff)
	}
}

func TestGatewayOption_SkipFailedSubGraphs(t *testing.T) {
	opt := &gateway.GatewayOption{SkipFailedSubGraphs: true}
	got := opt.ComposerOptions(zerolog.Nop(), nil)
	if got.OnSubGraphError == nil {
		t.Fatal("expected a subgraph error callback")
	}
	if err := got.OnSubGraphError(errors.New("boom"), "down"); err != nil {
		t.Errorf("expected the failure to be skipped, got %v", err)
	}
}
