package main

import (
	"context"
	"fmt"
	"os"

	"github.com/n9te9/go-graphql-composer/server"
	"github.com/spf13/cobra"
)

const version = "v0.1.0"

var configPath string

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of GraphQL Composer",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "GraphQL Composer %s\n", version)
	},
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a sample GraphQL Composer config",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := server.Init(configPath); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", configPath)
		return nil
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the GraphQL Composer server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return server.Run(configPath)
	},
}

var sdlCmd = &cobra.Command{
	Use:   "sdl",
	Short: "Compose the subgraphs once and print the merged schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		sdl, err := server.ComposeSDL(cmd.Context(), configPath)
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), sdl)
		return nil
	},
}

func main() {
	rootCmd := cobra.Command{
		Use:           "graphql-composer",
		Short:         "Compose several GraphQL services into one schema",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "graphql-composer.yaml", "path to the config file")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(sdlCmd)

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
