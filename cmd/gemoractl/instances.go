package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/example/gemora/pkg/config"
	"github.com/example/gemora/pkg/discovery"
	"github.com/example/gemora/pkg/logger"
	"github.com/spf13/cobra"
)

type instanceFinder interface {
	Discover(ctx context.Context, name string) ([]discovery.Instance, error)
}

// gemoractl instances [name]
var instancesCmd = &cobra.Command{
	Use:   "instances [name]",
	Short: "List API instances registered in etcd",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		if len(cfg.Etcd.Endpoints) == 0 {
			return errors.New("etcd.endpoints is empty, nothing to query")
		}
		log, err := logger.New(cfg.Log)
		if err != nil {
			return err
		}
		defer log.Sync()

		registry, err := discovery.NewRegistry(&cfg.Etcd, log)
		if err != nil {
			return err
		}
		defer registry.Close()

		name := cfg.Server.Name
		if len(args) == 1 {
			name = args[0]
		}
		return runInstances(cmd.Context(), registry, name, cmd.OutOrStdout())
	},
}

func runInstances(ctx context.Context, finder instanceFinder, name string, out io.Writer) error {
	instances, err := finder.Discover(ctx, name)
	if err != nil {
		return err
	}
	if len(instances) == 0 {
		fmt.Fprintf(out, "No instances of %s registered\n", name)
		return nil
	}
	for _, instance := range instances {
		fmt.Fprintf(out, "%s\t%s\n", instance.Name, instance.Addr())
	}
	return nil
}
