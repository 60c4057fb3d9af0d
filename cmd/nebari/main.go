// Package main is the entry point for the nebari CLI.
//
// nebari deploys a cloud-hosted data science platform by rendering and
// applying a prioritized pipeline of Terraform stages, provisioning the
// deployment repository, and administering the platform's identity
// provider.
package main

import (
	"fmt"
	"os"

	"github.com/systemstart/nebari/cmd/nebari/commands"
	"github.com/systemstart/nebari/pkg/plugins"
	"github.com/systemstart/nebari/pkg/stages/infrastructure"
	"github.com/systemstart/nebari/pkg/stages/kubernetesservices"
	"github.com/systemstart/nebari/pkg/stages/terraformstate"
)

// Version information set by goreleaser at build time.
var (
	version = "dev"
	commit  = "none"
)

func main() {
	commands.SetVersionInfo(version, commit)

	reg := plugins.NewRegistry()
	reg.RegisterStages("terraform-state", terraformstate.Hook)
	reg.RegisterStages("infrastructure", infrastructure.Hook)
	reg.RegisterStages("kubernetes-services", kubernetesservices.Hook)
	reg.RegisterSubcommands("core", commands.Hook(reg))

	root := commands.Root()
	reg.ApplySubcommands(root)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
