// Package plugins implements the hook-based extension registry through
// which stage providers and CLI subcommand providers are discovered.
//
// The registry is an explicit instance constructed at startup and passed
// down; there is no process-wide singleton. Multiple independent
// providers may register under the same hook, and first-party and
// third-party stage sets compose through the same mechanism.
package plugins

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/systemstart/nebari/pkg/stages"
)

// Hook names, as reported by the info command.
const (
	HookStage      = "nebari_stage"
	HookSubcommand = "nebari_subcommand"
)

// StageHook returns the stage definitions a provider contributes for the
// given environment. Returning an error aborts discovery for the run.
type StageHook func(env stages.Environment) ([]stages.Stage, error)

// SubcommandHook attaches a provider's subcommands to the root command.
type SubcommandHook func(root *cobra.Command)

// HookEntry identifies one provider registration for diagnostics.
type HookEntry struct {
	Hook     string
	Provider string
}

type stageRegistration struct {
	provider string
	hook     StageHook
}

type subcommandRegistration struct {
	provider string
	hook     SubcommandHook
}

// Registry maps hook names to ordered provider registrations.
type Registry struct {
	stageHooks      []stageRegistration
	subcommandHooks []subcommandRegistration
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// RegisterStages registers a stage provider under the stage hook.
func (r *Registry) RegisterStages(provider string, hook StageHook) {
	r.stageHooks = append(r.stageHooks, stageRegistration{provider: provider, hook: hook})
}

// RegisterSubcommands registers a subcommand provider under the
// subcommand hook.
func (r *Registry) RegisterSubcommands(provider string, hook SubcommandHook) {
	r.subcommandHooks = append(r.subcommandHooks, subcommandRegistration{provider: provider, hook: hook})
}

// DiscoveredStage pairs a stage with the provider that contributed it.
type DiscoveredStage struct {
	Stage    stages.Stage
	Provider string
}

// DiscoverStages invokes every registered stage provider in registration
// order and flattens the results. A provider error is fatal for the run.
func (r *Registry) DiscoverStages(env stages.Environment) ([]DiscoveredStage, error) {
	var all []DiscoveredStage
	for _, reg := range r.stageHooks {
		provided, err := reg.hook(env)
		if err != nil {
			return nil, fmt.Errorf("stage provider %s: %w", reg.provider, err)
		}
		for _, st := range provided {
			all = append(all, DiscoveredStage{Stage: st, Provider: reg.provider})
		}
	}
	return all, nil
}

// Stages returns the flattened stage definitions of every provider.
func (r *Registry) Stages(env stages.Environment) ([]stages.Stage, error) {
	discovered, err := r.DiscoverStages(env)
	if err != nil {
		return nil, err
	}
	all := make([]stages.Stage, 0, len(discovered))
	for _, d := range discovered {
		all = append(all, d.Stage)
	}
	return all, nil
}

// ApplySubcommands attaches every registered subcommand provider to root
// in registration order.
func (r *Registry) ApplySubcommands(root *cobra.Command) {
	for _, reg := range r.subcommandHooks {
		reg.hook(root)
	}
}

// Hooks lists every registration for the info diagnostic view.
func (r *Registry) Hooks() []HookEntry {
	entries := make([]HookEntry, 0, len(r.stageHooks)+len(r.subcommandHooks))
	for _, reg := range r.stageHooks {
		entries = append(entries, HookEntry{Hook: HookStage, Provider: reg.provider})
	}
	for _, reg := range r.subcommandHooks {
		entries = append(entries, HookEntry{Hook: HookSubcommand, Provider: reg.provider})
	}
	return entries
}

// AvailableStages runs stage discovery and returns the final
// priority-ordered, deduplicated pipeline.
func AvailableStages(r *Registry, env stages.Environment) ([]stages.Stage, error) {
	discovered, err := r.Stages(env)
	if err != nil {
		return nil, err
	}
	return stages.Sort(discovered), nil
}
