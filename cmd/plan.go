package cmd

import (
	"context"
	"fmt"

	"github.com/edge-dvfs/policyd/internal/config"
	"github.com/edge-dvfs/policyd/internal/decide"
	"github.com/edge-dvfs/policyd/internal/profile"
)

// buildPlan loads the Apps file's (name, tp) requests, loads each app's
// Profile Store record, and runs Decide — the shared first half of both
// `run` and `decide`.
func buildPlan(ctx context.Context, profileDir, appsPath string) (decide.Plan, error) {
	appRequests, err := config.LoadApps(appsPath)
	if err != nil {
		return decide.Plan{}, fmt.Errorf("loading apps file: %w", err)
	}

	names := make([]string, len(appRequests))
	for i, a := range appRequests {
		names[i] = a.Name
	}

	store := profile.NewStore(profileDir)
	profiles, err := store.LoadApps(ctx, names)
	if err != nil {
		return decide.Plan{}, fmt.Errorf("loading app profiles: %w", err)
	}

	requests := make([]decide.Request, len(profiles))
	for i, p := range profiles {
		requests[i] = decide.Request{Profile: p, TargetTp: appRequests[i].TargetTp}
	}

	return decide.Decide(requests), nil
}
