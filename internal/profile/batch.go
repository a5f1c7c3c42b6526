package profile

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// LoadApps loads N named profiles concurrently. Any single ProfileNotFound,
// ProfileMalformed, or SlowdownMissing error is fatal to the whole batch and
// cancels the remaining loads — Decide cannot plan around an app it knows
// nothing about, so there is no point finishing the other loads once one has
// failed (spec.md §7: these are fatal at Decide, before any Run starts).
func (s *Store) LoadApps(ctx context.Context, names []string) ([]Profile, error) {
	profiles := make([]Profile, len(names))

	g, ctx := errgroup.WithContext(ctx)
	for i, name := range names {
		i, name := i, name
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			p, err := s.LoadApp(name)
			if err != nil {
				return err
			}
			profiles[i] = p
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return profiles, nil
}
