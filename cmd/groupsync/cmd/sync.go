package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/teamdir/groupsync/internal/api360"
	"github.com/teamdir/groupsync/internal/config"
	"github.com/teamdir/groupsync/internal/ldap"
	"github.com/teamdir/groupsync/internal/roster"
	"github.com/teamdir/groupsync/pkg/logging"
	"github.com/teamdir/groupsync/pkg/sync"
)

// syncCmd runs a full reconciliation pass.
var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Run a full group and membership reconciliation",
	Long: `Sync fetches group snapshots from both directories, converges the
target's tagged groups onto the source (create, update, delete), re-fetches
the target groups so freshly created ones have ids, and then converges
each group's member list against its roster file.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runSync(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(syncCmd)
}

func runSync(ctx context.Context) error {
	log := logging.Default()
	ctx = logging.WithLogger(ctx, log)

	settings, err := config.Load(configFile)
	if err != nil {
		log.Error().Err(err).Msg("settings are incomplete")
		return err
	}
	if dryRun {
		settings.DryRun = true
	}

	var clientOpts []api360.Option
	if settings.APIBaseURL != "" {
		clientOpts = append(clientOpts, api360.WithBaseURL(settings.APIBaseURL))
	}
	client := api360.New(settings.OrgID, settings.OAuthToken, clientOpts...)
	if err := client.CheckToken(ctx); err != nil {
		log.Error().Err(err).Msg("token check failed")
		return err
	}

	source := ldap.New(settings.LDAPConfig())

	var storeOpts []roster.StoreOption
	if settings.RosterEncoding != "" {
		storeOpts = append(storeOpts, roster.WithEncoding(settings.RosterEncoding))
	}
	if settings.RosterPrefix != "" {
		storeOpts = append(storeOpts, roster.WithPrefix(settings.RosterPrefix))
	}
	store := roster.NewStore(settings.RosterDir, storeOpts...)

	syncer := sync.New(client, store, sync.WithDryRun(settings.DryRun))
	if settings.DiagnosticsEnabled {
		syncer.WithSnapshotWriter(roster.NewDiagnostics(settings.DiagnosticsDir))
	}

	if settings.DryRun {
		log.Info().Msg("dry run: no changes will be applied")
	}

	// The user snapshot is fetched up front: it doubles as a connectivity
	// check and the cache serves the membership phase later in the run.
	targetUsers, err := client.Users(ctx)
	if err != nil {
		log.Error().Err(err).Msg("fetching target users failed")
		return err
	}

	sourceGroups, err := source.Groups(ctx)
	if err != nil {
		log.Error().Err(err).Msg("fetching source groups failed")
		return err
	}
	targetGroups, err := client.Groups(ctx)
	if err != nil {
		log.Error().Err(err).Msg("fetching target groups failed")
		return err
	}

	groupStats, err := syncer.SyncGroups(ctx, sourceGroups, targetGroups)
	if err != nil {
		log.Error().Err(err).Msg("group sync aborted")
		return err
	}

	// Freshly created groups only exist in a re-fetched snapshot; membership
	// needs their assigned ids.
	targetGroups, err = client.Groups(ctx)
	if err != nil {
		log.Error().Err(err).Msg("re-fetching target groups failed")
		return err
	}

	memberStats, err := syncer.SyncMembership(ctx, sourceGroups, targetGroups, targetUsers)
	if err != nil {
		log.Error().Err(err).Msg("membership sync aborted")
		return err
	}

	if failures := groupStats.Errors + memberStats.Errors; failures > 0 {
		return fmt.Errorf("sync completed with %d errors", failures)
	}
	log.Info().Msg("sync completed")
	return nil
}
