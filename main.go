package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/cheggaaa/pb/v3"
	"github.com/spf13/cobra"

	spotifyapi "playlist-importer/internal/api/spotify"
	"playlist-importer/internal/audit"
	"playlist-importer/internal/checkpoint"
	"playlist-importer/internal/config"
	"playlist-importer/internal/decide"
	"playlist-importer/internal/logging"
	"playlist-importer/internal/match"
	"playlist-importer/internal/pipeline"
	"playlist-importer/internal/ratelimit"
	"playlist-importer/internal/scanner"
	"playlist-importer/internal/shared"
	"playlist-importer/internal/tags"
)

const toolVersion = "1.0.0"

var configPath string

var rootCmd = &cobra.Command{
	Use:     "playlist-importer",
	Version: toolVersion,
	Short:   "Match local audio files against the Spotify catalog and build playlists from them.",
	Long: fmt.Sprintf(`Playlist Importer (v%s)

Scans a local music library, searches the Spotify catalog for each track,
scores the candidates against the file's tags, and adds accepted matches to
a playlist of your choice. Uncertain matches are resolved interactively.

Runs are resumable: progress is checkpointed after every file, and audit
reports of every decision are written alongside.`, toolVersion),
}

var importCmd = &cobra.Command{
	Use:   "import [path]",
	Short: "Import a directory (or single file) of audio into a playlist.",
	Args:  cobra.ExactArgs(1),
	RunE:  runImport,
}

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Run the browser authorization flow and cache the token.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		log, _, err := logging.NewRunLogger(cfg.LogDir)
		if err != nil {
			return err
		}
		auth := spotifyapi.NewAuthenticator(cfg.ClientID, cfg.RedirectURL, cfg.CacheDir, log)
		if _, err := auth.Token(cmd.Context()); err != nil {
			return err
		}
		shared.ColorSuccess.Println("Authorization token cached.")
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config.json", "Path to the configuration file")

	f := importCmd.Flags()
	f.String("market", "", "Preferred catalog market (two-letter code, empty for the configured default)")
	f.Float64("auto-accept", config.DefaultAutoAccept, "Score at or above which the top candidate is accepted without asking")
	f.Float64("auto-deny", -1, "Score at or below which a file is skipped without asking (negative disables)")
	f.Int("max-candidates", config.DefaultMaxCandidates, "How many candidates the interactive menu shows (max 5)")
	f.Bool("dry-run", false, "Decide everything but do not modify the playlist")
	f.Bool("resume", false, "Resume from the previous run's checkpoint")
	f.String("checkpoint", "", "Checkpoint file path (default: <cache-dir>/checkpoint-<playlist-id>.json)")
	f.StringSlice("extensions", nil, "Audio extensions to scan (default: common audio formats)")
	f.Bool("no-recursive", false, "Do not descend into subdirectories")
	f.Bool("include-hidden", false, "Scan hidden files and directories")
	f.Bool("follow-symlinks", false, "Follow symlinked files")
	f.StringSlice("exclude", nil, "Directory names to skip")
	f.String("playlist-id", "", "Target playlist ID (skips the interactive picker)")
	f.Bool("no-progress", false, "Disable the progress bar")

	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(authCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		shared.ColorError.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}

func loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return cfg, err
	}
	f := cmd.Flags()
	if f.Changed("market") {
		market, _ := f.GetString("market")
		cfg.Market = strings.ToUpper(market)
	}
	if f.Changed("auto-accept") {
		cfg.AutoAccept, _ = f.GetFloat64("auto-accept")
	}
	if f.Changed("auto-deny") {
		cfg.AutoDeny, _ = f.GetFloat64("auto-deny")
	}
	if f.Changed("max-candidates") {
		cfg.MaxCandidates, _ = f.GetInt("max-candidates")
	}
	if f.Changed("extensions") {
		cfg.Extensions, _ = f.GetStringSlice("extensions")
	}
	return cfg, cfg.Validate()
}

func runImport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	log, logPath, err := logging.NewRunLogger(cfg.LogDir)
	if err != nil {
		return fmt.Errorf("opening run log: %w", err)
	}
	shared.ColorInfo.Printf("Logging to %s\n", logPath)

	// Scan before touching the network so obvious path mistakes fail fast.
	f := cmd.Flags()
	noRecursive, _ := f.GetBool("no-recursive")
	includeHidden, _ := f.GetBool("include-hidden")
	followSymlinks, _ := f.GetBool("follow-symlinks")
	exclude, _ := f.GetStringSlice("exclude")
	files, err := scanner.Scan(args[0], scanner.Options{
		Extensions:     cfg.Extensions,
		Recursive:      !noRecursive,
		IgnoreHidden:   !includeHidden,
		FollowSymlinks: followSymlinks,
		ExcludeDirs:    exclude,
	}, log)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		shared.ColorWarning.Println("No audio files found, nothing to do.")
		return nil
	}
	shared.ColorInfo.Printf("Found %d audio files under %s\n", len(files), args[0])

	auth := spotifyapi.NewAuthenticator(cfg.ClientID, cfg.RedirectURL, cfg.CacheDir, log)
	tok, err := auth.Token(ctx)
	if err != nil {
		return err
	}
	caller := ratelimit.New(ratelimit.DefaultConfig(), log)
	client := spotifyapi.NewClient(auth.HTTPClient(ctx, tok), caller, log)

	userID, userName, err := client.CurrentUser(ctx)
	if err != nil {
		return err
	}
	shared.ColorInfo.Printf("Signed in as %s (%s)\n", userName, userID)

	playlist, err := selectPlaylist(ctx, cmd, client, userID)
	if err != nil {
		return err
	}
	if err := spotifyapi.EnsureWritable(playlist, userID); err != nil {
		return err
	}
	shared.ColorInfo.Printf("Importing into %q\n", playlist.Name)

	existingURIs, err := client.PlaylistTrackURIs(ctx, playlist.ID)
	if err != nil {
		return err
	}
	existing := make(map[string]bool, len(existingURIs))
	for _, uri := range existingURIs {
		existing[uri] = true
	}

	resume, _ := f.GetBool("resume")
	ckptOverride, _ := f.GetString("checkpoint")
	ckptPath := checkpointPath(cfg.CacheDir, ckptOverride, playlist.ID)
	if !resume {
		os.Remove(ckptPath)
	}
	ckpt := checkpoint.Load(ckptPath, latestNDJSON(cfg.ReportDir), log)

	aud, err := audit.NewWriter(cfg.ReportDir, log)
	if err != nil {
		return err
	}
	defer aud.Close()

	strategist := match.NewStrategist(client, log)
	engine := decide.NewEngine(cfg.AutoAccept, cfg.AutoDeny, cfg.MaxCandidates, strategist, os.Stdin, os.Stdout)

	dryRun, _ := f.GetBool("dry-run")
	noProgress, _ := f.GetBool("no-progress")
	var bar *pb.ProgressBar
	if !noProgress && shared.IsTTY() {
		bar = pb.StartNew(len(files))
	}

	runner := &pipeline.Runner{
		Searcher:   strategist,
		Decider:    engine,
		Playlist:   client,
		LoadTags:   tags.Load,
		Checkpoint: ckpt,
		Audit:      aud,
		Cache:      match.NewCache(),
		Log:        log,
		PlaylistID: playlist.ID,
		Region:     cfg.Market,
		DryRun:     dryRun,
		Existing:   existing,
		Bar:        bar,
	}
	sum, err := runner.Run(ctx, files)
	if bar != nil {
		bar.Finish()
	}
	if err != nil {
		printSummary(sum, dryRun)
		return err
	}

	if err := auth.SaveToken(tok); err != nil {
		log.Warn("token refresh not persisted", "error", err)
	}
	printSummary(sum, dryRun)
	return nil
}

// checkpointPath resolves the resume checkpoint location: the --checkpoint
// override when given, otherwise a per-playlist file under the cache dir.
func checkpointPath(cacheDir, override, playlistID string) string {
	if override != "" {
		return override
	}
	return filepath.Join(cacheDir, "checkpoint-"+playlistID+".json")
}

// latestNDJSON finds the newest audit stream for checkpoint recovery.
func latestNDJSON(reportDir string) string {
	entries, err := os.ReadDir(reportDir)
	if err != nil {
		return ""
	}
	var names []string
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".ndjson") {
			names = append(names, e.Name())
		}
	}
	if len(names) == 0 {
		return ""
	}
	// Timestamped names sort chronologically.
	sort.Strings(names)
	return filepath.Join(reportDir, names[len(names)-1])
}

func printSummary(sum pipeline.Summary, dryRun bool) {
	fmt.Println()
	shared.ColorInfo.Println("Import summary:")
	if dryRun {
		shared.ColorWarning.Printf("  Planned (dry run):  %d\n", sum.PlannedAdd)
	} else {
		shared.ColorSuccess.Printf("  Added:              %d\n", sum.Added)
	}
	if sum.Duplicate > 0 {
		shared.ColorWarning.Printf("  Already in playlist: %d\n", sum.Duplicate)
	}
	if sum.Skipped > 0 {
		shared.ColorWarning.Printf("  Skipped:            %d\n", sum.Skipped)
	}
	if sum.NotFound > 0 {
		shared.ColorWarning.Printf("  Not found:          %d\n", sum.NotFound)
	}
	if sum.Failed > 0 {
		shared.ColorError.Printf("  Failed:             %d\n", sum.Failed)
	}
	if sum.Resumed > 0 {
		shared.ColorInfo.Printf("  Resumed (skipped):  %d\n", sum.Resumed)
	}
	if sum.Aborted {
		shared.ColorWarning.Println("  Run aborted by user; progress was checkpointed.")
	}
}
