package main

import (
	"log/slog"
	"os"
	"time"

	"github.com/carlmjohnson/versioninfo"
	_ "github.com/joho/godotenv/autoload"
	cli "github.com/urfave/cli/v2"
	_ "go.uber.org/automaxprocs"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		slog.Error("exiting", "err", err)
		os.Exit(-1)
	}
}

func newApp() *cli.App {
	app := cli.App{
		Name:    "wade",
		Usage:   "posts reactions to a live baseball game",
		Version: versioninfo.Short(),
	}

	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:    "log-level",
			Usage:   "log verbosity level (eg: warn, info, debug)",
			Value:   "info",
			EnvVars: []string{"WADE_LOG_LEVEL", "LOG_LEVEL"},
		},
		&cli.Int64Flag{
			Name:    "subject-id",
			Usage:   "stats API team id to react for",
			Value:   137,
			EnvVars: []string{"WADE_SUBJECT_ID"},
		},
		&cli.StringFlag{
			Name:    "subject-name",
			Usage:   "team name used in drought messages",
			Value:   "Giants",
			EnvVars: []string{"WADE_SUBJECT_NAME"},
		},
		&cli.StringFlag{
			Name:    "tag",
			Usage:   "hashtag appended to every post",
			Value:   "#SFGiants",
			EnvVars: []string{"WADE_TAG"},
		},
		&cli.StringFlag{
			Name:    "roster-file",
			Usage:   "JSON or YAML roster of priority players; built-in roster if empty",
			EnvVars: []string{"WADE_ROSTER_FILE"},
		},
		&cli.StringFlag{
			Name:    "prompt-file",
			Usage:   "system prompt for the post writer",
			Value:   "wade_prompt.txt",
			EnvVars: []string{"WADE_PROMPT_FILE"},
		},
		&cli.StringFlag{
			Name:    "openai-api-key",
			EnvVars: []string{"OPENAI_API_KEY"},
		},
		&cli.StringFlag{
			Name:    "openai-model",
			Value:   "gpt-3.5-turbo",
			EnvVars: []string{"WADE_OPENAI_MODEL"},
		},
		&cli.IntFlag{
			Name:    "drought-threshold",
			Usage:   "subject plate appearances without a post before an escalation message; zero disables",
			Value:   8,
			EnvVars: []string{"WADE_DROUGHT_THRESHOLD"},
		},
		&cli.IntFlag{
			Name:    "rate-limit",
			Usage:   "max posts per rate window",
			Value:   5,
			EnvVars: []string{"WADE_RATE_LIMIT"},
		},
		&cli.DurationFlag{
			Name:    "rate-window",
			Value:   10 * time.Minute,
			EnvVars: []string{"WADE_RATE_WINDOW"},
		},
		&cli.Int64Flag{
			Name:    "daily-limit",
			Usage:   "approximate max posts per trailing day, across games; zero disables",
			EnvVars: []string{"WADE_DAILY_LIMIT"},
		},
		&cli.IntFlag{
			Name:    "max-post-length",
			Usage:   "post length cap, in graphemes",
			Value:   300,
			EnvVars: []string{"WADE_MAX_POST_LENGTH"},
		},
	}

	app.Commands = []*cli.Command{
		runCmd,
		replayCmd,
		classifyCmd,
	}
	return &app
}

var runCmd = &cli.Command{
	Name:  "run",
	Usage: "follow today's game and post to Bluesky",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:    "bluesky-host",
			Value:   "https://bsky.social",
			EnvVars: []string{"BLUESKY_HOST"},
		},
		&cli.StringFlag{
			Name:    "bluesky-handle",
			EnvVars: []string{"BLUESKY_HANDLE"},
		},
		&cli.StringFlag{
			Name:    "bluesky-password",
			EnvVars: []string{"BLUESKY_PASSWORD"},
		},
		&cli.DurationFlag{
			Name:    "session-refresh",
			Usage:   "how often to refresh the Bluesky session",
			Value:   30 * time.Minute,
			EnvVars: []string{"WADE_SESSION_REFRESH"},
		},
		&cli.BoolFlag{
			Name:    "dry-run",
			Usage:   "print posts instead of publishing them",
			EnvVars: []string{"WADE_DRY_RUN"},
		},
		&cli.StringFlag{
			Name:    "schedule-file",
			Usage:   "JSON season calendar; without one, the stats API is asked every cycle",
			EnvVars: []string{"WADE_SCHEDULE_FILE"},
		},
		&cli.StringFlag{
			Name:    "timezone",
			Usage:   "location whose calendar date picks today's game",
			Value:   "UTC",
			EnvVars: []string{"WADE_TIMEZONE"},
		},
		&cli.StringFlag{
			Name:    "statsapi-host",
			Value:   "https://statsapi.mlb.com",
			EnvVars: []string{"WADE_STATSAPI_HOST"},
		},
		&cli.Float64Flag{
			Name:    "statsapi-rate-limit",
			Usage:   "max requests per second to the stats API",
			Value:   2,
			EnvVars: []string{"WADE_STATSAPI_RATE_LIMIT"},
		},
		&cli.DurationFlag{
			Name:    "poll-interval",
			Value:   60 * time.Second,
			EnvVars: []string{"WADE_POLL_INTERVAL"},
		},
		&cli.DurationFlag{
			Name:    "idle-backoff",
			Usage:   "wait before checking again when there is no game",
			Value:   60 * time.Second,
			EnvVars: []string{"WADE_IDLE_BACKOFF"},
		},
		&cli.StringFlag{
			Name:    "post-log",
			Usage:   "file to append published posts to",
			Value:   "wade_posts_log.txt",
			EnvVars: []string{"WADE_POST_LOG"},
		},
		&cli.StringFlag{
			Name:    "bind",
			Usage:   "IP or address, and port, to listen on for status and metrics",
			Value:   ":8080",
			EnvVars: []string{"WADE_BIND"},
		},
	},
	Action: runLive,
}

var replayCmd = &cli.Command{
	Name:      "replay",
	Usage:     "replay a saved game through the bot",
	ArgsUsage: "<game-file>",
	Flags: []cli.Flag{
		&cli.DurationFlag{
			Name:  "interval",
			Usage: "delay between replay cycles",
			Value: 200 * time.Millisecond,
		},
		&cli.IntFlag{
			Name:  "step",
			Usage: "plays revealed per cycle",
			Value: 1,
		},
		&cli.IntFlag{
			Name:  "passes",
			Usage: "number of times to play the game through",
			Value: 1,
		},
		&cli.BoolFlag{
			Name:  "publish",
			Usage: "publish to Bluesky rather than printing (needs the run command's credentials)",
		},
		&cli.StringFlag{
			Name:    "bluesky-host",
			Value:   "https://bsky.social",
			EnvVars: []string{"BLUESKY_HOST"},
		},
		&cli.StringFlag{
			Name:    "bluesky-handle",
			EnvVars: []string{"BLUESKY_HANDLE"},
		},
		&cli.StringFlag{
			Name:    "bluesky-password",
			EnvVars: []string{"BLUESKY_PASSWORD"},
		},
		&cli.StringFlag{
			Name:  "post-log",
			Usage: "file to append generated posts to",
		},
		&cli.StringFlag{
			Name:  "bind",
			Usage: "serve status and metrics while replaying",
		},
	},
	Action: runReplay,
}

var classifyCmd = &cli.Command{
	Name:      "classify",
	Usage:     "print the posting decision for every play in a saved game",
	ArgsUsage: "<game-file>",
	Action:    runClassify,
}
